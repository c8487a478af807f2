// Package hashtable implements the on-disk chained hash table builder
// spec.md §4.2 describes: entries accumulate in memory, the bucket
// count doubles whenever an insert brings the load factor to 3/4 or
// above, and Emit flushes a self-describing table image to a *sink.File.
//
// The C++ original (see CacheTokens.cpp's OnDiskChainedHashTableGenerator)
// parameterizes on a template Info type with four static members. Go
// generics plus a small interface is the idiomatic substitute spec.md
// §9 itself calls for: Trait[K, D] stands in for Info.
package hashtable

import (
	"github.com/VanirLLVM/external-clang/internal/sink"
)

// Offset mirrors the artifact's on-disk offset width. The in-memory
// cursor in sink.File is wider (uint64) so overflow can be caught at
// emit sites; only values that fit are ever written here.
type Offset = uint32

// Trait is the capability set a concrete table (identifier table,
// file map, ...) must provide. EmitKeyDataLength is responsible for
// writing its own length prefix(es) to w — how many bytes, and in
// what encoding, is entirely up to the trait, which is the pattern
// spec.md §4.2 calls out explicitly ("this pattern lets each trait
// decide how lengths are encoded").
type Trait[K any, D any] interface {
	Hash(key K) uint32
	EmitKeyDataLength(w *sink.File, key K, data D) (keyLen, dataLen int, err error)
	EmitKey(w *sink.File, key K, keyLen int) error
	EmitData(w *sink.File, key K, data D, dataLen int) error
}

type item[K any, D any] struct {
	key  K
	data D
	hash uint32
	next *item[K, D]
}

type bucket[K any, D any] struct {
	off    Offset
	head   *item[K, D]
	length uint16
}

// Generator accumulates entries in memory and flushes them to a sink
// in the chained-bucket format a reader can index directly.
type Generator[K any, D any] struct {
	trait      Trait[K, D]
	numBuckets uint32
	numEntries uint32
	buckets    []bucket[K, D]
}

// New creates an empty generator with the initial 64-bucket table
// spec.md §4.2 specifies.
func New[K any, D any](trait Trait[K, D]) *Generator[K, D] {
	const initialBuckets = 64
	return &Generator[K, D]{
		trait:      trait,
		numBuckets: initialBuckets,
		buckets:    make([]bucket[K, D], initialBuckets),
	}
}

// Insert adds a (key, data) pair, first doubling the bucket count if
// the new entry count brings the load factor to 3/4 or above (4n >=
// 3*numBuckets). Later-inserted items land at the
// head of their bucket's list; readers must not depend on intra-bucket
// order, per spec.md §4.2.
func (g *Generator[K, D]) Insert(key K, data D) {
	g.numEntries++
	if 4*g.numEntries >= 3*g.numBuckets {
		g.resize(g.numBuckets * 2)
	}
	it := &item[K, D]{key: key, data: data, hash: g.trait.Hash(key)}
	g.insertItem(it)
}

func (g *Generator[K, D]) insertItem(it *item[K, D]) {
	idx := it.hash & (g.numBuckets - 1)
	b := &g.buckets[idx]
	it.next = b.head
	b.head = it
	b.length++
}

func (g *Generator[K, D]) resize(newSize uint32) {
	newBuckets := make([]bucket[K, D], newSize)
	old := g.buckets
	g.buckets = newBuckets
	g.numBuckets = newSize
	for i := range old {
		for it := old[i].head; it != nil; {
			n := it.next
			it.next = nil
			g.insertItem(it)
			it = n
		}
	}
}

// Emit writes the table payload (bucket by bucket, item by item),
// pads to 4-byte alignment, then writes the bucket index and returns
// the offset of that index — the value a reader starts from.
func (g *Generator[K, D]) Emit(w *sink.File) (Offset, error) {
	for i := range g.buckets {
		b := &g.buckets[i]
		if b.head == nil {
			continue
		}
		b.off = Offset(w.Offset())
		if err := w.Emit16(uint32(b.length)); err != nil {
			return 0, err
		}
		for it := b.head; it != nil; it = it.next {
			if err := w.Emit32(it.hash); err != nil {
				return 0, err
			}
			keyLen, dataLen, err := g.trait.EmitKeyDataLength(w, it.key, it.data)
			if err != nil {
				return 0, err
			}
			if err := g.trait.EmitKey(w, it.key, keyLen); err != nil {
				return 0, err
			}
			if err := g.trait.EmitData(w, it.key, it.data, dataLen); err != nil {
				return 0, err
			}
		}
	}

	if err := w.Pad(4); err != nil {
		return 0, err
	}
	tableOff := Offset(w.Offset())
	if err := w.Emit32(g.numBuckets); err != nil {
		return 0, err
	}
	if err := w.Emit32(g.numEntries); err != nil {
		return 0, err
	}
	for i := range g.buckets {
		if err := w.Emit32(g.buckets[i].off); err != nil {
			return 0, err
		}
	}
	return tableOff, nil
}

// NumBuckets reports the current bucket count, exposed for the
// load-factor-law test in spec.md §8.
func (g *Generator[K, D]) NumBuckets() uint32 { return g.numBuckets }

// NumEntries reports the number of inserted entries.
func (g *Generator[K, D]) NumEntries() uint32 { return g.numEntries }

// Hash is the Bernstein variant spec.md §4.2 mandates: R = R*33 + b
// over each byte of the NUL-terminated string (s plus its implicit
// trailing NUL), then R + (R>>5). It must be computed identically by
// any reader that consumes the identifier table or file map — the
// trailing NUL byte is part of the hash input, not just the on-disk
// key, so it is folded in here even though s itself carries no NUL.
func Hash(s string) uint32 {
	var r uint32
	for i := 0; i < len(s); i++ {
		r = r*33 + uint32(s[i])
	}
	r = r * 33 // the implicit trailing NUL contributes a zero byte
	return r + (r >> 5)
}
