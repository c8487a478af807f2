// Package spelling deduplicates literal token spellings into a single
// NUL-terminated byte pool at stable offsets, per spec.md §4.4.
package spelling

import "github.com/VanirLLVM/external-clang/internal/sink"

// Pool tracks first-seen literal spellings and the offset each will
// occupy once emitted. Offsets are assigned during lexing, ahead of
// the bytes actually being written — the arithmetic must exactly
// match what Emit later produces.
type Pool struct {
	offsets map[string]uint32
	order   []string
	cur     uint32
}

// New creates an empty pool.
func New() *Pool {
	return &Pool{offsets: make(map[string]uint32)}
}

// Intern returns the stable offset for spelling, assigning one and
// remembering insertion order the first time spelling is seen.
func (p *Pool) Intern(spelling string) uint32 {
	if off, ok := p.offsets[spelling]; ok {
		return off
	}
	off := p.cur
	p.offsets[spelling] = off
	p.order = append(p.order, spelling)
	p.cur += uint32(len(spelling)) + 1 // +1 for the trailing NUL
	return off
}

// CurOffset is the write cursor that would be produced by interning
// one more distinct key — exposed so callers can assert spec.md's
// invariant that every assigned offset is < CurOffset at emit time.
func (p *Pool) CurOffset() uint32 { return p.cur }

// Emit writes every interned spelling, in insertion order, each
// followed by a NUL terminator, and returns the offset the pool
// started at.
func (p *Pool) Emit(w *sink.File) (uint32, error) {
	start := uint32(w.Offset())
	for _, s := range p.order {
		if err := w.EmitBytes([]byte(s)); err != nil {
			return 0, err
		}
		if err := w.Emit8(0); err != nil {
			return 0, err
		}
	}
	return start, nil
}
