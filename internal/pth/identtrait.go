package pth

import (
	"github.com/VanirLLVM/external-clang/internal/hashtable"
	"github.com/VanirLLVM/external-clang/internal/ident"
	"github.com/VanirLLVM/external-clang/internal/lexer"
	"github.com/VanirLLVM/external-clang/internal/sink"
)

// idKey is the mutable key behind the name->ID hash table: EmitKey
// records the file offset its bytes landed at, which is read back
// afterward to populate the ID->offset table. Grounded on
// CacheTokens.cpp's PTHIdKey.
type idKey struct {
	Name       string
	FileOffset uint32
}

// identTrait implements hashtable.Trait[*idKey, ident.ID], grounded on
// CacheTokens.cpp's PTHIdentifierTableTrait.
type identTrait struct{}

func (identTrait) Hash(key *idKey) uint32 { return hashtable.Hash(key.Name) }

func (identTrait) EmitKeyDataLength(w *sink.File, key *idKey, data ident.ID) (int, int, error) {
	n := len(key.Name) + 1
	if err := w.Emit16(uint32(n)); err != nil {
		return 0, 0, err
	}
	return n, 4, nil
}

func (identTrait) EmitKey(w *sink.File, key *idKey, keyLen int) error {
	key.FileOffset = uint32(w.Offset())
	if err := w.EmitBytes([]byte(key.Name)); err != nil {
		return err
	}
	return w.Emit8(0)
}

func (identTrait) EmitData(w *sink.File, key *idKey, data ident.ID, dataLen int) error {
	return w.Emit32(uint32(data))
}

// emitIdentifierTables builds and emits the two coordinated identifier
// tables spec.md §4.6 describes, returning (idTableOff, stringHashOff).
func emitIdentifierTables(w *sink.File, in *ident.Interner[*lexer.Identifier]) (uint32, uint32, error) {
	names := in.Inverse()
	idcount := len(names)
	keys := make([]*idKey, idcount)
	gen := hashtable.New[*idKey, ident.ID](identTrait{})
	for i, h := range names {
		k := &idKey{Name: h.Name}
		keys[i] = k
		gen.Insert(k, ident.ID(i+1))
	}

	stringHashOff, err := gen.Emit(w)
	if err != nil {
		return 0, 0, err
	}

	idTableOff := uint32(w.Offset())
	if err := w.Emit32(uint32(idcount)); err != nil {
		return 0, 0, err
	}
	for _, k := range keys {
		if err := w.Emit32(k.FileOffset); err != nil {
			return 0, 0, err
		}
	}
	return idTableOff, stringHashOff, nil
}
