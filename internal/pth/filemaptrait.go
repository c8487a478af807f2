package pth

import (
	"github.com/VanirLLVM/external-clang/internal/hashtable"
	"github.com/VanirLLVM/external-clang/internal/sink"
)

// fileRepresentationLength is the fixed stat-record size spec.md §4.7
// names: inode(4) + device(4) + mode(2) + mtime(8) + size(8).
const fileRepresentationLength = 4 + 4 + 2 + 8 + 8

// fileMapTrait implements hashtable.Trait[KeyVariant, Entry], grounded
// on CacheTokens.cpp's FileEntryPTHEntryInfo / PTHEntryKeyVariant.
type fileMapTrait struct{}

func (fileMapTrait) Hash(key KeyVariant) uint32 { return hashtable.Hash(key.Path) }

func (fileMapTrait) EmitKeyDataLength(w *sink.File, key KeyVariant, data Entry) (int, int, error) {
	n := len(key.Path) + 1 + 1 // path bytes + NUL + 1-byte kind tag
	if err := w.Emit16(uint32(n)); err != nil {
		return 0, 0, err
	}
	m := 0
	if key.Kind == EntryFile {
		m = fileRepresentationLength + 8 // + token_off, ppcond_off
	}
	if err := w.Emit8(uint32(m)); err != nil {
		return 0, 0, err
	}
	return n, m, nil
}

func (fileMapTrait) EmitKey(w *sink.File, key KeyVariant, keyLen int) error {
	if err := w.Emit8(uint32(key.Kind)); err != nil {
		return err
	}
	if err := w.EmitBytes([]byte(key.Path)); err != nil {
		return err
	}
	return w.Emit8(0)
}

func (fileMapTrait) EmitData(w *sink.File, key KeyVariant, data Entry, dataLen int) error {
	if key.Kind != EntryFile {
		return nil
	}
	if err := w.Emit32(data.TokenOffset); err != nil {
		return err
	}
	if err := w.Emit32(data.PPCondOffset); err != nil {
		return err
	}
	if err := w.Emit32(key.Stat.Inode); err != nil {
		return err
	}
	if err := w.Emit32(key.Stat.Device); err != nil {
		return err
	}
	if err := w.Emit16(uint32(key.Stat.Mode)); err != nil {
		return err
	}
	if err := w.Emit64(key.Stat.Mtime); err != nil {
		return err
	}
	return w.Emit64(key.Stat.Size)
}
