// Package fileentry is the "file-entry registry" spec.md §1 names as
// an external collaborator: it answers stable inode/device/mode/mtime/
// size queries for real files, grounded in CacheTokens.cpp's
// FileEntry::getInode/getDevice/getFileMode/getModificationTime/
// getSize, via syscall.Stat_t — there is no third-party library for
// raw POSIX stat fields, so this one package stays on the standard
// library by necessity, not by omission.
package fileentry

import (
	"os"
	"syscall"
)

// Stat is the fixed 26-byte stat record spec.md §4.7 emits for a real
// file entry: inode, device, mode, mtime, size.
type Stat struct {
	Inode  uint32
	Device uint32
	Mode   uint16
	Mtime  uint64
	Size   uint64
}

// Registry caches Stat lookups by path so the assembler never stats
// the same file twice.
type Registry struct {
	cache map[string]Stat
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{cache: make(map[string]Stat)}
}

// Stat returns path's cached stat metadata, statting the filesystem on
// first request. ok is false if the path cannot be stat'd; the
// assembler still caches such a file, with a zero Stat in its
// file-map entry.
func (r *Registry) Stat(path string) (Stat, bool) {
	if s, ok := r.cache[path]; ok {
		return s, true
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Stat{}, false
	}
	sys, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return Stat{}, false
	}
	s := Stat{
		Inode:  uint32(sys.Ino),
		Device: uint32(sys.Dev),
		Mode:   uint16(sys.Mode),
		Mtime:  uint64(sys.Mtim.Sec),
		Size:   uint64(fi.Size()),
	}
	r.cache[path] = s
	return s, true
}
