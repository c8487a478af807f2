// Package pth is the PTH assembler: spec.md §2's fifth and largest
// component, orchestrating the pass over every cached file, emitting
// token streams, PPCond tables, the identifier and spelling tables,
// and the file map, then back-patching the prologue. Grounded
// throughout on CacheTokens.cpp's PTHWriter.
package pth

import "github.com/VanirLLVM/external-clang/internal/fileentry"

// EntryKind tags the three file-map key variants spec.md §3 and §9
// describe as a sum type: real file, directory (reserved), or a path
// that does not exist.
type EntryKind uint8

const (
	EntryFile EntryKind = iota
	EntryDirectory
	EntryNonExistent
)

// KeyVariant is the file-map key: a path tagged with which of the
// three kinds it is, carrying stat metadata only for real files.
type KeyVariant struct {
	Kind EntryKind
	Path string
	Stat fileentry.Stat
}

// Entry is the file-map's data payload: the byte offsets of a file's
// token stream and PPCond table within the artifact.
type Entry struct {
	TokenOffset  uint32
	PPCondOffset uint32
}
