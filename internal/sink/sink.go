// Package sink implements the write-only, seekable byte stream the PTH
// writer assembles its artifact on top of. All multi-byte values are
// emitted little-endian regardless of host byte order.
package sink

import (
	"encoding/binary"
	"io"
)

// Writer is the minimal capability set of the writer's output: append
// bytes, know the current offset, and seek back for prologue
// back-patching. Padding is not part of it; File.Pad provides that.
type Writer interface {
	io.Writer
	io.Seeker
	Offset() uint64
}

// File wraps an *os.File (or any io.WriteSeeker) with the little-endian
// emit helpers and offset tracking the assembler relies on.
type File struct {
	w   io.WriteSeeker
	off uint64
}

// New wraps w, assuming it is currently positioned at offset 0.
func New(w io.WriteSeeker) *File {
	return &File{w: w}
}

func (f *File) Write(p []byte) (int, error) {
	n, err := f.w.Write(p)
	f.off += uint64(n)
	return n, err
}

// Seek repositions the underlying stream. Only whence == io.SeekStart
// is used by the writer (prologue back-patch), but the full Seeker
// contract is forwarded for completeness.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	abs, err := f.w.Seek(offset, whence)
	if err != nil {
		return abs, err
	}
	f.off = uint64(abs)
	return abs, nil
}

// Offset returns the current write cursor.
func (f *File) Offset() uint64 {
	return f.off
}

// Emit8 writes a single byte.
func (f *File) Emit8(v uint32) error {
	_, err := f.Write([]byte{byte(v)})
	return err
}

// Emit16 writes the low 16 bits of v, little-endian. In a debug build
// a caller that cares should assert v>>16 == 0 before calling; here we
// silently truncate, matching the production behavior spec.md §4.1
// describes for the emit helpers.
func (f *File) Emit16(v uint32) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], uint16(v))
	_, err := f.Write(buf[:])
	return err
}

// Emit24 writes the low 24 bits of v, little-endian.
func (f *File) Emit24(v uint32) error {
	var buf [3]byte
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	_, err := f.Write(buf[:])
	return err
}

// Emit32 writes v, little-endian.
func (f *File) Emit32(v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := f.Write(buf[:])
	return err
}

// Emit64 writes v, little-endian.
func (f *File) Emit64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := f.Write(buf[:])
	return err
}

// EmitBytes writes p verbatim.
func (f *File) EmitBytes(p []byte) error {
	_, err := f.Write(p)
	return err
}

// Pad writes the minimum number of zero bytes needed to bring the
// current offset up to the next multiple of align, which must be a
// power of two.
func (f *File) Pad(align uint64) error {
	off := f.Offset()
	n := (off + align - 1) &^ (align - 1) - off
	if n == 0 {
		return nil
	}
	zeros := make([]byte, n)
	return f.EmitBytes(zeros)
}
