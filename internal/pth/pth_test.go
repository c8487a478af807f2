package pth

import (
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/VanirLLVM/external-clang/internal/fileentry"
	"github.com/VanirLLVM/external-clang/internal/source"
)

type memSeeker struct {
	data []byte
	pos  int64
}

func (m *memSeeker) Write(p []byte) (int, error) {
	end := m.pos + int64(len(p))
	if end > int64(len(m.data)) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}
	copy(m.data[m.pos:end], p)
	m.pos = end
	return len(p), nil
}

func (m *memSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		m.pos = offset
	case io.SeekCurrent:
		m.pos += offset
	case io.SeekEnd:
		m.pos = int64(len(m.data)) + offset
	}
	return m.pos, nil
}

func (m *memSeeker) u32(off uint32) uint32 {
	return binary.LittleEndian.Uint32(m.data[off : off+4])
}

// generate runs GeneratePTH over a single in-memory file and returns
// the raw artifact bytes for inspection.
func generate(t *testing.T, path, contents string) *memSeeker {
	t.Helper()
	mgr := source.New()
	mgr.AddBuffer(path, []byte(contents))
	fe := fileentry.New()
	buf := &memSeeker{}
	w := New(buf)
	if err := w.GeneratePTH(mgr, fe); err != nil {
		t.Fatalf("GeneratePTH: %v", err)
	}
	return buf
}

func TestMagicAndVersion(t *testing.T) {
	buf := generate(t, "/main.h", "")
	if string(buf.data[0:7]) != "cfe-pth" {
		t.Fatalf("magic = %q, want cfe-pth", buf.data[0:7])
	}
	if v := buf.u32(7); v != Version {
		t.Fatalf("version = %d, want %d", v, Version)
	}
}

func TestEmptyTranslationUnit(t *testing.T) {
	buf := generate(t, "/main.h", "")
	idTableOff := buf.u32(11)
	fileTableOff := buf.u32(19)

	idcount := buf.u32(idTableOff)
	if idcount != 0 {
		t.Fatalf("idcount = %d, want 0", idcount)
	}

	numEntries := buf.u32(fileTableOff + 4)
	if numEntries != 1 {
		t.Fatalf("file map numEntries = %d, want 1", numEntries)
	}
}

func TestSingleIncludeDirective(t *testing.T) {
	buf := generate(t, "/main.h", `#include <a.h>`)
	idTableOff := buf.u32(11)
	stringHashOff := buf.u32(15)
	spellingOff := buf.u32(23)
	_ = spellingOff

	idcount := buf.u32(idTableOff)
	if idcount != 1 {
		t.Fatalf("idcount = %d, want 1 (just 'include')", idcount)
	}
	nameOff := buf.u32(idTableOff + 4)
	name := cString(buf.data, nameOff)
	if name != "include" {
		t.Fatalf("identifier name = %q, want %q", name, "include")
	}
	_ = stringHashOff
}

func TestBalancedConditional(t *testing.T) {
	buf := generate(t, "/main.h", "#if A\n#else\n#endif\n")
	tokenOff, ppcondOff := firstFileEntry(t, buf)
	_ = tokenOff

	count := buf.u32(ppcondOff)
	if count != 3 {
		t.Fatalf("ppcond count = %d, want 3", count)
	}
	wantTargets := []uint32{1, 2, 0}
	for i, want := range wantTargets {
		target := buf.u32(ppcondOff + 4 + uint32(i)*8 + 4)
		if target != want {
			t.Fatalf("ppcond[%d].target = %d, want %d", i, target, want)
		}
	}
	var lastOff uint32
	for i := 0; i < 3; i++ {
		off := buf.u32(ppcondOff + 4 + uint32(i)*8)
		if i > 0 && off <= lastOff {
			t.Fatalf("hash offsets not strictly increasing at %d: %d <= %d", i, off, lastOff)
		}
		lastOff = off
	}
}

func TestNestedConditionals(t *testing.T) {
	buf := generate(t, "/main.h", "#if A\n#if B\n#endif\n#endif\n")
	_, ppcondOff := firstFileEntry(t, buf)

	count := buf.u32(ppcondOff)
	if count != 4 {
		t.Fatalf("ppcond count = %d, want 4", count)
	}
	want := []uint32{3, 2, 0, 0}
	for i, w := range want {
		target := buf.u32(ppcondOff + 4 + uint32(i)*8 + 4)
		if target != w {
			t.Fatalf("ppcond[%d].target = %d, want %d", i, target, w)
		}
	}
}

func TestLiteralDeduplication(t *testing.T) {
	buf := generate(t, "/main.h", "42 42")
	tokenOff, _ := firstFileEntry(t, buf)

	word1First := buf.u32(tokenOff + 4)
	word1Second := buf.u32(tokenOff + 12 + 4)
	if word1First != word1Second {
		t.Fatalf("two occurrences of 42 got different pool offsets: %d != %d", word1First, word1Second)
	}
	if word1First != 0 {
		t.Fatalf("first literal offset = %d, want 0", word1First)
	}
}

func TestIdentifierIDStability(t *testing.T) {
	buf := generate(t, "/main.h", "foo bar foo")
	tokenOff, _ := firstFileEntry(t, buf)

	idFoo1 := buf.u32(tokenOff + 4)
	idBar := buf.u32(tokenOff + 12 + 4)
	idFoo2 := buf.u32(tokenOff + 24 + 4)

	if idFoo1 != 1 || idBar != 2 || idFoo2 != 1 {
		t.Fatalf("ids = [%d %d %d], want [1 2 1]", idFoo1, idBar, idFoo2)
	}

	idTableOff := buf.u32(11)
	idcount := buf.u32(idTableOff)
	if idcount != 2 {
		t.Fatalf("idcount = %d, want 2", idcount)
	}
}

func TestSilentWithoutReporter(t *testing.T) {
	mgr := source.New()
	mgr.AddBuffer("/main.h", []byte("foo bar"))
	fe := fileentry.New()

	bufA := &memSeeker{}
	if err := New(bufA).GeneratePTH(mgr, fe); err != nil {
		t.Fatal(err)
	}

	mgr2 := source.New()
	mgr2.AddBuffer("/main.h", []byte("foo bar"))
	bufB := &memSeeker{}
	rep := &countingReporter{}
	if err := New(bufB, WithReporter(rep)).GeneratePTH(mgr2, fe); err != nil {
		t.Fatal(err)
	}

	if len(bufA.data) != len(bufB.data) {
		t.Fatalf("artifact size differs with a reporter attached: %d != %d", len(bufA.data), len(bufB.data))
	}
	for i := range bufA.data {
		if bufA.data[i] != bufB.data[i] {
			t.Fatalf("byte %d differs with a reporter attached", i)
		}
	}
	if rep.calls != 1 {
		t.Fatalf("reporter called %d times, want 1", rep.calls)
	}
}

type countingReporter struct{ calls int }

func (r *countingReporter) FileDone(path string, tokenCount, byteCount int, elapsed time.Duration) {
	r.calls++
}

func cString(data []byte, off uint32) string {
	end := off
	for data[end] != 0 {
		end++
	}
	return string(data[off:end])
}

// firstFileEntry locates the single file-map entry's (token_off,
// ppcond_off) pair by walking the file-map's only populated bucket —
// valid because these tests only ever register one cached file.
func firstFileEntry(t *testing.T, buf *memSeeker) (uint32, uint32) {
	t.Helper()
	fileTableOff := buf.u32(19)
	numBuckets := buf.u32(fileTableOff)
	for i := uint32(0); i < numBuckets; i++ {
		bucketOff := buf.u32(fileTableOff + 8 + i*4)
		if bucketOff == 0 {
			continue
		}
		// bucket: u16 length, then items: u32 hash, u16 keyLen, u8 dataLen, key bytes, data bytes
		pos := bucketOff + 2
		hash := buf.u32(pos)
		_ = hash
		pos += 4
		keyLen := binary.LittleEndian.Uint16(buf.data[pos : pos+2])
		pos += 2
		dataLen := buf.data[pos]
		pos++
		pos += uint32(keyLen) // skip kind tag + path + NUL
		tokenOff := buf.u32(pos)
		ppcondOff := buf.u32(pos + 4)
		_ = dataLen
		return tokenOff, ppcondOff
	}
	t.Fatal("no populated bucket found in file map")
	return 0, 0
}
