package source

import "testing"

func TestAddBufferCanonicalizesCRLF(t *testing.T) {
	m := New()
	f := m.AddBuffer("/a.h", []byte("a\r\nb\r"))
	want := "a\nb\n"
	if string(f.Buf) != want {
		t.Fatalf("Buf = %q, want %q", f.Buf, want)
	}
}

func TestAddBufferEnsuresTrailingNewline(t *testing.T) {
	m := New()
	f := m.AddBuffer("/a.h", []byte("a"))
	if string(f.Buf) != "a\n" {
		t.Fatalf("Buf = %q, want %q", f.Buf, "a\n")
	}
}

func TestAddBufferIdempotent(t *testing.T) {
	m := New()
	f1 := m.AddBuffer("/a.h", []byte("x"))
	f2 := m.AddBuffer("/a.h", []byte("y"))
	if f1 != f2 {
		t.Fatal("re-adding the same path should return the original entry")
	}
}

func TestFilesPreservesEnumerationOrder(t *testing.T) {
	m := New()
	m.AddBuffer("/a.h", []byte("a"))
	m.AddBuffer("/b.h", []byte("b"))
	files := m.Files()
	if len(files) != 2 || files[0].Path != "/a.h" || files[1].Path != "/b.h" {
		t.Fatalf("Files() = %+v, want order [/a.h /b.h]", files)
	}
}

func TestAddFromDiskMissingFileIsAbsent(t *testing.T) {
	m := New()
	f := m.AddFromDisk("/does/not/exist/12345.h")
	if !f.Absent {
		t.Fatal("missing file should be marked Absent, not returned with an error")
	}
}

func TestIsAbsolute(t *testing.T) {
	if !IsAbsolute("/a/b.h") {
		t.Fatal("/a/b.h should be absolute")
	}
	if IsAbsolute("a/b.h") {
		t.Fatal("a/b.h should not be absolute")
	}
}
