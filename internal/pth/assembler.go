package pth

import (
	"fmt"
	"io"
	"time"

	"github.com/VanirLLVM/external-clang/internal/fileentry"
	"github.com/VanirLLVM/external-clang/internal/hashtable"
	"github.com/VanirLLVM/external-clang/internal/ident"
	"github.com/VanirLLVM/external-clang/internal/lexer"
	"github.com/VanirLLVM/external-clang/internal/sink"
	"github.com/VanirLLVM/external-clang/internal/source"
	"github.com/VanirLLVM/external-clang/internal/spelling"
)

// magic is the artifact's fixed 7-byte header, unchanged across
// versions; only the version field that follows it varies.
const magic = "cfe-pth"

// Version is the format version this writer emits.
const Version = 1

// Reporter is an optional progress sink the assembler notifies once
// per cached file. A nil Reporter is silent — notification is purely
// additive and never affects the emitted bytes (spec.md §8 scenario 8).
type Reporter interface {
	FileDone(path string, tokenCount, byteCount int, elapsed time.Duration)
}

// ManifestRecorder is an optional diagnostic sink that records each
// cached file's placement in the artifact. Like Reporter, it is
// additive: a nil recorder changes nothing about the bytes written.
type ManifestRecorder interface {
	RecordFile(path string, tokenCount int, tokenOffset, ppcondOffset uint32, ppcondCount int) error
}

// Writer assembles one PTH artifact. It owns every piece of mutable
// state for the lifetime of a single GeneratePTH call — identifier
// interner, spelling pool, file-map entries — none of which survives
// past that call, per spec.md §5's resource model.
type Writer struct {
	out      *sink.File
	idtab    *lexer.IdentifierTable
	interner *ident.Interner[*lexer.Identifier]
	pool     *spelling.Pool
	fileMap  *hashtable.Generator[KeyVariant, Entry]

	reporter Reporter
	manifest ManifestRecorder
}

// Option configures a Writer at construction time.
type Option func(*Writer)

// WithReporter attaches a progress sink.
func WithReporter(r Reporter) Option { return func(w *Writer) { w.reporter = r } }

// WithManifest attaches a manifest recorder.
func WithManifest(m ManifestRecorder) Option { return func(w *Writer) { w.manifest = m } }

// New creates a Writer over w, assumed positioned at offset 0.
func New(w io.WriteSeeker, opts ...Option) *Writer {
	wr := &Writer{
		out:      sink.New(w),
		idtab:    lexer.NewIdentifierTable(),
		interner: ident.New[*lexer.Identifier](),
		pool:     spelling.New(),
		fileMap:  hashtable.New[KeyVariant, Entry](fileMapTrait{}),
	}
	for _, opt := range opts {
		opt(wr)
	}
	return wr
}

// GeneratePTH runs the full assembly pass of spec.md §4.8: per-file
// token lexing, identifier/spelling/file-map emission, and the
// prologue back-patch. Files whose path is not absolute, or whose
// buffer could not be read, are silently skipped (§7); an I/O failure
// on the sink aborts and returns an error; a structural violation
// (unbalanced conditionals, among others) panics, per §7's "design-time
// bugs; fail loudly" rule.
func (w *Writer) GeneratePTH(mgr *source.Manager, fe *fileentry.Registry) error {
	if err := w.out.EmitBytes([]byte(magic)); err != nil {
		return fmt.Errorf("pth: writing magic: %w", err)
	}
	if err := w.out.Emit32(Version); err != nil {
		return fmt.Errorf("pth: writing version: %w", err)
	}

	prologueOffset := w.out.Offset()
	for i := 0; i < 4; i++ {
		if err := w.out.Emit32(0); err != nil {
			return fmt.Errorf("pth: reserving prologue: %w", err)
		}
	}

	for _, f := range mgr.Files() {
		if f.Absent || !source.IsAbsolute(f.Path) {
			continue
		}
		start := time.Now()
		entry, tokenCount, ppcondCount, err := w.lexFile(f)
		if err != nil {
			return fmt.Errorf("pth: lexing %s: %w", f.Path, err)
		}

		key := KeyVariant{Kind: EntryFile, Path: f.Path}
		if st, ok := fe.Stat(f.Path); ok {
			key.Stat = st
		}
		w.fileMap.Insert(key, entry)

		if w.manifest != nil {
			if err := w.manifest.RecordFile(f.Path, tokenCount, entry.TokenOffset, entry.PPCondOffset, ppcondCount); err != nil {
				return fmt.Errorf("pth: recording manifest for %s: %w", f.Path, err)
			}
		}
		if w.reporter != nil {
			w.reporter.FileDone(f.Path, tokenCount, len(f.Buf), time.Since(start))
		}
	}

	idTableOff, stringHashOff, err := emitIdentifierTables(w.out, w.interner)
	if err != nil {
		return fmt.Errorf("pth: emitting identifier tables: %w", err)
	}

	spellingOff, err := w.pool.Emit(w.out)
	if err != nil {
		return fmt.Errorf("pth: emitting spelling pool: %w", err)
	}

	fileTableOff, err := w.fileMap.Emit(w.out)
	if err != nil {
		return fmt.Errorf("pth: emitting file map: %w", err)
	}

	if _, err := w.out.Seek(int64(prologueOffset), io.SeekStart); err != nil {
		return fmt.Errorf("pth: seeking to prologue: %w", err)
	}
	for _, v := range [4]uint32{idTableOff, stringHashOff, fileTableOff, spellingOff} {
		if err := w.out.Emit32(v); err != nil {
			return fmt.Errorf("pth: back-patching prologue: %w", err)
		}
	}
	return nil
}
