package pth

import (
	"fmt"

	"github.com/VanirLLVM/external-clang/internal/lexer"
	"github.com/VanirLLVM/external-clang/internal/source"
)

// ppEntry is one row of a file's PPCond vector: the byte offset (still
// absolute at this point — made token_off-relative only at emission)
// where the directive's '#' was emitted, and the peer target index.
// Grounded on CacheTokens.cpp's PPCondTable pair.
type ppEntry struct {
	hashOff uint32
	target  uint32
}

// lexFile runs the raw lexer over one file per spec.md §4.5, returning
// its file-map entry plus the token and PPCond counts a Reporter or
// ManifestRecorder might want.
func (w *Writer) lexFile(f *source.File) (Entry, int, int, error) {
	if err := w.out.Pad(4); err != nil {
		return Entry{}, 0, 0, err
	}
	tokenOff := uint32(w.out.Offset())

	sc := lexer.NewScanner(f.Buf, w.idtab)

	var ppcond []ppEntry
	var startStack []int
	inDirective := false
	tokenCount := 0

	var pending *lexer.Token
	next := func() lexer.Token {
		if pending != nil {
			t := *pending
			pending = nil
			return t
		}
		return sc.Next()
	}

	for {
		tok := next()

		if inDirective && (tok.AtStartOfLine() || tok.Kind == lexer.KindEOF) {
			eod := tok
			eod.Kind = lexer.KindEndOfDirective
			eod.Flags &^= lexer.FlagStartOfLine
			eod.Ident = nil
			if err := w.emitToken(eod); err != nil {
				return Entry{}, 0, 0, err
			}
			tokenCount++
			inDirective = false
		}

		if tok.Kind == lexer.KindEOF {
			break
		}

		if tok.Kind == lexer.KindIdentifier {
			if err := w.emitToken(tok); err != nil {
				return Entry{}, 0, 0, err
			}
			tokenCount++
			continue
		}

		if tok.Kind == lexer.KindHash && tok.AtStartOfLine() {
			hashOff := uint32(w.out.Offset())
			if err := w.emitToken(tok); err != nil {
				return Entry{}, 0, 0, err
			}
			tokenCount++

			directiveTok := sc.Next()
			if directiveTok.Kind != lexer.KindIdentifier {
				if err := w.emitToken(directiveTok); err != nil {
					return Entry{}, 0, 0, err
				}
				tokenCount++
				continue
			}

			inDirective = true
			switch directiveTok.Ident.Keyword {
			case lexer.PPInclude, lexer.PPImport, lexer.PPIncludeNext:
				if err := w.emitToken(directiveTok); err != nil {
					return Entry{}, 0, 0, err
				}
				tokenCount++
				filenameTok := sc.NextIncludeFilename()
				if err := w.emitToken(filenameTok); err != nil {
					return Entry{}, 0, 0, err
				}
				tokenCount++

			case lexer.PPIf, lexer.PPIfdef, lexer.PPIfndef:
				startStack = append(startStack, len(ppcond))
				ppcond = append(ppcond, ppEntry{hashOff: hashOff, target: 0})
				if err := w.emitToken(directiveTok); err != nil {
					return Entry{}, 0, 0, err
				}
				tokenCount++

			case lexer.PPElif, lexer.PPElse:
				if len(startStack) == 0 {
					panic("pth: #elif/#else with no matching #if")
				}
				index := len(ppcond)
				top := startStack[len(startStack)-1]
				if ppcond[top].target != 0 {
					panic("pth: PPCond back-patch target already set")
				}
				ppcond[top].target = uint32(index)
				startStack = startStack[:len(startStack)-1]
				ppcond = append(ppcond, ppEntry{hashOff: hashOff, target: 0})
				startStack = append(startStack, index)
				if err := w.emitToken(directiveTok); err != nil {
					return Entry{}, 0, 0, err
				}
				tokenCount++

			case lexer.PPEndif:
				if len(startStack) == 0 {
					panic("pth: #endif with no matching #if")
				}
				index := len(ppcond)
				top := startStack[len(startStack)-1]
				if ppcond[top].target != 0 {
					panic("pth: PPCond back-patch target already set")
				}
				ppcond[top].target = uint32(index)
				startStack = startStack[:len(startStack)-1]
				ppcond = append(ppcond, ppEntry{hashOff: hashOff, target: uint32(index)})
				if err := w.emitToken(directiveTok); err != nil {
					return Entry{}, 0, 0, err
				}
				tokenCount++

				// Gibberish tolerance: discard the rest of the physical
				// line, then resume the outer loop with the token that
				// ended it rather than re-lexing.
				for {
					t2 := sc.Next()
					if t2.Kind == lexer.KindEOF || t2.AtStartOfLine() {
						pending = &t2
						break
					}
				}

			default:
				if err := w.emitToken(directiveTok); err != nil {
					return Entry{}, 0, 0, err
				}
				tokenCount++
			}
			continue
		}

		if err := w.emitToken(tok); err != nil {
			return Entry{}, 0, 0, err
		}
		tokenCount++
	}

	if len(startStack) != 0 {
		panic(fmt.Sprintf("pth: unbalanced preprocessor conditionals in %s", f.Path))
	}

	ppcondOff := uint32(w.out.Offset())
	if err := w.out.Emit32(uint32(len(ppcond))); err != nil {
		return Entry{}, 0, 0, err
	}
	for i, e := range ppcond {
		target := e.target
		if int(target) == i {
			target = 0
		}
		if err := w.out.Emit32(e.hashOff - tokenOff); err != nil {
			return Entry{}, 0, 0, err
		}
		if err := w.out.Emit32(target); err != nil {
			return Entry{}, 0, 0, err
		}
	}

	return Entry{TokenOffset: tokenOff, PPCondOffset: ppcondOff}, tokenCount, len(ppcond), nil
}

// emitToken writes one 12-byte token record per spec.md §4.5.1:
// word0 packs kind/flags/length, word1 is a spelling-pool offset for
// literals or a persistent identifier ID otherwise, word2 is the
// token's absolute offset within its owning file.
func (w *Writer) emitToken(tok lexer.Token) error {
	word0 := uint32(tok.Kind) | uint32(tok.Flags)<<8 | uint32(tok.Length)<<16
	if err := w.out.Emit32(word0); err != nil {
		return err
	}

	var word1 uint32
	switch {
	case tok.Kind.IsLiteral():
		word1 = w.pool.Intern(tok.Spelling())
	case tok.Ident != nil:
		word1 = uint32(w.interner.Resolve(tok.Ident))
	}
	if err := w.out.Emit32(word1); err != nil {
		return err
	}

	return w.out.Emit32(tok.Offset)
}
