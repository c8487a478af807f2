// Package pthlog provides structured logging for PTH generation runs,
// grounded on the teacher's internal/platform/logger.Logger shape.
package pthlog

import (
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

// Logger provides structured, leveled logging for one generation run.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// New creates a logger writing info/warn to stdout and errors to
// stderr, each tagged with a PTH-specific prefix.
func New() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, "[PTH-INFO] ", log.Ldate|log.Ltime),
		warnLogger:  log.New(os.Stdout, "[PTH-WARN] ", log.Ldate|log.Ltime),
		errorLogger: log.New(os.Stderr, "[PTH-ERROR] ", log.Ldate|log.Ltime),
	}
}

// Info logs an informational message.
func (l *Logger) Info(msg string) { l.infoLogger.Println(msg) }

// Warn logs a warning, e.g. a skipped input-precondition failure.
func (l *Logger) Warn(msg string) { l.warnLogger.Println(msg) }

// Error logs the single open-failure message spec.md §7 allows.
func (l *Logger) Error(msg string) { l.errorLogger.Println(msg) }

// Skip logs an input-precondition failure spec.md §7 treats as
// silently skippable from the artifact's perspective — silent to the
// reader, not to the operator.
func (l *Logger) Skip(path string, reason string) {
	l.warnLogger.Printf("skipping %s: %s", path, reason)
}

// FileDone implements pth.Reporter, letting a Logger double as the
// assembler's progress sink without internal/pth importing pthlog.
func (l *Logger) FileDone(path string, tokenCount, byteCount int, elapsed time.Duration) {
	l.infoLogger.Printf("cached %s: %d tokens, %s in %s",
		path, tokenCount, humanize.Bytes(uint64(byteCount)), elapsed)
}

// Summary logs the final run totals once GeneratePTH returns.
func (l *Logger) Summary(fileCount int, idCount uint32, artifactSize int64) {
	l.infoLogger.Printf("wrote %d files, %d identifiers, %s total",
		fileCount, idCount, humanize.Bytes(uint64(artifactSize)))
}
