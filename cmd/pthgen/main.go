// Command pthgen is the thin outer driver spec.md §6 describes: it
// parses a handful of flags, builds an already-configured source
// manager by following #include directives textually, and hands both
// to the PTH writer. Argument parsing is grounded on the teacher's
// main.go parseArgs/usage style.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/VanirLLVM/external-clang/internal/fileentry"
	"github.com/VanirLLVM/external-clang/internal/manifest"
	"github.com/VanirLLVM/external-clang/internal/pth"
	"github.com/VanirLLVM/external-clang/internal/pthlog"
	"github.com/VanirLLVM/external-clang/internal/progress"
	"github.com/VanirLLVM/external-clang/internal/source"
)

var (
	optOutput   = ""
	optManifest = ""
	optProgress = ""
	inputPath   = ""
)

func usage(status int) {
	fmt.Fprintf(os.Stderr, "pthgen -o <out.pth> [-manifest <db>] [-progress <addr>] <root.h>\n")
	os.Exit(status)
}

func takeArg(arg string) bool {
	return arg == "-o" || arg == "-manifest" || arg == "-progress"
}

func parseArgs(args []string) {
	for idx := 1; idx < len(args); idx++ {
		if takeArg(args[idx]) && idx+1 == len(args) {
			usage(1)
		}
	}

	for idx := 1; idx < len(args); idx++ {
		switch args[idx] {
		case "--help":
			usage(0)
		case "-o":
			idx++
			optOutput = args[idx]
			continue
		case "-manifest":
			idx++
			optManifest = args[idx]
			continue
		case "-progress":
			idx++
			optProgress = args[idx]
			continue
		}

		if strings.HasPrefix(args[idx], "-") {
			fmt.Fprintf(os.Stderr, "pthgen: unknown option %s\n", args[idx])
			usage(1)
		}
		inputPath = args[idx]
	}

	if optOutput == "" || inputPath == "" {
		usage(1)
	}
}

func main() {
	parseArgs(os.Args)

	logger := pthlog.New()

	mgr := source.New()
	abs, err := filepath.Abs(inputPath)
	if err != nil {
		logger.Error("PTH error: " + err.Error())
		os.Exit(1)
	}
	followIncludes(mgr, logger, abs, make(map[string]bool))

	fe := fileentry.New()

	var opts []pth.Option

	var rec *manifest.Recorder
	if optManifest != "" {
		rec, err = manifest.Open(optManifest)
		if err != nil {
			logger.Error("PTH error: " + err.Error())
			os.Exit(1)
		}
		defer rec.Close()
		opts = append(opts, pth.WithManifest(rec))
	}

	var cancelHub context.CancelFunc
	if optProgress != "" {
		hub := progress.NewHub(logger)
		ctx, cancel := context.WithCancel(context.Background())
		cancelHub = cancel
		go hub.Run(ctx)
		go serveProgress(optProgress, hub, logger)
		opts = append(opts, pth.WithReporter(hub))
	}

	out, err := os.Create(optOutput)
	if err != nil {
		logger.Error("PTH error: " + err.Error())
		os.Exit(1)
	}
	defer out.Close()

	w := pth.New(out, opts...)
	if err := w.GeneratePTH(mgr, fe); err != nil {
		logger.Error("PTH error: " + err.Error())
		os.Exit(1)
	}

	if rec != nil {
		rec.Finish(0, 0)
	}
	if cancelHub != nil {
		cancelHub()
	}

	info, _ := out.Stat()
	var size int64
	if info != nil {
		size = info.Size()
	}
	logger.Summary(len(mgr.Files()), 0, size)
}

// followIncludes reads path, adds it to mgr, and textually scans for
// `#include "..."` / `#include <...>` lines, resolving quoted includes
// relative to the including file's directory. Angle-bracket includes
// that cannot be resolved that way are silently left unresolved — a
// real header search path is outside this driver's scope.
func followIncludes(mgr *source.Manager, logger *pthlog.Logger, path string, visited map[string]bool) {
	if visited[path] {
		return
	}
	visited[path] = true

	f := mgr.AddFromDisk(path)
	if f.Absent {
		logger.Skip(path, "could not be read")
		return
	}

	dir := filepath.Dir(path)
	sc := bufio.NewScanner(strings.NewReader(string(f.Buf)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(line[1:])
		if !strings.HasPrefix(line, "include") {
			continue
		}
		rest := strings.TrimSpace(line[len("include"):])
		name, quoted := parseIncludeName(rest)
		if name == "" || !quoted {
			continue // angle-bracket includes need a real search path
		}
		followIncludes(mgr, logger, filepath.Join(dir, name), visited)
	}
}

func parseIncludeName(rest string) (name string, quoted bool) {
	if len(rest) < 2 {
		return "", false
	}
	switch rest[0] {
	case '"':
		if end := strings.IndexByte(rest[1:], '"'); end >= 0 {
			return rest[1 : end+1], true
		}
	case '<':
		if end := strings.IndexByte(rest[1:], '>'); end >= 0 {
			return rest[1 : end+1], false
		}
	}
	return "", false
}

func serveProgress(addr string, hub *progress.Hub, logger *pthlog.Logger) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	})
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Warn("progress server stopped: " + err.Error())
	}
}
