package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.lsp.dev/uri"
	"go.uber.org/zap"

	"occ/compiler"

	json "github.com/segmentio/encoding/json"
)

// occ is the CLI driver: `compile <source> [--out <dir>] [--config <path>] [--json]
// [--log-level <level>]`. Exit codes: 0 success, 1 any diagnostic, 2 internal failure.

var (
	outDir   = flag.String("out", ".", "directory to write generated assembly files into")
	config   = flag.String("config", "", "optional occ.toml config file")
	jsonOut  = flag.Bool("json", false, "emit diagnostics/manifest as JSON instead of text")
	logLevel = flag.String("log-level", "info", "debug|info|warn|error")
)

func main() {
	flag.Parse()
	args := flag.Args()
	if len(args) < 2 || args[0] != "compile" {
		fmt.Fprintln(os.Stderr, "usage: occ compile <source> [--out <dir>] [--config <path>] [--json] [--log-level <level>]")
		os.Exit(2)
	}
	sourcePath := args[1]
	os.Exit(run(sourcePath))
}

func run(sourcePath string) int {
	cfg, err := loadConfig(*config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 2
	}
	out := *outDir
	if out == "." && cfg.OutDir != "" {
		out = cfg.OutDir
	}
	level := *logLevel
	if level == "info" && cfg.LogLevel != "" {
		level = cfg.LogLevel
	}

	logger, err := newLogger(level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q: %v\n", level, err)
		return 2
	}
	defer logger.Sync()

	source, err := os.ReadFile(sourcePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read source: %v\n", err)
		return 2
	}

	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		abs = sourcePath
	}
	sourceURI := uri.File(abs)

	result, compileErr := compiler.Compile(source, string(sourceURI), compiler.Options{Logger: logger})
	if compileErr != nil {
		if _, ok := compileErr.(compiler.InternalError); ok {
			reportInternalError(compileErr)
			return 2
		}
		reportDiagnostics(compileErr)
		return 1
	}

	if err := writeFiles(out, result.Files); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write output: %v\n", err)
		return 2
	}
	reportSuccess(result, out)
	return 0
}

func newLogger(level string) (*zap.Logger, error) {
	zapLevel := zap.NewAtomicLevel()
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	if *jsonOut {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zapLevel
	return cfg.Build()
}

func writeFiles(dir string, files []compiler.Emitted) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range files {
		path := filepath.Join(dir, f.ClassName+".assembly")
		if err := os.WriteFile(path, []byte(f.Text), 0o644); err != nil {
			return err
		}
	}
	return nil
}

type manifestEntry struct {
	Class string `json:"class"`
	Path  string `json:"path"`
}

type successManifest struct {
	Files    []manifestEntry `json:"files"`
	Warnings []string        `json:"warnings"`
}

func reportSuccess(result *compiler.Result, out string) {
	if !*jsonOut {
		for _, f := range result.Files {
			fmt.Printf("wrote %s.assembly\n", f.ClassName)
		}
		for _, w := range result.Warnings {
			fmt.Fprintln(os.Stderr, w.Error())
		}
		return
	}
	manifest := successManifest{}
	for _, f := range result.Files {
		manifest.Files = append(manifest.Files, manifestEntry{Class: f.ClassName, Path: filepath.Join(out, f.ClassName+".assembly")})
	}
	for _, w := range result.Warnings {
		manifest.Warnings = append(manifest.Warnings, w.Error())
	}
	data, _ := json.Marshal(manifest)
	fmt.Println(string(data))
}

func reportDiagnostics(err error) {
	if !*jsonOut {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	data, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{Error: err.Error()})
	fmt.Println(string(data))
}

func reportInternalError(err error) {
	fmt.Fprintf(os.Stderr, "internal compiler error: %v\n", err)
}
