package compiler

import "go.uber.org/zap"

// Options configures one Compile invocation. The zero value is valid: a nil Logger is
// replaced with zap.NewNop() so callers that don't care about logging don't pay for it.
type Options struct {
	Logger *zap.Logger
}

// Result is the outcome of a successful compilation: one Emitted per class plus whatever
// warnings the type checker produced along the way (warnings never gate subsequent passes).
type Result struct {
	Files    []Emitted
	Warnings []Diagnostic
}

// Compile runs the pipeline stages in order over source, short-circuiting after any pass that
// produces diagnostics. A panic is used, and recovered here, only for the emitter's own
// internal invariant violations (see diagnostics.go's InternalError), since those are fatal
// bugs rather than user-facing diagnostics.
func Compile(source []byte, sourceName string, opts Options) (result *Result, err error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	defer func() {
		if r := recover(); r != nil {
			if ierr, ok := r.(InternalError); ok {
				logger.Error("internal compiler error", zap.String("source", sourceName), zap.Error(ierr))
				err = ierr
				return
			}
			panic(r)
		}
	}()

	prog, diags := Parse(source)
	logger.Debug("lexed and parsed", zap.String("source", sourceName), zap.Int("diagnostics", len(diags)))
	if hasErrors(diags) {
		return nil, combineDiagnostics(diags)
	}

	global := NewGlobalScope()
	symDiags := BuildSymbolTables(prog, global)
	logger.Debug("built symbol tables", zap.String("pass", "symbols"), zap.Int("diagnostics", len(symDiags)))
	if hasErrors(symDiags) {
		return nil, combineDiagnostics(symDiags)
	}

	typeDiags := TypeCheck(prog, global)
	logger.Debug("type checked", zap.String("pass", "typecheck"), zap.Int("diagnostics", len(typeDiags)))
	if hasErrors(typeDiags) {
		return nil, combineDiagnostics(typeDiags)
	}
	warnings := filterWarnings(typeDiags)

	EliminateDeadCode(prog)
	iterations := FoldConstants(prog)
	logger.Debug("optimized", zap.String("pass", "optimize"), zap.Int("fold-iterations", iterations))

	files := Emit(prog)
	logger.Info("emitted target assembly", zap.String("source", sourceName), zap.Int("files", len(files)))
	return &Result{Files: files, Warnings: warnings}, nil
}

func hasErrors(diags []Diagnostic) bool {
	for _, d := range diags {
		if !d.IsWarning() {
			return true
		}
	}
	return false
}

func filterWarnings(diags []Diagnostic) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.IsWarning() {
			out = append(out, d)
		}
	}
	return out
}
