package compiler

import "fmt"

// Span is a half-open source range (startLine, startColumn) to (endLine, endColumn).
// Lines and columns are zero-based internally; String() renders them one-based.
type Span struct {
	StartLine, StartColumn int
	EndLine, EndColumn      int
}

func NewSpan(startLine, startColumn, endLine, endColumn int) Span {
	return Span{StartLine: startLine, StartColumn: startColumn, EndLine: endLine, EndColumn: endColumn}
}

// pointSpan is a zero-width span at a single position, used by the lexer before it knows
// how wide a token is.
func pointSpan(line, column int) Span {
	return Span{StartLine: line, StartColumn: column, EndLine: line, EndColumn: column}
}

// Merge returns the smallest span enclosing both s and other.
func (s Span) Merge(other Span) Span {
	merged := s
	if merged.before(other.StartLine, other.StartColumn) {
		merged.StartLine, merged.StartColumn = other.StartLine, other.StartColumn
	}
	if merged.beforeEnd(other.EndLine, other.EndColumn) {
		merged.EndLine, merged.EndColumn = other.EndLine, other.EndColumn
	}
	return merged
}

func (s Span) before(line, column int) bool {
	if s.StartLine != line {
		return s.StartLine > line
	}
	return s.StartColumn > column
}

// Contains reports whether other lies entirely within s.
func (s Span) Contains(other Span) bool {
	return !s.after(other.StartLine, other.StartColumn) && !s.beforeEnd(other.EndLine, other.EndColumn)
}

func (s Span) after(line, column int) bool {
	if s.StartLine != line {
		return s.StartLine > line
	}
	return s.StartColumn > column
}

func (s Span) beforeEnd(line, column int) bool {
	if s.EndLine != line {
		return s.EndLine < line
	}
	return s.EndColumn < column
}

// Overlaps reports whether s and other share any position.
func (s Span) Overlaps(other Span) bool {
	return !s.endsBeforeStartOf(other) && !other.endsBeforeStartOf(s)
}

func (s Span) endsBeforeStartOf(other Span) bool {
	if s.EndLine != other.StartLine {
		return s.EndLine < other.StartLine
	}
	return s.EndColumn <= other.StartColumn
}

// String renders the span one-based, GCC-diagnostic style.
func (s Span) String() string {
	if s.StartLine == s.EndLine {
		return fmt.Sprintf("%d:%d-%d", s.StartLine+1, s.StartColumn+1, s.EndColumn+1)
	}
	return fmt.Sprintf("%d:%d-%d:%d", s.StartLine+1, s.StartColumn+1, s.EndLine+1, s.EndColumn+1)
}
