package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSymbols(t *testing.T, src string) (*Program, *GlobalScope, []Diagnostic) {
	prog, diags := Parse([]byte(src))
	require.Empty(t, diags)
	global := NewGlobalScope()
	return prog, global, BuildSymbolTables(prog, global)
}

func TestSymbols_DuplicateClassName(t *testing.T) {
	_, _, diags := buildSymbols(t, `class A is this() is end end class A is this() is end end`)
	require.NotEmpty(t, diags)
	assert.Equal(t, ResolutionError, diags[0].Kind)
}

func TestSymbols_UnknownBaseClass(t *testing.T) {
	_, _, diags := buildSymbols(t, `class A extends Missing is this() is end end`)
	require.NotEmpty(t, diags)
}

func TestSymbols_SelfInheritance(t *testing.T) {
	_, _, diags := buildSymbols(t, `class A extends A is this() is end end`)
	require.NotEmpty(t, diags)
}

func TestSymbols_CircularInheritance(t *testing.T) {
	_, _, diags := buildSymbols(t, `
class A extends B is this() is end end
class B extends A is this() is end end`)
	require.NotEmpty(t, diags)
}

func TestSymbols_DuplicateField(t *testing.T) {
	_, _, diags := buildSymbols(t, `class A is var x : Integer(1) var x : Integer(2) this() is end end`)
	require.NotEmpty(t, diags)
}

func TestSymbols_UndefinedIdentifier(t *testing.T) {
	_, _, diags := buildSymbols(t, `class A is method m() : Integer is return y end this() is end end`)
	require.NotEmpty(t, diags)
}

func TestSymbols_ResolvesFieldAndParameter(t *testing.T) {
	prog, _, diags := buildSymbols(t, `
class A is
  var x : Integer(1)
  method setX(v : Integer) is x := v end
  this() is end
end`)
	require.Empty(t, diags)
	assign := prog.Classes[0].Methods[0].Body[0].(*Assignment)
	require.NotNil(t, assign.ResolvedTarget)
	assert.Equal(t, "x", assign.ResolvedTarget.Name)
}

func TestSymbols_ThisOutsideClassIsUnreachableAtTopLevel(t *testing.T) {
	// `this` only ever appears inside a method/constructor body in valid grammar, so the
	// resolver's "outside class context" branch cannot be reached from parsed source; here we
	// only confirm `this` inside a constructor resolves without diagnostics.
	_, _, diags := buildSymbols(t, `class A is var x : Integer(1) this() is var y : Integer(this.x) end end`)
	assert.Empty(t, diags)
}
