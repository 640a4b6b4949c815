package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func analyze(t *testing.T, src string) (*Program, []Diagnostic) {
	prog, diags := Parse([]byte(src))
	require.Empty(t, diags)
	global := NewGlobalScope()
	diags = append(diags, BuildSymbolTables(prog, global)...)
	require.Empty(t, diags)
	return prog, TypeCheck(prog, global)
}

func TestTypeCheck_SimpleClass(t *testing.T) {
	_, diags := analyze(t, `
class SimpleClass is
  var value : Integer(42)
  method getValue() : Integer is return value end
  this() is end
end`)
	assert.Empty(t, diags)
}

func TestTypeCheck_InheritedMethodCall(t *testing.T) {
	_, diags := analyze(t, `
class Base is
  var x : Integer(10)
  method getX() : Integer is return x end
  this() is end
end
class Derived extends Base is
  method doubled() : Integer is return this.getX().Plus(this.getX()) end
  this() is end
end`)
	assert.Empty(t, diags)
}

func TestTypeCheck_RejectsIntegerOfReal(t *testing.T) {
	_, diags := analyze(t, `
class C is
  method m() : Integer is return Integer(Real(1.5)) end
  this() is end
end`)
	require.NotEmpty(t, diags)
	assert.Equal(t, TypeError, diags[0].Kind)
}

func TestTypeCheck_RejectsCrossTypeComparison(t *testing.T) {
	_, diags := analyze(t, `
class C is
  method m() : Boolean is return Integer(1).Less(Real(1.0)) end
  this() is end
end`)
	require.NotEmpty(t, diags)
}

func TestTypeCheck_RejectsUseOfString(t *testing.T) {
	_, diags := analyze(t, `
class C is
  var s : String
  this() is end
end`)
	require.NotEmpty(t, diags)
}

func TestTypeCheck_RejectsMethodCallOnLiteral(t *testing.T) {
	_, diags := analyze(t, `
class C is
  method m() : Boolean is return true.Not() end
  this() is end
end`)
	require.NotEmpty(t, diags)
}

func TestTypeCheck_RejectsAssignmentTypeMismatch(t *testing.T) {
	_, diags := analyze(t, `
class C is
  var x : Integer(1)
  method m() is x := true end
  this() is end
end`)
	require.NotEmpty(t, diags)
}

func TestTypeCheck_RejectsBadIfCondition(t *testing.T) {
	_, diags := analyze(t, `
class C is
  method m() : Integer is
    if Integer(1) then
      return Integer(1)
    end
    return Integer(0)
  end
  this() is end
end`)
	require.NotEmpty(t, diags)
}

func TestTypeCheck_AllowsSubclassAsArgument(t *testing.T) {
	_, diags := analyze(t, `
class Base is this() is end end
class Derived extends Base is this() is end end
class Holder is
  method accept(b : Base) : Boolean is return true end
  method use() : Boolean is return this.accept(Derived()) end
  this() is end
end`)
	assert.Empty(t, diags)
}

func TestTypeCheck_VoidMethodCannotReturnValue(t *testing.T) {
	_, diags := analyze(t, `
class C is
  method m() is return Integer(1) end
  this() is end
end`)
	require.NotEmpty(t, diags)
}

func TestTypeCheck_RealRemResolvesViaStdlib(t *testing.T) {
	prog, diags := analyze(t, `
class C is
  method m() : Real is return Real(5.0).Rem(Real(2.0)) end
  this() is end
end`)
	require.Empty(t, diags)
	ret := prog.Classes[0].Methods[0].Body[0].(*ReturnStatement)
	assert.Equal(t, "Real", ret.Value.inferredType().Name())
}
