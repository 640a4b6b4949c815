package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compileThroughTypecheck(t *testing.T, src string) *Program {
	prog, diags := Parse([]byte(src))
	require.Empty(t, diags)
	global := NewGlobalScope()
	require.Empty(t, BuildSymbolTables(prog, global))
	require.Empty(t, TypeCheck(prog, global))
	return prog
}

func TestEliminateDeadCode_TruncatesAfterReturn(t *testing.T) {
	prog := compileThroughTypecheck(t, `
class C is
  var x : Integer(1)
  method m() : Integer is
    return Integer(1)
    x := Integer(2)
  end
  this() is end
end`)
	changed := EliminateDeadCode(prog)
	assert.True(t, changed)
	require.Len(t, prog.Classes[0].Methods[0].Body, 1)
}

func TestEliminateDeadCode_LeavesLoopBodyWithReturnIntact(t *testing.T) {
	prog := compileThroughTypecheck(t, `
class C is
  method m() : Integer is
    while true loop
      return Integer(1)
    end
    return Integer(0)
  end
  this() is end
end`)
	changed := EliminateDeadCode(prog)
	assert.False(t, changed)
	body := prog.Classes[0].Methods[0].Body
	require.Len(t, body, 2)
	loop := body[0].(*WhileLoop)
	require.Len(t, loop.Body, 1)
}

func TestEliminateDeadCode_RecursesIntoKeptBranches(t *testing.T) {
	prog := compileThroughTypecheck(t, `
class C is
  method m() : Integer is
    if true then
      return Integer(1)
      return Integer(2)
    else
      return Integer(3)
    end
  end
  this() is end
end`)
	EliminateDeadCode(prog)
	ifStmt := prog.Classes[0].Methods[0].Body[0].(*IfStatement)
	assert.Len(t, ifStmt.Then, 1)
	assert.Len(t, ifStmt.Else, 1)
}

func TestFoldConstants_IntegerArithmetic(t *testing.T) {
	prog := compileThroughTypecheck(t, `
class C is
  method m() : Integer is return Integer(2).Plus(Integer(3)).Mult(Integer(4)) end
  this() is end
end`)
	FoldConstants(prog)
	ret := prog.Classes[0].Methods[0].Body[0].(*ReturnStatement)
	v, ok := extractInt(ret.Value)
	require.True(t, ok)
	assert.Equal(t, int64(20), v)
}

func TestFoldConstants_DoesNotFoldDivisionByZero(t *testing.T) {
	prog := compileThroughTypecheck(t, `
class C is
  method m() : Integer is return Integer(5).Div(Integer(0)) end
  this() is end
end`)
	FoldConstants(prog)
	ret := prog.Classes[0].Methods[0].Body[0].(*ReturnStatement)
	_, isCall := ret.Value.(*MethodCall)
	assert.True(t, isCall)
}

func TestFoldConstants_BooleanLogic(t *testing.T) {
	prog := compileThroughTypecheck(t, `
class C is
  method m() : Boolean is return Boolean(true).And(Boolean(false)).Not() end
  this() is end
end`)
	FoldConstants(prog)
	ret := prog.Classes[0].Methods[0].Body[0].(*ReturnStatement)
	v, ok := extractBool(ret.Value)
	require.True(t, ok)
	assert.True(t, v)
}

func TestFoldConstants_RealRem(t *testing.T) {
	prog := compileThroughTypecheck(t, `
class C is
  method m() : Real is return Real(5.5).Rem(Real(2.0)) end
  this() is end
end`)
	FoldConstants(prog)
	ret := prog.Classes[0].Methods[0].Body[0].(*ReturnStatement)
	v, ok := extractReal(ret.Value)
	require.True(t, ok)
	assert.InDelta(t, 1.5, v, 1e-9)
}

func TestFoldConstants_NestedWrapperCollapses(t *testing.T) {
	prog := compileThroughTypecheck(t, `
class C is
  method m() : Integer is return Integer(Integer(7)) end
  this() is end
end`)
	FoldConstants(prog)
	ret := prog.Classes[0].Methods[0].Body[0].(*ReturnStatement)
	v, ok := extractInt(ret.Value)
	require.True(t, ok)
	assert.Equal(t, int64(7), v)
}
