package compiler

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emitAfterFullPipeline(t *testing.T, src string) []Emitted {
	prog, diags := Parse([]byte(src))
	require.Empty(t, diags)
	global := NewGlobalScope()
	require.Empty(t, BuildSymbolTables(prog, global))
	require.Empty(t, TypeCheck(prog, global))
	EliminateDeadCode(prog)
	FoldConstants(prog)
	return Emit(prog)
}

func findEmitted(t *testing.T, files []Emitted, class string) Emitted {
	for _, f := range files {
		if f.ClassName == class {
			return f
		}
	}
	t.Fatalf("no emitted file for class %q", class)
	return Emitted{}
}

func TestCodegen_SimpleClassHasFieldAndMethod(t *testing.T) {
	files := emitAfterFullPipeline(t, `
class SimpleClass is
  var value : Integer(42)
  method getValue() : Integer is return value end
  this() is end
end`)
	emitted := findEmitted(t, files, "SimpleClass")
	assert.Contains(t, emitted.Text, ".class public SimpleClass")
	assert.Contains(t, emitted.Text, ".super Object")
	assert.Contains(t, emitted.Text, ".field private value I")
	assert.Contains(t, emitted.Text, ".method public getValue()I")
	assert.Contains(t, emitted.Text, "getfield SimpleClass/value I")
}

func TestCodegen_InheritanceEmitsCorrectSuper(t *testing.T) {
	files := emitAfterFullPipeline(t, `
class Base is
  var x : Integer(10)
  method getX() : Integer is return x end
  this() is end
end
class Derived extends Base is
  var y : Integer(20)
  this() is end
end`)
	derived := findEmitted(t, files, "Derived")
	assert.Contains(t, derived.Text, ".super Base")
	assert.Contains(t, derived.Text, "invokespecial Base/<init>()V")
}

func TestCodegen_WhileLoopEmitsLabelsAndBranch(t *testing.T) {
	files := emitAfterFullPipeline(t, `
class Loop is
  method factorial(n : Integer) : Integer is
    var result : Integer(1)
    var i : Integer(1)
    while i.LessEqual(n) loop
      result := result.Mult(i)
      i := i.Plus(Integer(1))
    end
    return result
  end
  this() is end
end`)
	loop := findEmitted(t, files, "Loop")
	assert.Contains(t, loop.Text, "if_icmple")
	assert.Contains(t, loop.Text, "goto")
	assert.Contains(t, loop.Text, "imul")
	assert.Contains(t, loop.Text, "iadd")
}

func TestCodegen_ConstantFoldedBeforeEmission(t *testing.T) {
	files := emitAfterFullPipeline(t, `
class ConstFold is
  method compute() : Integer is return Integer(2).Plus(Integer(3)).Mult(Integer(4)) end
  this() is end
end`)
	emitted := findEmitted(t, files, "ConstFold")
	assert.Contains(t, emitted.Text, "bipush 20")
	assert.NotContains(t, emitted.Text, "imul")
}

func TestCodegen_SyntheticEntryPointForStart(t *testing.T) {
	files := emitAfterFullPipeline(t, `
class Start is
  method start() is end
  this() is end
end`)
	require.Len(t, files, 2)
	main := findEmitted(t, files, "Main")
	assert.Contains(t, main.Text, ".method public static main([Ljava/lang/String;)V")
	assert.Contains(t, main.Text, "invokevirtual Start/start()V")
}

func TestCodegen_NoEntryPointWithoutStartClass(t *testing.T) {
	files := emitAfterFullPipeline(t, `
class NotStart is
  method run() is end
  this() is end
end`)
	for _, f := range files {
		assert.NotEqual(t, "Main", f.ClassName)
	}
}

func TestCodegen_ConstantPushCalibration(t *testing.T) {
	files := emitAfterFullPipeline(t, `
class C is
  method small() : Integer is return Integer(3) end
  method mid() : Integer is return Integer(100) end
  method wide() : Integer is return Integer(30000) end
  method huge() : Integer is return Integer(100000) end
  this() is end
end`)
	emitted := findEmitted(t, files, "C")
	assert.True(t, strings.Contains(emitted.Text, "iconst_3"))
	assert.True(t, strings.Contains(emitted.Text, "bipush 100"))
	assert.True(t, strings.Contains(emitted.Text, "sipush 30000"))
	assert.True(t, strings.Contains(emitted.Text, "ldc 100000"))
}
