package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile_SimpleClassSucceeds(t *testing.T) {
	src := `class SimpleClass is
  var value : Integer(42)
  method getValue() : Integer is return value end
  this() is end
end`
	result, err := Compile([]byte(src), "simple.lang", Options{})
	require.NoError(t, err)
	require.Len(t, result.Files, 1)
	assert.Equal(t, "SimpleClass", result.Files[0].ClassName)
	assert.Empty(t, result.Warnings)
}

func TestCompile_BaseDerivedInheritance(t *testing.T) {
	src := `class Base is
  var x : Integer(10)
  method getX() : Integer is return x end
  this() is end
end
class Derived extends Base is
  var y : Integer(20)
  this() is end
end`
	result, err := Compile([]byte(src), "inherit.lang", Options{})
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
}

func TestCompile_StartClassProducesEntryPoint(t *testing.T) {
	src := `class Start is
  method start() is end
  this() is end
end`
	result, err := Compile([]byte(src), "start.lang", Options{})
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range result.Files {
		names[f.ClassName] = true
	}
	assert.True(t, names["Start"])
	assert.True(t, names["Main"])
}

func TestCompile_TypeErrorShortCircuitsBeforeEmission(t *testing.T) {
	src := `class TypeErr is
  method m() : Integer is return true end
  this() is end
end`
	result, err := Compile([]byte(src), "typeerr.lang", Options{})
	require.Error(t, err)
	assert.Nil(t, result)
	diags := diagnosticsOf(err)
	require.NotEmpty(t, diags)
	assert.Equal(t, TypeError, diags[0].Kind)
}

func TestCompile_SyntaxErrorShortCircuitsBeforeSymbolResolution(t *testing.T) {
	src := `class Broken is !!! this() is end end`
	result, err := Compile([]byte(src), "broken.lang", Options{})
	require.Error(t, err)
	assert.Nil(t, result)
	diags := diagnosticsOf(err)
	require.NotEmpty(t, diags)
}

func TestCompile_ConstantFoldingReachesFixedPoint(t *testing.T) {
	src := `class ConstFold is
  method compute() : Integer is return Integer(2).Plus(Integer(3)).Mult(Integer(4)) end
  this() is end
end`
	result, err := Compile([]byte(src), "constfold.lang", Options{})
	require.NoError(t, err)
	emitted := result.Files[0]
	assert.Contains(t, emitted.Text, "bipush 20")
}
