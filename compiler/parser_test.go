package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_SimpleClass(t *testing.T) {
	src := `class SimpleClass is
  var value : Integer(42)
  this() is
  end
end`
	prog, diags := Parse([]byte(src))
	require.Empty(t, diags)
	require.Len(t, prog.Classes, 1)
	class := prog.Classes[0]
	assert.Equal(t, "SimpleClass", class.Name)
	require.Len(t, class.Fields, 1)
	assert.Equal(t, "value", class.Fields[0].Name)
	assert.Equal(t, "Integer", class.Fields[0].TypeName)
	require.Len(t, class.Ctors, 1)
}

func TestParser_Inheritance(t *testing.T) {
	src := `class Base is
  var x : Integer(10)
  method getValue() : Integer is return x end
  this() is end
end
class Derived extends Base is
  var y : Integer(20)
  this() is end
end`
	prog, diags := Parse([]byte(src))
	require.Empty(t, diags)
	require.Len(t, prog.Classes, 2)
	assert.Equal(t, "Base", prog.Classes[1].BaseName)
}

func TestParser_WhileLoop(t *testing.T) {
	src := `class Loop is
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
end`
	prog, diags := Parse([]byte(src))
	require.Empty(t, diags)
	method := prog.Classes[0].Methods[0]
	require.Len(t, method.Body, 4)
	loop, ok := method.Body[2].(*WhileLoop)
	require.True(t, ok)
	require.Len(t, loop.Body, 2)
}

func TestParser_MethodShortForm(t *testing.T) {
	prog, diags := Parse([]byte(`class C is method getFive() : Integer => Integer(5) this() is end end`))
	require.Empty(t, diags)
	method := prog.Classes[0].Methods[0]
	require.True(t, method.HasBody)
	require.Len(t, method.Body, 1)
	_, ok := method.Body[0].(*ReturnStatement)
	assert.True(t, ok)
}

func TestParser_ForwardDeclaration(t *testing.T) {
	prog, diags := Parse([]byte(`class C is method foo() : Integer this() is end end`))
	require.Empty(t, diags)
	assert.False(t, prog.Classes[0].Methods[0].HasBody)
}

func TestParser_RecoversFromMalformedMember(t *testing.T) {
	src := `class C is
  !!!
  var x : Integer(1)
  this() is end
end`
	prog, diags := Parse([]byte(src))
	assert.NotEmpty(t, diags)
	require.Len(t, prog.Classes, 1)
	require.Len(t, prog.Classes[0].Fields, 1)
}

func TestParser_ArrayTypeName(t *testing.T) {
	prog, diags := Parse([]byte(`class C is
  method sum(xs : Array[Integer]) : Integer is return xs.Length() end
  this() is end
end`))
	require.Empty(t, diags)
	param := prog.Classes[0].Methods[0].Params[0]
	assert.Equal(t, "Array[Integer]", param.TypeName)
}

func TestParser_MemberAccessAndMethodChain(t *testing.T) {
	prog, diags := Parse([]byte(`class C is
  method m() : Integer is return this.x.Plus(Integer(1)) end
  this() is end
end`))
	require.Empty(t, diags)
	ret := prog.Classes[0].Methods[0].Body[0].(*ReturnStatement)
	call, ok := ret.Value.(*MethodCall)
	require.True(t, ok)
	assert.Equal(t, "Plus", call.MethodName)
	_, ok = call.Target.(*MemberAccess)
	assert.True(t, ok)
}
