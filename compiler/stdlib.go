package compiler

import "sync"

// stdMethod is a standard-library method contract: parameter types and a return type, keyed
// by (className, methodSignature) in the registry below. Array[T]'s get/set/Length are
// resolved structurally in typecheck.go, not through this table, since they depend on T.
type stdMethod struct {
	ParamTypes []Type
	ReturnType Type
}

var (
	stdlibOnce     sync.Once
	stdlibRegistry map[string]map[string]stdMethod
)

// stdlib lazily builds the process-wide standard library table. It is a constant table built
// once via sync.Once-guarded initialization; it has no teardown.
func stdlib() map[string]map[string]stdMethod {
	stdlibOnce.Do(buildStdlib)
	return stdlibRegistry
}

func buildStdlib() {
	stdlibRegistry = map[string]map[string]stdMethod{
		"Integer": {
			sig("Plus", integerType):        {[]Type{integerType}, integerType},
			sig("Minus", integerType):       {[]Type{integerType}, integerType},
			sig("Mult", integerType):        {[]Type{integerType}, integerType},
			sig("Div", integerType):         {[]Type{integerType}, integerType},
			sig("Rem", integerType):         {[]Type{integerType}, integerType},
			sig("UnaryMinus"):                {nil, integerType},
			sig("UnaryPlus"):                 {nil, integerType},
			sig("Less", integerType):        {[]Type{integerType}, booleanType},
			sig("LessEqual", integerType):   {[]Type{integerType}, booleanType},
			sig("Greater", integerType):     {[]Type{integerType}, booleanType},
			sig("GreaterEqual", integerType): {[]Type{integerType}, booleanType},
			sig("Equal", integerType):       {[]Type{integerType}, booleanType},
			sig("toReal"):                    {nil, realType},
		},
		"Boolean": {
			sig("And", booleanType): {[]Type{booleanType}, booleanType},
			sig("Or", booleanType):  {[]Type{booleanType}, booleanType},
			sig("Xor", booleanType): {[]Type{booleanType}, booleanType},
			sig("Not"):               {nil, booleanType},
		},
		"Real": {
			// Real.Rem is registered and folded the same way as Integer.Rem (see DESIGN.md).
			sig("Plus", realType):        {[]Type{realType}, realType},
			sig("Minus", realType):       {[]Type{realType}, realType},
			sig("Mult", realType):        {[]Type{realType}, realType},
			sig("Div", realType):         {[]Type{realType}, realType},
			sig("Rem", realType):         {[]Type{realType}, realType},
			sig("UnaryMinus"):             {nil, realType},
			sig("UnaryPlus"):              {nil, realType},
			sig("Less", realType):        {[]Type{realType}, booleanType},
			sig("LessEqual", realType):   {[]Type{realType}, booleanType},
			sig("Greater", realType):     {[]Type{realType}, booleanType},
			sig("GreaterEqual", realType): {[]Type{realType}, booleanType},
			sig("Equal", realType):       {[]Type{realType}, booleanType},
			sig("toInteger"):              {nil, integerType},
		},
		// Printer.print is handled specially in typecheck.go/codegen.go since its accepted
		// argument type is polymorphic (any of Integer/Real/Boolean/an object reference); no
		// fixed-arity entry here would capture that.
	}
}

func sig(name string, paramTypes ...Type) string {
	s := name + "("
	for i, t := range paramTypes {
		if i > 0 {
			s += ","
		}
		s += t.Name()
	}
	return s + ")"
}

// lookupStdMethod resolves (className, methodName, argTypes) against the registry. A miss
// returns ok=false; callers report a type error, which also covers cross-type Integer/Real
// calls since no cross-type signatures are ever populated.
func lookupStdMethod(className, methodName string, argTypes []Type) (stdMethod, bool) {
	classTable, ok := stdlib()[className]
	if !ok {
		return stdMethod{}, false
	}
	m, ok := classTable[sig(methodName, argTypes...)]
	return m, ok
}
