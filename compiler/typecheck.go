package compiler

import (
	"math"
	"strings"
)

// typeChecker implements the type checker's two sub-passes: resolving every declared type
// name, then inferring/checking every statement and expression. Signatures are resolved for
// the whole class first, then bodies are checked, as two explicit package-level passes over
// the whole program rather than one combined visitor.
type typeChecker struct {
	global      *GlobalScope
	diagnostics []Diagnostic
	currentCls  *ClassDecl
	currentRet  Type
}

func TypeCheck(prog *Program, global *GlobalScope) []Diagnostic {
	tc := &typeChecker{global: global}
	for _, class := range prog.Classes {
		tc.resolveSignatures(class)
	}
	for _, class := range prog.Classes {
		tc.checkClassBodies(class)
	}
	return tc.diagnostics
}

func (tc *typeChecker) errorf(kind DiagnosticKind, span Span, format string, args ...interface{}) {
	tc.diagnostics = append(tc.diagnostics, newDiagnostic(kind, span, format, args...))
}

// resolveTypeName resolves a built-in name, an Array[Inner] form (recursing on Inner), or a
// previously registered user class name. An unresolvable name is reported once at span and
// returns (nil, false). String deliberately resolves to nothing: it is lexically an ordinary
// identifier but never has a ClassType, so any use is reported here.
func (tc *typeChecker) resolveTypeName(name string, span Span) (Type, bool) {
	if name == "" {
		return nil, false
	}
	if strings.HasPrefix(name, "Array[") && strings.HasSuffix(name, "]") {
		inner := name[len("Array[") : len(name)-1]
		elem, ok := tc.resolveTypeName(inner, span)
		if !ok {
			return nil, false
		}
		return &ArrayType{Elem: elem}, true
	}
	if t, ok := builtinTypes[name]; ok {
		return t, true
	}
	if decl, ok := tc.global.lookupClass(name); ok {
		return &ClassType{ClassName: decl.Name, Decl: decl}, true
	}
	tc.errorf(ResolutionError, span, "unknown type %q", name)
	return nil, false
}

func (tc *typeChecker) resolveSignatures(class *ClassDecl) {
	for _, field := range class.Fields {
		if t, ok := tc.resolveTypeName(field.TypeName, field.Span); ok {
			field.ResolvedType = t
		}
	}
	for _, method := range class.Methods {
		for _, param := range method.Params {
			if t, ok := tc.resolveTypeName(param.TypeName, param.Span); ok {
				param.ResolvedType = t
				if param.boundDecl != nil {
					param.boundDecl.ResolvedType = t
				}
			}
		}
		if method.ReturnName == "" {
			method.ResolvedReturnType = theVoidType
		} else if t, ok := tc.resolveTypeName(method.ReturnName, method.Span); ok {
			method.ResolvedReturnType = t
		}
	}
	for _, ctor := range class.Ctors {
		for _, param := range ctor.Params {
			if t, ok := tc.resolveTypeName(param.TypeName, param.Span); ok {
				param.ResolvedType = t
				if param.boundDecl != nil {
					param.boundDecl.ResolvedType = t
				}
			}
		}
	}
}

func (tc *typeChecker) checkClassBodies(class *ClassDecl) {
	tc.currentCls = class
	for _, method := range class.Methods {
		tc.currentRet = method.ResolvedReturnType
		tc.checkStatements(method.Body)
	}
	for _, ctor := range class.Ctors {
		tc.currentRet = theVoidType
		tc.checkStatements(ctor.Body)
	}
	tc.currentCls = nil
}

func (tc *typeChecker) checkStatements(stmts []Statement) {
	for _, stmt := range stmts {
		tc.checkStatement(stmt)
	}
}

func (tc *typeChecker) checkStatement(stmt Statement) {
	switch s := stmt.(type) {
	case *VariableDeclStatement:
		if t, ok := tc.resolveTypeName(s.Decl.TypeName, s.Decl.Span); ok {
			s.Decl.ResolvedType = t
		}
		if s.Decl.Init != nil {
			tc.checkExpr(s.Decl.Init)
			if s.Decl.ResolvedType != nil && s.Decl.Init.inferredType() != nil &&
				!isCompatibleWith(s.Decl.Init.inferredType(), s.Decl.ResolvedType) {
				tc.errorf(TypeError, s.Decl.Span, "cannot initialize %q of type %s with value of type %s",
					s.Decl.Name, s.Decl.ResolvedType.Name(), s.Decl.Init.inferredType().Name())
			}
		}
	case *Assignment:
		tc.checkExpr(s.Value)
		if s.ResolvedTarget == nil || s.ResolvedTarget.ResolvedType == nil || s.Value.inferredType() == nil {
			return
		}
		if !isCompatibleWith(s.Value.inferredType(), s.ResolvedTarget.ResolvedType) {
			tc.errorf(TypeError, s.Span_, "cannot assign value of type %s to %q of type %s",
				s.Value.inferredType().Name(), s.TargetName, s.ResolvedTarget.ResolvedType.Name())
		}
	case *IfStatement:
		tc.checkExpr(s.Condition)
		tc.requireBoolean(s.Condition, "if condition")
		tc.checkStatements(s.Then)
		tc.checkStatements(s.Else)
	case *WhileLoop:
		tc.checkExpr(s.Condition)
		tc.requireBoolean(s.Condition, "while condition")
		tc.checkStatements(s.Body)
	case *ReturnStatement:
		tc.checkReturn(s)
	case *ExpressionStatement:
		tc.checkExpr(s.Value)
	case *UnknownStatement:
	}
}

func (tc *typeChecker) requireBoolean(expr Expression, context string) {
	if expr.inferredType() != nil && !typeEquals(expr.inferredType(), booleanType) {
		tc.errorf(TypeError, expr.span(), "%s must be Boolean, found %s", context, expr.inferredType().Name())
	}
}

func (tc *typeChecker) checkReturn(s *ReturnStatement) {
	isVoidReturn := tc.currentRet == nil || typeEquals(tc.currentRet, theVoidType)
	if s.Value == nil {
		if !isVoidReturn {
			tc.errorf(TypeError, s.Span_, "missing return value in a method returning %s", tc.currentRet.Name())
		}
		return
	}
	tc.checkExpr(s.Value)
	if isVoidReturn {
		tc.errorf(TypeError, s.Span_, "method returning Void cannot return a value")
		return
	}
	if s.Value.inferredType() != nil && !isCompatibleWith(s.Value.inferredType(), tc.currentRet) {
		tc.errorf(TypeError, s.Span_, "return type mismatch: expected %s, found %s",
			tc.currentRet.Name(), s.Value.inferredType().Name())
	}
}

func (tc *typeChecker) checkExpr(expr Expression) {
	switch e := expr.(type) {
	case *IntegerLiteral:
		e.setInferredType(integerType)
	case *RealLiteral:
		e.setInferredType(realType)
	case *BooleanLiteral:
		e.setInferredType(booleanType)
	case *ThisExpr:
		if tc.currentCls != nil {
			e.setInferredType(&ClassType{ClassName: tc.currentCls.Name, Decl: tc.currentCls})
		}
	case *IdentifierExpr:
		if e.ResolvedDecl != nil {
			e.setInferredType(e.ResolvedDecl.ResolvedType)
		}
	case *ConstructorCall:
		tc.checkConstructorCall(e)
	case *MethodCall:
		tc.checkMethodCall(e)
	case *MemberAccess:
		tc.checkMemberAccess(e)
	case *UnknownExpression:
	}
}

func (tc *typeChecker) checkConstructorCall(e *ConstructorCall) {
	for _, arg := range e.Args {
		tc.checkExpr(arg)
	}
	switch e.ClassName {
	case "Integer":
		tc.checkBuiltinCtorArity(e, 1, integerType, integerType)
	case "Boolean":
		tc.checkBuiltinCtorArity(e, 1, booleanType, booleanType)
	case "Real":
		tc.checkBuiltinCtorArity(e, 1, realType, realType)
		// Integer(Real) is rejected, not widened -- checkBuiltinCtorArity's exact-type
		// requirement already covers this; a Real(Integer) call is equally rejected.
	case "Printer":
		if len(e.Args) != 0 {
			tc.errorf(TypeError, e.Span_, "Printer() takes no arguments")
		}
		e.setInferredType(printerType)
	default:
		tc.checkUserCtorCall(e)
	}
}

func (tc *typeChecker) checkBuiltinCtorArity(e *ConstructorCall, arity int, argType, resultType Type) {
	if len(e.Args) != arity {
		tc.errorf(TypeError, e.Span_, "%s(...) takes exactly %d argument(s)", e.ClassName, arity)
		return
	}
	arg := e.Args[0]
	if arg.inferredType() != nil && !typeEquals(arg.inferredType(), argType) {
		tc.errorf(TypeError, e.Span_, "%s(...) requires an argument of type %s, found %s",
			e.ClassName, argType.Name(), arg.inferredType().Name())
		return
	}
	e.setInferredType(resultType)
}

func (tc *typeChecker) checkUserCtorCall(e *ConstructorCall) {
	if e.ResolvedClass == nil {
		return
	}
	argTypes := exprTypes(e.Args)
	for c := e.ResolvedClass; c != nil; c = c.Base {
		for _, ctor := range c.ctorTable {
			if paramsCompatible(ctor.Params, argTypes) {
				e.setInferredType(&ClassType{ClassName: e.ResolvedClass.Name, Decl: e.ResolvedClass})
				return
			}
		}
	}
	tc.errorf(TypeError, e.Span_, "no matching constructor for class %q with %d argument(s)", e.ClassName, len(e.Args))
}

func paramsCompatible(params []*Parameter, argTypes []Type) bool {
	if len(params) != len(argTypes) {
		return false
	}
	for i, p := range params {
		if p.ResolvedType == nil || argTypes[i] == nil || !isCompatibleWith(argTypes[i], p.ResolvedType) {
			return false
		}
	}
	return true
}

func exprTypes(exprs []Expression) []Type {
	types := make([]Type, len(exprs))
	for i, e := range exprs {
		types[i] = e.inferredType()
	}
	return types
}

// checkMethodCall rejects a literal target outright, then dispatches on the target's
// inferred type to the array, built-in, or user-class resolution rule.
func (tc *typeChecker) checkMethodCall(e *MethodCall) {
	tc.checkExpr(e.Target)
	for _, arg := range e.Args {
		tc.checkExpr(arg)
	}
	if isLiteral(e.Target) {
		tc.errorf(TypeError, e.Span_, "cannot call method %q on a literal directly", e.MethodName)
		return
	}
	targetType := e.Target.inferredType()
	if targetType == nil {
		return
	}
	switch t := targetType.(type) {
	case *ArrayType:
		tc.checkArrayMethodCall(e, t)
	case *ClassType:
		if t.IsBuiltin() {
			tc.checkBuiltinMethodCall(e, t)
		} else {
			tc.checkUserMethodCall(e, t)
		}
	default:
		tc.errorf(TypeError, e.Span_, "cannot call methods on type %s", targetType.Name())
	}
}

func isLiteral(e Expression) bool {
	switch e.(type) {
	case *IntegerLiteral, *RealLiteral, *BooleanLiteral:
		return true
	default:
		return false
	}
}

func (tc *typeChecker) checkArrayMethodCall(e *MethodCall, arrType *ArrayType) {
	switch e.MethodName {
	case "get":
		if !tc.requireArgs(e, []Type{integerType}) {
			return
		}
		e.setInferredType(arrType.Elem)
	case "set":
		if !tc.requireArgs(e, []Type{integerType, arrType.Elem}) {
			return
		}
		e.setInferredType(theVoidType)
	case "Length":
		if len(e.Args) != 0 {
			tc.errorf(TypeError, e.Span_, "Length() takes no arguments")
			return
		}
		e.setInferredType(integerType)
	default:
		tc.errorf(TypeError, e.Span_, "array has no method %q", e.MethodName)
	}
}

func (tc *typeChecker) requireArgs(e *MethodCall, want []Type) bool {
	if len(e.Args) != len(want) {
		tc.errorf(TypeError, e.Span_, "%s(...) takes %d argument(s)", e.MethodName, len(want))
		return false
	}
	for i, w := range want {
		at := e.Args[i].inferredType()
		if at != nil && !isCompatibleWith(at, w) {
			tc.errorf(TypeError, e.Span_, "%s(...) argument %d must be %s, found %s", e.MethodName, i+1, w.Name(), at.Name())
			return false
		}
	}
	return true
}

// checkBuiltinMethodCall special-cases Printer.print (polymorphic over the argument type,
// so no fixed stdlib entry fits) and otherwise looks the call up in the stdlib registry. A
// miss includes cross-type Integer/Real comparisons, since no cross-type signature exists.
func (tc *typeChecker) checkBuiltinMethodCall(e *MethodCall, target *ClassType) {
	if target.ClassName == "Printer" {
		if e.MethodName != "print" || len(e.Args) != 1 {
			tc.errorf(TypeError, e.Span_, "Printer has no method %q with %d argument(s)", e.MethodName, len(e.Args))
			return
		}
		e.setInferredType(theVoidType)
		return
	}
	argTypes := exprTypes(e.Args)
	for _, at := range argTypes {
		if at == nil {
			return
		}
	}
	m, ok := lookupStdMethod(target.ClassName, e.MethodName, argTypes)
	if !ok {
		tc.errorf(TypeError, e.Span_, "%s has no method %q accepting the given argument type(s)", target.ClassName, e.MethodName)
		return
	}
	e.setInferredType(m.ReturnType)
}

// checkUserMethodCall resolves by exact signature first (argument types as written), falling
// back to a name+arity+pairwise-compatibility candidate search, walking subclass-first up
// the base-class chain.
func (tc *typeChecker) checkUserMethodCall(e *MethodCall, target *ClassType) {
	if target.Decl == nil {
		return
	}
	argTypes := exprTypes(e.Args)
	for _, at := range argTypes {
		if at == nil {
			return
		}
	}
	sig := e.MethodName + "("
	for i, at := range argTypes {
		if i > 0 {
			sig += ","
		}
		sig += at.Name()
	}
	sig += ")"
	for c := target.Decl; c != nil; c = c.Base {
		if m, ok := c.methodTable[sig]; ok {
			e.ResolvedMethod = m
			e.setInferredType(m.ResolvedReturnType)
			return
		}
	}
	for c := target.Decl; c != nil; c = c.Base {
		for _, m := range c.Methods {
			if m.Name == e.MethodName && paramsCompatible(m.Params, argTypes) {
				e.ResolvedMethod = m
				e.setInferredType(m.ResolvedReturnType)
				return
			}
		}
	}
	tc.errorf(TypeError, e.Span_, "no method %q on class %q matching the given argument(s)", e.MethodName, target.ClassName)
}

func (tc *typeChecker) checkMemberAccess(e *MemberAccess) {
	tc.checkExpr(e.Target)
	targetType := e.Target.inferredType()
	if targetType == nil {
		return
	}
	classType, ok := targetType.(*ClassType)
	if !ok || classType.Decl == nil {
		tc.errorf(TypeError, e.Span_, "cannot access member %q on type %s", e.Member, targetType.Name())
		return
	}
	for c := classType.Decl; c != nil; c = c.Base {
		if field, ok := c.fieldTable[e.Member]; ok {
			e.ResolvedField = field
			e.setInferredType(field.ResolvedType)
			return
		}
	}
	tc.errorf(TypeError, e.Span_, "class %q has no field %q", classType.ClassName, e.Member)
}

// realEqualTolerance is the fixed tolerance (1e-9) used by the constant folder's Real.Equal
// fold in optimize.go.
const realEqualTolerance = 1e-9

func realsEqual(a, b float64) bool {
	return math.Abs(a-b) < realEqualTolerance
}
