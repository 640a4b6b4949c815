package compiler

// EliminateDeadCode removes every statement strictly after the first ReturnStatement in each
// straight-line block (method/constructor body, if-branch, else-branch, while body),
// recursing into nested if/while blocks of the statements that are kept. The removal is local
// per block and does not reason across joins, and a loop body containing a return is left
// intact (the loop might not execute the return at all).
func EliminateDeadCode(prog *Program) (changed bool) {
	for _, class := range prog.Classes {
		for _, m := range class.Methods {
			if pruned, ok := pruneBlock(m.Body); ok {
				m.Body = pruned
				changed = true
			}
		}
		for _, c := range class.Ctors {
			if pruned, ok := pruneBlock(c.Body); ok {
				c.Body = pruned
				changed = true
			}
		}
	}
	return changed
}

func pruneBlock(stmts []Statement) ([]Statement, bool) {
	kept := make([]Statement, 0, len(stmts))
	for _, s := range stmts {
		pruneNested(s)
		kept = append(kept, s)
		if _, isReturn := s.(*ReturnStatement); isReturn {
			break
		}
	}
	return kept, len(kept) < len(stmts)
}

func pruneNested(stmt Statement) {
	switch s := stmt.(type) {
	case *IfStatement:
		if pruned, ok := pruneBlock(s.Then); ok {
			s.Then = pruned
		}
		if pruned, ok := pruneBlock(s.Else); ok {
			s.Else = pruned
		}
	case *WhileLoop:
		if pruned, ok := pruneBlock(s.Body); ok {
			s.Body = pruned
		}
	}
}

// FoldConstants runs the constant folder to a fixed point, capped at 10 iterations (an
// overflow past the cap is not fatal, matching the prose of the optimization design). It
// returns the number of iterations actually run.
func FoldConstants(prog *Program) int {
	const maxIterations = 10
	iterations := 0
	for iterations < maxIterations {
		iterations++
		f := &constantFolder{}
		f.foldProgram(prog)
		if !f.changed {
			break
		}
	}
	return iterations
}

type constantFolder struct {
	changed bool
}

func (f *constantFolder) foldProgram(prog *Program) {
	for _, class := range prog.Classes {
		for _, m := range class.Methods {
			f.foldStatements(m.Body)
		}
		for _, c := range class.Ctors {
			f.foldStatements(c.Body)
		}
		for _, field := range class.Fields {
			if field.Init != nil {
				field.Init = f.foldExpr(field.Init)
			}
		}
	}
}

func (f *constantFolder) foldStatements(stmts []Statement) {
	for _, s := range stmts {
		f.foldStatement(s)
	}
}

func (f *constantFolder) foldStatement(stmt Statement) {
	switch s := stmt.(type) {
	case *VariableDeclStatement:
		if s.Decl.Init != nil {
			s.Decl.Init = f.foldExpr(s.Decl.Init)
		}
	case *Assignment:
		s.Value = f.foldExpr(s.Value)
	case *IfStatement:
		s.Condition = f.foldExpr(s.Condition)
		f.foldStatements(s.Then)
		f.foldStatements(s.Else)
	case *WhileLoop:
		s.Condition = f.foldExpr(s.Condition)
		f.foldStatements(s.Body)
	case *ReturnStatement:
		if s.Value != nil {
			s.Value = f.foldExpr(s.Value)
		}
	case *ExpressionStatement:
		s.Value = f.foldExpr(s.Value)
	}
}

// foldExpr recursively folds children first (bottom-up), then tries to fold the node itself.
// A folded replacement is always a ConstructorCall wrapping a literal -- the Language
// represents constants canonically that way -- never a bare literal.
func (f *constantFolder) foldExpr(expr Expression) Expression {
	switch e := expr.(type) {
	case *ConstructorCall:
		for i, arg := range e.Args {
			e.Args[i] = f.foldExpr(arg)
		}
		return f.foldConstructorCall(e)
	case *MethodCall:
		e.Target = f.foldExpr(e.Target)
		for i, arg := range e.Args {
			e.Args[i] = f.foldExpr(arg)
		}
		return f.foldMethodCall(e)
	case *MemberAccess:
		e.Target = f.foldExpr(e.Target)
		return e
	default:
		return e
	}
}

// foldConstructorCall unwraps a wrapper-around-itself-with-a-literal pattern, e.g.
// Boolean(Boolean(false)) -> Boolean(false).
func (f *constantFolder) foldConstructorCall(e *ConstructorCall) Expression {
	if len(e.Args) != 1 {
		return e
	}
	inner, ok := e.Args[0].(*ConstructorCall)
	if !ok || inner.ClassName != e.ClassName || len(inner.Args) != 1 {
		return e
	}
	if !isLiteral(inner.Args[0]) {
		return e
	}
	f.changed = true
	return wrapLiteral(e.ClassName, inner.Args[0], e.Span_)
}

// wrapLiteral builds a folded ConstructorCall and immediately re-annotates it with the
// collapsed built-in type, since folding runs after type checking and no later pass will do
// it for us.
func wrapLiteral(className string, lit Expression, span Span) *ConstructorCall {
	cc := &ConstructorCall{exprBase: newExprBase(span), ClassName: className, Args: []Expression{lit}}
	cc.setInferredType(builtinTypes[className])
	return cc
}

func extractInt(e Expression) (int64, bool) {
	cc, ok := e.(*ConstructorCall)
	if !ok || cc.ClassName != "Integer" || len(cc.Args) != 1 {
		return 0, false
	}
	lit, ok := cc.Args[0].(*IntegerLiteral)
	if !ok {
		return 0, false
	}
	return lit.Value, true
}

func extractBool(e Expression) (bool, bool) {
	cc, ok := e.(*ConstructorCall)
	if !ok || cc.ClassName != "Boolean" || len(cc.Args) != 1 {
		return false, false
	}
	lit, ok := cc.Args[0].(*BooleanLiteral)
	if !ok {
		return false, false
	}
	return lit.Value, true
}

func extractReal(e Expression) (float64, bool) {
	cc, ok := e.(*ConstructorCall)
	if !ok || cc.ClassName != "Real" || len(cc.Args) != 1 {
		return 0, false
	}
	lit, ok := cc.Args[0].(*RealLiteral)
	if !ok {
		return 0, false
	}
	return lit.Value, true
}

// foldMethodCall extracts built-in wrapper constants from the target and (for binary
// operators) the sole argument, then applies the operator table for the target's built-in
// type. A nil result (e.g. division/remainder by zero) leaves the node unfolded.
func (f *constantFolder) foldMethodCall(e *MethodCall) Expression {
	if iv, ok := extractInt(e.Target); ok {
		if folded := f.foldIntegerCall(e, iv); folded != nil {
			return folded
		}
		return e
	}
	if bv, ok := extractBool(e.Target); ok {
		if folded := f.foldBooleanCall(e, bv); folded != nil {
			return folded
		}
		return e
	}
	if rv, ok := extractReal(e.Target); ok {
		if folded := f.foldRealCall(e, rv); folded != nil {
			return folded
		}
		return e
	}
	return e
}

func (f *constantFolder) foldIntegerCall(e *MethodCall, left int64) Expression {
	unary := len(e.Args) == 0
	var right int64
	if !unary {
		if len(e.Args) != 1 {
			return nil
		}
		rv, ok := extractInt(e.Args[0])
		if !ok {
			return nil
		}
		right = rv
	}
	var result Expression
	switch e.MethodName {
	case "Plus":
		result = intLit(left+right, e.Span_)
	case "Minus":
		result = intLit(left-right, e.Span_)
	case "Mult":
		result = intLit(left*right, e.Span_)
	case "Div":
		if right == 0 {
			return nil
		}
		result = intLit(left/right, e.Span_)
	case "Rem":
		if right == 0 {
			return nil
		}
		result = intLit(left%right, e.Span_)
	case "UnaryMinus":
		result = intLit(-left, e.Span_)
	case "UnaryPlus":
		result = intLit(left, e.Span_)
	case "Less":
		result = boolLit(left < right, e.Span_)
	case "LessEqual":
		result = boolLit(left <= right, e.Span_)
	case "Greater":
		result = boolLit(left > right, e.Span_)
	case "GreaterEqual":
		result = boolLit(left >= right, e.Span_)
	case "Equal":
		result = boolLit(left == right, e.Span_)
	default:
		return nil
	}
	f.changed = true
	return result
}

func (f *constantFolder) foldBooleanCall(e *MethodCall, left bool) Expression {
	unary := len(e.Args) == 0
	var right bool
	if !unary {
		if len(e.Args) != 1 {
			return nil
		}
		rv, ok := extractBool(e.Args[0])
		if !ok {
			return nil
		}
		right = rv
	}
	var result Expression
	switch e.MethodName {
	case "And":
		result = boolLit(left && right, e.Span_)
	case "Or":
		result = boolLit(left || right, e.Span_)
	case "Xor":
		result = boolLit(left != right, e.Span_)
	case "Not":
		result = boolLit(!left, e.Span_)
	default:
		return nil
	}
	f.changed = true
	return result
}

// foldRealCall implements the Real operator table including Rem, folded the same way as
// Integer.Rem, with the same leave-unfolded-on-zero-divisor guard (see DESIGN.md for why Rem
// is implemented for Real rather than left out).
func (f *constantFolder) foldRealCall(e *MethodCall, left float64) Expression {
	unary := len(e.Args) == 0
	var right float64
	if !unary {
		if len(e.Args) != 1 {
			return nil
		}
		rv, ok := extractReal(e.Args[0])
		if !ok {
			return nil
		}
		right = rv
	}
	var result Expression
	switch e.MethodName {
	case "Plus":
		result = realLit(left+right, e.Span_)
	case "Minus":
		result = realLit(left-right, e.Span_)
	case "Mult":
		result = realLit(left*right, e.Span_)
	case "Div":
		if right == 0.0 {
			return nil
		}
		result = realLit(left/right, e.Span_)
	case "Rem":
		if right == 0.0 {
			return nil
		}
		result = realLit(realRem(left, right), e.Span_)
	case "UnaryMinus":
		result = realLit(-left, e.Span_)
	case "UnaryPlus":
		result = realLit(left, e.Span_)
	case "Less":
		result = boolLit(left < right, e.Span_)
	case "LessEqual":
		result = boolLit(left <= right, e.Span_)
	case "Greater":
		result = boolLit(left > right, e.Span_)
	case "GreaterEqual":
		result = boolLit(left >= right, e.Span_)
	case "Equal":
		result = boolLit(realsEqual(left, right), e.Span_)
	default:
		return nil
	}
	f.changed = true
	return result
}

func realRem(a, b float64) float64 {
	return a - b*float64(int64(a/b))
}

func intLit(v int64, span Span) Expression {
	return wrapLiteral("Integer", &IntegerLiteral{exprBase: newExprBase(span), Value: v}, span)
}

func boolLit(v bool, span Span) Expression {
	return wrapLiteral("Boolean", &BooleanLiteral{exprBase: newExprBase(span), Value: v}, span)
}

func realLit(v float64, span Span) Expression {
	return wrapLiteral("Real", &RealLiteral{exprBase: newExprBase(span), Value: v}, span)
}
