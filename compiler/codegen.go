package compiler

import "fmt"

// Emitted is one generated Target Assembly file, per §6 one per source class (plus the
// synthetic entry-point class below).
type Emitted struct {
	ClassName string
	Text      string
}

// Emit lowers a typechecked, optimized Program into Target Assembly text, one file per class
// plus a synthetic entry-point class when a Start.start() contract (§6) is present. It panics
// with an InternalError on any unresolved semantic slot or stack-depth violation; Compile
// recovers exactly that panic at the top level (see driver.go).
func Emit(prog *Program) []Emitted {
	var out []Emitted
	for _, class := range prog.Classes {
		out = append(out, Emitted{ClassName: class.Name, Text: emitClass(class)})
	}
	if entry := tryEmitEntryPoint(prog); entry != nil {
		out = append(out, *entry)
	}
	return out
}

func superName(class *ClassDecl) string {
	if class.Base != nil {
		return class.Base.Name
	}
	return "Object"
}

func methodDescriptor(params []*Parameter, ret Type) string {
	desc := "("
	for _, p := range params {
		desc += descriptorOf(p.ResolvedType)
	}
	desc += ")"
	if ret == nil {
		return desc + "V"
	}
	return desc + ret.Descriptor()
}

func ctorDescriptor(params []*Parameter) string {
	desc := "("
	for _, p := range params {
		desc += descriptorOf(p.ResolvedType)
	}
	return desc + ")V"
}

func descriptorOf(t Type) string {
	if t == nil {
		panic(internalErrorf("unresolved type encountered during emission"))
	}
	return t.Descriptor()
}

func isWideType(t Type) bool {
	return t != nil && t.Descriptor() == "D"
}

func typeLetter(t Type) string {
	switch descriptorOf(t) {
	case "D":
		return "d"
	case "I":
		return "i"
	default:
		return "a"
	}
}

func emitClass(class *ClassDecl) string {
	e := &instructionEmitter{}
	e.emit(fmt.Sprintf(".class public %s", class.Name))
	e.emit(fmt.Sprintf(".super %s", superName(class)))
	e.emitBlank()
	for _, field := range class.Fields {
		e.emit(fmt.Sprintf(".field private %s %s", field.Name, descriptorOf(field.ResolvedType)))
	}
	if len(class.Fields) > 0 {
		e.emitBlank()
	}
	for _, ctor := range class.Ctors {
		emitConstructor(e, class, ctor)
		e.emitBlank()
	}
	if len(class.Ctors) == 0 {
		emitImplicitConstructor(e, class)
		e.emitBlank()
	}
	for _, method := range class.Methods {
		if !method.HasBody {
			continue // Forward declarations emit nothing; a completing body was required.
		}
		emitMethod(e, class, method)
		e.emitBlank()
	}
	return e.String()
}

func emitConstructor(e *instructionEmitter, class *ClassDecl, ctor *ConstructorDecl) {
	ctx := NewMethodContext(class.Name, "<init>")
	for _, p := range ctor.Params {
		ctx.Locals.addParameter(p.Name, isWideType(p.ResolvedType))
	}
	body := &instructionEmitter{indent: 1}
	emitSuperCall(body, ctx, class)
	emitFieldInitializers(body, ctx, class)
	emitStatements(body, ctx, class, ctor.Body)
	body.emit("return")

	e.emit(fmt.Sprintf(".method public <init>%s", ctorDescriptor(ctor.Params)))
	e.increaseIndent()
	e.emit(fmt.Sprintf(".limit stack %d", ctx.maxStack()))
	e.emit(fmt.Sprintf(".limit locals %d", ctx.Locals.getMaxLocals()))
	e.emitRaw(body.String())
	e.decreaseIndent()
	e.emit(".end method")
}

func emitImplicitConstructor(e *instructionEmitter, class *ClassDecl) {
	ctx := NewMethodContext(class.Name, "<init>")
	body := &instructionEmitter{indent: 1}
	emitSuperCall(body, ctx, class)
	emitFieldInitializers(body, ctx, class)
	body.emit("return")

	e.emit(".method public <init>()V")
	e.increaseIndent()
	e.emit(fmt.Sprintf(".limit stack %d", ctx.maxStack()))
	e.emit(fmt.Sprintf(".limit locals %d", ctx.Locals.getMaxLocals()))
	e.emitRaw(body.String())
	e.decreaseIndent()
	e.emit(".end method")
}

// emitLoadThis loads the receiver. The allocator always assigns it slot 0, but routing the
// mnemonic through getThisSlot keeps that assumption in one place.
func emitLoadThis(body *instructionEmitter, ctx *MethodContext) {
	body.emit(fmt.Sprintf("aload_%d", ctx.Locals.getThisSlot()))
	ctx.recordLoad(false)
}

func emitSuperCall(body *instructionEmitter, ctx *MethodContext, class *ClassDecl) {
	emitLoadThis(body, ctx)
	body.emit(fmt.Sprintf("invokespecial %s/<init>()V", superName(class)))
	ctx.popStack(1)
}

// emitFieldInitializers lowers each field's initializer right after the super call. A
// built-in-wrapper initializer is a direct constant push into the field rather than an
// object allocation; anything else is recursively compiled like any other expression.
func emitFieldInitializers(body *instructionEmitter, ctx *MethodContext, class *ClassDecl) {
	for _, field := range class.Fields {
		if field.Init == nil {
			continue
		}
		emitLoadThis(body, ctx)
		emitExprValue(body, ctx, class, field.Init)
		body.emit(fmt.Sprintf("putfield %s/%s %s", class.Name, field.Name, descriptorOf(field.ResolvedType)))
		ctx.popStack(stackWidth(field.ResolvedType) + 1)
	}
}

func emitMethod(e *instructionEmitter, class *ClassDecl, method *MethodDecl) {
	ctx := NewMethodContext(class.Name, method.Name)
	for _, p := range method.Params {
		ctx.Locals.addParameter(p.Name, isWideType(p.ResolvedType))
	}
	body := &instructionEmitter{indent: 1}
	emitStatements(body, ctx, class, method.Body)
	if !endsInReturn(method.Body) {
		emitImplicitReturn(body, ctx, method.ResolvedReturnType)
	}

	e.emit(fmt.Sprintf(".method public %s%s", method.Name, methodDescriptor(method.Params, method.ResolvedReturnType)))
	e.increaseIndent()
	e.emit(fmt.Sprintf(".limit stack %d", ctx.maxStack()))
	e.emit(fmt.Sprintf(".limit locals %d", ctx.Locals.getMaxLocals()))
	e.emitRaw(body.String())
	e.decreaseIndent()
	e.emit(".end method")
}

func endsInReturn(stmts []Statement) bool {
	if len(stmts) == 0 {
		return false
	}
	_, ok := stmts[len(stmts)-1].(*ReturnStatement)
	return ok
}

func emitImplicitReturn(body *instructionEmitter, ctx *MethodContext, ret Type) {
	if ret == nil || typeEquals(ret, theVoidType) {
		body.emit("return")
		return
	}
	panic(internalErrorf("method with return type %s falls through without a return", ret.Name()))
}

func stackWidth(t Type) int {
	if isWideType(t) {
		return 2
	}
	return 1
}

// ---- statements ----

func emitStatements(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, stmts []Statement) {
	for _, s := range stmts {
		emitStatement(body, ctx, class, s)
	}
}

func emitStatement(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, stmt Statement) {
	switch s := stmt.(type) {
	case *VariableDeclStatement:
		emitVariableDeclStatement(body, ctx, class, s)
	case *Assignment:
		emitAssignment(body, ctx, class, s)
	case *IfStatement:
		emitIfStatement(body, ctx, class, s)
	case *WhileLoop:
		emitWhileLoop(body, ctx, class, s)
	case *ReturnStatement:
		emitReturnStatement(body, ctx, class, s)
	case *ExpressionStatement:
		emitExpressionStatement(body, ctx, class, s)
	case *UnknownStatement:
		panic(internalErrorf("unresolved statement reached the emitter"))
	}
}

func emitVariableDeclStatement(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, s *VariableDeclStatement) {
	wide := isWideType(s.Decl.ResolvedType)
	slot := ctx.Locals.allocate(s.Decl.Name, wide)
	s.Decl.Slot = slot
	if s.Decl.Init == nil {
		return
	}
	emitExprValue(body, ctx, class, s.Decl.Init)
	emitStoreSlot(body, ctx, slot, s.Decl.ResolvedType)
}

func emitAssignment(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, s *Assignment) {
	emitExprValue(body, ctx, class, s.Value)
	if s.ResolvedTarget == nil {
		panic(internalErrorf("unresolved assignment target %q reached the emitter", s.TargetName))
	}
	emitStoreSlot(body, ctx, s.ResolvedTarget.Slot, s.ResolvedTarget.ResolvedType)
}

func emitStoreSlot(body *instructionEmitter, ctx *MethodContext, slot int, t Type) {
	body.emit(fmt.Sprintf("%sstore %d", typeLetter(t), slot))
	ctx.recordStore(isWideType(t))
}

func emitLoadSlot(body *instructionEmitter, ctx *MethodContext, slot int, t Type) {
	body.emit(fmt.Sprintf("%sload %d", typeLetter(t), slot))
	ctx.recordLoad(isWideType(t))
}

func emitIfStatement(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, s *IfStatement) {
	elseLabel := ctx.Labels.ifElse()
	endLabel := ctx.Labels.ifEnd()
	emitExprValue(body, ctx, class, s.Condition)
	body.emit(fmt.Sprintf("ifeq %s", elseLabel))
	ctx.popStack(1)
	emitStatements(body, ctx, class, s.Then)
	body.emit(fmt.Sprintf("goto %s", endLabel))
	body.emitLabel(elseLabel)
	emitStatements(body, ctx, class, s.Else)
	body.emitLabel(endLabel)
}

func emitWhileLoop(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, s *WhileLoop) {
	startLabel := ctx.Labels.whileStart()
	endLabel := ctx.Labels.whileEnd()
	body.emitLabel(startLabel)
	emitExprValue(body, ctx, class, s.Condition)
	body.emit(fmt.Sprintf("ifeq %s", endLabel))
	ctx.popStack(1)
	emitStatements(body, ctx, class, s.Body)
	body.emit(fmt.Sprintf("goto %s", startLabel))
	body.emitLabel(endLabel)
}

func emitReturnStatement(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, s *ReturnStatement) {
	if s.Value == nil {
		body.emit("return")
		return
	}
	emitExprValue(body, ctx, class, s.Value)
	t := s.Value.inferredType()
	body.emit(typeLetter(t) + "return")
	ctx.popStack(stackWidth(t))
}

// emitExpressionStatement lowers an expression used as a statement. Printer.print and
// Array.set are themselves Void, so nothing is left to pop; anything else used only for its
// side effect (a user method call) must have its result popped explicitly.
func emitExpressionStatement(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, s *ExpressionStatement) {
	emitExprValue(body, ctx, class, s.Value)
	t := s.Value.inferredType()
	if t == nil || typeEquals(t, theVoidType) {
		return
	}
	if isWideType(t) {
		body.emit("pop2")
	} else {
		body.emit("pop")
	}
	ctx.popStack(stackWidth(t))
}

// ---- expressions ----

func emitExprValue(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, expr Expression) {
	switch e := expr.(type) {
	case *IntegerLiteral:
		emitPushInt(body, ctx, e.Value)
	case *BooleanLiteral:
		emitPushBoolean(body, ctx, e.Value)
	case *RealLiteral:
		emitPushDouble(body, ctx, e.Value)
	case *ThisExpr:
		emitLoadThis(body, ctx)
	case *IdentifierExpr:
		emitIdentifierLoad(body, ctx, class, e)
	case *ConstructorCall:
		emitConstructorCall(body, ctx, class, e)
	case *MethodCall:
		emitMethodCallExpr(body, ctx, class, e)
	case *MemberAccess:
		emitMemberAccess(body, ctx, class, e)
	default:
		panic(internalErrorf("unresolved expression reached the emitter"))
	}
}

// emitIdentifierLoad loads a local/parameter from its allocated slot when the allocator
// knows about it, and otherwise treats the identifier as an own/inherited field loaded
// through `this` -- locals and parameters are always allocated a slot before their first use
// (parameters up front, locals at their declaring VariableDeclStatement), so a miss here
// unambiguously means "field".
func emitIdentifierLoad(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, e *IdentifierExpr) {
	decl := e.ResolvedDecl
	if decl == nil {
		panic(internalErrorf("unresolved identifier %q reached the emitter", e.Name))
	}
	if slot, ok := ctx.Locals.getSlot(decl.Name); ok {
		emitLoadSlot(body, ctx, slot, decl.ResolvedType)
		return
	}
	emitLoadThis(body, ctx)
	body.emit(fmt.Sprintf("getfield %s/%s %s", class.Name, decl.Name, descriptorOf(decl.ResolvedType)))
	ctx.recordLoad(isWideType(decl.ResolvedType))
}

func emitConstructorCall(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, e *ConstructorCall) {
	switch e.ClassName {
	case "Integer":
		if v, ok := extractInt(e.Args[0]); ok && isLiteralArg(e.Args[0]) {
			emitPushInt(body, ctx, v)
			return
		}
		emitExprValue(body, ctx, class, e.Args[0])
		return
	case "Boolean":
		if lit, ok := e.Args[0].(*BooleanLiteral); ok {
			emitPushBoolean(body, ctx, lit.Value)
			return
		}
		emitExprValue(body, ctx, class, e.Args[0])
		return
	case "Real":
		if v, ok := extractReal(e.Args[0]); ok && isLiteralArg(e.Args[0]) {
			emitPushDouble(body, ctx, v)
			return
		}
		emitExprValue(body, ctx, class, e.Args[0])
		return
	case "Printer":
		body.emit("aconst_null")
		ctx.recordPushConstant()
		return
	}
	emitUserConstructorCall(body, ctx, class, e)
}

func isLiteralArg(e Expression) bool {
	switch e.(type) {
	case *IntegerLiteral, *RealLiteral, *BooleanLiteral:
		return true
	default:
		return false
	}
}

func emitUserConstructorCall(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, e *ConstructorCall) {
	if e.ResolvedClass == nil {
		panic(internalErrorf("unresolved constructor target %q reached the emitter", e.ClassName))
	}
	body.emit(fmt.Sprintf("new %s", e.ClassName))
	ctx.recordPushConstant()
	body.emit("dup")
	ctx.recordPushConstant()
	var params []*Parameter
	for c := e.ResolvedClass; c != nil && params == nil; c = c.Base {
		for _, ctor := range c.ctorTable {
			if paramsCompatible(ctor.Params, exprTypes(e.Args)) {
				params = ctor.Params
			}
		}
	}
	for _, arg := range e.Args {
		emitExprValue(body, ctx, class, arg)
	}
	body.emit(fmt.Sprintf("invokespecial %s/<init>%s", e.ClassName, ctorDescriptor(params)))
	for _, arg := range e.Args {
		ctx.popStack(stackWidth(arg.inferredType()))
	}
}

func emitMethodCallExpr(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, e *MethodCall) {
	targetType := e.Target.inferredType()
	if arrType, ok := targetType.(*ArrayType); ok {
		emitArrayMethodCall(body, ctx, class, e, arrType)
		return
	}
	classType, ok := targetType.(*ClassType)
	if !ok {
		panic(internalErrorf("unresolved method-call target type reached the emitter"))
	}
	if classType.ClassName == "Printer" {
		emitPrinterPrint(body, ctx, class, e)
		return
	}
	if classType.IsBuiltin() {
		emitBuiltinMethodCall(body, ctx, class, e, classType)
		return
	}
	emitUserMethodCall(body, ctx, class, e, classType)
}

func emitArrayMethodCall(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, e *MethodCall, arr *ArrayType) {
	emitExprValue(body, ctx, class, e.Target)
	switch e.MethodName {
	case "Length":
		body.emit("arraylength")
	case "get":
		emitExprValue(body, ctx, class, e.Args[0])
		body.emit(typeLetter(arr.Elem) + "aload")
		ctx.popStack(2)
		ctx.pushStack(stackWidth(arr.Elem))
	case "set":
		emitExprValue(body, ctx, class, e.Args[0])
		emitExprValue(body, ctx, class, e.Args[1])
		body.emit(typeLetter(arr.Elem) + "astore")
		ctx.popStack(2 + stackWidth(arr.Elem))
	}
}

// emitPrinterPrint lowers to a fetch of the host VM's standard output object followed by the
// overload selected by the static argument type, per §4.6.
func emitPrinterPrint(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, e *MethodCall) {
	body.emit("getstatic System/out Ljava/io/PrintStream;")
	ctx.recordPushConstant()
	argType := e.Args[0].inferredType()
	emitExprValue(body, ctx, class, e.Args[0])
	switch {
	case typeEquals(argType, realType):
		body.emit("invokevirtual java/io/PrintStream/println(D)V")
		ctx.popStack(3)
	case typeEquals(argType, integerType) || typeEquals(argType, booleanType):
		body.emit("invokevirtual java/io/PrintStream/println(I)V")
		ctx.popStack(2)
	default:
		body.emit("invokevirtual java/io/PrintStream/println(Ljava/lang/Object;)V")
		ctx.popStack(2)
	}
}

func emitBuiltinMethodCall(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, e *MethodCall, target *ClassType) {
	emitExprValue(body, ctx, class, e.Target)
	for _, arg := range e.Args {
		emitExprValue(body, ctx, class, arg)
	}
	opcode, isComparison := builtinOpcode(target.ClassName, e.MethodName)
	if isComparison {
		emitComparison(body, ctx, opcode, isWideType(target))
		return
	}
	body.emit(opcode)
	if len(e.Args) == 0 {
		ctx.recordUnaryOp()
	} else {
		ctx.recordBinaryOp(isWideType(target))
	}
}

// builtinOpcode maps a stdlib method to its Target Assembly mnemonic. Comparisons return
// their if_<cmp> family mnemonic and isComparison=true so the caller lowers them through the
// short-branch 0/1 sequence instead of a single instruction.
func builtinOpcode(className, method string) (string, bool) {
	wide := className == "Real"
	prefix := "i"
	if wide {
		prefix = "d"
	}
	switch method {
	case "Plus":
		return prefix + "add", false
	case "Minus":
		return prefix + "sub", false
	case "Mult":
		return prefix + "mul", false
	case "Div":
		return prefix + "div", false
	case "Rem":
		return prefix + "rem", false
	case "UnaryMinus":
		return prefix + "neg", false
	case "UnaryPlus":
		return "nop", false
	case "And":
		return "iand", false
	case "Or":
		return "ior", false
	case "Xor":
		return "ixor", false
	case "Not":
		return "booleannot", false
	case "Less":
		return "lt", true
	case "LessEqual":
		return "le", true
	case "Greater":
		return "gt", true
	case "GreaterEqual":
		return "ge", true
	case "Equal":
		return "eq", true
	default:
		panic(internalErrorf("unknown built-in method %q reached the emitter", method))
	}
}

// emitComparison produces a 0/1 integer via a short forward branch, per §4.6.
func emitComparison(body *instructionEmitter, ctx *MethodContext, cmp string, wide bool) {
	if wide {
		body.emit("dcmpg")
		ctx.popStack(3)
	}
	trueLabel := ctx.Labels.generic("cmpTrue")
	endLabel := ctx.Labels.generic("cmpEnd")
	mnemonic := "if_icmp" + cmp
	if wide {
		mnemonic = "if" + cmp
	}
	body.emit(fmt.Sprintf("%s %s", mnemonic, trueLabel))
	if !wide {
		ctx.popStack(2)
	} else {
		ctx.popStack(1)
	}
	body.emit("iconst_0")
	body.emit(fmt.Sprintf("goto %s", endLabel))
	body.emitLabel(trueLabel)
	body.emit("iconst_1")
	body.emitLabel(endLabel)
	ctx.recordPushConstant()
}

func emitUserMethodCall(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, e *MethodCall, target *ClassType) {
	if e.ResolvedMethod == nil {
		panic(internalErrorf("unresolved method call %q reached the emitter", e.MethodName))
	}
	emitExprValue(body, ctx, class, e.Target)
	for _, arg := range e.Args {
		emitExprValue(body, ctx, class, arg)
	}
	m := e.ResolvedMethod
	body.emit(fmt.Sprintf("invokevirtual %s/%s%s", target.ClassName, m.Name, methodDescriptor(m.Params, m.ResolvedReturnType)))
	for _, arg := range e.Args {
		ctx.popStack(stackWidth(arg.inferredType()))
	}
	if m.ResolvedReturnType != nil && !typeEquals(m.ResolvedReturnType, theVoidType) {
		ctx.recordLoad(isWideType(m.ResolvedReturnType))
		ctx.popStack(1)
	} else {
		ctx.popStack(1)
	}
}

func emitMemberAccess(body *instructionEmitter, ctx *MethodContext, class *ClassDecl, e *MemberAccess) {
	emitExprValue(body, ctx, class, e.Target)
	if e.ResolvedField == nil {
		panic(internalErrorf("unresolved member access %q reached the emitter", e.Member))
	}
	owner := class.Name
	if classType, ok := e.Target.inferredType().(*ClassType); ok && classType.Decl != nil {
		owner = classType.Decl.Name
	}
	body.emit(fmt.Sprintf("getfield %s/%s %s", owner, e.Member, descriptorOf(e.ResolvedField.ResolvedType)))
	ctx.recordLoad(isWideType(e.ResolvedField.ResolvedType))
	ctx.popStack(1)
}

// ---- constant push calibration (§6) ----

func emitPushInt(body *instructionEmitter, ctx *MethodContext, v int64) {
	switch {
	case v >= -1 && v <= 5:
		body.emit(fmt.Sprintf("iconst_%d", v))
	case v >= -128 && v <= 127:
		body.emit(fmt.Sprintf("bipush %d", v))
	case v >= -32768 && v <= 32767:
		body.emit(fmt.Sprintf("sipush %d", v))
	default:
		body.emit(fmt.Sprintf("ldc %d", v))
	}
	ctx.recordPushConstant()
}

func emitPushBoolean(body *instructionEmitter, ctx *MethodContext, v bool) {
	if v {
		body.emit("iconst_1")
	} else {
		body.emit("iconst_0")
	}
	ctx.recordPushConstant()
}

func emitPushDouble(body *instructionEmitter, ctx *MethodContext, v float64) {
	if v == 0.0 {
		body.emit("dconst_0")
	} else if v == 1.0 {
		body.emit("dconst_1")
	} else {
		body.emit(fmt.Sprintf("ldc2_w %v", v))
	}
	ctx.recordPushWide()
}

// ---- synthetic entry point (§6) ----

func tryEmitEntryPoint(prog *Program) *Emitted {
	var start *ClassDecl
	for _, c := range prog.Classes {
		if c.Name == "Start" {
			start = c
		}
	}
	if start == nil {
		return nil
	}
	startMethod, ok := start.methodTable["start()"]
	if !ok || !typeEquals(startMethod.ResolvedReturnType, theVoidType) {
		return nil
	}
	if _, ok := start.ctorTable["this()"]; !ok && len(start.Ctors) > 0 {
		return nil
	}

	e := &instructionEmitter{}
	e.emit(".class public Main")
	e.emit(".super Object")
	e.emitBlank()
	e.emit(".method public static main([Ljava/lang/String;)V")
	e.increaseIndent()
	e.emit(".limit stack 2")
	e.emit(".limit locals 1")
	e.emit("new Start")
	e.emit("dup")
	e.emit("invokespecial Start/<init>()V")
	e.emit("invokevirtual Start/start()V")
	e.emit("return")
	e.decreaseIndent()
	e.emit(".end method")
	return &Emitted{ClassName: "Main", Text: e.String()}
}
