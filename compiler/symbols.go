package compiler

// BuildSymbolTables runs the symbol-table-builder sub-passes over prog and returns the
// accumulated diagnostics: register classes and wire inheritance, register members, then
// resolve identifiers in bodies.
type symbolBuilder struct {
	global      *GlobalScope
	diagnostics []Diagnostic
}

func BuildSymbolTables(prog *Program, global *GlobalScope) []Diagnostic {
	b := &symbolBuilder{global: global}
	b.registerClasses(prog)
	b.wireInheritance(prog)
	for _, class := range prog.Classes {
		b.registerMembers(class)
	}
	for _, class := range prog.Classes {
		b.resolveBodies(class)
	}
	return b.diagnostics
}

func (b *symbolBuilder) errorf(kind DiagnosticKind, span Span, format string, args ...interface{}) {
	b.diagnostics = append(b.diagnostics, newDiagnostic(kind, span, format, args...))
}

// Sub-pass 1: register every class by name, pre-seeding built-ins as unavailable names.
func (b *symbolBuilder) registerClasses(prog *Program) {
	for _, class := range prog.Classes {
		class.fieldTable = make(map[string]*VariableDecl)
		class.methodTable = make(map[string]*MethodDecl)
		class.ctorTable = make(map[string]*ConstructorDecl)
		if _, isBuiltin := builtinTypes[class.Name]; isBuiltin {
			b.errorf(ResolutionError, class.Span, "class %q shadows a built-in type", class.Name)
			continue
		}
		if !b.global.define(class.Name, class) {
			b.errorf(ResolutionError, class.Span, "duplicate class name %q", class.Name)
		}
	}
}

// wireInheritance links each ClassDecl to its base ClassDecl, rejecting a missing base, a
// built-in base, self-inheritance, and (via an explicit visited-set walk, never relying on
// stack depth) circular inheritance.
func (b *symbolBuilder) wireInheritance(prog *Program) {
	for _, class := range prog.Classes {
		if class.BaseName == "" {
			continue
		}
		if class.BaseName == class.Name {
			b.errorf(ResolutionError, class.Span, "class %q cannot extend itself", class.Name)
			continue
		}
		if _, isBuiltin := builtinTypes[class.BaseName]; isBuiltin {
			b.errorf(ResolutionError, class.Span, "class %q cannot extend built-in type %q", class.Name, class.BaseName)
			continue
		}
		base, ok := b.global.lookupClass(class.BaseName)
		if !ok {
			b.errorf(ResolutionError, class.Span, "unknown base class %q", class.BaseName)
			continue
		}
		class.Base = base
	}
	for _, class := range prog.Classes {
		b.checkInheritanceCycle(class)
	}
}

func (b *symbolBuilder) checkInheritanceCycle(class *ClassDecl) {
	visited := map[*ClassDecl]bool{class: true}
	for c := class.Base; c != nil; c = c.Base {
		if visited[c] {
			b.errorf(ResolutionError, class.Span, "circular inheritance detected starting at class %q", class.Name)
			class.Base = nil
			return
		}
		visited[c] = true
	}
}

// Sub-pass 2: register fields, methods (by signature), and constructors (by signature) on
// each class.
func (b *symbolBuilder) registerMembers(class *ClassDecl) {
	for _, field := range class.Fields {
		if _, exists := class.fieldTable[field.Name]; exists {
			b.errorf(ResolutionError, field.Span, "duplicate field name %q in class %q", field.Name, class.Name)
			continue
		}
		class.fieldTable[field.Name] = field
	}
	for _, method := range class.Methods {
		method.Owner = class
		b.checkDuplicateParams(method.Params, method.Span, "method "+method.Name)
		sig := method.Signature()
		if existing, exists := class.methodTable[sig]; exists {
			if existing.HasBody && method.HasBody {
				b.errorf(ResolutionError, method.Span, "duplicate method signature %q in class %q", sig, class.Name)
				continue
			}
			// A body-bearing declaration completes a prior forward declaration.
			if method.HasBody {
				class.methodTable[sig] = method
			}
			continue
		}
		class.methodTable[sig] = method
	}
	for _, ctor := range class.Ctors {
		ctor.Owner = class
		b.checkDuplicateParams(ctor.Params, ctor.Span, "constructor")
		sig := ctor.Signature()
		if _, exists := class.ctorTable[sig]; exists {
			b.errorf(ResolutionError, ctor.Span, "duplicate constructor signature %q in class %q", sig, class.Name)
			continue
		}
		class.ctorTable[sig] = ctor
	}
}

func (b *symbolBuilder) checkDuplicateParams(params []*Parameter, span Span, context string) {
	seen := map[string]bool{}
	for _, p := range params {
		if seen[p.Name] {
			b.errorf(ResolutionError, span, "duplicate parameter name %q in %s", p.Name, context)
		}
		seen[p.Name] = true
	}
}

// Sub-pass 3: resolve every IdentifierExpr to a local/parameter or a field, resolve every
// ConstructorCall's class name, and flag `this` used outside a class context. Method/member
// name resolution for MethodCall/MemberAccess targets is deferred to the type checker, which
// needs the target's inferred type first.
func (b *symbolBuilder) resolveBodies(class *ClassDecl) {
	for _, method := range class.Methods {
		local := NewLocalScope(&classScope{class: class, global: b.global})
		for _, param := range method.Params {
			param.boundDecl = &VariableDecl{Name: param.Name, TypeName: param.TypeName, IsParameter: true, Span: param.Span}
			local.define(param.Name, param.boundDecl)
		}
		b.resolveStatements(method.Body, local, class)
	}
	for _, ctor := range class.Ctors {
		local := NewLocalScope(&classScope{class: class, global: b.global})
		for _, param := range ctor.Params {
			param.boundDecl = &VariableDecl{Name: param.Name, TypeName: param.TypeName, IsParameter: true, Span: param.Span}
			local.define(param.Name, param.boundDecl)
		}
		b.resolveStatements(ctor.Body, local, class)
	}
}

func (b *symbolBuilder) resolveStatements(stmts []Statement, scope *LocalScope, class *ClassDecl) {
	for _, stmt := range stmts {
		b.resolveStatement(stmt, scope, class)
	}
}

func (b *symbolBuilder) resolveStatement(stmt Statement, scope *LocalScope, class *ClassDecl) {
	switch s := stmt.(type) {
	case *VariableDeclStatement:
		if s.Decl.Init != nil {
			b.resolveExpr(s.Decl.Init, scope, class)
		}
		if !scope.define(s.Decl.Name, s.Decl) {
			b.errorf(ResolutionError, s.Decl.Span, "duplicate local variable name %q", s.Decl.Name)
		}
	case *Assignment:
		if sym, ok := resolveRecursive(scope, s.TargetName); ok {
			s.ResolvedTarget = sym.(*VariableDecl)
		} else {
			b.errorf(ResolutionError, s.Span_, "undefined identifier %q", s.TargetName)
		}
		b.resolveExpr(s.Value, scope, class)
	case *IfStatement:
		b.resolveExpr(s.Condition, scope, class)
		b.resolveStatements(s.Then, scope.Nested(), class)
		b.resolveStatements(s.Else, scope.Nested(), class)
	case *WhileLoop:
		b.resolveExpr(s.Condition, scope, class)
		b.resolveStatements(s.Body, scope.Nested(), class)
	case *ReturnStatement:
		if s.Value != nil {
			b.resolveExpr(s.Value, scope, class)
		}
	case *ExpressionStatement:
		b.resolveExpr(s.Value, scope, class)
	case *UnknownStatement:
		// Nothing to resolve; the parser already reported why.
	}
}

func (b *symbolBuilder) resolveExpr(expr Expression, scope *LocalScope, class *ClassDecl) {
	switch e := expr.(type) {
	case *IdentifierExpr:
		if sym, ok := resolveRecursive(scope, e.Name); ok {
			e.ResolvedDecl = sym.(*VariableDecl)
		} else {
			b.errorf(ResolutionError, e.Span_, "undefined identifier %q", e.Name)
		}
	case *ThisExpr:
		if class == nil {
			b.errorf(ResolutionError, e.Span_, "'this' used outside class context")
		}
	case *ConstructorCall:
		if _, isBuiltin := builtinTypes[e.ClassName]; !isBuiltin {
			if decl, ok := b.global.lookupClass(e.ClassName); ok {
				e.ResolvedClass = decl
			} else {
				b.errorf(ResolutionError, e.Span_, "unknown class %q", e.ClassName)
			}
		}
		for _, arg := range e.Args {
			b.resolveExpr(arg, scope, class)
		}
	case *MethodCall:
		b.resolveExpr(e.Target, scope, class)
		for _, arg := range e.Args {
			b.resolveExpr(arg, scope, class)
		}
	case *MemberAccess:
		b.resolveExpr(e.Target, scope, class)
	case *IntegerLiteral, *RealLiteral, *BooleanLiteral, *UnknownExpression:
		// Nothing to resolve.
	}
}
