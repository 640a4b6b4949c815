package compiler

// Parser is a recursive-descent parser with one token of lookahead. Rather than aborting on
// the first error, it accumulates diagnostics and keeps going, substituting
// UnknownExpression/UnknownStatement placeholders and synchronizing at class/member/statement
// boundaries so the rest of the tree stays well-formed.
type Parser struct {
	tokens      []Token
	pos         int
	diagnostics []Diagnostic
}

func NewParser(tokens []Token) *Parser {
	return &Parser{tokens: tokens}
}

func Parse(src []byte) (*Program, []Diagnostic) {
	tokens, lexDiags := NewLexer(src).Lex()
	p := NewParser(tokens)
	prog := p.ParseProgram()
	return prog, append(lexDiags, p.diagnostics...)
}

func (p *Parser) current() Token {
	return p.tokens[p.pos]
}

func (p *Parser) check(kind TokenKind) bool {
	return p.current().Kind == kind
}

func (p *Parser) advance() Token {
	t := p.current()
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

// expect consumes the current token if it matches kind; otherwise it records a syntax error
// and leaves the cursor where it was, letting the caller decide how to recover.
func (p *Parser) expect(kind TokenKind, context string) (Token, bool) {
	if p.check(kind) {
		return p.advance(), true
	}
	p.errorf("expected %s %s, found %s", kind, context, p.current().Kind)
	return Token{}, false
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.diagnostics = append(p.diagnostics, newDiagnostic(SyntaxError, p.current().Span, format, args...))
}

// synchronize skips tokens until one in stopSet (or EOF), so a later construct can resume
// parsing after a malformed one.
func (p *Parser) synchronize(stopSet ...TokenKind) {
	for !p.check(EOF) {
		for _, k := range stopSet {
			if p.check(k) {
				return
			}
		}
		p.advance()
	}
}

var classStop = []TokenKind{ClassKW}
var memberStop = []TokenKind{VarKW, MethodKW, ThisKW, EndKW, ClassKW}
var stmtStop = []TokenKind{VarKW, IfKW, WhileKW, ReturnKW, EndKW, ElseKW, ClassKW}

func (p *Parser) ParseProgram() *Program {
	prog := &Program{}
	for !p.check(EOF) {
		if !p.check(ClassKW) {
			p.errorf("expected class declaration, found %s", p.current().Kind)
			p.synchronize(classStop...)
			if p.check(EOF) {
				break
			}
		}
		prog.Classes = append(prog.Classes, p.parseClass())
	}
	return prog
}

func (p *Parser) parseClass() *ClassDecl {
	start := p.current().Span
	p.expect(ClassKW, "to start a class declaration")
	nameTok, _ := p.expect(Identifier, "as the class name")
	class := &ClassDecl{Name: nameTok.Lexeme}
	if p.check(ExtendsKW) {
		p.advance()
		baseTok, _ := p.expect(Identifier, "as the base class name")
		class.BaseName = baseTok.Lexeme
	}
	p.expect(IsKW, "before class body")
	for !p.check(EndKW) && !p.check(EOF) && !p.check(ClassKW) {
		switch {
		case p.check(VarKW):
			class.Fields = append(class.Fields, p.parseVarDecl())
		case p.check(MethodKW):
			class.Methods = append(class.Methods, p.parseMethodDecl())
		case p.check(ThisKW):
			class.Ctors = append(class.Ctors, p.parseCtorDecl())
		default:
			p.errorf("expected member declaration, found %s", p.current().Kind)
			p.synchronize(memberStop...)
		}
	}
	end := p.current().Span
	p.expect(EndKW, "to close the class body")
	class.Span = start.Merge(end)
	return class
}

func (p *Parser) parseTypeName() string {
	nameTok, ok := p.expect(Identifier, "as a type name")
	if !ok {
		return ""
	}
	if nameTok.Lexeme == "Array" && p.check(LBracket) {
		p.advance()
		inner := p.parseTypeName()
		p.expect(RBracket, "to close Array[...]")
		return "Array[" + inner + "]"
	}
	return nameTok.Lexeme
}

func (p *Parser) parseVarDecl() *VariableDecl {
	start := p.current().Span
	p.expect(VarKW, "to start a variable declaration")
	nameTok, _ := p.expect(Identifier, "as the variable name")
	p.expect(Colon, "before the variable's type/initializer")
	typeName := p.parseTypeName()
	decl := &VariableDecl{Name: nameTok.Lexeme, TypeName: typeName}
	if p.check(LParen) {
		decl.Init = p.parseConstructorArgsAsInit(typeName, start)
	}
	decl.Span = start.Merge(p.previousSpan())
	return decl
}

// parseConstructorArgsAsInit handles the `var x : Integer(42)` form where the type name is
// immediately followed by a constructor-call argument list acting as the initializer.
func (p *Parser) parseConstructorArgsAsInit(typeName string, start Span) Expression {
	p.advance() // consume '('
	var args []Expression
	if !p.check(RParen) {
		args = append(args, p.parseExpr())
		for p.check(Comma) {
			p.advance()
			args = append(args, p.parseExpr())
		}
	}
	endSpan := p.current().Span
	p.expect(RParen, "to close the constructor call")
	return &ConstructorCall{exprBase: newExprBase(start.Merge(endSpan)), ClassName: typeName, Args: args}
}

func (p *Parser) previousSpan() Span {
	if p.pos == 0 {
		return p.current().Span
	}
	return p.tokens[p.pos-1].Span
}

func (p *Parser) parseParams() []*Parameter {
	p.expect(LParen, "before the parameter list")
	var params []*Parameter
	if !p.check(RParen) {
		params = append(params, p.parseParam())
		for p.check(Comma) {
			p.advance()
			params = append(params, p.parseParam())
		}
	}
	p.expect(RParen, "to close the parameter list")
	return params
}

func (p *Parser) parseParam() *Parameter {
	start := p.current().Span
	nameTok, _ := p.expect(Identifier, "as a parameter name")
	p.expect(Colon, "before the parameter type")
	typeName := p.parseTypeName()
	return &Parameter{Name: nameTok.Lexeme, TypeName: typeName, Span: start.Merge(p.previousSpan())}
}

func (p *Parser) parseMethodDecl() *MethodDecl {
	start := p.current().Span
	p.expect(MethodKW, "to start a method declaration")
	nameTok, _ := p.expect(Identifier, "as the method name")
	m := &MethodDecl{Name: nameTok.Lexeme}
	if p.check(LParen) {
		m.Params = p.parseParams()
	}
	if p.check(Colon) {
		p.advance()
		retTok, _ := p.expect(Identifier, "as the return type")
		m.ReturnName = retTok.Lexeme
	}
	switch {
	case p.check(Arrow):
		p.advance()
		value := p.parseExpr()
		m.Body = []Statement{&ReturnStatement{Value: value, Span_: value.span()}}
		m.HasBody = true
	case p.check(IsKW):
		p.advance()
		m.Body = p.parseBody()
		p.expect(EndKW, "to close the method body")
		m.HasBody = true
	default:
		// Forward declaration: no body.
	}
	m.Span = start.Merge(p.previousSpan())
	return m
}

func (p *Parser) parseCtorDecl() *ConstructorDecl {
	start := p.current().Span
	p.expect(ThisKW, "to start a constructor declaration")
	c := &ConstructorDecl{}
	if p.check(LParen) {
		c.Params = p.parseParams()
	}
	p.expect(IsKW, "before the constructor body")
	c.Body = p.parseBody()
	p.expect(EndKW, "to close the constructor body")
	c.Span = start.Merge(p.previousSpan())
	return c
}

func (p *Parser) parseBody() []Statement {
	var stmts []Statement
	for !p.check(EndKW) && !p.check(ElseKW) && !p.check(EOF) {
		stmts = append(stmts, p.parseStatement())
	}
	return stmts
}

func (p *Parser) parseStatement() Statement {
	switch {
	case p.check(VarKW):
		decl := p.parseVarDecl()
		return &VariableDeclStatement{Decl: decl}
	case p.check(IfKW):
		return p.parseIfStatement()
	case p.check(WhileKW):
		return p.parseWhileStatement()
	case p.check(ReturnKW):
		return p.parseReturnStatement()
	case p.check(Identifier):
		return p.parseAssignOrExprStatement()
	default:
		start := p.current().Span
		p.errorf("expected statement, found %s", p.current().Kind)
		p.synchronize(stmtStop...)
		return &UnknownStatement{Span_: start}
	}
}

func (p *Parser) parseIfStatement() Statement {
	start := p.current().Span
	p.advance()
	cond := p.parseExpr()
	p.expect(ThenKW, "before the if-branch body")
	thenBody := p.parseBody()
	var elseBody []Statement
	if p.check(ElseKW) {
		p.advance()
		elseBody = p.parseBody()
	}
	end := p.current().Span
	p.expect(EndKW, "to close the if statement")
	return &IfStatement{Condition: cond, Then: thenBody, Else: elseBody, Span_: start.Merge(end)}
}

func (p *Parser) parseWhileStatement() Statement {
	start := p.current().Span
	p.advance()
	cond := p.parseExpr()
	p.expect(LoopKW, "before the while body")
	body := p.parseBody()
	end := p.current().Span
	p.expect(EndKW, "to close the while statement")
	return &WhileLoop{Condition: cond, Body: body, Span_: start.Merge(end)}
}

func (p *Parser) parseReturnStatement() Statement {
	start := p.current().Span
	p.advance()
	if p.startsExpression() {
		value := p.parseExpr()
		return &ReturnStatement{Value: value, Span_: start.Merge(value.span())}
	}
	return &ReturnStatement{Span_: start}
}

func (p *Parser) startsExpression() bool {
	switch p.current().Kind {
	case IntegerLit, RealLit, TrueKW, FalseKW, ThisKW, Identifier:
		return true
	default:
		return false
	}
}

// parseAssignOrExprStatement disambiguates an Assignment from an ExpressionStatement using
// one token of lookahead past the leading identifier: `Id :=` is an assignment, anything else
// starting with `Id` is a (possibly method-call-chained) expression statement.
func (p *Parser) parseAssignOrExprStatement() Statement {
	start := p.current().Span
	if p.peekKind(1) == Assign {
		nameTok := p.advance()
		p.advance() // ':='
		value := p.parseExpr()
		return &Assignment{TargetName: nameTok.Lexeme, Value: value, Span_: start.Merge(value.span())}
	}
	value := p.parseExpr()
	return &ExpressionStatement{Value: value, Span_: start.Merge(value.span())}
}

func (p *Parser) peekKind(offset int) TokenKind {
	if p.pos+offset >= len(p.tokens) {
		return EOF
	}
	return p.tokens[p.pos+offset].Kind
}

// parseExpr parses a primary followed by a left-associative chain of `.Id` member accesses
// and `.Id(args)` method calls.
func (p *Parser) parseExpr() Expression {
	expr := p.parsePrimary()
	for p.check(Dot) {
		p.advance()
		nameTok, _ := p.expect(Identifier, "after '.'")
		if p.check(LParen) {
			args := p.parseArgs()
			end := p.previousSpan()
			expr = &MethodCall{exprBase: newExprBase(expr.span().Merge(end)), Target: expr, MethodName: nameTok.Lexeme, Args: args}
		} else {
			expr = &MemberAccess{exprBase: newExprBase(expr.span().Merge(nameTok.Span)), Target: expr, Member: nameTok.Lexeme}
		}
	}
	return expr
}

func (p *Parser) parseArgs() []Expression {
	p.expect(LParen, "before the argument list")
	var args []Expression
	if !p.check(RParen) {
		args = append(args, p.parseExpr())
		for p.check(Comma) {
			p.advance()
			args = append(args, p.parseExpr())
		}
	}
	p.expect(RParen, "to close the argument list")
	return args
}

func (p *Parser) parsePrimary() Expression {
	tok := p.current()
	switch tok.Kind {
	case IntegerLit:
		p.advance()
		return &IntegerLiteral{exprBase: newExprBase(tok.Span), Value: parseInt(tok.Lexeme)}
	case RealLit:
		p.advance()
		return &RealLiteral{exprBase: newExprBase(tok.Span), Value: parseFloat(tok.Lexeme)}
	case TrueKW:
		p.advance()
		return &BooleanLiteral{exprBase: newExprBase(tok.Span), Value: true}
	case FalseKW:
		p.advance()
		return &BooleanLiteral{exprBase: newExprBase(tok.Span), Value: false}
	case ThisKW:
		p.advance()
		return &ThisExpr{exprBase: newExprBase(tok.Span)}
	case Identifier:
		p.advance()
		if p.check(LParen) {
			args := p.parseArgs()
			return &ConstructorCall{exprBase: newExprBase(tok.Span.Merge(p.previousSpan())), ClassName: tok.Lexeme, Args: args}
		}
		return &IdentifierExpr{exprBase: newExprBase(tok.Span), Name: tok.Lexeme}
	default:
		p.errorf("expected expression, found %s", tok.Kind)
		return &UnknownExpression{exprBase: newExprBase(tok.Span)}
	}
}

func parseInt(lexeme string) int64 {
	neg := false
	i := 0
	if len(lexeme) > 0 && lexeme[0] == '-' {
		neg, i = true, 1
	}
	var v int64
	for ; i < len(lexeme); i++ {
		v = v*10 + int64(lexeme[i]-'0')
	}
	if neg {
		v = -v
	}
	return v
}

func parseFloat(lexeme string) float64 {
	neg := false
	i := 0
	if len(lexeme) > 0 && lexeme[0] == '-' {
		neg, i = true, 1
	}
	var intPart float64
	for ; i < len(lexeme) && lexeme[i] != '.'; i++ {
		intPart = intPart*10 + float64(lexeme[i]-'0')
	}
	frac := 0.0
	scale := 1.0
	if i < len(lexeme) && lexeme[i] == '.' {
		i++
		for ; i < len(lexeme); i++ {
			frac = frac*10 + float64(lexeme[i]-'0')
			scale *= 10
		}
	}
	v := intPart + frac/scale
	if neg {
		v = -v
	}
	return v
}
