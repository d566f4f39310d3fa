package parser

import (
	"strconv"

	"github.com/glint-lang/glint/internal/diag"
	"github.com/glint-lang/glint/internal/lexer"
)

// precedence mirrors sentra's parser.go precedence table, translated to
// the ladder spec.md §4.C specifies (logical-or lowest, unary highest).
var binaryPrecedence = map[lexer.TokenType]int{
	lexer.TokenOr:    1,
	lexer.TokenAnd:   2,
	lexer.TokenEqEq:  3,
	lexer.TokenNotEq: 3,
	lexer.TokenLT:    4,
	lexer.TokenGT:    4,
	lexer.TokenLE:    4,
	lexer.TokenGE:    4,
	lexer.TokenPlus:  5,
	lexer.TokenMinus: 5,
	lexer.TokenStar:  6,
	lexer.TokenSlash: 6,
	lexer.TokenPercent: 6,
}

var tokenToBinaryOp = map[lexer.TokenType]BinaryOp{
	lexer.TokenOr:    OpOr,
	lexer.TokenAnd:   OpAnd,
	lexer.TokenEqEq:  OpEq,
	lexer.TokenNotEq: OpNotEq,
	lexer.TokenLT:    OpLT,
	lexer.TokenGT:    OpGT,
	lexer.TokenLE:    OpLE,
	lexer.TokenGE:    OpGE,
	lexer.TokenPlus:  OpAdd,
	lexer.TokenMinus: OpSub,
	lexer.TokenStar:  OpMul,
	lexer.TokenSlash: OpDiv,
	lexer.TokenPercent: OpMod,
}

// Parser is a streaming token cursor, in the shape of sentra's
// internal/parser.Parser, extended with save/restore for backtracking
// (spec.md §4.C) and a statement-id counter.
type Parser struct {
	tokens  []lexer.Token
	current int
	nextID  StmtID
	Errors  diag.List
}

// Parse implements spec.md §6's `parse_program(tokens)` entry point.
func Parse(tokens []lexer.Token) ([]Stmt, diag.List) {
	p := &Parser{tokens: tokens}
	stmts := p.Program()
	return stmts, p.Errors
}

func (p *Parser) Program() []Stmt {
	var out []Stmt
	for !p.isAtEnd() {
		if s := p.statement(); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// ---------------------------------------------------------------------
// Cursor primitives
// ---------------------------------------------------------------------

func (p *Parser) peek() lexer.Token  { return p.tokens[p.current] }
func (p *Parser) peekAt(n int) lexer.Token {
	i := p.current + n
	if i >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[i]
}

func (p *Parser) isAtEnd() bool { return p.peek().Type == lexer.TokenEOF }

func (p *Parser) next() lexer.Token {
	t := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return t
}

func (p *Parser) check(t lexer.TokenType) bool {
	return !p.isAtEnd() && p.peek().Type == t
}

func (p *Parser) match(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			p.next()
			return true
		}
	}
	return false
}

// expect consumes a token of the given kind or records a SyntaxError and
// performs the one-token-skip recovery of spec.md §4.C.
func (p *Parser) expect(t lexer.TokenType, what string) (lexer.Token, bool) {
	if p.check(t) {
		return p.next(), true
	}
	got := p.peek()
	p.Errors.Add(diag.SyntaxError(got.Span, "expected %s, found %s", what, got.Type))
	if !p.isAtEnd() {
		p.next()
	}
	return got, false
}

type savePoint int

func (p *Parser) save() savePoint   { return savePoint(p.current) }
func (p *Parser) restore(s savePoint) { p.current = int(s) }

func (p *Parser) freshID() StmtID {
	id := p.nextID
	p.nextID++
	return id
}

// skipNewlines consumes any run of blank NEWLINE tokens between statements.
// Comment tokens are left for statement() to turn into Comment nodes.
func (p *Parser) skipNewlines() {
	for p.check(lexer.TokenNewline) {
		p.next()
	}
}

// ---------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------

func (p *Parser) statement() Stmt {
	if p.check(lexer.TokenNewline) {
		p.next()
		return nil
	}
	if p.check(lexer.TokenComment) {
		tok := p.next()
		s := &Comment{stmtBase: stmtBase{id: p.freshID(), span: tok.Span}, Text: tok.Lexeme}
		p.skipNewlines()
		return s
	}

	switch {
	case p.check(lexer.TokenLet):
		return p.varDecl()
	case p.check(lexer.TokenIf):
		return p.ifStmt()
	case p.check(lexer.TokenWhile):
		return p.whileStmt()
	case p.check(lexer.TokenBreak):
		tok := p.next()
		s := &Break{stmtBase{id: p.freshID(), span: tok.Span}}
		p.endOfStatement()
		return s
	case p.check(lexer.TokenContinue):
		tok := p.next()
		s := &Continue{stmtBase{id: p.freshID(), span: tok.Span}}
		p.endOfStatement()
		return s
	case p.check(lexer.TokenType_):
		return p.typeDef()
	case p.check(lexer.TokenIdent) && p.peekAt(1).Type == lexer.TokenEqual:
		return p.assignStmt()
	default:
		tok := p.peek()
		p.Errors.Add(diag.SyntaxError(tok.Span, "unexpected token %s", tok.Type))
		p.next()
		return nil
	}
}

// endOfStatement requires a statement terminator (NEWLINE, DEDENT, or EOF)
// per spec.md §4.C's break/continue requirement, then consumes it if it
// was a NEWLINE.
func (p *Parser) endOfStatement() {
	if p.check(lexer.TokenNewline) {
		p.next()
		p.skipNewlines()
		return
	}
	if p.check(lexer.TokenDedent) || p.isAtEnd() {
		return
	}
	tok := p.peek()
	p.Errors.Add(diag.SyntaxError(tok.Span, "expected end of statement, found %s", tok.Type))
	p.next()
}

func (p *Parser) varDecl() Stmt {
	start := p.next() // consume 'let'
	nameTok, _ := p.expect(lexer.TokenIdent, "identifier")
	var init Expr
	if p.match(lexer.TokenEqual) {
		init = p.expression()
	}
	s := &VarDecl{stmtBase: stmtBase{id: p.freshID(), span: start.Span}, Name: nameTok.Lexeme, Init: init}
	p.endOfStatement()
	return s
}

func (p *Parser) assignStmt() Stmt {
	nameTok := p.next()
	start := nameTok.Span
	p.expect(lexer.TokenEqual, "'='")
	value := p.expression()
	s := &Assign{stmtBase: stmtBase{id: p.freshID(), span: start}, Name: nameTok.Lexeme, Value: value}
	p.endOfStatement()
	return s
}

// block parses `:` NEWLINE INDENT stmt* DEDENT.
func (p *Parser) block() []Stmt {
	p.expect(lexer.TokenColon, "':'")
	p.expect(lexer.TokenNewline, "newline")
	p.skipNewlines()
	if _, ok := p.expect(lexer.TokenIndent, "indented block"); !ok {
		return nil
	}
	var stmts []Stmt
	for !p.check(lexer.TokenDedent) && !p.isAtEnd() {
		if s := p.statement(); s != nil {
			stmts = append(stmts, s)
		}
	}
	p.expect(lexer.TokenDedent, "end of block")
	p.skipNewlines()
	return stmts
}

func (p *Parser) ifStmt() Stmt {
	start := p.next() // consume 'if'
	// The id is taken before the body is parsed, so every statement nested
	// inside gets a larger id than the statement that encloses it.
	id := p.freshID()
	cond := p.expression()
	condSpan := start.Span
	body := p.block()
	n := &If{
		stmtBase: stmtBase{id: id, span: start.Span},
		Primary:  Branch{Cond: cond, Body: body, Span: condSpan},
	}
	for p.check(lexer.TokenElif) {
		elifTok := p.next()
		c := p.expression()
		b := p.block()
		n.Elifs = append(n.Elifs, Branch{Cond: c, Body: b, Span: elifTok.Span})
	}
	if p.check(lexer.TokenElse) {
		elseTok := p.next()
		b := p.block()
		n.Else = &Branch{Cond: nil, Body: b, Span: elseTok.Span}
	}
	return n
}

func (p *Parser) whileStmt() Stmt {
	start := p.next() // consume 'while'
	// Taken before the body, as in ifStmt: the analyzer's fold guard relies
	// on loop-body statement ids being larger than the loop's own id.
	id := p.freshID()
	cond := p.expression()
	body := p.block()
	return &While{stmtBase: stmtBase{id: id, span: start.Span}, Cond: cond, Body: body}
}

func (p *Parser) typeDef() Stmt {
	start := p.next() // consume 'type'
	nameTok, _ := p.expect(lexer.TokenIdent, "identifier")
	p.expect(lexer.TokenEqual, "'='")
	te := p.typeExpr()
	s := &TypeDef{stmtBase: stmtBase{id: p.freshID(), span: start.Span}, Name: nameTok.Lexeme, Type: te}
	p.endOfStatement()
	return s
}

// ---------------------------------------------------------------------
// Expressions — precedence-climbing ladder (spec.md §4.C).
// ---------------------------------------------------------------------

func (p *Parser) expression() Expr { return p.binary(1) }

const maxPrecedence = 6

func (p *Parser) binary(minPrec int) Expr {
	if minPrec > maxPrecedence {
		return p.unary()
	}
	left := p.binary(minPrec + 1)
	for {
		tok := p.peek()
		prec, ok := binaryPrecedence[tok.Type]
		if !ok || prec != minPrec {
			break
		}
		p.next()
		right := p.binary(minPrec + 1)
		left = &Binary{exprBase: exprBase{span: left.Span()}, Op: tokenToBinaryOp[tok.Type], Left: left, Right: right}
	}
	return left
}

func (p *Parser) unary() Expr {
	if p.check(lexer.TokenMinus) {
		tok := p.next()
		return &Unary{exprBase: exprBase{span: tok.Span}, Op: OpNeg, Operand: p.unary()}
	}
	if p.check(lexer.TokenNot) {
		tok := p.next()
		return &Unary{exprBase: exprBase{span: tok.Span}, Op: OpNot, Operand: p.unary()}
	}
	return p.primary()
}

func (p *Parser) primary() Expr {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenInt:
		p.next()
		return &Literal{exprBase: exprBase{span: tok.Span}, Kind: LitInt, Text: tok.Lexeme}
	case lexer.TokenFloat:
		p.next()
		return &Literal{exprBase: exprBase{span: tok.Span}, Kind: LitFloat, Text: tok.Lexeme}
	case lexer.TokenString:
		p.next()
		return &Literal{exprBase: exprBase{span: tok.Span}, Kind: LitString, Text: tok.Lexeme}
	case lexer.TokenTrue, lexer.TokenFalse:
		p.next()
		return &Literal{exprBase: exprBase{span: tok.Span}, Kind: LitBool, Text: tok.Lexeme}
	case lexer.TokenIdent:
		p.next()
		return &Identifier{exprBase: exprBase{span: tok.Span}, Name: tok.Lexeme}
	case lexer.TokenLParen:
		p.next()
		inner := p.expression()
		p.expect(lexer.TokenRParen, "')'")
		return inner
	default:
		p.Errors.Add(diag.InvalidOperand(tok.Span, tok.Lexeme))
		if !p.isAtEnd() {
			p.next()
		}
		return &Invalid{exprBase: exprBase{span: tok.Span}, Text: tok.Lexeme}
	}
}

// ---------------------------------------------------------------------
// Type expressions (spec.md §4.C).
// ---------------------------------------------------------------------

var primitiveTypeTokens = map[lexer.TokenType]string{
	lexer.TokenKwInt:    "Int",
	lexer.TokenKwUInt:   "UInt",
	lexer.TokenKwBool:   "Bool",
	lexer.TokenKwFloat:  "Float",
	lexer.TokenKwString: "String",
	lexer.TokenKwByte:   "Byte",
}

func (p *Parser) typeExpr() TypeExpr {
	tok := p.peek()
	if name, ok := primitiveTypeTokens[tok.Type]; ok {
		p.next()
		return TypeExpr{Kind: TypePrimitive, Name: name, Span: tok.Span}
	}
	switch tok.Type {
	case lexer.TokenKwList:
		return p.genericType(TypeList)
	case lexer.TokenKwArray:
		return p.genericType(TypeArray)
	case lexer.TokenLParen:
		return p.tupleType()
	case lexer.TokenLBrace:
		return p.objectType()
	case lexer.TokenEnum:
		return p.enumType()
	case lexer.TokenIdent:
		p.next()
		return TypeExpr{Kind: TypeCustom, Name: tok.Lexeme, Span: tok.Span}
	default:
		p.Errors.Add(diag.SyntaxError(tok.Span, "expected type expression, found %s", tok.Type))
		if !p.isAtEnd() {
			p.next()
		}
		return TypeExpr{Kind: TypeCustom, Name: "<invalid>", Span: tok.Span}
	}
}

func (p *Parser) genericType(kind TypeExprKind) TypeExpr {
	start := p.next()
	p.expect(lexer.TokenLBracket, "'['")
	elem := p.typeExpr()
	p.expect(lexer.TokenRBracket, "']'")
	return TypeExpr{Kind: kind, Elem: &elem, Span: start.Span}
}

func (p *Parser) tupleType() TypeExpr {
	start := p.next() // '('
	var elems []TypeExpr
	for !p.check(lexer.TokenRParen) && !p.isAtEnd() {
		elems = append(elems, p.typeExpr())
		if !p.match(lexer.TokenComma) {
			break
		}
	}
	p.expect(lexer.TokenRParen, "')'")
	return TypeExpr{Kind: TypeTuple, Elems: elems, Span: start.Span}
}

func (p *Parser) objectType() TypeExpr {
	start := p.next() // '{'
	p.skipNewlines()
	var fields []ObjectField
	seen := map[string]bool{}
	for !p.check(lexer.TokenRBrace) && !p.isAtEnd() {
		nameTok, _ := p.expect(lexer.TokenIdent, "field name")
		p.expect(lexer.TokenColon, "':'")
		ft := p.typeExpr()
		if seen[nameTok.Lexeme] {
			p.Errors.Add(diag.SyntaxError(nameTok.Span, "duplicate field %q", nameTok.Lexeme))
		}
		seen[nameTok.Lexeme] = true
		fields = append(fields, ObjectField{Name: nameTok.Lexeme, Type: ft})
		if !p.match(lexer.TokenComma) {
			p.skipNewlines()
			break
		}
		p.skipNewlines()
	}
	p.expect(lexer.TokenRBrace, "'}'")
	return TypeExpr{Kind: TypeObject, Fields: fields, Span: start.Span}
}

func (p *Parser) enumType() TypeExpr {
	start := p.next() // 'enum'
	var variants []EnumVariant
	for {
		nameTok, _ := p.expect(lexer.TokenIdent, "variant name")
		v := EnumVariant{Name: nameTok.Lexeme, Kind: VariantUnit}
		if p.check(lexer.TokenLParen) {
			v.Kind = VariantTuple
			p.next()
			for !p.check(lexer.TokenRParen) && !p.isAtEnd() {
				v.Tuple = append(v.Tuple, p.typeExpr())
				if !p.match(lexer.TokenComma) {
					break
				}
			}
			p.expect(lexer.TokenRParen, "')'")
		} else if p.check(lexer.TokenLBrace) {
			obj := p.objectType()
			v.Kind = VariantStruct
			v.Struct = obj.Fields
		}
		variants = append(variants, v)
		if !p.match(lexer.TokenPipe) {
			break
		}
	}
	return TypeExpr{Kind: TypeEnum, Variants: variants, Span: start.Span}
}

// ParseIntLiteral, ParseUintLiteral and ParseFloatLiteral are shared helpers the analyzer
// uses when folding numeric literal text into a concrete value.
func ParseIntLiteral(text string) (int64, error) { return strconv.ParseInt(text, 10, 64) }
func ParseUintLiteral(text string) (uint64, error) { return strconv.ParseUint(text, 10, 64) }
func ParseFloatLiteral(text string) (float64, error) { return strconv.ParseFloat(text, 64) }
