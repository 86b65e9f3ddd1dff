package filter

import "strings"

// Parse parses a filter string into an AST. The empty (or blank)
// filter string is valid and yields a MatchAllExpr. On malformed input
// the returned error is a *SyntaxError carrying the byte offset of the
// first unparseable token.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return &MatchAllExpr{}, nil
	}

	tokenizer := NewTokenizer(input)
	tokens, err := tokenizer.TokenizeAll()
	if err != nil {
		return nil, err
	}

	parser := NewParser(tokens)
	return parser.Parse()
}

// Parser parses a token stream into an AST.
type Parser struct {
	tokens  []*Token
	current int
}

// NewParser creates a new parser over the given tokens. The token
// slice must end with an EOF token, as produced by TokenizeAll.
func NewParser(tokens []*Token) *Parser {
	return &Parser{
		tokens:  tokens,
		current: 0,
	}
}

// currentToken returns the current token
func (p *Parser) currentToken() *Token {
	if p.current >= len(p.tokens) {
		return &Token{Kind: TokenEOF}
	}
	return p.tokens[p.current]
}

// advance moves to the next token
func (p *Parser) advance() *Token {
	token := p.currentToken()
	if p.current < len(p.tokens)-1 {
		p.current++
	}
	return token
}

// expect checks that the current token matches the expected kind and advances
func (p *Parser) expect(kind TokenKind) (*Token, error) {
	token := p.currentToken()
	if token.Kind != kind {
		return nil, newSyntaxErrorf(token.Pos, "expected %s, got %s", kind, token.Kind)
	}
	p.advance()
	return token, nil
}

// Parse parses the tokens into an AST.
func (p *Parser) Parse() (Expr, error) {
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if token := p.currentToken(); token.Kind != TokenEOF {
		return nil, newSyntaxErrorf(token.Pos, "unexpected %s after expression", token.Kind)
	}

	return node, nil
}

// parseOr handles OR expressions (lowest precedence)
func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	for p.currentToken().Kind == TokenLogical && p.currentToken().Value == "OR" {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &OrExpr{Left: left, Right: right}
	}

	return left, nil
}

// parseAnd handles AND expressions
func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}

	for p.currentToken().Kind == TokenLogical && p.currentToken().Value == "AND" {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &AndExpr{Left: left, Right: right}
	}

	return left, nil
}

// parseNot handles NOT expressions
func (p *Parser) parseNot() (Expr, error) {
	if p.currentToken().Kind == TokenNot {
		p.advance()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &NotExpr{Operand: operand}, nil
	}

	return p.parseClause()
}

// parseClause handles a parenthesized group, a LENGTH comparison, or a
// single comparison/quantifier/presence predicate.
func (p *Parser) parseClause() (Expr, error) {
	token := p.currentToken()

	switch {
	case token.Kind == TokenLParen:
		p.advance()
		expr, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRParen); err != nil {
			return nil, err
		}
		return expr, nil

	case token.Kind == TokenKeyword && token.Value == "LENGTH":
		return p.parseLength()

	case token.Kind == TokenIdentifier:
		return p.parsePredicate()

	case token.Kind == TokenString || token.Kind == TokenNumber || token.Kind == TokenBoolean:
		return p.parseValueFirstComparison()
	}

	return nil, newSyntaxErrorf(token.Pos, "expected property or value, got %s", token.Kind)
}
