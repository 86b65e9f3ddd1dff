package filter

import (
	"strings"

	"github.com/shopspring/decimal"
)

// comparisonOperator maps an operator token spelling to its Operator.
func comparisonOperator(value string) Operator {
	switch value {
	case "=":
		return OpEq
	case "!=":
		return OpNe
	case "<":
		return OpLt
	case "<=":
		return OpLe
	case ">":
		return OpGt
	case ">=":
		return OpGe
	}
	return OpEq
}

// parsePredicate parses a clause starting with a property path: an
// ordering comparison, a substring comparison, a HAS quantifier, or an
// IS KNOWN / IS UNKNOWN presence test.
func (p *Parser) parsePredicate() (Expr, error) {
	property, err := p.parseProperty()
	if err != nil {
		return nil, err
	}

	token := p.currentToken()
	switch {
	case token.Kind == TokenOperator:
		p.advance()
		value, err := p.parseScalar()
		if err != nil {
			return nil, err
		}
		expr := &ComparisonExpr{Property: property, Op: comparisonOperator(token.Value), Value: value}
		return expr, p.rejectChaining()

	case token.Kind == TokenKeyword && token.Value == "CONTAINS":
		p.advance()
		return p.parseSubstring(property, OpContains)

	case token.Kind == TokenKeyword && token.Value == "STARTS":
		p.advance()
		p.skipWith()
		return p.parseSubstring(property, OpStartsWith)

	case token.Kind == TokenKeyword && token.Value == "ENDS":
		p.advance()
		p.skipWith()
		return p.parseSubstring(property, OpEndsWith)

	case token.Kind == TokenKeyword && token.Value == "HAS":
		p.advance()
		return p.parseQuantifier(property)

	case token.Kind == TokenKeyword && token.Value == "IS":
		p.advance()
		return p.parsePresence(property)
	}

	return nil, newSyntaxErrorf(token.Pos, "expected comparison operator, got %s", token.Kind)
}

// parseValueFirstComparison normalizes a value-first ordering
// comparison like 5 < nelements into property-first form with the
// operator mirrored.
func (p *Parser) parseValueFirstComparison() (Expr, error) {
	value, err := p.parseScalar()
	if err != nil {
		return nil, err
	}

	op, err := p.expect(TokenOperator)
	if err != nil {
		return nil, err
	}

	property, err := p.parseProperty()
	if err != nil {
		return nil, err
	}

	expr := &ComparisonExpr{
		Property: property,
		Op:       comparisonOperator(op.Value).mirror(),
		Value:    value,
	}
	return expr, p.rejectChaining()
}

// parseLength parses LENGTH(property) <op> value.
func (p *Parser) parseLength() (Expr, error) {
	p.advance() // consume LENGTH

	if _, err := p.expect(TokenLParen); err != nil {
		return nil, err
	}
	property, err := p.parseProperty()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen); err != nil {
		return nil, err
	}

	op, err := p.expect(TokenOperator)
	if err != nil {
		return nil, err
	}

	token := p.currentToken()
	value, err := p.parseScalar()
	if err != nil {
		return nil, err
	}
	if value.Kind != ValueNumber {
		return nil, newSyntaxErrorf(token.Pos, "LENGTH comparison requires a numeric value, got %s", value.Kind)
	}

	expr := &LengthExpr{Property: property, Op: comparisonOperator(op.Value), Value: value}
	return expr, p.rejectChaining()
}

// parseSubstring parses the string operand of CONTAINS / STARTS WITH /
// ENDS WITH.
func (p *Parser) parseSubstring(property *Property, op Operator) (Expr, error) {
	token := p.currentToken()
	value, err := p.parseScalar()
	if err != nil {
		return nil, err
	}
	if value.Kind != ValueString {
		return nil, newSyntaxErrorf(token.Pos, "%s requires a string value, got %s", op, value.Kind)
	}

	expr := &ComparisonExpr{Property: property, Op: op, Value: value}
	return expr, p.rejectChaining()
}

// parseQuantifier parses the tail of a HAS clause: an optional
// ANY/ALL/ONLY qualifier followed by one value (plain HAS) or a value
// list.
func (p *Parser) parseQuantifier(property *Property) (Expr, error) {
	op := OpHas

	token := p.currentToken()
	if token.Kind == TokenKeyword {
		switch token.Value {
		case "ANY":
			op = OpHasAny
			p.advance()
		case "ALL":
			op = OpHasAll
			p.advance()
		case "ONLY":
			op = OpHasOnly
			p.advance()
		}
	}

	if op == OpHas {
		value, err := p.parseScalar()
		if err != nil {
			return nil, err
		}
		expr := &ComparisonExpr{Property: property, Op: op, Value: value}
		return expr, p.rejectChaining()
	}

	pos := p.currentToken().Pos
	values, err := p.parseValueList()
	if err != nil {
		return nil, err
	}
	list := ListValue(values...)
	list.Pos = pos

	expr := &ComparisonExpr{Property: property, Op: op, Value: list}
	return expr, p.rejectChaining()
}

// parsePresence parses KNOWN or UNKNOWN after IS.
func (p *Parser) parsePresence(property *Property) (Expr, error) {
	token := p.currentToken()
	if token.Kind == TokenKeyword {
		switch token.Value {
		case "KNOWN":
			p.advance()
			return &KnownExpr{Property: property}, nil
		case "UNKNOWN":
			p.advance()
			return &UnknownExpr{Property: property}, nil
		}
	}
	return nil, newSyntaxErrorf(token.Pos, "expected KNOWN or UNKNOWN after IS, got %s", token.Kind)
}

// parseProperty parses a property path token into a Property node.
func (p *Parser) parseProperty() (*Property, error) {
	token, err := p.expect(TokenIdentifier)
	if err != nil {
		return nil, err
	}
	return &Property{Path: strings.Split(token.Value, "."), Pos: token.Pos}, nil
}

// parseScalar parses a single string, number, or boolean literal.
func (p *Parser) parseScalar() (Value, error) {
	token := p.currentToken()

	switch token.Kind {
	case TokenString:
		p.advance()
		v := StringValue(token.Value)
		v.Pos = token.Pos
		return v, nil
	case TokenNumber:
		p.advance()
		num, err := decimal.NewFromString(token.Value)
		if err != nil {
			return Value{}, newSyntaxErrorf(token.Pos, "invalid numeric literal %q", token.Value)
		}
		v := NumberValue(num)
		v.Pos = token.Pos
		return v, nil
	case TokenBoolean:
		p.advance()
		v := BoolValue(token.Value == "TRUE")
		v.Pos = token.Pos
		return v, nil
	}

	return Value{}, newSyntaxErrorf(token.Pos, "expected value, got %s", token.Kind)
}

// parseValueList parses a comma-separated value list, optionally
// bracket-delimited.
func (p *Parser) parseValueList() ([]Value, error) {
	if p.currentToken().Kind == TokenLBracket {
		p.advance()
		values, err := p.parseBareValueList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokenRBracket); err != nil {
			return nil, err
		}
		return values, nil
	}

	return p.parseBareValueList()
}

// parseBareValueList parses one or more comma-separated scalar values.
func (p *Parser) parseBareValueList() ([]Value, error) {
	var values []Value
	for {
		value, err := p.parseScalar()
		if err != nil {
			return nil, err
		}
		values = append(values, value)

		if p.currentToken().Kind != TokenComma {
			break
		}
		p.advance()
	}
	return values, nil
}

// skipWith consumes an optional WITH keyword after STARTS or ENDS.
func (p *Parser) skipWith() {
	token := p.currentToken()
	if token.Kind == TokenKeyword && token.Value == "WITH" {
		p.advance()
	}
}

// rejectChaining reports a syntax error when another comparison
// operator immediately follows a completed comparison, so that
// a < b < c fails instead of silently chaining.
func (p *Parser) rejectChaining() error {
	token := p.currentToken()
	if token.Kind == TokenOperator {
		return newSyntaxError(token.Pos, "comparisons are not chainable")
	}
	return nil
}
