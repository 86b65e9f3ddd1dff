package filter

// TokenKind represents the kind of a lexical token.
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenIdentifier
	TokenString
	TokenNumber
	TokenBoolean
	TokenOperator
	TokenLogical
	TokenNot
	TokenKeyword
	TokenLParen
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenComma
)

// String returns a human-readable name for the token kind, used in
// syntax error messages.
func (k TokenKind) String() string {
	switch k {
	case TokenEOF:
		return "end of input"
	case TokenIdentifier:
		return "identifier"
	case TokenString:
		return "string"
	case TokenNumber:
		return "number"
	case TokenBoolean:
		return "boolean"
	case TokenOperator:
		return "comparison operator"
	case TokenLogical:
		return "logical operator"
	case TokenNot:
		return "NOT"
	case TokenKeyword:
		return "keyword"
	case TokenLParen:
		return "'('"
	case TokenRParen:
		return "')'"
	case TokenLBracket:
		return "'['"
	case TokenRBracket:
		return "']'"
	case TokenComma:
		return "','"
	}
	return "unknown token"
}

// Token represents a single token in a filter expression. Pos is the
// byte offset of the token's first character in the input string.
type Token struct {
	Kind  TokenKind
	Value string
	Pos   int
}
