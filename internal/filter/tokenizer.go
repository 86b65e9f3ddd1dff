package filter

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Tokenizer tokenizes filter expressions. Input is UTF-8 text; pos is
// the byte offset of the current rune.
type Tokenizer struct {
	input string
	pos   int
	ch    rune
	width int
}

// NewTokenizer creates a new tokenizer over the given filter string.
func NewTokenizer(input string) *Tokenizer {
	t := &Tokenizer{input: input}
	if len(input) > 0 {
		t.ch, t.width = utf8.DecodeRuneInString(input)
	}
	return t
}

// advance moves to the next rune
func (t *Tokenizer) advance() {
	t.pos += t.width
	if t.pos >= len(t.input) {
		t.ch = 0 // EOF
		t.width = 0
	} else {
		t.ch, t.width = utf8.DecodeRuneInString(t.input[t.pos:])
	}
}

// peek looks ahead one rune without advancing
func (t *Tokenizer) peek() rune {
	next := t.pos + t.width
	if next >= len(t.input) {
		return 0
	}
	ch, _ := utf8.DecodeRuneInString(t.input[next:])
	return ch
}

// skipWhitespace skips whitespace characters
func (t *Tokenizer) skipWhitespace() {
	for t.ch == ' ' || t.ch == '\t' || t.ch == '\n' || t.ch == '\r' {
		t.advance()
	}
}

// readString reads a double-quoted string. Backslash escapes the quote
// and the backslash itself.
func (t *Tokenizer) readString() (string, error) {
	start := t.pos
	t.advance() // skip opening quote

	var result strings.Builder
	for t.ch != 0 && t.ch != '"' {
		if t.ch == '\\' {
			next := t.peek()
			if next == '"' || next == '\\' {
				t.advance()
			}
		}
		result.WriteRune(t.ch)
		t.advance()
	}

	if t.ch != '"' {
		return "", newSyntaxError(start, "unterminated string literal")
	}
	t.advance() // skip closing quote

	return result.String(), nil
}

// readNumber reads an integer or float literal, including optional
// sign, decimal part and exponent.
func (t *Tokenizer) readNumber() string {
	var result strings.Builder

	if t.ch == '-' || t.ch == '+' {
		result.WriteRune(t.ch)
		t.advance()
	}

	for unicode.IsDigit(t.ch) {
		result.WriteRune(t.ch)
		t.advance()
	}

	if t.ch == '.' && unicode.IsDigit(t.peek()) {
		result.WriteRune(t.ch)
		t.advance()
		for unicode.IsDigit(t.ch) {
			result.WriteRune(t.ch)
			t.advance()
		}
	}

	if t.ch == 'e' || t.ch == 'E' {
		result.WriteRune(t.ch)
		t.advance()
		if t.ch == '+' || t.ch == '-' {
			result.WriteRune(t.ch)
			t.advance()
		}
		for unicode.IsDigit(t.ch) {
			result.WriteRune(t.ch)
			t.advance()
		}
	}

	return result.String()
}

// readWord reads an identifier or keyword. Identifiers may contain
// dots for nested property access.
func (t *Tokenizer) readWord() string {
	var result strings.Builder

	for t.ch != 0 && (unicode.IsLetter(t.ch) || unicode.IsDigit(t.ch) || t.ch == '_' || t.ch == '.') {
		result.WriteRune(t.ch)
		t.advance()
	}

	return result.String()
}

// NextToken returns the next token from the input.
func (t *Tokenizer) NextToken() (*Token, error) {
	t.skipWhitespace()

	if t.ch == 0 {
		return &Token{Kind: TokenEOF, Pos: t.pos}, nil
	}

	pos := t.pos

	if t.ch == '"' {
		value, err := t.readString()
		if err != nil {
			return nil, err
		}
		return &Token{Kind: TokenString, Value: value, Pos: pos}, nil
	}

	if unicode.IsDigit(t.ch) || ((t.ch == '-' || t.ch == '+') && unicode.IsDigit(t.peek())) {
		return &Token{Kind: TokenNumber, Value: t.readNumber(), Pos: pos}, nil
	}

	if token := t.tokenizeSpecialChar(pos); token != nil {
		return token, nil
	}

	if unicode.IsLetter(t.ch) || t.ch == '_' {
		return t.tokenizeWord(pos)
	}

	return nil, newSyntaxErrorf(pos, "unexpected character %q", t.ch)
}

// tokenizeSpecialChar tokenizes punctuation and comparison operators.
func (t *Tokenizer) tokenizeSpecialChar(pos int) *Token {
	switch t.ch {
	case '(':
		t.advance()
		return &Token{Kind: TokenLParen, Value: "(", Pos: pos}
	case ')':
		t.advance()
		return &Token{Kind: TokenRParen, Value: ")", Pos: pos}
	case '[':
		t.advance()
		return &Token{Kind: TokenLBracket, Value: "[", Pos: pos}
	case ']':
		t.advance()
		return &Token{Kind: TokenRBracket, Value: "]", Pos: pos}
	case ',':
		t.advance()
		return &Token{Kind: TokenComma, Value: ",", Pos: pos}
	case '=':
		t.advance()
		return &Token{Kind: TokenOperator, Value: "=", Pos: pos}
	case '!':
		if t.peek() == '=' {
			t.advance()
			t.advance()
			return &Token{Kind: TokenOperator, Value: "!=", Pos: pos}
		}
	case '<':
		t.advance()
		if t.ch == '=' {
			t.advance()
			return &Token{Kind: TokenOperator, Value: "<=", Pos: pos}
		}
		return &Token{Kind: TokenOperator, Value: "<", Pos: pos}
	case '>':
		t.advance()
		if t.ch == '=' {
			t.advance()
			return &Token{Kind: TokenOperator, Value: ">=", Pos: pos}
		}
		return &Token{Kind: TokenOperator, Value: ">", Pos: pos}
	}
	return nil
}

// tokenizeWord tokenizes identifiers and keywords. Keywords are
// all-uppercase reserved words; property identifiers start with a
// lowercase letter or underscore.
func (t *Tokenizer) tokenizeWord(pos int) (*Token, error) {
	value := t.readWord()

	if isUpperWord(value) {
		if token := classifyKeyword(value, pos); token != nil {
			return token, nil
		}
		return nil, newSyntaxErrorf(pos, "unknown keyword %q", value)
	}

	if !validIdentifier(value) {
		return nil, newSyntaxErrorf(pos, "invalid property name %q", value)
	}

	return &Token{Kind: TokenIdentifier, Value: value, Pos: pos}, nil
}

// classifyKeyword classifies a reserved word and returns the appropriate token
func classifyKeyword(word string, pos int) *Token {
	switch word {
	case "AND":
		return &Token{Kind: TokenLogical, Value: "AND", Pos: pos}
	case "OR":
		return &Token{Kind: TokenLogical, Value: "OR", Pos: pos}
	case "NOT":
		return &Token{Kind: TokenNot, Value: "NOT", Pos: pos}
	case "TRUE", "FALSE":
		return &Token{Kind: TokenBoolean, Value: word, Pos: pos}
	case "HAS", "ALL", "ANY", "ONLY", "IS", "KNOWN", "UNKNOWN",
		"CONTAINS", "STARTS", "ENDS", "WITH", "LENGTH":
		return &Token{Kind: TokenKeyword, Value: word, Pos: pos}
	}
	return nil
}

// isUpperWord reports whether the word consists entirely of uppercase
// letters, making it a keyword candidate.
func isUpperWord(word string) bool {
	for _, ch := range word {
		if !unicode.IsUpper(ch) {
			return false
		}
	}
	return len(word) > 0
}

// validIdentifier reports whether value is a well-formed property
// identifier: dot-separated segments, each starting with a lowercase
// letter or underscore.
func validIdentifier(value string) bool {
	segments := strings.Split(value, ".")
	for _, seg := range segments {
		if seg == "" {
			return false
		}
		first, _ := utf8.DecodeRuneInString(seg)
		if !unicode.IsLower(first) && first != '_' {
			return false
		}
	}
	return true
}

// TokenizeAll returns all tokens from the input, ending with an EOF token.
func (t *Tokenizer) TokenizeAll() ([]*Token, error) {
	var tokens []*Token

	for {
		token, err := t.NextToken()
		if err != nil {
			return nil, err
		}

		tokens = append(tokens, token)

		if token.Kind == TokenEOF {
			break
		}
	}

	return tokens, nil
}
