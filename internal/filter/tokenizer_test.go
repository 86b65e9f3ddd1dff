package filter

import (
	"errors"
	"testing"
)

func TestTokenizer(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []TokenKind
	}{
		{
			name:  "Simple comparison",
			input: "nelements > 2",
			expected: []TokenKind{
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "With parentheses",
			input: "(nelements > 2)",
			expected: []TokenKind{
				TokenLParen,
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenRParen,
				TokenEOF,
			},
		},
		{
			name:  "Logical AND",
			input: `nelements >= 2 AND chemical_formula_reduced = "SiO2"`,
			expected: []TokenKind{
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenLogical,
				TokenIdentifier,
				TokenOperator,
				TokenString,
				TokenEOF,
			},
		},
		{
			name:  "NOT operator",
			input: "NOT (nelements > 2)",
			expected: []TokenKind{
				TokenNot,
				TokenLParen,
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenRParen,
				TokenEOF,
			},
		},
		{
			name:  "HAS quantifier with value list",
			input: `elements HAS ANY "Si","O"`,
			expected: []TokenKind{
				TokenIdentifier,
				TokenKeyword,
				TokenKeyword,
				TokenString,
				TokenComma,
				TokenString,
				TokenEOF,
			},
		},
		{
			name:  "LENGTH comparison",
			input: "LENGTH(elements) = 3",
			expected: []TokenKind{
				TokenKeyword,
				TokenLParen,
				TokenIdentifier,
				TokenRParen,
				TokenOperator,
				TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "IS UNKNOWN",
			input: "band_gap IS UNKNOWN",
			expected: []TokenKind{
				TokenIdentifier,
				TokenKeyword,
				TokenKeyword,
				TokenEOF,
			},
		},
		{
			name:  "Boolean literal",
			input: "is_stable = TRUE",
			expected: []TokenKind{
				TokenIdentifier,
				TokenOperator,
				TokenBoolean,
				TokenEOF,
			},
		},
		{
			name:  "Negative number",
			input: "formation_energy < -0.5",
			expected: []TokenKind{
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "Exponent number",
			input: "band_gap >= 1.5e-2",
			expected: []TokenKind{
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "Dotted property path",
			input: `_exmpl_cell.volume > 100`,
			expected: []TokenKind{
				TokenIdentifier,
				TokenOperator,
				TokenNumber,
				TokenEOF,
			},
		},
		{
			name:  "Bracketed list",
			input: `elements HAS ALL ["Al","O"]`,
			expected: []TokenKind{
				TokenIdentifier,
				TokenKeyword,
				TokenKeyword,
				TokenLBracket,
				TokenString,
				TokenComma,
				TokenString,
				TokenRBracket,
				TokenEOF,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenizer := NewTokenizer(tt.input)
			tokens, err := tokenizer.TokenizeAll()
			if err != nil {
				t.Fatalf("Tokenization failed: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d", len(tt.expected), len(tokens))
			}

			for i, token := range tokens {
				if token.Kind != tt.expected[i] {
					t.Errorf("Token %d: expected %v, got %v (%q)", i, tt.expected[i], token.Kind, token.Value)
				}
			}
		})
	}
}

func TestTokenizerStringEscapes(t *testing.T) {
	tokenizer := NewTokenizer(`chemical_formula_anonymous = "A\"B\\C"`)
	tokens, err := tokenizer.TokenizeAll()
	if err != nil {
		t.Fatalf("Tokenization failed: %v", err)
	}

	if tokens[2].Kind != TokenString {
		t.Fatalf("Expected string token, got %v", tokens[2].Kind)
	}
	if tokens[2].Value != `A"B\C` {
		t.Errorf("Expected unescaped value %q, got %q", `A"B\C`, tokens[2].Value)
	}
}

func TestTokenizerUTF8Strings(t *testing.T) {
	// "α-Fe₂O₃" spans multi-byte runes; the literal must survive intact
	// and token positions stay byte offsets.
	input := `chemical_formula_descriptive CONTAINS "α-Fe₂O₃" AND nelements = 2`
	tokenizer := NewTokenizer(input)
	tokens, err := tokenizer.TokenizeAll()
	if err != nil {
		t.Fatalf("Tokenization failed: %v", err)
	}

	if tokens[2].Kind != TokenString {
		t.Fatalf("Expected string token, got %v", tokens[2].Kind)
	}
	if tokens[2].Value != "α-Fe₂O₃" {
		t.Errorf("Expected value %q, got %q", "α-Fe₂O₃", tokens[2].Value)
	}

	// The AND keyword starts after the closing quote and a space.
	// "α-Fe₂O₃" is 12 bytes, plus two quotes.
	wantANDPos := len(`chemical_formula_descriptive CONTAINS `) + 12 + 2 + 1
	if tokens[3].Kind != TokenLogical || tokens[3].Pos != wantANDPos {
		t.Errorf("Expected AND at byte offset %d, got %v at %d", wantANDPos, tokens[3].Kind, tokens[3].Pos)
	}
}

func TestTokenizerErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pos   int
	}{
		{name: "Unterminated string", input: `elements HAS "Si`, pos: 13},
		{name: "Unknown keyword", input: "elements HAZ \"Si\"", pos: 9},
		{name: "Unexpected character", input: "nelements # 2", pos: 10},
		{name: "Bare exclamation mark", input: "nelements ! 2", pos: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokenizer := NewTokenizer(tt.input)
			_, err := tokenizer.TokenizeAll()
			if err == nil {
				t.Fatal("Expected tokenization error")
			}

			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("Expected *SyntaxError, got %T", err)
			}
			if syntaxErr.Pos != tt.pos {
				t.Errorf("Expected error at position %d, got %d (%s)", tt.pos, syntaxErr.Pos, syntaxErr.Message)
			}
		})
	}
}

func TestTokenPositions(t *testing.T) {
	input := `nelements >= 2`
	tokenizer := NewTokenizer(input)
	tokens, err := tokenizer.TokenizeAll()
	if err != nil {
		t.Fatalf("Tokenization failed: %v", err)
	}

	wantPos := []int{0, 10, 13, 14}
	for i, token := range tokens {
		if token.Pos != wantPos[i] {
			t.Errorf("Token %d: expected position %d, got %d", i, wantPos[i], token.Pos)
		}
	}
}
