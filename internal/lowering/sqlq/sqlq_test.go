package sqlq

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/lowering"
	"github.com/nholik/go-optimade/internal/registry"
)

func testSnapshot() *registry.Snapshot {
	return registry.NewSnapshot(map[string]registry.Property{
		"nelements": {
			Type:   registry.TypeNumber,
			Fields: map[string]string{BackendName: "n_elements"},
		},
		"chemical_formula_reduced": {Type: registry.TypeString},
		"band_gap":                 {Type: registry.TypeNumber},
		"is_stable":                {Type: registry.TypeBoolean},
		"elements":                 {Type: registry.TypeString, IsList: true},
	})
}

func lower(t *testing.T, input string) (*Query, error) {
	t.Helper()

	expr, err := filter.Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", input, err)
	}
	ann, err := lowering.Resolve(expr, testSnapshot(), BackendName)
	if err != nil {
		t.Fatalf("Resolve(%q) failed: %v", input, err)
	}
	native, err := New().Lower(ann)
	if err != nil {
		return nil, err
	}
	return native.(*Query), nil
}

func compile(t *testing.T, input string) *Query {
	t.Helper()

	q, err := lower(t, input)
	if err != nil {
		t.Fatalf("Lower(%q) failed: %v", input, err)
	}
	return q
}

func TestLowerComparisons(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		clause string
		args   []interface{}
	}{
		{
			name:   "Equality with column alias",
			input:  "nelements = 2",
			clause: `"n_elements" = ?`,
			args:   []interface{}{int64(2)},
		},
		{
			name:   "Inequality",
			input:  "nelements != 2",
			clause: `"n_elements" <> ?`,
			args:   []interface{}{int64(2)},
		},
		{
			name:   "Range",
			input:  "band_gap >= 1.5",
			clause: `"band_gap" >= ?`,
			args:   []interface{}{1.5},
		},
		{
			name:   "Boolean",
			input:  "is_stable = TRUE",
			clause: `"is_stable" = ?`,
			args:   []interface{}{true},
		},
		{
			name:   "Contains",
			input:  `chemical_formula_reduced CONTAINS "O2"`,
			clause: `"chemical_formula_reduced" LIKE ? ESCAPE '\'`,
			args:   []interface{}{"%O2%"},
		},
		{
			name:   "Starts with",
			input:  `chemical_formula_reduced STARTS WITH "Si"`,
			clause: `"chemical_formula_reduced" LIKE ? ESCAPE '\'`,
			args:   []interface{}{"Si%"},
		},
		{
			name:   "Ends with",
			input:  `chemical_formula_reduced ENDS WITH "O2"`,
			clause: `"chemical_formula_reduced" LIKE ? ESCAPE '\'`,
			args:   []interface{}{"%O2"},
		},
		{
			name:   "LIKE metacharacters escaped",
			input:  `chemical_formula_reduced CONTAINS "100%_pure"`,
			clause: `"chemical_formula_reduced" LIKE ? ESCAPE '\'`,
			args:   []interface{}{`%100\%\_pure%`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := compile(t, tt.input)
			if q.Clause() != tt.clause {
				t.Errorf("Expected clause %q, got %q", tt.clause, q.Clause())
			}
			if !reflect.DeepEqual(q.Args(), tt.args) {
				t.Errorf("Expected args %v, got %v", tt.args, q.Args())
			}
		})
	}
}

func TestLowerLogical(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		clause string
		args   []interface{}
	}{
		{
			name:   "Conjunction",
			input:  "nelements = 2 AND band_gap > 1",
			clause: `("n_elements" = ?) AND ("band_gap" > ?)`,
			args:   []interface{}{int64(2), int64(1)},
		},
		{
			name:   "Disjunction",
			input:  "nelements = 2 OR nelements = 3",
			clause: `("n_elements" = ?) OR ("n_elements" = ?)`,
			args:   []interface{}{int64(2), int64(3)},
		},
		{
			name:   "Negation",
			input:  "NOT nelements = 2",
			clause: `NOT ("n_elements" = ?)`,
			args:   []interface{}{int64(2)},
		},
		{
			name:   "Nested grouping",
			input:  "(nelements = 2 OR nelements = 3) AND band_gap > 1",
			clause: `(("n_elements" = ?) OR ("n_elements" = ?)) AND ("band_gap" > ?)`,
			args:   []interface{}{int64(2), int64(3), int64(1)},
		},
		{
			name:   "Empty filter",
			input:  "",
			clause: "",
			args:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := compile(t, tt.input)
			if q.Clause() != tt.clause {
				t.Errorf("Expected clause %q, got %q", tt.clause, q.Clause())
			}
			if !reflect.DeepEqual(q.Args(), tt.args) {
				t.Errorf("Expected args %v, got %v", tt.args, q.Args())
			}
		})
	}
}

func TestLowerPresence(t *testing.T) {
	q := compile(t, "band_gap IS KNOWN")
	if q.Clause() != `"band_gap" IS NOT NULL` {
		t.Errorf("Unexpected clause %q", q.Clause())
	}
	if len(q.Args()) != 0 {
		t.Errorf("Expected no args, got %v", q.Args())
	}

	q = compile(t, "band_gap IS UNKNOWN")
	if q.Clause() != `"band_gap" IS NULL` {
		t.Errorf("Unexpected clause %q", q.Clause())
	}
}

func TestLowerUnsupported(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "Quantifier", input: `elements HAS "Si"`},
		{name: "LENGTH", input: "LENGTH(elements) = 2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := lower(t, tt.input)

			var unsupportedErr *lowering.UnsupportedFeatureError
			if !errors.As(err, &unsupportedErr) {
				t.Fatalf("Expected *UnsupportedFeatureError, got %v", err)
			}
			if unsupportedErr.Backend != BackendName {
				t.Errorf("Expected backend %q, got %q", BackendName, unsupportedErr.Backend)
			}
		})
	}
}

func TestCapabilityExcludesQuantifiers(t *testing.T) {
	capability := New().Capability()
	for _, op := range []filter.Operator{filter.OpHas, filter.OpHasAny, filter.OpHasAll, filter.OpHasOnly} {
		if capability.SupportsOperator(op) {
			t.Errorf("Scalar columns cannot hold lists; %s must not be declared", op)
		}
	}
	if capability.Length {
		t.Error("LENGTH must not be declared")
	}
}

func TestQuoteIdent(t *testing.T) {
	tests := []struct {
		ident    string
		expected string
	}{
		{ident: "nelements", expected: `"nelements"`},
		{ident: "cell.volume", expected: `"cell"."volume"`},
		{ident: `odd"name`, expected: `"odd""name"`},
	}

	for _, tt := range tests {
		if got := quoteIdent(tt.ident); got != tt.expected {
			t.Errorf("quoteIdent(%q): expected %s, got %s", tt.ident, tt.expected, got)
		}
	}
}

func TestEscapeLikePattern(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{value: "plain", expected: "plain"},
		{value: "100%", expected: `100\%`},
		{value: "under_score", expected: `under\_score`},
		{value: `back\slash`, expected: `back\\slash`},
	}

	for _, tt := range tests {
		if got := escapeLikePattern(tt.value); got != tt.expected {
			t.Errorf("escapeLikePattern(%q): expected %q, got %q", tt.value, tt.expected, got)
		}
	}
}
