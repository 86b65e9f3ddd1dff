package memoryq

import (
	"testing"

	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/lowering"
	"github.com/nholik/go-optimade/internal/registry"
)

func testSnapshot() *registry.Snapshot {
	return registry.NewSnapshot(map[string]registry.Property{
		"nelements":                {Type: registry.TypeNumber},
		"chemical_formula_reduced": {Type: registry.TypeString},
		"elements":                 {Type: registry.TypeString, IsList: true},
		"band_gap":                 {Type: registry.TypeNumber},
		"is_stable":                {Type: registry.TypeBoolean},
		"last_modified":            {Type: registry.TypeTimestamp},
		"structure_features":       {Type: registry.TypeString, IsList: true, KnownIfEmpty: true},
	})
}

func compile(t *testing.T, input string) *Query {
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
		t.Fatalf("Lower(%q) failed: %v", input, err)
	}
	return native.(*Query)
}

func testRecords() []Record {
	return []Record{
		{
			"id":                       "1",
			"nelements":                2,
			"chemical_formula_reduced": "SiO2",
			"elements":                 []string{"Si", "O"},
			"band_gap":                 8.9,
			"is_stable":                true,
			"last_modified":            "2024-03-01T12:00:00Z",
		},
		{
			"id":                       "2",
			"nelements":                1,
			"chemical_formula_reduced": "Si",
			"elements":                 []string{"Si"},
			"is_stable":                true,
			"last_modified":            "2023-06-15T08:30:00Z",
		},
		{
			"id":                       "3",
			"nelements":                3,
			"chemical_formula_reduced": "Al2O3Si",
			"elements":                 []string{"Al", "O", "Si"},
			"band_gap":                 4.5,
			"is_stable":                false,
			"last_modified":            "2024-07-20T00:00:00Z",
		},
	}
}

func matchedIDs(q *Query, records []Record) []string {
	var ids []string
	for _, record := range q.Filter(records) {
		ids = append(ids, record["id"].(string))
	}
	return ids
}

func assertMatches(t *testing.T, input string, want []string) {
	t.Helper()

	got := matchedIDs(compile(t, input), testRecords())
	if len(got) != len(want) {
		t.Fatalf("Filter %q: expected ids %v, got %v", input, want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Filter %q: expected ids %v, got %v", input, want, got)
		}
	}
}

func TestQueryComparisons(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "Equality", input: "nelements = 2", want: []string{"1"}},
		{name: "Inequality", input: "nelements != 2", want: []string{"2", "3"}},
		{name: "Less than", input: "nelements < 3", want: []string{"1", "2"}},
		{name: "At most", input: "nelements <= 2", want: []string{"1", "2"}},
		{name: "Greater than", input: "nelements > 1", want: []string{"1", "3"}},
		{name: "At least", input: "nelements >= 3", want: []string{"3"}},
		{name: "Value-first", input: "2 <= nelements", want: []string{"1", "3"}},
		{name: "Float comparison", input: "band_gap > 5", want: []string{"1"}},
		{name: "String equality", input: `chemical_formula_reduced = "Si"`, want: []string{"2"}},
		{name: "Boolean equality", input: "is_stable = TRUE", want: []string{"1", "2"}},
		{name: "Boolean inequality", input: "is_stable != TRUE", want: []string{"3"}},
		{name: "Contains", input: `chemical_formula_reduced CONTAINS "O2"`, want: []string{"1"}},
		{name: "Starts with", input: `chemical_formula_reduced STARTS WITH "Si"`, want: []string{"1", "2"}},
		{name: "Ends with", input: `chemical_formula_reduced ENDS WITH "Si"`, want: []string{"2", "3"}},
		{name: "Timestamp ordering", input: `last_modified > "2024-01-01T00:00:00Z"`, want: []string{"1", "3"}},
		{name: "Empty filter matches everything", input: "", want: []string{"1", "2", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMatches(t, tt.input, tt.want)
		})
	}
}

func TestQueryLogical(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "Conjunction", input: `nelements >= 2 AND is_stable = TRUE`, want: []string{"1"}},
		{name: "Disjunction", input: `nelements = 1 OR nelements = 3`, want: []string{"2", "3"}},
		{name: "Negation", input: `NOT nelements = 2`, want: []string{"2", "3"}},
		{name: "Precedence", input: `nelements = 1 OR nelements = 2 AND is_stable = TRUE`, want: []string{"1", "2"}},
		{name: "Grouping", input: `(nelements = 1 OR nelements = 2) AND is_stable = TRUE`, want: []string{"1", "2"}},
		{name: "Quantifier and comparison", input: `elements HAS ANY "Si","O" AND nelements >= 2`, want: []string{"1", "3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMatches(t, tt.input, tt.want)
		})
	}
}

func TestQueryQuantifiers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "HAS", input: `elements HAS "Al"`, want: []string{"3"}},
		{name: "HAS ANY", input: `elements HAS ANY "Al","Si"`, want: []string{"1", "2", "3"}},
		{name: "HAS ALL", input: `elements HAS ALL "Si","O"`, want: []string{"1", "3"}},
		{name: "HAS ONLY exact set", input: `elements HAS ONLY "Si","O"`, want: []string{"1"}},
		{name: "HAS ONLY reordered set", input: `elements HAS ONLY "O","Si"`, want: []string{"1"}},
		{name: "HAS ONLY single", input: `elements HAS ONLY "Si"`, want: []string{"2"}},
		{name: "LENGTH equality", input: "LENGTH(elements) = 3", want: []string{"3"}},
		{name: "LENGTH lower bound", input: "LENGTH(elements) >= 2", want: []string{"1", "3"}},
		{name: "LENGTH upper bound", input: "LENGTH(elements) < 2", want: []string{"2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertMatches(t, tt.input, tt.want)
		})
	}
}

// TestQueryHasOnlyExactSet pins the set-equality semantics: both
// supersets and subsets of the listed values are rejected.
func TestQueryHasOnlyExactSet(t *testing.T) {
	records := []Record{
		{"id": "exact", "elements": []string{"Si", "O"}},
		{"id": "superset", "elements": []string{"Si", "O", "C"}},
		{"id": "subset", "elements": []string{"Si"}},
	}

	q := compile(t, `elements HAS ONLY "Si","O"`)
	got := matchedIDs(q, records)
	if len(got) != 1 || got[0] != "exact" {
		t.Errorf("Expected only the exact set to match, got %v", got)
	}
}

func TestQueryPresence(t *testing.T) {
	records := []Record{
		{"id": "present", "band_gap": 1.2, "elements": []string{"Si"}, "structure_features": []string{"disorder"}},
		{"id": "absent"},
		{"id": "nil-value", "band_gap": nil},
		{"id": "empty-list", "elements": []string{}, "structure_features": []string{}},
	}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "Scalar known", input: "band_gap IS KNOWN", want: []string{"present"}},
		{name: "Scalar unknown", input: "band_gap IS UNKNOWN", want: []string{"absent", "nil-value", "empty-list"}},
		{name: "Empty list is unknown by default", input: "elements IS KNOWN", want: []string{"present"}},
		{name: "Empty list known when flagged", input: "structure_features IS KNOWN", want: []string{"present", "empty-list"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchedIDs(compile(t, tt.input), records)
			if len(got) != len(tt.want) {
				t.Fatalf("Expected ids %v, got %v", tt.want, got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("Expected ids %v, got %v", tt.want, got)
				}
			}
		})
	}
}

// TestQueryPresencePartition checks that IS KNOWN and IS UNKNOWN
// partition any record set.
func TestQueryPresencePartition(t *testing.T) {
	records := []Record{
		{"id": "1", "band_gap": 1.2},
		{"id": "2"},
		{"id": "3", "band_gap": nil},
	}

	knownQ := compile(t, "band_gap IS KNOWN")
	unknownQ := compile(t, "band_gap IS UNKNOWN")

	for _, record := range records {
		k := knownQ.Matches(record)
		u := unknownQ.Matches(record)
		if k == u {
			t.Errorf("Record %v: IS KNOWN (%v) and IS UNKNOWN (%v) must disagree", record["id"], k, u)
		}
	}
}

// TestQueryMissingFieldComparisons pins the null semantics of ordering
// comparisons: a missing value only satisfies !=, so a != 5 stays
// equivalent to NOT (a = 5).
func TestQueryMissingFieldComparisons(t *testing.T) {
	record := Record{"id": "sparse"}

	tests := []struct {
		input string
		want  bool
	}{
		{input: "band_gap = 5", want: false},
		{input: "band_gap != 5", want: true},
		{input: "band_gap < 5", want: false},
		{input: "band_gap >= 5", want: false},
		{input: "NOT band_gap = 5", want: true},
		{input: `elements HAS "Si"`, want: false},
		{input: "LENGTH(elements) = 0", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := compile(t, tt.input).Matches(record); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestQueryNotEqualsMatchesNegatedEquals(t *testing.T) {
	records := []Record{
		{"id": "1", "band_gap": 5.0},
		{"id": "2", "band_gap": 3.0},
		{"id": "3"},
	}

	direct := compile(t, "band_gap != 5")
	negated := compile(t, "NOT band_gap = 5")

	for _, record := range records {
		if direct.Matches(record) != negated.Matches(record) {
			t.Errorf("Record %v: != and NOT = disagree", record["id"])
		}
	}
}

func TestQueryNestedFields(t *testing.T) {
	snapshot := registry.NewSnapshot(map[string]registry.Property{
		"_exmpl_cell.volume": {
			Type:   registry.TypeNumber,
			Fields: map[string]string{BackendName: "cell.volume"},
		},
	})

	expr, err := filter.Parse("_exmpl_cell.volume > 100")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	ann, err := lowering.Resolve(expr, snapshot, BackendName)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	native, err := New().Lower(ann)
	if err != nil {
		t.Fatalf("Lower failed: %v", err)
	}
	q := native.(*Query)

	if !q.Matches(Record{"cell": map[string]interface{}{"volume": 120.5}}) {
		t.Error("Expected nested match")
	}
	if q.Matches(Record{"cell": map[string]interface{}{"volume": 80}}) {
		t.Error("Expected nested non-match")
	}
	if q.Matches(Record{"cell": "not a map"}) {
		t.Error("Expected non-map traversal to fail the match")
	}
}
