// Package memoryq lowers filters into predicates over in-memory
// records. It supports the full grammar and doubles as the reference
// backend for cross-backend semantics.
package memoryq

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/lowering"
	"github.com/nholik/go-optimade/internal/registry"
)

// BackendName identifies the in-memory backend.
const BackendName = "memory"

// Record is one in-memory data record. Nested properties are nested
// maps.
type Record = map[string]interface{}

// Query is the compiled form of a filter for the in-memory backend: a
// pure predicate over records.
type Query struct {
	pred func(Record) bool
}

// Backend implements lowering.NativeQuery.
func (q *Query) Backend() string {
	return BackendName
}

// Matches reports whether the record satisfies the filter.
func (q *Query) Matches(record Record) bool {
	return q.pred(record)
}

// Filter returns the records satisfying the filter, preserving order.
func (q *Query) Filter(records []Record) []Record {
	var matched []Record
	for _, record := range records {
		if q.pred(record) {
			matched = append(matched, record)
		}
	}
	return matched
}

// Transformer lowers annotated ASTs into Queries.
type Transformer struct{}

// New creates the in-memory transformer.
func New() *Transformer {
	return &Transformer{}
}

// Backend implements lowering.Transformer.
func (t *Transformer) Backend() string {
	return BackendName
}

// Capability implements lowering.Transformer. The in-memory backend
// supports the entire grammar.
func (t *Transformer) Capability() lowering.Capability {
	return lowering.Capability{
		Operators: []filter.Operator{
			filter.OpEq, filter.OpNe, filter.OpLt, filter.OpLe, filter.OpGt, filter.OpGe,
			filter.OpContains, filter.OpStartsWith, filter.OpEndsWith,
			filter.OpHas, filter.OpHasAny, filter.OpHasAll, filter.OpHasOnly,
		},
		Length: true,
	}
}

// Lower implements lowering.Transformer.
func (t *Transformer) Lower(ann *lowering.Annotated) (lowering.NativeQuery, error) {
	pred, err := t.lower(ann, ann.Root)
	if err != nil {
		return nil, err
	}
	return &Query{pred: pred}, nil
}

func (t *Transformer) lower(ann *lowering.Annotated, expr filter.Expr) (func(Record) bool, error) {
	switch n := expr.(type) {
	case *filter.MatchAllExpr:
		return func(Record) bool { return true }, nil

	case *filter.AndExpr:
		left, err := t.lower(ann, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.lower(ann, n.Right)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool { return left(r) && right(r) }, nil

	case *filter.OrExpr:
		left, err := t.lower(ann, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.lower(ann, n.Right)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool { return left(r) || right(r) }, nil

	case *filter.NotExpr:
		operand, err := t.lower(ann, n.Operand)
		if err != nil {
			return nil, err
		}
		return func(r Record) bool { return !operand(r) }, nil

	case *filter.ComparisonExpr:
		return t.lowerComparison(ann.Definition(n.Property), n), nil

	case *filter.LengthExpr:
		return t.lowerLength(ann.Definition(n.Property), n), nil

	case *filter.KnownExpr:
		def := ann.Definition(n.Property)
		return func(r Record) bool { return known(r, def) }, nil

	case *filter.UnknownExpr:
		def := ann.Definition(n.Property)
		return func(r Record) bool { return !known(r, def) }, nil
	}

	return nil, &lowering.UnsupportedFeatureError{Backend: BackendName, Construct: "unknown AST node"}
}

func (t *Transformer) lowerComparison(def registry.Definition, n *filter.ComparisonExpr) func(Record) bool {
	field := def.Field
	op := n.Op
	value := n.Value

	if op.IsQuantifier() {
		return func(r Record) bool {
			raw, ok := lookupField(r, field)
			if !ok || raw == nil {
				return false
			}
			return matchQuantifier(def, op, value, asList(raw))
		}
	}

	return func(r Record) bool {
		raw, ok := lookupField(r, field)
		if !ok || raw == nil {
			// A missing value is not equal to anything, so only !=
			// matches. This mirrors the document-store backend.
			return op == filter.OpNe
		}
		return matchScalar(def, op, value, raw)
	}
}

func (t *Transformer) lowerLength(def registry.Definition, n *filter.LengthExpr) func(Record) bool {
	field := def.Field
	op := n.Op
	want := n.Value.Num.IntPart()

	return func(r Record) bool {
		raw, ok := lookupField(r, field)
		if !ok || raw == nil {
			return false
		}
		length := int64(len(asList(raw)))
		switch op {
		case filter.OpEq:
			return length == want
		case filter.OpNe:
			return length != want
		case filter.OpLt:
			return length < want
		case filter.OpLe:
			return length <= want
		case filter.OpGt:
			return length > want
		case filter.OpGe:
			return length >= want
		}
		return false
	}
}

// lookupField navigates a dotted field path through nested maps.
func lookupField(record Record, field string) (interface{}, bool) {
	segments := strings.Split(field, ".")
	var current interface{} = map[string]interface{}(record)

	for _, seg := range segments {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[seg]
		if !ok {
			return nil, false
		}
	}

	return current, true
}

// known implements IS KNOWN semantics, honoring the per-property
// empty-list flag from the registry.
func known(record Record, def registry.Definition) bool {
	raw, ok := lookupField(record, def.Field)
	if !ok || raw == nil {
		return false
	}
	if def.IsList && !def.KnownIfEmpty {
		return len(asList(raw)) > 0
	}
	return true
}

// matchScalar evaluates an ordering or substring comparison against a
// present record value.
func matchScalar(def registry.Definition, op filter.Operator, value filter.Value, raw interface{}) bool {
	switch op {
	case filter.OpContains, filter.OpStartsWith, filter.OpEndsWith:
		s, ok := raw.(string)
		if !ok {
			return false
		}
		switch op {
		case filter.OpContains:
			return strings.Contains(s, value.Str)
		case filter.OpStartsWith:
			return strings.HasPrefix(s, value.Str)
		default:
			return strings.HasSuffix(s, value.Str)
		}
	}

	cmp, ok := compareScalar(def, raw, value)
	if !ok {
		return op == filter.OpNe
	}

	switch op {
	case filter.OpEq:
		return cmp == 0
	case filter.OpNe:
		return cmp != 0
	case filter.OpLt:
		return cmp < 0
	case filter.OpLe:
		return cmp <= 0
	case filter.OpGt:
		return cmp > 0
	case filter.OpGe:
		return cmp >= 0
	}
	return false
}

// compareScalar compares a record value against a literal, returning
// -1/0/1 and whether the two were comparable at all.
func compareScalar(def registry.Definition, raw interface{}, value filter.Value) (int, bool) {
	switch value.Kind {
	case filter.ValueString:
		s, ok := raw.(string)
		if !ok {
			return 0, false
		}
		if def.Type == registry.TypeTimestamp {
			recorded, err1 := time.Parse(time.RFC3339, s)
			wanted, err2 := time.Parse(time.RFC3339, value.Str)
			if err1 == nil && err2 == nil {
				return recorded.Compare(wanted), true
			}
		}
		return strings.Compare(s, value.Str), true

	case filter.ValueNumber:
		num, ok := asDecimal(raw)
		if !ok {
			return 0, false
		}
		return num.Cmp(value.Num), true

	case filter.ValueBool:
		b, ok := raw.(bool)
		if !ok {
			return 0, false
		}
		if b == value.Bool {
			return 0, true
		}
		return 1, true
	}

	return 0, false
}

// matchQuantifier evaluates HAS / HAS ANY / HAS ALL / HAS ONLY against
// a record's list value.
func matchQuantifier(def registry.Definition, op filter.Operator, value filter.Value, elems []interface{}) bool {
	values := value.List
	if value.Kind != filter.ValueList {
		values = []filter.Value{value}
	}

	switch op {
	case filter.OpHas, filter.OpHasAll:
		for _, want := range values {
			if !listContains(def, elems, want) {
				return false
			}
		}
		return true

	case filter.OpHasAny:
		for _, want := range values {
			if listContains(def, elems, want) {
				return true
			}
		}
		return false

	case filter.OpHasOnly:
		for _, want := range values {
			if !listContains(def, elems, want) {
				return false
			}
		}
		for _, elem := range elems {
			if !valuesContain(def, values, elem) {
				return false
			}
		}
		return true
	}

	return false
}

func listContains(def registry.Definition, elems []interface{}, want filter.Value) bool {
	for _, elem := range elems {
		if cmp, ok := compareScalar(def, elem, want); ok && cmp == 0 {
			return true
		}
	}
	return false
}

func valuesContain(def registry.Definition, values []filter.Value, elem interface{}) bool {
	for _, want := range values {
		if cmp, ok := compareScalar(def, elem, want); ok && cmp == 0 {
			return true
		}
	}
	return false
}

// asList normalizes the common slice shapes records use for
// list-valued properties.
func asList(raw interface{}) []interface{} {
	switch v := raw.(type) {
	case []interface{}:
		return v
	case []string:
		elems := make([]interface{}, len(v))
		for i, s := range v {
			elems[i] = s
		}
		return elems
	case []int:
		elems := make([]interface{}, len(v))
		for i, n := range v {
			elems[i] = n
		}
		return elems
	case []float64:
		elems := make([]interface{}, len(v))
		for i, f := range v {
			elems[i] = f
		}
		return elems
	}
	return nil
}

// asDecimal converts the numeric shapes records use into a decimal.
func asDecimal(raw interface{}) (decimal.Decimal, bool) {
	switch v := raw.(type) {
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case float32:
		return decimal.NewFromFloat32(v), true
	case float64:
		return decimal.NewFromFloat(v), true
	case decimal.Decimal:
		return v, true
	}
	return decimal.Decimal{}, false
}
