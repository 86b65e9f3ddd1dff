// Package elasticq lowers filters into Elasticsearch bool-query JSON.
// The output is the query body fragment to place under "query" in a
// search request.
package elasticq

import (
	"encoding/json"
	"strings"

	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/lowering"
	"github.com/nholik/go-optimade/internal/registry"
)

// BackendName identifies the search-index backend.
const BackendName = "elastic"

// Query is the compiled form of a filter for the search index.
type Query struct {
	body map[string]interface{}
}

// Backend implements lowering.NativeQuery.
func (q *Query) Backend() string {
	return BackendName
}

// Body returns the query fragment. Callers must not modify it:
// compiled queries may be shared through the compile cache.
func (q *Query) Body() map[string]interface{} {
	return q.body
}

// JSON renders the query fragment.
func (q *Query) JSON() ([]byte, error) {
	return json.Marshal(q.body)
}

// Transformer lowers annotated ASTs into Elasticsearch queries.
type Transformer struct{}

// New creates the search-index transformer.
func New() *Transformer {
	return &Transformer{}
}

// Backend implements lowering.Transformer.
func (t *Transformer) Backend() string {
	return BackendName
}

// Capability implements lowering.Transformer. HAS ONLY is not
// declared: the index has no exact-set match and no array length to
// assert, so emulation is impossible. LENGTH is declared but requires
// a per-property cardinality field from the registry.
func (t *Transformer) Capability() lowering.Capability {
	return lowering.Capability{
		Operators: []filter.Operator{
			filter.OpEq, filter.OpNe, filter.OpLt, filter.OpLe, filter.OpGt, filter.OpGe,
			filter.OpContains, filter.OpStartsWith, filter.OpEndsWith,
			filter.OpHas, filter.OpHasAny, filter.OpHasAll,
		},
		Length: true,
	}
}

// Lower implements lowering.Transformer.
func (t *Transformer) Lower(ann *lowering.Annotated) (lowering.NativeQuery, error) {
	body, err := t.lower(ann, ann.Root)
	if err != nil {
		return nil, err
	}
	return &Query{body: body}, nil
}

func (t *Transformer) lower(ann *lowering.Annotated, expr filter.Expr) (map[string]interface{}, error) {
	switch n := expr.(type) {
	case *filter.MatchAllExpr:
		return map[string]interface{}{"match_all": map[string]interface{}{}}, nil

	case *filter.AndExpr:
		left, err := t.lower(ann, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.lower(ann, n.Right)
		if err != nil {
			return nil, err
		}
		return boolQuery("must", left, right), nil

	case *filter.OrExpr:
		left, err := t.lower(ann, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.lower(ann, n.Right)
		if err != nil {
			return nil, err
		}
		q := boolQuery("should", left, right)
		q["bool"].(map[string]interface{})["minimum_should_match"] = 1
		return q, nil

	case *filter.NotExpr:
		operand, err := t.lower(ann, n.Operand)
		if err != nil {
			return nil, err
		}
		return boolQuery("must_not", operand), nil

	case *filter.ComparisonExpr:
		return t.lowerComparison(ann.Definition(n.Property), n)

	case *filter.LengthExpr:
		return t.lowerLength(ann.Definition(n.Property), n)

	case *filter.KnownExpr:
		return lowerPresence(ann.Definition(n.Property), false)

	case *filter.UnknownExpr:
		return lowerPresence(ann.Definition(n.Property), true)
	}

	return nil, &lowering.UnsupportedFeatureError{Backend: BackendName, Construct: "unknown AST node"}
}

func (t *Transformer) lowerComparison(def registry.Definition, n *filter.ComparisonExpr) (map[string]interface{}, error) {
	field := def.Field

	switch n.Op {
	case filter.OpEq, filter.OpHas:
		return termQuery(field, scalarValue(n.Value)), nil

	case filter.OpNe:
		return boolQuery("must_not", termQuery(field, scalarValue(n.Value))), nil

	case filter.OpLt:
		return rangeQuery(field, "lt", scalarValue(n.Value)), nil
	case filter.OpLe:
		return rangeQuery(field, "lte", scalarValue(n.Value)), nil
	case filter.OpGt:
		return rangeQuery(field, "gt", scalarValue(n.Value)), nil
	case filter.OpGe:
		return rangeQuery(field, "gte", scalarValue(n.Value)), nil

	case filter.OpContains:
		return wildcardQuery(field, "*"+escapeWildcard(n.Value.Str)+"*"), nil
	case filter.OpStartsWith:
		return map[string]interface{}{
			"prefix": map[string]interface{}{
				field: map[string]interface{}{"value": n.Value.Str},
			},
		}, nil
	case filter.OpEndsWith:
		return wildcardQuery(field, "*"+escapeWildcard(n.Value.Str)), nil

	case filter.OpHasAny:
		return map[string]interface{}{
			"terms": map[string]interface{}{field: listValues(n.Value)},
		}, nil

	case filter.OpHasAll:
		terms := make([]map[string]interface{}, 0, len(n.Value.List))
		for _, v := range n.Value.List {
			terms = append(terms, termQuery(field, scalarValue(v)))
		}
		return boolQuery("must", terms...), nil
	}

	return nil, &lowering.UnsupportedFeatureError{Backend: BackendName, Construct: n.Op.String()}
}

// lowerLength lowers a LENGTH comparison onto the property's declared
// cardinality field. Without one the index has nothing to compare
// against.
func (t *Transformer) lowerLength(def registry.Definition, n *filter.LengthExpr) (map[string]interface{}, error) {
	if def.LengthField == "" {
		return nil, &lowering.UnsupportedFeatureError{
			Backend:   BackendName,
			Construct: "LENGTH without a registered cardinality field",
		}
	}

	want := n.Value.Num.IntPart()
	switch n.Op {
	case filter.OpEq:
		return termQuery(def.LengthField, want), nil
	case filter.OpNe:
		return boolQuery("must_not", termQuery(def.LengthField, want)), nil
	case filter.OpLt:
		return rangeQuery(def.LengthField, "lt", want), nil
	case filter.OpLe:
		return rangeQuery(def.LengthField, "lte", want), nil
	case filter.OpGt:
		return rangeQuery(def.LengthField, "gt", want), nil
	default:
		return rangeQuery(def.LengthField, "gte", want), nil
	}
}

func boolQuery(clause string, queries ...map[string]interface{}) map[string]interface{} {
	sub := make([]interface{}, len(queries))
	for i, q := range queries {
		sub[i] = q
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{clause: sub},
	}
}

func termQuery(field string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"term": map[string]interface{}{
			field: map[string]interface{}{"value": value},
		},
	}
}

func rangeQuery(field, op string, value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"range": map[string]interface{}{
			field: map[string]interface{}{op: value},
		},
	}
}

func wildcardQuery(field, pattern string) map[string]interface{} {
	return map[string]interface{}{
		"wildcard": map[string]interface{}{
			field: map[string]interface{}{"value": pattern},
		},
	}
}

// lowerPresence builds the IS KNOWN / IS UNKNOWN query. Empty arrays
// are not indexed, so exists cannot tell an empty list from a missing
// one; a list flagged known_if_empty is refused rather than silently
// approximated.
func lowerPresence(def registry.Definition, negated bool) (map[string]interface{}, error) {
	if def.IsList && def.KnownIfEmpty {
		return nil, &lowering.UnsupportedFeatureError{
			Backend:   BackendName,
			Construct: "presence check on a known-if-empty list property",
		}
	}

	q := existsQuery(def.Field)
	if negated {
		return boolQuery("must_not", q), nil
	}
	return q, nil
}

func existsQuery(field string) map[string]interface{} {
	return map[string]interface{}{
		"exists": map[string]interface{}{"field": field},
	}
}

// escapeWildcard escapes the wildcard metacharacters in a literal.
func escapeWildcard(s string) string {
	return strings.NewReplacer("\\", "\\\\", "*", "\\*", "?", "\\?").Replace(s)
}

// scalarValue converts a literal into its JSON representation.
func scalarValue(v filter.Value) interface{} {
	switch v.Kind {
	case filter.ValueString:
		return v.Str
	case filter.ValueNumber:
		if v.Num.IsInteger() {
			return v.Num.IntPart()
		}
		return v.Num.InexactFloat64()
	case filter.ValueBool:
		return v.Bool
	}
	return nil
}

func listValues(value filter.Value) []interface{} {
	values := make([]interface{}, len(value.List))
	for i, v := range value.List {
		values[i] = scalarValue(v)
	}
	return values
}
