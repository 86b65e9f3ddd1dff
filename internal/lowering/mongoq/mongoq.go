// Package mongoq lowers filters into MongoDB filter documents. The
// output is a bson.D ready to be passed to a collection Find call by
// the (external) driver layer.
package mongoq

import (
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/lowering"
	"github.com/nholik/go-optimade/internal/registry"
)

// BackendName identifies the document-store backend.
const BackendName = "mongo"

// Query is the compiled form of a filter for the document store.
type Query struct {
	doc bson.D
}

// Backend implements lowering.NativeQuery.
func (q *Query) Backend() string {
	return BackendName
}

// Document returns the filter document. Callers must not modify it:
// compiled queries may be shared through the compile cache.
func (q *Query) Document() bson.D {
	return q.doc
}

// JSON renders the filter document as canonical extended JSON, mainly
// for logging and the CLI.
func (q *Query) JSON() ([]byte, error) {
	return bson.MarshalExtJSON(q.doc, true, false)
}

// Transformer lowers annotated ASTs into Mongo filter documents.
type Transformer struct{}

// New creates the document-store transformer.
func New() *Transformer {
	return &Transformer{}
}

// Backend implements lowering.Transformer.
func (t *Transformer) Backend() string {
	return BackendName
}

// Capability implements lowering.Transformer. Mongo expresses the full
// grammar, including HAS ONLY via $all plus $size and ranged LENGTH
// via positional $exists probes.
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
	doc, err := t.lower(ann, ann.Root)
	if err != nil {
		return nil, err
	}
	return &Query{doc: doc}, nil
}

func (t *Transformer) lower(ann *lowering.Annotated, expr filter.Expr) (bson.D, error) {
	switch n := expr.(type) {
	case *filter.MatchAllExpr:
		return bson.D{}, nil

	case *filter.AndExpr:
		left, err := t.lower(ann, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.lower(ann, n.Right)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$and", Value: bson.A{left, right}}}, nil

	case *filter.OrExpr:
		left, err := t.lower(ann, n.Left)
		if err != nil {
			return nil, err
		}
		right, err := t.lower(ann, n.Right)
		if err != nil {
			return nil, err
		}
		return bson.D{{Key: "$or", Value: bson.A{left, right}}}, nil

	case *filter.NotExpr:
		operand, err := t.lower(ann, n.Operand)
		if err != nil {
			return nil, err
		}
		// $nor over a single clause is Mongo's general-purpose
		// negation; $not only applies to operator expressions.
		return bson.D{{Key: "$nor", Value: bson.A{operand}}}, nil

	case *filter.ComparisonExpr:
		return t.lowerComparison(ann.Definition(n.Property), n)

	case *filter.LengthExpr:
		return t.lowerLength(ann.Definition(n.Property), n), nil

	case *filter.KnownExpr:
		return lowerKnown(ann.Definition(n.Property)), nil

	case *filter.UnknownExpr:
		known := lowerKnown(ann.Definition(n.Property))
		return bson.D{{Key: "$nor", Value: bson.A{known}}}, nil
	}

	return nil, &lowering.UnsupportedFeatureError{Backend: BackendName, Construct: "unknown AST node"}
}

func (t *Transformer) lowerComparison(def registry.Definition, n *filter.ComparisonExpr) (bson.D, error) {
	field := def.Field

	if n.Op.IsQuantifier() {
		return lowerQuantifier(field, n.Op, n.Value), nil
	}

	switch n.Op {
	case filter.OpEq:
		return fieldClause(field, "$eq", scalarValue(n.Value)), nil
	case filter.OpNe:
		return fieldClause(field, "$ne", scalarValue(n.Value)), nil
	case filter.OpLt:
		return fieldClause(field, "$lt", scalarValue(n.Value)), nil
	case filter.OpLe:
		return fieldClause(field, "$lte", scalarValue(n.Value)), nil
	case filter.OpGt:
		return fieldClause(field, "$gt", scalarValue(n.Value)), nil
	case filter.OpGe:
		return fieldClause(field, "$gte", scalarValue(n.Value)), nil
	case filter.OpContains:
		return fieldClause(field, "$regex", regexp.QuoteMeta(n.Value.Str)), nil
	case filter.OpStartsWith:
		return fieldClause(field, "$regex", "^"+regexp.QuoteMeta(n.Value.Str)), nil
	case filter.OpEndsWith:
		return fieldClause(field, "$regex", regexp.QuoteMeta(n.Value.Str)+"$"), nil
	}

	return nil, &lowering.UnsupportedFeatureError{Backend: BackendName, Construct: n.Op.String()}
}

// lowerQuantifier expands HAS and friends into Mongo's array
// containment idioms. HAS ONLY is emulated as $all plus $size over the
// deduplicated value list; records holding duplicate elements fall
// outside that emulation and will not match.
func lowerQuantifier(field string, op filter.Operator, value filter.Value) bson.D {
	values := listValues(value)

	switch op {
	case filter.OpHas, filter.OpHasAny:
		return fieldClause(field, "$in", values)
	case filter.OpHasAll:
		return fieldClause(field, "$all", values)
	default: // HAS ONLY
		unique := dedupe(values)
		return bson.D{{Key: "$and", Value: bson.A{
			fieldClause(field, "$all", unique),
			fieldClause(field, "$size", int64(len(unique))),
		}}}
	}
}

// lowerLength lowers a LENGTH comparison. Equality uses $size; the
// ranged forms probe for the existence of positional array elements,
// since $size accepts no range operators. Forms a missing field would
// satisfy ($not $size, negative positional $exists) carry an existence
// guard so absent fields never match, matching the in-memory backend.
func (t *Transformer) lowerLength(def registry.Definition, n *filter.LengthExpr) bson.D {
	field := def.Field
	want := n.Value.Num.IntPart()

	switch n.Op {
	case filter.OpEq:
		return fieldClause(field, "$size", want)
	case filter.OpNe:
		return withExistsGuard(field, bson.D{{Key: field, Value: bson.D{
			{Key: "$not", Value: bson.D{{Key: "$size", Value: want}}},
		}}})
	case filter.OpGt:
		return indexExists(field, want, true)
	case filter.OpGe:
		if want == 0 {
			return fieldClause(field, "$exists", true)
		}
		return indexExists(field, want-1, true)
	case filter.OpLt:
		if want == 0 {
			// No list has negative length.
			return fieldClause(field, "$size", int64(-1))
		}
		return withExistsGuard(field, indexExists(field, want-1, false))
	default: // <=
		return withExistsGuard(field, indexExists(field, want, false))
	}
}

// indexExists asserts (non-)existence of element idx of an array
// field: element N exists exactly when the array has length > N.
func indexExists(field string, idx int64, exists bool) bson.D {
	return fieldClause(fmt.Sprintf("%s.%d", field, idx), "$exists", exists)
}

// withExistsGuard conjoins a field existence check with clause.
func withExistsGuard(field string, clause bson.D) bson.D {
	return bson.D{{Key: "$and", Value: bson.A{
		fieldClause(field, "$exists", true),
		clause,
	}}}
}

// lowerKnown builds the IS KNOWN clause. List-valued properties are
// known only when present and non-empty, unless the registry flags
// empty lists as known.
func lowerKnown(def registry.Definition) bson.D {
	present := bson.D{{Key: def.Field, Value: bson.D{
		{Key: "$exists", Value: true},
		{Key: "$ne", Value: nil},
	}}}

	if def.IsList && !def.KnownIfEmpty {
		nonEmpty := bson.D{{Key: def.Field, Value: bson.D{
			{Key: "$not", Value: bson.D{{Key: "$size", Value: int64(0)}}},
		}}}
		return bson.D{{Key: "$and", Value: bson.A{present, nonEmpty}}}
	}

	return present
}

func fieldClause(field, op string, value interface{}) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: op, Value: value}}}}
}

// scalarValue converts a literal into its BSON representation.
// Integers stay integral so they match int-typed document fields.
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

func listValues(value filter.Value) bson.A {
	if value.Kind != filter.ValueList {
		return bson.A{scalarValue(value)}
	}
	values := make(bson.A, len(value.List))
	for i, v := range value.List {
		values[i] = scalarValue(v)
	}
	return values
}

func dedupe(values bson.A) bson.A {
	seen := make(map[interface{}]bool, len(values))
	var unique bson.A
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			unique = append(unique, v)
		}
	}
	return unique
}
