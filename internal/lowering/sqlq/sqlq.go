// Package sqlq lowers filters into SQL WHERE fragments with bind
// arguments, applied through GORM. Identifier quoting uses double
// quotes, which both sqlite and postgres accept.
package sqlq

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/lowering"
	"github.com/nholik/go-optimade/internal/registry"
)

// BackendName identifies the relational backend.
const BackendName = "sql"

const likeEscapeClause = "ESCAPE '\\'"

// Query is the compiled form of a filter for the relational backend.
type Query struct {
	clause string
	args   []interface{}
}

// Backend implements lowering.NativeQuery.
func (q *Query) Backend() string {
	return BackendName
}

// Clause returns the WHERE fragment with ? placeholders.
func (q *Query) Clause() string {
	return q.clause
}

// Args returns the bind arguments for the clause.
func (q *Query) Args() []interface{} {
	return q.args
}

// Apply attaches the compiled filter to a GORM query.
func (q *Query) Apply(db *gorm.DB) *gorm.DB {
	if q.clause == "" {
		return db
	}
	return db.Where(q.clause, q.args...)
}

// Transformer lowers annotated ASTs into SQL fragments.
type Transformer struct{}

// New creates the relational transformer.
func New() *Transformer {
	return &Transformer{}
}

// Backend implements lowering.Transformer.
func (t *Transformer) Backend() string {
	return BackendName
}

// Capability implements lowering.Transformer. Plain relational columns
// hold scalars, so the list quantifiers and LENGTH are not declared.
func (t *Transformer) Capability() lowering.Capability {
	return lowering.Capability{
		Operators: []filter.Operator{
			filter.OpEq, filter.OpNe, filter.OpLt, filter.OpLe, filter.OpGt, filter.OpGe,
			filter.OpContains, filter.OpStartsWith, filter.OpEndsWith,
		},
		Length: false,
	}
}

// Lower implements lowering.Transformer.
func (t *Transformer) Lower(ann *lowering.Annotated) (lowering.NativeQuery, error) {
	clause, args, err := t.lower(ann, ann.Root)
	if err != nil {
		return nil, err
	}
	return &Query{clause: clause, args: args}, nil
}

func (t *Transformer) lower(ann *lowering.Annotated, expr filter.Expr) (string, []interface{}, error) {
	switch n := expr.(type) {
	case *filter.MatchAllExpr:
		return "", nil, nil

	case *filter.AndExpr:
		return t.lowerLogical(ann, n.Left, n.Right, "AND")

	case *filter.OrExpr:
		return t.lowerLogical(ann, n.Left, n.Right, "OR")

	case *filter.NotExpr:
		clause, args, err := t.lower(ann, n.Operand)
		if err != nil {
			return "", nil, err
		}
		if clause == "" {
			// NOT over match-everything matches nothing.
			return "1 = 0", nil, nil
		}
		return fmt.Sprintf("NOT (%s)", clause), args, nil

	case *filter.ComparisonExpr:
		return t.lowerComparison(ann.Definition(n.Property), n)

	case *filter.LengthExpr:
		return "", nil, &lowering.UnsupportedFeatureError{Backend: BackendName, Construct: "LENGTH"}

	case *filter.KnownExpr:
		column := quoteIdent(ann.Definition(n.Property).Field)
		return fmt.Sprintf("%s IS NOT NULL", column), nil, nil

	case *filter.UnknownExpr:
		column := quoteIdent(ann.Definition(n.Property).Field)
		return fmt.Sprintf("%s IS NULL", column), nil, nil
	}

	return "", nil, &lowering.UnsupportedFeatureError{Backend: BackendName, Construct: "unknown AST node"}
}

func (t *Transformer) lowerLogical(ann *lowering.Annotated, left, right filter.Expr, op string) (string, []interface{}, error) {
	leftClause, leftArgs, err := t.lower(ann, left)
	if err != nil {
		return "", nil, err
	}
	rightClause, rightArgs, err := t.lower(ann, right)
	if err != nil {
		return "", nil, err
	}

	// An empty side comes from a nested match-all and is neutral for
	// AND; OR with a match-all side matches everything.
	if leftClause == "" || rightClause == "" {
		if op == "OR" {
			return "", nil, nil
		}
		return leftClause + rightClause, append(leftArgs, rightArgs...), nil
	}

	clause := fmt.Sprintf("(%s) %s (%s)", leftClause, op, rightClause)
	return clause, append(leftArgs, rightArgs...), nil
}

func (t *Transformer) lowerComparison(def registry.Definition, n *filter.ComparisonExpr) (string, []interface{}, error) {
	column := quoteIdent(def.Field)

	switch n.Op {
	case filter.OpEq:
		return fmt.Sprintf("%s = ?", column), []interface{}{scalarValue(n.Value)}, nil
	case filter.OpNe:
		return fmt.Sprintf("%s <> ?", column), []interface{}{scalarValue(n.Value)}, nil
	case filter.OpLt:
		return fmt.Sprintf("%s < ?", column), []interface{}{scalarValue(n.Value)}, nil
	case filter.OpLe:
		return fmt.Sprintf("%s <= ?", column), []interface{}{scalarValue(n.Value)}, nil
	case filter.OpGt:
		return fmt.Sprintf("%s > ?", column), []interface{}{scalarValue(n.Value)}, nil
	case filter.OpGe:
		return fmt.Sprintf("%s >= ?", column), []interface{}{scalarValue(n.Value)}, nil
	case filter.OpContains:
		return buildLikeComparison(column, n.Value.Str, true, true)
	case filter.OpStartsWith:
		return buildLikeComparison(column, n.Value.Str, false, true)
	case filter.OpEndsWith:
		return buildLikeComparison(column, n.Value.Str, true, false)
	}

	return "", nil, &lowering.UnsupportedFeatureError{Backend: BackendName, Construct: n.Op.String()}
}

// quoteIdent safely quotes identifiers in a portable way. Embedded
// double quotes are escaped by doubling them per SQL standard. Dotted
// field paths quote each segment.
func quoteIdent(ident string) string {
	segments := strings.Split(ident, ".")
	for i, seg := range segments {
		escaped := strings.ReplaceAll(seg, "\"", "\"\"")
		segments[i] = fmt.Sprintf("\"%s\"", escaped)
	}
	return strings.Join(segments, ".")
}

func escapeLikePattern(value string) string {
	replacer := strings.NewReplacer(
		"\\", "\\\\",
		"%", "\\%",
		"_", "\\_",
	)
	return replacer.Replace(value)
}

func buildLikeComparison(column string, value string, prefixWildcard bool, suffixWildcard bool) (string, []interface{}, error) {
	pattern := escapeLikePattern(value)
	if prefixWildcard {
		pattern = "%" + pattern
	}
	if suffixWildcard {
		pattern = pattern + "%"
	}

	return fmt.Sprintf("%s LIKE ? %s", column, likeEscapeClause), []interface{}{pattern}, nil
}

// scalarValue converts a literal into a SQL bind argument.
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
