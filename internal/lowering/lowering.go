// Package lowering defines the contract between the query compiler
// and the per-backend transformers, along with the property resolution
// pass that annotates a parsed filter for one target backend.
package lowering

import (
	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/registry"
)

// NativeQuery is the backend-specific compiled form of a filter. The
// compiler never inspects it; it is handed straight to the caller.
type NativeQuery interface {
	// Backend returns the identifier of the backend that produced the
	// query.
	Backend() string
}

// Capability declares which grammar constructs a transformer can
// lower. The compiler consults it before traversal so unsupported
// filters fail fast without touching the backend-specific code.
type Capability struct {
	// Operators lists the supported comparison and quantifier
	// operators.
	Operators []filter.Operator

	// Length reports whether LENGTH comparisons are supported at all.
	// Transformers may still reject individual LENGTH comparisons that
	// need per-property registry support.
	Length bool
}

// SupportsOperator reports whether op is in the capability's operator
// set.
func (c Capability) SupportsOperator(op filter.Operator) bool {
	for _, supported := range c.Operators {
		if supported == op {
			return true
		}
	}
	return false
}

// Transformer lowers an annotated AST into one backend's native query
// representation.
type Transformer interface {
	// Backend returns the backend identifier, e.g. "mongo".
	Backend() string

	// Capability returns the statically declared construct support.
	Capability() Capability

	// Lower transforms the annotated AST into a native query.
	Lower(ann *Annotated) (NativeQuery, error)
}

// Annotated pairs a parsed filter with the property definitions
// resolved for one backend. The AST itself is never modified; the
// definitions live in a side table keyed by node identity.
type Annotated struct {
	Root    filter.Expr
	Backend string

	definitions map[*filter.Property]registry.Definition
}

// Definition returns the resolved definition for a property node. The
// resolver guarantees an entry for every property in the tree, so a
// missing one is a programming defect and yields the zero Definition.
func (a *Annotated) Definition(p *filter.Property) registry.Definition {
	return a.definitions[p]
}

// CheckSupport walks the expression and verifies every operator and
// construct against the transformer's declared capability. It returns
// an *UnsupportedFeatureError for the first unsupported construct.
func CheckSupport(t Transformer, expr filter.Expr) error {
	capability := t.Capability()

	var check func(filter.Expr) error
	check = func(e filter.Expr) error {
		switch n := e.(type) {
		case *filter.MatchAllExpr, *filter.KnownExpr, *filter.UnknownExpr:
			return nil
		case *filter.AndExpr:
			if err := check(n.Left); err != nil {
				return err
			}
			return check(n.Right)
		case *filter.OrExpr:
			if err := check(n.Left); err != nil {
				return err
			}
			return check(n.Right)
		case *filter.NotExpr:
			return check(n.Operand)
		case *filter.ComparisonExpr:
			if !capability.SupportsOperator(n.Op) {
				return newUnsupportedFeature(t.Backend(), n.Op.String())
			}
			return nil
		case *filter.LengthExpr:
			if !capability.Length {
				return newUnsupportedFeature(t.Backend(), "LENGTH")
			}
			return nil
		}
		return nil
	}

	return check(expr)
}
