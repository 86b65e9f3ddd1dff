package lowering

import (
	"errors"
	"time"

	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/registry"
)

// Resolve walks every property node in the expression, resolves it
// against the registry snapshot for the given backend, and type-checks
// literal operands against the declared property types. The input AST
// is not modified; resolution results are attached in a side table.
func Resolve(expr filter.Expr, snapshot *registry.Snapshot, backend string) (*Annotated, error) {
	r := &resolver{
		snapshot:    snapshot,
		backend:     backend,
		definitions: make(map[*filter.Property]registry.Definition),
	}

	if err := r.walk(expr); err != nil {
		return nil, err
	}

	return &Annotated{
		Root:        expr,
		Backend:     backend,
		definitions: r.definitions,
	}, nil
}

type resolver struct {
	snapshot    *registry.Snapshot
	backend     string
	definitions map[*filter.Property]registry.Definition
}

func (r *resolver) walk(expr filter.Expr) error {
	switch n := expr.(type) {
	case *filter.MatchAllExpr:
		return nil

	case *filter.AndExpr:
		if err := r.walk(n.Left); err != nil {
			return err
		}
		return r.walk(n.Right)

	case *filter.OrExpr:
		if err := r.walk(n.Left); err != nil {
			return err
		}
		return r.walk(n.Right)

	case *filter.NotExpr:
		return r.walk(n.Operand)

	case *filter.ComparisonExpr:
		def, err := r.resolveProperty(n.Property)
		if err != nil {
			return err
		}
		return r.checkComparison(n, def)

	case *filter.LengthExpr:
		def, err := r.resolveProperty(n.Property)
		if err != nil {
			return err
		}
		return r.checkLength(n, def)

	case *filter.KnownExpr:
		_, err := r.resolveProperty(n.Property)
		return err

	case *filter.UnknownExpr:
		_, err := r.resolveProperty(n.Property)
		return err
	}

	return nil
}

func (r *resolver) resolveProperty(p *filter.Property) (registry.Definition, error) {
	def, err := r.snapshot.Lookup(p.Name(), r.backend)
	if err != nil {
		if errors.Is(err, registry.ErrNotFound) {
			return registry.Definition{}, &UnknownPropertyError{Name: p.Name()}
		}
		return registry.Definition{}, err
	}
	r.definitions[p] = def
	return def, nil
}

// checkComparison type-checks a comparison or quantifier against the
// resolved property definition.
func (r *resolver) checkComparison(n *filter.ComparisonExpr, def registry.Definition) error {
	name := n.Property.Name()

	if n.Op.IsQuantifier() {
		if !def.IsList {
			return newTypeMismatch(name, "list-valued property for "+n.Op.String(), string(def.Type))
		}
		if n.Value.Kind == filter.ValueList {
			for _, v := range n.Value.List {
				if err := checkScalar(name, def, v); err != nil {
					return err
				}
			}
			return nil
		}
		return checkScalar(name, def, n.Value)
	}

	if def.IsList {
		return newTypeMismatch(name, "HAS quantifier for list-valued property", n.Op.String()+" comparison")
	}

	switch n.Op {
	case filter.OpContains, filter.OpStartsWith, filter.OpEndsWith:
		if def.Type != registry.TypeString {
			return newTypeMismatch(name, "string property for "+n.Op.String(), string(def.Type))
		}
		return nil
	case filter.OpLt, filter.OpLe, filter.OpGt, filter.OpGe:
		if def.Type == registry.TypeBoolean {
			return newTypeMismatch(name, "orderable property", "boolean")
		}
	}

	return checkScalar(name, def, n.Value)
}

// checkLength type-checks a LENGTH comparison: the property must be a
// list and the operand a non-negative integer.
func (r *resolver) checkLength(n *filter.LengthExpr, def registry.Definition) error {
	name := n.Property.Name()

	if !def.IsList {
		return newTypeMismatch(name, "list-valued property for LENGTH", string(def.Type))
	}
	if !n.Value.Num.IsInteger() || n.Value.Num.IsNegative() {
		return newTypeMismatch(name, "non-negative integer length", n.Value.Num.String())
	}
	return nil
}

// checkScalar verifies that a single literal is compatible with the
// declared (element) type of the property.
func checkScalar(name string, def registry.Definition, v filter.Value) error {
	switch def.Type {
	case registry.TypeString:
		if v.Kind != filter.ValueString {
			return newTypeMismatch(name, "string", v.Kind.String())
		}
	case registry.TypeNumber:
		if v.Kind != filter.ValueNumber {
			return newTypeMismatch(name, "number", v.Kind.String())
		}
	case registry.TypeBoolean:
		if v.Kind != filter.ValueBool {
			return newTypeMismatch(name, "boolean", v.Kind.String())
		}
	case registry.TypeTimestamp:
		if v.Kind != filter.ValueString {
			return newTypeMismatch(name, "timestamp", v.Kind.String())
		}
		if _, err := time.Parse(time.RFC3339, v.Str); err != nil {
			return newTypeMismatch(name, "RFC 3339 timestamp", "string")
		}
	}
	return nil
}
