package filter

import "github.com/shopspring/decimal"

// Expr represents a node in the abstract syntax tree of a parsed
// filter. The set of implementations is closed: backend transformers
// switch over every variant and treat anything else as a defect.
type Expr interface {
	expr()
}

// MatchAllExpr is the AST of the empty filter string: it matches every
// record on every backend.
type MatchAllExpr struct{}

func (e *MatchAllExpr) expr() {}

// AndExpr represents a boolean conjunction.
type AndExpr struct {
	Left  Expr
	Right Expr
}

func (e *AndExpr) expr() {}

// OrExpr represents a boolean disjunction.
type OrExpr struct {
	Left  Expr
	Right Expr
}

func (e *OrExpr) expr() {}

// NotExpr represents a boolean negation.
type NotExpr struct {
	Operand Expr
}

func (e *NotExpr) expr() {}

// ComparisonExpr represents a comparison of a property against a value
// or value list (e.g. nelements >= 2, elements HAS ANY "Si","O").
type ComparisonExpr struct {
	Property *Property
	Op       Operator
	Value    Value
}

func (e *ComparisonExpr) expr() {}

// LengthExpr represents a comparison over the cardinality of a
// list-valued property (e.g. LENGTH(elements) = 3).
type LengthExpr struct {
	Property *Property
	Op       Operator
	Value    Value
}

func (e *LengthExpr) expr() {}

// KnownExpr represents a "property IS KNOWN" presence test.
type KnownExpr struct {
	Property *Property
}

func (e *KnownExpr) expr() {}

// UnknownExpr represents a "property IS UNKNOWN" absence test.
type UnknownExpr struct {
	Property *Property
}

func (e *UnknownExpr) expr() {}

// Property represents a (possibly dotted) property path. Pos is the
// byte offset of the property in the filter string. Resolution results
// are never stored on the Property itself; the resolver keeps them in
// a side table keyed by node identity.
type Property struct {
	Path []string
	Pos  int
}

// Name returns the dotted spec-level name of the property.
func (p *Property) Name() string {
	name := ""
	for i, seg := range p.Path {
		if i > 0 {
			name += "."
		}
		name += seg
	}
	return name
}

// Operator identifies a comparison or quantifier operator.
type Operator int

const (
	OpEq Operator = iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpContains
	OpStartsWith
	OpEndsWith
	OpHas
	OpHasAny
	OpHasAll
	OpHasOnly
)

// String returns the filter-language spelling of the operator.
func (op Operator) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpContains:
		return "CONTAINS"
	case OpStartsWith:
		return "STARTS WITH"
	case OpEndsWith:
		return "ENDS WITH"
	case OpHas:
		return "HAS"
	case OpHasAny:
		return "HAS ANY"
	case OpHasAll:
		return "HAS ALL"
	case OpHasOnly:
		return "HAS ONLY"
	}
	return "unknown"
}

// IsOrdering reports whether the operator is one of the six ordering
// comparisons.
func (op Operator) IsOrdering() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// IsQuantifier reports whether the operator tests set membership
// against a list-valued property.
func (op Operator) IsQuantifier() bool {
	switch op {
	case OpHas, OpHasAny, OpHasAll, OpHasOnly:
		return true
	}
	return false
}

// mirror returns the operator with its operand order reversed, used to
// normalize value-first comparisons like 5 < nelements.
func (op Operator) mirror() Operator {
	switch op {
	case OpLt:
		return OpGt
	case OpLe:
		return OpGe
	case OpGt:
		return OpLt
	case OpGe:
		return OpLe
	}
	return op
}

// ValueKind identifies the type of a literal value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueNumber
	ValueBool
	ValueList
)

// String returns a human-readable name for the value kind, used in
// type mismatch messages.
func (k ValueKind) String() string {
	switch k {
	case ValueString:
		return "string"
	case ValueNumber:
		return "number"
	case ValueBool:
		return "boolean"
	case ValueList:
		return "list"
	}
	return "unknown"
}

// Value represents a literal operand: a string, number, boolean, or a
// flat list of scalar values. Pos is the byte offset of the literal in
// the filter string.
type Value struct {
	Kind ValueKind
	Str  string
	Num  decimal.Decimal
	Bool bool
	List []Value
	Pos  int
}

// StringValue builds a string literal value.
func StringValue(s string) Value {
	return Value{Kind: ValueString, Str: s}
}

// NumberValue builds a numeric literal value.
func NumberValue(d decimal.Decimal) Value {
	return Value{Kind: ValueNumber, Num: d}
}

// BoolValue builds a boolean literal value.
func BoolValue(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

// ListValue builds a list literal from scalar values.
func ListValue(values ...Value) Value {
	return Value{Kind: ValueList, List: values}
}
