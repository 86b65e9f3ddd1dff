package filter

import "strings"

// Print renders an AST back into canonical filter text. Parsing the
// result yields a structurally identical AST. Parentheses are emitted
// only where precedence requires them.
func Print(expr Expr) string {
	var sb strings.Builder
	printExpr(&sb, expr)
	return sb.String()
}

func printExpr(sb *strings.Builder, expr Expr) {
	switch e := expr.(type) {
	case *MatchAllExpr:
		// The empty filter matches everything.

	case *OrExpr:
		printExpr(sb, e.Left)
		sb.WriteString(" OR ")
		printOrRight(sb, e.Right)

	case *AndExpr:
		printAndLeft(sb, e.Left)
		sb.WriteString(" AND ")
		printAndRight(sb, e.Right)

	case *NotExpr:
		sb.WriteString("NOT ")
		printNotOperand(sb, e.Operand)

	case *ComparisonExpr:
		sb.WriteString(e.Property.Name())
		sb.WriteString(" ")
		sb.WriteString(e.Op.String())
		sb.WriteString(" ")
		printValue(sb, e.Value)

	case *LengthExpr:
		sb.WriteString("LENGTH(")
		sb.WriteString(e.Property.Name())
		sb.WriteString(") ")
		sb.WriteString(e.Op.String())
		sb.WriteString(" ")
		printValue(sb, e.Value)

	case *KnownExpr:
		sb.WriteString(e.Property.Name())
		sb.WriteString(" IS KNOWN")

	case *UnknownExpr:
		sb.WriteString(e.Property.Name())
		sb.WriteString(" IS UNKNOWN")
	}
}

// printOrRight prints the right child of an Or node. OR is
// left-associative, so a right-nested Or must be parenthesized to
// survive reparsing; AND binds tighter and needs none.
func printOrRight(sb *strings.Builder, expr Expr) {
	switch expr.(type) {
	case *OrExpr:
		printParenthesized(sb, expr)
	default:
		printExpr(sb, expr)
	}
}

// printAndLeft prints the left child of an And node. A left-nested And
// reparses identically; an Or child must be parenthesized.
func printAndLeft(sb *strings.Builder, expr Expr) {
	switch expr.(type) {
	case *OrExpr:
		printParenthesized(sb, expr)
	default:
		printExpr(sb, expr)
	}
}

// printAndRight prints the right child of an And node. A right-nested
// And or any Or must be parenthesized to survive reparsing.
func printAndRight(sb *strings.Builder, expr Expr) {
	switch expr.(type) {
	case *OrExpr, *AndExpr:
		printParenthesized(sb, expr)
	default:
		printExpr(sb, expr)
	}
}

// printNotOperand prints the operand of a Not node. NOT binds tighter
// than AND/OR, so boolean operands need parentheses.
func printNotOperand(sb *strings.Builder, expr Expr) {
	switch expr.(type) {
	case *OrExpr, *AndExpr:
		printParenthesized(sb, expr)
	default:
		printExpr(sb, expr)
	}
}

func printParenthesized(sb *strings.Builder, expr Expr) {
	sb.WriteString("(")
	printExpr(sb, expr)
	sb.WriteString(")")
}

func printValue(sb *strings.Builder, value Value) {
	switch value.Kind {
	case ValueString:
		sb.WriteString(quoteString(value.Str))
	case ValueNumber:
		sb.WriteString(value.Num.String())
	case ValueBool:
		if value.Bool {
			sb.WriteString("TRUE")
		} else {
			sb.WriteString("FALSE")
		}
	case ValueList:
		for i, v := range value.List {
			if i > 0 {
				sb.WriteString(",")
			}
			printValue(sb, v)
		}
	}
}

// quoteString renders a string literal with backslash escapes for
// quotes and backslashes.
func quoteString(s string) string {
	escaped := strings.NewReplacer("\\", "\\\\", "\"", "\\\"").Replace(s)
	return "\"" + escaped + "\""
}
