// Package expr defines a lazy, immutable column expression algebra.
//
// Expressions describe column-wise computations (arithmetic, comparisons,
// aggregations, rolling windows, ordering, null handling, casts) as a tree
// of value nodes. Nothing is computed at construction time: a tree is only
// evaluated when handed to an execution engine, or rendered as text for
// plan inspection.
//
// Nodes are never mutated after construction. A node may appear as the
// operand of any number of parents, so trees are cheap to share between
// goroutines.
package expr

import (
	"fmt"
	"time"
)

// ExprType discriminates the closed set of node variants.
type ExprType int

const (
	ExprLiteral ExprType = iota
	ExprColumn
	ExprUnary
	ExprBinary
	ExprConditional
	ExprAggregation
	ExprWindow
	ExprCumulative
	ExprSort
	ExprArgSort
	ExprDistinct
	ExprCast
	ExprAlias
	ExprSlice
	ExprHead
	ExprTail
)

// Expr is a node in a lazy expression tree.
type Expr interface {
	Type() ExprType
	String() string
}

// LiteralExpr is a typed scalar leaf. A nil value is the null literal.
type LiteralExpr struct {
	value interface{}
}

// Lit wraps a scalar as a literal leaf. Supported scalar types are int,
// int32, int64, float32, float64, string, bool, time.Time and nil (null).
// Temporal values are normalized to UTC, the canonical in-process calendar
// representation; widths below 64 bits are widened on evaluation.
func Lit(value interface{}) *LiteralExpr {
	if t, ok := value.(time.Time); ok {
		value = t.UTC()
	}
	return &LiteralExpr{value: value}
}

func (l *LiteralExpr) Type() ExprType { return ExprLiteral }

func (l *LiteralExpr) String() string {
	if l.value == nil {
		return "lit(null)"
	}
	return fmt.Sprintf("lit(%v)", l.value)
}

// Value returns the wrapped scalar (nil for the null literal).
func (l *LiteralExpr) Value() interface{} { return l.value }

// IsNull reports whether this is the null literal.
func (l *LiteralExpr) IsNull() bool { return l.value == nil }

// ColumnExpr is a leaf referencing a named input column. The name is
// resolved at evaluation time; a missing column is an evaluation error,
// not a construction error.
type ColumnExpr struct {
	name string
}

// Col creates a column reference.
func Col(name string) *ColumnExpr { return &ColumnExpr{name: name} }

func (c *ColumnExpr) Type() ExprType { return ExprColumn }
func (c *ColumnExpr) String() string { return fmt.Sprintf("col(%s)", c.name) }
func (c *ColumnExpr) Name() string   { return c.name }

// UnaryOp identifies a unary operation.
type UnaryOp int

const (
	UnaryNot UnaryOp = iota
	UnaryIsNull
	UnaryIsNotNull
	UnaryReverse
	UnaryForwardFill
	UnaryBackwardFill
)

func (op UnaryOp) name() string {
	switch op {
	case UnaryNot:
		return "not"
	case UnaryIsNull:
		return "is_null"
	case UnaryIsNotNull:
		return "is_not_null"
	case UnaryReverse:
		return "reverse"
	case UnaryForwardFill:
		return "forward_fill"
	case UnaryBackwardFill:
		return "backward_fill"
	default:
		return "unknown"
	}
}

// UnaryExpr applies a unary operation to one operand.
type UnaryExpr struct {
	op      UnaryOp
	operand Expr
}

func (u *UnaryExpr) Type() ExprType { return ExprUnary }
func (u *UnaryExpr) String() string {
	return fmt.Sprintf("%s(%s)", u.op.name(), u.operand.String())
}
func (u *UnaryExpr) Op() UnaryOp   { return u.op }
func (u *UnaryExpr) Operand() Expr { return u.operand }

// Not creates a boolean negation node.
func Not(operand Expr) *UnaryExpr { return &UnaryExpr{op: UnaryNot, operand: operand} }

// IsNull creates a null-test node; the result is boolean and never null.
func IsNull(operand Expr) *UnaryExpr { return &UnaryExpr{op: UnaryIsNull, operand: operand} }

// IsNotNull creates the complementary null test.
func IsNotNull(operand Expr) *UnaryExpr { return &UnaryExpr{op: UnaryIsNotNull, operand: operand} }

// Reverse reverses element order without re-sorting.
func Reverse(operand Expr) *UnaryExpr { return &UnaryExpr{op: UnaryReverse, operand: operand} }

// BinaryOp identifies a binary operation.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpEq
	OpNeq
	OpLt
	OpLte
	OpGt
	OpGte
	OpAnd
	OpOr
)

func (op BinaryOp) symbol() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpPow:
		return "**"
	case OpEq:
		return "=="
	case OpNeq:
		return "!="
	case OpLt:
		return "<"
	case OpLte:
		return "<="
	case OpGt:
		return ">"
	case OpGte:
		return ">="
	case OpAnd:
		return "&&"
	case OpOr:
		return "||"
	default:
		return "?"
	}
}

// BinaryExpr applies a binary operation to two operands.
type BinaryExpr struct {
	left  Expr
	op    BinaryOp
	right Expr
}

func (b *BinaryExpr) Type() ExprType { return ExprBinary }
func (b *BinaryExpr) String() string {
	return fmt.Sprintf("(%s %s %s)", b.left.String(), b.op.symbol(), b.right.String())
}
func (b *BinaryExpr) Left() Expr   { return b.left }
func (b *BinaryExpr) Op() BinaryOp { return b.op }
func (b *BinaryExpr) Right() Expr  { return b.right }

func binary(left Expr, op BinaryOp, right Expr) *BinaryExpr {
	return &BinaryExpr{left: left, op: op, right: right}
}

// Arithmetic combinators.

// Add creates an addition node.
func Add(left, right Expr) *BinaryExpr { return binary(left, OpAdd, right) }

// Sub creates a subtraction node.
func Sub(left, right Expr) *BinaryExpr { return binary(left, OpSub, right) }

// Mul creates a multiplication node.
func Mul(left, right Expr) *BinaryExpr { return binary(left, OpMul, right) }

// Div creates a plain division node. There is no zero guard: the result
// follows the numeric domain (IEEE-754 for floats, null for an integer
// zero divisor). See Quotient for guarded division.
func Div(left, right Expr) *BinaryExpr { return binary(left, OpDiv, right) }

// Pow creates an exponentiation node.
func Pow(left, right Expr) *BinaryExpr { return binary(left, OpPow, right) }

// Comparison combinators. All produce boolean-typed nodes.

// Eq creates an equality comparison.
func Eq(left, right Expr) *BinaryExpr { return binary(left, OpEq, right) }

// Neq creates an inequality comparison.
func Neq(left, right Expr) *BinaryExpr { return binary(left, OpNeq, right) }

// Lt creates a less-than comparison.
func Lt(left, right Expr) *BinaryExpr { return binary(left, OpLt, right) }

// Lte creates a less-than-or-equal comparison.
func Lte(left, right Expr) *BinaryExpr { return binary(left, OpLte, right) }

// Gt creates a greater-than comparison.
func Gt(left, right Expr) *BinaryExpr { return binary(left, OpGt, right) }

// Gte creates a greater-than-or-equal comparison.
func Gte(left, right Expr) *BinaryExpr { return binary(left, OpGte, right) }

// Logical combinators. Operands must evaluate to booleans; this is
// checked at evaluation time, not construction time.

// And creates a logical conjunction.
func And(left, right Expr) *BinaryExpr { return binary(left, OpAnd, right) }

// Or creates a logical disjunction.
func Or(left, right Expr) *BinaryExpr { return binary(left, OpOr, right) }

// ConditionalExpr selects elementwise between two branches. It backs
// Coalesce, value fills, and the zero-divisor guard in Quotient.
type ConditionalExpr struct {
	predicate Expr
	then      Expr
	otherwise Expr
}

// If creates a conditional node: where predicate is true the result is
// then, elsewhere (including null predicates) it is otherwise. Both
// branches are independent pre-built expressions; no short-circuiting
// of evaluation is implied.
func If(predicate, then, otherwise Expr) *ConditionalExpr {
	return &ConditionalExpr{predicate: predicate, then: then, otherwise: otherwise}
}

func (c *ConditionalExpr) Type() ExprType { return ExprConditional }
func (c *ConditionalExpr) String() string {
	return fmt.Sprintf("when(%s) then(%s) otherwise(%s)",
		c.predicate.String(), c.then.String(), c.otherwise.String())
}
func (c *ConditionalExpr) Predicate() Expr { return c.predicate }
func (c *ConditionalExpr) Then() Expr      { return c.then }
func (c *ConditionalExpr) Otherwise() Expr { return c.otherwise }

// Derived operators. These compose existing variants rather than adding
// node kinds, so the variant set stays closed.

// Quotient divides left by right, substituting null wherever the divisor
// is zero. The guard is explicit, not inherited from the numeric domain.
func Quotient(left, right Expr) Expr {
	guarded := If(Eq(right, Lit(int64(0))), Lit(nil), right)
	return Div(left, guarded)
}

// Remainder computes left - right*Quotient(left, right). It reuses the
// quotient's zero guard, so remainder and quotient are null at exactly
// the same positions.
func Remainder(left, right Expr) Expr {
	return Sub(left, Mul(right, Quotient(left, right)))
}

// Coalesce yields left wherever left is non-null, and right elsewhere.
func Coalesce(left, right Expr) Expr {
	return If(IsNotNull(left), left, right)
}

// FillMissingWithValue substitutes an expression-valued default at the
// null positions of operand.
func FillMissingWithValue(operand, value Expr) Expr {
	return If(IsNotNull(operand), operand, value)
}

// Fill strategy names accepted by FillMissing.
const (
	FillForward  = "forward"
	FillBackward = "backward"
	FillMin      = "min"
	FillMax      = "max"
	FillMean     = "mean"
)

// FillMissing replaces nulls in operand using the named strategy.
// "forward" and "backward" propagate the nearest non-null value in that
// direction; "min", "max" and "mean" replace every null with the single
// full-column reduction. Any other strategy is a construction error.
func FillMissing(operand Expr, strategy string) (Expr, error) {
	switch strategy {
	case FillForward:
		return &UnaryExpr{op: UnaryForwardFill, operand: operand}, nil
	case FillBackward:
		return &UnaryExpr{op: UnaryBackwardFill, operand: operand}, nil
	case FillMin:
		return FillMissingWithValue(operand, Min(operand)), nil
	case FillMax:
		return FillMissingWithValue(operand, Max(operand)), nil
	case FillMean:
		return FillMissingWithValue(operand, Mean(operand)), nil
	default:
		return nil, NewConstructionError("FillMissing",
			fmt.Sprintf("unknown fill strategy %q", strategy))
	}
}

// Peaks returns a boolean mask that is true wherever an element equals
// the global min ("min") or max ("max") reduction of operand. This is a
// global-equality test, not positional local-extrema detection.
func Peaks(operand Expr, kind string) (Expr, error) {
	switch kind {
	case "min":
		return Eq(operand, Min(operand)), nil
	case "max":
		return Eq(operand, Max(operand)), nil
	default:
		return nil, NewConstructionError("Peaks",
			fmt.Sprintf("unknown peak kind %q", kind))
	}
}

// AllEqual reduces to a single boolean stating whether every paired
// element of left and right is equal.
func AllEqual(left, right Expr) Expr {
	return All(Eq(left, right))
}

// SortExpr sorts operand values into a total order. Nulls sort last
// regardless of direction.
type SortExpr struct {
	operand    Expr
	descending bool
}

// Sort creates a sorting node.
func Sort(operand Expr, descending bool) *SortExpr {
	return &SortExpr{operand: operand, descending: descending}
}

func (s *SortExpr) Type() ExprType { return ExprSort }
func (s *SortExpr) String() string {
	return fmt.Sprintf("sort(%s, descending=%t)", s.operand.String(), s.descending)
}
func (s *SortExpr) Operand() Expr    { return s.operand }
func (s *SortExpr) Descending() bool { return s.descending }

// ArgSortExpr yields the index permutation that would produce Sort's
// order. Its null placement is fixed to nulls-first, independently of
// SortExpr's nulls-last policy; the divergence is preserved as
// implemented upstream pending clarification.
type ArgSortExpr struct {
	operand    Expr
	descending bool
}

// ArgSort creates an index-permutation node.
func ArgSort(operand Expr, descending bool) *ArgSortExpr {
	return &ArgSortExpr{operand: operand, descending: descending}
}

func (a *ArgSortExpr) Type() ExprType { return ExprArgSort }
func (a *ArgSortExpr) String() string {
	return fmt.Sprintf("argsort(%s, descending=%t)", a.operand.String(), a.descending)
}
func (a *ArgSortExpr) Operand() Expr    { return a.operand }
func (a *ArgSortExpr) Descending() bool { return a.descending }

// DistinctExpr deduplicates operand values. With stable=true the result
// preserves first-occurrence order; with stable=false only the value set
// is guaranteed.
type DistinctExpr struct {
	operand Expr
	stable  bool
}

// Distinct creates a deduplication node.
func Distinct(operand Expr, stable bool) *DistinctExpr {
	return &DistinctExpr{operand: operand, stable: stable}
}

func (d *DistinctExpr) Type() ExprType { return ExprDistinct }
func (d *DistinctExpr) String() string {
	if d.stable {
		return fmt.Sprintf("distinct(%s)", d.operand.String())
	}
	return fmt.Sprintf("unordered_distinct(%s)", d.operand.String())
}
func (d *DistinctExpr) Operand() Expr { return d.operand }
func (d *DistinctExpr) Stable() bool  { return d.stable }

// CastType identifies a cast target.
type CastType int

const (
	CastInteger CastType = iota
	CastFloat
	CastString
	CastBoolean
	CastDate
	CastDatetime
)

var castNames = map[string]CastType{
	"integer":  CastInteger,
	"float":    CastFloat,
	"string":   CastString,
	"boolean":  CastBoolean,
	"date":     CastDate,
	"datetime": CastDatetime,
}

func (t CastType) name() string {
	for name, ct := range castNames {
		if ct == t {
			return name
		}
	}
	return "unknown"
}

// CastExpr declares an intended type coercion of operand.
type CastExpr struct {
	operand Expr
	target  CastType
}

// Cast creates a coercion node. The target must be one of "integer",
// "float", "string", "boolean", "date" or "datetime"; anything else is
// a construction error raised before any evaluation.
func Cast(operand Expr, target string) (*CastExpr, error) {
	ct, ok := castNames[target]
	if !ok {
		return nil, NewConstructionError("Cast",
			fmt.Sprintf("unknown cast target type %q", target))
	}
	return &CastExpr{operand: operand, target: ct}, nil
}

func (c *CastExpr) Type() ExprType { return ExprCast }
func (c *CastExpr) String() string {
	return fmt.Sprintf("cast(%s, %s)", c.operand.String(), c.target.name())
}
func (c *CastExpr) Operand() Expr      { return c.operand }
func (c *CastExpr) Target() CastType   { return c.target }
func (c *CastExpr) TargetName() string { return c.target.name() }

// AliasExpr renames a node's output label without changing its value.
type AliasExpr struct {
	operand Expr
	name    string
}

// Alias creates a renaming node.
func Alias(operand Expr, name string) *AliasExpr {
	return &AliasExpr{operand: operand, name: name}
}

func (a *AliasExpr) Type() ExprType { return ExprAlias }
func (a *AliasExpr) String() string {
	return fmt.Sprintf("alias(%s, %q)", a.operand.String(), a.name)
}
func (a *AliasExpr) Operand() Expr { return a.operand }
func (a *AliasExpr) Name() string  { return a.name }

// SliceExpr selects a contiguous run of elements. A negative offset
// counts from the end of the sequence.
type SliceExpr struct {
	operand Expr
	offset  int64
	length  int64
}

// Slice creates a slicing node.
func Slice(operand Expr, offset, length int64) *SliceExpr {
	return &SliceExpr{operand: operand, offset: offset, length: length}
}

func (s *SliceExpr) Type() ExprType { return ExprSlice }
func (s *SliceExpr) String() string {
	return fmt.Sprintf("slice(%s, offset=%d, length=%d)", s.operand.String(), s.offset, s.length)
}
func (s *SliceExpr) Operand() Expr { return s.operand }
func (s *SliceExpr) Offset() int64 { return s.offset }
func (s *SliceExpr) Length() int64 { return s.length }

// HeadExpr keeps at most n leading elements; if n exceeds the sequence
// size the whole sequence is returned, never an error.
type HeadExpr struct {
	operand Expr
	n       int64
}

// Head creates a head node.
func Head(operand Expr, n int64) *HeadExpr { return &HeadExpr{operand: operand, n: n} }

func (h *HeadExpr) Type() ExprType { return ExprHead }
func (h *HeadExpr) String() string {
	return fmt.Sprintf("head(%s, %d)", h.operand.String(), h.n)
}
func (h *HeadExpr) Operand() Expr { return h.operand }
func (h *HeadExpr) N() int64      { return h.n }

// TailExpr keeps at most n trailing elements, clamped like HeadExpr.
type TailExpr struct {
	operand Expr
	n       int64
}

// Tail creates a tail node.
func Tail(operand Expr, n int64) *TailExpr { return &TailExpr{operand: operand, n: n} }

func (t *TailExpr) Type() ExprType { return ExprTail }
func (t *TailExpr) String() string {
	return fmt.Sprintf("tail(%s, %d)", t.operand.String(), t.n)
}
func (t *TailExpr) Operand() Expr { return t.operand }
func (t *TailExpr) N() int64      { return t.n }

// OutputName resolves the label an evaluated expression carries:
// the innermost alias if one is set, otherwise the leftmost column
// name, otherwise "literal".
func OutputName(e Expr) string {
	switch ex := e.(type) {
	case *AliasExpr:
		return ex.name
	case *ColumnExpr:
		return ex.name
	case *LiteralExpr:
		return "literal"
	case *UnaryExpr:
		return OutputName(ex.operand)
	case *BinaryExpr:
		return OutputName(ex.left)
	case *ConditionalExpr:
		return OutputName(ex.then)
	case *AggregationExpr:
		return OutputName(ex.operand)
	case *WindowExpr:
		return OutputName(ex.operand)
	case *CumulativeExpr:
		return OutputName(ex.operand)
	case *SortExpr:
		return OutputName(ex.operand)
	case *ArgSortExpr:
		return OutputName(ex.operand)
	case *DistinctExpr:
		return OutputName(ex.operand)
	case *CastExpr:
		return OutputName(ex.operand)
	case *SliceExpr:
		return OutputName(ex.operand)
	case *HeadExpr:
		return OutputName(ex.operand)
	case *TailExpr:
		return OutputName(ex.operand)
	default:
		return "literal"
	}
}
