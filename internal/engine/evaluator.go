package engine

import (
	"fmt"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"golang.org/x/exp/constraints"

	"github.com/arbordata/arbor/expr"
)

// Evaluator binds expression trees to concrete columns and produces
// Arrow arrays. It holds no per-evaluation state, so a single Evaluator
// may serve concurrent goroutines.
type Evaluator struct {
	mem memory.Allocator
}

// New creates an evaluator. A nil allocator falls back to the Go
// allocator.
func New(mem memory.Allocator) *Evaluator {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	return &Evaluator{mem: mem}
}

// Evaluate runs an expression tree against the named input columns.
func (e *Evaluator) Evaluate(ex expr.Expr, columns map[string]arrow.Array) (arrow.Array, error) {
	c, err := e.eval(ex, columns)
	if err != nil {
		return nil, err
	}
	return c.toArrow(e.mem), nil
}

// EvaluateBoolean runs a predicate tree and requires a boolean result.
func (e *Evaluator) EvaluateBoolean(ex expr.Expr, columns map[string]arrow.Array) (arrow.Array, error) {
	arr, err := e.Evaluate(ex, columns)
	if err != nil {
		return nil, err
	}
	if _, ok := arr.(*array.Boolean); !ok {
		dt := arr.DataType()
		arr.Release()
		return nil, expr.NewTypeMismatchError("filter",
			fmt.Sprintf("predicate must evaluate to boolean, got %s", dt))
	}
	return arr, nil
}

func (e *Evaluator) eval(ex expr.Expr, columns map[string]arrow.Array) (*column, error) {
	switch node := ex.(type) {
	case *expr.LiteralExpr:
		return literalColumn(node.Value())
	case *expr.ColumnExpr:
		arr, ok := columns[node.Name()]
		if !ok {
			return nil, expr.NewColumnNotFoundError(node.Name())
		}
		return fromArrow(arr)
	case *expr.UnaryExpr:
		return e.evalUnary(node, columns)
	case *expr.BinaryExpr:
		return e.evalBinary(node, columns)
	case *expr.ConditionalExpr:
		return e.evalConditional(node, columns)
	case *expr.AggregationExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return aggregate(operand, node.Kind(), node.QuantileValue())
	case *expr.WindowExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return rolling(operand, node)
	case *expr.CumulativeExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return cumulative(operand, node.Kind(), node.Reverse())
	case *expr.SortExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return sortValues(operand, node.Descending())
	case *expr.ArgSortExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return argSort(operand, node.Descending())
	case *expr.DistinctExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return distinct(operand, node.Stable())
	case *expr.CastExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return castColumn(operand, node.Target())
	case *expr.AliasExpr:
		// Pure relabeling; the value flows through untouched.
		return e.eval(node.Operand(), columns)
	case *expr.SliceExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return sliceColumn(operand, node.Offset(), node.Length()), nil
	case *expr.HeadExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return headColumn(operand, node.N()), nil
	case *expr.TailExpr:
		operand, err := e.eval(node.Operand(), columns)
		if err != nil {
			return nil, err
		}
		return tailColumn(operand, node.N()), nil
	default:
		return nil, expr.NewEvaluationError("evaluate",
			fmt.Sprintf("unsupported expression type %T", ex))
	}
}

func (e *Evaluator) evalUnary(node *expr.UnaryExpr, columns map[string]arrow.Array) (*column, error) {
	operand, err := e.eval(node.Operand(), columns)
	if err != nil {
		return nil, err
	}

	switch node.Op() {
	case expr.UnaryNot:
		if operand.kind != kindBool && operand.kind != kindNull {
			return nil, expr.NewTypeMismatchError("not",
				fmt.Sprintf("operand must be boolean, got %s", operand.kind))
		}
		out := newColumn(kindBool, operand.len())
		for i := 0; i < operand.len(); i++ {
			if operand.kind == kindBool && operand.valid[i] {
				out.valid[i] = true
				out.bools[i] = !operand.bools[i]
			}
		}
		return out, nil
	case expr.UnaryIsNull, expr.UnaryIsNotNull:
		want := node.Op() == expr.UnaryIsNotNull
		out := newColumn(kindBool, operand.len())
		for i := 0; i < operand.len(); i++ {
			out.valid[i] = true
			out.bools[i] = operand.valid[i] == want
		}
		return out, nil
	case expr.UnaryReverse:
		return reverseColumn(operand), nil
	case expr.UnaryForwardFill:
		return directionalFill(operand, true), nil
	case expr.UnaryBackwardFill:
		return directionalFill(operand, false), nil
	default:
		return nil, expr.NewEvaluationError("evaluate",
			fmt.Sprintf("unsupported unary operation %d", node.Op()))
	}
}

func (e *Evaluator) evalBinary(node *expr.BinaryExpr, columns map[string]arrow.Array) (*column, error) {
	left, err := e.eval(node.Left(), columns)
	if err != nil {
		return nil, fmt.Errorf("evaluating left operand: %w", err)
	}
	right, err := e.eval(node.Right(), columns)
	if err != nil {
		return nil, fmt.Errorf("evaluating right operand: %w", err)
	}

	switch node.Op() {
	case expr.OpAdd, expr.OpSub, expr.OpMul, expr.OpDiv, expr.OpPow:
		return arithmetic(left, right, node.Op())
	case expr.OpEq, expr.OpNeq, expr.OpLt, expr.OpLte, expr.OpGt, expr.OpGte:
		return comparison(left, right, node.Op())
	case expr.OpAnd, expr.OpOr:
		return logical(left, right, node.Op())
	default:
		return nil, expr.NewEvaluationError("evaluate",
			fmt.Sprintf("unsupported binary operation %d", node.Op()))
	}
}

func arithmetic(left, right *column, op expr.BinaryOp) (*column, error) {
	opName := map[expr.BinaryOp]string{
		expr.OpAdd: "add", expr.OpSub: "subtract", expr.OpMul: "multiply",
		expr.OpDiv: "divide", expr.OpPow: "pow",
	}[op]

	left, right, err := align(left, right, opName)
	if err != nil {
		return nil, err
	}
	n := left.len()

	// A null operand nullifies the whole result.
	if left.kind == kindNull || right.kind == kindNull {
		return nullColumn(n), nil
	}
	if !isNumeric(left.kind) || !isNumeric(right.kind) {
		return nil, expr.NewTypeMismatchError(opName,
			fmt.Sprintf("operands must be numeric, got %s and %s", left.kind, right.kind))
	}

	// Pow always lands in the float domain; otherwise mixed operands
	// promote int to float.
	if op == expr.OpPow || left.kind == kindFloat || right.kind == kindFloat {
		lf, rf := left.asFloat(), right.asFloat()
		out := newColumn(kindFloat, n)
		for i := 0; i < n; i++ {
			if !lf.valid[i] || !rf.valid[i] {
				continue
			}
			out.valid[i] = true
			switch op {
			case expr.OpAdd:
				out.floats[i] = lf.floats[i] + rf.floats[i]
			case expr.OpSub:
				out.floats[i] = lf.floats[i] - rf.floats[i]
			case expr.OpMul:
				out.floats[i] = lf.floats[i] * rf.floats[i]
			case expr.OpDiv:
				// IEEE-754: zero divisors produce Inf/NaN, not errors.
				out.floats[i] = lf.floats[i] / rf.floats[i]
			case expr.OpPow:
				out.floats[i] = math.Pow(lf.floats[i], rf.floats[i])
			}
		}
		return out, nil
	}

	out := newColumn(kindInt, n)
	for i := 0; i < n; i++ {
		if !left.valid[i] || !right.valid[i] {
			continue
		}
		switch op {
		case expr.OpAdd:
			out.ints[i] = left.ints[i] + right.ints[i]
		case expr.OpSub:
			out.ints[i] = left.ints[i] - right.ints[i]
		case expr.OpMul:
			out.ints[i] = left.ints[i] * right.ints[i]
		case expr.OpDiv:
			// Integers have no Inf; a zero divisor yields null.
			if right.ints[i] == 0 {
				continue
			}
			out.ints[i] = left.ints[i] / right.ints[i]
		}
		out.valid[i] = true
	}
	return out, nil
}

func comparison(left, right *column, op expr.BinaryOp) (*column, error) {
	opName := map[expr.BinaryOp]string{
		expr.OpEq: "eq", expr.OpNeq: "neq", expr.OpLt: "lt",
		expr.OpLte: "lte", expr.OpGt: "gt", expr.OpGte: "gte",
	}[op]

	left, right, err := align(left, right, opName)
	if err != nil {
		return nil, err
	}
	n := left.len()
	out := newColumn(kindBool, n)

	if left.kind == kindNull || right.kind == kindNull {
		return out, nil
	}

	cmp, err := comparator(left, right, opName)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		if !left.valid[i] || !right.valid[i] {
			continue
		}
		c := cmp(i)
		out.valid[i] = true
		switch op {
		case expr.OpEq:
			out.bools[i] = c == 0
		case expr.OpNeq:
			out.bools[i] = c != 0
		case expr.OpLt:
			out.bools[i] = c < 0
		case expr.OpLte:
			out.bools[i] = c <= 0
		case expr.OpGt:
			out.bools[i] = c > 0
		case expr.OpGte:
			out.bools[i] = c >= 0
		}
	}
	return out, nil
}

// comparator returns an elementwise three-way comparison for two
// aligned columns of compatible kinds.
func comparator(left, right *column, opName string) (func(int) int, error) {
	switch {
	case left.kind == kindInt && right.kind == kindInt:
		return func(i int) int { return compareOrdered(left.ints[i], right.ints[i]) }, nil
	case isNumeric(left.kind) && isNumeric(right.kind):
		lf, rf := left.asFloat(), right.asFloat()
		return func(i int) int { return compareOrdered(lf.floats[i], rf.floats[i]) }, nil
	case left.kind == kindString && right.kind == kindString:
		return func(i int) int { return compareOrdered(left.strs[i], right.strs[i]) }, nil
	case left.kind == kindTime && right.kind == kindTime:
		return func(i int) int { return compareOrdered(left.times[i], right.times[i]) }, nil
	case left.kind == kindBool && right.kind == kindBool:
		return func(i int) int {
			return compareOrdered(boolToInt(left.bools[i]), boolToInt(right.bools[i]))
		}, nil
	default:
		return nil, expr.NewTypeMismatchError(opName,
			fmt.Sprintf("cannot compare %s with %s", left.kind, right.kind))
	}
}

func logical(left, right *column, op expr.BinaryOp) (*column, error) {
	opName := "and"
	if op == expr.OpOr {
		opName = "or"
	}

	left, right, err := align(left, right, opName)
	if err != nil {
		return nil, err
	}
	for _, c := range []*column{left, right} {
		if c.kind != kindBool && c.kind != kindNull {
			return nil, expr.NewTypeMismatchError(opName,
				fmt.Sprintf("operands must be boolean, got %s", c.kind))
		}
	}

	n := left.len()
	out := newColumn(kindBool, n)
	if left.kind == kindNull || right.kind == kindNull {
		return out, nil
	}
	for i := 0; i < n; i++ {
		if !left.valid[i] || !right.valid[i] {
			continue
		}
		out.valid[i] = true
		if op == expr.OpAnd {
			out.bools[i] = left.bools[i] && right.bools[i]
		} else {
			out.bools[i] = left.bools[i] || right.bools[i]
		}
	}
	return out, nil
}

func (e *Evaluator) evalConditional(node *expr.ConditionalExpr, columns map[string]arrow.Array) (*column, error) {
	pred, err := e.eval(node.Predicate(), columns)
	if err != nil {
		return nil, fmt.Errorf("evaluating predicate: %w", err)
	}
	then, err := e.eval(node.Then(), columns)
	if err != nil {
		return nil, fmt.Errorf("evaluating then branch: %w", err)
	}
	otherwise, err := e.eval(node.Otherwise(), columns)
	if err != nil {
		return nil, fmt.Errorf("evaluating otherwise branch: %w", err)
	}

	if pred.kind != kindBool && pred.kind != kindNull {
		return nil, expr.NewTypeMismatchError("when",
			fmt.Sprintf("predicate must be boolean, got %s", pred.kind))
	}

	n := pred.len()
	if then.len() > n {
		n = then.len()
	}
	if otherwise.len() > n {
		n = otherwise.len()
	}
	for _, c := range []**column{&pred, &then, &otherwise} {
		if (*c).len() != n {
			if (*c).len() != 1 {
				return nil, expr.NewEvaluationError("when",
					fmt.Sprintf("operand lengths differ: %d vs %d", (*c).len(), n))
			}
			*c = (*c).expand(n)
		}
	}

	outKind, err := unifyBranchKinds(then.kind, otherwise.kind)
	if err != nil {
		return nil, err
	}
	if outKind == kindFloat {
		then, otherwise = then.asFloat(), otherwise.asFloat()
	}
	if outKind == kindNull {
		return nullColumn(n), nil
	}

	out := newColumn(outKind, n)
	for i := 0; i < n; i++ {
		// A null predicate selects the otherwise branch, matching the
		// when/then/otherwise semantics the guard operators rely on.
		if pred.kind == kindBool && pred.valid[i] && pred.bools[i] {
			if then.kind != kindNull {
				out.copyElem(i, then, i)
			}
		} else if otherwise.kind != kindNull {
			out.copyElem(i, otherwise, i)
		}
	}
	return out, nil
}

func unifyBranchKinds(a, b kind) (kind, error) {
	switch {
	case a == b:
		return a, nil
	case a == kindNull:
		return b, nil
	case b == kindNull:
		return a, nil
	case isNumeric(a) && isNumeric(b):
		return kindFloat, nil
	default:
		return kindNull, expr.NewTypeMismatchError("when",
			fmt.Sprintf("branch types %s and %s are incompatible", a, b))
	}
}

func isNumeric(k kind) bool { return k == kindInt || k == kindFloat }

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// compareOrdered is a NaN-safe three-way comparison: NaN sorts after
// every number and equal to itself, keeping sort comparators
// consistent.
func compareOrdered[T constraints.Ordered](a, b T) int {
	if af, ok := any(a).(float64); ok {
		bf := any(b).(float64)
		an, bn := math.IsNaN(af), math.IsNaN(bf)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		}
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
