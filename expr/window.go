package expr

import (
	"fmt"
	"strings"
)

// WindowKind identifies a rolling reduction.
type WindowKind int

const (
	WindowMax WindowKind = iota
	WindowMin
	WindowSum
	WindowMean
)

func (k WindowKind) name() string {
	switch k {
	case WindowMax:
		return "window_max"
	case WindowMin:
		return "window_min"
	case WindowSum:
		return "window_sum"
	case WindowMean:
		return "window_mean"
	default:
		return "unknown"
	}
}

// WindowExpr computes a reduction over a sliding subsequence of fixed
// size. Weights, if given, multiply elementwise within each window
// before reducing. minPeriods is the minimum count of non-null values a
// window must contain to produce a non-null result; it defaults to the
// window size. With center=true each window is centered on its index
// instead of trailing it.
type WindowExpr struct {
	operand    Expr
	kind       WindowKind
	size       int
	weights    []float64
	minPeriods int
	center     bool
}

func newWindow(operand Expr, kind WindowKind, size int, weights []float64, minPeriods int, center bool) (*WindowExpr, error) {
	op := kind.name()
	if size < 1 {
		return nil, NewConstructionError(op,
			fmt.Sprintf("window size must be at least 1, got %d", size))
	}
	if weights != nil && len(weights) != size {
		return nil, NewConstructionError(op,
			fmt.Sprintf("weights length %d does not match window size %d", len(weights), size))
	}
	if minPeriods < 0 {
		return nil, NewConstructionError(op,
			fmt.Sprintf("min_periods must not be negative, got %d", minPeriods))
	}
	if minPeriods > size {
		return nil, NewConstructionError(op,
			fmt.Sprintf("min_periods %d exceeds window size %d", minPeriods, size))
	}
	if minPeriods == 0 {
		minPeriods = size
	}
	var owned []float64
	if weights != nil {
		owned = make([]float64, len(weights))
		copy(owned, weights)
	}
	return &WindowExpr{
		operand:    operand,
		kind:       kind,
		size:       size,
		weights:    owned,
		minPeriods: minPeriods,
		center:     center,
	}, nil
}

// RollingMax creates a sliding-maximum node. A minPeriods of zero means
// "default to the window size"; weights may be nil.
func RollingMax(operand Expr, size int, weights []float64, minPeriods int, center bool) (*WindowExpr, error) {
	return newWindow(operand, WindowMax, size, weights, minPeriods, center)
}

// RollingMin creates a sliding-minimum node.
func RollingMin(operand Expr, size int, weights []float64, minPeriods int, center bool) (*WindowExpr, error) {
	return newWindow(operand, WindowMin, size, weights, minPeriods, center)
}

// RollingSum creates a sliding-sum node.
func RollingSum(operand Expr, size int, weights []float64, minPeriods int, center bool) (*WindowExpr, error) {
	return newWindow(operand, WindowSum, size, weights, minPeriods, center)
}

// RollingMean creates a sliding-mean node.
func RollingMean(operand Expr, size int, weights []float64, minPeriods int, center bool) (*WindowExpr, error) {
	return newWindow(operand, WindowMean, size, weights, minPeriods, center)
}

func (w *WindowExpr) Type() ExprType { return ExprWindow }

func (w *WindowExpr) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(%s, window_size=%d", w.kind.name(), w.operand.String(), w.size)
	if w.weights != nil {
		fmt.Fprintf(&b, ", weights=%v", w.weights)
	}
	fmt.Fprintf(&b, ", min_periods=%d, center=%t)", w.minPeriods, w.center)
	return b.String()
}

func (w *WindowExpr) Operand() Expr    { return w.operand }
func (w *WindowExpr) Kind() WindowKind { return w.kind }
func (w *WindowExpr) Size() int        { return w.size }

// Weights returns the elementwise window weights, or nil. The returned
// slice must not be modified.
func (w *WindowExpr) Weights() []float64 { return w.weights }
func (w *WindowExpr) MinPeriods() int    { return w.minPeriods }
func (w *WindowExpr) Center() bool       { return w.center }

// CumulativeKind identifies a running reduction.
type CumulativeKind int

const (
	CumulativeSumKind CumulativeKind = iota
	CumulativeMinKind
	CumulativeMaxKind
)

func (k CumulativeKind) name() string {
	switch k {
	case CumulativeSumKind:
		return "cumulative_sum"
	case CumulativeMinKind:
		return "cumulative_min"
	case CumulativeMaxKind:
		return "cumulative_max"
	default:
		return "unknown"
	}
}

// CumulativeExpr computes a running reduction over the operand. Null
// elements stay null and do not contribute to the running value. With
// reverse=true the accumulation runs from the end toward the start.
type CumulativeExpr struct {
	operand Expr
	kind    CumulativeKind
	reverse bool
}

// CumulativeSum creates a running-sum node.
func CumulativeSum(operand Expr, reverse bool) *CumulativeExpr {
	return &CumulativeExpr{operand: operand, kind: CumulativeSumKind, reverse: reverse}
}

// CumulativeMin creates a running-minimum node.
func CumulativeMin(operand Expr, reverse bool) *CumulativeExpr {
	return &CumulativeExpr{operand: operand, kind: CumulativeMinKind, reverse: reverse}
}

// CumulativeMax creates a running-maximum node.
func CumulativeMax(operand Expr, reverse bool) *CumulativeExpr {
	return &CumulativeExpr{operand: operand, kind: CumulativeMaxKind, reverse: reverse}
}

func (c *CumulativeExpr) Type() ExprType { return ExprCumulative }

func (c *CumulativeExpr) String() string {
	return fmt.Sprintf("%s(%s, reverse=%t)", c.kind.name(), c.operand.String(), c.reverse)
}

func (c *CumulativeExpr) Operand() Expr        { return c.operand }
func (c *CumulativeExpr) Kind() CumulativeKind { return c.kind }
func (c *CumulativeExpr) Reverse() bool        { return c.reverse }
