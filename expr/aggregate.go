package expr

import "fmt"

// AggregationType identifies a reduction kind.
type AggregationType int

const (
	AggSum AggregationType = iota
	AggMin
	AggMax
	AggMean
	AggMedian
	AggVar
	AggStd
	AggQuantile
	AggCount
	AggNDistinct
	AggFirst
	AggLast
	AggAll
)

func (t AggregationType) name() string {
	switch t {
	case AggSum:
		return "sum"
	case AggMin:
		return "min"
	case AggMax:
		return "max"
	case AggMean:
		return "mean"
	case AggMedian:
		return "median"
	case AggVar:
		return "var"
	case AggStd:
		return "std"
	case AggQuantile:
		return "quantile"
	case AggCount:
		return "count"
	case AggNDistinct:
		return "n_distinct"
	case AggFirst:
		return "first"
	case AggLast:
		return "last"
	case AggAll:
		return "all"
	default:
		return "unknown"
	}
}

// AggregationExpr reduces an operand sequence to a single scalar.
//
// Var and Std always use the sample adjustment (ddof = 1). Quantile
// always uses nearest-value interpolation; neither is configurable yet.
type AggregationExpr struct {
	operand  Expr
	kind     AggregationType
	quantile float64
}

func (a *AggregationExpr) Type() ExprType { return ExprAggregation }

func (a *AggregationExpr) String() string {
	if a.kind == AggQuantile {
		return fmt.Sprintf("quantile(%s, %v)", a.operand.String(), a.quantile)
	}
	return fmt.Sprintf("%s(%s)", a.kind.name(), a.operand.String())
}

func (a *AggregationExpr) Operand() Expr         { return a.operand }
func (a *AggregationExpr) Kind() AggregationType { return a.kind }

// QuantileValue returns q for quantile aggregations; zero otherwise.
func (a *AggregationExpr) QuantileValue() float64 { return a.quantile }

func aggregate(operand Expr, kind AggregationType) *AggregationExpr {
	return &AggregationExpr{operand: operand, kind: kind}
}

// Sum reduces to the total of the non-null values.
func Sum(operand Expr) *AggregationExpr { return aggregate(operand, AggSum) }

// Min reduces to the smallest non-null value.
func Min(operand Expr) *AggregationExpr { return aggregate(operand, AggMin) }

// Max reduces to the largest non-null value.
func Max(operand Expr) *AggregationExpr { return aggregate(operand, AggMax) }

// Mean reduces to the arithmetic mean of the non-null values.
func Mean(operand Expr) *AggregationExpr { return aggregate(operand, AggMean) }

// Median reduces to the median of the non-null values.
func Median(operand Expr) *AggregationExpr { return aggregate(operand, AggMedian) }

// Var reduces to the sample variance (ddof = 1).
func Var(operand Expr) *AggregationExpr { return aggregate(operand, AggVar) }

// Std reduces to the sample standard deviation (ddof = 1).
func Std(operand Expr) *AggregationExpr { return aggregate(operand, AggStd) }

// Quantile reduces to the q-quantile using nearest-value interpolation.
func Quantile(operand Expr, q float64) *AggregationExpr {
	return &AggregationExpr{operand: operand, kind: AggQuantile, quantile: q}
}

// Count reduces to the number of non-null values.
func Count(operand Expr) *AggregationExpr { return aggregate(operand, AggCount) }

// NDistinct reduces to the number of distinct values; a null counts as
// one distinct value.
func NDistinct(operand Expr) *AggregationExpr { return aggregate(operand, AggNDistinct) }

// First reduces to the first element, null if the sequence is empty.
func First(operand Expr) *AggregationExpr { return aggregate(operand, AggFirst) }

// Last reduces to the last element, null if the sequence is empty.
func Last(operand Expr) *AggregationExpr { return aggregate(operand, AggLast) }

// All reduces a boolean sequence to whether every non-null element is
// true; an empty sequence reduces to true.
func All(operand Expr) *AggregationExpr { return aggregate(operand, AggAll) }
