package engine

import (
	"math"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbordata/arbor/expr"
)

func TestNumericAggregations(t *testing.T) {
	cols := map[string]arrow.Array{"x": intArray(4, 1, 3, 2)}

	assert.Equal(t, []interface{}{int64(10)}, evalOn(t, expr.Sum(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{int64(1)}, evalOn(t, expr.Min(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{int64(4)}, evalOn(t, expr.Max(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{2.5}, evalOn(t, expr.Mean(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{2.5}, evalOn(t, expr.Median(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{int64(4)}, evalOn(t, expr.Count(expr.Col("x")), cols))
}

func TestAggregationsSkipNulls(t *testing.T) {
	cols := map[string]arrow.Array{
		"x": intArrayN([]int64{4, 0, 2}, []bool{true, false, true}),
	}

	assert.Equal(t, []interface{}{int64(6)}, evalOn(t, expr.Sum(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{3.0}, evalOn(t, expr.Mean(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{int64(2)}, evalOn(t, expr.Count(expr.Col("x")), cols))
}

func TestVarianceAndStddevAreSampleAdjusted(t *testing.T) {
	cols := map[string]arrow.Array{"x": floatArray(2, 4, 4, 4, 5, 5, 7, 9)}

	v := evalOn(t, expr.Var(expr.Col("x")), cols)
	s := evalOn(t, expr.Std(expr.Col("x")), cols)
	assert.InDelta(t, 32.0/7.0, v[0].(float64), 1e-12)
	assert.InDelta(t, math.Sqrt(32.0/7.0), s[0].(float64), 1e-12)

	// Fewer than two values leaves the sample adjustment undefined.
	one := map[string]arrow.Array{"x": floatArray(1)}
	assert.Equal(t, []interface{}{nil}, evalOn(t, expr.Var(expr.Col("x")), one))
}

func TestQuantileUsesNearestValue(t *testing.T) {
	cols := map[string]arrow.Array{"x": intArray(10, 20, 30, 40, 50)}

	assert.Equal(t, []interface{}{10.0}, evalOn(t, expr.Quantile(expr.Col("x"), 0), cols))
	assert.Equal(t, []interface{}{30.0}, evalOn(t, expr.Quantile(expr.Col("x"), 0.5), cols))
	assert.Equal(t, []interface{}{40.0}, evalOn(t, expr.Quantile(expr.Col("x"), 0.75), cols))
	assert.Equal(t, []interface{}{50.0}, evalOn(t, expr.Quantile(expr.Col("x"), 1), cols))
}

func TestNDistinctCountsNullOnce(t *testing.T) {
	cols := map[string]arrow.Array{
		"x": intArrayN([]int64{1, 1, 0, 2, 0}, []bool{true, true, false, true, false}),
	}

	assert.Equal(t, []interface{}{int64(3)}, evalOn(t, expr.NDistinct(expr.Col("x")), cols))
}

func TestFirstAndLastKeepNulls(t *testing.T) {
	cols := map[string]arrow.Array{
		"x": intArrayN([]int64{0, 2, 0}, []bool{false, true, false}),
	}

	assert.Equal(t, []interface{}{nil}, evalOn(t, expr.First(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{nil}, evalOn(t, expr.Last(expr.Col("x")), cols))

	full := map[string]arrow.Array{"x": intArray(7, 8, 9)}
	assert.Equal(t, []interface{}{int64(7)}, evalOn(t, expr.First(expr.Col("x")), full))
	assert.Equal(t, []interface{}{int64(9)}, evalOn(t, expr.Last(expr.Col("x")), full))
}

func TestAllIgnoresNullsAndIsVacuouslyTrue(t *testing.T) {
	cols := map[string]arrow.Array{
		"t": boolArray(true, true),
		"f": boolArray(true, false),
	}

	assert.Equal(t, []interface{}{true}, evalOn(t, expr.All(expr.Col("t")), cols))
	assert.Equal(t, []interface{}{false}, evalOn(t, expr.All(expr.Col("f")), cols))

	empty := map[string]arrow.Array{"b": boolArray()}
	assert.Equal(t, []interface{}{true}, evalOn(t, expr.All(expr.Col("b")), empty))
}

func TestEmptyReductionsAreNull(t *testing.T) {
	cols := map[string]arrow.Array{"x": intArray()}

	assert.Equal(t, []interface{}{nil}, evalOn(t, expr.Sum(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{nil}, evalOn(t, expr.Min(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{nil}, evalOn(t, expr.Mean(expr.Col("x")), cols))
	assert.Equal(t, []interface{}{int64(0)}, evalOn(t, expr.Count(expr.Col("x")), cols))
}

func TestStringAndAggregateComposition(t *testing.T) {
	cols := map[string]arrow.Array{
		"s": stringArray("pear", "apple", "plum"),
		"x": intArray(1, 2, 3),
	}

	assert.Equal(t, []interface{}{"apple"}, evalOn(t, expr.Min(expr.Col("s")), cols))
	assert.Equal(t, []interface{}{"plum"}, evalOn(t, expr.Max(expr.Col("s")), cols))

	// Aggregation results broadcast back into elementwise expressions.
	centered := expr.Sub(expr.Col("x"), expr.Mean(expr.Col("x")))
	assert.Equal(t, []interface{}{-1.0, 0.0, 1.0}, evalOn(t, centered, cols))
}

func TestSumRejectsStrings(t *testing.T) {
	cols := map[string]arrow.Array{"s": stringArray("a")}

	_, err := New(nil).Evaluate(expr.Sum(expr.Col("s")), cols)
	var ee *expr.EvaluationError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "sum", ee.Op)
}
