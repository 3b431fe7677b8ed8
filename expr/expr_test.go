package expr_test

import (
	"errors"
	"testing"
	"time"

	"github.com/arbordata/arbor/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColumnExpr(t *testing.T) {
	col := expr.Col("price")

	assert.Equal(t, expr.ExprColumn, col.Type())
	assert.Equal(t, "price", col.Name())
	assert.Equal(t, "col(price)", col.String())
}

func TestLiteralExpr(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected string
	}{
		{"int literal", int64(42), "lit(42)"},
		{"float literal", 3.14, "lit(3.14)"},
		{"string literal", "hello", "lit(hello)"},
		{"bool literal", true, "lit(true)"},
		{"null literal", nil, "lit(null)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lit := expr.Lit(tt.value)

			assert.Equal(t, expr.ExprLiteral, lit.Type())
			assert.Equal(t, tt.value, lit.Value())
			assert.Equal(t, tt.expected, lit.String())
		})
	}
}

func TestLiteralNormalizesTimeToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	local := time.Date(2024, 3, 1, 9, 0, 0, 0, loc)

	lit := expr.Lit(local)

	got, ok := lit.Value().(time.Time)
	require.True(t, ok)
	assert.Equal(t, time.UTC, got.Location())
	assert.True(t, got.Equal(local))
}

func TestBinaryExpressions(t *testing.T) {
	col := expr.Col("value")
	lit := expr.Lit(int64(10))

	tests := []struct {
		name     string
		expr     *expr.BinaryExpr
		expected string
		op       expr.BinaryOp
	}{
		{"addition", expr.Add(col, lit), "(col(value) + lit(10))", expr.OpAdd},
		{"subtraction", expr.Sub(col, lit), "(col(value) - lit(10))", expr.OpSub},
		{"multiplication", expr.Mul(col, lit), "(col(value) * lit(10))", expr.OpMul},
		{"division", expr.Div(col, lit), "(col(value) / lit(10))", expr.OpDiv},
		{"power", expr.Pow(col, lit), "(col(value) ** lit(10))", expr.OpPow},
		{"equality", expr.Eq(col, lit), "(col(value) == lit(10))", expr.OpEq},
		{"inequality", expr.Neq(col, lit), "(col(value) != lit(10))", expr.OpNeq},
		{"less than", expr.Lt(col, lit), "(col(value) < lit(10))", expr.OpLt},
		{"less or equal", expr.Lte(col, lit), "(col(value) <= lit(10))", expr.OpLte},
		{"greater than", expr.Gt(col, lit), "(col(value) > lit(10))", expr.OpGt},
		{"greater or equal", expr.Gte(col, lit), "(col(value) >= lit(10))", expr.OpGte},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, expr.ExprBinary, tt.expr.Type())
			assert.Equal(t, tt.expected, tt.expr.String())
			assert.Equal(t, tt.op, tt.expr.Op())
			assert.Same(t, col, tt.expr.Left())
			assert.Same(t, lit, tt.expr.Right())
		})
	}
}

func TestLogicalExpressions(t *testing.T) {
	pred := expr.And(
		expr.Gt(expr.Col("age"), expr.Lit(int64(25))),
		expr.Lt(expr.Col("age"), expr.Lit(int64(65))),
	)

	assert.Equal(t, "((col(age) > lit(25)) && (col(age) < lit(65)))", pred.String())
	assert.Equal(t, expr.OpAnd, pred.Op())

	either := expr.Or(pred, expr.IsNull(expr.Col("age")))
	assert.Equal(t, expr.OpOr, either.Op())
}

func TestUnaryExpressions(t *testing.T) {
	col := expr.Col("x")

	tests := []struct {
		name     string
		expr     *expr.UnaryExpr
		expected string
		op       expr.UnaryOp
	}{
		{"not", expr.Not(col), "not(col(x))", expr.UnaryNot},
		{"is_null", expr.IsNull(col), "is_null(col(x))", expr.UnaryIsNull},
		{"is_not_null", expr.IsNotNull(col), "is_not_null(col(x))", expr.UnaryIsNotNull},
		{"reverse", expr.Reverse(col), "reverse(col(x))", expr.UnaryReverse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, expr.ExprUnary, tt.expr.Type())
			assert.Equal(t, tt.expected, tt.expr.String())
			assert.Equal(t, tt.op, tt.expr.Op())
			assert.Same(t, col, tt.expr.Operand())
		})
	}
}

func TestConditionalExpr(t *testing.T) {
	cond := expr.If(expr.Gt(expr.Col("x"), expr.Lit(int64(0))), expr.Col("x"), expr.Lit(nil))

	assert.Equal(t, expr.ExprConditional, cond.Type())
	assert.Equal(t, "when((col(x) > lit(0))) then(col(x)) otherwise(lit(null))", cond.String())
}

func TestQuotientBuildsZeroGuard(t *testing.T) {
	q := expr.Quotient(expr.Col("a"), expr.Col("b"))

	div, ok := q.(*expr.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, expr.OpDiv, div.Op())

	guard, ok := div.Right().(*expr.ConditionalExpr)
	require.True(t, ok, "divisor must be wrapped in a null guard")
	assert.Equal(t, "(col(b) == lit(0))", guard.Predicate().String())
	assert.Equal(t, "lit(null)", guard.Then().String())
	assert.Equal(t, "col(b)", guard.Otherwise().String())
}

func TestRemainderReusesQuotientGuard(t *testing.T) {
	r := expr.Remainder(expr.Col("a"), expr.Col("b"))

	sub, ok := r.(*expr.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, expr.OpSub, sub.Op())
	assert.Equal(t, "col(a)", sub.Left().String())

	mul, ok := sub.Right().(*expr.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, expr.OpMul, mul.Op())
	assert.Equal(t,
		expr.Fingerprint(expr.Quotient(expr.Col("a"), expr.Col("b"))),
		expr.Fingerprint(mul.Right()),
		"remainder must embed the identical guarded quotient")
}

func TestCoalesceComposition(t *testing.T) {
	c := expr.Coalesce(expr.Col("a"), expr.Col("b"))

	cond, ok := c.(*expr.ConditionalExpr)
	require.True(t, ok)
	assert.Equal(t, "is_not_null(col(a))", cond.Predicate().String())
	assert.Equal(t, "col(a)", cond.Then().String())
	assert.Equal(t, "col(b)", cond.Otherwise().String())
}

func TestFillMissing(t *testing.T) {
	col := expr.Col("x")

	t.Run("directional strategies build fill nodes", func(t *testing.T) {
		fwd, err := expr.FillMissing(col, expr.FillForward)
		require.NoError(t, err)
		assert.Equal(t, "forward_fill(col(x))", fwd.String())

		bwd, err := expr.FillMissing(col, expr.FillBackward)
		require.NoError(t, err)
		assert.Equal(t, "backward_fill(col(x))", bwd.String())
	})

	t.Run("reduction strategies substitute the full-column value", func(t *testing.T) {
		mean, err := expr.FillMissing(col, expr.FillMean)
		require.NoError(t, err)
		assert.Equal(t, "when(is_not_null(col(x))) then(col(x)) otherwise(mean(col(x)))", mean.String())
	})

	t.Run("unknown strategy is a construction error", func(t *testing.T) {
		_, err := expr.FillMissing(col, "interpolate")
		require.Error(t, err)

		var ce *expr.ConstructionError
		assert.True(t, errors.As(err, &ce))
		assert.Equal(t, "FillMissing", ce.Op)
	})
}

func TestFillMissingWithValue(t *testing.T) {
	filled := expr.FillMissingWithValue(expr.Col("x"), expr.Lit(int64(0)))
	assert.Equal(t, "when(is_not_null(col(x))) then(col(x)) otherwise(lit(0))", filled.String())
}

func TestPeaks(t *testing.T) {
	maxPeaks, err := expr.Peaks(expr.Col("x"), "max")
	require.NoError(t, err)
	assert.Equal(t, "(col(x) == max(col(x)))", maxPeaks.String())

	minPeaks, err := expr.Peaks(expr.Col("x"), "min")
	require.NoError(t, err)
	assert.Equal(t, "(col(x) == min(col(x)))", minPeaks.String())

	_, err = expr.Peaks(expr.Col("x"), "both")
	var ce *expr.ConstructionError
	assert.True(t, errors.As(err, &ce))
}

func TestAllEqual(t *testing.T) {
	ae := expr.AllEqual(expr.Col("a"), expr.Col("b"))
	assert.Equal(t, "all((col(a) == col(b)))", ae.String())
}

func TestAggregationExpressions(t *testing.T) {
	col := expr.Col("v")

	tests := []struct {
		name     string
		expr     *expr.AggregationExpr
		expected string
		kind     expr.AggregationType
	}{
		{"sum", expr.Sum(col), "sum(col(v))", expr.AggSum},
		{"min", expr.Min(col), "min(col(v))", expr.AggMin},
		{"max", expr.Max(col), "max(col(v))", expr.AggMax},
		{"mean", expr.Mean(col), "mean(col(v))", expr.AggMean},
		{"median", expr.Median(col), "median(col(v))", expr.AggMedian},
		{"var", expr.Var(col), "var(col(v))", expr.AggVar},
		{"std", expr.Std(col), "std(col(v))", expr.AggStd},
		{"count", expr.Count(col), "count(col(v))", expr.AggCount},
		{"n_distinct", expr.NDistinct(col), "n_distinct(col(v))", expr.AggNDistinct},
		{"first", expr.First(col), "first(col(v))", expr.AggFirst},
		{"last", expr.Last(col), "last(col(v))", expr.AggLast},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, expr.ExprAggregation, tt.expr.Type())
			assert.Equal(t, tt.expected, tt.expr.String())
			assert.Equal(t, tt.kind, tt.expr.Kind())
			assert.Same(t, col, tt.expr.Operand())
		})
	}
}

func TestQuantileExpr(t *testing.T) {
	q := expr.Quantile(expr.Col("v"), 0.75)

	assert.Equal(t, expr.AggQuantile, q.Kind())
	assert.InDelta(t, 0.75, q.QuantileValue(), 1e-15)
	assert.Equal(t, "quantile(col(v), 0.75)", q.String())
}

func TestOrderingExpressions(t *testing.T) {
	col := expr.Col("v")

	s := expr.Sort(col, true)
	assert.Equal(t, expr.ExprSort, s.Type())
	assert.True(t, s.Descending())
	assert.Equal(t, "sort(col(v), descending=true)", s.String())

	a := expr.ArgSort(col, false)
	assert.Equal(t, expr.ExprArgSort, a.Type())
	assert.False(t, a.Descending())
	assert.Equal(t, "argsort(col(v), descending=false)", a.String())

	d := expr.Distinct(col, true)
	assert.Equal(t, expr.ExprDistinct, d.Type())
	assert.True(t, d.Stable())
	assert.Equal(t, "distinct(col(v))", d.String())
	assert.Equal(t, "unordered_distinct(col(v))", expr.Distinct(col, false).String())
}

func TestShapeExpressions(t *testing.T) {
	col := expr.Col("v")

	sl := expr.Slice(col, -2, 3)
	assert.Equal(t, expr.ExprSlice, sl.Type())
	assert.Equal(t, int64(-2), sl.Offset())
	assert.Equal(t, int64(3), sl.Length())
	assert.Equal(t, "slice(col(v), offset=-2, length=3)", sl.String())

	h := expr.Head(col, 5)
	assert.Equal(t, expr.ExprHead, h.Type())
	assert.Equal(t, "head(col(v), 5)", h.String())

	tl := expr.Tail(col, 5)
	assert.Equal(t, expr.ExprTail, tl.Type())
	assert.Equal(t, "tail(col(v), 5)", tl.String())
}

func TestCast(t *testing.T) {
	t.Run("known targets", func(t *testing.T) {
		for _, target := range []string{"integer", "float", "string", "boolean", "date", "datetime"} {
			c, err := expr.Cast(expr.Col("v"), target)
			require.NoError(t, err, target)
			assert.Equal(t, expr.ExprCast, c.Type())
			assert.Equal(t, target, c.TargetName())
		}
	})

	t.Run("unknown target fails before any evaluation", func(t *testing.T) {
		_, err := expr.Cast(expr.Col("v"), "not_a_type")
		require.Error(t, err)

		var ce *expr.ConstructionError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "Cast", ce.Op)
		assert.Contains(t, ce.Message, "not_a_type")
	})
}

func TestAliasExpr(t *testing.T) {
	a := expr.Alias(expr.Add(expr.Col("x"), expr.Lit(int64(1))), "x_plus_one")

	assert.Equal(t, expr.ExprAlias, a.Type())
	assert.Equal(t, "x_plus_one", a.Name())
	assert.Equal(t, `alias((col(x) + lit(1)), "x_plus_one")`, a.String())
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		name     string
		expr     expr.Expr
		expected string
	}{
		{"alias wins", expr.Alias(expr.Col("x"), "renamed"), "renamed"},
		{"column name", expr.Col("x"), "x"},
		{"leftmost column through binary", expr.Add(expr.Col("x"), expr.Col("y")), "x"},
		{"through aggregation", expr.Sum(expr.Col("x")), "x"},
		{"through sort", expr.Sort(expr.Col("x"), false), "x"},
		{"bare literal", expr.Lit(int64(1)), "literal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expr.OutputName(tt.expr))
		})
	}
}

func TestFingerprint(t *testing.T) {
	a := expr.Gt(expr.Col("x"), expr.Lit(int64(3)))
	b := expr.Gt(expr.Col("x"), expr.Lit(int64(3)))
	c := expr.Gt(expr.Col("x"), expr.Lit(int64(4)))

	assert.Equal(t, expr.Fingerprint(a), expr.Fingerprint(b))
	assert.NotEqual(t, expr.Fingerprint(a), expr.Fingerprint(c))
}

func TestSharedOperandsAreNotCopied(t *testing.T) {
	shared := expr.Add(expr.Col("x"), expr.Lit(int64(1)))

	p1 := expr.Mul(shared, expr.Lit(int64(2)))
	p2 := expr.Sub(shared, expr.Lit(int64(2)))

	assert.Same(t, shared, p1.Left())
	assert.Same(t, shared, p2.Left())
}
