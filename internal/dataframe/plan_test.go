package dataframe_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arbordata/arbor/expr"
	"github.com/arbordata/arbor/internal/dataframe"
)

func TestDescribeFilterPlan(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	pred := expr.Gt(expr.Col("age"), expr.Lit(int64(26)))
	plan := dataframe.DescribeFilterPlan(df, pred)

	assert.Contains(t, plan, "FILTER (col(age) > lit(26))")
	assert.Contains(t, plan, fmt.Sprintf("fingerprint: 0x%016x", expr.Fingerprint(pred)))
	assert.Contains(t, plan, "FROM DataFrame[3x3]")
	assert.Contains(t, plan, "age: int64")
	assert.Contains(t, plan, "PROJECT [name, age, score]")
}

func TestDescribeFilterPlanIsStable(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	pred := expr.And(
		expr.Gt(expr.Col("age"), expr.Lit(int64(26))),
		expr.Lt(expr.Col("score"), expr.Lit(90.0)),
	)

	// Equal predicates describe to identical text.
	same := expr.And(
		expr.Gt(expr.Col("age"), expr.Lit(int64(26))),
		expr.Lt(expr.Col("score"), expr.Lit(90.0)),
	)
	assert.Equal(t,
		dataframe.DescribeFilterPlan(df, pred),
		dataframe.DescribeFilterPlan(df, same))
}

func TestDescribePlan(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	lf := df.Lazy().
		Filter(expr.Gt(expr.Col("age"), expr.Lit(int64(26)))).
		Select("name")

	plan := dataframe.DescribePlan(lf)
	assert.Contains(t, plan, "SCAN DataFrame[3x3]")
	assert.Contains(t, plan, "-> filter((col(age) > lit(26)))")
	assert.Contains(t, plan, "-> select(name)")
}
