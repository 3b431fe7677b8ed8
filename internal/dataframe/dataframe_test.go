package dataframe_test

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbordata/arbor/expr"
	"github.com/arbordata/arbor/internal/dataframe"
	"github.com/arbordata/arbor/internal/series"
)

func sampleFrame() *dataframe.DataFrame {
	return dataframe.New(
		series.New("name", []string{"alice", "bob", "carol"}, nil),
		series.New("age", []int64{30, 25, 40}, nil),
		series.New("score", []float64{85.5, 92.0, 78.5}, nil),
	)
}

func int64Values(t *testing.T, df *dataframe.DataFrame, name string) []interface{} {
	t.Helper()
	col, ok := df.Column(name)
	require.True(t, ok)
	arr := col.Array()
	defer arr.Release()
	ints := arr.(*array.Int64)
	out := make([]interface{}, ints.Len())
	for i := 0; i < ints.Len(); i++ {
		if ints.IsValid(i) {
			out[i] = ints.Value(i)
		}
	}
	return out
}

func TestNewDataFrame(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	assert.Equal(t, 3, df.Len())
	assert.Equal(t, 3, df.Width())
	assert.Equal(t, []string{"name", "age", "score"}, df.Columns())
	assert.True(t, df.HasColumn("age"))
	assert.False(t, df.HasColumn("salary"))
}

func TestEmptyDataFrame(t *testing.T) {
	df := dataframe.New()

	assert.Equal(t, 0, df.Len())
	assert.Equal(t, 0, df.Width())
	assert.Equal(t, "DataFrame[empty]", df.String())
}

func TestSelectAndDrop(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	selected := df.Select("age", "name")
	assert.Equal(t, []string{"age", "name"}, selected.Columns())

	dropped := df.Drop("score")
	assert.Equal(t, []string{"name", "age"}, dropped.Columns())
}

func TestDataFrameString(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	s := df.String()
	assert.Contains(t, s, "DataFrame[3x3]")
	assert.Contains(t, s, "age: int64")
}

func TestEvaluateLabelsResult(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	doubled, err := df.Evaluate(expr.Mul(expr.Col("age"), expr.Lit(int64(2))))
	require.NoError(t, err)
	defer doubled.Release()
	assert.Equal(t, "age", doubled.Name())
	assert.Equal(t, 3, doubled.Len())

	named, err := df.Evaluate(expr.Alias(expr.Sum(expr.Col("age")), "total_age"))
	require.NoError(t, err)
	defer named.Release()
	assert.Equal(t, "total_age", named.Name())
	assert.Equal(t, 1, named.Len())
}

func TestEvaluateMissingColumn(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	_, err := df.Evaluate(expr.Col("salary"))
	assert.Error(t, err)
}

func TestWithColumnAppends(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	out, err := df.WithColumn("age_plus_one", expr.Add(expr.Col("age"), expr.Lit(int64(1))))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "score", "age_plus_one"}, out.Columns())
	assert.Equal(t, []interface{}{int64(31), int64(26), int64(41)},
		int64Values(t, out, "age_plus_one"))
}

func TestWithColumnReplacesInPlace(t *testing.T) {
	df := sampleFrame()
	defer df.Release()

	out, err := df.WithColumn("age", expr.Mul(expr.Col("age"), expr.Lit(int64(10))))
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age", "score"}, out.Columns())
	assert.Equal(t, []interface{}{int64(300), int64(250), int64(400)},
		int64Values(t, out, "age"))
}
