package series_test

import (
	"testing"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbordata/arbor/internal/series"
)

func TestNewSeries(t *testing.T) {
	s := series.New("age", []int64{30, 25, 40}, nil)
	defer s.Release()

	assert.Equal(t, "age", s.Name())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 0, s.NullCount())
	assert.Equal(t, []int64{30, 25, 40}, s.Values())
	assert.Equal(t, int64(25), s.Value(1))
	assert.Equal(t, arrow.PrimitiveTypes.Int64, s.DataType())
}

func TestNewSeriesWithNulls(t *testing.T) {
	s := series.NewWithNulls("score", []float64{1.5, 0, 3.5}, []bool{true, false, true}, nil)
	defer s.Release()

	assert.Equal(t, 1, s.NullCount())
	assert.False(t, s.IsNull(0))
	assert.True(t, s.IsNull(1))
	assert.Equal(t, []float64{1.5, 0, 3.5}, s.Values())
	assert.Equal(t, 0.0, s.Value(1))
}

func TestStringAndBoolSeries(t *testing.T) {
	names := series.New("name", []string{"alice", "bob"}, nil)
	defer names.Release()
	flags := series.New("active", []bool{true, false}, nil)
	defer flags.Release()

	assert.Equal(t, []string{"alice", "bob"}, names.Values())
	assert.Equal(t, []bool{true, false}, flags.Values())
	assert.Equal(t, "bob", names.Value(1))
}

func TestTimestampSeriesNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	local := time.Date(2024, 3, 5, 9, 0, 0, 0, loc)
	s := series.New("ts", []time.Time{local}, nil)
	defer s.Release()

	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), s.Value(0))
}

func TestValueOutOfRangeIsZero(t *testing.T) {
	s := series.New("x", []int64{1}, nil)
	defer s.Release()

	assert.Equal(t, int64(0), s.Value(-1))
	assert.Equal(t, int64(0), s.Value(5))
}

func TestFromArrowRetainsOwnReference(t *testing.T) {
	src := series.New("x", []int64{1, 2}, nil)
	arr := src.Array()
	src.Release()

	wrapped := series.FromArrow("x", arr)
	arr.Release()
	defer wrapped.Release()

	require.Equal(t, 2, wrapped.Len())
	assert.False(t, wrapped.IsNull(0))
}

func TestSeriesString(t *testing.T) {
	s := series.New("x", []int64{1, 2}, nil)
	defer s.Release()

	assert.Equal(t, "Series[int64]: x (len=2)", s.String())
}
