// Package arbor provides a lazy, immutable column-expression algebra
// over Arrow-backed tabular data. Expression trees are built with the
// expr package and evaluated here against named columns; this package
// is the public API for frames, series and the evaluate/describe
// boundary.
package arbor

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arbordata/arbor/expr"
	"github.com/arbordata/arbor/internal/dataframe"
	arborio "github.com/arbordata/arbor/internal/io"
	"github.com/arbordata/arbor/internal/series"
)

// ISeries is the type-erased interface for a named column.
type ISeries interface {
	Name() string
	Len() int
	DataType() arrow.DataType
	IsNull(index int) bool
	String() string
	Array() arrow.Array
	Release()
}

// DataFrame is the public type for a table of named columns. It wraps
// the internal frame to hide implementation details.
type DataFrame struct {
	df *dataframe.DataFrame
}

// LazyFrame is the public type for a deferred pipeline.
type LazyFrame struct {
	lf *dataframe.LazyFrame
}

// NewDataFrame creates a DataFrame from columns.
func NewDataFrame(cols ...ISeries) *DataFrame {
	internalSeries := make([]dataframe.ISeries, len(cols))
	for i, s := range cols {
		internalSeries[i] = s
	}
	return &DataFrame{df: dataframe.New(internalSeries...)}
}

// NewSeries creates a typed column from values.
func NewSeries[T any](name string, values []T, mem memory.Allocator) ISeries {
	return series.New(name, values, mem)
}

// NewSeriesWithNulls creates a typed column with a validity mask. Mask
// positions holding false become null; a nil mask means all valid.
func NewSeriesWithNulls[T any](name string, values []T, valid []bool, mem memory.Allocator) ISeries {
	return series.NewWithNulls(name, values, valid, mem)
}

// Load reads a CSV, Avro or Parquet file into a DataFrame.
func Load(path string) (*DataFrame, error) {
	df, err := arborio.Load(path)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}

// Columns returns the column names in order.
func (d *DataFrame) Columns() []string {
	return d.df.Columns()
}

// Len returns the number of rows.
func (d *DataFrame) Len() int {
	return d.df.Len()
}

// Width returns the number of columns.
func (d *DataFrame) Width() int {
	return d.df.Width()
}

// Column returns the column with the given name.
func (d *DataFrame) Column(name string) (ISeries, bool) {
	return d.df.Column(name)
}

// HasColumn checks if a column exists.
func (d *DataFrame) HasColumn(name string) bool {
	return d.df.HasColumn(name)
}

// Select returns a new DataFrame with only the specified columns.
func (d *DataFrame) Select(names ...string) *DataFrame {
	return &DataFrame{df: d.df.Select(names...)}
}

// Drop returns a new DataFrame without the specified columns.
func (d *DataFrame) Drop(names ...string) *DataFrame {
	return &DataFrame{df: d.df.Drop(names...)}
}

// String returns a short schema description.
func (d *DataFrame) String() string {
	return d.df.String()
}

// Release releases the underlying columns.
func (d *DataFrame) Release() {
	d.df.Release()
}

// Evaluate runs an expression tree against the frame and returns the
// result as a series labeled with the expression's output name.
func (d *DataFrame) Evaluate(e expr.Expr) (ISeries, error) {
	return d.df.Evaluate(e)
}

// WithColumn returns a new frame with the evaluated expression bound
// as a column.
func (d *DataFrame) WithColumn(name string, e expr.Expr) (*DataFrame, error) {
	df, err := d.df.WithColumn(name, e)
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}

// Preview renders up to maxRows rows as text. A non-positive maxRows
// uses the configured preview size.
func (d *DataFrame) Preview(maxRows int) string {
	return dataframe.Preview(d.df, maxRows)
}

// DescribeFilterPlan renders the plan a filter would execute against
// the frame, without running it.
func (d *DataFrame) DescribeFilterPlan(predicate expr.Expr) string {
	return dataframe.DescribeFilterPlan(d.df, predicate)
}

// Lazy starts a deferred pipeline on the frame.
func (d *DataFrame) Lazy() *LazyFrame {
	return &LazyFrame{lf: d.df.Lazy()}
}

// Filter appends a row filter to the pipeline.
func (lf *LazyFrame) Filter(predicate expr.Expr) *LazyFrame {
	return &LazyFrame{lf: lf.lf.Filter(predicate)}
}

// WithColumn appends a column binding to the pipeline.
func (lf *LazyFrame) WithColumn(name string, e expr.Expr) *LazyFrame {
	return &LazyFrame{lf: lf.lf.WithColumn(name, e)}
}

// Select appends a projection to the pipeline.
func (lf *LazyFrame) Select(names ...string) *LazyFrame {
	return &LazyFrame{lf: lf.lf.Select(names...)}
}

// Collect runs the pipeline and materializes the result.
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	df, err := lf.lf.Collect()
	if err != nil {
		return nil, err
	}
	return &DataFrame{df: df}, nil
}

// String renders the pipeline for inspection.
func (lf *LazyFrame) String() string {
	return lf.lf.String()
}
