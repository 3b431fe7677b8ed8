// Package dataframe ties named columns to the expression engine: it
// owns the evaluate boundary, lazy filter pipelines and plan rendering.
package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/arbordata/arbor/expr"
	"github.com/arbordata/arbor/internal/engine"
	"github.com/arbordata/arbor/internal/series"
)

// DataFrame is a table of equally long named columns.
type DataFrame struct {
	columns map[string]ISeries
	order   []string // column order
}

// New creates a DataFrame from a slice of columns. The frame takes
// ownership of the series.
func New(cols ...ISeries) *DataFrame {
	columns := make(map[string]ISeries)
	order := make([]string, 0, len(cols))

	for _, s := range cols {
		name := s.Name()
		columns[name] = s
		order = append(order, name)
	}

	return &DataFrame{
		columns: columns,
		order:   order,
	}
}

// Columns returns the column names in order.
func (df *DataFrame) Columns() []string {
	if len(df.order) == 0 {
		return []string{}
	}
	return append([]string(nil), df.order...)
}

// Len returns the number of rows.
func (df *DataFrame) Len() int {
	if len(df.order) > 0 {
		if s, exists := df.columns[df.order[0]]; exists {
			return s.Len()
		}
	}
	return 0
}

// Width returns the number of columns.
func (df *DataFrame) Width() int {
	return len(df.columns)
}

// Column returns the series for the given column name.
func (df *DataFrame) Column(name string) (ISeries, bool) {
	s, exists := df.columns[name]
	return s, exists
}

// HasColumn checks if a column exists.
func (df *DataFrame) HasColumn(name string) bool {
	_, exists := df.columns[name]
	return exists
}

// Select returns a new DataFrame with only the specified columns. The
// selected series are shared with the source frame.
func (df *DataFrame) Select(names ...string) *DataFrame {
	newColumns := make(map[string]ISeries)
	newOrder := make([]string, 0, len(names))

	for _, name := range names {
		if s, exists := df.columns[name]; exists {
			newColumns[name] = s
			newOrder = append(newOrder, name)
		}
	}

	return &DataFrame{
		columns: newColumns,
		order:   newOrder,
	}
}

// Drop returns a new DataFrame without the specified columns.
func (df *DataFrame) Drop(names ...string) *DataFrame {
	dropSet := make(map[string]bool)
	for _, name := range names {
		dropSet[name] = true
	}

	newColumns := make(map[string]ISeries)
	newOrder := make([]string, 0, len(df.order))

	for _, name := range df.order {
		if !dropSet[name] {
			newColumns[name] = df.columns[name]
			newOrder = append(newOrder, name)
		}
	}

	return &DataFrame{
		columns: newColumns,
		order:   newOrder,
	}
}

// String returns a short schema description.
func (df *DataFrame) String() string {
	if len(df.columns) == 0 {
		return "DataFrame[empty]"
	}

	parts := []string{fmt.Sprintf("DataFrame[%dx%d]", df.Len(), df.Width())}
	for _, name := range df.order {
		s := df.columns[name]
		parts = append(parts, fmt.Sprintf("  %s: %s", name, s.DataType().String()))
	}

	return strings.Join(parts, "\n")
}

// Release releases every column.
func (df *DataFrame) Release() {
	for _, s := range df.columns {
		s.Release()
	}
}

// arrays snapshots the columns as a name-to-array map for the engine.
// The arrays are retained; release them with releaseArrays.
func (df *DataFrame) arrays() map[string]arrow.Array {
	out := make(map[string]arrow.Array, len(df.columns))
	for name, s := range df.columns {
		out[name] = s.Array()
	}
	return out
}

func releaseArrays(m map[string]arrow.Array) {
	for _, arr := range m {
		arr.Release()
	}
}

// Evaluate runs an expression tree against the frame's columns and
// returns the result as a new series labeled with the expression's
// output name.
func (df *DataFrame) Evaluate(e expr.Expr) (ISeries, error) {
	cols := df.arrays()
	defer releaseArrays(cols)

	arr, err := engine.New(nil).Evaluate(e, cols)
	if err != nil {
		return nil, err
	}
	defer arr.Release()

	return series.FromArrow(expr.OutputName(e), arr), nil
}

// WithColumn returns a new frame with the evaluated expression bound
// as a column named name. An existing column of that name is replaced
// in place; a new one is appended.
func (df *DataFrame) WithColumn(name string, e expr.Expr) (*DataFrame, error) {
	cols := df.arrays()
	defer releaseArrays(cols)

	arr, err := engine.New(nil).Evaluate(e, cols)
	if err != nil {
		return nil, err
	}
	defer arr.Release()

	newColumns := make(map[string]ISeries, len(df.columns)+1)
	for _, n := range df.order {
		newColumns[n] = df.columns[n]
	}
	newColumns[name] = series.FromArrow(name, arr)

	// A replaced column keeps its original position.
	newOrder := df.Columns()
	if !df.HasColumn(name) {
		newOrder = append(newOrder, name)
	}

	return &DataFrame{columns: newColumns, order: newOrder}, nil
}
