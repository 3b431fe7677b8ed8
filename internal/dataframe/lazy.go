package dataframe

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arbordata/arbor/expr"
	"github.com/arbordata/arbor/internal/config"
	"github.com/arbordata/arbor/internal/engine"
	"github.com/arbordata/arbor/internal/parallel"
	"github.com/arbordata/arbor/internal/series"
)

// LazyOperation is a deferred transformation of a DataFrame.
type LazyOperation interface {
	Apply(df *DataFrame) (*DataFrame, error)
	String() string
}

// FilterOperation keeps the rows where a boolean predicate holds. Rows
// where the predicate is null are dropped.
type FilterOperation struct {
	predicate expr.Expr
}

// Predicate returns the filter's predicate expression.
func (f *FilterOperation) Predicate() expr.Expr { return f.predicate }

func (f *FilterOperation) String() string {
	return fmt.Sprintf("filter(%s)", f.predicate.String())
}

// Apply evaluates the predicate and materializes the surviving rows.
// Frames past the configured threshold are filtered in parallel chunks.
func (f *FilterOperation) Apply(df *DataFrame) (*DataFrame, error) {
	cols := df.arrays()
	defer releaseArrays(cols)

	maskArr, err := engine.New(nil).EvaluateBoolean(f.predicate, cols)
	if err != nil {
		return nil, err
	}
	defer maskArr.Release()
	mask := maskArr.(*array.Boolean)

	if df.Len() >= config.GetGlobalConfig().ParallelThreshold {
		return filterParallel(df, cols, mask)
	}
	return filterSequential(df, cols, mask)
}

func filterSequential(df *DataFrame, cols map[string]arrow.Array, mask *array.Boolean) (*DataFrame, error) {
	mem := memory.NewGoAllocator()
	out := make([]ISeries, 0, len(df.order))
	for _, name := range df.order {
		filtered, err := filterArray(cols[name], mask, mem)
		if err != nil {
			return nil, err
		}
		out = append(out, series.FromArrow(name, filtered))
		filtered.Release()
	}
	return New(out...), nil
}

// filterParallel splits the rows into worker-sized chunks, filters each
// chunk independently and concatenates the survivors in input order.
func filterParallel(df *DataFrame, cols map[string]arrow.Array, mask *array.Boolean) (*DataFrame, error) {
	cfg := config.GetGlobalConfig()
	wp := parallel.NewWorkerPool(cfg.WorkerPoolSize)
	defer wp.Close()

	n := df.Len()
	chunkSize := (n + wp.Size() - 1) / wp.Size()
	if chunkSize < 1 {
		chunkSize = 1
	}
	var bounds [][2]int64
	for lo := 0; lo < n; lo += chunkSize {
		hi := lo + chunkSize
		if hi > n {
			hi = n
		}
		bounds = append(bounds, [2]int64{int64(lo), int64(hi)})
	}

	type chunkResult struct {
		arrs []arrow.Array
		err  error
	}

	results := parallel.ProcessIndexed(wp, bounds, func(_ int, b [2]int64) chunkResult {
		// Each chunk gets its own allocator so workers never share
		// builder state.
		mem := memory.NewGoAllocator()
		maskSlice := array.NewSlice(mask, b[0], b[1]).(*array.Boolean)
		defer maskSlice.Release()

		arrs := make([]arrow.Array, 0, len(df.order))
		for _, name := range df.order {
			colSlice := array.NewSlice(cols[name], b[0], b[1])
			filtered, err := filterArray(colSlice, maskSlice, mem)
			colSlice.Release()
			if err != nil {
				return chunkResult{err: err}
			}
			arrs = append(arrs, filtered)
		}
		return chunkResult{arrs: arrs}
	})

	mem := memory.NewGoAllocator()
	out := make([]ISeries, 0, len(df.order))
	for ci, name := range df.order {
		pieces := make([]arrow.Array, 0, len(results))
		for _, res := range results {
			if res.err != nil {
				return nil, res.err
			}
			pieces = append(pieces, res.arrs[ci])
		}
		joined, err := array.Concatenate(pieces, mem)
		if err != nil {
			return nil, fmt.Errorf("concatenating filtered chunks: %w", err)
		}
		out = append(out, series.FromArrow(name, joined))
		joined.Release()
	}
	for _, res := range results {
		for _, arr := range res.arrs {
			arr.Release()
		}
	}
	return New(out...), nil
}

// filterArray copies the elements of arr where mask is true. Null mask
// positions drop the row.
func filterArray(arr arrow.Array, mask *array.Boolean, mem memory.Allocator) (arrow.Array, error) {
	take := func(i int) bool { return mask.IsValid(i) && mask.Value(i) }

	switch a := arr.(type) {
	case *array.Int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !take(i) {
				continue
			}
			if a.IsValid(i) {
				b.Append(a.Value(i))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case *array.Float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !take(i) {
				continue
			}
			if a.IsValid(i) {
				b.Append(a.Value(i))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case *array.String:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !take(i) {
				continue
			}
			if a.IsValid(i) {
				b.Append(a.Value(i))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case *array.Boolean:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !take(i) {
				continue
			}
			if a.IsValid(i) {
				b.Append(a.Value(i))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	case *array.Timestamp:
		b := array.NewTimestampBuilder(mem, a.DataType().(*arrow.TimestampType))
		defer b.Release()
		for i := 0; i < a.Len(); i++ {
			if !take(i) {
				continue
			}
			if a.IsValid(i) {
				b.Append(a.Value(i))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray(), nil
	default:
		return nil, expr.NewEvaluationError("filter",
			fmt.Sprintf("unsupported column type %s", arr.DataType()))
	}
}

// WithColumnOperation binds an evaluated expression as a named column.
type WithColumnOperation struct {
	name       string
	expression expr.Expr
}

func (w *WithColumnOperation) String() string {
	return fmt.Sprintf("with_column(%s, %s)", w.name, w.expression.String())
}

// Apply evaluates the expression against the frame.
func (w *WithColumnOperation) Apply(df *DataFrame) (*DataFrame, error) {
	return df.WithColumn(w.name, w.expression)
}

// SelectOperation narrows the frame to the named columns.
type SelectOperation struct {
	names []string
}

func (s *SelectOperation) String() string {
	return fmt.Sprintf("select(%s)", strings.Join(s.names, ", "))
}

// Apply projects the frame onto the named columns.
func (s *SelectOperation) Apply(df *DataFrame) (*DataFrame, error) {
	for _, name := range s.names {
		if !df.HasColumn(name) {
			return nil, expr.NewColumnNotFoundError(name)
		}
	}
	return df.Select(s.names...), nil
}

// LazyFrame is a deferred pipeline over a source DataFrame. Operations
// accumulate without touching data until Collect runs them in order.
type LazyFrame struct {
	source *DataFrame
	ops    []LazyOperation
}

// Lazy starts a deferred pipeline on the frame.
func (df *DataFrame) Lazy() *LazyFrame {
	return &LazyFrame{source: df}
}

// Filter appends a row filter to the pipeline.
func (lf *LazyFrame) Filter(predicate expr.Expr) *LazyFrame {
	return lf.with(&FilterOperation{predicate: predicate})
}

// WithColumn appends a column binding to the pipeline.
func (lf *LazyFrame) WithColumn(name string, e expr.Expr) *LazyFrame {
	return lf.with(&WithColumnOperation{name: name, expression: e})
}

// Select appends a projection to the pipeline.
func (lf *LazyFrame) Select(names ...string) *LazyFrame {
	return lf.with(&SelectOperation{names: names})
}

func (lf *LazyFrame) with(op LazyOperation) *LazyFrame {
	ops := make([]LazyOperation, 0, len(lf.ops)+1)
	ops = append(ops, lf.ops...)
	ops = append(ops, op)
	return &LazyFrame{source: lf.source, ops: ops}
}

// Operations returns the pending operations in execution order.
func (lf *LazyFrame) Operations() []LazyOperation {
	return append([]LazyOperation(nil), lf.ops...)
}

// Collect runs the pipeline and materializes the result.
func (lf *LazyFrame) Collect() (*DataFrame, error) {
	current := lf.source
	for i, op := range lf.ops {
		next, err := op.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("applying operation %d (%s): %w", i, op.String(), err)
		}
		current = next
	}
	return current, nil
}

// String renders the pipeline for inspection.
func (lf *LazyFrame) String() string {
	var sb strings.Builder
	sb.WriteString("LazyFrame\n")
	sb.WriteString(fmt.Sprintf("  source: DataFrame[%dx%d]\n", lf.source.Len(), lf.source.Width()))
	for _, op := range lf.ops {
		sb.WriteString(fmt.Sprintf("  %s\n", op.String()))
	}
	return sb.String()
}
