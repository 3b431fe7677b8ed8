// Package engine evaluates expression trees against Arrow-backed
// columns. It is the concrete execution engine behind the algebra's
// evaluate and describe-plan boundary: column resolution, elementwise
// kernels, reductions, rolling windows and reshaping all live here.
package engine

import (
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/arbordata/arbor/expr"
)

// kind is the engine's value domain: every Arrow input is widened onto
// one of these before kernels run.
type kind int

const (
	kindNull kind = iota
	kindInt
	kindFloat
	kindString
	kindBool
	kindTime
)

func (k kind) String() string {
	switch k {
	case kindNull:
		return "null"
	case kindInt:
		return "integer"
	case kindFloat:
		return "float"
	case kindString:
		return "string"
	case kindBool:
		return "boolean"
	case kindTime:
		return "datetime"
	default:
		return "unknown"
	}
}

// column is the engine's working representation: one value slice per
// kind plus a validity mask. Timestamps are UTC nanoseconds.
type column struct {
	kind   kind
	ints   []int64
	floats []float64
	strs   []string
	bools  []bool
	times  []int64
	valid  []bool
}

func newColumn(k kind, n int) *column {
	c := &column{kind: k, valid: make([]bool, n)}
	switch k {
	case kindInt:
		c.ints = make([]int64, n)
	case kindFloat:
		c.floats = make([]float64, n)
	case kindString:
		c.strs = make([]string, n)
	case kindBool:
		c.bools = make([]bool, n)
	case kindTime:
		c.times = make([]int64, n)
	}
	return c
}

func nullColumn(n int) *column {
	return &column{kind: kindNull, valid: make([]bool, n)}
}

func (c *column) len() int { return len(c.valid) }

// copyElem copies element i of src into element j of c. Both columns
// must share a kind, or c may be wider (null source).
func (c *column) copyElem(j int, src *column, i int) {
	if !src.valid[i] {
		c.valid[j] = false
		return
	}
	c.valid[j] = true
	switch c.kind {
	case kindInt:
		c.ints[j] = src.ints[i]
	case kindFloat:
		if src.kind == kindInt {
			c.floats[j] = float64(src.ints[i])
		} else {
			c.floats[j] = src.floats[i]
		}
	case kindString:
		c.strs[j] = src.strs[i]
	case kindBool:
		c.bools[j] = src.bools[i]
	case kindTime:
		c.times[j] = src.times[i]
	}
}

// fromArrow widens an Arrow array onto the engine's value domain.
// 32-bit numerics are widened to 64 bits on ingest.
func fromArrow(arr arrow.Array) (*column, error) {
	n := arr.Len()
	switch a := arr.(type) {
	case *array.Int64:
		c := newColumn(kindInt, n)
		for i := 0; i < n; i++ {
			if a.IsValid(i) {
				c.valid[i] = true
				c.ints[i] = a.Value(i)
			}
		}
		return c, nil
	case *array.Int32:
		c := newColumn(kindInt, n)
		for i := 0; i < n; i++ {
			if a.IsValid(i) {
				c.valid[i] = true
				c.ints[i] = int64(a.Value(i))
			}
		}
		return c, nil
	case *array.Float64:
		c := newColumn(kindFloat, n)
		for i := 0; i < n; i++ {
			if a.IsValid(i) {
				c.valid[i] = true
				c.floats[i] = a.Value(i)
			}
		}
		return c, nil
	case *array.Float32:
		c := newColumn(kindFloat, n)
		for i := 0; i < n; i++ {
			if a.IsValid(i) {
				c.valid[i] = true
				c.floats[i] = float64(a.Value(i))
			}
		}
		return c, nil
	case *array.String:
		c := newColumn(kindString, n)
		for i := 0; i < n; i++ {
			if a.IsValid(i) {
				c.valid[i] = true
				c.strs[i] = a.Value(i)
			}
		}
		return c, nil
	case *array.Boolean:
		c := newColumn(kindBool, n)
		for i := 0; i < n; i++ {
			if a.IsValid(i) {
				c.valid[i] = true
				c.bools[i] = a.Value(i)
			}
		}
		return c, nil
	case *array.Timestamp:
		c := newColumn(kindTime, n)
		for i := 0; i < n; i++ {
			if a.IsValid(i) {
				c.valid[i] = true
				c.times[i] = int64(a.Value(i))
			}
		}
		return c, nil
	case *array.Null:
		return nullColumn(n), nil
	default:
		return nil, expr.NewEvaluationError("evaluate",
			fmt.Sprintf("unsupported column type %s", arr.DataType()))
	}
}

var timestampNsUTC = &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}

// toArrow materializes the working column as an Arrow array.
func (c *column) toArrow(mem memory.Allocator) arrow.Array {
	n := c.len()
	switch c.kind {
	case kindInt:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		for i := 0; i < n; i++ {
			if c.valid[i] {
				b.Append(c.ints[i])
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	case kindFloat:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for i := 0; i < n; i++ {
			if c.valid[i] {
				b.Append(c.floats[i])
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	case kindString:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for i := 0; i < n; i++ {
			if c.valid[i] {
				b.Append(c.strs[i])
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	case kindBool:
		b := array.NewBooleanBuilder(mem)
		defer b.Release()
		for i := 0; i < n; i++ {
			if c.valid[i] {
				b.Append(c.bools[i])
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	case kindTime:
		b := array.NewTimestampBuilder(mem, timestampNsUTC)
		defer b.Release()
		for i := 0; i < n; i++ {
			if c.valid[i] {
				b.Append(arrow.Timestamp(c.times[i]))
			} else {
				b.AppendNull()
			}
		}
		return b.NewArray()
	default:
		return array.NewNull(n)
	}
}

// literalColumn wraps a scalar as a length-1 column; kernels broadcast
// it against full-length peers.
func literalColumn(value interface{}) (*column, error) {
	if value == nil {
		return nullColumn(1), nil
	}
	switch v := value.(type) {
	case int:
		c := newColumn(kindInt, 1)
		c.valid[0], c.ints[0] = true, int64(v)
		return c, nil
	case int32:
		c := newColumn(kindInt, 1)
		c.valid[0], c.ints[0] = true, int64(v)
		return c, nil
	case int64:
		c := newColumn(kindInt, 1)
		c.valid[0], c.ints[0] = true, v
		return c, nil
	case float32:
		c := newColumn(kindFloat, 1)
		c.valid[0], c.floats[0] = true, float64(v)
		return c, nil
	case float64:
		c := newColumn(kindFloat, 1)
		c.valid[0], c.floats[0] = true, v
		return c, nil
	case string:
		c := newColumn(kindString, 1)
		c.valid[0], c.strs[0] = true, v
		return c, nil
	case bool:
		c := newColumn(kindBool, 1)
		c.valid[0], c.bools[0] = true, v
		return c, nil
	case time.Time:
		c := newColumn(kindTime, 1)
		c.valid[0], c.times[0] = true, v.UTC().UnixNano()
		return c, nil
	default:
		return nil, expr.NewEvaluationError("literal",
			fmt.Sprintf("unsupported literal type %T", value))
	}
}

// align broadcasts two columns to a common length. Length-1 columns
// (literals, aggregation results) expand against full-length peers.
func align(l, r *column, op string) (*column, *column, error) {
	if l.len() == r.len() {
		return l, r, nil
	}
	if l.len() == 1 {
		return l.expand(r.len()), r, nil
	}
	if r.len() == 1 {
		return l, r.expand(l.len()), nil
	}
	return nil, nil, expr.NewEvaluationError(op,
		fmt.Sprintf("operand lengths differ: %d vs %d", l.len(), r.len()))
}

// expand repeats a length-1 column n times.
func (c *column) expand(n int) *column {
	if c.len() == n {
		return c
	}
	out := newColumn(c.kind, n)
	for i := 0; i < n; i++ {
		out.copyElem(i, c, 0)
	}
	return out
}

// asFloat widens an integer column to float; float columns pass
// through untouched.
func (c *column) asFloat() *column {
	if c.kind != kindInt {
		return c
	}
	out := newColumn(kindFloat, c.len())
	for i := range c.ints {
		out.valid[i] = c.valid[i]
		out.floats[i] = float64(c.ints[i])
	}
	return out
}
