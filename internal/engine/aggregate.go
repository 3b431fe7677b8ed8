package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/arbordata/arbor/expr"
)

// aggregate collapses a column to a length-1 column. Reductions skip
// nulls; with no qualifying values the result is null, except for
// count (zero), n_distinct (null counts as one distinct value) and all
// (vacuously true).
func aggregate(c *column, kind expr.AggregationType, q float64) (*column, error) {
	switch kind {
	case expr.AggCount:
		return intScalar(int64(countValid(c))), nil
	case expr.AggNDistinct:
		return intScalar(nDistinct(c)), nil
	case expr.AggFirst:
		return elemScalar(c, 0), nil
	case expr.AggLast:
		return elemScalar(c, c.len()-1), nil
	case expr.AggAll:
		return aggregateAll(c)
	case expr.AggMin, expr.AggMax:
		return aggregateExtreme(c, kind == expr.AggMax)
	case expr.AggSum:
		return aggregateSum(c)
	case expr.AggMean, expr.AggMedian, expr.AggVar, expr.AggStd, expr.AggQuantile:
		return aggregateFloat(c, kind, q)
	default:
		return nil, expr.NewEvaluationError("aggregate",
			fmt.Sprintf("unsupported aggregation %d", kind))
	}
}

func countValid(c *column) int {
	n := 0
	for _, v := range c.valid {
		if v {
			n++
		}
	}
	return n
}

func nDistinct(c *column) int64 {
	var count int64
	sawNull := false
	for _, v := range c.valid {
		if !v {
			sawNull = true
			break
		}
	}
	if sawNull {
		count++
	}
	switch c.kind {
	case kindInt:
		count += int64(len(distinctSet(c.ints, c.valid)))
	case kindFloat:
		count += int64(len(distinctSet(c.floats, c.valid)))
	case kindString:
		count += int64(len(distinctSet(c.strs, c.valid)))
	case kindTime:
		count += int64(len(distinctSet(c.times, c.valid)))
	case kindBool:
		count += int64(len(distinctSet(c.bools, c.valid)))
	}
	return count
}

func distinctSet[T comparable](values []T, valid []bool) map[T]struct{} {
	set := make(map[T]struct{})
	for i, v := range values {
		if valid[i] {
			set[v] = struct{}{}
		}
	}
	return set
}

func intScalar(v int64) *column {
	c := newColumn(kindInt, 1)
	c.valid[0], c.ints[0] = true, v
	return c
}

func floatScalar(v float64) *column {
	c := newColumn(kindFloat, 1)
	c.valid[0], c.floats[0] = true, v
	return c
}

func nullScalar(k kind) *column {
	return newColumn(k, 1)
}

// elemScalar lifts element i (null included) to a length-1 column; an
// out-of-range index yields a null scalar.
func elemScalar(c *column, i int) *column {
	out := newColumn(c.kind, 1)
	if i >= 0 && i < c.len() {
		out.copyElem(0, c, i)
	}
	return out
}

func aggregateAll(c *column) (*column, error) {
	if c.kind != kindBool && c.kind != kindNull {
		return nil, expr.NewTypeMismatchError("all",
			fmt.Sprintf("operand must be boolean, got %s", c.kind))
	}
	out := newColumn(kindBool, 1)
	out.valid[0], out.bools[0] = true, true
	for i := 0; i < c.len(); i++ {
		if c.kind == kindBool && c.valid[i] && !c.bools[i] {
			out.bools[0] = false
			break
		}
	}
	return out, nil
}

func aggregateExtreme(c *column, wantMax bool) (*column, error) {
	if countValid(c) == 0 {
		return nullScalar(c.kind), nil
	}
	out := newColumn(c.kind, 1)
	first := true
	pick := func(cmp int) bool {
		if first {
			return true
		}
		if wantMax {
			return cmp > 0
		}
		return cmp < 0
	}
	for i := 0; i < c.len(); i++ {
		if !c.valid[i] {
			continue
		}
		var cmp int
		switch c.kind {
		case kindInt:
			cmp = compareOrdered(c.ints[i], out.ints[0])
		case kindFloat:
			cmp = compareOrdered(c.floats[i], out.floats[0])
		case kindString:
			cmp = compareOrdered(c.strs[i], out.strs[0])
		case kindTime:
			cmp = compareOrdered(c.times[i], out.times[0])
		default:
			return nil, expr.NewTypeMismatchError("min/max",
				fmt.Sprintf("operand kind %s is not ordered", c.kind))
		}
		if pick(cmp) {
			out.copyElem(0, c, i)
			first = false
		}
	}
	return out, nil
}

func aggregateSum(c *column) (*column, error) {
	switch c.kind {
	case kindInt:
		if countValid(c) == 0 {
			return nullScalar(kindInt), nil
		}
		var sum int64
		for i, v := range c.ints {
			if c.valid[i] {
				sum += v
			}
		}
		return intScalar(sum), nil
	case kindFloat:
		if countValid(c) == 0 {
			return nullScalar(kindFloat), nil
		}
		var sum float64
		for i, v := range c.floats {
			if c.valid[i] {
				sum += v
			}
		}
		return floatScalar(sum), nil
	case kindNull:
		return nullScalar(kindNull), nil
	default:
		return nil, expr.NewTypeMismatchError("sum",
			fmt.Sprintf("operand must be numeric, got %s", c.kind))
	}
}

func aggregateFloat(c *column, kind expr.AggregationType, q float64) (*column, error) {
	if c.kind == kindNull {
		return nullScalar(kindFloat), nil
	}
	if !isNumeric(c.kind) {
		return nil, expr.NewTypeMismatchError("aggregate",
			fmt.Sprintf("operand must be numeric, got %s", c.kind))
	}

	f := c.asFloat()
	values := make([]float64, 0, f.len())
	for i, v := range f.floats {
		if f.valid[i] {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return nullScalar(kindFloat), nil
	}

	switch kind {
	case expr.AggMean:
		return floatScalar(meanOf(values)), nil
	case expr.AggMedian:
		sort.Float64s(values)
		mid := len(values) / 2
		if len(values)%2 == 1 {
			return floatScalar(values[mid]), nil
		}
		return floatScalar((values[mid-1] + values[mid]) / 2), nil
	case expr.AggVar, expr.AggStd:
		// Sample adjustment is fixed: ddof = 1.
		if len(values) < 2 {
			return nullScalar(kindFloat), nil
		}
		mean := meanOf(values)
		var ss float64
		for _, v := range values {
			d := v - mean
			ss += d * d
		}
		variance := ss / float64(len(values)-1)
		if kind == expr.AggStd {
			return floatScalar(math.Sqrt(variance)), nil
		}
		return floatScalar(variance), nil
	case expr.AggQuantile:
		// Interpolation is fixed to nearest-value.
		sort.Float64s(values)
		idx := int(math.Round(q * float64(len(values)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx > len(values)-1 {
			idx = len(values) - 1
		}
		return floatScalar(values[idx]), nil
	default:
		return nil, expr.NewEvaluationError("aggregate",
			fmt.Sprintf("unsupported aggregation %d", kind))
	}
}

func meanOf(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
