package engine

import (
	"fmt"

	"github.com/arbordata/arbor/expr"
)

// rolling computes a sliding reduction. Windows trail the current index
// unless centered; weights multiply in-window values elementwise before
// reducing; windows with fewer than minPeriods non-null values yield
// null.
func rolling(c *column, node *expr.WindowExpr) (*column, error) {
	if c.kind == kindNull {
		return nullColumn(c.len()), nil
	}
	if !isNumeric(c.kind) {
		return nil, expr.NewTypeMismatchError("rolling",
			fmt.Sprintf("operand must be numeric, got %s", c.kind))
	}

	size := node.Size()
	weights := node.Weights()
	minPeriods := node.MinPeriods()

	// Weighted and mean reductions land in the float domain; unweighted
	// sum/min/max keep the operand's kind.
	outKind := c.kind
	if weights != nil || node.Kind() == expr.WindowMean {
		outKind = kindFloat
	}

	n := c.len()
	f := c.asFloat()
	out := newColumn(outKind, n)

	for i := 0; i < n; i++ {
		lo := i - size + 1
		if node.Center() {
			lo = i - (size-1)/2
		}
		hi := lo + size - 1

		count := 0
		firstVal := true
		var accF, extF float64
		var accI, extI int64
		var weightSum float64
		for j := lo; j <= hi; j++ {
			if j < 0 || j >= n || !c.valid[j] {
				continue
			}
			count++
			w := 1.0
			if weights != nil {
				w = weights[j-lo]
			}
			if outKind == kindFloat {
				v := f.floats[j] * w
				accF += v
				weightSum += w
				if firstVal || (node.Kind() == expr.WindowMax && v > extF) ||
					(node.Kind() == expr.WindowMin && v < extF) {
					extF = v
				}
			} else {
				v := c.ints[j]
				accI += v
				if firstVal || (node.Kind() == expr.WindowMax && v > extI) ||
					(node.Kind() == expr.WindowMin && v < extI) {
					extI = v
				}
			}
			firstVal = false
		}

		if count < minPeriods {
			continue
		}
		out.valid[i] = true
		switch node.Kind() {
		case expr.WindowSum:
			if outKind == kindFloat {
				out.floats[i] = accF
			} else {
				out.ints[i] = accI
			}
		case expr.WindowMean:
			// Weighted means divide by the weight mass of the non-null
			// positions, so partial windows stay unbiased.
			if weights != nil {
				out.floats[i] = accF / weightSum
			} else {
				out.floats[i] = accF / float64(count)
			}
		case expr.WindowMax, expr.WindowMin:
			if outKind == kindFloat {
				out.floats[i] = extF
			} else {
				out.ints[i] = extI
			}
		}
	}
	return out, nil
}

// cumulative computes a running reduction. Null positions stay null
// and do not disturb the running value.
func cumulative(c *column, kind expr.CumulativeKind, reverse bool) (*column, error) {
	if c.kind == kindNull {
		return nullColumn(c.len()), nil
	}
	if !isNumeric(c.kind) {
		return nil, expr.NewTypeMismatchError("cumulative",
			fmt.Sprintf("operand must be numeric, got %s", c.kind))
	}

	n := c.len()
	out := newColumn(c.kind, n)
	started := false
	var runI int64
	var runF float64

	step := func(i int) {
		if !c.valid[i] {
			return
		}
		if c.kind == kindInt {
			v := c.ints[i]
			switch {
			case !started:
				runI = v
			case kind == expr.CumulativeSumKind:
				runI += v
			case kind == expr.CumulativeMinKind && v < runI:
				runI = v
			case kind == expr.CumulativeMaxKind && v > runI:
				runI = v
			}
			out.ints[i] = runI
		} else {
			v := c.floats[i]
			switch {
			case !started:
				runF = v
			case kind == expr.CumulativeSumKind:
				runF += v
			case kind == expr.CumulativeMinKind && v < runF:
				runF = v
			case kind == expr.CumulativeMaxKind && v > runF:
				runF = v
			}
			out.floats[i] = runF
		}
		started = true
		out.valid[i] = true
	}

	if reverse {
		for i := n - 1; i >= 0; i-- {
			step(i)
		}
	} else {
		for i := 0; i < n; i++ {
			step(i)
		}
	}
	return out, nil
}
