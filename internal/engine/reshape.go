package engine

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/arbordata/arbor/expr"
)

// compareAt is a three-way comparison of elements i and j within a
// single column. Both elements must be valid.
func compareAt(c *column, i, j int) int {
	switch c.kind {
	case kindInt:
		return compareOrdered(c.ints[i], c.ints[j])
	case kindFloat:
		return compareOrdered(c.floats[i], c.floats[j])
	case kindString:
		return compareOrdered(c.strs[i], c.strs[j])
	case kindTime:
		return compareOrdered(c.times[i], c.times[j])
	case kindBool:
		return compareOrdered(boolToInt(c.bools[i]), boolToInt(c.bools[j]))
	default:
		return 0
	}
}

// sortPermutation returns source indices in sorted order. Valid values
// sort stably by the comparator; nulls are gathered either before or
// after them.
func sortPermutation(c *column, desc, nullsFirst bool) []int {
	var validIdx, nullIdx []int
	for i := 0; i < c.len(); i++ {
		if c.valid[i] {
			validIdx = append(validIdx, i)
		} else {
			nullIdx = append(nullIdx, i)
		}
	}
	sort.SliceStable(validIdx, func(a, b int) bool {
		cmp := compareAt(c, validIdx[a], validIdx[b])
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	if nullsFirst {
		return append(nullIdx, validIdx...)
	}
	return append(validIdx, nullIdx...)
}

// sortValues reorders the column's values. Nulls land at the end for
// both sort directions.
func sortValues(c *column, desc bool) (*column, error) {
	perm := sortPermutation(c, desc, false)
	out := newColumn(c.kind, c.len())
	for j, i := range perm {
		out.copyElem(j, c, i)
	}
	return out, nil
}

// argSort yields the integer permutation that sorts the column. Unlike
// sortValues, null positions are emitted first; the two operations
// intentionally disagree on null placement.
func argSort(c *column, desc bool) (*column, error) {
	perm := sortPermutation(c, desc, true)
	out := newColumn(kindInt, c.len())
	for j, i := range perm {
		out.valid[j] = true
		out.ints[j] = int64(i)
	}
	return out, nil
}

func reverseColumn(c *column) *column {
	n := c.len()
	out := newColumn(c.kind, n)
	for i := 0; i < n; i++ {
		out.copyElem(i, c, n-1-i)
	}
	return out
}

// directionalFill replaces each null with the nearest valid value
// before it (forward) or after it (backward). Runs with no such
// neighbor stay null.
func directionalFill(c *column, forward bool) *column {
	n := c.len()
	out := newColumn(c.kind, n)
	last := -1
	for k := 0; k < n; k++ {
		i := k
		if !forward {
			i = n - 1 - k
		}
		if c.valid[i] {
			last = i
		}
		if last >= 0 {
			out.copyElem(i, c, last)
		}
	}
	return out
}

// distinct deduplicates the column. Null counts as a value and appears
// at most once. Stable keeps first-occurrence order; unstable returns
// the distinct values in ascending order with null last.
func distinct(c *column, stable bool) (*column, error) {
	n := c.len()
	keep := make([]int, 0, n)
	sawNull := false
	seenI := make(map[int64]struct{})
	seenF := make(map[float64]struct{})
	seenS := make(map[string]struct{})
	seenB := make(map[bool]struct{})

	for i := 0; i < n; i++ {
		if !c.valid[i] {
			if !sawNull {
				sawNull = true
				keep = append(keep, i)
			}
			continue
		}
		dup := false
		switch c.kind {
		case kindInt:
			_, dup = seenI[c.ints[i]]
			seenI[c.ints[i]] = struct{}{}
		case kindFloat:
			_, dup = seenF[c.floats[i]]
			seenF[c.floats[i]] = struct{}{}
		case kindString:
			_, dup = seenS[c.strs[i]]
			seenS[c.strs[i]] = struct{}{}
		case kindTime:
			_, dup = seenI[c.times[i]]
			seenI[c.times[i]] = struct{}{}
		case kindBool:
			_, dup = seenB[c.bools[i]]
			seenB[c.bools[i]] = struct{}{}
		}
		if !dup {
			keep = append(keep, i)
		}
	}

	out := newColumn(c.kind, len(keep))
	for j, i := range keep {
		out.copyElem(j, c, i)
	}
	if stable {
		return out, nil
	}
	return sortValues(out, false)
}

// sliceColumn selects length elements starting at offset. A negative
// offset counts from the end; the selection is clamped to the column.
func sliceColumn(c *column, offset, length int64) *column {
	n := int64(c.len())
	if offset < 0 {
		offset += n
	}
	if offset < 0 {
		offset = 0
	}
	if offset > n {
		offset = n
	}
	end := offset + length
	if length < 0 || end > n {
		end = n
	}
	out := newColumn(c.kind, int(end-offset))
	for j := int64(0); j < end-offset; j++ {
		out.copyElem(int(j), c, int(offset+j))
	}
	return out
}

func headColumn(c *column, n int64) *column {
	return sliceColumn(c, 0, n)
}

func tailColumn(c *column, n int64) *column {
	if n > int64(c.len()) {
		n = int64(c.len())
	}
	return sliceColumn(c, int64(c.len())-n, n)
}

// castColumn coerces the column to the target type. Value-level
// failures (an unparseable string, for example) produce null at that
// position; impossible kind pairs are evaluation errors.
func castColumn(c *column, target expr.CastType) (*column, error) {
	n := c.len()
	outKind := castKind(target)
	out := newColumn(outKind, n)
	if c.kind == kindNull {
		return out, nil
	}

	for i := 0; i < n; i++ {
		if !c.valid[i] {
			continue
		}
		ok := true
		switch target {
		case expr.CastInteger:
			switch c.kind {
			case kindInt:
				out.ints[i] = c.ints[i]
			case kindFloat:
				out.ints[i] = int64(c.floats[i])
			case kindString:
				v, err := strconv.ParseInt(c.strs[i], 10, 64)
				if err != nil {
					ok = false
				}
				out.ints[i] = v
			case kindBool:
				out.ints[i] = boolToInt(c.bools[i])
			case kindTime:
				out.ints[i] = c.times[i]
			}
		case expr.CastFloat:
			switch c.kind {
			case kindInt:
				out.floats[i] = float64(c.ints[i])
			case kindFloat:
				out.floats[i] = c.floats[i]
			case kindString:
				v, err := strconv.ParseFloat(c.strs[i], 64)
				if err != nil {
					ok = false
				}
				out.floats[i] = v
			case kindBool:
				out.floats[i] = float64(boolToInt(c.bools[i]))
			case kindTime:
				out.floats[i] = float64(c.times[i])
			}
		case expr.CastString:
			switch c.kind {
			case kindInt:
				out.strs[i] = strconv.FormatInt(c.ints[i], 10)
			case kindFloat:
				out.strs[i] = strconv.FormatFloat(c.floats[i], 'g', -1, 64)
			case kindString:
				out.strs[i] = c.strs[i]
			case kindBool:
				out.strs[i] = strconv.FormatBool(c.bools[i])
			case kindTime:
				out.strs[i] = time.Unix(0, c.times[i]).UTC().Format(time.RFC3339Nano)
			}
		case expr.CastBoolean:
			switch c.kind {
			case kindInt:
				out.bools[i] = c.ints[i] != 0
			case kindFloat:
				out.bools[i] = c.floats[i] != 0
			case kindString:
				v, err := strconv.ParseBool(c.strs[i])
				if err != nil {
					ok = false
				}
				out.bools[i] = v
			case kindBool:
				out.bools[i] = c.bools[i]
			case kindTime:
				return nil, expr.NewTypeMismatchError("cast",
					"cannot cast datetime to boolean")
			}
		case expr.CastDate, expr.CastDatetime:
			switch c.kind {
			case kindInt:
				out.times[i] = c.ints[i]
			case kindFloat:
				out.times[i] = int64(c.floats[i])
			case kindString:
				ts, err := parseTimestamp(c.strs[i])
				if err != nil {
					ok = false
				}
				out.times[i] = ts
			case kindTime:
				out.times[i] = c.times[i]
			case kindBool:
				return nil, expr.NewTypeMismatchError("cast",
					"cannot cast boolean to datetime")
			}
			if ok && target == expr.CastDate {
				out.times[i] = truncateToDay(out.times[i])
			}
		default:
			return nil, expr.NewEvaluationError("cast",
				fmt.Sprintf("unsupported cast target %d", target))
		}
		out.valid[i] = ok
	}
	return out, nil
}

func castKind(target expr.CastType) kind {
	switch target {
	case expr.CastInteger:
		return kindInt
	case expr.CastFloat:
		return kindFloat
	case expr.CastString:
		return kindString
	case expr.CastBoolean:
		return kindBool
	default:
		return kindTime
	}
}

func parseTimestamp(s string) (int64, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC().UnixNano(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return 0, err
	}
	return t.UTC().UnixNano(), nil
}

// truncateToDay drops the time-of-day portion, leaving UTC midnight.
func truncateToDay(ns int64) int64 {
	return time.Unix(0, ns).UTC().Truncate(24 * time.Hour).UnixNano()
}
