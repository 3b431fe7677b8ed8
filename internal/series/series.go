// Package series wraps typed Go slices as named, Arrow-backed columns.
// Series are the inputs the expression engine evaluates against.
package series

import (
	"fmt"
	"reflect"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
)

var timestampNsUTC = &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}

// Series is a named column of a single Go element type backed by an
// Apache Arrow array.
type Series[T any] struct {
	name  string
	array arrow.Array
}

// New creates a series with every element valid.
func New[T any](name string, values []T, mem memory.Allocator) *Series[T] {
	return NewWithNulls(name, values, nil, mem)
}

// NewWithNulls creates a series with an optional validity mask. A nil
// mask means all elements are valid; otherwise mask positions holding
// false become null. Timestamps are normalized to UTC nanoseconds.
func NewWithNulls[T any](name string, values []T, valid []bool, mem memory.Allocator) *Series[T] {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	ok := func(i int) bool { return valid == nil || valid[i] }

	var arr arrow.Array
	switch v := any(values).(type) {
	case []string:
		builder := array.NewStringBuilder(mem)
		defer builder.Release()
		for i, val := range v {
			if ok(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	case []int64:
		builder := array.NewInt64Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if ok(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	case []int32:
		builder := array.NewInt32Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if ok(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	case []float64:
		builder := array.NewFloat64Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if ok(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	case []float32:
		builder := array.NewFloat32Builder(mem)
		defer builder.Release()
		for i, val := range v {
			if ok(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	case []bool:
		builder := array.NewBooleanBuilder(mem)
		defer builder.Release()
		for i, val := range v {
			if ok(i) {
				builder.Append(val)
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	case []time.Time:
		builder := array.NewTimestampBuilder(mem, timestampNsUTC)
		defer builder.Release()
		for i, val := range v {
			if ok(i) {
				builder.Append(arrow.Timestamp(val.UTC().UnixNano()))
			} else {
				builder.AppendNull()
			}
		}
		arr = builder.NewArray()
	default:
		panic(fmt.Sprintf("unsupported element type: %T", values))
	}

	return &Series[T]{name: name, array: arr}
}

// FromArrow wraps an existing Arrow array as an untyped series. The
// series takes its own reference; the caller keeps ownership of arr.
func FromArrow(name string, arr arrow.Array) *Series[any] {
	arr.Retain()
	return &Series[any]{name: name, array: arr}
}

// Name returns the column name.
func (s *Series[T]) Name() string {
	return s.name
}

// Len returns the number of elements, nulls included.
func (s *Series[T]) Len() int {
	return s.array.Len()
}

// NullCount returns the number of null elements.
func (s *Series[T]) NullCount() int {
	return s.array.NullN()
}

// Values returns the data as a Go slice. Null positions hold the zero
// value; use IsNull to distinguish them.
func (s *Series[T]) Values() []T {
	result := make([]T, s.array.Len())

	switch arr := s.array.(type) {
	case *array.String:
		if values, ok := any(result).([]string); ok {
			for i := 0; i < arr.Len(); i++ {
				if arr.IsValid(i) {
					values[i] = arr.Value(i)
				}
			}
		}
	case *array.Int64:
		if values, ok := any(result).([]int64); ok {
			for i := 0; i < arr.Len(); i++ {
				if arr.IsValid(i) {
					values[i] = arr.Value(i)
				}
			}
		}
	case *array.Int32:
		if values, ok := any(result).([]int32); ok {
			for i := 0; i < arr.Len(); i++ {
				if arr.IsValid(i) {
					values[i] = arr.Value(i)
				}
			}
		}
	case *array.Float64:
		if values, ok := any(result).([]float64); ok {
			for i := 0; i < arr.Len(); i++ {
				if arr.IsValid(i) {
					values[i] = arr.Value(i)
				}
			}
		}
	case *array.Float32:
		if values, ok := any(result).([]float32); ok {
			for i := 0; i < arr.Len(); i++ {
				if arr.IsValid(i) {
					values[i] = arr.Value(i)
				}
			}
		}
	case *array.Boolean:
		if values, ok := any(result).([]bool); ok {
			for i := 0; i < arr.Len(); i++ {
				if arr.IsValid(i) {
					values[i] = arr.Value(i)
				}
			}
		}
	case *array.Timestamp:
		if values, ok := any(result).([]time.Time); ok {
			for i := 0; i < arr.Len(); i++ {
				if arr.IsValid(i) {
					values[i] = time.Unix(0, int64(arr.Value(i))).UTC()
				}
			}
		}
	default:
		panic(fmt.Sprintf("unsupported array type: %T", arr))
	}

	return result
}

// Value returns the element at index, or the zero value when the index
// is out of range or the element is null.
func (s *Series[T]) Value(index int) T {
	var result T
	if index < 0 || index >= s.array.Len() || s.array.IsNull(index) {
		return result
	}

	switch arr := s.array.(type) {
	case *array.String:
		if v, ok := any(&result).(*string); ok {
			*v = arr.Value(index)
		}
	case *array.Int64:
		if v, ok := any(&result).(*int64); ok {
			*v = arr.Value(index)
		}
	case *array.Int32:
		if v, ok := any(&result).(*int32); ok {
			*v = arr.Value(index)
		}
	case *array.Float64:
		if v, ok := any(&result).(*float64); ok {
			*v = arr.Value(index)
		}
	case *array.Float32:
		if v, ok := any(&result).(*float32); ok {
			*v = arr.Value(index)
		}
	case *array.Boolean:
		if v, ok := any(&result).(*bool); ok {
			*v = arr.Value(index)
		}
	case *array.Timestamp:
		if v, ok := any(&result).(*time.Time); ok {
			*v = time.Unix(0, int64(arr.Value(index))).UTC()
		}
	}

	return result
}

// DataType returns the Arrow data type.
func (s *Series[T]) DataType() arrow.DataType {
	return s.array.DataType()
}

// IsNull reports whether the element at index is null.
func (s *Series[T]) IsNull(index int) bool {
	return s.array.IsNull(index)
}

// String returns a short description of the series.
func (s *Series[T]) String() string {
	return fmt.Sprintf("Series[%s]: %s (len=%d)",
		reflect.TypeOf(new(T)).Elem().Name(),
		s.name,
		s.Len())
}

// Array returns the underlying Arrow array (retains a reference).
func (s *Series[T]) Array() arrow.Array {
	if s.array != nil {
		s.array.Retain()
		return s.array
	}
	return nil
}

// Release releases the underlying Arrow memory.
func (s *Series[T]) Release() {
	if s.array != nil {
		s.array.Release()
	}
}
