package io

import (
	"fmt"
	"time"

	"github.com/arbordata/arbor/internal/dataframe"
	"github.com/arbordata/arbor/internal/series"
)

// rowsToFrame pivots row maps into typed columns. Each column's type
// comes from its first non-nil value; missing and nil cells load as
// null.
func rowsToFrame(columns []string, rows []map[string]interface{}) (*dataframe.DataFrame, error) {
	cols := make([]dataframe.ISeries, 0, len(columns))
	for _, name := range columns {
		s, err := columnFromRows(name, rows)
		if err != nil {
			return nil, err
		}
		cols = append(cols, s)
	}
	return dataframe.New(cols...), nil
}

func columnFromRows(name string, rows []map[string]interface{}) (dataframe.ISeries, error) {
	var sample interface{}
	for _, row := range rows {
		if v := row[name]; v != nil {
			sample = v
			break
		}
	}

	valid := make([]bool, len(rows))
	switch sample.(type) {
	case int, int32, int64:
		values := make([]int64, len(rows))
		for i, row := range rows {
			v := row[name]
			if v == nil {
				continue
			}
			valid[i] = true
			switch n := v.(type) {
			case int:
				values[i] = int64(n)
			case int32:
				values[i] = int64(n)
			case int64:
				values[i] = n
			default:
				return nil, fmt.Errorf("column %s: mixed types (%T after integer)", name, v)
			}
		}
		return series.NewWithNulls(name, values, valid, nil), nil
	case float32, float64:
		values := make([]float64, len(rows))
		for i, row := range rows {
			v := row[name]
			if v == nil {
				continue
			}
			valid[i] = true
			switch n := v.(type) {
			case float32:
				values[i] = float64(n)
			case float64:
				values[i] = n
			default:
				return nil, fmt.Errorf("column %s: mixed types (%T after float)", name, v)
			}
		}
		return series.NewWithNulls(name, values, valid, nil), nil
	case bool:
		values := make([]bool, len(rows))
		for i, row := range rows {
			v := row[name]
			if v == nil {
				continue
			}
			b, ok := v.(bool)
			if !ok {
				return nil, fmt.Errorf("column %s: mixed types (%T after boolean)", name, v)
			}
			valid[i] = true
			values[i] = b
		}
		return series.NewWithNulls(name, values, valid, nil), nil
	case time.Time:
		values := make([]time.Time, len(rows))
		for i, row := range rows {
			v := row[name]
			if v == nil {
				continue
			}
			ts, ok := v.(time.Time)
			if !ok {
				return nil, fmt.Errorf("column %s: mixed types (%T after timestamp)", name, v)
			}
			valid[i] = true
			values[i] = ts
		}
		return series.NewWithNulls(name, values, valid, nil), nil
	default:
		// Strings and byte slices, plus all-null columns, land here.
		values := make([]string, len(rows))
		for i, row := range rows {
			v := row[name]
			if v == nil {
				continue
			}
			valid[i] = true
			switch s := v.(type) {
			case string:
				values[i] = s
			case []byte:
				values[i] = string(s)
			default:
				values[i] = fmt.Sprintf("%v", s)
			}
		}
		return series.NewWithNulls(name, values, valid, nil), nil
	}
}
