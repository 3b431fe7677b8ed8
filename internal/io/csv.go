package io

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/arbordata/arbor/internal/dataframe"
	"github.com/arbordata/arbor/internal/series"
)

// LoadCSV reads a comma-separated file with a header row. Column types
// are inferred from the values: integer, then float, then boolean, with
// string as the fallback. Empty fields load as null.
func LoadCSV(path string) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return dataframe.New(), nil
	}

	headers := records[0]
	dataRows := records[1:]

	// Transpose to columns so inference can look at whole columns.
	columns := make([][]string, len(headers))
	for i := range headers {
		columns[i] = make([]string, len(dataRows))
		for j, row := range dataRows {
			if i < len(row) {
				columns[i][j] = row[i]
			}
		}
	}

	cols := make([]dataframe.ISeries, 0, len(headers))
	for i, header := range headers {
		cols = append(cols, inferColumn(header, columns[i]))
	}
	return dataframe.New(cols...), nil
}

// inferColumn picks the narrowest type every non-empty value fits.
func inferColumn(name string, values []string) dataframe.ISeries {
	valid := make([]bool, len(values))
	isInt, isFloat, isBool := true, true, true
	for i, v := range values {
		if v == "" {
			continue
		}
		valid[i] = true
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			isInt = false
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			isFloat = false
		}
		if v != "true" && v != "false" {
			isBool = false
		}
	}

	switch {
	case isInt:
		out := make([]int64, len(values))
		for i, v := range values {
			if valid[i] {
				out[i], _ = strconv.ParseInt(v, 10, 64)
			}
		}
		return series.NewWithNulls(name, out, valid, nil)
	case isFloat:
		out := make([]float64, len(values))
		for i, v := range values {
			if valid[i] {
				out[i], _ = strconv.ParseFloat(v, 64)
			}
		}
		return series.NewWithNulls(name, out, valid, nil)
	case isBool:
		out := make([]bool, len(values))
		for i, v := range values {
			if valid[i] {
				out[i] = v == "true"
			}
		}
		return series.NewWithNulls(name, out, valid, nil)
	default:
		return series.NewWithNulls(name, values, valid, nil)
	}
}
