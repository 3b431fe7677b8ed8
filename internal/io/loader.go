// Package io loads tabular files into DataFrames. CSV, Avro (OCF) and
// Parquet are supported, dispatched on file extension, with column
// types inferred from the data.
package io

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/arbordata/arbor/internal/dataframe"
)

// Load reads a tabular file into a DataFrame, picking the format from
// the file extension.
func Load(path string) (*dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return LoadCSV(path)
	case ".avro":
		return LoadAvro(path)
	case ".parquet":
		return LoadParquet(path)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", filepath.Ext(path))
	}
}
