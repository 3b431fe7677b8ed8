package io

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/arbordata/arbor/internal/dataframe"
)

// LoadParquet reads a Parquet file into memory. Column order follows
// the file schema.
func LoadParquet(path string) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	pqFile, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("opening parquet file %s: %w", path, err)
	}

	columns := make([]string, 0, len(pqFile.Schema().Fields()))
	for _, field := range pqFile.Schema().Fields() {
		columns = append(columns, field.Name())
	}

	reader := parquet.NewReader(pqFile)
	defer reader.Close()

	var rows []map[string]interface{}
	for {
		row := make(map[string]interface{})
		if err := reader.Read(&row); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("reading parquet row: %w", err)
		}
		rows = append(rows, row)
	}

	return rowsToFrame(columns, rows)
}
