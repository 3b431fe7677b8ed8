package io

import (
	"encoding/json"
	"fmt"
	"os"

	goavro "github.com/linkedin/goavro/v2"

	"github.com/arbordata/arbor/internal/dataframe"
)

// LoadAvro reads an Avro object container file. Column order follows
// the writer schema's field order; union-typed values are unwrapped.
func LoadAvro(path string) (*dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	ocfr, err := goavro.NewOCFReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading Avro OCF %s: %w", path, err)
	}

	var schemaDef struct {
		Fields []struct {
			Name string `json:"name"`
		} `json:"fields"`
	}
	if err := json.Unmarshal([]byte(ocfr.Codec().Schema()), &schemaDef); err != nil {
		return nil, fmt.Errorf("parsing Avro schema: %w", err)
	}
	columns := make([]string, len(schemaDef.Fields))
	for i, field := range schemaDef.Fields {
		columns[i] = field.Name
	}

	var rows []map[string]interface{}
	for ocfr.Scan() {
		datum, err := ocfr.Read()
		if err != nil {
			return nil, fmt.Errorf("reading Avro record: %w", err)
		}
		rec, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("unexpected Avro record type %T", datum)
		}
		row := make(map[string]interface{}, len(columns))
		for _, col := range columns {
			row[col] = unwrapAvro(rec[col])
		}
		rows = append(rows, row)
	}
	if err := ocfr.Err(); err != nil {
		return nil, fmt.Errorf("reading Avro file %s: %w", path, err)
	}

	return rowsToFrame(columns, rows)
}

// unwrapAvro normalizes a goavro native value. Unions decode as
// {"type": value} maps, which collapse to the inner value.
func unwrapAvro(v interface{}) interface{} {
	if inner, ok := v.(map[string]interface{}); ok {
		for _, value := range inner {
			return unwrapAvro(value)
		}
		return nil
	}
	return v
}
