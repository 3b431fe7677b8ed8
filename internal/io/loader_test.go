package io_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	goavro "github.com/linkedin/goavro/v2"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	arborio "github.com/arbordata/arbor/internal/io"
)

func TestLoadCSVInfersTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	data := "name,age,score,active\nalice,30,85.5,true\nbob,25,92.0,false\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	df, err := arborio.Load(path)
	require.NoError(t, err)
	defer df.Release()

	assert.Equal(t, []string{"name", "age", "score", "active"}, df.Columns())
	assert.Equal(t, 2, df.Len())

	age, _ := df.Column("age")
	assert.Equal(t, arrow.PrimitiveTypes.Int64, age.DataType())
	score, _ := df.Column("score")
	assert.Equal(t, arrow.PrimitiveTypes.Float64, score.DataType())
	active, _ := df.Column("active")
	assert.Equal(t, arrow.FixedWidthTypes.Boolean, active.DataType())
	name, _ := df.Column("name")
	assert.Equal(t, arrow.BinaryTypes.String, name.DataType())
}

func TestLoadCSVEmptyCellsAreNull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparse.csv")
	data := "x,y\n1,a\n,b\n3,\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	df, err := arborio.Load(path)
	require.NoError(t, err)
	defer df.Release()

	x, _ := df.Column("x")
	assert.Equal(t, arrow.PrimitiveTypes.Int64, x.DataType())
	assert.True(t, x.IsNull(1))

	y, _ := df.Column("y")
	assert.True(t, y.IsNull(2))
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	_, err := arborio.Load("data.xlsx")
	assert.Error(t, err)
}

func TestLoadAvro(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.avro")

	schema := `{
		"type": "record",
		"name": "Event",
		"fields": [
			{"name": "id", "type": "long"},
			{"name": "label", "type": "string"},
			{"name": "weight", "type": ["null", "double"], "default": null}
		]
	}`

	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := goavro.NewOCFWriter(goavro.OCFConfig{W: f, Schema: schema})
	require.NoError(t, err)
	require.NoError(t, w.Append([]interface{}{
		map[string]interface{}{"id": int64(1), "label": "a",
			"weight": map[string]interface{}{"double": 0.5}},
		map[string]interface{}{"id": int64(2), "label": "b", "weight": nil},
	}))
	require.NoError(t, f.Close())

	df, err := arborio.Load(path)
	require.NoError(t, err)
	defer df.Release()

	assert.Equal(t, []string{"id", "label", "weight"}, df.Columns())
	assert.Equal(t, 2, df.Len())

	id, _ := df.Column("id")
	assert.Equal(t, arrow.PrimitiveTypes.Int64, id.DataType())
	weight, _ := df.Column("weight")
	assert.False(t, weight.IsNull(0))
	assert.True(t, weight.IsNull(1))
}

func TestLoadParquet(t *testing.T) {
	type row struct {
		ID    int64   `parquet:"id"`
		Label string  `parquet:"label"`
		Score float64 `parquet:"score"`
	}

	path := filepath.Join(t.TempDir(), "rows.parquet")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := parquet.NewGenericWriter[row](f)
	_, err = w.Write([]row{
		{ID: 1, Label: "a", Score: 0.5},
		{ID: 2, Label: "b", Score: 1.5},
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	df, err := arborio.Load(path)
	require.NoError(t, err)
	defer df.Release()

	assert.Equal(t, []string{"id", "label", "score"}, df.Columns())
	assert.Equal(t, 2, df.Len())

	id, _ := df.Column("id")
	assert.Equal(t, arrow.PrimitiveTypes.Int64, id.DataType())
}
