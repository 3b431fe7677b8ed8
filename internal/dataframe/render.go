package dataframe

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/olekukonko/tablewriter"

	"github.com/arbordata/arbor/internal/config"
)

// Preview renders up to maxRows rows as an aligned text table. A
// non-positive maxRows falls back to the configured preview size.
func Preview(df *DataFrame, maxRows int) string {
	if maxRows <= 0 {
		maxRows = config.GetGlobalConfig().PreviewRows
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("DataFrame[%dx%d]\n", df.Len(), df.Width()))
	if df.Width() == 0 {
		return sb.String()
	}

	cols := df.arrays()
	defer releaseArrays(cols)

	table := tablewriter.NewWriter(&sb)
	table.SetHeader(df.Columns())

	rows := df.Len()
	if rows > maxRows {
		rows = maxRows
	}
	for i := 0; i < rows; i++ {
		row := make([]string, 0, df.Width())
		for _, name := range df.order {
			row = append(row, formatCell(cols[name], i))
		}
		table.Append(row)
	}
	table.Render()

	if df.Len() > maxRows {
		sb.WriteString(fmt.Sprintf("... %d more rows\n", df.Len()-maxRows))
	}
	return sb.String()
}

func formatCell(arr interface{ IsNull(int) bool }, i int) string {
	if arr.IsNull(i) {
		return "null"
	}
	switch a := arr.(type) {
	case *array.Int64:
		return strconv.FormatInt(a.Value(i), 10)
	case *array.Float64:
		return strconv.FormatFloat(a.Value(i), 'g', -1, 64)
	case *array.String:
		return a.Value(i)
	case *array.Boolean:
		return strconv.FormatBool(a.Value(i))
	case *array.Timestamp:
		return time.Unix(0, int64(a.Value(i))).UTC().Format(time.RFC3339)
	default:
		return "?"
	}
}
