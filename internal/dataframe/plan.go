package dataframe

import (
	"fmt"
	"strings"

	"github.com/arbordata/arbor/expr"
)

// DescribeFilterPlan renders the plan a filter pipeline would execute
// against the frame, without running it. The output names the
// predicate, its fingerprint, the source shape and the projected
// columns.
func DescribeFilterPlan(df *DataFrame, predicate expr.Expr) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("FILTER %s\n", predicate.String()))
	sb.WriteString(fmt.Sprintf("  fingerprint: 0x%016x\n", expr.Fingerprint(predicate)))
	sb.WriteString(fmt.Sprintf("FROM DataFrame[%dx%d]\n", df.Len(), df.Width()))
	for _, name := range df.order {
		s := df.columns[name]
		sb.WriteString(fmt.Sprintf("  %s: %s\n", name, s.DataType().String()))
	}
	sb.WriteString(fmt.Sprintf("PROJECT [%s]\n", strings.Join(df.Columns(), ", ")))

	return sb.String()
}

// DescribePlan renders a lazy pipeline as text, one operation per line
// in execution order.
func DescribePlan(lf *LazyFrame) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("SCAN DataFrame[%dx%d]\n", lf.source.Len(), lf.source.Width()))
	for _, op := range lf.ops {
		sb.WriteString(fmt.Sprintf("  -> %s\n", op.String()))
	}

	return sb.String()
}
