// Command arbor-cli previews tabular files and expression filter plans.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/arbordata/arbor/expr"
	"github.com/arbordata/arbor/internal/config"
	"github.com/arbordata/arbor/internal/dataframe"
	arborio "github.com/arbordata/arbor/internal/io"
	"github.com/arbordata/arbor/internal/version"
)

func customUsage() {
	fmt.Fprintf(os.Stderr, "Arbor Expression Library CLI (version %s)\n\n", version.Version)
	fmt.Fprintf(os.Stderr, "Usage: arbor-cli [options] FILE\n\n")
	fmt.Fprintf(os.Stderr, "FILE may be .csv, .avro or .parquet.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	fmt.Fprintf(os.Stderr, "  --rows N\n\t\tNumber of rows to preview (default: configured preview size)\n")
	fmt.Fprintf(os.Stderr, "  --drop-null COLUMN\n\t\tShow the filter plan and result of dropping rows where COLUMN is null\n")
	fmt.Fprintf(os.Stderr, "  --config PATH\n\t\tLoad configuration from a JSON or YAML file\n")
	fmt.Fprintf(os.Stderr, "  -v, --version\n\t\tPrint version information and exit\n")
	fmt.Fprintf(os.Stderr, "  -h, --help\n\t\tShow this help message and exit\n")
}

func main() {
	versionFlag := flag.Bool("v", false, "Print version and exit")
	flag.BoolVar(versionFlag, "version", false, "Print version and exit") // alias
	rowsFlag := flag.Int("rows", 0, "Number of rows to preview")
	dropNullFlag := flag.String("drop-null", "", "Drop rows where the named column is null")
	configFlag := flag.String("config", "", "Configuration file path")

	//nolint:reassign // Standard Go pattern for customizing flag usage message
	flag.Usage = customUsage

	flag.Parse()

	if *versionFlag {
		fmt.Print(version.Info().String())
		return
	}

	if *configFlag != "" {
		cfg, err := config.LoadFromFile(*configFlag)
		if err != nil {
			log.Fatalf("loading configuration: %v", err)
		}
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid configuration: %v", err)
		}
		config.SetGlobalConfig(cfg)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	df, err := arborio.Load(flag.Arg(0))
	if err != nil {
		log.Fatalf("loading %s: %v", flag.Arg(0), err)
	}
	defer df.Release()

	fmt.Print(dataframe.Preview(df, *rowsFlag))

	if *dropNullFlag != "" {
		dropNull(df, *dropNullFlag, *rowsFlag)
	}
}

// dropNull shows the plan for filtering out null rows of one column,
// then runs it and previews the result.
func dropNull(df *dataframe.DataFrame, column string, rows int) {
	predicate := expr.IsNotNull(expr.Col(column))

	fmt.Println()
	fmt.Print(dataframe.DescribeFilterPlan(df, predicate))
	fmt.Println()

	filtered, err := df.Lazy().Filter(predicate).Collect()
	if err != nil {
		log.Fatalf("filtering on %s: %v", column, err)
	}
	fmt.Print(dataframe.Preview(filtered, rows))
}
