package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spektr-org/csvplot/config"
	"github.com/spektr-org/csvplot/logging"
)

// ============================================================================
// CSVPLOT CLI — Upload a CSV, pick a plot, get a chart
// ============================================================================

const version = "0.3.0"

var (
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger = zap.NewNop()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "csvplot",
		Short: "Interactive CSV visualizer",
		Long: `csvplot turns a CSV (or .xlsx) file into charts.

Run "csvplot serve" for the browser UI, or use the render/resolve/describe
commands to work from the terminal.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			logger, err = logging.New(cfg.Logging)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "csvplot.yaml", "Path to YAML config (missing file = defaults)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(serveCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(resolveCmd())
	root.AddCommand(describeCmd())
	root.AddCommand(inspectCmd())
	root.AddCommand(exportCmd())
	return root
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

// run executes the CLI with args and returns the process exit code.
func run(args []string, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		printError(stderr, "%v", err)
		return 1
	}
	return 0
}

func printError(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(w, "Error: "+format+"\n", args...)
}
