package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/riftborne/hnswcore/internal/log"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "graphbench",
	Short: "Build and query hnswcore graphs over synthetic vectors",
	Long: `graphbench is a demo and rough-benchmark harness for the hnswcore
graph package: it generates random vectors, builds a base-layer neighbor
graph over them, and reports insert/search throughput and memory footprint.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			log.Global().SetLevel(log.LevelDebug)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// BinName returns the base name of the current executable, for building
// dynamic usage examples.
func BinName() string {
	return filepath.Base(os.Args[0])
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "graphbench: "+format+"\n", args...)
	os.Exit(1)
}
