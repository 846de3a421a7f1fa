package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "queryflow",
	Short: "Multi-turn resolver for free-text traffic analytics queries",
	Long: `Queryflow turns free-text network traffic questions into confirmed,
structured analytics queries. It classifies each question into an
analysis scene, extracts query attributes over multiple conversation
turns, asks for whatever is missing, and synthesizes a canonical
question for the downstream execution service.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".queryflow.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
