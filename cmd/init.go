package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/queryflow/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a queryflow configuration interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(".queryflow.yml"); err == nil {
			return fmt.Errorf(".queryflow.yml already exists; remove it first to reconfigure")
		}
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
