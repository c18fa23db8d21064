package cmd

import (
	"github.com/spf13/cobra"

	"github.com/repoflow/repoflow/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize repoflow configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure repoflow and generates a .repoflow.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
