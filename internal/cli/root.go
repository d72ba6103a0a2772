// Package cli implements the comcard command line: the API server, the
// backup worker and one-shot commands for listing, exporting and backing
// up expenses.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ggonsajang/comcard/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "comcard",
	Short: "Corporate card expense tracker",
	Long: `ComCard records corporate card expenses and turns them into monthly
reports for the approver. Run "comcard serve" for the API, or use the
list, export and backup commands against the same store.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		LoadEnvFile()
		if path, _ := cmd.Flags().GetString("config"); path != "" {
			return os.Setenv(config.ConfigFileEnv, path)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a TOML config file (overrides "+config.ConfigFileEnv+")")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
