package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"fitness-platform/internal/app"
	"fitness-platform/internal/core/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update all tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			if err := database.Migrate(a.DB.WithContext(cmd.Context())); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d models (%s)\n", len(database.Models()), a.Config.DB.Driver)
			return nil
		})
	},
}

func init() { rootCmd.AddCommand(migrateCmd) }
