package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"fitness-platform/internal/app"
)

var purgeTokensCmd = &cobra.Command{
	Use:   "purge-tokens",
	Short: "Delete expired entries from the refresh token blacklist",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			n, err := a.Services.Users.PurgeTokens(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d tokens\n", n)
			return nil
		})
	},
}

func init() { rootCmd.AddCommand(purgeTokensCmd) }
