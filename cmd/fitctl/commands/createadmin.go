package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"fitness-platform/internal/app"
	"fitness-platform/internal/domain"
	"fitness-platform/internal/service"
)

var (
	adminEmail    string
	adminUsername string
	adminPassword string
)

var createAdminCmd = &cobra.Command{
	Use:   "createadmin",
	Short: "Create an admin account",
	Long: `Create an admin account. Fails when the email or username is already taken.

Examples:
  fitctl createadmin --email root@example.com --username root --password 's3cret!pw'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			u, err := a.Services.Users.Register(cmd.Context(), service.RegisterInput{
				Email:    adminEmail,
				Username: adminUsername,
				Password: adminPassword,
			}, domain.RoleAdmin)
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				return fmt.Errorf("createadmin: %v", ve.Fields)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", u.Username, u.ID)
			return nil
		})
	},
}

func init() {
	createAdminCmd.Flags().StringVar(&adminEmail, "email", "", "admin email")
	createAdminCmd.Flags().StringVar(&adminUsername, "username", "", "admin username")
	createAdminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("password")
	rootCmd.AddCommand(createAdminCmd)
}
