package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fitness-platform/internal/app"
)

var (
	// Global flags
	configPath string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "fitctl",
	Short: "Fitness platform management commands",
	Long: `fitctl runs one-off management tasks against the configured database.

Commands:
  migrate       - create or update tables
  createadmin   - create an admin account
  routes        - print the API route table
  purge-tokens  - delete expired revoked refresh tokens`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("CONFIG_PATH"), "config file (default ./configs/config.local.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// withApp 组装依赖后执行 fn，结束时释放
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	a, cleanup, err := app.New(ctx, configPath)
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(a)
}
