package commands

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"fitness-platform/internal/app"
	"fitness-platform/internal/transport/http/ez"
	"fitness-platform/internal/transport/http/router"
)

var (
	routesAdmin   bool
	routesOpenAPI bool
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Print the route table",
	Long: `Print every registered route with its auth requirement.

Examples:
  fitctl routes                # user api
  fitctl routes --admin        # admin api
  fitctl routes --openapi      # OpenAPI document`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app.App) error {
			var cat *ez.Catalog
			if routesAdmin {
				_, cat = router.BuildAdmin(a.Deps())
			} else {
				_, cat = router.BuildAPI(a.Deps())
			}
			out := cmd.OutOrStdout()
			if routesOpenAPI {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cat.OpenAPI(a.Config.App.Name, a.Config.App.Version))
			}
			if jsonOutput {
				return json.NewEncoder(out).Encode(cat.Routes())
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tPATH\tAUTH\tSTATUS\tSUMMARY")
			for _, r := range cat.Routes() {
				auth := "-"
				if r.Auth {
					auth = "login"
				}
				if len(r.Roles) > 0 {
					auth = strings.Join(r.Roles, ",")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", r.Method, r.Path, auth, r.Status, r.Summary)
			}
			return w.Flush()
		})
	},
}

func init() {
	routesCmd.Flags().BoolVar(&routesAdmin, "admin", false, "show admin routes")
	routesCmd.Flags().BoolVar(&routesOpenAPI, "openapi", false, "print the OpenAPI document")
	rootCmd.AddCommand(routesCmd)
}
