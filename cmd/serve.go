package cmd

import (
	"github.com/spf13/cobra"

	"github.com/musigraph/crawler/internal/api"
)

// newServeCmd creates and configures the 'serve' subcommand, which exposes
// health and Prometheus metrics over HTTP.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serves health and metrics endpoints over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			server := api.NewServer(appInstance.Logger())
			return server.ListenAndServe(appInstance.Config().Server.Port)
		},
	}
}
