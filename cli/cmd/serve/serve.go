package serve

import (
	"fmt"

	"github.com/chatdeploy/configurator/engine/infra/server"
	"github.com/chatdeploy/configurator/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

// NewServeCommand runs the HTTP API until SIGINT or SIGTERM.
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the configurator HTTP API",
		Long: `Start the HTTP API. Profiles, history and deployments are stored under
--data-dir; a second server on the same directory refuses to start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if config.FromContext(ctx).Runtime.Environment != "development" {
				gin.SetMode(gin.ReleaseMode)
			}
			srv, err := server.NewServer(ctx)
			if err != nil {
				return fmt.Errorf("failed to create server: %w", err)
			}
			return srv.Run()
		},
	}
}
