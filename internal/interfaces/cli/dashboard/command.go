package dashboard

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inventra-labs/gatekeeper/internal/interfaces/cli/bootstrap"
	dashboardServer "github.com/inventra-labs/gatekeeper/internal/interfaces/dashboard"
	"github.com/inventra-labs/gatekeeper/internal/shared/constants"
)

var (
	env        string
	configPath string
	apiBaseURL string
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Start the dashboard page server",
		Long:  `Serve the admin dashboard pages behind the route access gate. Sessions are validated against the backend API.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().StringVar(&apiBaseURL, "api", "", "Backend API base URL (overrides dashboard.api_base_url)")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Load(env, configPath)
	if err != nil {
		return err
	}
	if apiBaseURL != "" {
		cfg.Dashboard.APIBaseURL = apiBaseURL
	}

	log.Infow("starting dashboard",
		"environment", env,
		"api", cfg.Dashboard.APIBaseURL,
		"validate_timeout", cfg.Dashboard.ValidateTimeout())

	server, err := dashboardServer.NewServer(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build dashboard: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	srv := bootstrap.NewHTTPServer(cfg.Dashboard.GetAddr(), server.Engine())
	return bootstrap.Serve(ctx, srv, log)
}
