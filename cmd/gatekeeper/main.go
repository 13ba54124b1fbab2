package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/inventra-labs/gatekeeper/internal/interfaces/cli/dashboard"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/cli/migrate"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/cli/perms"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/cli/server"
	"github.com/inventra-labs/gatekeeper/internal/shared/version"
)

// @title           Gatekeeper API
// @version         1.0
// @description     Authentication, session validation and role permission administration for the admin dashboard.
// @BasePath        /
func main() {
	rootCmd := &cobra.Command{
		Use:     "gatekeeper",
		Short:   "Gatekeeper - admin dashboard authorization",
		Long:    `Gatekeeper runs the backend API that issues and validates sessions, the dashboard page server with its route access gate, and operator tools for migrations and role permissions.`,
		Version: version.Get().String(),
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		dashboard.NewCommand(),
		migrate.NewCommand(),
		perms.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
