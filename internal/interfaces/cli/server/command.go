package server

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/inventra-labs/gatekeeper/internal/infrastructure/config"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/database"
	"github.com/inventra-labs/gatekeeper/internal/infrastructure/migration"
	"github.com/inventra-labs/gatekeeper/internal/interfaces/cli/bootstrap"
	httpRouter "github.com/inventra-labs/gatekeeper/internal/interfaces/http"
	"github.com/inventra-labs/gatekeeper/internal/shared/constants"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
	"github.com/inventra-labs/gatekeeper/internal/shared/version"
)

var (
	env                string
	configPath         string
	autoMigrate        bool
	skipMigrationCheck bool
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Start the backend API server",
		Long:  `Start the gatekeeper backend API: authentication, session validation and the permission admin endpoints.`,
		RunE:  run,
	}

	cmd.Flags().StringVarP(&env, "env", "e", constants.EnvDevelopment, "Environment (development, test, production)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: ./configs/config.yaml)")
	cmd.Flags().BoolVar(&autoMigrate, "auto-migrate", false, "Automatically run database migrations on startup (not recommended for production)")
	cmd.Flags().BoolVar(&skipMigrationCheck, "skip-migration-check", false, "Skip migration status check on startup")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg, log, err := bootstrap.Load(env, configPath)
	if err != nil {
		return err
	}

	log.Infow("starting server",
		"environment", env,
		"version", version.Get().Version,
		"auto-migrate", autoMigrate)

	if err := database.Init(&cfg.Database); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			log.Warnw("failed to close database", "error", err)
		}
	}()

	if err := handleMigrations(database.Get(), cfg, log); err != nil {
		return fmt.Errorf("migration handling failed: %w", err)
	}

	container, err := httpRouter.NewContainer(database.Get(), nil, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build container: %w", err)
	}
	defer container.Shutdown()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := container.Initialize(ctx); err != nil {
		return err
	}
	container.SetupRoutes()

	srv := bootstrap.NewHTTPServer(cfg.Server.GetAddr(), container.Engine())
	return bootstrap.Serve(ctx, srv, log)
}

func handleMigrations(db *gorm.DB, cfg *config.Config, log logger.Interface) error {
	if skipMigrationCheck {
		log.Infow("skipping migration check")
		return nil
	}

	if autoMigrate {
		if env == constants.EnvProduction {
			log.Warnw("auto-migration is enabled in production environment - this is not recommended!")
		}
		return migration.NewManager(cfg.Database.Driver, env, log).Migrate(db)
	}

	if database.IsSQLite(&cfg.Database) {
		// goose scripts are MySQL-only; sqlite schemas come from AutoMigrate
		return nil
	}

	current, err := migration.NewGooseStrategy(log).GetVersion(db)
	if err != nil {
		log.Warnw("failed to check migration status", "error", err)
		return nil
	}
	log.Infow("current migration version", "version", current)
	return nil
}
