package migration

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/inventra-labs/gatekeeper/internal/infrastructure/persistence/models"
	"github.com/inventra-labs/gatekeeper/internal/shared/constants"
	"github.com/inventra-labs/gatekeeper/internal/shared/logger"
)

// Manager handles database migrations with different strategies
type Manager struct {
	strategy Strategy
	logger   logger.Interface
}

// NewManager picks goose for MySQL outside development and gorm
// AutoMigrate everywhere else. The goose scripts are MySQL-only.
func NewManager(driver, environment string, log logger.Interface) *Manager {
	if log == nil {
		log = logger.NewLogger()
	}

	var strategy Strategy
	switch {
	case strings.EqualFold(driver, "sqlite"):
		strategy = NewGormAutoMigrateStrategy(log)
	case strings.EqualFold(environment, constants.EnvDevelopment):
		strategy = NewGormAutoMigrateStrategy(log)
	default:
		strategy = NewGooseStrategy(log)
	}

	return NewManagerWithStrategy(strategy, log)
}

func NewManagerWithStrategy(strategy Strategy, log logger.Interface) *Manager {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Manager{
		strategy: strategy,
		logger:   log.With("component", "migration.manager"),
	}
}

// Migrate brings the schema for every gatekeeper model up to date.
func (m *Manager) Migrate(db *gorm.DB) error {
	m.logger.Infow("starting database migration", "strategy", m.strategy.GetName())

	if err := m.strategy.Migrate(db, models.All()...); err != nil {
		m.logger.Errorw("migration failed", "strategy", m.strategy.GetName(), "error", err)
		return fmt.Errorf("migration failed with strategy %s: %w", m.strategy.GetName(), err)
	}

	m.logger.Infow("database migration completed successfully", "strategy", m.strategy.GetName())
	return nil
}

func (m *Manager) GetStrategy() Strategy {
	return m.strategy
}
