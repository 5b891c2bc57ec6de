// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migration handles database migrations
type Migration struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB, logger logrus.FieldLogger) *Migration {
	return &Migration{db: db, logger: logger}
}

// RunAutoMigrations creates or updates the tables this service owns
func (m *Migration) RunAutoMigrations() error {
	m.logger.Info("Running database auto-migrations")

	models := []interface{}{
		&Entry{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate %T: %w", model, err)
		}
	}

	m.logger.WithField("tables", len(models)).Info("Auto-migrations completed")
	return nil
}

// CreateIndexes adds indexes AutoMigrate does not derive from tags
func (m *Migration) CreateIndexes() error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_storage_entries_key_prefix ON storage_entries(key text_pattern_ops)",
	}

	for _, index := range indexes {
		if err := m.db.Exec(index).Error; err != nil {
			m.logger.WithFields(logrus.Fields{"index": index, "error": err}).Warn("Failed to create index")
		}
	}
	return nil
}

// DropAllTables removes every table this service owns
func (m *Migration) DropAllTables() error {
	m.logger.Warn("Dropping all storage tables")
	return m.db.Migrator().DropTable(&Entry{})
}
