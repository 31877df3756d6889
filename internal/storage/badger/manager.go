package badger

import (
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scribe/internal/common"
	"github.com/ternarybob/scribe/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	article interfaces.ArticleStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	return newManager(logger, db), nil
}

// NewInMemoryManager creates a storage manager backed by an in-memory database
func NewInMemoryManager(logger arbor.ILogger) (interfaces.StorageManager, error) {
	db, err := NewInMemoryBadgerDB(logger)
	if err != nil {
		return nil, err
	}

	return newManager(logger, db), nil
}

func newManager(logger arbor.ILogger, db *BadgerDB) *Manager {
	manager := &Manager{
		db:      db,
		article: NewArticleStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager
}

// ArticleStorage returns the Article storage interface
func (m *Manager) ArticleStorage() interfaces.ArticleStorage {
	return m.article
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
