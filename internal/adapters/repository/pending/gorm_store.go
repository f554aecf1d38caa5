package pending

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Row is the table model of one pending entry
type Row struct {
	TxID    string `gorm:"primaryKey;column:tx_id"`
	ChainID uint64 `gorm:"index;not null"`
	Status  string `gorm:"not null"`
	TxHash  string
	BatchID string `gorm:"index"`
}

// TableName pins the table name
func (Row) TableName() string {
	return "pending_transactions"
}

// GormStore persists pending entries in a shared postgres database so several
// operators see the same in-flight set.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects to the configured DSN and migrates the table
func NewGormStore(cfg *config.RuntimeConfig) (*GormStore, error) {
	level := logger.Silent
	if cfg.Debug {
		level = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.Store.DSN), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := NewGormStoreWithDB(db)
	if err := store.Migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

// NewGormStoreWithDB wraps an open connection
func NewGormStoreWithDB(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the table
func (s *GormStore) Migrate() error {
	if err := s.db.AutoMigrate(&Row{}); err != nil {
		return fmt.Errorf("failed to migrate table: %w", err)
	}
	return nil
}

// Load returns all persisted entries
func (s *GormStore) Load(ctx context.Context) (models.PendingTxs, error) {
	var rows []Row
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load pending transactions: %w", err)
	}
	return fromRows(rows), nil
}

// Upsert inserts or replaces the row of one entry
func (s *GormStore) Upsert(ctx context.Context, entry models.PendingEntry) error {
	row := toRow(entry)
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tx_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save pending transaction %s: %w", entry.TxID, err)
	}
	return nil
}

// Delete removes the row of one entry
func (s *GormStore) Delete(ctx context.Context, txID string) error {
	if err := s.db.WithContext(ctx).Where("tx_id = ?", txID).Delete(&Row{}).Error; err != nil {
		return fmt.Errorf("failed to delete pending transaction %s: %w", txID, err)
	}
	return nil
}

func toRow(entry models.PendingEntry) Row {
	return Row{
		TxID:    entry.TxID,
		ChainID: entry.ChainID,
		Status:  string(entry.Status),
		TxHash:  entry.TxHash,
		BatchID: entry.BatchID,
	}
}

func fromRows(rows []Row) models.PendingTxs {
	pending := make(models.PendingTxs, len(rows))
	for _, row := range rows {
		pending[row.TxID] = models.PendingEntry{
			ChainID: row.ChainID,
			TxID:    row.TxID,
			Status:  models.PendingStatus(row.Status),
			TxHash:  row.TxHash,
			BatchID: row.BatchID,
		}
	}
	return pending
}

var _ usecase.PendingStore = (*GormStore)(nil)
