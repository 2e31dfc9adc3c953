package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/storefront/cartsync/internal/domain/cart"
	"github.com/storefront/cartsync/internal/infrastructure/logger"
)

// LocalCartModel is one persisted cart keyed by device or profile
type LocalCartModel struct {
	CartKey   string `gorm:"primaryKey;size:128"`
	Payload   []byte `gorm:"not null"`
	ItemCount int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (LocalCartModel) TableName() string {
	return "local_carts"
}

// SQLiteStore persists the anonymous cart in a SQLite file through GORM
type SQLiteStore struct {
	db    *gorm.DB
	key   string
	quota int
}

// OpenSQLite opens (or creates) the SQLite file at path and migrates the schema
func OpenSQLite(path string, log *zap.Logger) (*gorm.DB, error) {
	if log == nil {
		log = zap.NewNop()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.NewGormLogger(log, gormlogger.Warn, 200*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("open local cart db %s: %w", path, err)
	}
	if err := db.AutoMigrate(&LocalCartModel{}); err != nil {
		return nil, fmt.Errorf("migrate local cart db: %w", err)
	}
	return db, nil
}

// NewSQLiteStore stores the cart under key in db; quota <= 0 disables the limit
func NewSQLiteStore(db *gorm.DB, key string, quota int) *SQLiteStore {
	return &SQLiteStore{db: db, key: key, quota: quota}
}

// LoadCart implements cart.LocalStore
func (s *SQLiteStore) LoadCart(ctx context.Context) ([]cart.LineItem, error) {
	var m LocalCartModel
	err := s.db.WithContext(ctx).Where("cart_key = ?", s.key).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load local cart: %w", err)
	}
	return decode(m.Payload)
}

// SaveCart implements cart.LocalStore
func (s *SQLiteStore) SaveCart(ctx context.Context, items []cart.LineItem) error {
	data, err := encode(items, s.quota)
	if err != nil {
		return err
	}
	m := LocalCartModel{CartKey: s.key, Payload: data, ItemCount: len(items), UpdatedAt: time.Now()}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cart_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "item_count", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("save local cart: %w", err)
	}
	return nil
}

// Close closes the underlying database
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var _ Backend = (*SQLiteStore)(nil)
