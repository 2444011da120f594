package sqlite

import (
	"context"
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/BuzzLyutic/task-registry/internal/kv"
)

// Record is one key-value row.
type Record struct {
	Key   string `gorm:"column:record_key;primaryKey"`
	Value []byte `gorm:"column:record_value;not null"`
}

func (Record) TableName() string {
	return "registry_kv"
}

// Store persists records in SQLite through GORM. The pool is limited to a
// single connection, which also serializes transactions.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the database at path and migrates the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return NewStore(db)
}

func NewStore(db *gorm.DB) (*Store, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Update(ctx context.Context, fn func(tx kv.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

func (s *Store) View(ctx context.Context, fn func(tx kv.Tx) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx, readOnly: true})
	})
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type gormTx struct {
	db       *gorm.DB
	readOnly bool
}

func (t *gormTx) Get(ctx context.Context, key kv.Key) ([]byte, bool, error) {
	var records []Record
	err := t.db.WithContext(ctx).
		Where("record_key = ?", string(key)).
		Limit(1).
		Find(&records).Error
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", key, err)
	}
	if len(records) == 0 {
		return nil, false, nil
	}
	return records[0].Value, true, nil
}

func (t *gormTx) Set(ctx context.Context, key kv.Key, value []byte) error {
	if t.readOnly {
		return kv.ErrReadOnly
	}
	rec := Record{Key: string(key), Value: value}
	err := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "record_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"record_value"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
