package tokenstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Entry is one persisted key/value pair.
type Entry struct {
	Name      string `gorm:"primaryKey;size:64"`
	Value     string
	UpdatedAt time.Time
}

func (Entry) TableName() string { return "kv_entries" }

// GormBackend stores entries in a SQL table through GORM.
type GormBackend struct {
	db *gorm.DB
}

// NewGormBackend migrates the entries table on db and returns a backend using it.
func NewGormBackend(db *gorm.DB) (*GormBackend, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is not initialized")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate token table: %w", err)
	}
	return &GormBackend{db: db}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database at path.
func OpenSQLite(path string) (*GormBackend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create token database directory: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open token database: %w", err)
	}
	return NewGormBackend(db)
}

func (g *GormBackend) Get(key string) (string, bool, error) {
	var entry Entry
	err := g.db.First(&entry, "name = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (g *GormBackend) Set(key, value string) error {
	entry := Entry{Name: key, Value: value, UpdatedAt: time.Now()}
	return g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (g *GormBackend) Delete(key string) error {
	return g.db.Where("name = ?", key).Delete(&Entry{}).Error
}

// Close releases the underlying connection pool.
func (g *GormBackend) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
