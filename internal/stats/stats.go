// Package stats persists best-effort usage records. Failures here are logged
// and must never abort the user-facing flow.
package stats

import (
	"context"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"moul.io/zapgorm2"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const recordTimeout = 5 * time.Second

// Stat is one recorded delivery of a (content, quality) pair to a user.
type Stat struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id"`
	URL       string    `gorm:"column:url"`
	ContentID string    `gorm:"column:content_id"`
	Quality   string    `gorm:"column:quality"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Stat) TableName() string {
	return "stats"
}

// Recorder is the usage-statistics collaborator boundary.
type Recorder interface {
	Record(ctx context.Context, stat Stat) error
	// RecordAsync records without blocking the caller; failures are logged only.
	RecordAsync(stat Stat)
	Recent(ctx context.Context, limit int) ([]Stat, error)
	Close() error
}

// Store is a sqlite-backed Recorder.
type Store struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func NewStore(path string, logger *zap.Logger) (*Store, error) {
	gormLogger := zapgorm2.New(logger.Named("gorm"))
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	s := &Store{
		db:  db,
		log: logger.Sugar().Named("stats"),
	}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	fs, err := iofs.New(embedMigrations, "migrations")
	if err != nil {
		return err
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	driver, err := sqlite3.WithInstance(sqlDB, &sqlite3.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithInstance("iofs", fs, "sqlite3", driver)
	if err != nil {
		return err
	}
	err = m.Up()
	switch err {
	case nil:
		s.log.Debug("stats database migration complete")
	case migrate.ErrNoChange:
	default:
		return err
	}
	return nil
}

func (s *Store) Record(ctx context.Context, stat Stat) error {
	if err := s.db.WithContext(ctx).Create(&stat).Error; err != nil {
		return fmt.Errorf("failed to record stat: %w", err)
	}
	return nil
}

func (s *Store) RecordAsync(stat Stat) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := s.Record(ctx, stat); err != nil {
			s.log.Warnw("dropping stat record", "content_id", stat.ContentID, "error", err)
		}
	}()
}

func (s *Store) Recent(ctx context.Context, limit int) ([]Stat, error) {
	var stats []Stat
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Nop is the Recorder used when no stats database is available.
type Nop struct{}

func (Nop) Record(context.Context, Stat) error { return nil }

func (Nop) RecordAsync(Stat) {}

func (Nop) Recent(context.Context, int) ([]Stat, error) { return nil, nil }

func (Nop) Close() error { return nil }
