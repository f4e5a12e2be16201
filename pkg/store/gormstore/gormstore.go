// Package gormstore implements store.Store with GORM over PostgreSQL or SQLite.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finboard/models"
	"finboard/pkg/logging"
	"finboard/pkg/store"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store is a GORM-backed store.Store.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open *gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// slogWriter sends GORM's log lines to slog. A nil logger means slog.Default()
// at the time of the call.
type slogWriter struct {
	logger *slog.Logger
}

func (w slogWriter) Printf(format string, args ...interface{}) {
	l := w.logger
	if l == nil {
		l = slog.Default()
	}
	l.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), logging.FieldComponent, "gorm")
}

// newLogger reports slow queries and failed statements. Lookups that find
// nothing are expected and surface as store.ErrNotFound instead.
func newLogger(l *slog.Logger) logger.Interface {
	return logger.New(slogWriter{logger: l}, logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

func open(d gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         newLogger(nil),
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
}

// OpenPostgres connects to PostgreSQL using a DSN.
func OpenPostgres(dsn string) (*Store, error) {
	db, err := open(postgres.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return New(db), nil
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(path string) (*Store, error) {
	db, err := open(sqlite.Open(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// sqlite serialises writers; one connection avoids "database is locked".
	sqlDB.SetMaxOpenConns(1)
	return New(db), nil
}

// Migrate creates or updates the schema.
func (s *Store) Migrate() error {
	var errs []error
	for _, m := range []interface{}{&models.User{}, &models.Task{}, &models.Account{}, &models.Expense{}} {
		if err := s.db.AutoMigrate(m); err != nil {
			errs = append(errs, fmt.Errorf("migrate %T: %w", m, err))
		}
	}
	return errors.Join(errs...)
}

// DB exposes the underlying handle for tooling.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &Store{db: tx})
	})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return translate(s.db.WithContext(ctx).Create(u).Error)
}

func (s *Store) UserByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *Store) SetPasswordHash(ctx context.Context, id string, hash []byte) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("password_hash", hash)
	return affected(res)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return affected(s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.User{}))
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueConstraintError(err):
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}

// isUniqueConstraintError catches drivers that TranslateError does not cover.
func isUniqueConstraintError(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "unique constraint")
}

// affected turns a zero-row write into store.ErrNotFound.
func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}
