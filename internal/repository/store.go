package repository

import (
	"context"
	"errors"
	"fmt"

	"shared-notes-server/internal/domain"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrStaleNote is returned when a compare-and-set write finds the note at a
	// different version than the caller read.
	ErrStaleNote = errors.New("note was modified concurrently")
)

// Store groups the repositories that must move together inside one atomic
// unit of work.
type Store interface {
	Notes() NoteRepository
	Versions() NoteVersionRepository
	Permissions() PermissionRepository
	Users() UserRepository
	Folders() FolderRepository
	// Transaction runs fn against a transactional view of the store. Any error
	// returned by fn rolls back every write it made.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Notes() NoteRepository {
	return &noteRepository{db: s.db}
}

func (s *gormStore) Versions() NoteVersionRepository {
	return &noteVersionRepository{db: s.db}
}

func (s *gormStore) Permissions() PermissionRepository {
	return &permissionRepository{db: s.db}
}

func (s *gormStore) Users() UserRepository {
	return &userRepository{db: s.db}
}

func (s *gormStore) Folders() FolderRepository {
	return &folderRepository{db: s.db}
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

type DatabaseOptions struct {
	Driver   string
	DSN      string
	LogLevel string
}

// Open dials the relational backend selected by opts.Driver.
func Open(opts DatabaseOptions) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "postgres":
		dialector = postgres.Open(opts.DSN)
	case "mysql":
		dialector = mysql.Open(opts.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(opts.LogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", opts.Driver, err)
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Folder{},
		&domain.Note{},
		&domain.NoteVersion{},
		&domain.Permission{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "warn":
		return logger.Warn
	case "error":
		return logger.Error
	default:
		return logger.Silent
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
