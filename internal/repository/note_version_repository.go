package repository

import (
	"context"
	"errors"
	"fmt"

	"shared-notes-server/internal/domain"

	"gorm.io/gorm"
)

// NoteVersionRepository is the append-only ledger of note content. Numbers are
// assigned per note, start at 1 and grow by exactly one per append.
type NoteVersionRepository interface {
	// Append assigns entry.VersionNumber as one past the current latest and
	// stores it.
	Append(ctx context.Context, entry *domain.NoteVersion) error
	Latest(ctx context.Context, noteID int64) (*domain.NoteVersion, error)
	ByVersion(ctx context.Context, noteID, versionNumber int64) (*domain.NoteVersion, error)
	// List returns entries newest first.
	List(ctx context.Context, noteID int64) ([]*domain.NoteVersion, error)
	Count(ctx context.Context, noteID int64) (int64, error)
	// Prune keeps the keepLast newest entries and returns how many were removed.
	Prune(ctx context.Context, noteID int64, keepLast int) (int64, error)
	DeleteByNote(ctx context.Context, noteID int64) error
}

type noteVersionRepository struct {
	db *gorm.DB
}

func NewNoteVersionRepository(db *gorm.DB) NoteVersionRepository {
	return &noteVersionRepository{db: db}
}

func (r *noteVersionRepository) Append(ctx context.Context, entry *domain.NoteVersion) error {
	latest, err := r.Latest(ctx, entry.NoteID)
	switch {
	case errors.Is(err, ErrNotFound):
		entry.VersionNumber = 1
	case err != nil:
		return err
	default:
		entry.VersionNumber = latest.VersionNumber + 1
	}

	entry.ID = 0
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append version: %w", err)
	}
	return nil
}

func (r *noteVersionRepository) Latest(ctx context.Context, noteID int64) (*domain.NoteVersion, error) {
	var v domain.NoteVersion
	err := r.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("version_number DESC").
		Take(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *noteVersionRepository) ByVersion(ctx context.Context, noteID, versionNumber int64) (*domain.NoteVersion, error) {
	var v domain.NoteVersion
	err := r.db.WithContext(ctx).
		Where("note_id = ? AND version_number = ?", noteID, versionNumber).
		Take(&v).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

func (r *noteVersionRepository) List(ctx context.Context, noteID int64) ([]*domain.NoteVersion, error) {
	var versions []*domain.NoteVersion
	err := r.db.WithContext(ctx).
		Where("note_id = ?", noteID).
		Order("version_number DESC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	return versions, nil
}

func (r *noteVersionRepository) Count(ctx context.Context, noteID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.NoteVersion{}).Where("note_id = ?", noteID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count versions: %w", err)
	}
	return count, nil
}

func (r *noteVersionRepository) Prune(ctx context.Context, noteID int64, keepLast int) (int64, error) {
	if keepLast < 1 {
		return 0, fmt.Errorf("keepLast must be at least 1, got %d", keepLast)
	}

	var cutoff []int64
	err := r.db.WithContext(ctx).
		Model(&domain.NoteVersion{}).
		Where("note_id = ?", noteID).
		Order("version_number DESC").
		Offset(keepLast - 1).
		Limit(1).
		Pluck("version_number", &cutoff).Error
	if err != nil {
		return 0, fmt.Errorf("failed to find prune cutoff: %w", err)
	}
	if len(cutoff) == 0 {
		return 0, nil
	}

	res := r.db.WithContext(ctx).
		Where("note_id = ? AND version_number < ?", noteID, cutoff[0]).
		Delete(&domain.NoteVersion{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune versions: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *noteVersionRepository) DeleteByNote(ctx context.Context, noteID int64) error {
	if err := r.db.WithContext(ctx).Where("note_id = ?", noteID).Delete(&domain.NoteVersion{}).Error; err != nil {
		return fmt.Errorf("failed to delete versions: %w", err)
	}
	return nil
}
