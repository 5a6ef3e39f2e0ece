package repository

import (
	"context"
	"fmt"

	"shared-notes-server/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NoteRepository interface {
	Create(ctx context.Context, note *domain.Note) error
	FindByID(ctx context.Context, id int64) (*domain.Note, error)
	// FindByIDForUpdate reads the note and holds a row lock until the
	// surrounding transaction ends, where the backend supports it.
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Note, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Note, error)
	ListByFolder(ctx context.Context, folderID int64) ([]*domain.Note, error)
	ListByIDs(ctx context.Context, ids []int64) ([]*domain.Note, error)
	CountByOwner(ctx context.Context, ownerID int64) (int64, error)
	// Update persists note only if the stored version still equals
	// expectedVersion. Otherwise it returns ErrStaleNote.
	Update(ctx context.Context, note *domain.Note, expectedVersion int64) error
	UpdateFolder(ctx context.Context, id int64, folderID *int64) error
	ClearFolder(ctx context.Context, folderID int64) error
	Delete(ctx context.Context, id int64) error
}

type noteRepository struct {
	db *gorm.DB
}

func NewNoteRepository(db *gorm.DB) NoteRepository {
	return &noteRepository{db: db}
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	if err := r.db.WithContext(ctx).Create(note).Error; err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *noteRepository) FindByID(ctx context.Context, id int64) (*domain.Note, error) {
	var note domain.Note
	if err := r.db.WithContext(ctx).First(&note, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &note, nil
}

func (r *noteRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Note, error) {
	var note domain.Note
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&note, id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &note, nil
}

func (r *noteRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Note, error) {
	var notes []*domain.Note
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC, id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (r *noteRepository) ListByFolder(ctx context.Context, folderID int64) ([]*domain.Note, error) {
	var notes []*domain.Note
	err := r.db.WithContext(ctx).
		Where("folder_id = ?", folderID).
		Order("updated_at DESC, id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list folder notes: %w", err)
	}
	return notes, nil
}

func (r *noteRepository) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Note, error) {
	if len(ids) == 0 {
		return []*domain.Note{}, nil
	}
	var notes []*domain.Note
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("updated_at DESC, id DESC").
		Find(&notes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

func (r *noteRepository) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Note{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count notes: %w", err)
	}
	return count, nil
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note, expectedVersion int64) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Note{}).
		Where("id = ? AND version = ?", note.ID, expectedVersion).
		Updates(map[string]interface{}{
			"title":          note.Title,
			"content":        note.Content,
			"folder_id":      note.FolderID,
			"version":        note.Version,
			"last_editor_id": note.LastEditorID,
			"updated_at":     note.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update note: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Note{}).Where("id = ?", note.ID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to update note: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrStaleNote
	}

	return nil
}

func (r *noteRepository) UpdateFolder(ctx context.Context, id int64, folderID *int64) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Note{}).
		Where("id = ?", id).
		Update("folder_id", folderID).Error
	if err != nil {
		return fmt.Errorf("failed to move note: %w", err)
	}
	return nil
}

func (r *noteRepository) ClearFolder(ctx context.Context, folderID int64) error {
	err := r.db.WithContext(ctx).
		Model(&domain.Note{}).
		Where("folder_id = ?", folderID).
		Update("folder_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to detach notes from folder: %w", err)
	}
	return nil
}

func (r *noteRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Note{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete note: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
