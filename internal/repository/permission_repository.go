package repository

import (
	"context"
	"errors"
	"fmt"

	"shared-notes-server/internal/domain"

	"gorm.io/gorm"
)

type PermissionRepository interface {
	// Upsert stores a grant, or changes the level of the existing grant for the
	// same note and user in place.
	Upsert(ctx context.Context, p *domain.Permission) (*domain.Permission, error)
	Find(ctx context.Context, noteID, userID int64) (*domain.Permission, error)
	ListByNote(ctx context.Context, noteID int64) ([]*domain.Permission, error)
	ListByUser(ctx context.Context, userID int64) ([]*domain.Permission, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, noteID, userID int64) error
	DeleteByNote(ctx context.Context, noteID int64) error
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Upsert(ctx context.Context, p *domain.Permission) (*domain.Permission, error) {
	existing, err := r.Find(ctx, p.NoteID, p.UserID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		err := r.db.WithContext(ctx).
			Model(&domain.Permission{}).
			Where("id = ?", existing.ID).
			Update("level", p.Level).Error
		if err != nil {
			return nil, fmt.Errorf("failed to update permission: %w", err)
		}
		existing.Level = p.Level
		return existing, nil
	}

	p.ID = 0
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, fmt.Errorf("failed to create permission: %w", err)
	}
	return p, nil
}

func (r *permissionRepository) Find(ctx context.Context, noteID, userID int64) (*domain.Permission, error) {
	var p domain.Permission
	err := r.db.WithContext(ctx).
		Where("note_id = ? AND user_id = ?", noteID, userID).
		Take(&p).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *permissionRepository) ListByNote(ctx context.Context, noteID int64) ([]*domain.Permission, error) {
	var perms []*domain.Permission
	if err := r.db.WithContext(ctx).Where("note_id = ?", noteID).Order("granted_at ASC, id ASC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}

func (r *permissionRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Permission, error) {
	var perms []*domain.Permission
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("granted_at DESC, id DESC").Find(&perms).Error; err != nil {
		return nil, fmt.Errorf("failed to list permissions: %w", err)
	}
	return perms, nil
}

func (r *permissionRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Permission{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count permissions: %w", err)
	}
	return count, nil
}

func (r *permissionRepository) Delete(ctx context.Context, noteID, userID int64) error {
	res := r.db.WithContext(ctx).
		Where("note_id = ? AND user_id = ?", noteID, userID).
		Delete(&domain.Permission{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete permission: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *permissionRepository) DeleteByNote(ctx context.Context, noteID int64) error {
	if err := r.db.WithContext(ctx).Where("note_id = ?", noteID).Delete(&domain.Permission{}).Error; err != nil {
		return fmt.Errorf("failed to delete permissions: %w", err)
	}
	return nil
}
