package repository

import (
	"context"
	"fmt"

	"shared-notes-server/internal/domain"

	"gorm.io/gorm"
)

type FolderRepository interface {
	Create(ctx context.Context, folder *domain.Folder) error
	FindByID(ctx context.Context, id int64) (*domain.Folder, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Folder, error)
	Delete(ctx context.Context, id int64) error
}

type folderRepository struct {
	db *gorm.DB
}

func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &folderRepository{db: db}
}

func (r *folderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	if err := r.db.WithContext(ctx).Create(folder).Error; err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

func (r *folderRepository) FindByID(ctx context.Context, id int64) (*domain.Folder, error) {
	var folder domain.Folder
	if err := r.db.WithContext(ctx).First(&folder, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &folder, nil
}

func (r *folderRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Folder, error) {
	var folders []*domain.Folder
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("name ASC, id ASC").Find(&folders).Error; err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	return folders, nil
}

func (r *folderRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Folder{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete folder: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
