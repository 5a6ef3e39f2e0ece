package service

import (
	"context"
	"strings"
	"time"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
)

// FolderService manages the flat, per-owner folders notes can be filed into.
type FolderService struct {
	store repository.Store
	now   func() time.Time
}

func NewFolderService(store repository.Store) *FolderService {
	return &FolderService{
		store: store,
		now:   time.Now,
	}
}

func (s *FolderService) Create(ctx context.Context, ownerID int64, req *domain.CreateFolderRequest) (*domain.FolderResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.Validation("Folder name cannot be empty")
	}

	folder := &domain.Folder{
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.now(),
	}
	if err := s.store.Folders().Create(ctx, folder); err != nil {
		return nil, err
	}

	return &domain.FolderResponse{ID: folder.ID, Name: folder.Name, CreatedAt: folder.CreatedAt}, nil
}

func (s *FolderService) List(ctx context.Context, ownerID int64) ([]*domain.FolderResponse, error) {
	folders, err := s.store.Folders().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.FolderResponse, 0, len(folders))
	for _, f := range folders {
		notes, err := s.store.Notes().ListByFolder(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &domain.FolderResponse{
			ID:        f.ID,
			Name:      f.Name,
			CreatedAt: f.CreatedAt,
			NoteCount: len(notes),
		})
	}
	return out, nil
}

// Delete removes a folder. Its notes survive, unfiled.
func (s *FolderService) Delete(ctx context.Context, folderID, ownerID int64) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := ownedFolder(ctx, tx, folderID, ownerID); err != nil {
			return err
		}
		if err := tx.Notes().ClearFolder(ctx, folderID); err != nil {
			return err
		}

		owner, err := tx.Users().FindByID(ctx, ownerID)
		if err == nil && owner.Preferences.DefaultFolderID != nil && *owner.Preferences.DefaultFolderID == folderID {
			prefs := owner.Preferences
			prefs.DefaultFolderID = nil
			if err := tx.Users().UpdatePreferences(ctx, ownerID, prefs); err != nil {
				return err
			}
		}

		return storeError(tx.Folders().Delete(ctx, folderID), "Folder", folderID)
	})
}

// ownedFolder treats another user's folder the same as a missing one.
func ownedFolder(ctx context.Context, st repository.Store, folderID, ownerID int64) (*domain.Folder, error) {
	folder, err := st.Folders().FindByID(ctx, folderID)
	if err != nil {
		return nil, storeError(err, "Folder", folderID)
	}
	if folder.OwnerID != ownerID {
		return nil, domain.NotFound("Folder", folderID)
	}
	return folder, nil
}
