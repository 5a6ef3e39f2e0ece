package service

import (
	"context"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
)

type UserService struct {
	store repository.Store
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.Users().FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "User", id)
	}
	return user, nil
}

func (s *UserService) UpdatePreferences(ctx context.Context, id int64, prefs domain.Preferences) (*domain.User, error) {
	var user *domain.User
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if prefs.DefaultFolderID != nil {
			if _, err := ownedFolder(ctx, tx, *prefs.DefaultFolderID, id); err != nil {
				return err
			}
		}
		if err := tx.Users().UpdatePreferences(ctx, id, prefs); err != nil {
			return storeError(err, "User", id)
		}

		updated, err := tx.Users().FindByID(ctx, id)
		if err != nil {
			return storeError(err, "User", id)
		}
		user = updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}
