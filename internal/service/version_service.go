package service

import (
	"context"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
)

type VersionService struct {
	store    repository.Store
	pipeline *Pipeline
}

func NewVersionService(store repository.Store, pipeline *Pipeline) *VersionService {
	return &VersionService{
		store:    store,
		pipeline: pipeline,
	}
}

// List returns the note's history, newest first.
func (s *VersionService) List(ctx context.Context, noteID, userID int64) ([]*domain.NoteVersionResponse, error) {
	if _, err := readableNote(ctx, s.store, noteID, userID); err != nil {
		return nil, err
	}

	versions, err := s.store.Versions().List(ctx, noteID)
	if err != nil {
		return nil, err
	}

	names := newNameCache(s.store)
	out := make([]*domain.NoteVersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, versionResponse(v, names.get(ctx, v.EditorID)))
	}
	return out, nil
}

func (s *VersionService) Get(ctx context.Context, noteID, versionNumber, userID int64) (*domain.NoteVersionResponse, error) {
	if _, err := readableNote(ctx, s.store, noteID, userID); err != nil {
		return nil, err
	}

	v, err := s.store.Versions().ByVersion(ctx, noteID, versionNumber)
	if err != nil {
		return nil, storeError(err, "Version", versionNumber)
	}
	return versionResponse(v, displayName(ctx, s.store, v.EditorID)), nil
}

func (s *VersionService) Count(ctx context.Context, noteID, userID int64) (int64, error) {
	if _, err := readableNote(ctx, s.store, noteID, userID); err != nil {
		return 0, err
	}
	return s.store.Versions().Count(ctx, noteID)
}

// Restore copies a historical version's content forward as a new version.
// History is never rewritten.
func (s *VersionService) Restore(ctx context.Context, noteID, versionNumber, userID int64) (*domain.NoteResponse, error) {
	var resp *domain.NoteResponse
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		note, err := writableNote(ctx, tx, noteID, userID)
		if err != nil {
			return err
		}

		v, err := tx.Versions().ByVersion(ctx, noteID, versionNumber)
		if err != nil {
			return storeError(err, "Version", versionNumber)
		}

		note.Content = v.Content
		if err := s.pipeline.commit(ctx, tx, note, userID); err != nil {
			return err
		}

		resp = noteResponse(ctx, tx, note, userID, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Prune drops all but the keepLast newest versions. Owner only.
func (s *VersionService) Prune(ctx context.Context, noteID int64, keepLast int, userID int64) (*domain.PruneVersionsResponse, error) {
	if keepLast < 1 {
		return nil, domain.Validation("keep_last must be at least 1")
	}

	var resp *domain.PruneVersionsResponse
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := ownedNote(ctx, tx, noteID, userID, "Only the note owner can prune its history"); err != nil {
			return err
		}

		deleted, err := tx.Versions().Prune(ctx, noteID, keepLast)
		if err != nil {
			return err
		}
		retained, err := tx.Versions().Count(ctx, noteID)
		if err != nil {
			return err
		}

		resp = &domain.PruneVersionsResponse{Deleted: deleted, Retained: retained}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func versionResponse(v *domain.NoteVersion, editorName string) *domain.NoteVersionResponse {
	return &domain.NoteVersionResponse{
		ID:            v.ID,
		NoteID:        v.NoteID,
		VersionNumber: v.VersionNumber,
		Content:       v.Content,
		EditorID:      v.EditorID,
		EditorName:    editorName,
		CreatedAt:     v.CreatedAt,
	}
}
