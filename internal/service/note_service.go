package service

import (
	"context"
	"errors"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"

	"go.uber.org/zap"
)

type NoteService struct {
	store     repository.Store
	pipeline  *Pipeline
	conflicts *ConflictService
	log       *zap.SugaredLogger
}

func NewNoteService(store repository.Store, pipeline *Pipeline, conflicts *ConflictService, log *zap.SugaredLogger) *NoteService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NoteService{
		store:     store,
		pipeline:  pipeline,
		conflicts: conflicts,
		log:       log,
	}
}

func (s *NoteService) Create(ctx context.Context, ownerID int64, req *domain.CreateNoteRequest) (*domain.NoteResponse, error) {
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}
	content, err := normalizeContent(req.Content)
	if err != nil {
		return nil, err
	}

	var resp *domain.NoteResponse
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		folderID, err := s.targetFolder(ctx, tx, ownerID, req.FolderID)
		if err != nil {
			return err
		}

		note := &domain.Note{
			Title:    title,
			Content:  content,
			OwnerID:  ownerID,
			FolderID: folderID,
		}
		if err := s.pipeline.create(ctx, tx, note); err != nil {
			return err
		}

		resp = noteResponse(ctx, tx, note, ownerID, true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debugw("note created", "note_id", resp.ID, "owner_id", ownerID)
	return resp, nil
}

// targetFolder resolves where a new note lands: the requested folder, or the
// owner's default folder when none was requested and it still exists.
func (s *NoteService) targetFolder(ctx context.Context, tx repository.Store, ownerID int64, requested *int64) (*int64, error) {
	if requested != nil {
		if _, err := ownedFolder(ctx, tx, *requested, ownerID); err != nil {
			return nil, err
		}
		return requested, nil
	}

	owner, err := tx.Users().FindByID(ctx, ownerID)
	if err != nil || owner.Preferences.DefaultFolderID == nil {
		return nil, nil
	}
	if _, err := ownedFolder(ctx, tx, *owner.Preferences.DefaultFolderID, ownerID); err != nil {
		return nil, nil
	}
	return owner.Preferences.DefaultFolderID, nil
}

func (s *NoteService) Get(ctx context.Context, noteID, userID int64) (*domain.NoteResponse, error) {
	note, err := readableNote(ctx, s.store, noteID, userID)
	if err != nil {
		return nil, err
	}
	canWrite, err := allowed(ctx, s.store, note, userID, domain.PermissionWrite)
	if err != nil {
		return nil, err
	}
	return noteResponse(ctx, s.store, note, userID, canWrite), nil
}

// List returns the notes the caller owns.
func (s *NoteService) List(ctx context.Context, userID int64) ([]*domain.NoteResponse, error) {
	notes, err := s.store.Notes().ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ownedResponses(ctx, notes, userID), nil
}

func (s *NoteService) ListByFolder(ctx context.Context, folderID, userID int64) ([]*domain.NoteResponse, error) {
	if _, err := ownedFolder(ctx, s.store, folderID, userID); err != nil {
		return nil, err
	}
	notes, err := s.store.Notes().ListByFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}
	return s.ownedResponses(ctx, notes, userID), nil
}

func (s *NoteService) ownedResponses(ctx context.Context, notes []*domain.Note, userID int64) []*domain.NoteResponse {
	names := newNameCache(s.store)
	out := make([]*domain.NoteResponse, 0, len(notes))
	for _, n := range notes {
		resp := n.ToResponse()
		resp.IsOwner = n.IsOwnedBy(userID)
		resp.CanWrite = resp.IsOwner
		resp.LastEditorName = names.get(ctx, n.LastEditorID)
		out = append(out, resp)
	}
	return out
}

// Update applies a partial edit. When req.ExpectedVersion is stale the edit
// fails with a *ConflictError, unless req.Resolution says how to settle it.
func (s *NoteService) Update(ctx context.Context, noteID, userID int64, req *domain.UpdateNoteRequest) (*domain.NoteResponse, error) {
	if req.Title == nil && req.Content == nil && req.FolderID == nil {
		return nil, domain.Validation("Nothing to update")
	}
	if req.ExpectedVersion == nil && s.conflicts.policy.RequireExpectedVersion {
		return nil, domain.Validation("expected_version is required")
	}

	var strategy domain.ResolutionStrategy
	if req.Resolution != nil {
		parsed, err := domain.ParseResolution(string(*req.Resolution))
		if err != nil {
			return nil, err
		}
		strategy = parsed
	}

	var title, content *string
	if req.Title != nil {
		t, err := normalizeTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		title = &t
	}
	if req.Content != nil {
		c, err := normalizeContent(*req.Content)
		if err != nil {
			return nil, err
		}
		content = &c
	}

	var resp *domain.NoteResponse
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		note, err := writableNote(ctx, tx, noteID, userID)
		if err != nil {
			return err
		}

		if req.FolderID != nil {
			if !note.IsOwnedBy(userID) {
				return domain.Unauthorized("Only the note owner can move it to another folder")
			}
			if _, err := ownedFolder(ctx, tx, *req.FolderID, userID); err != nil {
				return err
			}
		}

		attempted := ""
		if content != nil {
			attempted = *content
		}
		if report := s.conflicts.detect(ctx, tx, note, req.ExpectedVersion, attempted); report != nil {
			if strategy == "" {
				return &ConflictError{Report: report}
			}
			resolved, err := s.conflicts.resolve(ctx, tx, note, userID, strategy, proposal{
				title:    title,
				content:  content,
				folderID: req.FolderID,
			})
			if err != nil {
				return err
			}
			resp = noteResponse(ctx, tx, resolved, userID, true)
			return nil
		}

		if title == nil && content == nil {
			if sameFolder(note.FolderID, req.FolderID) {
				resp = noteResponse(ctx, tx, note, userID, true)
				return nil
			}
			if err := tx.Notes().UpdateFolder(ctx, note.ID, req.FolderID); err != nil {
				return err
			}
			note.FolderID = req.FolderID
			resp = noteResponse(ctx, tx, note, userID, true)
			return nil
		}

		if title != nil {
			note.Title = *title
		}
		if content != nil {
			note.Content = *content
		}
		if req.FolderID != nil {
			note.FolderID = req.FolderID
		}
		if err := s.pipeline.commit(ctx, tx, note, userID); err != nil {
			return err
		}

		resp = noteResponse(ctx, tx, note, userID, true)
		return nil
	})

	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		s.conflicts.record(ctx, conflictErr.Report, userID)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Move changes a note's folder. Placement is not content, so the version is
// left alone. A nil folderID takes the note out of any folder.
func (s *NoteService) Move(ctx context.Context, noteID, userID int64, folderID *int64) (*domain.NoteResponse, error) {
	var resp *domain.NoteResponse
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		note, err := tx.Notes().FindByIDForUpdate(ctx, noteID)
		if err != nil {
			return storeError(err, "Note", noteID)
		}
		if !note.IsOwnedBy(userID) {
			return domain.Unauthorized("Only the note owner can move it to another folder")
		}
		if folderID != nil {
			if _, err := ownedFolder(ctx, tx, *folderID, userID); err != nil {
				return err
			}
		}

		if err := tx.Notes().UpdateFolder(ctx, noteID, folderID); err != nil {
			return err
		}
		note.FolderID = folderID

		resp = noteResponse(ctx, tx, note, userID, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Copy duplicates a readable note into a new note owned by the caller, with a
// fresh history starting at version 1.
func (s *NoteService) Copy(ctx context.Context, noteID, userID int64) (*domain.NoteResponse, error) {
	var resp *domain.NoteResponse
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		source, err := readableNote(ctx, tx, noteID, userID)
		if err != nil {
			return err
		}

		var folderID *int64
		if source.FolderID != nil {
			if _, err := ownedFolder(ctx, tx, *source.FolderID, userID); err == nil {
				folderID = source.FolderID
			}
		}

		dup := &domain.Note{
			Title:    copyTitle(source.Title),
			Content:  source.Content,
			OwnerID:  userID,
			FolderID: folderID,
		}
		if err := s.pipeline.create(ctx, tx, dup); err != nil {
			return err
		}

		resp = noteResponse(ctx, tx, dup, userID, true)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// Delete removes a note with its grants and history. Owner only.
func (s *NoteService) Delete(ctx context.Context, noteID, userID int64) error {
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := ownedNote(ctx, tx, noteID, userID, "Only the note owner can delete it"); err != nil {
			return err
		}
		if err := tx.Permissions().DeleteByNote(ctx, noteID); err != nil {
			return err
		}
		if err := tx.Versions().DeleteByNote(ctx, noteID); err != nil {
			return err
		}
		return storeError(tx.Notes().Delete(ctx, noteID), "Note", noteID)
	})
	if err != nil {
		return err
	}

	s.log.Debugw("note deleted", "note_id", noteID, "owner_id", userID)
	return nil
}

func (s *NoteService) Stats(ctx context.Context, userID int64) (*domain.NoteStats, error) {
	owned, err := s.store.Notes().CountByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	shared, err := s.store.Permissions().CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.NoteStats{OwnedNotes: owned, SharedNotes: shared}, nil
}

func noteResponse(ctx context.Context, st repository.Store, note *domain.Note, userID int64, canWrite bool) *domain.NoteResponse {
	resp := note.ToResponse()
	resp.IsOwner = note.IsOwnedBy(userID)
	resp.CanWrite = canWrite
	resp.LastEditorName = displayName(ctx, st, note.LastEditorID)
	return resp
}

func sameFolder(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
