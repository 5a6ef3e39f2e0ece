package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
)

// PermissionService answers access questions and manages grants. The owner of
// a note holds every right implicitly and never has a grant row.
type PermissionService struct {
	store repository.Store
	now   func() time.Time
}

func NewPermissionService(store repository.Store) *PermissionService {
	return &PermissionService{
		store: store,
		now:   time.Now,
	}
}

func (s *PermissionService) HasRead(ctx context.Context, noteID, userID int64) (bool, error) {
	_, ok, err := hasAccess(ctx, s.store, noteID, userID, domain.PermissionRead, false)
	return ok, err
}

func (s *PermissionService) HasWrite(ctx context.Context, noteID, userID int64) (bool, error) {
	_, ok, err := hasAccess(ctx, s.store, noteID, userID, domain.PermissionWrite, false)
	return ok, err
}

func (s *PermissionService) Share(ctx context.Context, noteID, ownerID int64, req *domain.ShareNoteRequest) (*domain.PermissionResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, domain.Validation("Username is required")
	}
	level, err := domain.ParsePermissionLevel(req.Permission)
	if err != nil {
		return nil, err
	}

	var resp *domain.PermissionResponse
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := ownedNote(ctx, tx, noteID, ownerID, "Only the note owner can share it"); err != nil {
			return err
		}

		grantee, err := tx.Users().FindByUsername(ctx, username)
		if err != nil {
			return storeError(err, "User", username)
		}
		if grantee.ID == ownerID {
			return domain.Validation("You cannot share a note with yourself")
		}

		perm, err := tx.Permissions().Upsert(ctx, &domain.Permission{
			NoteID:    noteID,
			UserID:    grantee.ID,
			Level:     level,
			GrantedAt: s.now(),
		})
		if err != nil {
			return err
		}

		resp = permissionResponse(perm, grantee.Username)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *PermissionService) UpdateLevel(ctx context.Context, noteID, granteeID, ownerID int64, rawLevel string) (*domain.PermissionResponse, error) {
	level, err := domain.ParsePermissionLevel(rawLevel)
	if err != nil {
		return nil, err
	}

	var resp *domain.PermissionResponse
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := ownedNote(ctx, tx, noteID, ownerID, "Only the note owner can change permissions"); err != nil {
			return err
		}

		existing, err := tx.Permissions().Find(ctx, noteID, granteeID)
		if err != nil {
			return storeError(err, "Permission", granteeID)
		}
		existing.Level = level

		perm, err := tx.Permissions().Upsert(ctx, existing)
		if err != nil {
			return err
		}
		resp = permissionResponse(perm, displayName(ctx, tx, granteeID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *PermissionService) Revoke(ctx context.Context, noteID, granteeID, ownerID int64) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := ownedNote(ctx, tx, noteID, ownerID, "Only the note owner can revoke access"); err != nil {
			return err
		}
		return storeError(tx.Permissions().Delete(ctx, noteID, granteeID), "Permission", granteeID)
	})
}

// Leave drops the caller's own grant on a note shared with them.
func (s *PermissionService) Leave(ctx context.Context, noteID, userID int64) error {
	return s.store.Transaction(ctx, func(tx repository.Store) error {
		note, err := tx.Notes().FindByID(ctx, noteID)
		if err != nil {
			return storeError(err, "Note", noteID)
		}
		if note.IsOwnedBy(userID) {
			return domain.Validation("The owner cannot leave their own note")
		}
		return storeError(tx.Permissions().Delete(ctx, noteID, userID), "Permission", userID)
	})
}

func (s *PermissionService) ListGrants(ctx context.Context, noteID, ownerID int64) ([]*domain.PermissionResponse, error) {
	if _, err := ownedNote(ctx, s.store, noteID, ownerID, "Only the note owner can view its permissions"); err != nil {
		return nil, err
	}

	perms, err := s.store.Permissions().ListByNote(ctx, noteID)
	if err != nil {
		return nil, err
	}

	out := make([]*domain.PermissionResponse, 0, len(perms))
	for _, p := range perms {
		out = append(out, permissionResponse(p, displayName(ctx, s.store, p.UserID)))
	}
	return out, nil
}

func (s *PermissionService) SharedWithMe(ctx context.Context, userID int64) ([]*domain.NoteResponse, error) {
	perms, err := s.store.Permissions().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	levels := make(map[int64]domain.PermissionLevel, len(perms))
	ids := make([]int64, 0, len(perms))
	for _, p := range perms {
		levels[p.NoteID] = p.Level
		ids = append(ids, p.NoteID)
	}

	notes, err := s.store.Notes().ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := newNameCache(s.store)
	out := make([]*domain.NoteResponse, 0, len(notes))
	for _, n := range notes {
		resp := n.ToResponse()
		resp.CanWrite = levels[n.ID].Satisfies(domain.PermissionWrite)
		resp.LastEditorName = names.get(ctx, n.LastEditorID)
		out = append(out, resp)
	}
	return out, nil
}

// hasAccess is the permission oracle every note gate goes through. It loads
// the note, locking the row when forUpdate is set, and reports whether userID
// holds at least level on it. A missing note is NotFound.
func hasAccess(ctx context.Context, st repository.Store, noteID, userID int64, level domain.PermissionLevel, forUpdate bool) (*domain.Note, bool, error) {
	find := st.Notes().FindByID
	if forUpdate {
		find = st.Notes().FindByIDForUpdate
	}
	note, err := find(ctx, noteID)
	if err != nil {
		return nil, false, storeError(err, "Note", noteID)
	}
	ok, err := allowed(ctx, st, note, userID, level)
	if err != nil {
		return nil, false, err
	}
	return note, ok, nil
}

func allowed(ctx context.Context, st repository.Store, note *domain.Note, userID int64, level domain.PermissionLevel) (bool, error) {
	if note.IsOwnedBy(userID) {
		return true, nil
	}
	perm, err := st.Permissions().Find(ctx, note.ID, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return perm.Level.Satisfies(level), nil
}

// readableNote hides notes the caller cannot see behind NotFound.
func readableNote(ctx context.Context, st repository.Store, noteID, userID int64) (*domain.Note, error) {
	note, ok, err := hasAccess(ctx, st, noteID, userID, domain.PermissionRead, false)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NotFound("Note", noteID)
	}
	return note, nil
}

// writableNote locks the note row and checks WRITE access.
func writableNote(ctx context.Context, tx repository.Store, noteID, userID int64) (*domain.Note, error) {
	return editableNote(ctx, tx, noteID, userID, true)
}

func editableNote(ctx context.Context, st repository.Store, noteID, userID int64, forUpdate bool) (*domain.Note, error) {
	note, ok, err := hasAccess(ctx, st, noteID, userID, domain.PermissionWrite, forUpdate)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.Unauthorized("You don't have permission to edit this note")
	}
	return note, nil
}

func ownedNote(ctx context.Context, st repository.Store, noteID, userID int64, denied string) (*domain.Note, error) {
	note, err := st.Notes().FindByID(ctx, noteID)
	if err != nil {
		return nil, storeError(err, "Note", noteID)
	}
	if !note.IsOwnedBy(userID) {
		return nil, domain.Unauthorized(denied)
	}
	return note, nil
}

func permissionResponse(p *domain.Permission, username string) *domain.PermissionResponse {
	return &domain.PermissionResponse{
		ID:         p.ID,
		NoteID:     p.NoteID,
		UserID:     p.UserID,
		Username:   username,
		Permission: p.Level,
		GrantedAt:  p.GrantedAt,
	}
}

// displayName never fails: unknown or unreadable users render as Unknown.
func displayName(ctx context.Context, st repository.Store, userID int64) string {
	user, err := st.Users().FindByID(ctx, userID)
	if err != nil {
		return domain.UnknownUserName
	}
	return user.Username
}

type nameCache struct {
	st    repository.Store
	names map[int64]string
}

func newNameCache(st repository.Store) *nameCache {
	return &nameCache{st: st, names: make(map[int64]string)}
}

func (c *nameCache) get(ctx context.Context, userID int64) string {
	if name, ok := c.names[userID]; ok {
		return name
	}
	name := displayName(ctx, c.st, userID)
	c.names[userID] = name
	return name
}
