// Package memory is an in-process Store used by tests and by the server when
// no relational backend is configured. Transactions are serialized: each one
// works on a private copy of the data that replaces the shared copy only when
// the callback succeeds.
package memory

import (
	"context"
	"sort"
	"sync"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
)

type state struct {
	notes       map[int64]*domain.Note
	versions    map[int64][]*domain.NoteVersion
	permissions map[int64]map[int64]*domain.Permission
	users       map[int64]*domain.User
	folders     map[int64]*domain.Folder

	nextNote       int64
	nextVersion    int64
	nextPermission int64
	nextUser       int64
	nextFolder     int64
}

func newState() *state {
	return &state{
		notes:       make(map[int64]*domain.Note),
		versions:    make(map[int64][]*domain.NoteVersion),
		permissions: make(map[int64]map[int64]*domain.Permission),
		users:       make(map[int64]*domain.User),
		folders:     make(map[int64]*domain.Folder),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, n := range s.notes {
		c.notes[id] = n.Clone()
	}
	for id, vs := range s.versions {
		cp := make([]*domain.NoteVersion, len(vs))
		for i, v := range vs {
			cp[i] = v.Clone()
		}
		c.versions[id] = cp
	}
	for noteID, grants := range s.permissions {
		cp := make(map[int64]*domain.Permission, len(grants))
		for userID, p := range grants {
			cp[userID] = p.Clone()
		}
		c.permissions[noteID] = cp
	}
	for id, u := range s.users {
		c.users[id] = u.Clone()
	}
	for id, f := range s.folders {
		c.folders[id] = f.Clone()
	}
	c.nextNote = s.nextNote
	c.nextVersion = s.nextVersion
	c.nextPermission = s.nextPermission
	c.nextUser = s.nextUser
	c.nextFolder = s.nextFolder
	return c
}

type database struct {
	mu    sync.Mutex
	state *state
}

type Store struct {
	db *database
	// tx is the private copy owned by a running transaction, nil outside one.
	tx *state
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{db: &database{state: newState()}}
}

func (s *Store) Transaction(ctx context.Context, fn func(tx repository.Store) error) error {
	if s.tx != nil {
		return fn(s)
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	working := s.db.state.clone()
	if err := fn(&Store{db: s.db, tx: working}); err != nil {
		return err
	}
	s.db.state = working
	return nil
}

// view runs fn against the transaction copy, or against the shared copy under
// the lock when called outside a transaction.
func (s *Store) view(fn func(st *state) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return fn(s.db.state)
}

func (s *Store) Notes() repository.NoteRepository {
	return &noteRepository{store: s}
}

func (s *Store) Versions() repository.NoteVersionRepository {
	return &versionRepository{store: s}
}

func (s *Store) Permissions() repository.PermissionRepository {
	return &permissionRepository{store: s}
}

func (s *Store) Users() repository.UserRepository {
	return &userRepository{store: s}
}

func (s *Store) Folders() repository.FolderRepository {
	return &folderRepository{store: s}
}

func sortNotes(notes []*domain.Note) {
	sort.Slice(notes, func(i, j int) bool {
		if notes[i].UpdatedAt.Equal(notes[j].UpdatedAt) {
			return notes[i].ID > notes[j].ID
		}
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}
