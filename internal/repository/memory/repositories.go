package memory

import (
	"context"
	"fmt"
	"sort"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
)

type noteRepository struct {
	store *Store
}

func (r *noteRepository) Create(ctx context.Context, note *domain.Note) error {
	return r.store.view(func(st *state) error {
		st.nextNote++
		note.ID = st.nextNote
		st.notes[note.ID] = note.Clone()
		return nil
	})
}

func (r *noteRepository) FindByID(ctx context.Context, id int64) (*domain.Note, error) {
	var out *domain.Note
	err := r.store.view(func(st *state) error {
		n, ok := st.notes[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = n.Clone()
		return nil
	})
	return out, err
}

func (r *noteRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Note, error) {
	return r.FindByID(ctx, id)
}

func (r *noteRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Note, error) {
	return r.filter(func(n *domain.Note) bool { return n.OwnerID == ownerID })
}

func (r *noteRepository) ListByFolder(ctx context.Context, folderID int64) ([]*domain.Note, error) {
	return r.filter(func(n *domain.Note) bool { return n.FolderID != nil && *n.FolderID == folderID })
}

func (r *noteRepository) ListByIDs(ctx context.Context, ids []int64) ([]*domain.Note, error) {
	wanted := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	return r.filter(func(n *domain.Note) bool {
		_, ok := wanted[n.ID]
		return ok
	})
}

func (r *noteRepository) filter(keep func(*domain.Note) bool) ([]*domain.Note, error) {
	notes := []*domain.Note{}
	err := r.store.view(func(st *state) error {
		for _, n := range st.notes {
			if keep(n) {
				notes = append(notes, n.Clone())
			}
		}
		return nil
	})
	sortNotes(notes)
	return notes, err
}

func (r *noteRepository) CountByOwner(ctx context.Context, ownerID int64) (int64, error) {
	notes, err := r.ListByOwner(ctx, ownerID)
	return int64(len(notes)), err
}

func (r *noteRepository) Update(ctx context.Context, note *domain.Note, expectedVersion int64) error {
	return r.store.view(func(st *state) error {
		current, ok := st.notes[note.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if current.Version != expectedVersion {
			return repository.ErrStaleNote
		}
		st.notes[note.ID] = note.Clone()
		return nil
	})
}

func (r *noteRepository) UpdateFolder(ctx context.Context, id int64, folderID *int64) error {
	return r.store.view(func(st *state) error {
		n, ok := st.notes[id]
		if !ok {
			return repository.ErrNotFound
		}
		n.FolderID = copyID(folderID)
		return nil
	})
}

func (r *noteRepository) ClearFolder(ctx context.Context, folderID int64) error {
	return r.store.view(func(st *state) error {
		for _, n := range st.notes {
			if n.FolderID != nil && *n.FolderID == folderID {
				n.FolderID = nil
			}
		}
		return nil
	})
}

func (r *noteRepository) Delete(ctx context.Context, id int64) error {
	return r.store.view(func(st *state) error {
		if _, ok := st.notes[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.notes, id)
		return nil
	})
}

type versionRepository struct {
	store *Store
}

func (r *versionRepository) Append(ctx context.Context, entry *domain.NoteVersion) error {
	return r.store.view(func(st *state) error {
		existing := st.versions[entry.NoteID]
		entry.VersionNumber = 1
		if len(existing) > 0 {
			entry.VersionNumber = existing[len(existing)-1].VersionNumber + 1
		}
		st.nextVersion++
		entry.ID = st.nextVersion
		st.versions[entry.NoteID] = append(existing, entry.Clone())
		return nil
	})
}

func (r *versionRepository) Latest(ctx context.Context, noteID int64) (*domain.NoteVersion, error) {
	var out *domain.NoteVersion
	err := r.store.view(func(st *state) error {
		vs := st.versions[noteID]
		if len(vs) == 0 {
			return repository.ErrNotFound
		}
		out = vs[len(vs)-1].Clone()
		return nil
	})
	return out, err
}

func (r *versionRepository) ByVersion(ctx context.Context, noteID, versionNumber int64) (*domain.NoteVersion, error) {
	var out *domain.NoteVersion
	err := r.store.view(func(st *state) error {
		for _, v := range st.versions[noteID] {
			if v.VersionNumber == versionNumber {
				out = v.Clone()
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *versionRepository) List(ctx context.Context, noteID int64) ([]*domain.NoteVersion, error) {
	out := []*domain.NoteVersion{}
	err := r.store.view(func(st *state) error {
		vs := st.versions[noteID]
		for i := len(vs) - 1; i >= 0; i-- {
			out = append(out, vs[i].Clone())
		}
		return nil
	})
	return out, err
}

func (r *versionRepository) Count(ctx context.Context, noteID int64) (int64, error) {
	var n int64
	err := r.store.view(func(st *state) error {
		n = int64(len(st.versions[noteID]))
		return nil
	})
	return n, err
}

func (r *versionRepository) Prune(ctx context.Context, noteID int64, keepLast int) (int64, error) {
	if keepLast < 1 {
		return 0, fmt.Errorf("keepLast must be at least 1, got %d", keepLast)
	}
	var removed int64
	err := r.store.view(func(st *state) error {
		vs := st.versions[noteID]
		if len(vs) <= keepLast {
			return nil
		}
		removed = int64(len(vs) - keepLast)
		st.versions[noteID] = append([]*domain.NoteVersion(nil), vs[len(vs)-keepLast:]...)
		return nil
	})
	return removed, err
}

func (r *versionRepository) DeleteByNote(ctx context.Context, noteID int64) error {
	return r.store.view(func(st *state) error {
		delete(st.versions, noteID)
		return nil
	})
}

type permissionRepository struct {
	store *Store
}

func (r *permissionRepository) Upsert(ctx context.Context, p *domain.Permission) (*domain.Permission, error) {
	var out *domain.Permission
	err := r.store.view(func(st *state) error {
		grants, ok := st.permissions[p.NoteID]
		if !ok {
			grants = make(map[int64]*domain.Permission)
			st.permissions[p.NoteID] = grants
		}
		if existing, ok := grants[p.UserID]; ok {
			existing.Level = p.Level
			out = existing.Clone()
			return nil
		}
		st.nextPermission++
		p.ID = st.nextPermission
		grants[p.UserID] = p.Clone()
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r *permissionRepository) Find(ctx context.Context, noteID, userID int64) (*domain.Permission, error) {
	var out *domain.Permission
	err := r.store.view(func(st *state) error {
		p, ok := st.permissions[noteID][userID]
		if !ok {
			return repository.ErrNotFound
		}
		out = p.Clone()
		return nil
	})
	return out, err
}

func (r *permissionRepository) ListByNote(ctx context.Context, noteID int64) ([]*domain.Permission, error) {
	out := []*domain.Permission{}
	err := r.store.view(func(st *state) error {
		for _, p := range st.permissions[noteID] {
			out = append(out, p.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *permissionRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Permission, error) {
	out := []*domain.Permission{}
	err := r.store.view(func(st *state) error {
		for _, grants := range st.permissions {
			if p, ok := grants[userID]; ok {
				out = append(out, p.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, err
}

func (r *permissionRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	perms, err := r.ListByUser(ctx, userID)
	return int64(len(perms)), err
}

func (r *permissionRepository) Delete(ctx context.Context, noteID, userID int64) error {
	return r.store.view(func(st *state) error {
		if _, ok := st.permissions[noteID][userID]; !ok {
			return repository.ErrNotFound
		}
		delete(st.permissions[noteID], userID)
		return nil
	})
}

func (r *permissionRepository) DeleteByNote(ctx context.Context, noteID int64) error {
	return r.store.view(func(st *state) error {
		delete(st.permissions, noteID)
		return nil
	})
}

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	return r.store.view(func(st *state) error {
		for _, u := range st.users {
			if u.Username == user.Username {
				return fmt.Errorf("failed to create user: username %q already taken", user.Username)
			}
		}
		st.nextUser++
		user.ID = st.nextUser
		st.users[user.ID] = user.Clone()
		return nil
	})
}

func (r *userRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	var out *domain.User
	err := r.store.view(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = u.Clone()
		return nil
	})
	return out, err
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var out *domain.User
	err := r.store.view(func(st *state) error {
		for _, u := range st.users {
			if u.Username == username {
				out = u.Clone()
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *userRepository) UpdatePreferences(ctx context.Context, id int64, prefs domain.Preferences) error {
	return r.store.view(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return repository.ErrNotFound
		}
		u.Preferences = prefs
		u.Preferences.DefaultFolderID = copyID(prefs.DefaultFolderID)
		return nil
	})
}

func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	found := false
	err := r.store.view(func(st *state) error {
		for _, u := range st.users {
			if u.Email == email {
				found = true
			}
		}
		return nil
	})
	return found, err
}

func (r *userRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, err := r.FindByUsername(ctx, username)
	if err == repository.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

type folderRepository struct {
	store *Store
}

func (r *folderRepository) Create(ctx context.Context, folder *domain.Folder) error {
	return r.store.view(func(st *state) error {
		st.nextFolder++
		folder.ID = st.nextFolder
		st.folders[folder.ID] = folder.Clone()
		return nil
	})
}

func (r *folderRepository) FindByID(ctx context.Context, id int64) (*domain.Folder, error) {
	var out *domain.Folder
	err := r.store.view(func(st *state) error {
		f, ok := st.folders[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = f.Clone()
		return nil
	})
	return out, err
}

func (r *folderRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*domain.Folder, error) {
	out := []*domain.Folder{}
	err := r.store.view(func(st *state) error {
		for _, f := range st.folders {
			if f.OwnerID == ownerID {
				out = append(out, f.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, err
}

func (r *folderRepository) Delete(ctx context.Context, id int64) error {
	return r.store.view(func(st *state) error {
		if _, ok := st.folders[id]; !ok {
			return repository.ErrNotFound
		}
		delete(st.folders, id)
		return nil
	})
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
