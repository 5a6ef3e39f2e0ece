package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"shared-notes-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(DatabaseOptions{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db))
	return NewGormStore(db)
}

func seedNote(t *testing.T, st Store, ownerID int64) *domain.Note {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	note := &domain.Note{
		Title:        "Title",
		Content:      "content",
		OwnerID:      ownerID,
		Version:      1,
		LastEditorID: ownerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, st.Notes().Create(context.Background(), note))
	require.NotZero(t, note.ID)
	return note
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(DatabaseOptions{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestNoteRepository_CompareAndSet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	note := seedNote(t, st, 1)

	note.Content = "second"
	note.Version = 2
	require.NoError(t, st.Notes().Update(ctx, note, 1))

	stale := *note
	stale.Content = "late"
	stale.Version = 2
	err := st.Notes().Update(ctx, &stale, 1)
	assert.ErrorIs(t, err, ErrStaleNote)

	missing := *note
	missing.ID = 999
	assert.ErrorIs(t, st.Notes().Update(ctx, &missing, 2), ErrNotFound)

	stored, err := st.Notes().FindByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stored.Version)
	assert.Equal(t, "second", stored.Content)
}

func TestNoteRepository_FindAndList(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	a := seedNote(t, st, 1)
	b := seedNote(t, st, 1)
	seedNote(t, st, 2)

	_, err := st.Notes().FindByID(ctx, 404)
	assert.ErrorIs(t, err, ErrNotFound)

	err = st.Transaction(ctx, func(tx Store) error {
		locked, err := tx.Notes().FindByIDForUpdate(ctx, a.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, a.ID, locked.ID)
		return nil
	})
	require.NoError(t, err)

	owned, err := st.Notes().ListByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, owned, 2)

	count, err := st.Notes().CountByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	byIDs, err := st.Notes().ListByIDs(ctx, []int64{a.ID, b.ID, 404})
	require.NoError(t, err)
	assert.Len(t, byIDs, 2)

	none, err := st.Notes().ListByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNoteRepository_Folders(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	folder := &domain.Folder{Name: "Work", OwnerID: 1, CreatedAt: time.Now()}
	require.NoError(t, st.Folders().Create(ctx, folder))
	note := seedNote(t, st, 1)

	require.NoError(t, st.Notes().UpdateFolder(ctx, note.ID, &folder.ID))
	inFolder, err := st.Notes().ListByFolder(ctx, folder.ID)
	require.NoError(t, err)
	require.Len(t, inFolder, 1)
	assert.Equal(t, int64(1), inFolder[0].Version, "moving does not touch the version")

	require.NoError(t, st.Notes().ClearFolder(ctx, folder.ID))
	stored, err := st.Notes().FindByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.FolderID)

	require.NoError(t, st.Folders().Delete(ctx, folder.ID))
	assert.ErrorIs(t, st.Folders().Delete(ctx, folder.ID), ErrNotFound)
}

func TestNoteVersionRepository_AppendAndPrune(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	note := seedNote(t, st, 1)

	for i := 1; i <= 5; i++ {
		entry := &domain.NoteVersion{
			NoteID:    note.ID,
			Content:   fmt.Sprintf("v%d", i),
			EditorID:  1,
			CreatedAt: time.Now(),
		}
		require.NoError(t, st.Versions().Append(ctx, entry))
		assert.Equal(t, int64(i), entry.VersionNumber)
	}

	latest, err := st.Versions().Latest(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), latest.VersionNumber)

	v3, err := st.Versions().ByVersion(ctx, note.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, "v3", v3.Content)

	_, err = st.Versions().ByVersion(ctx, note.ID, 9)
	assert.ErrorIs(t, err, ErrNotFound)

	removed, err := st.Versions().Prune(ctx, note.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	list, err := st.Versions().List(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, int64(5), list[0].VersionNumber)
	assert.Equal(t, int64(4), list[1].VersionNumber)

	next := &domain.NoteVersion{NoteID: note.ID, Content: "v6", EditorID: 1, CreatedAt: time.Now()}
	require.NoError(t, st.Versions().Append(ctx, next))
	assert.Equal(t, int64(6), next.VersionNumber)

	removed, err = st.Versions().Prune(ctx, note.ID, 10)
	require.NoError(t, err)
	assert.Zero(t, removed)

	_, err = st.Versions().Prune(ctx, note.ID, 0)
	assert.Error(t, err)

	require.NoError(t, st.Versions().DeleteByNote(ctx, note.ID))
	count, err := st.Versions().Count(ctx, note.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = st.Versions().Latest(ctx, note.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPermissionRepository_Upsert(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	note := seedNote(t, st, 1)

	first, err := st.Permissions().Upsert(ctx, &domain.Permission{
		NoteID: note.ID, UserID: 2, Level: domain.PermissionRead, GrantedAt: time.Now(),
	})
	require.NoError(t, err)

	second, err := st.Permissions().Upsert(ctx, &domain.Permission{
		NoteID: note.ID, UserID: 2, Level: domain.PermissionWrite, GrantedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, domain.PermissionWrite, second.Level)

	found, err := st.Permissions().Find(ctx, note.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.PermissionWrite, found.Level)

	grants, err := st.Permissions().ListByNote(ctx, note.ID)
	require.NoError(t, err)
	assert.Len(t, grants, 1)

	shared, err := st.Permissions().CountByUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), shared)

	require.NoError(t, st.Permissions().Delete(ctx, note.ID, 2))
	assert.ErrorIs(t, st.Permissions().Delete(ctx, note.ID, 2), ErrNotFound)

	_, err = st.Permissions().Find(ctx, note.ID, 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user := &domain.User{
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	require.NoError(t, st.Users().Create(ctx, user))

	exists, err := st.Users().UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = st.Users().EmailExists(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)

	folderID := int64(7)
	prefs := domain.Preferences{Theme: "dark", DefaultFolderID: &folderID, EditorFontSize: 16}
	require.NoError(t, st.Users().UpdatePreferences(ctx, user.ID, prefs))
	require.NoError(t, st.Users().UpdatePreferences(ctx, user.ID, prefs), "unchanged preferences are not an error")

	stored, err := st.Users().FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "dark", stored.Preferences.Theme)
	require.NotNil(t, stored.Preferences.DefaultFolderID)
	assert.Equal(t, folderID, *stored.Preferences.DefaultFolderID)

	assert.ErrorIs(t, st.Users().UpdatePreferences(ctx, 999, prefs), ErrNotFound)

	_, err = st.Users().FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_TransactionRollback(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	errBoom := errors.New("boom")

	err := st.Transaction(ctx, func(tx Store) error {
		seedNote(t, tx, 1)
		return errBoom
	})
	assert.ErrorIs(t, err, errBoom)

	count, err := st.Notes().CountByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = st.Transaction(ctx, func(tx Store) error {
		seedNote(t, tx, 1)
		return nil
	})
	require.NoError(t, err)

	count, err = st.Notes().CountByOwner(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
