package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"shared-notes-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	note, err := f.notes.Create(ctx, alice, &domain.CreateNoteRequest{Title: "  Groceries ", Content: " milk, eggs \n"})
	require.NoError(t, err)

	assert.Equal(t, "Groceries", note.Title)
	assert.Equal(t, "milk, eggs", note.Content)
	assert.Equal(t, int64(1), note.Version)
	assert.Equal(t, alice, note.LastEditorID)
	assert.Equal(t, "alice", note.LastEditorName)
	assert.True(t, note.IsOwner)

	ledger := f.ledger(t, note.ID)
	require.Len(t, ledger, 1)
	assert.Equal(t, int64(1), ledger[0].VersionNumber)
	assert.Equal(t, "milk, eggs", ledger[0].Content)
	assert.Equal(t, alice, ledger[0].EditorID)
}

func TestNoteService_CreateValidation(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")

	tests := []struct {
		name    string
		req     domain.CreateNoteRequest
		wantErr bool
	}{
		{name: "blank title", req: domain.CreateNoteRequest{Title: "   ", Content: "x"}, wantErr: true},
		{name: "blank content", req: domain.CreateNoteRequest{Title: "t", Content: " \t "}, wantErr: true},
		{name: "content over limit", req: domain.CreateNoteRequest{Title: "t", Content: strings.Repeat("a", 281)}, wantErr: true},
		{name: "title over limit", req: domain.CreateNoteRequest{Title: strings.Repeat("t", 101), Content: "x"}, wantErr: true},
		{name: "content at limit", req: domain.CreateNoteRequest{Title: "t", Content: strings.Repeat("a", 280)}},
		{name: "multibyte content at limit", req: domain.CreateNoteRequest{Title: "t", Content: strings.Repeat("é", 280)}},
		{name: "missing folder", req: domain.CreateNoteRequest{Title: "t", Content: "x", FolderID: ptr(int64(99))}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.notes.Create(context.Background(), alice, &tt.req)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, []domain.Kind{domain.KindValidation, domain.KindNotFound}, domain.KindOf(err))
		})
	}
}

func TestNoteService_CreateUsesDefaultFolder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	folder, err := f.folders.Create(ctx, alice, &domain.CreateFolderRequest{Name: "Inbox"})
	require.NoError(t, err)
	_, err = f.users.UpdatePreferences(ctx, alice, domain.Preferences{DefaultFolderID: &folder.ID})
	require.NoError(t, err)

	note := f.note(t, alice, "t", "c")
	require.NotNil(t, note.FolderID)
	assert.Equal(t, folder.ID, *note.FolderID)
}

func TestNoteService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	note := f.note(t, alice, "Plan", "draft")

	f.clock.Advance(time.Minute)
	updated, err := f.notes.Update(ctx, note.ID, alice, &domain.UpdateNoteRequest{
		Content:         ptr("  final  "),
		ExpectedVersion: ptr(int64(1)),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, "Plan", updated.Title)
	assert.Equal(t, f.clock.Now(), updated.UpdatedAt)

	ledger := f.ledger(t, note.ID)
	require.Len(t, ledger, 2)
	assert.Equal(t, int64(2), ledger[0].VersionNumber)
	assert.Equal(t, "final", ledger[0].Content)
}

func TestNoteService_UpdateWithoutExpectedVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	note := f.note(t, alice, "Plan", "draft")

	_, err := f.notes.Update(ctx, note.ID, alice, &domain.UpdateNoteRequest{Content: ptr("one")})
	require.NoError(t, err)
	updated, err := f.notes.Update(ctx, note.ID, alice, &domain.UpdateNoteRequest{Content: ptr("two")})
	require.NoError(t, err)

	assert.Equal(t, int64(3), updated.Version)
	assert.Equal(t, "two", updated.Content)
}

func TestNoteService_UpdateRequiresExpectedVersionWhenConfigured(t *testing.T) {
	policy := DefaultConflictPolicy()
	policy.RequireExpectedVersion = true
	f := newFixtureWithStore(t, newMemoryStore(), policy)
	alice := f.user(t, "alice")
	note := f.note(t, alice, "Plan", "draft")

	_, err := f.notes.Update(context.Background(), note.ID, alice, &domain.UpdateNoteRequest{Content: ptr("x")})
	requireKind(t, err, domain.KindValidation)
	assert.Equal(t, int64(1), f.stored(t, note.ID).Version)
}

func TestNoteService_UpdateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	note := f.note(t, alice, "Plan", "draft")

	_, err := f.notes.Update(ctx, note.ID, alice, &domain.UpdateNoteRequest{})
	requireKind(t, err, domain.KindValidation)

	_, err = f.notes.Update(ctx, note.ID, alice, &domain.UpdateNoteRequest{Content: ptr(strings.Repeat("x", 281))})
	requireKind(t, err, domain.KindValidation)

	_, err = f.notes.Update(ctx, note.ID, alice, &domain.UpdateNoteRequest{Title: ptr("   ")})
	requireKind(t, err, domain.KindValidation)

	_, err = f.notes.Update(ctx, 404, alice, &domain.UpdateNoteRequest{Content: ptr("x")})
	requireKind(t, err, domain.KindNotFound)

	assert.Equal(t, int64(1), f.stored(t, note.ID).Version)
	assert.Len(t, f.ledger(t, note.ID), 1)
}

func TestNoteService_UpdatePermissions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	carol := f.user(t, "carol")
	dave := f.user(t, "dave")

	note := f.note(t, alice, "Shared", "v1")
	f.share(t, note.ID, alice, "bob", domain.PermissionWrite)
	f.share(t, note.ID, alice, "carol", domain.PermissionRead)

	updated, err := f.notes.Update(ctx, note.ID, bob, &domain.UpdateNoteRequest{Content: ptr("bob was here")})
	require.NoError(t, err)
	assert.Equal(t, bob, updated.LastEditorID)
	assert.Equal(t, "bob", updated.LastEditorName)
	assert.False(t, updated.IsOwner)

	_, err = f.notes.Update(ctx, note.ID, carol, &domain.UpdateNoteRequest{Content: ptr("nope")})
	requireKind(t, err, domain.KindUnauthorized)

	_, err = f.notes.Update(ctx, note.ID, dave, &domain.UpdateNoteRequest{Content: ptr("nope")})
	requireKind(t, err, domain.KindUnauthorized)

	folder, err := f.folders.Create(ctx, bob, &domain.CreateFolderRequest{Name: "bob's"})
	require.NoError(t, err)
	_, err = f.notes.Update(ctx, note.ID, bob, &domain.UpdateNoteRequest{FolderID: &folder.ID})
	requireKind(t, err, domain.KindUnauthorized)

	assert.Equal(t, int64(2), f.stored(t, note.ID).Version)
}

func TestNoteService_UpdateFolderOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	note := f.note(t, alice, "Plan", "draft")
	folder, err := f.folders.Create(ctx, alice, &domain.CreateFolderRequest{Name: "Work"})
	require.NoError(t, err)

	updated, err := f.notes.Update(ctx, note.ID, alice, &domain.UpdateNoteRequest{FolderID: &folder.ID})
	require.NoError(t, err)
	require.NotNil(t, updated.FolderID)
	assert.Equal(t, folder.ID, *updated.FolderID)
	assert.Equal(t, int64(1), updated.Version, "placement does not bump the version")
}

func TestNoteService_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	eve := f.user(t, "eve")

	note := f.note(t, alice, "Secret", "shh")
	f.share(t, note.ID, alice, "bob", domain.PermissionRead)

	got, err := f.notes.Get(ctx, note.ID, bob)
	require.NoError(t, err)
	assert.False(t, got.CanWrite)
	assert.False(t, got.IsOwner)

	got, err = f.notes.Get(ctx, note.ID, alice)
	require.NoError(t, err)
	assert.True(t, got.CanWrite)

	_, err = f.notes.Get(ctx, note.ID, eve)
	requireKind(t, err, domain.KindNotFound)
}

func TestNoteService_Move(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	note := f.note(t, alice, "Plan", "draft")
	f.share(t, note.ID, alice, "bob", domain.PermissionWrite)

	folder, err := f.folders.Create(ctx, alice, &domain.CreateFolderRequest{Name: "Work"})
	require.NoError(t, err)

	moved, err := f.notes.Move(ctx, note.ID, alice, &folder.ID)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, *moved.FolderID)
	assert.Equal(t, int64(1), moved.Version)

	inFolder, err := f.notes.ListByFolder(ctx, folder.ID, alice)
	require.NoError(t, err)
	require.Len(t, inFolder, 1)

	_, err = f.notes.Move(ctx, note.ID, bob, nil)
	requireKind(t, err, domain.KindUnauthorized)

	moved, err = f.notes.Move(ctx, note.ID, alice, nil)
	require.NoError(t, err)
	assert.Nil(t, moved.FolderID)
}

func TestNoteService_Copy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	folder, err := f.folders.Create(ctx, alice, &domain.CreateFolderRequest{Name: "Work"})
	require.NoError(t, err)
	src, err := f.notes.Create(ctx, alice, &domain.CreateNoteRequest{Title: "Plan", Content: "draft", FolderID: &folder.ID})
	require.NoError(t, err)
	_, err = f.notes.Update(ctx, src.ID, alice, &domain.UpdateNoteRequest{Content: ptr("second")})
	require.NoError(t, err)

	dup, err := f.notes.Copy(ctx, src.ID, alice)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, dup.ID)
	assert.Equal(t, "Plan (Copy)", dup.Title)
	assert.Equal(t, "second", dup.Content)
	assert.Equal(t, int64(1), dup.Version)
	require.NotNil(t, dup.FolderID)
	assert.Equal(t, folder.ID, *dup.FolderID)
	assert.Len(t, f.ledger(t, dup.ID), 1)

	f.share(t, src.ID, alice, "bob", domain.PermissionRead)
	bobCopy, err := f.notes.Copy(ctx, src.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, bob, bobCopy.OwnerID)
	assert.Nil(t, bobCopy.FolderID, "folders of other users are not carried over")
}

func TestNoteService_CopyLongTitle(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	src := f.note(t, alice, strings.Repeat("t", 100), "c")

	dup, err := f.notes.Copy(context.Background(), src.ID, alice)
	require.NoError(t, err)
	assert.Len(t, []rune(dup.Title), domain.MaxTitleLength)
	assert.True(t, strings.HasSuffix(dup.Title, domain.CopyTitleSuffix))
}

func TestNoteService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	note := f.note(t, alice, "Plan", "draft")
	f.share(t, note.ID, alice, "bob", domain.PermissionWrite)

	err := f.notes.Delete(ctx, note.ID, bob)
	requireKind(t, err, domain.KindUnauthorized)

	require.NoError(t, f.notes.Delete(ctx, note.ID, alice))

	_, err = f.notes.Get(ctx, note.ID, alice)
	requireKind(t, err, domain.KindNotFound)
	assert.Empty(t, f.ledger(t, note.ID))

	shared, err := f.permissions.SharedWithMe(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, shared)

	err = f.notes.Delete(ctx, note.ID, alice)
	requireKind(t, err, domain.KindNotFound)
}

func TestNoteService_ListAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")

	f.note(t, alice, "one", "1")
	f.clock.Advance(time.Second)
	second := f.note(t, alice, "two", "2")
	bobs := f.note(t, bob, "bob's", "b")
	f.share(t, bobs.ID, bob, "alice", domain.PermissionRead)

	notes, err := f.notes.List(ctx, alice)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, second.ID, notes[0].ID, "most recently updated first")

	stats, err := f.notes.Stats(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.OwnedNotes)
	assert.Equal(t, int64(1), stats.SharedNotes)
}
