package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
	"shared-notes-server/internal/repository/memory"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fixture struct {
	store       repository.Store
	clock       *fakeClock
	pipeline    *Pipeline
	conflictLog *memory.ConflictLog
	notes       *NoteService
	versions    *VersionService
	permissions *PermissionService
	conflicts   *ConflictService
	folders     *FolderService
	users       *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, memory.NewStore(), DefaultConflictPolicy())
}

func newFixtureWithStore(t *testing.T, store repository.Store, policy ConflictPolicy) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}

	pipeline := NewPipeline(0, nil)
	pipeline.now = clock.Now

	conflictLog := memory.NewConflictLog(10)
	conflicts := NewConflictService(store, pipeline, conflictLog, policy, nil)

	permissions := NewPermissionService(store)
	permissions.now = clock.Now

	folders := NewFolderService(store)
	folders.now = clock.Now

	return &fixture{
		store:       store,
		clock:       clock,
		pipeline:    pipeline,
		conflictLog: conflictLog,
		notes:       NewNoteService(store, pipeline, conflicts, nil),
		versions:    NewVersionService(store, pipeline),
		permissions: permissions,
		conflicts:   conflicts,
		folders:     folders,
		users:       NewUserService(store),
	}
}

func (f *fixture) user(t *testing.T, username string) int64 {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		CreatedAt:    f.clock.Now(),
		UpdatedAt:    f.clock.Now(),
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u.ID
}

func (f *fixture) note(t *testing.T, ownerID int64, title, content string) *domain.NoteResponse {
	t.Helper()
	n, err := f.notes.Create(context.Background(), ownerID, &domain.CreateNoteRequest{Title: title, Content: content})
	require.NoError(t, err)
	return n
}

func (f *fixture) share(t *testing.T, noteID, ownerID int64, username string, level domain.PermissionLevel) {
	t.Helper()
	_, err := f.permissions.Share(context.Background(), noteID, ownerID, &domain.ShareNoteRequest{
		Username:   username,
		Permission: string(level),
	})
	require.NoError(t, err)
}

func (f *fixture) stored(t *testing.T, noteID int64) *domain.Note {
	t.Helper()
	n, err := f.store.Notes().FindByID(context.Background(), noteID)
	require.NoError(t, err)
	return n
}

func (f *fixture) ledger(t *testing.T, noteID int64) []*domain.NoteVersion {
	t.Helper()
	vs, err := f.store.Versions().List(context.Background(), noteID)
	require.NoError(t, err)
	return vs
}

func ptr[T any](v T) *T {
	return &v
}

func requireKind(t *testing.T, err error, kind domain.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, domain.KindOf(err), "error: %v", err)
}

func asConflict(t *testing.T, err error) *domain.ConflictReport {
	t.Helper()
	var ce *ConflictError
	require.True(t, errors.As(err, &ce), "expected *ConflictError, got %v", err)
	return ce.Report
}

func newMemoryStore() repository.Store {
	return memory.NewStore()
}
