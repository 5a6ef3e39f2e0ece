package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"

	"go.uber.org/zap"
)

// Pipeline is the single write path for note content. Every accepted edit goes
// through commit, so the note's version and the ledger advance together.
type Pipeline struct {
	now       func() time.Time
	retention int
	log       *zap.SugaredLogger
}

// NewPipeline returns a pipeline that keeps at most retention ledger entries
// per note. Zero keeps everything.
func NewPipeline(retention int, log *zap.SugaredLogger) *Pipeline {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Pipeline{
		now:       time.Now,
		retention: retention,
		log:       log,
	}
}

// create stores a brand-new note at version 1 together with its first ledger
// entry.
func (p *Pipeline) create(ctx context.Context, tx repository.Store, note *domain.Note) error {
	now := p.now()
	note.Version = 1
	note.LastEditorID = note.OwnerID
	note.CreatedAt = now
	note.UpdatedAt = now

	if err := tx.Notes().Create(ctx, note); err != nil {
		return err
	}
	return p.appendEntry(ctx, tx, note, now)
}

// commit persists note as the next version, stamped with editorID. It fails
// with a conflict if the stored row moved since note was read.
func (p *Pipeline) commit(ctx context.Context, tx repository.Store, note *domain.Note, editorID int64) error {
	now := p.now()
	expected := note.Version

	note.Version = expected + 1
	note.LastEditorID = editorID
	note.UpdatedAt = now

	if err := tx.Notes().Update(ctx, note, expected); err != nil {
		return storeError(err, "Note", note.ID)
	}
	return p.appendEntry(ctx, tx, note, now)
}

func (p *Pipeline) appendEntry(ctx context.Context, tx repository.Store, note *domain.Note, at time.Time) error {
	entry := &domain.NoteVersion{
		NoteID:    note.ID,
		Content:   note.Content,
		EditorID:  note.LastEditorID,
		CreatedAt: at,
	}
	if err := tx.Versions().Append(ctx, entry); err != nil {
		return err
	}

	if entry.VersionNumber != note.Version {
		p.log.Errorw("ledger out of step",
			"note_id", note.ID,
			"note_version", note.Version,
			"ledger_version", entry.VersionNumber,
		)
		return fmt.Errorf("note %d at version %d, ledger assigned %d: %w",
			note.ID, note.Version, entry.VersionNumber, ErrLedgerOutOfStep)
	}

	if p.retention > 0 {
		if _, err := tx.Versions().Prune(ctx, note.ID, p.retention); err != nil {
			return err
		}
	}
	return nil
}

func normalizeTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", domain.Validation("Title cannot be empty")
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return "", domain.Validation(fmt.Sprintf("Title cannot exceed %d characters", domain.MaxTitleLength))
	}
	return title, nil
}

func normalizeContent(raw string) (string, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return "", domain.Validation("Content cannot be empty")
	}
	if utf8.RuneCountInString(content) > domain.MaxContentLength {
		return "", domain.Validation(fmt.Sprintf("Content cannot exceed %d characters", domain.MaxContentLength))
	}
	return content, nil
}

// copyTitle appends the copy suffix, shortening the original so the result
// still fits the title limit.
func copyTitle(title string) string {
	limit := domain.MaxTitleLength - utf8.RuneCountInString(domain.CopyTitleSuffix)
	runes := []rune(title)
	if len(runes) > limit {
		runes = runes[:limit]
	}
	return string(runes) + domain.CopyTitleSuffix
}
