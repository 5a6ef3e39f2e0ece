package service

import (
	"context"
	"time"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ConflictPolicy struct {
	// An edit that lost a race is classified CONCURRENT_EDIT when the note was
	// written within ConcurrentWindow and the edit is exactly ConcurrentGap
	// versions behind. Anything else is VERSION_MISMATCH.
	ConcurrentWindow time.Duration
	ConcurrentGap    int64
	// ActiveWindow bounds the advisory "someone else is editing" warning.
	ActiveWindow time.Duration
	// RequireExpectedVersion rejects edits that skip the conflict gate.
	RequireExpectedVersion bool
}

func DefaultConflictPolicy() ConflictPolicy {
	return ConflictPolicy{
		ConcurrentWindow: 5 * time.Minute,
		ConcurrentGap:    1,
		ActiveWindow:     5 * time.Minute,
	}
}

type ConflictService struct {
	store       repository.Store
	pipeline    *Pipeline
	conflictLog repository.ConflictLogRepository
	policy      ConflictPolicy
	log         *zap.SugaredLogger
}

func NewConflictService(store repository.Store, pipeline *Pipeline, conflictLog repository.ConflictLogRepository, policy ConflictPolicy, log *zap.SugaredLogger) *ConflictService {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ConflictService{
		store:       store,
		pipeline:    pipeline,
		conflictLog: conflictLog,
		policy:      policy,
		log:         log,
	}
}

// proposal is the caller's side of a conflicting edit.
type proposal struct {
	title    *string
	content  *string
	folderID *int64
}

// Detect reports whether an edit based on expectedVersion would conflict.
// A nil expectedVersion never conflicts. The caller needs WRITE access.
func (s *ConflictService) Detect(ctx context.Context, noteID, userID int64, expectedVersion *int64, attemptedContent string) (*domain.ConflictReport, error) {
	note, err := editableNote(ctx, s.store, noteID, userID, false)
	if err != nil {
		return nil, err
	}
	return s.detect(ctx, s.store, note, expectedVersion, attemptedContent), nil
}

func (s *ConflictService) detect(ctx context.Context, st repository.Store, note *domain.Note, expectedVersion *int64, attemptedContent string) *domain.ConflictReport {
	if expectedVersion == nil || *expectedVersion == note.Version {
		return nil
	}

	report := s.baseReport(ctx, st, note)
	report.AttemptedVersion = *expectedVersion
	report.AttemptedContent = attemptedContent
	report.ConflictType = s.classify(note, *expectedVersion)
	return report
}

// classify looks only at the gap and the age of the last write. Who made that
// write does not matter, and an expected version ahead of the note is always a
// mismatch.
func (s *ConflictService) classify(note *domain.Note, expectedVersion int64) domain.ConflictType {
	gap := note.Version - expectedVersion
	recent := s.pipeline.now().Sub(note.UpdatedAt) < s.policy.ConcurrentWindow

	if recent && gap == s.policy.ConcurrentGap {
		return domain.ConflictConcurrentEdit
	}
	return domain.ConflictVersionMismatch
}

// CheckForActiveConflict warns when another user wrote the note recently. It
// is advisory and never blocks an edit.
func (s *ConflictService) CheckForActiveConflict(ctx context.Context, noteID, userID int64) (*domain.ConflictReport, error) {
	note, err := readableNote(ctx, s.store, noteID, userID)
	if err != nil {
		return nil, err
	}

	if note.LastEditorID == userID {
		return nil, nil
	}
	if s.pipeline.now().Sub(note.UpdatedAt) >= s.policy.ActiveWindow {
		return nil, nil
	}

	report := s.baseReport(ctx, s.store, note)
	report.ConflictType = domain.ConflictConcurrentEdit
	return report, nil
}

// Resolve settles a conflict the caller already knows about.
func (s *ConflictService) Resolve(ctx context.Context, noteID, userID int64, req *domain.ConflictResolutionRequest) (*domain.NoteResponse, error) {
	strategy, err := domain.ParseResolution(req.Resolution)
	if err != nil {
		return nil, err
	}

	var resp *domain.NoteResponse
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		note, err := writableNote(ctx, tx, noteID, userID)
		if err != nil {
			return err
		}

		resolved, err := s.resolve(ctx, tx, note, userID, strategy, proposal{content: req.Content})
		if err != nil {
			return err
		}

		resp = noteResponse(ctx, tx, resolved, userID, true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("conflict resolved", "note_id", noteID, "user_id", userID, "resolution", strategy)
	return resp, nil
}

func (s *ConflictService) resolve(ctx context.Context, tx repository.Store, note *domain.Note, userID int64, strategy domain.ResolutionStrategy, p proposal) (*domain.Note, error) {
	switch strategy {
	case domain.ResolutionAcceptCurrent:
		return note, nil

	case domain.ResolutionAcceptNew, domain.ResolutionMerge:
		if p.content == nil {
			return nil, domain.Validation("Content is required for " + string(strategy))
		}
		content, err := normalizeContent(*p.content)
		if err != nil {
			return nil, err
		}
		if p.title != nil {
			title, err := normalizeTitle(*p.title)
			if err != nil {
				return nil, err
			}
			note.Title = title
		}
		if p.folderID != nil {
			note.FolderID = p.folderID
		}
		note.Content = content

		if err := s.pipeline.commit(ctx, tx, note, userID); err != nil {
			return nil, err
		}
		return note, nil

	default:
		_, err := domain.ParseResolution(string(strategy))
		return nil, err
	}
}

// ListRecorded returns recently surfaced conflicts on a note, newest first.
func (s *ConflictService) ListRecorded(ctx context.Context, noteID, userID int64, limit int) ([]*domain.ConflictLogEntry, error) {
	if _, err := readableNote(ctx, s.store, noteID, userID); err != nil {
		return nil, err
	}
	if s.conflictLog == nil {
		return []*domain.ConflictLogEntry{}, nil
	}
	entries, err := s.conflictLog.ListByNote(ctx, noteID, limit)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.ConflictLogEntry{}
	}
	return entries, nil
}

// record stores a surfaced conflict. Failures are logged and swallowed.
func (s *ConflictService) record(ctx context.Context, report *domain.ConflictReport, userID int64) {
	s.log.Infow("conflict detected",
		"note_id", report.NoteID,
		"user_id", userID,
		"type", report.ConflictType,
		"current_version", report.CurrentVersion,
		"attempted_version", report.AttemptedVersion,
	)

	if s.conflictLog == nil {
		return
	}

	entry := &domain.ConflictLogEntry{
		ID:         uuid.New().String(),
		NoteID:     report.NoteID,
		UserID:     userID,
		Report:     *report,
		RecordedAt: s.pipeline.now(),
	}
	if err := s.conflictLog.Record(ctx, entry); err != nil {
		s.log.Warnw("failed to record conflict", "note_id", report.NoteID, "error", err)
	}
}

func (s *ConflictService) baseReport(ctx context.Context, st repository.Store, note *domain.Note) *domain.ConflictReport {
	return &domain.ConflictReport{
		NoteID:           note.ID,
		NoteTitle:        note.Title,
		CurrentVersion:   note.Version,
		CurrentContent:   note.Content,
		LastModifiedByID: note.LastEditorID,
		LastModifiedBy:   displayName(ctx, st, note.LastEditorID),
		LastModifiedAt:   note.UpdatedAt,
	}
}
