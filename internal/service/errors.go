package service

import (
	"errors"
	"fmt"

	"shared-notes-server/internal/domain"
	"shared-notes-server/internal/repository"
)

// ErrLedgerOutOfStep means the ledger assigned a number different from the
// note's new version. The surrounding transaction is rolled back.
var ErrLedgerOutOfStep = errors.New("version ledger out of step with note")

// ConflictError aborts an edit whose expected version no longer matches the
// stored note. Report carries everything the caller needs to reconcile.
type ConflictError struct {
	Report *domain.ConflictReport
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict detected: note %d is at version %d, edit was based on version %d",
		e.Report.NoteID, e.Report.CurrentVersion, e.Report.AttemptedVersion)
}

func (e *ConflictError) Kind() domain.Kind {
	return domain.KindConflict
}

func storeError(err error, resource string, id any) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return domain.NotFound(resource, id)
	case errors.Is(err, repository.ErrStaleNote):
		return &domain.Error{
			Kind:    domain.KindConflict,
			Message: "Note was modified by another user. Reload it and try again.",
			Err:     err,
		}
	default:
		return err
	}
}
