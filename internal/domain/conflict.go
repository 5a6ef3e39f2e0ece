package domain

import (
	"strings"
	"time"
)

type ConflictType string

const (
	ConflictConcurrentEdit  ConflictType = "CONCURRENT_EDIT"
	ConflictVersionMismatch ConflictType = "VERSION_MISMATCH"
)

type ResolutionStrategy string

const (
	ResolutionAcceptCurrent ResolutionStrategy = "ACCEPT_CURRENT"
	ResolutionAcceptNew     ResolutionStrategy = "ACCEPT_NEW"
	ResolutionMerge         ResolutionStrategy = "MERGE"
)

// ParseResolution normalizes a client supplied keyword. An unknown keyword is
// a business-rule conflict, not a validation failure.
func ParseResolution(raw string) (ResolutionStrategy, error) {
	switch s := ResolutionStrategy(strings.ToUpper(strings.TrimSpace(raw))); s {
	case ResolutionAcceptCurrent, ResolutionAcceptNew, ResolutionMerge:
		return s, nil
	default:
		return "", Conflict("Invalid resolution type. Use: ACCEPT_CURRENT, ACCEPT_NEW, or MERGE")
	}
}

// ConflictReport describes a stale edit. For the advisory active-conflict
// check the attempted fields are left empty.
type ConflictReport struct {
	NoteID           int64        `json:"note_id"`
	NoteTitle        string       `json:"note_title"`
	CurrentVersion   int64        `json:"current_version"`
	AttemptedVersion int64        `json:"attempted_version,omitempty"`
	CurrentContent   string       `json:"current_content"`
	AttemptedContent string       `json:"attempted_content,omitempty"`
	LastModifiedByID int64        `json:"last_modified_by_id"`
	LastModifiedBy   string       `json:"last_modified_by"`
	LastModifiedAt   time.Time    `json:"last_modified_at"`
	ConflictType     ConflictType `json:"conflict_type"`
}

type DetectConflictRequest struct {
	ExpectedVersion *int64 `json:"expected_version" validate:"omitempty,min=1"`
	Content         string `json:"content"`
}

type DetectConflictResponse struct {
	HasConflict bool            `json:"has_conflict"`
	Conflict    *ConflictReport `json:"conflict,omitempty"`
}

type ConflictResolutionRequest struct {
	Resolution string  `json:"resolution" validate:"required"`
	Content    *string `json:"content"`
}

// ConflictLogEntry is a conflict that was surfaced to a caller, kept so other
// collaborators can poll for recent contention on a note.
type ConflictLogEntry struct {
	ID         string         `json:"id"`
	NoteID     int64          `json:"note_id"`
	UserID     int64          `json:"user_id"`
	Report     ConflictReport `json:"report"`
	RecordedAt time.Time      `json:"recorded_at"`
}
