package domain

import (
	"strings"
	"time"
)

type PermissionLevel string

const (
	PermissionRead  PermissionLevel = "READ"
	PermissionWrite PermissionLevel = "WRITE"
)

// ParsePermissionLevel accepts the two enumerated levels, case-insensitively.
func ParsePermissionLevel(raw string) (PermissionLevel, error) {
	switch PermissionLevel(strings.ToUpper(strings.TrimSpace(raw))) {
	case PermissionRead:
		return PermissionRead, nil
	case PermissionWrite:
		return PermissionWrite, nil
	default:
		return "", Validation("Permission must be READ or WRITE")
	}
}

// Satisfies reports whether a grant at level l is enough for required.
// WRITE implies READ.
func (l PermissionLevel) Satisfies(required PermissionLevel) bool {
	if l == PermissionWrite {
		return true
	}
	return l == PermissionRead && required == PermissionRead
}

type Permission struct {
	ID        int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	NoteID    int64           `json:"note_id" gorm:"not null;uniqueIndex:idx_permissions_note_user"`
	UserID    int64           `json:"user_id" gorm:"not null;uniqueIndex:idx_permissions_note_user;index"`
	Level     PermissionLevel `json:"permission" gorm:"size:5;not null"`
	GrantedAt time.Time       `json:"granted_at" gorm:"not null"`
}

type ShareNoteRequest struct {
	Username   string `json:"username" validate:"required"`
	Permission string `json:"permission" validate:"required"`
}

type UpdatePermissionRequest struct {
	Permission string `json:"permission" validate:"required"`
}

type PermissionResponse struct {
	ID         int64           `json:"id"`
	NoteID     int64           `json:"note_id"`
	UserID     int64           `json:"user_id"`
	Username   string          `json:"username"`
	Permission PermissionLevel `json:"permission"`
	GrantedAt  time.Time       `json:"granted_at"`
}

func (p *Permission) Clone() *Permission {
	c := *p
	return &c
}
