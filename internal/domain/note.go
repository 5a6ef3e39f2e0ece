package domain

import "time"

const (
	MaxTitleLength   = 100
	MaxContentLength = 280
	CopyTitleSuffix  = " (Copy)"
)

type Note struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Title        string    `json:"title" gorm:"size:100;not null"`
	Content      string    `json:"content" gorm:"size:280;not null"`
	OwnerID      int64     `json:"owner_id" gorm:"not null;index"`
	FolderID     *int64    `json:"folder_id" gorm:"index"`
	Version      int64     `json:"version" gorm:"not null"`
	LastEditorID int64     `json:"last_editor_id" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null;autoUpdateTime:false"`
}

type CreateNoteRequest struct {
	Title    string `json:"title" validate:"required,max=100"`
	Content  string `json:"content" validate:"required,max=280"`
	FolderID *int64 `json:"folder_id"`
}

// UpdateNoteRequest carries a partial edit. Nil fields are left untouched.
// Resolution is only consulted when the conflict gate trips.
type UpdateNoteRequest struct {
	Title           *string             `json:"title" validate:"omitempty,max=100"`
	Content         *string             `json:"content" validate:"omitempty,max=280"`
	FolderID        *int64              `json:"folder_id"`
	ExpectedVersion *int64              `json:"expected_version" validate:"omitempty,min=1"`
	Resolution      *ResolutionStrategy `json:"resolution"`
}

type MoveNoteRequest struct {
	FolderID *int64 `json:"folder_id"`
}

type NoteResponse struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	OwnerID        int64     `json:"owner_id"`
	FolderID       *int64    `json:"folder_id"`
	Version        int64     `json:"version"`
	LastEditorID   int64     `json:"last_editor_id"`
	LastEditorName string    `json:"last_editor_name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	IsOwner        bool      `json:"is_owner"`
	CanWrite       bool      `json:"can_write"`
}

type NoteStats struct {
	OwnedNotes  int64 `json:"owned_notes"`
	SharedNotes int64 `json:"shared_notes"`
}

func (n *Note) Clone() *Note {
	c := *n
	if n.FolderID != nil {
		id := *n.FolderID
		c.FolderID = &id
	}
	return &c
}

func (n *Note) IsOwnedBy(userID int64) bool {
	return n.OwnerID == userID
}

func (n *Note) ToResponse() *NoteResponse {
	return &NoteResponse{
		ID:           n.ID,
		Title:        n.Title,
		Content:      n.Content,
		OwnerID:      n.OwnerID,
		FolderID:     n.FolderID,
		Version:      n.Version,
		LastEditorID: n.LastEditorID,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}
