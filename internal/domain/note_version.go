package domain

import "time"

// NoteVersion is an immutable ledger entry. VersionNumber is assigned by the
// ledger on append and matches the note's version at the moment of the write.
type NoteVersion struct {
	ID            int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	NoteID        int64     `json:"note_id" gorm:"not null;uniqueIndex:idx_note_versions_note_number"`
	VersionNumber int64     `json:"version_number" gorm:"not null;uniqueIndex:idx_note_versions_note_number"`
	Content       string    `json:"content" gorm:"size:280;not null"`
	EditorID      int64     `json:"editor_id" gorm:"not null"`
	CreatedAt     time.Time `json:"created_at" gorm:"not null;autoCreateTime:false"`
}

type NoteVersionResponse struct {
	ID            int64     `json:"id"`
	NoteID        int64     `json:"note_id"`
	VersionNumber int64     `json:"version_number"`
	Content       string    `json:"content"`
	EditorID      int64     `json:"editor_id"`
	EditorName    string    `json:"editor_name"`
	CreatedAt     time.Time `json:"created_at"`
}

type PruneVersionsRequest struct {
	KeepLast int `json:"keep_last" validate:"required,min=1"`
}

type PruneVersionsResponse struct {
	Deleted  int64 `json:"deleted"`
	Retained int64 `json:"retained"`
}

func (v *NoteVersion) Clone() *NoteVersion {
	c := *v
	return &c
}
