package domain

import "time"

type Folder struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:100;not null"`
	OwnerID   int64     `json:"owner_id" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
}

type CreateFolderRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type FolderResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	NoteCount int       `json:"note_count"`
}

func (f *Folder) Clone() *Folder {
	c := *f
	return &c
}
