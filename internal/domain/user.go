package domain

import "time"

const UnknownUserName = "Unknown"

type User struct {
	ID           int64       `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string      `json:"username" gorm:"size:50;not null;uniqueIndex"`
	Email        string      `json:"email" gorm:"size:100;uniqueIndex"`
	Name         string      `json:"name" gorm:"size:100"`
	PasswordHash string      `json:"-" gorm:"not null"`
	Preferences  Preferences `json:"preferences" gorm:"serializer:json"`
	CreatedAt    time.Time   `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time   `json:"updated_at" gorm:"not null"`
}

// Preferences is the closed set of per-user settings. Payloads carrying any
// other key are rejected.
type Preferences struct {
	Theme           string `json:"theme,omitempty" yaml:"theme" validate:"omitempty,oneof=light dark system"`
	Language        string `json:"language,omitempty" yaml:"language" validate:"omitempty,len=2,alpha"`
	DefaultFolderID *int64 `json:"default_folder_id,omitempty" yaml:"default_folder_id"`
	EditorFontSize  int    `json:"editor_font_size,omitempty" yaml:"editor_font_size" validate:"omitempty,min=8,max=48"`
}

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"omitempty,max=100"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	User         *User  `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (u *User) Clone() *User {
	c := *u
	if u.Preferences.DefaultFolderID != nil {
		id := *u.Preferences.DefaultFolderID
		c.Preferences.DefaultFolderID = &id
	}
	return &c
}
