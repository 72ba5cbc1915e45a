// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// MediaRef points at a blob held by the media store.
type MediaRef struct {
	URL      string `gorm:"column:url" json:"url"`
	PublicID string `gorm:"column:public_id" json:"publicId"`
}

// IsZero reports whether the reference points at nothing.
func (m MediaRef) IsZero() bool {
	return m.URL == "" && m.PublicID == ""
}

// User represents an account. A user is also a channel that others subscribe to.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:64;not null" json:"username"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	FullName     string    `gorm:"not null" json:"fullName"`
	Password     string    `gorm:"not null" json:"-"`
	Avatar       MediaRef  `gorm:"embedded;embeddedPrefix:avatar_" json:"avatar"`
	CoverImage   MediaRef  `gorm:"embedded;embeddedPrefix:cover_" json:"coverImage"`
	RefreshToken string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserSummary is the owner shape embedded in content listings.
type UserSummary struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Avatar   string `json:"avatar"`
}

// Summary returns the listing shape of u.
func (u *User) Summary() UserSummary {
	if u == nil {
		return UserSummary{}
	}
	return UserSummary{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		Avatar:   u.Avatar.URL,
	}
}
