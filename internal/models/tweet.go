package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// MediaList is a JSON column of media references.
type MediaList []MediaRef

// Value implements driver.Valuer.
func (m MediaList) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (m *MediaList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = MediaList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return errors.New("unsupported media list column type")
	}
	if len(raw) == 0 {
		*m = MediaList{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// Tweet is a short text post. Like and comment counts are derived on read.
type Tweet struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OwnerID   uint      `gorm:"not null;index" json:"ownerId"`
	Owner     User      `gorm:"foreignKey:OwnerID" json:"-"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Media     MediaList `gorm:"type:text" json:"media"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TweetView is a tweet projected for one viewer.
type TweetView struct {
	ID           uint        `json:"id"`
	Content      string      `json:"content"`
	Media        MediaList   `json:"media"`
	Owner        UserSummary `json:"owner"`
	LikeCount    int64       `json:"likeCount"`
	CommentCount int64       `json:"commentCount"`
	IsLiked      bool        `json:"isLiked"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// TweetDetail adds the first page of comment threads to a TweetView.
type TweetDetail struct {
	TweetView
	Comments Page[*CommentNode] `json:"comments"`
}
