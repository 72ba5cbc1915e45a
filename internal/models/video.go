package models

import (
	"time"
)

// Video is an uploaded video owned by a single user.
type Video struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	OwnerID     uint      `gorm:"not null;index" json:"ownerId"`
	Owner       User      `gorm:"foreignKey:OwnerID" json:"-"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `gorm:"type:text;not null" json:"description"`
	VideoFile   MediaRef  `gorm:"embedded;embeddedPrefix:video_" json:"videoFile"`
	Thumbnail   MediaRef  `gorm:"embedded;embeddedPrefix:thumbnail_" json:"thumbnail"`
	Duration    float64   `gorm:"not null;default:0" json:"duration"`
	Views       int64     `gorm:"not null;default:0;index" json:"views"`
	IsPublished bool      `gorm:"not null;default:true;index" json:"isPublished"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// VideoListItem is a video as it appears in listings: owner summary, no viewer flags.
type VideoListItem struct {
	ID          uint        `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	VideoFile   MediaRef    `json:"videoFile"`
	Thumbnail   MediaRef    `json:"thumbnail"`
	Duration    float64     `json:"duration"`
	Views       int64       `json:"views"`
	IsPublished bool        `json:"isPublished"`
	CreatedAt   time.Time   `json:"createdAt"`
	Owner       UserSummary `json:"owner"`
}

// NewVideoListItem flattens v with its preloaded owner.
func NewVideoListItem(v *Video) VideoListItem {
	return VideoListItem{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		VideoFile:   v.VideoFile,
		Thumbnail:   v.Thumbnail,
		Duration:    v.Duration,
		Views:       v.Views,
		IsPublished: v.IsPublished,
		CreatedAt:   v.CreatedAt,
		Owner:       v.Owner.Summary(),
	}
}

// VideoDetail is a video fully projected for one viewer.
type VideoDetail struct {
	VideoListItem
	Owner     ChannelProfile     `json:"owner"`
	LikeCount int64              `json:"likeCount"`
	IsLiked   bool               `json:"isLiked"`
	Comments  Page[*CommentNode] `json:"comments"`
}
