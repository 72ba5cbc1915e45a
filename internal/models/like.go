package models

import "time"

// TargetKind names the entity a Like or Comment points at.
type TargetKind string

// Known target kinds.
const (
	TargetVideo   TargetKind = "video"
	TargetTweet   TargetKind = "tweet"
	TargetComment TargetKind = "comment"
)

// ParseTargetKind validates a kind received from a client. It returns the
// package constant so the result never aliases a request buffer.
func ParseTargetKind(raw string) (TargetKind, bool) {
	switch TargetKind(raw) {
	case TargetVideo:
		return TargetVideo, true
	case TargetTweet:
		return TargetTweet, true
	case TargetComment:
		return TargetComment, true
	}
	return "", false
}

// Like is a user's like on exactly one target.
// The combination of target and liker must be unique.
type Like struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TargetType TargetKind `gorm:"size:16;not null;uniqueIndex:idx_like_target_user;index:idx_like_target,priority:1" json:"targetType"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_like_target_user;index:idx_like_target,priority:2" json:"targetId"`
	LikedByID  uint       `gorm:"not null;uniqueIndex:idx_like_target_user;index" json:"likedBy"`
	CreatedAt  time.Time  `json:"createdAt"`

	LikedBy User `gorm:"foreignKey:LikedByID" json:"-"`
}

// LikeState is the result of a like toggle.
type LikeState struct {
	TargetType TargetKind `json:"targetType"`
	TargetID   uint       `json:"targetId"`
	IsLiked    bool       `json:"isLiked"`
	LikeCount  int64      `json:"likeCount"`
}
