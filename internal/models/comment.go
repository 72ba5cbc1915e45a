package models

import (
	"time"
)

// Comment is attached to a video or tweet. ParentID is nil for root comments
// and is never reassigned after creation.
type Comment struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Content    string     `gorm:"type:text;not null" json:"content"`
	OwnerID    uint       `gorm:"not null;index" json:"ownerId"`
	Owner      User       `gorm:"foreignKey:OwnerID" json:"-"`
	TargetType TargetKind `gorm:"size:16;not null;index:idx_comment_target,priority:1" json:"targetType"`
	TargetID   uint       `gorm:"not null;index:idx_comment_target,priority:2" json:"targetId"`
	ParentID   *uint      `gorm:"index" json:"parentId"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// IsRoot reports whether c has no parent.
func (c *Comment) IsRoot() bool {
	return c.ParentID == nil
}

// CommentNode is a comment projected for one viewer with its expanded replies.
type CommentNode struct {
	ID                  uint           `json:"id"`
	Content             string         `json:"content"`
	TargetType          TargetKind     `json:"targetType"`
	TargetID            uint           `json:"targetId"`
	ParentID            *uint          `json:"parentId"`
	Owner               UserSummary    `json:"owner"`
	LikeCount           int64          `json:"likeCount"`
	IsLiked             bool           `json:"isLiked"`
	ReplyCount          int64          `json:"replyCount"`
	TruncatedReplyCount int64          `json:"truncatedReplyCount"`
	Replies             []*CommentNode `json:"replies"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// NewCommentNode copies c's stored fields into an unexpanded node.
func NewCommentNode(c *Comment) *CommentNode {
	return &CommentNode{
		ID:         c.ID,
		Content:    c.Content,
		TargetType: c.TargetType,
		TargetID:   c.TargetID,
		ParentID:   c.ParentID,
		Owner:      c.Owner.Summary(),
		Replies:    []*CommentNode{},
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
