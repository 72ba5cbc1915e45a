package models

import "time"

// Subscription is a directed edge from a subscriber to a channel.
// The pair is unique; the reverse edge is independent.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscriber_channel;index" json:"subscriberId"`
	ChannelID    uint      `gorm:"not null;uniqueIndex:idx_subscriber_channel;index" json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`

	Subscriber User `gorm:"foreignKey:SubscriberID" json:"-"`
	Channel    User `gorm:"foreignKey:ChannelID" json:"-"`
}

// ChannelProfile is a user projected as a channel relative to a viewer.
type ChannelProfile struct {
	ID                uint     `json:"id"`
	Username          string   `json:"username"`
	FullName          string   `json:"fullName"`
	Email             string   `json:"email,omitempty"`
	Avatar            MediaRef `json:"avatar"`
	CoverImage        MediaRef `json:"coverImage"`
	SubscriberCount   int64    `json:"subscriberCount"`
	SubscribedToCount int64    `json:"subscribedToCount"`
	IsSubscribed      bool     `json:"isSubscribed"`
}

// SubscriptionState is the result of a subscribe toggle.
type SubscriptionState struct {
	ChannelID       uint  `json:"channelId"`
	IsSubscribed    bool  `json:"isSubscribed"`
	SubscriberCount int64 `json:"subscriberCount"`
}

// SubscriberEntry is one subscriber in a channel's subscriber list.
type SubscriberEntry struct {
	ChannelProfile
	SubscribedBack bool      `json:"subscribedBack"`
	SubscribedAt   time.Time `json:"subscribedAt"`
}

// SubscriptionEntry is one channel in a user's subscription list.
type SubscriptionEntry struct {
	ChannelProfile
	SubscribedAt time.Time `json:"subscribedAt"`
}
