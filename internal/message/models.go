package message

import (
	"time"

	"github.com/darapanenichandrika7/whatsapp-clone/internal/event"
)

// Message is the durable representation of one chat message. The
// unique index on ExternalID is the dedup constraint: a second insert
// for the same provider id surfaces as ErrAlreadyExists.
type Message struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement" json:"-"`
	ConversationID string          `gorm:"type:varchar(64);index;not null" json:"wa_id"`
	ExternalID     string          `gorm:"type:varchar(128);uniqueIndex;not null" json:"meta_msg_id"`
	Body           string          `gorm:"type:text" json:"text"`
	Direction      event.Direction `gorm:"type:varchar(16);not null" json:"direction"`
	Status         event.Status    `gorm:"type:varchar(16);index;not null" json:"status"`
	CreatedAt      time.Time       `gorm:"index" json:"timestamp"`
}

func (Message) TableName() string { return "processed_messages" }

// PendingStatus parks a status update whose target message has not been
// observed yet. At most one entry exists per external id; a newer
// buffered status overwrites the older one.
type PendingStatus struct {
	ID         uint64       `gorm:"primaryKey;autoIncrement" json:"-"`
	ExternalID string       `gorm:"type:varchar(128);uniqueIndex;not null" json:"meta_msg_id"`
	Status     event.Status `gorm:"type:varchar(16);not null" json:"new_status"`
	ReceivedAt time.Time    `json:"received_at"`
}

func (PendingStatus) TableName() string { return "pending_status_updates" }

// ChatSummary is one row of the conversation listing: the latest
// message of a conversation plus its unread count.
type ChatSummary struct {
	ConversationID string    `json:"wa_id"`
	LastBody       string    `json:"last_text"`
	LastStatus     string    `json:"last_status"`
	LastDirection  string    `json:"last_direction"`
	LastAt         time.Time `json:"last_timestamp"`
	UnreadCount    int64     `json:"unread_count"`
}
