// Package domain defines the persistence models for conversation messages,
// dispatched-action audit rows, and user preferences. These types are mapped
// with GORM and form the core data layer of the assistant.
package domain

import (
	"time"
)

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Valid reports whether s is one of the known senders.
func (s Sender) Valid() bool { return s == SenderUser || s == SenderAI }

// Message is one entry in a user's conversation log. The JSON form carries
// exactly the four public fields {id, text, sender, timestamp}; the remaining
// columns are storage bookkeeping and never leave the service.
//
// Fields:
//   - RowID: surrogate primary key, defines insertion order.
//   - ConversationID: owner of the log (the client user id).
//   - ID: monotonic millisecond timestamp, strictly increasing per conversation.
//   - Text: message body, verbatim.
//   - Sender: "user" or "ai" (enforced by DB constraint).
//   - Timestamp: localized display string captured at append time.
type Message struct {
	RowID          uint      `json:"-"         gorm:"primaryKey;autoIncrement"`
	ConversationID string    `json:"-"         gorm:"type:varchar(64);not null;uniqueIndex:ux_conversation_msg,priority:1"`
	ID             int64     `json:"id"        gorm:"column:msg_id;not null;uniqueIndex:ux_conversation_msg,priority:2"`
	Text           string    `json:"text"      gorm:"type:text;not null"`
	Sender         Sender    `json:"sender"    gorm:"type:varchar(8);not null;check:sender IN ('user','ai')"`
	Timestamp      string    `json:"timestamp" gorm:"type:varchar(32);not null"`
	CreatedAt      time.Time `json:"-"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// ActionLog records one action the assistant dispatched to WordPress on
// behalf of a conversation, with its outcome. It is written in the same
// transaction as the AI message that reported the result.
type ActionLog struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ConversationID string    `json:"-"               gorm:"type:varchar(64);not null;index:idx_conversation_actions,priority:1"`
	MessageID      int64     `json:"message_id"      gorm:"not null"`
	Action         string    `json:"action"          gorm:"type:varchar(64);not null"`
	CategoryName   string    `json:"category_name,omitempty" gorm:"type:varchar(255)"`
	Outcome        string    `json:"outcome"         gorm:"type:varchar(32);not null"`
	CreatedAt      time.Time `json:"created_at"      gorm:"index:idx_conversation_actions,priority:2"`
}

// TableName returns the database table name for ActionLog.
func (ActionLog) TableName() string { return "action_logs" }

// Theme is the UI colour scheme a client asked to remember.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Preference holds per-user client preferences.
type Preference struct {
	UserID    string    `json:"-"          gorm:"type:varchar(64);primaryKey"`
	Theme     Theme     `json:"theme"      gorm:"type:varchar(8);not null;default:'light';check:theme IN ('light','dark')"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Preference.
func (Preference) TableName() string { return "preferences" }
