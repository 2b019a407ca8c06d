package models

import "time"

const MaxChatMessageLength = 500

type ChatMessage struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id"`
	Username  string     `json:"username" db:"-"`
	Content   string     `json:"content" db:"content"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	EditedAt  *time.Time `json:"edited_at" db:"edited_at"`
}
