package chat

import (
	"encoding/json"
	"time"

	"github.com/Dosada05/hoops-predictor/models"
)

// Client → server
const (
	EventSend   = "chat:send"
	EventUpdate = "chat:update"
	EventDelete = "chat:delete"
)

// Server → clients
const (
	EventNew     = "chat:new"
	EventUpdated = "chat:updated"
	EventDeleted = "chat:deleted"
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type outgoing struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type sendRequest struct {
	Content string `json:"content"`
}

type updateRequest struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

type deleteRequest struct {
	ID int64 `json:"id"`
}

type NewPayload struct {
	ID        int64     `json:"id"`
	UserID    int       `json:"userId"`
	Username  string    `json:"username"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type UpdatedPayload struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	Edited    bool      `json:"edited"`
	UserID    int       `json:"userId"`
	Username  string    `json:"username"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type DeletedPayload struct {
	ID int64 `json:"id"`
}

func NewMessagePayload(m *models.ChatMessage) NewPayload {
	return NewPayload{
		ID:        m.ID,
		UserID:    m.UserID,
		Username:  m.Username,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func UpdatedMessagePayload(m *models.ChatMessage) UpdatedPayload {
	updatedAt := m.CreatedAt
	if m.EditedAt != nil {
		updatedAt = *m.EditedAt
	}
	return UpdatedPayload{
		ID:        m.ID,
		Content:   m.Content,
		Edited:    true,
		UserID:    m.UserID,
		Username:  m.Username,
		UpdatedAt: updatedAt,
	}
}
