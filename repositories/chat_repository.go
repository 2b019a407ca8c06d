package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/hoops-predictor/models"
)

var ErrChatMessageNotFound = errors.New("chat message not found")

type ChatMessageRepository interface {
	Create(ctx context.Context, userID int, content string) (*models.ChatMessage, error)
	GetByID(ctx context.Context, id int64) (*models.ChatMessage, error)
	UpdateContent(ctx context.Context, id int64, authorID int, content string) (*models.ChatMessage, error)
	Delete(ctx context.Context, id int64) error
	ListRecent(ctx context.Context, limit int) ([]*models.ChatMessage, error)
}

type postgresChatMessageRepository struct {
	db *sql.DB
}

func NewPostgresChatMessageRepository(db *sql.DB) ChatMessageRepository {
	return &postgresChatMessageRepository{db: db}
}

func (r *postgresChatMessageRepository) Create(ctx context.Context, userID int, content string) (*models.ChatMessage, error) {
	query := `
		WITH ins AS (
			INSERT INTO chat_messages (user_id, content)
			VALUES ($1, $2)
			RETURNING id, user_id, content, created_at, edited_at
		)
		SELECT ins.id, ins.user_id, u.username, ins.content, ins.created_at, ins.edited_at
		FROM ins
		JOIN users u ON u.id = ins.user_id`
	return scanChatMessage(r.db.QueryRowContext(ctx, query, userID, content))
}

func (r *postgresChatMessageRepository) GetByID(ctx context.Context, id int64) (*models.ChatMessage, error) {
	query := `
		SELECT m.id, m.user_id, u.username, m.content, m.created_at, m.edited_at
		FROM chat_messages m
		JOIN users u ON u.id = m.user_id
		WHERE m.id = $1`
	return scanChatMessage(r.db.QueryRowContext(ctx, query, id))
}

// UpdateContent edits the message only if authorID still owns it.
func (r *postgresChatMessageRepository) UpdateContent(ctx context.Context, id int64, authorID int, content string) (*models.ChatMessage, error) {
	query := `
		WITH upd AS (
			UPDATE chat_messages
			SET content = $1, edited_at = NOW()
			WHERE id = $2 AND user_id = $3
			RETURNING id, user_id, content, created_at, edited_at
		)
		SELECT upd.id, upd.user_id, u.username, upd.content, upd.created_at, upd.edited_at
		FROM upd
		JOIN users u ON u.id = upd.user_id`
	return scanChatMessage(r.db.QueryRowContext(ctx, query, content, id, authorID))
}

func (r *postgresChatMessageRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM chat_messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrChatMessageNotFound)
}

// ListRecent returns the newest limit messages in ascending chronological order.
func (r *postgresChatMessageRepository) ListRecent(ctx context.Context, limit int) ([]*models.ChatMessage, error) {
	query := `
		SELECT id, user_id, username, content, created_at, edited_at FROM (
			SELECT m.id, m.user_id, u.username, m.content, m.created_at, m.edited_at
			FROM chat_messages m
			JOIN users u ON u.id = m.user_id
			ORDER BY m.id DESC
			LIMIT $1
		) recent
		ORDER BY id ASC`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := make([]*models.ChatMessage, 0)
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return messages, nil
}

func scanChatMessage(row interface{ Scan(...interface{}) error }) (*models.ChatMessage, error) {
	var (
		m        models.ChatMessage
		editedAt sql.NullTime
	)
	if err := row.Scan(&m.ID, &m.UserID, &m.Username, &m.Content, &m.CreatedAt, &editedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatMessageNotFound
		}
		return nil, err
	}
	if editedAt.Valid {
		m.EditedAt = &editedAt.Time
	}
	return &m, nil
}
