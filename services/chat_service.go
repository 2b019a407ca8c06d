package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Dosada05/hoops-predictor/chat"
	"github.com/Dosada05/hoops-predictor/models"
	"github.com/Dosada05/hoops-predictor/ratelimit"
	"github.com/Dosada05/hoops-predictor/repositories"
)

// ChatBroadcaster is satisfied by *chat.Hub.
type ChatBroadcaster interface {
	Broadcast(eventType string, payload interface{}) error
}

type ChatService interface {
	Send(ctx context.Context, userID int, content string) (*models.ChatMessage, error)
	Edit(ctx context.Context, userID int, messageID int64, content string) (*models.ChatMessage, error)
	Delete(ctx context.Context, userID int, messageID int64) error
	History(ctx context.Context, limit int) ([]*models.ChatMessage, error)
}

type ChatHistoryLimits struct {
	Default int
	Max     int
}

type chatService struct {
	// mu covers persist + broadcast so the broadcast order is the acceptance order.
	mu          sync.Mutex
	chatRepo    repositories.ChatMessageRepository
	userRepo    repositories.UserRepository
	broadcaster ChatBroadcaster
	limiter     ratelimit.Limiter
	limits      ChatHistoryLimits
}

func NewChatService(
	chatRepo repositories.ChatMessageRepository,
	userRepo repositories.UserRepository,
	broadcaster ChatBroadcaster,
	limiter ratelimit.Limiter,
	limits ChatHistoryLimits,
) ChatService {
	return &chatService{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
		limiter:     limiter,
		limits:      limits,
	}
}

func normalizeChatContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", ErrChatMessageEmpty
	}
	if utf8.RuneCountInString(content) > models.MaxChatMessageLength {
		return "", ErrChatMessageTooLong
	}
	return content, nil
}

func (s *chatService) Send(ctx context.Context, userID int, content string) (*models.ChatMessage, error) {
	content, err := normalizeChatContent(content)
	if err != nil {
		return nil, err
	}
	// Токен тратится до записи: неудачная запись тоже считается попыткой
	if !s.limiter.Allow(userID) {
		return nil, ErrRateLimited
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.chatRepo.Create(ctx, userID, content)
	if err != nil {
		return nil, fmt.Errorf("failed to store chat message: %w", err)
	}
	if err := s.broadcaster.Broadcast(chat.EventNew, chat.NewMessagePayload(msg)); err != nil {
		return msg, fmt.Errorf("failed to broadcast chat message %d: %w", msg.ID, err)
	}
	return msg, nil
}

func (s *chatService) Edit(ctx context.Context, userID int, messageID int64, content string) (*models.ChatMessage, error) {
	content, err := normalizeChatContent(content)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrForbiddenOperation
	}

	msg, err := s.chatRepo.UpdateContent(ctx, messageID, userID, content)
	if err != nil {
		if errors.Is(err, repositories.ErrChatMessageNotFound) {
			return nil, ErrChatMessageNotFound
		}
		return nil, fmt.Errorf("failed to update chat message %d: %w", messageID, err)
	}
	if err := s.broadcaster.Broadcast(chat.EventUpdated, chat.UpdatedMessagePayload(msg)); err != nil {
		return msg, fmt.Errorf("failed to broadcast chat update %d: %w", msg.ID, err)
	}
	return msg, nil
}

// Delete allows the author or an admin. The role is read from storage, not from the token.
func (s *chatService) Delete(ctx context.Context, userID int, messageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrUserNotFound) {
				return ErrForbiddenOperation
			}
			return fmt.Errorf("failed to get user %d: %w", userID, err)
		}
		if !user.IsAdmin() {
			return ErrForbiddenOperation
		}
	}

	if err := s.chatRepo.Delete(ctx, messageID); err != nil {
		if errors.Is(err, repositories.ErrChatMessageNotFound) {
			return ErrChatMessageNotFound
		}
		return fmt.Errorf("failed to delete chat message %d: %w", messageID, err)
	}
	if err := s.broadcaster.Broadcast(chat.EventDeleted, chat.DeletedPayload{ID: messageID}); err != nil {
		return fmt.Errorf("failed to broadcast chat delete %d: %w", messageID, err)
	}
	return nil
}

func (s *chatService) getMessage(ctx context.Context, messageID int64) (*models.ChatMessage, error) {
	msg, err := s.chatRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrChatMessageNotFound) {
			return nil, ErrChatMessageNotFound
		}
		return nil, fmt.Errorf("failed to get chat message %d: %w", messageID, err)
	}
	return msg, nil
}

func (s *chatService) History(ctx context.Context, limit int) ([]*models.ChatMessage, error) {
	if limit <= 0 {
		limit = s.limits.Default
	}
	if limit > s.limits.Max {
		limit = s.limits.Max
	}
	msgs, err := s.chatRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return msgs, nil
}
