package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/vietanh2810/encore-api/internal/domain"
)

const maxChatLength = 500

var ErrInvalidChatMessage = errors.New("message must be 1 to 500 characters")

type ChatRepository interface {
	Append(ctx context.Context, msg domain.ChatMessage) error
	Page(ctx context.Context, limit, offset int) ([]domain.ChatMessage, error)
}

type ChatService struct {
	repo   ChatRepository
	events Broadcaster
}

func NewChatService(repo ChatRepository, events Broadcaster) *ChatService {
	return &ChatService{
		repo:   repo,
		events: events,
	}
}

func (s *ChatService) Post(ctx context.Context, session domain.SessionState, text string) (domain.ChatMessage, error) {
	if session.User == nil {
		return domain.ChatMessage{}, ErrNoActiveSession
	}
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n == 0 || n > maxChatLength {
		return domain.ChatMessage{}, ErrInvalidChatMessage
	}

	msg := domain.ChatMessage{
		ID:       uuid.NewString(),
		Sender:   session.User.Name,
		Nickname: session.User.Nickname,
		IsAdmin:  session.IsAdmin(),
		Message:  text,
		SentAt:   time.Now().UTC(),
	}
	if err := s.repo.Append(ctx, msg); err != nil {
		return domain.ChatMessage{}, fmt.Errorf("s.repo.Append -> %w", err)
	}
	if s.events != nil {
		s.events.Broadcast(TopicChat, "chat.message", msg)
	}

	return msg, nil
}

func (s *ChatService) Messages(ctx context.Context, limit, offset int) ([]domain.ChatMessage, error) {
	if limit <= 0 || limit > 300 {
		limit = 50
	}

	msgs, err := s.repo.Page(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("s.repo.Page -> %w", err)
	}

	return msgs, nil
}
