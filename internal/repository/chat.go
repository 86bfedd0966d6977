package repository

import (
	"context"
	"sync"

	"github.com/vietanh2810/encore-api/internal/domain"
)

const DefaultChatHistory = 300

// ChatRepository keeps the newest messages of the single chat room.
type ChatRepository struct {
	docs    DocumentRepository
	history int
	mu      sync.Mutex
}

func NewChatRepository(docs DocumentRepository, history int) *ChatRepository {
	if history <= 0 {
		history = DefaultChatHistory
	}

	return &ChatRepository{
		docs:    docs,
		history: history,
	}
}

func (r *ChatRepository) Append(ctx context.Context, msg domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	msgs, err := r.loadLocked(ctx)
	if err != nil {
		return err
	}
	msgs = append(msgs, msg)
	if len(msgs) > r.history {
		msgs = msgs[len(msgs)-r.history:]
	}

	return saveJSON(ctx, r.docs, domain.DocChat, msgs)
}

// Page returns messages oldest first. offset counts back from the newest.
func (r *ChatRepository) Page(ctx context.Context, limit, offset int) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	msgs, err := r.loadLocked(ctx)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	if offset < 0 {
		offset = 0
	}
	end := len(msgs) - offset
	if end <= 0 {
		return []domain.ChatMessage{}, nil
	}
	start := 0
	if limit > 0 && end-limit > 0 {
		start = end - limit
	}

	return msgs[start:end], nil
}

func (r *ChatRepository) loadLocked(ctx context.Context) ([]domain.ChatMessage, error) {
	msgs := []domain.ChatMessage{}
	if _, err := loadJSON(ctx, r.docs, domain.DocChat, &msgs); err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.ChatMessage{}
	}

	return msgs, nil
}
