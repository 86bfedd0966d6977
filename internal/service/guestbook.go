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
	"github.com/vietanh2810/encore-api/internal/repository"
)

const maxMemoLength = 200

var (
	ErrMemoNotFound = repository.ErrMemoNotFound
	ErrForbidden    = errors.New("not allowed")
	ErrInvalidMemo  = errors.New("memo must be 1 to 200 characters")
)

type GuestbookRepository interface {
	List(ctx context.Context) ([]domain.Memo, error)
	Append(ctx context.Context, memo domain.Memo) error
	Find(ctx context.Context, id string) (domain.Memo, error)
	Delete(ctx context.Context, id string) error
}

type GuestbookService struct {
	repo   GuestbookRepository
	events Broadcaster
}

func NewGuestbookService(repo GuestbookRepository, events Broadcaster) *GuestbookService {
	return &GuestbookService{
		repo:   repo,
		events: events,
	}
}

func (s *GuestbookService) List(ctx context.Context) ([]domain.Memo, error) {
	memos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.List -> %w", err)
	}

	return memos, nil
}

func (s *GuestbookService) Add(ctx context.Context, session domain.SessionState, content, color string) (domain.Memo, error) {
	if session.User == nil {
		return domain.Memo{}, ErrNoActiveSession
	}
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > maxMemoLength {
		return domain.Memo{}, ErrInvalidMemo
	}

	memo := domain.Memo{
		ID:        uuid.NewString(),
		Author:    session.User.Name,
		AuthorKey: domain.ProfileKey(session.User.Name, session.User.Phone),
		Nickname:  session.User.Nickname,
		Content:   content,
		Color:     color,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Append(ctx, memo); err != nil {
		return domain.Memo{}, fmt.Errorf("s.repo.Append -> %w", err)
	}
	if s.events != nil {
		s.events.Broadcast(TopicGuestbook, "memo.added", memo)
	}

	return memo, nil
}

// Delete removes a memo. Only its author or an admin may do so.
func (s *GuestbookService) Delete(ctx context.Context, session domain.SessionState, id string) error {
	if session.User == nil {
		return ErrNoActiveSession
	}

	memo, err := s.repo.Find(ctx, id)
	if err != nil {
		if errors.Is(err, ErrMemoNotFound) {
			return ErrMemoNotFound
		}

		return fmt.Errorf("s.repo.Find -> %w", err)
	}
	if !session.IsAdmin() && memo.AuthorKey != domain.ProfileKey(session.User.Name, session.User.Phone) {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrMemoNotFound) {
			return ErrMemoNotFound
		}

		return fmt.Errorf("s.repo.Delete -> %w", err)
	}
	if s.events != nil {
		s.events.Broadcast(TopicGuestbook, "memo.deleted", map[string]string{"id": id})
	}

	return nil
}
