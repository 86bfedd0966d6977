package repository

import (
	"context"
	"errors"
	"sync"

	"github.com/vietanh2810/encore-api/internal/domain"
)

var ErrMemoNotFound = errors.New("memo not found")

type GuestbookRepository struct {
	docs DocumentRepository
	mu   sync.Mutex
}

func NewGuestbookRepository(docs DocumentRepository) *GuestbookRepository {
	return &GuestbookRepository{
		docs: docs,
	}
}

func (r *GuestbookRepository) List(ctx context.Context) ([]domain.Memo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.listLocked(ctx)
}

func (r *GuestbookRepository) Append(ctx context.Context, memo domain.Memo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	memos, err := r.listLocked(ctx)
	if err != nil {
		return err
	}

	return saveJSON(ctx, r.docs, domain.DocGuestbook, append(memos, memo))
}

func (r *GuestbookRepository) Find(ctx context.Context, id string) (domain.Memo, error) {
	memos, err := r.List(ctx)
	if err != nil {
		return domain.Memo{}, err
	}
	for _, m := range memos {
		if m.ID == id {
			return m, nil
		}
	}

	return domain.Memo{}, ErrMemoNotFound
}

func (r *GuestbookRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	memos, err := r.listLocked(ctx)
	if err != nil {
		return err
	}

	kept := make([]domain.Memo, 0, len(memos))
	for _, m := range memos {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	if len(kept) == len(memos) {
		return ErrMemoNotFound
	}

	return saveJSON(ctx, r.docs, domain.DocGuestbook, kept)
}

func (r *GuestbookRepository) listLocked(ctx context.Context) ([]domain.Memo, error) {
	memos := []domain.Memo{}
	if _, err := loadJSON(ctx, r.docs, domain.DocGuestbook, &memos); err != nil {
		return nil, err
	}
	if memos == nil {
		memos = []domain.Memo{}
	}

	return memos, nil
}
