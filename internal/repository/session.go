package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vietanh2810/encore-api/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionStore is the subset of the local mirror sessions need. Sessions are
// per-browser and never leave this process.
type SessionStore interface {
	Get(ctx context.Context, key string) (domain.Document, error)
	Put(ctx context.Context, doc domain.Document) (domain.Document, error)
	Delete(ctx context.Context, key string) error
}

type SessionRepository struct {
	store SessionStore
}

func NewSessionRepository(store SessionStore) *SessionRepository {
	return &SessionRepository{
		store: store,
	}
}

func (r *SessionRepository) Find(ctx context.Context, id string) (domain.SessionState, error) {
	doc, err := r.store.Get(ctx, domain.SessionPrefix+id)
	if err != nil {
		if errors.Is(err, ErrDocumentNotFound) {
			return domain.SessionState{}, ErrSessionNotFound
		}

		return domain.SessionState{}, fmt.Errorf("r.store.Get -> %w", err)
	}

	var state domain.SessionState
	if err := json.Unmarshal(doc.Body, &state); err != nil {
		return domain.SessionState{}, fmt.Errorf("json.Unmarshal -> %w", err)
	}

	return state, nil
}

func (r *SessionRepository) Save(ctx context.Context, state domain.SessionState) (domain.SessionState, error) {
	state.UpdatedAt = time.Now().UTC()
	body, err := json.Marshal(state)
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("json.Marshal -> %w", err)
	}
	if _, err := r.store.Put(ctx, domain.Document{Key: domain.SessionPrefix + state.ID, Body: body}); err != nil {
		return domain.SessionState{}, fmt.Errorf("r.store.Put -> %w", err)
	}

	return state, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Delete(ctx, domain.SessionPrefix+id); err != nil {
		return fmt.Errorf("r.store.Delete -> %w", err)
	}

	return nil
}
