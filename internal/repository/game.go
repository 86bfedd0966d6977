package repository

import (
	"context"
	"sync"

	"github.com/vietanh2810/encore-api/internal/domain"
)

type GameRepository struct {
	docs DocumentRepository
	mu   sync.Mutex
}

func NewGameRepository(docs DocumentRepository) *GameRepository {
	return &GameRepository{
		docs: docs,
	}
}

func (r *GameRepository) Load(ctx context.Context) (domain.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.loadLocked(ctx)
}

// Update applies fn to the stored state and saves the result.
func (r *GameRepository) Update(ctx context.Context, fn func(*domain.GameState) error) (domain.GameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := r.loadLocked(ctx)
	if err != nil {
		return domain.GameState{}, err
	}
	if err := fn(&state); err != nil {
		return domain.GameState{}, err
	}
	if err := saveJSON(ctx, r.docs, domain.DocGames, state); err != nil {
		return domain.GameState{}, err
	}

	return state, nil
}

func (r *GameRepository) loadLocked(ctx context.Context) (domain.GameState, error) {
	state := domain.GameState{
		Roulette: domain.RouletteState{Options: []string{}},
		Draw:     domain.NumberDrawState{Drawn: []int{}},
		Marquee:  domain.MarqueeState{Speed: 5},
	}
	if _, err := loadJSON(ctx, r.docs, domain.DocGames, &state); err != nil {
		return domain.GameState{}, err
	}
	if state.Draw.Drawn == nil {
		state.Draw.Drawn = []int{}
	}
	if state.Roulette.Options == nil {
		state.Roulette.Options = []string{}
	}

	return state, nil
}
