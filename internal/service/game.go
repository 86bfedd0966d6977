package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vietanh2810/encore-api/internal/domain"
)

const defaultMarqueeSpeed = 5

var (
	ErrNoCandidates   = errors.New("every checked-in guest has already been drawn")
	ErrNoOptions      = errors.New("roulette needs at least one option")
	ErrInvalidMarquee = errors.New("marquee text must be 1 to 100 characters and speed 1 to 10")
)

type GameRepository interface {
	Load(ctx context.Context) (domain.GameState, error)
	Update(ctx context.Context, fn func(*domain.GameState) error) (domain.GameState, error)
}

type GameService struct {
	games  GameRepository
	roster RosterReader
	events Broadcaster
	intN   func(n int) int
	now    func() time.Time
}

func NewGameService(games GameRepository, roster RosterReader, events Broadcaster) *GameService {
	return &GameService{
		games:  games,
		roster: roster,
		events: events,
		intN:   rand.Intn,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *GameService) State(ctx context.Context) (domain.GameState, error) {
	state, err := s.games.Load(ctx)
	if err != nil {
		return domain.GameState{}, fmt.Errorf("s.games.Load -> %w", err)
	}

	return state, nil
}

// SpinRoulette picks one option uniformly. Empty options reuse the stored ones.
func (s *GameService) SpinRoulette(ctx context.Context, options []string) (domain.GameState, error) {
	cleaned := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			cleaned = append(cleaned, o)
		}
	}

	return s.update(ctx, func(state *domain.GameState) error {
		if len(cleaned) > 0 {
			state.Roulette.Options = cleaned
		}
		if len(state.Roulette.Options) == 0 {
			return ErrNoOptions
		}
		at := s.now()
		state.Roulette.Result = state.Roulette.Options[s.intN(len(state.Roulette.Options))]
		state.Roulette.SpunAt = &at
		return nil
	})
}

// DrawNumber picks an entry number among checked-in guests not drawn yet.
func (s *GameService) DrawNumber(ctx context.Context) (domain.GameState, error) {
	roster, err := s.roster.Load(ctx)
	if err != nil {
		return domain.GameState{}, fmt.Errorf("s.roster.Load -> %w", err)
	}
	numbers := roster.CheckedInEntryNumbers()

	return s.update(ctx, func(state *domain.GameState) error {
		drawn := make(map[int]struct{}, len(state.Draw.Drawn))
		for _, n := range state.Draw.Drawn {
			drawn[n] = struct{}{}
		}
		candidates := make([]int, 0, len(numbers))
		for _, n := range numbers {
			if _, ok := drawn[n]; !ok {
				candidates = append(candidates, n)
			}
		}
		if len(candidates) == 0 {
			return ErrNoCandidates
		}

		pick := candidates[s.intN(len(candidates))]
		at := s.now()
		state.Draw.Drawn = append(state.Draw.Drawn, pick)
		state.Draw.Last = &pick
		state.Draw.At = &at
		return nil
	})
}

func (s *GameService) ResetDraw(ctx context.Context) (domain.GameState, error) {
	return s.update(ctx, func(state *domain.GameState) error {
		state.Draw = domain.NumberDrawState{Drawn: []int{}}
		return nil
	})
}

func (s *GameService) SetMarquee(ctx context.Context, text string, speed int, color string) (domain.GameState, error) {
	text = strings.TrimSpace(text)
	if speed == 0 {
		speed = defaultMarqueeSpeed
	}
	if n := utf8.RuneCountInString(text); n == 0 || n > 100 || speed < 1 || speed > 10 {
		return domain.GameState{}, ErrInvalidMarquee
	}

	return s.update(ctx, func(state *domain.GameState) error {
		state.Marquee = domain.MarqueeState{Text: text, Speed: speed, Color: color}
		return nil
	})
}

func (s *GameService) update(ctx context.Context, fn func(*domain.GameState) error) (domain.GameState, error) {
	state, err := s.games.Update(ctx, fn)
	if err != nil {
		if errors.Is(err, ErrNoCandidates) || errors.Is(err, ErrNoOptions) {
			return domain.GameState{}, err
		}

		return domain.GameState{}, fmt.Errorf("s.games.Update -> %w", err)
	}
	if s.events != nil {
		s.events.Broadcast(TopicGames, "games.changed", state)
	}

	return state, nil
}
