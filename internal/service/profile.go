package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/domain"
)

var ErrDuplicateNickname = errors.New("nickname is already taken")

type ProfileRepository interface {
	Save(ctx context.Context, profile domain.NicknameProfile) error
	List(ctx context.Context) ([]domain.NicknameProfile, error)
}

type SessionNicknamer interface {
	Current(ctx context.Context, id string) (domain.SessionState, error)
	SetNickname(ctx context.Context, id, nickname string) (domain.SessionState, error)
}

type ProfileService struct {
	profiles ProfileRepository
	sessions SessionNicknamer
}

func NewProfileService(profiles ProfileRepository, sessions SessionNicknamer) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		sessions: sessions,
	}
}

// SaveNickname stores the nickname for the session's identity. The duplicate
// check is cooperative: if the profile list cannot be read the save goes ahead.
func (s *ProfileService) SaveNickname(ctx context.Context, sessionID, nickname string) (domain.SessionState, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return domain.SessionState{}, ErrInvalidInput
	}

	state, err := s.sessions.Current(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			return domain.SessionState{}, err
		}

		return domain.SessionState{}, fmt.Errorf("s.sessions.Current -> %w", err)
	}
	if state.User == nil {
		return domain.SessionState{}, ErrNoActiveSession
	}
	owner := domain.ProfileKey(state.User.Name, state.User.Phone)

	existing, err := s.profiles.List(ctx)
	if err != nil {
		zap.L().Warn("nickname duplicate check skipped", zap.Error(err))
	}
	for _, p := range existing {
		if strings.EqualFold(strings.TrimSpace(p.Nickname), nickname) && domain.ProfileKey(p.Name, p.Phone) != owner {
			return domain.SessionState{}, ErrDuplicateNickname
		}
	}

	err = s.profiles.Save(ctx, domain.NicknameProfile{
		Name:      state.User.Name,
		Phone:     state.User.Phone,
		Nickname:  nickname,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.SessionState{}, fmt.Errorf("s.profiles.Save -> %w", err)
	}

	return s.sessions.SetNickname(ctx, sessionID, nickname)
}
