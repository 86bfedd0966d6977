package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vietanh2810/encore-api/internal/domain"
)

type ProfileRepository struct {
	docs DocumentRepository
}

func NewProfileRepository(docs DocumentRepository) *ProfileRepository {
	return &ProfileRepository{
		docs: docs,
	}
}

// Find returns the profile stored under name_phone, or found == false.
func (r *ProfileRepository) Find(ctx context.Context, name, phone string) (domain.NicknameProfile, bool, error) {
	var profile domain.NicknameProfile
	found, err := loadJSON(ctx, r.docs, domain.ProfilePrefix+domain.ProfileKey(name, phone), &profile)
	if err != nil {
		return domain.NicknameProfile{}, false, err
	}

	return profile, found, nil
}

func (r *ProfileRepository) Save(ctx context.Context, profile domain.NicknameProfile) error {
	return saveJSON(ctx, r.docs, domain.ProfilePrefix+domain.ProfileKey(profile.Name, profile.Phone), profile)
}

func (r *ProfileRepository) List(ctx context.Context) ([]domain.NicknameProfile, error) {
	docs, err := r.docs.List(ctx, domain.ProfilePrefix)
	if err != nil {
		return nil, fmt.Errorf("r.docs.List -> %w", err)
	}

	profiles := make([]domain.NicknameProfile, 0, len(docs))
	for _, doc := range docs {
		var p domain.NicknameProfile
		if err := json.Unmarshal(doc.Body, &p); err != nil {
			return nil, fmt.Errorf("json.Unmarshal %s -> %w", doc.Key, err)
		}
		profiles = append(profiles, p)
	}

	return profiles, nil
}
