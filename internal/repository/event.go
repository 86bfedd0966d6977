package repository

import (
	"context"
	"sync"

	"github.com/vietanh2810/encore-api/internal/domain"
)

// EventRepository stores the event bundle and the shared settings document.
type EventRepository struct {
	docs DocumentRepository

	mu               sync.RWMutex
	defaultAdminCode string
}

func NewEventRepository(docs DocumentRepository, defaultAdminCode string) *EventRepository {
	return &EventRepository{
		docs:             docs,
		defaultAdminCode: defaultAdminCode,
	}
}

func (r *EventRepository) LoadBundle(ctx context.Context) (domain.EventBundle, error) {
	var bundle domain.EventBundle
	if _, err := loadJSON(ctx, r.docs, domain.DocEvent, &bundle); err != nil {
		return domain.EventBundle{}, err
	}
	if bundle.Setlist == nil {
		bundle.Setlist = []domain.SetlistEntry{}
	}
	if bundle.Performers == nil {
		bundle.Performers = []string{}
	}

	return bundle, nil
}

func (r *EventRepository) SaveBundle(ctx context.Context, bundle domain.EventBundle) error {
	return saveJSON(ctx, r.docs, domain.DocEvent, bundle)
}

// LoadSettings falls back to the configured admin code when the document is
// missing or carries an empty code.
func (r *EventRepository) LoadSettings(ctx context.Context) (domain.Settings, error) {
	var settings domain.Settings
	if _, err := loadJSON(ctx, r.docs, domain.DocSettings, &settings); err != nil {
		return domain.Settings{}, err
	}
	if settings.AdminCode == "" {
		settings.AdminCode = r.DefaultAdminCode()
	}

	return settings, nil
}

func (r *EventRepository) SaveSettings(ctx context.Context, settings domain.Settings) error {
	return saveJSON(ctx, r.docs, domain.DocSettings, settings)
}

func (r *EventRepository) DefaultAdminCode() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.defaultAdminCode
}

// SetDefaultAdminCode is called when the config file is reloaded.
func (r *EventRepository) SetDefaultAdminCode(code string) {
	r.mu.Lock()
	r.defaultAdminCode = code
	r.mu.Unlock()
}
