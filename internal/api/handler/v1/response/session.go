package response

import "github.com/vietanh2810/encore-api/internal/domain"

type SessionResponse struct {
	Token   string              `json:"token,omitempty"`
	Session domain.SessionState `json:"session"`
}

type CheckInResponse struct {
	Status      string               `json:"status"`
	EntryNumber int                  `json:"entryNumber"`
	Guest       domain.GuestRecord   `json:"guest"`
	Session     *domain.SessionState `json:"session,omitempty"`
}

type ImportResponse struct {
	Imported int `json:"imported"`
}

type Healthcheck struct {
	Status string `json:"status"`
}
