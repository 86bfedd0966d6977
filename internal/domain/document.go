package domain

import "time"

// Document keys. Each is stored whole; there are no per-record documents.
const (
	DocRoster    = "roster"
	DocEvent     = "event"
	DocSettings  = "settings"
	DocGuestbook = "guestbook"
	DocChat      = "chat"
	DocGames     = "games"

	ProfilePrefix = "profile:"
	SessionPrefix = "session:"
)

type Document struct {
	Key       string
	Body      []byte
	Version   int64
	UpdatedAt time.Time
}
