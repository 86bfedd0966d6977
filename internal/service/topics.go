package service

import "github.com/vietanh2810/encore-api/internal/domain"

// Realtime topics.
const (
	TopicChat      = "chat"
	TopicGames     = "games"
	TopicGuestbook = "guestbook"
	TopicAdmin     = "admin"
	TopicRoster    = "roster"
	TopicEvent     = "event"
)

// TopicForDocument maps a changed document key to the topic its readers follow.
func TopicForDocument(key string) string {
	switch key {
	case domain.DocRoster:
		return TopicRoster
	case domain.DocChat:
		return TopicChat
	case domain.DocGames:
		return TopicGames
	case domain.DocGuestbook:
		return TopicGuestbook
	case domain.DocEvent, domain.DocSettings:
		return TopicEvent
	}

	return ""
}
