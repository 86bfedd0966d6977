package domain

import "time"

type ChatMessage struct {
	ID       string    `json:"id"`
	Sender   string    `json:"sender"`
	Nickname string    `json:"nickname,omitempty"`
	IsAdmin  bool      `json:"isAdmin"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sentAt"`
}

// Memo is one note on the guestbook wall.
type Memo struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	AuthorKey string    `json:"authorKey"`
	Nickname  string    `json:"nickname,omitempty"`
	Content   string    `json:"content"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type NicknameProfile struct {
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Nickname  string    `json:"nickname"`
	UpdatedAt time.Time `json:"updatedAt"`
}
