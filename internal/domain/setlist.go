package domain

import (
	"sort"
	"strings"
	"time"
)

type SessionRole string

const (
	RoleVocal    SessionRole = "vocal"
	RoleGuitar   SessionRole = "guitar"
	RoleBass     SessionRole = "bass"
	RoleKeyboard SessionRole = "keyboard"
	RoleDrum     SessionRole = "drum"
)

var SessionRoles = []SessionRole{RoleVocal, RoleGuitar, RoleBass, RoleKeyboard, RoleDrum}

type SetlistEntry struct {
	Song     string                   `json:"song"`
	Artist   string                   `json:"artist,omitempty"`
	ImageURL string                   `json:"imageUrl,omitempty"`
	Members  map[SessionRole][]string `json:"members,omitempty"`
}

type EventInfo struct {
	Title    string     `json:"title"`
	Venue    string     `json:"venue,omitempty"`
	StartsAt *time.Time `json:"startsAt,omitempty"`
	Notice   string     `json:"notice,omitempty"`
}

type TicketInfo struct {
	Price       int    `json:"price"`
	Account     string `json:"account,omitempty"`
	Description string `json:"description,omitempty"`
}

// EventBundle is the single document holding event, ticket, setlist and performers.
type EventBundle struct {
	Event      EventInfo      `json:"event"`
	Ticket     TicketInfo     `json:"ticket"`
	Setlist    []SetlistEntry `json:"setlist"`
	Performers []string       `json:"performers"`
}

// DerivePerformers is the sorted, deduplicated union of every role member.
func DerivePerformers(setlist []SetlistEntry) []string {
	seen := make(map[string]struct{})
	for _, e := range setlist {
		for _, members := range e.Members {
			for _, m := range members {
				if m = strings.TrimSpace(m); m != "" {
					seen[m] = struct{}{}
				}
			}
		}
	}

	out := make([]string, 0, len(seen))
	for m := range seen {
		out = append(out, m)
	}
	sort.Strings(out)

	return out
}

// IsPerformer reports whether name is a direct performer or a role member of
// any setlist entry.
func (b EventBundle) IsPerformer(name string) bool {
	n := NormalizeName(name)
	if n == "" {
		return false
	}
	for _, p := range b.Performers {
		if NormalizeName(p) == n {
			return true
		}
	}
	for _, e := range b.Setlist {
		for _, members := range e.Members {
			for _, m := range members {
				if NormalizeName(m) == n {
					return true
				}
			}
		}
	}

	return false
}

// Settings holds operational values shared by every client.
type Settings struct {
	AdminCode string `json:"adminCode"`
}
