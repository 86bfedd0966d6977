package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

type GuestRecord struct {
	Name             string            `json:"name"`
	Phone            string            `json:"phone"`
	EntryNumber      *int              `json:"entryNumber,omitempty"`
	CheckedIn        bool              `json:"checkedIn"`
	CheckedInAt      *time.Time        `json:"checkedInAt,omitempty"`
	IsWalkIn         bool              `json:"isWalkIn"`
	PaymentConfirmed bool              `json:"paymentConfirmed"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// Matches reports whether the record is the one identified by name and phone
// once both sides are normalized.
func (g GuestRecord) Matches(name, phone string) bool {
	return NormalizeName(g.Name) == NormalizeName(name) &&
		NormalizePhone(g.Phone) == NormalizePhone(phone)
}

// MarkCheckedIn sets all three check-in fields together.
func (g *GuestRecord) MarkCheckedIn(entryNumber int, at time.Time) {
	n := entryNumber
	t := at
	g.CheckedIn = true
	g.EntryNumber = &n
	g.CheckedInAt = &t
}

// Roster is the whole guest list as stored in a single document.
type Roster []GuestRecord

// Find returns the index of the first record matching name and phone.
func (r Roster) Find(name, phone string) (int, bool) {
	for i, g := range r {
		if g.Matches(name, phone) {
			return i, true
		}
	}

	return -1, false
}

// NextEntryNumber is max(entryNumber of checked-in records) + 1.
func (r Roster) NextEntryNumber() int {
	max := 0
	for _, g := range r {
		if g.CheckedIn && g.EntryNumber != nil && *g.EntryNumber > max {
			max = *g.EntryNumber
		}
	}

	return max + 1
}

func (r Roster) CheckedInEntryNumbers() []int {
	numbers := make([]int, 0, len(r))
	for _, g := range r {
		if g.CheckedIn && g.EntryNumber != nil {
			numbers = append(numbers, *g.EntryNumber)
		}
	}

	return numbers
}

// Clone returns a deep copy so callers can mutate without touching a cached roster.
func (r Roster) Clone() Roster {
	if r == nil {
		return Roster{}
	}
	out := make(Roster, len(r))
	for i, g := range r {
		c := g
		if g.EntryNumber != nil {
			n := *g.EntryNumber
			c.EntryNumber = &n
		}
		if g.CheckedInAt != nil {
			t := *g.CheckedInAt
			c.CheckedInAt = &t
		}
		if g.Extra != nil {
			c.Extra = make(map[string]string, len(g.Extra))
			for k, v := range g.Extra {
				c.Extra[k] = v
			}
		}
		out[i] = c
	}

	return out
}

type RosterStats struct {
	Total           int `json:"total"`
	CheckedIn       int `json:"checkedIn"`
	WalkIns         int `json:"walkIns"`
	PaidWalkIns     int `json:"paidWalkIns"`
	LastEntryNumber int `json:"lastEntryNumber"`
}

func (r Roster) Stats() RosterStats {
	var s RosterStats
	s.Total = len(r)
	for _, g := range r {
		if g.CheckedIn {
			s.CheckedIn++
		}
		if g.IsWalkIn {
			s.WalkIns++
			if g.PaymentConfirmed {
				s.PaidWalkIns++
			}
		}
	}
	s.LastEntryNumber = r.NextEntryNumber() - 1

	return s
}

// NormalizeName trims surrounding space and composes Hangul jamo so that
// input typed on different keyboards compares equal.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// NormalizePhone drops hyphens, whitespace and parentheses.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '(' || r == ')' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, phone)
}

// ProfileKey is the name_phone key used for nickname profiles.
func ProfileKey(name, phone string) string {
	return NormalizeName(name) + "_" + NormalizePhone(phone)
}
