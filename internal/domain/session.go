package domain

import "time"

// AdminPhone marks the synthetic identity materialized for admin sessions.
const AdminPhone = "admin"

type SessionKind string

const (
	SessionAnonymous SessionKind = "anonymous"
	SessionAttendee  SessionKind = "attendee"
	SessionAdmin     SessionKind = "admin"
)

// SessionIdentity is the cached projection of one GuestRecord.
type SessionIdentity struct {
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Nickname         string     `json:"nickname,omitempty"`
	EntryNumber      *int       `json:"entryNumber,omitempty"`
	CheckedIn        bool       `json:"checkedIn"`
	CheckedInAt      *time.Time `json:"checkedInAt,omitempty"`
	IsWalkIn         bool       `json:"isWalkIn"`
	PaymentConfirmed bool       `json:"paymentConfirmed"`
}

func NewSessionIdentity(g GuestRecord) SessionIdentity {
	id := SessionIdentity{
		Name:             g.Name,
		Phone:            g.Phone,
		CheckedIn:        g.CheckedIn,
		IsWalkIn:         g.IsWalkIn,
		PaymentConfirmed: g.PaymentConfirmed,
	}
	if g.EntryNumber != nil {
		n := *g.EntryNumber
		id.EntryNumber = &n
	}
	if g.CheckedInAt != nil {
		t := *g.CheckedInAt
		id.CheckedInAt = &t
	}

	return id
}

// SessionState is one browser's session. Kind decides which fields are meaningful:
// an admin session carries AdminName plus a synthetic User whose phone is AdminPhone.
type SessionState struct {
	ID        string           `json:"id"`
	Kind      SessionKind      `json:"kind"`
	User      *SessionIdentity `json:"user,omitempty"`
	AdminName string           `json:"adminName,omitempty"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (s SessionState) IsAttendee() bool { return s.Kind == SessionAttendee && s.User != nil }

func (s SessionState) IsAdmin() bool { return s.Kind == SessionAdmin }

// AsAttendee replaces any admin state with the given attendee identity.
func (s SessionState) AsAttendee(id SessionIdentity) SessionState {
	s.Kind = SessionAttendee
	s.AdminName = ""
	s.User = &id

	return s
}

// AsAdmin replaces any attendee state with an admin session.
func (s SessionState) AsAdmin(name string) SessionState {
	s.Kind = SessionAdmin
	s.AdminName = name
	s.User = &SessionIdentity{Name: name, Phone: AdminPhone}

	return s
}

// ApplyRoster overwrites the cached check-in fields with the roster's values
// for the same (name, phone). Name and phone are never touched. It reports
// whether anything changed.
func (s *SessionState) ApplyRoster(r Roster) bool {
	if !s.IsAttendee() {
		return false
	}
	i, ok := r.Find(s.User.Name, s.User.Phone)
	if !ok {
		return false
	}
	g := r[i]

	changed := false
	if s.User.CheckedIn != g.CheckedIn {
		s.User.CheckedIn = g.CheckedIn
		changed = true
	}
	if !equalIntPtr(s.User.EntryNumber, g.EntryNumber) {
		s.User.EntryNumber = copyIntPtr(g.EntryNumber)
		changed = true
	}
	if !equalTimePtr(s.User.CheckedInAt, g.CheckedInAt) {
		s.User.CheckedInAt = copyTimePtr(g.CheckedInAt)
		changed = true
	}

	return changed
}

func equalIntPtr(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copyTimePtr(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// CheckInNotice is the ephemeral "last checked-in guest" toast for admins.
type CheckInNotice struct {
	Name        string    `json:"name"`
	EntryNumber int       `json:"entryNumber"`
	At          time.Time `json:"at"`
}
