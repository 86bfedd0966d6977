package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/vietanh2810/encore-api/internal/domain"
	"github.com/vietanh2810/encore-api/internal/pkg/spreadsheet"
)

var (
	ErrGuestAlreadyRegistered = errors.New("guest is already registered")
	ErrNotWalkIn              = errors.New("payment can only be confirmed for walk-in guests")
)

var rosterExportHeader = []string{"이름", "전화번호", "입장번호", "체크인", "체크인시간", "현장등록", "입금확인"}

// RosterService is the admin side of the roster.
type RosterService struct {
	roster RosterStore
	events Broadcaster
}

func NewRosterService(roster RosterStore, events Broadcaster) *RosterService {
	return &RosterService{
		roster: roster,
		events: events,
	}
}

func (s *RosterService) List(ctx context.Context) (domain.Roster, error) {
	roster, err := s.roster.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.roster.Load -> %w", err)
	}

	return roster, nil
}

func (s *RosterService) Stats(ctx context.Context) (domain.RosterStats, error) {
	roster, err := s.List(ctx)
	if err != nil {
		return domain.RosterStats{}, err
	}

	return roster.Stats(), nil
}

// Import replaces the whole roster with the parsed rows. Rows with neither
// name nor phone are discarded here.
func (s *RosterService) Import(ctx context.Context, rows []map[string]string) (int, error) {
	parsed := ParseGuests(rows)

	guests := make([]domain.GuestRecord, 0, len(parsed))
	for _, g := range parsed {
		if g.Name == "" && g.Phone == "" {
			continue
		}
		guests = append(guests, g)
	}

	if err := s.roster.ReplaceAll(ctx, guests); err != nil {
		return 0, fmt.Errorf("s.roster.ReplaceAll -> %w", err)
	}
	zap.L().Info("roster imported", zap.Int("rows", len(rows)), zap.Int("guests", len(guests)))
	s.changed()

	return len(guests), nil
}

func (s *RosterService) Reset(ctx context.Context) error {
	if err := s.roster.ReplaceAll(ctx, nil); err != nil {
		return fmt.Errorf("s.roster.ReplaceAll -> %w", err)
	}
	zap.L().Warn("roster reset")
	s.changed()

	return nil
}

func (s *RosterService) RegisterWalkIn(ctx context.Context, name, phone string) (domain.GuestRecord, error) {
	name, phone = domain.NormalizeName(name), domain.NormalizePhone(phone)
	if name == "" || phone == "" {
		return domain.GuestRecord{}, ErrInvalidInput
	}

	guest := domain.GuestRecord{Name: name, Phone: phone, IsWalkIn: true}
	_, err := s.roster.Update(ctx, func(r domain.Roster) (domain.Roster, error) {
		if _, ok := r.Find(name, phone); ok {
			return nil, ErrGuestAlreadyRegistered
		}
		return append(r, guest), nil
	})
	if err != nil {
		if errors.Is(err, ErrGuestAlreadyRegistered) {
			return domain.GuestRecord{}, err
		}

		return domain.GuestRecord{}, fmt.Errorf("s.roster.Update -> %w", err)
	}
	s.changed()

	return guest, nil
}

// SetPaymentConfirmed flips the payment flag of a walk-in guest. The walk-in
// check runs against the roster being written, not an earlier read.
func (s *RosterService) SetPaymentConfirmed(ctx context.Context, index int, confirmed bool) (domain.GuestRecord, error) {
	var updated domain.GuestRecord
	_, err := s.roster.Update(ctx, func(r domain.Roster) (domain.Roster, error) {
		if index < 0 || index >= len(r) {
			return nil, ErrGuestIndexInvalid
		}
		if !r[index].IsWalkIn {
			return nil, ErrNotWalkIn
		}
		r[index].PaymentConfirmed = confirmed
		updated = r[index]
		return r, nil
	})
	if err != nil {
		if errors.Is(err, ErrGuestIndexInvalid) || errors.Is(err, ErrNotWalkIn) {
			return domain.GuestRecord{}, err
		}

		return domain.GuestRecord{}, fmt.Errorf("s.roster.Update -> %w", err)
	}
	s.changed()

	return updated, nil
}

// Export writes the roster as a spreadsheet. Extra columns follow the fixed
// ones in name order.
func (s *RosterService) Export(ctx context.Context, w io.Writer, format spreadsheet.Format) error {
	roster, err := s.List(ctx)
	if err != nil {
		return err
	}

	extraSet := make(map[string]struct{})
	for _, g := range roster {
		for k := range g.Extra {
			extraSet[k] = struct{}{}
		}
	}
	extras := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extras = append(extras, k)
	}
	sort.Strings(extras)

	header := append(append([]string{}, rosterExportHeader...), extras...)
	rows := make([][]string, 0, len(roster))
	for _, g := range roster {
		row := []string{
			g.Name,
			g.Phone,
			optionalInt(g.EntryNumber),
			yesNo(g.CheckedIn),
			optionalTime(g.CheckedInAt),
			yesNo(g.IsWalkIn),
			yesNo(g.IsWalkIn && g.PaymentConfirmed),
		}
		for _, k := range extras {
			row = append(row, g.Extra[k])
		}
		rows = append(rows, row)
	}

	if err := spreadsheet.WriteRows(w, format, header, rows); err != nil {
		return fmt.Errorf("spreadsheet.WriteRows -> %w", err)
	}

	return nil
}

func (s *RosterService) changed() {
	if s.events != nil {
		s.events.Broadcast(TopicRoster, "roster.changed", nil)
	}
}

func optionalInt(p *int) string {
	if p == nil {
		return ""
	}

	return strconv.Itoa(*p)
}

func optionalTime(p *time.Time) string {
	if p == nil {
		return ""
	}

	return p.Local().Format("2006-01-02 15:04:05")
}

func yesNo(b bool) string {
	if b {
		return "O"
	}

	return "X"
}
