package service

import (
	"strings"

	"github.com/vietanh2810/encore-api/internal/domain"
)

var (
	guestNameHeaders  = []string{"이름", "name", "Name"}
	guestPhoneHeaders = []string{"전화번호", "phone", "Phone"}

	songHeaders   = []string{"곡명", "song", "Song"}
	artistHeaders = []string{"아티스트", "아티스트명", "Artist", "artist", "ARTIST"}
	imageHeaders  = []string{"이미지", "image", "Image", "이미지URL", "imageUrl", "img"}

	roleHeaders = map[domain.SessionRole][]string{
		domain.RoleVocal:    {"보컬", "vocal", "Vocal"},
		domain.RoleGuitar:   {"기타", "guitar", "Guitar"},
		domain.RoleBass:     {"베이스", "bass", "Bass"},
		domain.RoleKeyboard: {"키보드", "keyboard", "Keyboard"},
		domain.RoleDrum:     {"드럼", "drum", "drums", "Drum", "Drums"},
	}
)

// ParseGuests maps spreadsheet rows into guest records. Header variants are
// folded into Name and Phone; every other column lands in Extra. Rows without
// name or phone are kept.
func ParseGuests(rows []map[string]string) []domain.GuestRecord {
	known := make(map[string]struct{})
	for _, h := range append(append([]string{}, guestNameHeaders...), guestPhoneHeaders...) {
		known[h] = struct{}{}
	}

	guests := make([]domain.GuestRecord, 0, len(rows))
	for _, row := range rows {
		g := domain.GuestRecord{
			Name:  strings.TrimSpace(firstValue(row, guestNameHeaders)),
			Phone: strings.TrimSpace(firstValue(row, guestPhoneHeaders)),
		}
		for k, v := range row {
			if _, ok := known[k]; ok {
				continue
			}
			if g.Extra == nil {
				g.Extra = make(map[string]string)
			}
			g.Extra[k] = v
		}
		guests = append(guests, g)
	}

	return guests
}

// ParseSetlist maps rows into setlist entries and derives the performer list.
// Rows without a song name are dropped.
func ParseSetlist(rows []map[string]string) ([]domain.SetlistEntry, []string) {
	entries := make([]domain.SetlistEntry, 0, len(rows))
	for _, row := range rows {
		song := strings.TrimSpace(firstValue(row, songHeaders))
		if song == "" {
			continue
		}

		entry := domain.SetlistEntry{
			Song:     song,
			Artist:   dashAsEmpty(firstValue(row, artistHeaders)),
			ImageURL: dashAsEmpty(firstValue(row, imageHeaders)),
			Members:  make(map[domain.SessionRole][]string),
		}
		for _, role := range domain.SessionRoles {
			if members := splitMembers(firstValue(row, roleHeaders[role])); len(members) > 0 {
				entry.Members[role] = members
			}
		}
		entries = append(entries, entry)
	}

	return entries, domain.DerivePerformers(entries)
}

func firstValue(row map[string]string, headers []string) string {
	for _, h := range headers {
		if v, ok := row[h]; ok && strings.TrimSpace(v) != "" {
			return v
		}
	}

	return ""
}

func dashAsEmpty(s string) string {
	s = strings.TrimSpace(s)
	if s == "-" {
		return ""
	}

	return s
}

func splitMembers(field string) []string {
	if dashAsEmpty(field) == "" {
		return nil
	}

	var members []string
	for _, m := range strings.Split(field, ",") {
		if m = strings.TrimSpace(m); m != "" && m != "-" {
			members = append(members, m)
		}
	}

	return members
}
