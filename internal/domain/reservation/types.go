package reservation

import (
	"strconv"
	"strings"
	"time"
)

// Reservation is the per-conversation record filled in by the reservation dialog.
// A nil field is unset.
type Reservation struct {
	Time         *string `json:"time,omitempty"`
	AmountPeople *string `json:"amountPeople,omitempty"`
	FullName     *string `json:"fullName,omitempty"`
	Confirmed    *bool   `json:"confirmed,omitempty"`
}

func (r Reservation) HasTime() bool { return r.Time != nil && *r.Time != "" }

func (r Reservation) HasAmountPeople() bool { return r.AmountPeople != nil }

func (r Reservation) HasFullName() bool { return r.FullName != nil }

func (r Reservation) HasConfirmed() bool { return r.Confirmed != nil }

func (r Reservation) Complete() bool {
	return r.HasTime() && r.HasAmountPeople() && r.HasFullName() && r.HasConfirmed()
}

// FirstName returns the first word of the name on the reservation.
func (r Reservation) FirstName() string {
	if r.FullName == nil {
		return ""
	}
	parts := strings.Fields(*r.FullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// PartySize parses AmountPeople. ok is false when unset or not a non-negative integer.
func (r Reservation) PartySize() (int, bool) {
	if r.AmountPeople == nil {
		return 0, false
	}
	return ParsePartySize(*r.AmountPeople)
}

func ParsePartySize(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Booking is a confirmed reservation as recorded in the bookings ledger.
type Booking struct {
	ID             string
	ConversationID string
	Time           string
	PartySize      int
	FullName       string

	CreatedAt   time.Time
	PublishedAt *time.Time
}

// NewBooking builds a Booking from a confirmed reservation.
func NewBooking(id, conversationID string, r Reservation, now time.Time) Booking {
	b := Booking{ID: id, ConversationID: conversationID, CreatedAt: now.UTC()}
	if r.Time != nil {
		b.Time = *r.Time
	}
	if n, ok := r.PartySize(); ok {
		b.PartySize = n
	}
	if r.FullName != nil {
		b.FullName = *r.FullName
	}
	return b
}

func String(s string) *string { return &s }

func Bool(b bool) *bool { return &b }
