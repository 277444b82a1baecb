// Package state persists per-conversation bot state: the reservation being
// collected and the suspended dialog step.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/table-bot/internal/dialog"
	"github.com/example/table-bot/internal/domain/reservation"
)

// Conversation is the state slot kept for one conversation.
type Conversation struct {
	Reservation *reservation.Reservation `json:"reservation,omitempty"`
	Dialog      *dialog.State            `json:"dialog,omitempty"`
	UpdatedAt   time.Time                `json:"updatedAt"`
}

// Store is a key-value backend for conversation slots. Get reports false
// when no slot exists for key.
type Store interface {
	Get(ctx context.Context, key string) (Conversation, bool, error)
	Set(ctx context.Context, key string, c Conversation) error
	Delete(ctx context.Context, key string) error
	Close() error
}

func encode(c Conversation) ([]byte, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encode conversation: %w", err)
	}
	return b, nil
}

func decode(b []byte) (Conversation, error) {
	var c Conversation
	if err := json.Unmarshal(b, &c); err != nil {
		return Conversation{}, fmt.Errorf("decode conversation: %w", err)
	}
	return c, nil
}

// Turn is the view of one conversation slot during a single turn. Changes
// stay in memory until SaveChanges.
type Turn struct {
	store Store
	key   string
	conv  Conversation
	now   func() time.Time
}

func Load(ctx context.Context, store Store, key string) (*Turn, error) {
	c, _, err := store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load state %q: %w", key, err)
	}
	return &Turn{store: store, key: key, conv: c, now: time.Now}, nil
}

func (t *Turn) Key() string { return t.key }

// Reservation returns the stored reservation, creating it with def when the
// slot has none.
func (t *Turn) Reservation(def func() reservation.Reservation) reservation.Reservation {
	if t.conv.Reservation == nil {
		r := reservation.Reservation{}
		if def != nil {
			r = def()
		}
		t.conv.Reservation = &r
	}
	return *t.conv.Reservation
}

func (t *Turn) SetReservation(r reservation.Reservation) {
	t.conv.Reservation = &r
}

func (t *Turn) Dialog() *dialog.State { return t.conv.Dialog }

func (t *Turn) SetDialog(st *dialog.State) { t.conv.Dialog = st }

// Clear drops the reservation and any suspended dialog.
func (t *Turn) Clear() {
	t.conv.Reservation = nil
	t.conv.Dialog = nil
}

func (t *Turn) SaveChanges(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.conv.UpdatedAt = t.now().UTC()
	if err := t.store.Set(ctx, t.key, t.conv); err != nil {
		return fmt.Errorf("save state %q: %w", t.key, err)
	}
	return nil
}
