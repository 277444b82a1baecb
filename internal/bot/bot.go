// Package bot routes each conversation turn: it resumes a suspended
// reservation dialog, or classifies the message and dispatches on intent.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/table-bot/internal/answerer"
	"github.com/example/table-bot/internal/bookings"
	"github.com/example/table-bot/internal/dialog"
	"github.com/example/table-bot/internal/domain/reservation"
	"github.com/example/table-bot/internal/recognizer"
	"github.com/example/table-bot/internal/state"
	"github.com/example/table-bot/internal/telemetry"
	"github.com/example/table-bot/internal/timex"
)

const (
	DefaultThreshold = 0.5

	Greeting      = "Hi, I'm a test version of Fridai."
	SpecialtyText = "For today we have:"
	DiscountsText = "This week we have a 25% discount in all of our wine selection"
	NotUnderstood = "Sorry, I didn't understand that."
)

var ErrNoConversation = errors.New("activity has no conversation id")

var specialties = []struct{ title, image string }{
	{"Carbonara", "carbonara.jpg"},
	{"Pizza", "pizza.jpg"},
	{"Lasagna", "lasagna.jpg"},
}

type Config struct {
	Store      state.Store
	Recognizer recognizer.Recognizer
	Answerer   answerer.Answerer
	Speaker    dialog.Speaker
	Recorder   bookings.Recorder
	Metrics    *telemetry.Metrics
	Log        *zap.Logger

	// Threshold is the confidence an intent must exceed to be acted on.
	Threshold float64
	// Site is the base URL for specialty images.
	Site string

	Now   func() time.Time
	NewID func() string
}

type Bot struct {
	store      state.Store
	recognizer recognizer.Recognizer
	answerer   answerer.Answerer
	speaker    dialog.Speaker
	recorder   bookings.Recorder
	metrics    *telemetry.Metrics
	log        *zap.Logger
	dialog     *dialog.Dialog

	threshold float64
	site      string
	now       func() time.Time
	newID     func() string
}

func New(cfg Config) *Bot {
	b := &Bot{
		store:      cfg.Store,
		recognizer: cfg.Recognizer,
		answerer:   cfg.Answerer,
		speaker:    cfg.Speaker,
		recorder:   cfg.Recorder,
		metrics:    cfg.Metrics,
		log:        cfg.Log,
		dialog:     dialog.New(cfg.Speaker),
		threshold:  cfg.Threshold,
		site:       strings.TrimRight(cfg.Site, "/"),
		now:        cfg.Now,
		newID:      cfg.NewID,
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	b.log = b.log.With(zap.String("component", "bot"))
	if b.threshold <= 0 {
		b.threshold = DefaultThreshold
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.newID == nil {
		b.newID = uuid.NewString
	}
	if b.recorder == nil {
		b.recorder = bookings.LogRecorder{Log: b.log}
	}
	return b
}

// OnTurn handles one inbound activity and returns the replies to send. On
// error nothing has been persisted for the turn.
func (b *Bot) OnTurn(ctx context.Context, act Activity) ([]Reply, error) {
	switch act.Type {
	case ActivityMessage:
		replies, err := b.onMessage(ctx, act)
		if err != nil {
			b.metrics.Turn(act.Type, "error")
			return nil, err
		}
		b.metrics.Turn(act.Type, "ok")
		return replies, nil
	case ActivityConversationUpdate:
		b.metrics.Turn(act.Type, "ok")
		return b.onConversationUpdate(act), nil
	default:
		b.log.Debug("ignoring activity", zap.String("type", act.Type))
		return nil, nil
	}
}

func (b *Bot) onConversationUpdate(act Activity) []Reply {
	if len(act.MembersAdded) == 0 || act.MembersAdded[0].ID != act.Recipient.ID {
		return nil
	}
	return []Reply{b.speech(Greeting)}
}

func (b *Bot) onMessage(ctx context.Context, act Activity) ([]Reply, error) {
	key := act.Conversation.ID
	if key == "" {
		return nil, ErrNoConversation
	}
	log := b.log.With(zap.String("conversation_id", key))

	start := time.Now()
	turn, err := state.Load(ctx, b.store, key)
	b.metrics.Observe("state_load", start)
	if err != nil {
		return nil, err
	}

	replies, err := b.route(ctx, log, turn, act)
	if err != nil {
		return nil, err
	}

	start = time.Now()
	err = turn.SaveChanges(ctx)
	b.metrics.Observe("state_save", start)
	if err != nil {
		return nil, err
	}
	return replies, nil
}

func (b *Bot) route(ctx context.Context, log *zap.Logger, turn *state.Turn, act Activity) ([]Reply, error) {
	if st := turn.Dialog(); st != nil {
		res := b.dialog.Continue(st, turn.Reservation(nil), act.Text)
		replies := b.applyDialog(ctx, log, turn, res)
		if res.Status == dialog.StatusWaiting || len(replies) > 0 {
			return replies, nil
		}
	}

	start := time.Now()
	rr, err := b.recognizer.Recognize(ctx, act.Text)
	b.metrics.Observe("recognizer", start)
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	intent, score := rr.TopAbove(b.threshold)
	b.metrics.Intent(intent)
	log.Debug("intent recognized", zap.String("intent", intent), zap.Float64("score", score))

	switch intent {
	case recognizer.IntentTodaysSpecialty:
		return []Reply{b.specialties()}, nil

	case recognizer.IntentReserveTable:
		seed := b.seed(log, rr)
		turn.SetReservation(seed)
		return b.applyDialog(ctx, log, turn, b.dialog.Begin(seed)), nil

	case recognizer.IntentGetDiscounts:
		return []Reply{{Text: DiscountsText}}, nil
	}

	start = time.Now()
	answers, err := b.answerer.Answer(ctx, act.Text)
	b.metrics.Observe("answerer", start)
	if err != nil {
		return nil, fmt.Errorf("answer: %w", err)
	}
	if len(answers) == 0 {
		return []Reply{{Text: NotUnderstood}}, nil
	}
	return []Reply{{Text: answers[0].Text}}, nil
}

// applyDialog stores the outcome of a dialog run on the turn and converts its
// messages to replies.
func (b *Bot) applyDialog(ctx context.Context, log *zap.Logger, turn *state.Turn, res dialog.Result) []Reply {
	switch res.Status {
	case dialog.StatusWaiting:
		turn.SetReservation(res.Reservation)
		turn.SetDialog(res.State)
	case dialog.StatusComplete:
		b.finish(ctx, log, turn.Key(), res.Reservation)
		turn.Clear()
	}

	replies := make([]Reply, 0, len(res.Messages))
	for _, m := range res.Messages {
		replies = append(replies, Reply{Text: m.Text, Speak: m.Speak})
	}
	return replies
}

func (b *Bot) finish(ctx context.Context, log *zap.Logger, conversationID string, r reservation.Reservation) {
	if r.Confirmed == nil || !*r.Confirmed {
		b.metrics.Dialog("declined")
		return
	}
	b.metrics.Dialog("confirmed")

	bk := reservation.NewBooking(b.newID(), conversationID, r, b.now())
	if err := b.recorder.Record(ctx, bk); err != nil {
		log.Warn("record booking failed", zap.String("booking_id", bk.ID), zap.Error(err))
	}
}

func (b *Bot) seed(log *zap.Logger, rr recognizer.Result) reservation.Reservation {
	var r reservation.Reservation
	if amount, ok := rr.FirstEntity(recognizer.EntityAmountPeople); ok {
		amount = strings.TrimSpace(amount)
		if _, valid := reservation.ParsePartySize(amount); valid {
			r.AmountPeople = reservation.String(amount)
		} else {
			log.Debug("ignoring non-numeric party size", zap.String("amount", amount))
		}
	}
	if tx, ok := rr.FirstTimex(); ok {
		t, err := timex.Normalize(tx, b.now())
		if err != nil {
			log.Warn("unusable datetime entity", zap.String("timex", tx), zap.Error(err))
		} else {
			r.Time = reservation.String(t)
		}
	}
	return r
}

func (b *Bot) specialties() Reply {
	cards := make([]Card, 0, len(specialties))
	for _, s := range specialties {
		cards = append(cards, Card{Title: s.title, ImageURL: b.site + "/" + s.image})
	}
	return Reply{Text: SpecialtyText, AttachmentLayout: LayoutCarousel, Attachments: cards}
}

func (b *Bot) speech(text string) Reply {
	r := Reply{Text: text}
	if b.speaker != nil {
		r.Speak = b.speaker.Markup(text)
	}
	return r
}
