// Package dialog implements the table reservation dialog as an explicit
// state machine. Each step is a pure transition over the reservation record;
// the only state kept between turns is the pending step marker.
package dialog

import (
	"fmt"
	"strings"

	"github.com/example/table-bot/internal/domain/reservation"
)

type StepID string

const (
	StepInit         StepID = "init"
	StepTime         StepID = "time"
	StepAmountPeople StepID = "amount_people"
	StepFullName     StepID = "full_name"
	StepConfirmation StepID = "confirmation"
	StepFinal        StepID = "final"
)

var order = []StepID{StepInit, StepTime, StepAmountPeople, StepFullName, StepConfirmation, StepFinal}

func (s StepID) next() (StepID, bool) {
	for i, id := range order {
		if id == s && i+1 < len(order) {
			return order[i+1], true
		}
	}
	return "", false
}

const (
	PromptTime         = "When do you need the reservation?"
	PromptAmountPeople = "How many people will you need the reservation for?"
	RetryAmountPeople  = "The amount of people should be a number."
	PromptFullName     = "And the name on the reservation?"
	PromptConfirmation = "Ok. Let me confirm the information: This is a reservation for %s for %s people. Is that correct?"
	RetryConfirmation  = "Please confirm, say 'yes' or 'no' or something like that."
	ClosingConfirmed   = "Great, we will be expecting you this %s. Thanks for your reservation %s!"
	ClosingDeclined    = "Thanks for using the Contoso Assistance. See you soon!"
)

// Message is an outbound text with its speech markup.
type Message struct {
	Text  string `json:"text"`
	Speak string `json:"speak,omitempty"`
}

type ActionKind int

const (
	ActionAdvance ActionKind = iota
	ActionSuspend
	ActionComplete
)

// Action is what a step asks the runner to do next. For a suspend, Messages
// are sent ahead of Prompt.
type Action struct {
	Kind     ActionKind
	Prompt   Message
	Messages []Message
}

func Advance() Action { return Action{Kind: ActionAdvance} }

func Suspend(prompt Message) Action { return Action{Kind: ActionSuspend, Prompt: prompt} }

// Reject suspends on the same question after telling the user what was wrong
// with their reply.
func Reject(problem, prompt Message) Action {
	return Action{Kind: ActionSuspend, Prompt: prompt, Messages: []Message{problem}}
}

func Complete(msgs ...Message) Action { return Action{Kind: ActionComplete, Messages: msgs} }

// State is the persisted suspension marker. Prompt is the question awaiting
// a reply; it is sent again when the reply is blank.
type State struct {
	Pending StepID  `json:"pending"`
	Prompt  Message `json:"prompt"`
}

type Status int

const (
	StatusEmpty Status = iota
	StatusWaiting
	StatusComplete
)

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusComplete:
		return "complete"
	default:
		return "empty"
	}
}

// Result of running the dialog for one turn. State is nil unless Status is
// StatusWaiting.
type Result struct {
	Status      Status
	State       *State
	Reservation reservation.Reservation
	Messages    []Message
}

// Speaker renders speech markup for a prompt.
type Speaker interface {
	Markup(text string) string
}

type Dialog struct {
	speaker Speaker
}

func New(speaker Speaker) *Dialog {
	return &Dialog{speaker: speaker}
}

func (d *Dialog) message(text string) Message {
	m := Message{Text: text}
	if d.speaker != nil {
		m.Speak = d.speaker.Markup(text)
	}
	return m
}

// Begin starts a new dialog over seed, skipping every step whose field is
// already known.
func (d *Dialog) Begin(seed reservation.Reservation) Result {
	return d.run(seed, StepInit, nil)
}

// Continue resumes a suspended dialog, binding reply to the pending step.
func (d *Dialog) Continue(st *State, rec reservation.Reservation, reply string) Result {
	if st == nil || st.Pending == "" {
		return Result{Status: StatusEmpty, Reservation: rec}
	}
	if strings.TrimSpace(reply) == "" && st.Prompt.Text != "" {
		return Result{
			Status:      StatusWaiting,
			State:       &State{Pending: st.Pending, Prompt: st.Prompt},
			Reservation: rec,
			Messages:    []Message{st.Prompt},
		}
	}
	return d.run(rec, st.Pending, &reply)
}

func (d *Dialog) run(rec reservation.Reservation, step StepID, input *string) Result {
	for {
		var act Action
		rec, act = d.Step(rec, step, input)
		input = nil

		switch act.Kind {
		case ActionSuspend:
			return Result{
				Status:      StatusWaiting,
				State:       &State{Pending: step, Prompt: act.Prompt},
				Reservation: rec,
				Messages:    append(act.Messages, act.Prompt),
			}
		case ActionComplete:
			return Result{Status: StatusComplete, Reservation: rec, Messages: act.Messages}
		}

		next, ok := step.next()
		if !ok {
			return Result{Status: StatusComplete, Reservation: rec}
		}
		step = next
	}
}

// Step is the transition function. input is the reply to the prompt this
// step issued on a previous turn, or nil when the step is entered fresh.
func (d *Dialog) Step(rec reservation.Reservation, step StepID, input *string) (reservation.Reservation, Action) {
	switch step {
	case StepInit:
		return rec, Advance()

	case StepTime:
		if input != nil {
			rec.Time = reservation.String(*input)
			return rec, Advance()
		}
		if !rec.HasTime() {
			return rec, Suspend(d.message(PromptTime))
		}
		return rec, Advance()

	case StepAmountPeople:
		if input != nil {
			v := strings.TrimSpace(*input)
			if _, ok := reservation.ParsePartySize(v); !ok {
				return rec, Reject(d.message(RetryAmountPeople), d.message(PromptAmountPeople))
			}
			rec.AmountPeople = reservation.String(v)
			return rec, Advance()
		}
		if !rec.HasAmountPeople() {
			return rec, Suspend(d.message(PromptAmountPeople))
		}
		return rec, Advance()

	case StepFullName:
		if input != nil {
			rec.FullName = reservation.String(*input)
			return rec, Advance()
		}
		if !rec.HasFullName() {
			return rec, Suspend(d.message(PromptFullName))
		}
		return rec, Advance()

	case StepConfirmation:
		if input != nil {
			yes, ok := ParseConfirmation(*input)
			if !ok {
				return rec, Suspend(d.message(RetryConfirmation))
			}
			rec.Confirmed = reservation.Bool(yes)
			return rec, Advance()
		}
		if !rec.HasConfirmed() {
			return rec, Suspend(d.message(fmt.Sprintf(PromptConfirmation, deref(rec.Time), deref(rec.AmountPeople))))
		}
		return rec, Advance()

	case StepFinal:
		if rec.Confirmed == nil {
			return rec, Complete()
		}
		if *rec.Confirmed {
			return rec, Complete(d.message(fmt.Sprintf(ClosingConfirmed, deref(rec.Time), rec.FirstName())))
		}
		return rec, Complete(d.message(ClosingDeclined))
	}

	return rec, Complete()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
