// Package recognizer classifies user messages into intents and extracts
// entities such as the party size and the requested datetime.
package recognizer

import (
	"context"
	"sort"
)

const (
	IntentTodaysSpecialty = "TodaysSpecialty"
	IntentReserveTable    = "ReserveTable"
	IntentGetDiscounts    = "GetDiscounts"
	IntentNone            = "None"

	EntityAmountPeople = "AmountPeople"
	EntityDatetime     = "datetime"
)

type Recognizer interface {
	Recognize(ctx context.Context, text string) (Result, error)
}

type Intent struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Entity is one extracted value. Timex is set for datetime entities.
type Entity struct {
	Text  string   `json:"text"`
	Timex []string `json:"timex,omitempty"`
}

type Result struct {
	Text     string              `json:"text"`
	Intents  []Intent            `json:"intents"`
	Entities map[string][]Entity `json:"entities,omitempty"`
}

// Top returns the highest scoring intent, or IntentNone with a zero score
// when there are none.
func (r Result) Top() Intent {
	top := Intent{Name: IntentNone}
	for _, in := range r.Intents {
		if in.Score > top.Score {
			top = in
		}
	}
	return top
}

// TopAbove returns the top intent name when its score is strictly above
// threshold, IntentNone otherwise.
func (r Result) TopAbove(threshold float64) (string, float64) {
	top := r.Top()
	if top.Score <= threshold {
		return IntentNone, top.Score
	}
	return top.Name, top.Score
}

func (r Result) FirstEntity(name string) (string, bool) {
	es := r.Entities[name]
	if len(es) == 0 {
		return "", false
	}
	return es[0].Text, true
}

// FirstTimex returns the first timex value of the first datetime entity.
func (r Result) FirstTimex() (string, bool) {
	for _, e := range r.Entities[EntityDatetime] {
		if len(e.Timex) > 0 && e.Timex[0] != "" {
			return e.Timex[0], true
		}
	}
	return "", false
}

func (r *Result) addEntity(name string, e Entity) {
	if r.Entities == nil {
		r.Entities = map[string][]Entity{}
	}
	r.Entities[name] = append(r.Entities[name], e)
}

func sortIntents(in []Intent) {
	sort.SliceStable(in, func(i, j int) bool { return in[i].Score > in[j].Score })
}
