// Package answerer looks up canned answers for free-form questions.
package answerer

import (
	"context"
	"sort"
)

type Answer struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Answerer returns answers ordered best first. An empty slice means no match.
type Answerer interface {
	Answer(ctx context.Context, question string) ([]Answer, error)
}

func sortAnswers(as []Answer) {
	sort.SliceStable(as, func(i, j int) bool { return as[i].Score > as[j].Score })
}
