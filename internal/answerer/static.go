package answerer

import (
	"context"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Entry is one FAQ item: several phrasings of a question sharing an answer.
type Entry struct {
	Questions []string `yaml:"questions"`
	Answer    string   `yaml:"answer"`
}

type faqFile struct {
	Entries []Entry `yaml:"entries"`
}

// LoadFAQ reads a YAML knowledge base file.
func LoadFAQ(path string) ([]Entry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f faqFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return f.Entries, nil
}

// Static answers from an in-memory FAQ using token overlap (Jaccard) between
// the question and each stored phrasing.
type Static struct {
	entries  []Entry
	minScore float64
}

func NewStatic(entries []Entry, minScore float64) *Static {
	if minScore <= 0 {
		minScore = DefaultScoreThreshold
	}
	return &Static{entries: entries, minScore: minScore}
}

func (s *Static) Answer(ctx context.Context, question string) ([]Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	q := tokens(question)
	out := []Answer{}
	for _, e := range s.entries {
		best := 0.0
		for _, phrasing := range e.Questions {
			if sc := jaccard(q, tokens(phrasing)); sc > best {
				best = sc
			}
		}
		if best >= s.minScore {
			out = append(out, Answer{Text: e.Answer, Score: best})
		}
	}
	sortAnswers(out)
	return out, nil
}

func tokens(s string) map[string]struct{} {
	set := map[string]struct{}{}
	for _, f := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		set[f] = struct{}{}
	}
	return set
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(a)+len(b)-inter)
}

// DefaultEntries is used when no FAQ file is configured.
var DefaultEntries = []Entry{
	{
		Questions: []string{"What time do you open?", "When are you open?", "What are your opening hours?"},
		Answer:    "We open at 5pm",
	},
	{
		Questions: []string{"Where are you located?", "What is your address?"},
		Answer:    "You can find us at 1 Contoso Way, right next to the park.",
	},
	{
		Questions: []string{"Do you have vegetarian options?", "Do you have vegan food?"},
		Answer:    "Yes, every section of our menu has vegetarian dishes.",
	},
	{
		Questions: []string{"Is there parking?", "Where can I park?"},
		Answer:    "There is a public garage across the street.",
	},
}
