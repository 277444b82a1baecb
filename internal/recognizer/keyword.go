package recognizer

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

// IntentKeywords maps an intent to the words and phrases that trigger it.
type IntentKeywords struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
}

type keywordFile struct {
	Intents []IntentKeywords `yaml:"intents"`
}

var DefaultKeywords = []IntentKeywords{
	{Name: IntentTodaysSpecialty, Keywords: []string{"special", "specials", "specialty", "specialties", "speciality", "dish of the day", "today's menu"}},
	{Name: IntentReserveTable, Keywords: []string{"reserve", "reservation", "book", "booking", "table"}},
	{Name: IntentGetDiscounts, Keywords: []string{"discount", "discounts", "deal", "deals", "offer", "offers", "promotion"}},
}

// LoadKeywords reads an intents YAML file.
func LoadKeywords(path string) ([]IntentKeywords, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f keywordFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(f.Intents) == 0 {
		return nil, fmt.Errorf("%s: no intents defined", path)
	}
	return f.Intents, nil
}

var (
	amountRe   = regexp.MustCompile(`\bfor (\d+)\b|\b(\d+) (?:people|persons|person|guests|of us)\b`)
	datetimeRe = regexp.MustCompile(`\b(?:(today|tonight|tomorrow)\s+)?(?:at\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
)

// Keyword is an offline recognizer for local use. Each distinct keyword
// hit adds to the intent score.
type Keyword struct {
	intents []IntentKeywords
	now     func() time.Time
}

func NewKeyword(intents []IntentKeywords, now func() time.Time) *Keyword {
	if len(intents) == 0 {
		intents = DefaultKeywords
	}
	if now == nil {
		now = time.Now
	}
	return &Keyword{intents: intents, now: now}
}

func (k *Keyword) Recognize(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	norm := normalize(text)
	padded := " " + norm + " "

	r := Result{Text: text}
	for _, in := range k.intents {
		hits := 0
		for _, kw := range in.Keywords {
			if strings.Contains(padded, " "+normalize(kw)+" ") {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := 0.6 + 0.2*float64(hits-1)
		if score > 1 {
			score = 1
		}
		r.Intents = append(r.Intents, Intent{Name: in.Name, Score: score})
	}
	sortIntents(r.Intents)

	if m := amountRe.FindStringSubmatch(norm); m != nil {
		n := m[1]
		if n == "" {
			n = m[2]
		}
		r.addEntity(EntityAmountPeople, Entity{Text: n})
	}
	if m := datetimeRe.FindStringSubmatch(norm); m != nil {
		if tx, ok := k.timex(m[1], m[2], m[3], m[4]); ok {
			r.addEntity(EntityDatetime, Entity{Text: strings.TrimSpace(m[0]), Timex: []string{tx}})
		}
	}
	return r, nil
}

func (k *Keyword) timex(day, hour, minute, meridiem string) (string, bool) {
	h, err := strconv.Atoi(hour)
	if err != nil || h < 1 || h > 12 {
		return "", false
	}
	if meridiem == "pm" && h != 12 {
		h += 12
	}
	if meridiem == "am" && h == 12 {
		h = 0
	}

	clock := fmt.Sprintf("T%02d", h)
	if minute != "" && minute != "00" {
		clock += ":" + minute
	}

	switch day {
	case "today", "tonight":
		return k.now().Format("2006-01-02") + clock, true
	case "tomorrow":
		return k.now().AddDate(0, 0, 1).Format("2006-01-02") + clock, true
	}
	return clock, true
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if r == '\'' || r == ':' {
			return r
		}
		if unicode.IsPunct(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
