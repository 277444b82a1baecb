package dialog

import (
	"strings"
	"unicode"
)

var (
	yesWords = []string{"yes", "y", "yeah", "yep", "yup", "sure", "ok", "okay", "correct", "right", "true", "1", "of course", "absolutely", "affirmative"}
	noWords  = []string{"no", "n", "nope", "nah", "false", "incorrect", "wrong", "2", "negative", "not really"}
)

// ParseConfirmation recognizes a yes/no reply. ok is false when the reply is
// neither.
func ParseConfirmation(reply string) (yes bool, ok bool) {
	s := normalize(reply)
	if s == "" {
		return false, false
	}
	// "no" phrases first so "not really" never matches a yes prefix
	if matchAny(s, noWords) {
		return false, true
	}
	if matchAny(s, yesWords) {
		return true, true
	}
	return false, false
}

func matchAny(s string, words []string) bool {
	for _, w := range words {
		if s == w || strings.HasPrefix(s, w+" ") {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
