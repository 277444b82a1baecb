// Package timex turns recognizer timex tokens into the human readable
// time used on reservations.
package timex

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout is the rendered form, e.g. "May 01 at 06:00 PM".
const Layout = "January 02 at 03:04 PM"

var ErrEmpty = errors.New("timex: empty token")

var layouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Normalize parses a timex token and renders it with Layout. Tokens without a
// time component get ":00" appended first. now supplies the date for
// time-only tokens ("T19") and the year for "XXXX-" prefixed ones.
func Normalize(token string, now time.Time) (string, error) {
	t, err := Parse(token, now)
	if err != nil {
		return "", err
	}
	return t.Format(Layout), nil
}

func Parse(token string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(token)
	if s == "" {
		return time.Time{}, ErrEmpty
	}
	if !strings.Contains(s, ":") {
		s += ":00"
	}
	if strings.HasPrefix(s, "XXXX-") {
		s = strconv.Itoa(now.Year()) + s[4:]
	}
	if strings.HasPrefix(s, "T") {
		s = now.Format("2006-01-02") + s
	}

	for _, l := range layouts {
		if t, err := time.ParseInLocation(l, s, now.Location()); err == nil {
			return t, nil
		}
	}

	// date only: "2024-05-01:00"
	if date, rest, ok := strings.Cut(s, ":"); ok && rest == "00" {
		if t, err := time.ParseInLocation("2006-01-02", date, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timex: unsupported token %q", token)
}
