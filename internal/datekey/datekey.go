// Package datekey implements the canonical calendar-day identifier used as
// the primary key of a day ledger.
package datekey

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// Layout is the persisted form of a Key: DD.MM.YYYY.
const Layout = "02.01.2006"

const isoLayout = "2006-01-02"

// MaxSpanDays caps how many days Window and Between will materialize.
const MaxSpanDays = 100 * 366

var (
	ErrInvalidKey   = errors.New("invalid date key")
	ErrSpanTooLarge = errors.New("date span too large")
)

// Key identifies one calendar day in local time.
type Key string

// FromTime returns the key of the calendar day t falls on in loc.
func FromTime(t time.Time, loc *time.Location) Key {
	if loc == nil {
		loc = time.Local
	}
	return Key(t.In(loc).Format(Layout))
}

// Today returns the key for now in loc.
func Today(now time.Time, loc *time.Location) Key {
	return FromTime(now, loc)
}

// Parse accepts only the canonical DD.MM.YYYY form.
func Parse(s string) (Key, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(Layout, s)
	if err != nil {
		return "", ErrInvalidKey
	}
	return Key(t.Format(Layout)), nil
}

// ParseLoose accepts DD.MM.YYYY or YYYY-MM-DD and returns the canonical key.
func ParseLoose(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if k, err := Parse(s); err == nil {
		return k, nil
	}
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return "", ErrInvalidKey
	}
	return Key(t.Format(Layout)), nil
}

// Valid reports whether k is a well-formed canonical key.
func (k Key) Valid() bool {
	_, err := time.Parse(Layout, string(k))
	return err == nil
}

// Time returns midnight of the day in loc.
func (k Key) Time(loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(Layout, string(k), loc)
	if err != nil {
		return time.Time{}, ErrInvalidKey
	}
	return t, nil
}

// ISO returns the day as YYYY-MM-DD, or "" for an invalid key.
func (k Key) ISO() string {
	t, err := time.Parse(Layout, string(k))
	if err != nil {
		return ""
	}
	return t.Format(isoLayout)
}

func (k Key) String() string {
	return string(k)
}

// AddDays shifts the key by n calendar days.
func (k Key) AddDays(n int) (Key, error) {
	t, err := time.Parse(Layout, string(k))
	if err != nil {
		return "", ErrInvalidKey
	}
	return Key(t.AddDate(0, 0, n).Format(Layout)), nil
}

// Compare orders keys chronologically. Invalid keys sort before valid ones.
func Compare(a, b Key) int {
	ta, errA := time.Parse(Layout, string(a))
	tb, errB := time.Parse(Layout, string(b))
	switch {
	case errA != nil && errB != nil:
		return strings.Compare(string(a), string(b))
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	return ta.Compare(tb)
}

// SortDesc sorts keys newest first.
func SortDesc(keys []Key) {
	sort.SliceStable(keys, func(i, j int) bool {
		return Compare(keys[i], keys[j]) > 0
	})
}

// Window returns back days before center, center itself and forward days
// after it, oldest first. Negative offsets count as zero; an offset above
// MaxSpanDays is ErrSpanTooLarge.
func Window(center Key, back, forward int) ([]Key, error) {
	t, err := time.Parse(Layout, string(center))
	if err != nil {
		return nil, ErrInvalidKey
	}
	if back < 0 {
		back = 0
	}
	if forward < 0 {
		forward = 0
	}
	if back > MaxSpanDays || forward > MaxSpanDays {
		return nil, ErrSpanTooLarge
	}

	keys := make([]Key, 0, back+forward+1)
	for offset := -back; offset <= forward; offset++ {
		keys = append(keys, Key(t.AddDate(0, 0, offset).Format(Layout)))
	}
	return keys, nil
}

// DaysBetween returns the number of calendar days from from to to; negative
// when to is earlier. Nothing is allocated per day.
func DaysBetween(from, to Key) (int, error) {
	start, err := time.Parse(Layout, string(from))
	if err != nil {
		return 0, ErrInvalidKey
	}
	end, err := time.Parse(Layout, string(to))
	if err != nil {
		return 0, ErrInvalidKey
	}
	// both parse at UTC midnight, so the difference is whole days
	return int((end.Unix() - start.Unix()) / 86400), nil
}

// Between returns every key from from to to inclusive, oldest first. Ranges
// longer than MaxSpanDays are ErrSpanTooLarge.
func Between(from, to Key) ([]Key, error) {
	days, err := DaysBetween(from, to)
	if err != nil {
		return nil, err
	}
	if days < 0 {
		return nil, nil
	}
	if days >= MaxSpanDays {
		return nil, ErrSpanTooLarge
	}
	start, _ := time.Parse(Layout, string(from))
	end, _ := time.Parse(Layout, string(to))

	keys := make([]Key, 0, days+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		keys = append(keys, Key(day.Format(Layout)))
	}
	return keys, nil
}

// After reports whether k is strictly later than other.
func (k Key) After(other Key) bool {
	return Compare(k, other) > 0
}
