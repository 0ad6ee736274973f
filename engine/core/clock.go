package core

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// Clock is a wall-clock time of day (HH:MM). Scheduling slots and per-type
// default times are configured as Clock values and resolved against a Date
// and location when a concrete moment is needed.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock parses "HH:MM" in 24-hour form.
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// MustParseClock parses "HH:MM" and panics on malformed input. Reserved for
// configuration defaults and tests.
func MustParseClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the clock as minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

// ClockOf returns the wall-clock component of t.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute()}
}

// Value implements driver.Valuer; clocks bind as "HH:MM" text.
func (c Clock) Value() (driver.Value, error) {
	return c.String(), nil
}

// Scan implements sql.Scanner for clock columns stored as text or time.
func (c *Clock) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = Clock{}
		return nil
	case string:
		return c.scanString(v)
	case []byte:
		return c.scanString(string(v))
	case time.Time:
		*c = ClockOf(v)
		return nil
	default:
		return fmt.Errorf("scan clock: unsupported type %T", src)
	}
}

func (c *Clock) scanString(s string) error {
	// Postgres time columns render seconds; trim them.
	if len(s) > 5 {
		s = s[:5]
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// MarshalJSON renders the clock as "HH:MM".
func (c Clock) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON parses an "HH:MM" string.
func (c *Clock) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("unmarshal clock: not a string: %s", s)
	}
	parsed, err := ParseClock(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
