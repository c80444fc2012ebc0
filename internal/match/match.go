package match

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DateLayout is the canonical date format accepted by New
	DateLayout = "2006-01-02"
)

// kickoffLayouts are tried in order when parsing a kickoff time
var kickoffLayouts = []string{"15:04", "15:04:05"}

// ErrInvalid matches every *ValidationError with errors.Is
var ErrInvalid = errors.New("invalid match")

// ValidationError describes the field that made a Match invalid
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Is reports ErrInvalid as a match so callers need not know the concrete type.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalid
}

// Clock is a time of day without a date or zone
type Clock struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second,omitempty"`
}

func (c Clock) String() string {
	if c.Second != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
	}
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Match is a single fixture of the tracked club.
// Date carries only a calendar date (midnight UTC). Kickoff is nil when the
// source has not published a kickoff time yet.
type Match struct {
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	Date       time.Time `json:"date"`
	Kickoff    *Clock    `json:"kickoff,omitempty"`
	Tournament string    `json:"tournament"`
}

// New validates the raw field values and builds a Match.
// date must be YYYY-MM-DD; kickoff is HH:MM or HH:MM:SS, or empty when unknown.
func New(homeTeam, awayTeam, date, kickoff, tournament string) (*Match, error) {
	m := &Match{
		HomeTeam:   strings.TrimSpace(homeTeam),
		AwayTeam:   strings.TrimSpace(awayTeam),
		Tournament: strings.TrimSpace(tournament),
	}

	required := []struct {
		field string
		value string
	}{
		{"home_team", m.HomeTeam},
		{"away_team", m.AwayTeam},
		{"tournament", m.Tournament},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, &ValidationError{Field: r.field, Value: r.value, Err: errors.New("must not be empty")}
		}
	}

	d, err := time.Parse(DateLayout, strings.TrimSpace(date))
	if err != nil {
		return nil, &ValidationError{Field: "date", Value: date, Err: err}
	}
	m.Date = d

	if kickoff = strings.TrimSpace(kickoff); kickoff != "" {
		c, err := parseClock(kickoff)
		if err != nil {
			return nil, &ValidationError{Field: "time", Value: kickoff, Err: err}
		}
		m.Kickoff = &c
	}

	return m, nil
}

func parseClock(s string) (Clock, error) {
	var lastErr error
	for _, layout := range kickoffLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
		lastErr = err
	}
	return Clock{}, lastErr
}

// ID returns the calendar identifier of the fixture.
// It is built from tournament, teams and year only, so a fixture moved to
// another date within the same season keeps its identifier.
func (m *Match) ID() string {
	return fmt.Sprintf("%s_%s_%s_%d", m.Tournament, m.HomeTeam, m.AwayTeam, m.Date.Year())
}

// Summary returns the one-line "home - away (tournament)" description
func (m *Match) Summary() string {
	return fmt.Sprintf("%s - %s (%s)", m.HomeTeam, m.AwayTeam, m.Tournament)
}

// HasKickoff reports whether a kickoff time is known
func (m *Match) HasKickoff() bool {
	return m.Kickoff != nil
}

// Start returns the kickoff instant, reading date and kickoff as wall clock
// time in loc. ok is false when the kickoff time is unknown.
func (m *Match) Start(loc *time.Location) (start time.Time, ok bool) {
	if m.Kickoff == nil {
		return time.Time{}, false
	}
	return time.Date(m.Date.Year(), m.Date.Month(), m.Date.Day(),
		m.Kickoff.Hour, m.Kickoff.Minute, m.Kickoff.Second, 0, loc), true
}

// IsFuture reports whether the kickoff is strictly after ref.
// The kickoff is read in ref's location, so ref should be expressed in the
// source timezone. Matches without a kickoff time are never in the future.
func (m *Match) IsFuture(ref time.Time) bool {
	start, ok := m.Start(ref.Location())
	if !ok {
		return false
	}
	return start.After(ref)
}

func (m *Match) String() string {
	kickoff := "--:--"
	if m.Kickoff != nil {
		kickoff = m.Kickoff.String()
	}
	return fmt.Sprintf("%s %s %s", m.Date.Format(DateLayout), kickoff, m.Summary())
}
