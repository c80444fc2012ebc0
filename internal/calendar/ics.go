// Package calendar renders matches as an iCalendar (.ics) document.
package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cska-ics/cska-ics/internal/match"
)

const (
	// DefaultDuration is how long a match block lasts in the calendar
	DefaultDuration = 120 * time.Minute

	ProdID = "-//cska-ics//cska-ics//RU"

	icsTimeLayout = "20060102T150405Z"
	crlf          = "\r\n"

	// maxLineOctets is the content line limit before folding, excluding CRLF
	maxLineOctets = 75
)

// Renderer turns matches into calendar text.
// Location is the zone the source publishes kickoff times in.
type Renderer struct {
	Location *time.Location
	Duration time.Duration
}

// NewRenderer creates a Renderer for the given source zone and match duration.
// A nil location means UTC and a non-positive duration means DefaultDuration.
func NewRenderer(loc *time.Location, duration time.Duration) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	if duration <= 0 {
		duration = DefaultDuration
	}
	return &Renderer{Location: loc, Duration: duration}
}

// Render returns a VCALENDAR holding one VEVENT per match, in input order.
// now is the run's reference instant and becomes every event's DTSTAMP.
// Every match must have a kickoff time; filter.Future guarantees that.
func (r *Renderer) Render(matches []*match.Match, now time.Time) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR" + crlf)
	ics.WriteString("VERSION:2.0" + crlf)
	ics.WriteString("PRODID:" + ProdID + crlf)

	created := formatICSTime(now)
	for _, m := range matches {
		r.writeEvent(&ics, m, created)
	}

	ics.WriteString("END:VCALENDAR" + crlf)

	return ics.String()
}

func (r *Renderer) writeEvent(ics *strings.Builder, m *match.Match, created string) {
	start, ok := m.Start(r.Location)
	if !ok {
		panic(fmt.Sprintf("calendar: match without kickoff time: %s", m.Summary()))
	}
	end := start.Add(r.Duration)

	ics.WriteString("BEGIN:VEVENT" + crlf)
	writeLine(ics, "UID:"+escapeICS(m.ID()))
	writeLine(ics, "DTSTAMP:"+created)
	writeLine(ics, "DTSTART:"+formatICSTime(start))
	writeLine(ics, "DTEND:"+formatICSTime(end))
	writeLine(ics, "SUMMARY:"+escapeICS(m.Summary()))
	ics.WriteString("END:VEVENT" + crlf)
}

// writeLine writes one content line, folded so no physical line exceeds
// maxLineOctets. Continuation lines start with a space and folds never split
// a UTF-8 sequence.
func writeLine(ics *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		ics.WriteString(line[:cut])
		ics.WriteString(crlf + " ")
		line = line[cut:]
		limit = maxLineOctets - 1
	}
	ics.WriteString(line)
	ics.WriteString(crlf)
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format(icsTimeLayout)
}

// escapeICS escapes special characters for iCalendar TEXT values
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
