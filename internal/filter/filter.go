// Package filter narrows the scraped fixture list down to what goes into the calendar.
//
// Future keeps matches whose kickoff is strictly after the run's reference instant.
// The instant is captured once by the caller and passed in, so every match in a run
// is compared against the same "now". Matches without a kickoff time are dropped.
//
// Example usage:
//
//	now := time.Now().In(loc)
//	upcoming := filter.Future(matches, now)
package filter

import (
	"time"

	"github.com/cska-ics/cska-ics/internal/match"
)

// Future returns the matches that kick off after now, preserving input order.
// now should be expressed in the source timezone; see match.Match.IsFuture.
func Future(matches []*match.Match, now time.Time) []*match.Match {
	filtered := make([]*match.Match, 0, len(matches))
	for _, m := range matches {
		if m.IsFuture(now) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}
