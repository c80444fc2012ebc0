package scraper

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cska-ics/cska-ics/internal/logger"
	"github.com/cska-ics/cska-ics/internal/match"
)

const (
	DefaultClub       = "ЦСКА"
	DefaultHomeMarker = "дома"

	// kickoffSeparator splits "DD.MM.YYYY|HH:MM" into date and time
	kickoffSeparator = "|"
)

// Row positions consumed by Builder
const (
	colDateTime   = 0
	colTournament = 2
	colOpponent   = 5
	colVenue      = 6

	minRowFields = colVenue + 1
)

var (
	// ErrShortRow is returned for rows with fewer fields than the builder reads
	ErrShortRow = errors.New("row has too few fields")
	// ErrClubOnBothSides is returned when the opponent cell names the tracked club
	ErrClubOnBothSides = errors.New("tracked club on both sides")
)

// Builder converts extracted rows into matches of the tracked club
type Builder struct {
	Club       string
	HomeMarker string
}

// NewBuilder creates a Builder, using the reference club and home marker for empty values.
func NewBuilder(club, homeMarker string) *Builder {
	if club == "" {
		club = DefaultClub
	}
	if homeMarker == "" {
		homeMarker = DefaultHomeMarker
	}
	return &Builder{Club: club, HomeMarker: homeMarker}
}

// Build maps one row onto a Match.
// Position 0 holds "DD.MM.YYYY|HH:MM" or "DD.MM.YYYY", 2 the tournament,
// 5 the opponent and 6 the venue marker.
func (b *Builder) Build(row []string) (*match.Match, error) {
	if len(row) < minRowFields {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrShortRow, len(row), minRowFields)
	}

	dateToken, kickoff, hasKickoff := strings.Cut(row[colDateTime], kickoffSeparator)
	if hasKickoff && strings.TrimSpace(kickoff) == "" {
		return nil, &match.ValidationError{Field: "time", Value: kickoff, Err: errors.New("empty after separator")}
	}
	date := ReformatDate(dateToken)

	if strings.EqualFold(strings.TrimSpace(row[colOpponent]), b.Club) {
		return nil, fmt.Errorf("%w: %q", ErrClubOnBothSides, row[colOpponent])
	}

	homeTeam, awayTeam := row[colOpponent], b.Club
	if b.IsHome(row[colVenue]) {
		homeTeam, awayTeam = b.Club, row[colOpponent]
	}

	return match.New(homeTeam, awayTeam, date, kickoff, row[colTournament])
}

// BuildAll builds a match per row, in order. Rows that fail are logged with
// their raw fields and skipped; a bad row never stops the rest.
func (b *Builder) BuildAll(rows [][]string, metrics *logger.Metrics) []*match.Match {
	if metrics == nil {
		metrics = logger.NewMetrics()
	}

	matches := make([]*match.Match, 0, len(rows))
	for _, row := range rows {
		metrics.IncrCounter("rows.total")

		m, err := b.Build(row)
		if err != nil {
			metrics.IncrCounter("rows.skipped")
			logger.Error("Parsing error", logger.Fields{"row": row}, err)
			continue
		}

		metrics.IncrCounter("matches.built")
		logger.Debug("Match", logger.Fields{"match": m.String(), "uid": m.ID()})
		matches = append(matches, m)
	}
	return matches
}

// IsHome reports whether the venue marker means the tracked club plays at home.
// Anything other than the home marker counts as away.
func (b *Builder) IsHome(marker string) bool {
	return strings.EqualFold(strings.TrimSpace(marker), b.HomeMarker)
}

// ReformatDate rearranges "DD.MM.YYYY" into "YYYY-MM-DD" by character position.
// Tokens of any other length are returned unchanged and fail validation later.
func ReformatDate(token string) string {
	if len(token) != len("02.01.2006") {
		return token
	}
	return token[6:] + "-" + token[3:5] + "-" + token[:2]
}
