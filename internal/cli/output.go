package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// OutputFormat specifies the summary format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult is the run summary printed after the calendar is written
type OutputResult struct {
	GeneratedAt time.Time `json:"generated_at"`
	URL         string    `json:"url"`
	Path        string    `json:"path"`
	Rows        int       `json:"rows"`
	Matches     int       `json:"matches"`
	EventCount  int       `json:"event_count"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs the summary as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs the summary as human-readable text
func writeText(w io.Writer, result *OutputResult) error {
	if result.EventCount == 0 {
		_, err := fmt.Fprintf(w, "No upcoming matches found. Wrote empty calendar to %s\n", result.Path)
		return err
	}

	_, err := fmt.Fprintf(w, "Wrote %d upcoming %s to %s (%d rows, %d matches parsed)\n",
		result.EventCount, plural(result.EventCount, "match", "matches"), result.Path, result.Rows, result.Matches)
	return err
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
