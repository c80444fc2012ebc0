package main

import (
	"fmt"
	"os"
	"time"

	"github.com/cska-ics/cska-ics/internal/calendar"
	"github.com/cska-ics/cska-ics/internal/match"
	"github.com/cska-ics/cska-ics/internal/storage"
)

func main() {
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading timezone: %v\n", err)
		os.Exit(1)
	}

	// A few fixtures a week apart, starting next week
	start := time.Now().In(loc).AddDate(0, 0, 7)
	samples := []struct{ home, away, kickoff, tournament string }{
		{"ЦСКА", "Спартак", "19:30", "Премьер-Лига"},
		{"Зенит", "ЦСКА", "17:00", "Премьер-Лига"},
		{"ЦСКА", "Локомотив", "14:00", "Кубок России"},
	}

	matches := make([]*match.Match, 0, len(samples))
	for i, s := range samples {
		date := start.AddDate(0, 0, 7*i).Format(match.DateLayout)
		m, err := match.New(s.home, s.away, date, s.kickoff, s.tournament)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error building sample match: %v\n", err)
			os.Exit(1)
		}
		matches = append(matches, m)
	}

	text := calendar.NewRenderer(loc, calendar.DefaultDuration).Render(matches, time.Now())

	store, err := storage.New("sample-cska.ics")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := store.Save(text); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s\n\n", store.Path())
	fmt.Println("Import it into Google Calendar, Apple Calendar or Outlook to check how events look.")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Print(text)
}
