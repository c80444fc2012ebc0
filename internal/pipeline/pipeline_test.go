package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/cska-ics/cska-ics/internal/config"
	"github.com/cska-ics/cska-ics/internal/scraper"
)

const emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//cska-ics//cska-ics//RU\r\nEND:VCALENDAR\r\n"

// fakeFetcher returns canned markup or error
type fakeFetcher struct {
	body  string
	err   error
	calls int
	url   string
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.calls++
	f.url = url
	return f.body, f.err
}

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/cska_calendar.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

func newPipeline(t *testing.T, fetcher scraper.Fetcher) (*Pipeline, string) {
	t.Helper()
	cfg := config.Default()
	cfg.Output = filepath.Join(t.TempDir(), "cska.ics")

	p, err := New(cfg, fetcher)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return p, cfg.Output
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading calendar: %v", err)
	}
	return string(data)
}

func TestRun_Fixture(t *testing.T) {
	fetcher := &fakeFetcher{body: loadFixture(t)}
	p, path := newPipeline(t, fetcher)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	result, err := p.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if fetcher.calls != 1 || fetcher.url != config.DefaultURL {
		t.Errorf("fetcher called %d times with %q, want once with %q", fetcher.calls, fetcher.url, config.DefaultURL)
	}

	// 5 rows: one invalid date is skipped, one has no kickoff and is not in the future
	if result.Rows != 5 {
		t.Errorf("Rows = %d, want 5", result.Rows)
	}
	if result.Matches != 4 {
		t.Errorf("Matches = %d, want 4", result.Matches)
	}
	if result.Events != 3 {
		t.Errorf("Events = %d, want 3", result.Events)
	}

	out := readOutput(t, path)
	if out != result.Text {
		t.Error("file contents differ from Result.Text")
	}

	wantLines := []string{
		"UID:Winline Зимний кубок РПЛ_Зенит_ЦСКА_2026\r\n",
		"DTSTAMP:20260201T000000Z\r\n",
		"DTSTART:20260210T070000Z\r\n",
		"DTEND:20260210T090000Z\r\n",
		"SUMMARY:Зенит - ЦСКА (Winline Зимний кубок РПЛ)\r\n",
		"SUMMARY:ЦСКА - Спартак (Премьер-Лига)\r\n",
		"DTSTART:20260301T163000Z\r\n",
		"SUMMARY:ЦСКА - Локомотив (Кубок России)\r\n",
	}
	for _, line := range wantLines {
		if !strings.Contains(out, line) {
			t.Errorf("calendar missing %q", line)
		}
	}

	for _, absent := range []string{"Ростов", "Динамо"} {
		if strings.Contains(out, absent) {
			t.Errorf("calendar should not contain %s", absent)
		}
	}

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar() error: %v", err)
	}
	if got := len(cal.Events()); got != 3 {
		t.Errorf("parsed %d events, want 3", got)
	}
}

func TestRun_ReferenceInstantFiltersPast(t *testing.T) {
	p, _ := newPipeline(t, &fakeFetcher{body: loadFixture(t)})

	// 2026-03-01 16:30 UTC is the Спартак kickoff: only Локомотив is strictly later
	now := time.Date(2026, 3, 1, 16, 30, 0, 0, time.UTC)

	result, err := p.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Events != 1 {
		t.Fatalf("Events = %d, want 1", result.Events)
	}
	if !strings.Contains(result.Text, "Локомотив") {
		t.Errorf("remaining event should be Локомотив, got %q", result.Text)
	}
}

func TestRun_Idempotent(t *testing.T) {
	now := time.Date(2026, 2, 1, 8, 15, 0, 0, time.UTC)

	p1, _ := newPipeline(t, &fakeFetcher{body: loadFixture(t)})
	p2, _ := newPipeline(t, &fakeFetcher{body: loadFixture(t)})

	r1, err := p1.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	r2, err := p2.Run(context.Background(), now)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if r1.Text != r2.Text {
		t.Error("two runs with the same reference instant should produce identical calendars")
	}
}

func TestRun_RecoveredFailures(t *testing.T) {
	tests := []struct {
		name    string
		fetcher *fakeFetcher
	}{
		{
			name:    "transport failure",
			fetcher: &fakeFetcher{err: errors.New("connection refused")},
		},
		{
			name:    "empty markup",
			fetcher: &fakeFetcher{body: ""},
		},
		{
			name:    "table missing",
			fetcher: &fakeFetcher{body: "<html><body><p>Страница не найдена</p></body></html>"},
		},
		{
			name:    "only malformed rows",
			fetcher: &fakeFetcher{body: `<table class="stat-table"><tbody><tr><td>мусор</td></tr></tbody></table>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, path := newPipeline(t, tt.fetcher)

			result, err := p.Run(context.Background(), time.Now())
			if err != nil {
				t.Fatalf("Run() error: %v", err)
			}
			if result.Events != 0 {
				t.Errorf("Events = %d, want 0", result.Events)
			}
			if got := readOutput(t, path); got != emptyCalendar {
				t.Errorf("calendar = %q, want header and footer only", got)
			}
		})
	}
}

func TestRun_MalformedRowAmongValid(t *testing.T) {
	html := `<table class="stat-table"><tbody>
		<tr><td>01.03.2026|19:30</td><td>x</td><td>Премьер-Лига</td><td>x</td><td>x</td><td>Спартак</td><td>Дома</td></tr>
		<tr><td>xx.yy.2026|19:30</td><td>x</td><td>Премьер-Лига</td><td>x</td><td>x</td><td>Динамо</td><td>Дома</td></tr>
		<tr><td>15.03.2026|14:00</td><td>x</td><td>Кубок России</td><td>x</td><td>x</td><td>Локомотив</td><td>В гостях</td></tr>
	</tbody></table>`

	p, _ := newPipeline(t, &fakeFetcher{body: html})

	result, err := p.Run(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.Events != 2 {
		t.Errorf("Events = %d, want 2", result.Events)
	}
	counters := result.Metrics["counters"].(map[string]int64)
	if counters["rows.skipped"] != 1 {
		t.Errorf("rows.skipped = %d, want 1", counters["rows.skipped"])
	}
	if !strings.Contains(result.Text, "SUMMARY:Локомотив - ЦСКА (Кубок России)") {
		t.Errorf("away fixture should list the opponent first, got %q", result.Text)
	}
}

func TestRun_PersistenceFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Output = t.TempDir() // a directory cannot be written as a file

	p, err := New(cfg, &fakeFetcher{body: loadFixture(t)})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	if _, err := p.Run(context.Background(), time.Now()); err == nil {
		t.Fatal("Run() should fail when the calendar cannot be written")
	}
}

func TestRun_HTTPFetcherFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.URL = server.URL
	cfg.Timeout = 5
	cfg.Output = filepath.Join(t.TempDir(), "cska.ics")

	p, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, ok := p.Fetcher.(*scraper.HTTPFetcher); !ok {
		t.Fatalf("Fetcher = %T, want *scraper.HTTPFetcher", p.Fetcher)
	}

	result, err := p.Run(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.Text != emptyCalendar {
		t.Errorf("calendar = %q, want empty calendar", result.Text)
	}
	counters := result.Metrics["counters"].(map[string]int64)
	if counters["fetch.failed"] != 1 {
		t.Errorf("fetch.failed = %d, want 1", counters["fetch.failed"])
	}
}

func TestNew_SelectsFetcher(t *testing.T) {
	cfg := config.Default()
	cfg.Browser = true
	cfg.Output = filepath.Join(t.TempDir(), "cska.ics")

	p, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if _, ok := p.Fetcher.(*scraper.BrowserFetcher); !ok {
		t.Errorf("Fetcher = %T, want *scraper.BrowserFetcher", p.Fetcher)
	}
}

func TestNew_InvalidTimezone(t *testing.T) {
	cfg := config.Default()
	cfg.Timezone = "Nowhere/Special"

	if _, err := New(cfg, &fakeFetcher{}); err == nil {
		t.Error("New() should fail for an unknown timezone")
	}
}

func TestRun_CancelledKeepsPreviousCalendar(t *testing.T) {
	const previous = "PREVIOUS CALENDAR"

	tests := []struct {
		name        string
		cancelFirst bool
		fetcher     func(t *testing.T) scraper.Fetcher
	}{
		{
			name:        "fetcher reports cancellation",
			cancelFirst: true,
			fetcher: func(t *testing.T) scraper.Fetcher {
				return &fakeFetcher{err: context.Canceled}
			},
		},
		{
			name: "slow server",
			fetcher: func(t *testing.T) scraper.Fetcher {
				body := loadFixture(t)
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					select {
					case <-r.Context().Done():
					case <-time.After(2 * time.Second):
					}
					w.Write([]byte(body))
				}))
				t.Cleanup(server.Close)
				return &urlFetcher{url: server.URL, inner: scraper.NewHTTPFetcher(5*time.Second, nil)}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, path := newPipeline(t, tt.fetcher(t))
			if err := os.WriteFile(path, []byte(previous), 0644); err != nil {
				t.Fatalf("seeding calendar: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()
			if tt.cancelFirst {
				cancel()
			}

			result, err := p.Run(ctx, time.Now())
			if err == nil {
				t.Fatalf("Run() should fail when the context is done, got %+v", result)
			}
			if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Run() error = %v, want context error", err)
			}
			if got := readOutput(t, path); got != previous {
				t.Errorf("calendar = %q, want previous contents kept", got)
			}
		})
	}
}

// urlFetcher sends every request to a fixed test server URL
type urlFetcher struct {
	url   string
	inner scraper.Fetcher
}

func (f *urlFetcher) Fetch(ctx context.Context, _ string) (string, error) {
	return f.inner.Fetch(ctx, f.url)
}
