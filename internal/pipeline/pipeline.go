// Package pipeline runs one scrape: fetch, extract, build, filter, render and save.
//
// Every failure before the save is recovered: a failed fetch, empty markup, a missing
// fixture table or a bad row all lead to a smaller (possibly empty) calendar plus log
// output. A cancelled context and a failure to write the calendar file are returned
// to the caller; a cancelled run leaves the existing file untouched.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cska-ics/cska-ics/internal/calendar"
	"github.com/cska-ics/cska-ics/internal/config"
	"github.com/cska-ics/cska-ics/internal/filter"
	"github.com/cska-ics/cska-ics/internal/logger"
	"github.com/cska-ics/cska-ics/internal/match"
	"github.com/cska-ics/cska-ics/internal/scraper"
	"github.com/cska-ics/cska-ics/internal/storage"
)

// Pipeline holds the collaborators of a run
type Pipeline struct {
	URL       string
	Location  *time.Location
	Fetcher   scraper.Fetcher
	Extractor *scraper.Extractor
	Builder   *scraper.Builder
	Renderer  *calendar.Renderer
	Storage   *storage.Storage
}

// Result summarises a finished run
type Result struct {
	Rows    int
	Matches int
	Events  int
	Path    string
	Text    string
	Metrics map[string]interface{}
}

// New wires a Pipeline from a validated configuration. A nil fetcher selects
// HTTPFetcher, or BrowserFetcher when cfg.Browser is set.
func New(cfg *config.Config, fetcher scraper.Fetcher) (*Pipeline, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	store, err := storage.New(cfg.Output)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	if fetcher == nil {
		if cfg.Browser {
			fetcher = scraper.NewBrowserFetcher(cfg.FetchTimeout(), cfg.UserAgent(), cfg.TableSelector)
		} else {
			fetcher = scraper.NewHTTPFetcher(cfg.FetchTimeout(), cfg.Headers)
		}
	}

	return &Pipeline{
		URL:       cfg.URL,
		Location:  loc,
		Fetcher:   fetcher,
		Extractor: scraper.NewExtractor(cfg.TableSelector),
		Builder:   scraper.NewBuilder(cfg.Club, cfg.HomeMarker),
		Renderer:  calendar.NewRenderer(loc, cfg.MatchLength()),
		Storage:   store,
	}, nil
}

// Run executes one pass. now is the run's reference instant: it decides which
// matches are in the future and stamps every event, so it is captured once by
// the caller and never re-read here.
func (p *Pipeline) Run(ctx context.Context, now time.Time) (*Result, error) {
	metrics := logger.NewMetrics()
	now = now.In(p.Location)

	matches := p.scrape(ctx, metrics)

	// An aborted run is not a transport failure: keep the previous calendar
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("run interrupted before saving: %w", err)
	}

	upcoming := filter.Future(matches, now)
	metrics.AddCounter("matches.future", int64(len(upcoming)))

	text := p.Renderer.Render(upcoming, now)
	metrics.SetGauge("calendar.events", float64(len(upcoming)))

	if err := p.Storage.Save(text); err != nil {
		return nil, fmt.Errorf("saving calendar: %w", err)
	}

	result := &Result{
		Rows:    int(metrics.Counter("rows.total")),
		Matches: len(matches),
		Events:  len(upcoming),
		Path:    p.Storage.Path(),
		Text:    text,
		Metrics: metrics.GetSnapshot(),
	}

	logger.Info("Done", logger.Fields{
		"path":    result.Path,
		"events":  result.Events,
		"metrics": result.Metrics,
	})

	return result, nil
}

// scrape fetches the page and builds matches from its rows. Every failure is
// logged and turned into fewer (or zero) matches.
func (p *Pipeline) scrape(ctx context.Context, metrics *logger.Metrics) []*match.Match {
	started := time.Now()
	markup, err := p.Fetcher.Fetch(ctx, p.URL)
	metrics.RecordTiming("fetch", time.Since(started))
	if err != nil {
		metrics.IncrCounter("fetch.failed")
		markup = ""
	}

	rows, err := p.Extractor.Extract(markup)
	switch {
	case errors.Is(err, scraper.ErrNoMarkup):
		logger.Warn("No html fetched", logger.Fields{"url": p.URL})
		return nil
	case errors.Is(err, scraper.ErrTableNotFound):
		logger.Error("Fixture table missing from page", logger.Fields{"url": p.URL}, err)
		return nil
	case err != nil:
		logger.Error("Failed to parse fixtures page", logger.Fields{"url": p.URL}, err)
		return nil
	}

	return p.Builder.BuildAll(rows, metrics)
}
