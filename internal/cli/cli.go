package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cska-ics/cska-ics/internal/config"
	"github.com/cska-ics/cska-ics/internal/logger"
	"github.com/cska-ics/cska-ics/internal/pipeline"
	"github.com/cska-ics/cska-ics/internal/scraper"
	"github.com/cska-ics/cska-ics/internal/storage"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// options holds the flag values of one command instance
type options struct {
	configPath string
	url        string
	output     string
	timezone   string
	club       string
	userAgent  string
	format     string
	duration   int
	timeout    int
	browser    bool
	verbose    bool
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cska-ics",
		Short: "Build an iCalendar file of upcoming CSKA fixtures",
		Long: `Scrapes the club's fixture list, keeps matches with a known kickoff in the future
and writes them as an .ics file that calendar apps can import or subscribe to.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&opts.url, "url", config.DefaultURL, "Fixture page URL")
	flags.StringVarP(&opts.output, "output", "o", storage.DefaultFilename, "Calendar file to write")
	flags.StringVar(&opts.timezone, "timezone", config.DefaultTimezone, "Timezone the source publishes kickoff times in")
	flags.StringVar(&opts.club, "club", scraper.DefaultClub, "Name of the tracked club as shown on the page")
	flags.StringVar(&opts.userAgent, "user-agent", "", "User-Agent header sent to the site (default: a desktop browser)")
	flags.StringVar(&opts.format, "format", "text", "Summary format: text or json")
	flags.IntVar(&opts.duration, "duration", config.DefaultMatchDuration, "Match duration in minutes")
	flags.IntVar(&opts.timeout, "timeout", config.DefaultTimeout, "HTTP timeout in seconds")
	flags.BoolVar(&opts.browser, "browser", false, "Render the page in headless Chrome before parsing")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")

	return cmd
}

// run is the main command logic
func run(cmd *cobra.Command, opts *options) error {
	// Captured once: every future check and DTSTAMP in this run uses it
	now := time.Now()

	format := OutputFormat(strings.ToLower(opts.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", opts.format)
	}

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if opts.verbose {
		level = logger.LevelDebug
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	logger.Debug("Configuration loaded", logger.Fields{
		"url":      cfg.URL,
		"output":   cfg.Output,
		"timezone": cfg.Timezone,
		"browser":  cfg.Browser,
	})

	p, err := pipeline.New(cfg, nil)
	if err != nil {
		return fmt.Errorf("initializing pipeline: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := p.Run(ctx, now)
	if err != nil {
		return err
	}

	return WriteOutput(cmd.OutOrStdout(), &OutputResult{
		GeneratedAt: now.UTC(),
		URL:         cfg.URL,
		Path:        result.Path,
		Rows:        result.Rows,
		Matches:     result.Matches,
		EventCount:  result.Events,
	}, format)
}

// loadConfig layers defaults, the optional config file and explicitly set flags
func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("url") {
		cfg.URL = opts.url
	}
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("timezone") {
		cfg.Timezone = opts.timezone
	}
	if flags.Changed("club") {
		cfg.Club = opts.club
	}
	if flags.Changed("user-agent") {
		cfg.SetUserAgent(opts.userAgent)
	}
	if flags.Changed("duration") {
		cfg.MatchDuration = opts.duration
	}
	if flags.Changed("timeout") {
		cfg.Timeout = opts.timeout
	}
	if flags.Changed("browser") {
		cfg.Browser = opts.browser
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}
