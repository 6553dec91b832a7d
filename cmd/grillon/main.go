package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/unkn0wn-root/grillon/internal/bindings"
	"github.com/unkn0wn-root/grillon/internal/bus"
	"github.com/unkn0wn-root/grillon/internal/config"
	"github.com/unkn0wn-root/grillon/internal/headers"
	"github.com/unkn0wn-root/grillon/internal/httpclient"
	"github.com/unkn0wn-root/grillon/internal/logging"
	"github.com/unkn0wn-root/grillon/internal/persist"
	"github.com/unkn0wn-root/grillon/internal/reqstate"
	"github.com/unkn0wn-root/grillon/internal/store"
	"github.com/unkn0wn-root/grillon/internal/telemetry"
	"github.com/unkn0wn-root/grillon/internal/theme"
	"github.com/unkn0wn-root/grillon/internal/ui"
	"github.com/unkn0wn-root/grillon/internal/windowid"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const shutdownTimeout = 5 * time.Second

var usage = heredoc.Doc(`
	Usage: grillon [flags]

	Opens the request windows left from the previous session, or an empty
	workspace on first launch. Window contents are saved to the database
	each time a request is sent.

	Flags:
`)

type options struct {
	dbPath          string
	timeout         time.Duration
	insecure        bool
	follow          bool
	proxyURL        string
	themeKey        string
	logLevel        string
	logStderr       bool
	headless        bool
	showVersion     bool
	traceOTEndpoint string
	traceOTInsecure bool
	traceOTService  string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always runs.
func run(args []string) int {
	settings, settingsHandle, settingsErr := config.LoadSettings()
	if settingsErr != nil {
		settings = config.Settings{}.Normalise()
	}
	// flags below must not leak into a saved settings file
	fileSettings := settings
	telemetryCfg := telemetry.ConfigFromEnv(os.Getenv)

	opts := options{
		dbPath:          settings.DBPath,
		timeout:         time.Duration(settings.HTTP.Timeout),
		insecure:        settings.HTTP.Insecure,
		follow:          settings.Follow(),
		proxyURL:        settings.HTTP.Proxy,
		themeKey:        settings.DefaultTheme,
		logLevel:        settings.Log.Level,
		logStderr:       settings.Log.Stderr,
		traceOTEndpoint: telemetryCfg.Endpoint,
		traceOTInsecure: telemetryCfg.Insecure,
		traceOTService:  telemetryCfg.ServiceName,
	}
	fs := newFlagSet(&opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if opts.showVersion {
		fmt.Printf("grillon %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		return 0
	}

	settings.DBPath = opts.dbPath
	settings.Log.Level = opts.logLevel
	settings.Log.Stderr = opts.logStderr
	logger, logCloser, err := logging.New(logConfig(settings.Log))
	if err != nil {
		log.Printf("log init error: %v", err)
	}
	defer func() { _ = logCloser.Close() }()
	if settingsErr != nil {
		logger.Warn().Err(settingsErr).Msg("settings load failed; using defaults")
	}
	ctx := logging.WithContext(context.Background(), logger)

	st, err := store.Open(ctx, settings.DBPath)
	if err != nil {
		logger.Error().Err(err).Str("path", settings.DBPath).Msg("open database")
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		return 1
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn().Err(err).Msg("close database")
		}
	}()

	if opts.headless {
		if err := listWindows(ctx, os.Stdout, st); err != nil {
			fmt.Fprintf(os.Stderr, "list windows: %v\n", err)
			return 1
		}
		return 0
	}

	telemetryCfg.Endpoint = strings.TrimSpace(opts.traceOTEndpoint)
	telemetryCfg.Insecure = opts.traceOTInsecure
	telemetryCfg.ServiceName = strings.TrimSpace(opts.traceOTService)
	telemetryCfg.Version = version

	client := httpclient.NewClient(httpclient.Options{
		Timeout:            opts.timeout,
		FollowRedirects:    opts.follow,
		InsecureSkipVerify: opts.insecure,
		ProxyURL:           opts.proxyURL,
	})
	provider, err := telemetry.New(telemetryCfg)
	if err != nil {
		if telemetryCfg.Enabled() {
			logger.Warn().Err(err).Msg("telemetry init")
		}
	} else {
		client.SetTelemetry(provider)
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := provider.Shutdown(sctx); err != nil {
				logger.Warn().Err(err).Msg("telemetry shutdown")
			}
		}()
	}

	bindingMap, _, err := bindings.Load(config.Dir())
	if err != nil {
		logger.Warn().Err(err).Msg("bindings load failed; using defaults")
		bindingMap = bindings.DefaultMap()
	}

	th, ok := theme.Lookup(opts.themeKey)
	if !ok {
		if strings.TrimSpace(opts.themeKey) != "" {
			logger.Warn().Str("theme", opts.themeKey).Msg("unknown theme; using default")
		}
		th = theme.DefaultTheme()
		opts.themeKey = ""
	}

	handler := persist.New(st, persist.WithLogger(logging.Component(logger, "persist")))
	events := bus.New()

	model := ui.New(ui.Config{
		Bus:            events,
		Allocator:      windowid.New(),
		Executor:       client,
		Persister:      handler,
		Source:         handler,
		Theme:          &th,
		ThemeKey:       opts.themeKey,
		Bindings:       bindingMap,
		Layout:         settings.Layout,
		DefaultVerb:    settings.DefaultVerb,
		Version:        version,
		Logger:         logging.Component(logger, "ui"),
		Settings:       fileSettings,
		SettingsHandle: settingsHandle,
		SaveSettings:   config.SaveSettings,
	})
	logger.Info().
		Int("restored", model.Registry().Len()).
		Str("db", settings.DBPath).
		Msg("grillon started")

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := program.Run()

	events.Close()
	drainPersistence(handler, logger)

	if runErr != nil {
		logger.Error().Err(runErr).Msg("program exited")
		fmt.Fprintf(os.Stderr, "error: %v\n", runErr)
		return 1
	}
	return 0
}

func newFlagSet(opts *options) *flag.FlagSet {
	fs := flag.NewFlagSet("grillon", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&opts.dbPath, "db", opts.dbPath, "Path to the session database")
	fs.DurationVar(&opts.timeout, "timeout", opts.timeout, "Request timeout")
	fs.BoolVar(&opts.insecure, "insecure", opts.insecure, "Skip TLS certificate verification")
	fs.BoolVar(&opts.follow, "follow", opts.follow, "Follow redirects")
	fs.StringVar(&opts.proxyURL, "proxy", opts.proxyURL, "HTTP proxy URL")
	fs.StringVar(&opts.themeKey, "theme", opts.themeKey, "Theme name ("+strings.Join(theme.Keys(), ", ")+")")
	fs.StringVar(&opts.logLevel, "log-level", opts.logLevel, "Log level (debug, info, warn, error)")
	fs.BoolVar(&opts.logStderr, "log-stderr", opts.logStderr, "Also write logs to stderr")
	fs.BoolVar(&opts.headless, "headless", false, "Print the stored windows and exit without starting the UI")
	fs.BoolVar(&opts.showVersion, "version", false, "Show grillon version")
	fs.StringVar(
		&opts.traceOTEndpoint,
		"trace-otel-endpoint",
		opts.traceOTEndpoint,
		"OTLP collector endpoint for request spans",
	)
	fs.BoolVar(
		&opts.traceOTInsecure,
		"trace-otel-insecure",
		opts.traceOTInsecure,
		"Disable TLS for OTLP trace export",
	)
	fs.StringVar(
		&opts.traceOTService,
		"trace-otel-service",
		opts.traceOTService,
		"Override service.name resource attribute for exported spans",
	)
	return fs
}

func logConfig(s config.LogSettings) logging.Config {
	return logging.Config{
		Level:      s.Level,
		File:       s.File,
		Stderr:     s.Stderr,
		MaxSizeMB:  s.MaxSizeMB,
		MaxBackups: s.MaxBackups,
		MaxAgeDays: s.MaxAgeDays,
	}
}

// drainPersistence waits a bounded time for queued writes to land.
func drainPersistence(h *persist.Handler, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := h.Close(ctx); err != nil {
		logger.Warn().Err(err).Msg("persistence drain incomplete")
	}
}

type rowLoader interface {
	LoadAll(ctx context.Context) ([]reqstate.State, error)
}

func listWindows(ctx context.Context, w io.Writer, src rowLoader) error {
	rows, err := src.LoadAll(ctx)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "no stored windows")
		return err
	}
	for _, row := range rows {
		method := reqstate.Verbs[reqstate.VerbIndex(row.Method)]
		if _, err := fmt.Fprintf(w, "#%s\t%s\t%s\t%d headers\t%s body\n",
			row.ID, method, row.URI, len(row.Headers), httpclient.HumanBytes(int64(len(row.Body)))); err != nil {
			return err
		}
		if len(row.Headers) > 0 {
			for _, line := range strings.Split(strings.TrimRight(headers.Format(row.Headers), "\n"), "\n") {
				if _, err := fmt.Fprintf(w, "\t%s\n", line); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
