package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smazurov/rodopt/cmd"
	"github.com/smazurov/rodopt/internal/api"
	"github.com/smazurov/rodopt/internal/config"
	"github.com/smazurov/rodopt/internal/events"
	"github.com/smazurov/rodopt/internal/logging"
	"github.com/smazurov/rodopt/internal/metrics"
	"github.com/smazurov/rodopt/internal/runstore"
	"github.com/smazurov/rodopt/internal/settings"
	"github.com/smazurov/rodopt/internal/supervisor"
	"github.com/smazurov/rodopt/internal/version"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"rodopt.toml"`

	// Server settings
	Port       string `help:"Port to listen on" short:"p" default:":8095" toml:"server.port" env:"SERVER_PORT"`
	CORSOrigin string `help:"Allowed CORS origin" default:"*" toml:"server.cors_origin" env:"SERVER_CORS_ORIGIN"`

	// Persistence
	SettingsFile string `help:"File remembering the last executable and study (default: user config dir)" default:"" toml:"settings.file" env:"SETTINGS_FILE"`
	JournalFile  string `help:"SQLite run journal, empty to disable" default:"rodopt.db" toml:"journal.file" env:"JOURNAL_FILE"`

	// Supervisor settings
	StatusInterval  string `help:"Process status check interval" default:"2s" toml:"supervisor.status_interval" env:"SUPERVISOR_STATUS_INTERVAL"`
	HistoryInterval string `help:"History file poll interval" default:"3s" toml:"supervisor.history_interval" env:"SUPERVISOR_HISTORY_INTERVAL"`
	RunDirInterval  string `help:"Run directory rescan interval" default:"5s" toml:"supervisor.run_dir_interval" env:"SUPERVISOR_RUN_DIR_INTERVAL"`
	GracefulTimeout string `help:"Time allowed for the optimizer to exit after SIGTERM" default:"1s" toml:"supervisor.graceful_timeout" env:"SUPERVISOR_GRACEFUL_TIMEOUT"`
	HistoryFile     string `help:"History file name inside the run directory" default:"DoE_history.csv" toml:"supervisor.history_file" env:"SUPERVISOR_HISTORY_FILE"`
	OutputLines     int    `help:"Optimizer output lines kept in memory" default:"1000" toml:"supervisor.output_lines" env:"SUPERVISOR_OUTPUT_LINES"`
	WatchStudy      bool   `help:"Reload the study when its file changes" default:"true" toml:"supervisor.watch_study" env:"SUPERVISOR_WATCH_STUDY"`

	// Observability settings
	MetricsEnabled bool `help:"Serve Prometheus metrics at /metrics" default:"true" toml:"metrics.enabled" env:"METRICS_ENABLED"`

	// Auth settings
	AuthUsername string `help:"Basic auth username, empty disables auth" default:"" toml:"auth.username" env:"AUTH_USERNAME"`
	AuthPassword string `help:"Basic auth password" default:"" toml:"auth.password" env:"AUTH_PASSWORD"`

	// Logging settings
	LoggingLevel      string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat     string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSupervisor string `help:"Supervisor logging level" default:"info" toml:"logging.supervisor" env:"LOGGING_SUPERVISOR"`
	LoggingHistory    string `help:"History ingestion logging level" default:"info" toml:"logging.history" env:"LOGGING_HISTORY"`
	LoggingProcess    string `help:"Optimizer process logging level" default:"info" toml:"logging.process" env:"LOGGING_PROCESS"`
	LoggingAPI        string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingHTTP       string `help:"HTTP request logging level" default:"info" toml:"logging.http" env:"LOGGING_HTTP"`
	LoggingConfig     string `help:"Config and study watcher logging level" default:"info" toml:"logging.config" env:"LOGGING_CONFIG"`
}

func parseDuration(logger *slog.Logger, name, value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		logger.Warn("Invalid duration, using default", "option", name, "value", value, "default", fallback)
		return fallback
	}
	return d
}

func main() {
	var cli humacli.CLI

	cli = humacli.New(func(hooks humacli.Hooks, opts *Options) {
		// Load configuration automatically, flags given on the command line win
		if loadErr := config.LoadConfig(opts, cli.Root()); loadErr != nil {
			slog.Warn("Failed to load config", "error", loadErr)
		}

		logging.Initialize(logging.Config{
			Level:  opts.LoggingLevel,
			Format: opts.LoggingFormat,
			Modules: map[string]string{
				"supervisor": opts.LoggingSupervisor,
				"history":    opts.LoggingHistory,
				"process":    opts.LoggingProcess,
				"api":        opts.LoggingAPI,
				"http":       opts.LoggingHTTP,
				"config":     opts.LoggingConfig,
			},
		})

		logger := logging.GetLogger("main")
		logger.Info("Starting", "version", version.Get().Banner())

		// Create event bus for in-process event handling
		eventBus := events.New()
		logging.SetLogCallback(func(entry logging.LogEntry) {
			eventBus.Publish(events.LogEntryEvent{
				Seq:        entry.Seq,
				Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
				Level:      entry.Level,
				Module:     entry.Module,
				Message:    entry.Message,
				Attributes: entry.Attributes,
			})
		})

		settingsPath := opts.SettingsFile
		if settingsPath == "" {
			settingsPath = settings.DefaultPath()
		}
		settingsStore := settings.NewTOML(settingsPath)
		if loadErr := settingsStore.Load(); loadErr != nil {
			logger.Warn("Failed to load settings, starting without remembered paths", "path", settingsPath, "error", loadErr)
		}

		var journal *runstore.Store
		if opts.JournalFile != "" {
			var openErr error
			journal, openErr = runstore.New(opts.JournalFile)
			if openErr != nil {
				logger.Warn("Failed to open run journal, runs will not be recorded", "path", opts.JournalFile, "error", openErr)
				journal = nil
			}
		}

		supCfg := supervisor.DefaultConfig()
		supCfg.StatusInterval = parseDuration(logger, "status-interval", opts.StatusInterval, supCfg.StatusInterval)
		supCfg.HistoryInterval = parseDuration(logger, "history-interval", opts.HistoryInterval, supCfg.HistoryInterval)
		supCfg.RunDirInterval = parseDuration(logger, "run-dir-interval", opts.RunDirInterval, supCfg.RunDirInterval)
		supCfg.GracefulTimeout = parseDuration(logger, "graceful-timeout", opts.GracefulTimeout, supCfg.GracefulTimeout)
		supCfg.HistoryFileName = opts.HistoryFile
		supCfg.OutputLines = opts.OutputLines

		supOpts := []supervisor.Option{
			supervisor.WithBus(eventBus),
			supervisor.WithSettings(settingsStore),
			supervisor.WithLogger(logging.GetLogger("supervisor")),
		}
		if journal != nil {
			supOpts = append(supOpts, supervisor.WithJournal(journal))
		}
		sup := supervisor.New(supCfg, supOpts...)

		var detachMetrics func()
		apiOpts := &api.Options{
			AuthUsername: opts.AuthUsername,
			AuthPassword: opts.AuthPassword,
			CORSOrigin:   opts.CORSOrigin,
			Runs:         sup,
			EventBus:     eventBus,
		}
		if journal != nil {
			apiOpts.Journal = journal
		}
		if opts.MetricsEnabled {
			detachMetrics = metrics.Attach(eventBus)
			apiOpts.PrometheusHandler = promhttp.Handler()
		}

		server := api.NewServer(apiOpts)

		// Follow the current study file so edits are picked up without a restart
		var follower *config.StudyFollower
		var unfollow func()
		if opts.WatchStudy {
			follower = config.NewStudyFollower(sup, logging.GetLogger("config"))
			if followErr := follower.Follow(sup.StudyPath()); followErr != nil {
				logger.Warn("Failed to watch study", "path", sup.StudyPath(), "error", followErr)
			}
			unfollow = eventBus.Subscribe(func(e events.StudyChangedEvent) {
				if followErr := follower.Follow(e.Path); followErr != nil {
					logger.Warn("Failed to watch study", "path", e.Path, "error", followErr)
				}
			})
		}

		ctx, cancel := context.WithCancel(context.Background())
		loopDone := make(chan struct{})

		hooks.OnStart(func() {
			go func() {
				defer close(loopDone)
				if runErr := sup.Run(ctx); runErr != nil {
					logger.Error("Failed to stop optimizer on shutdown", "error", runErr)
				}
			}()

			logger.Info("Starting HTTP server", "port", opts.Port)
			if startErr := server.Start(opts.Port); startErr != nil && !errors.Is(startErr, http.ErrServerClosed) {
				logger.Error("Failed to start HTTP server", "error", startErr)
				os.Exit(1)
			}
		})

		hooks.OnStop(func() {
			logger.Info("Shutting down server")
			if stopErr := server.Stop(); stopErr != nil {
				logger.Error("Error stopping HTTP server", "error", stopErr)
			}

			// Stop the optimizer after the API stops accepting requests
			cancel()
			select {
			case <-loopDone:
			case <-time.After(supCfg.GracefulTimeout + supCfg.KillTimeout + time.Second):
				logger.Warn("Supervisor did not stop in time")
			}

			if unfollow != nil {
				unfollow()
			}
			if follower != nil {
				follower.Stop()
			}
			if detachMetrics != nil {
				detachMetrics()
			}
			if journal != nil {
				if closeErr := journal.Close(); closeErr != nil {
					logger.Warn("Error closing run journal", "error", closeErr)
				}
			}
		})
	})

	cli.Root().Use = version.Name
	cli.Root().Version = version.Get().Banner()

	cli.Root().AddCommand(cmd.CreateRunCmd())
	cli.Root().AddCommand(cmd.CreateHistoryCmd())
	cli.Root().AddCommand(cmd.CreateRunsCmd())

	// Run the CLI
	cli.Run()
}
