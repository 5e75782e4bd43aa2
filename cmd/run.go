package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/smazurov/rodopt/internal/config"
	"github.com/smazurov/rodopt/internal/events"
	"github.com/smazurov/rodopt/internal/logging"
	"github.com/smazurov/rodopt/internal/report"
	"github.com/smazurov/rodopt/internal/runstore"
	"github.com/smazurov/rodopt/internal/settings"
	"github.com/smazurov/rodopt/internal/supervisor"
	"github.com/spf13/cobra"
)

// runOptions are the headless run settings. Field names match the flag
// names so config.LoadConfig leaves explicit flags alone.
type runOptions struct {
	Config          string
	Executable      string        `toml:"run.executable" env:"RUN_EXECUTABLE"`
	Study           string        `toml:"run.study" env:"RUN_STUDY"`
	Journal         string        `toml:"journal.file" env:"JOURNAL_FILE"`
	StatusInterval  time.Duration `toml:"supervisor.status_interval" env:"SUPERVISOR_STATUS_INTERVAL"`
	HistoryInterval time.Duration `toml:"supervisor.history_interval" env:"SUPERVISOR_HISTORY_INTERVAL"`
	GracefulTimeout time.Duration `toml:"supervisor.graceful_timeout" env:"SUPERVISOR_GRACEFUL_TIMEOUT"`
	Quiet           bool
	LogJSON         bool
}

// CreateRunCmd creates the run command.
func CreateRunCmd() *cobra.Command {
	opts := runOptions{}
	def := supervisor.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one optimization without the HTTP server",
		Long: `Starts the optimizer on a study, follows its run directory and history file, ` +
			`and prints the evaluated designs when it exits. Interrupting the command stops the optimizer. ` +
			`The command exits with the optimizer's exit code, 128+N when signal N killed it, ` +
			`or 2 when the executable or study is invalid.`,
		Args: cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := config.LoadConfig(&opts, cmd); err != nil {
				fmt.Fprintln(os.Stderr, "Failed to load config:", err)
			}

			loggingConfig := config.LoadLoggingConfig(opts.Config)
			if opts.LogJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("run")

			os.Exit(runHeadless(opts, def, logger))
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "rodopt.toml", "Path to configuration file")
	cmd.Flags().StringVarP(&opts.Executable, "executable", "e", "", "Optimizer executable")
	cmd.Flags().StringVarP(&opts.Study, "study", "s", "", "Study configuration passed to the optimizer")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "SQLite run journal to record the run in")
	cmd.Flags().DurationVar(&opts.StatusInterval, "status-interval", def.StatusInterval, "Process status check interval")
	cmd.Flags().DurationVar(&opts.HistoryInterval, "history-interval", def.HistoryInterval, "History file poll interval")
	cmd.Flags().DurationVar(&opts.GracefulTimeout, "graceful-timeout", def.GracefulTimeout, "Time allowed for the optimizer to exit after SIGTERM")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Do not echo optimizer output")
	cmd.Flags().BoolVar(&opts.LogJSON, "log-json", false, "Log in JSON format")

	return cmd
}

func runHeadless(opts runOptions, cfg supervisor.Config, logger *slog.Logger) int {
	cfg.StatusInterval = opts.StatusInterval
	cfg.HistoryInterval = opts.HistoryInterval
	cfg.GracefulTimeout = opts.GracefulTimeout

	bus := events.New()
	supOpts := []supervisor.Option{
		supervisor.WithBus(bus),
		supervisor.WithSettings(settings.NewMemory()),
		supervisor.WithLogger(logging.GetLogger("supervisor")),
	}
	if opts.Journal != "" {
		journal, err := runstore.New(opts.Journal)
		if err != nil {
			logger.Error("Failed to open run journal", "path", opts.Journal, "error", err)
			return 1
		}
		defer journal.Close()
		supOpts = append(supOpts, supervisor.WithJournal(journal))
	}
	sup := supervisor.New(cfg, supOpts...)

	stopped := make(chan events.RunStateChangedEvent, 1)
	defer bus.Subscribe(func(e events.RunStateChangedEvent) {
		if e.State != string(supervisor.StateStopped) {
			return
		}
		select {
		case stopped <- e:
		default:
		}
	})()
	defer bus.Subscribe(func(e events.RunDirectoryChangedEvent) {
		if e.Path != "" {
			logger.Info("Run directory found", "path", e.Path)
		}
	})()
	if !opts.Quiet {
		defer bus.Subscribe(func(e events.ProcessOutputEvent) {
			fmt.Println(e.Line)
		})()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		if err := sup.Run(loopCtx); err != nil {
			logger.Error("Failed to stop optimizer", "error", err)
		}
	}()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	if err := sup.Start(opts.Executable, opts.Study); err != nil {
		logger.Error("Failed to start optimizer", "error", err)
		if errors.Is(err, supervisor.ErrInvalidInput) {
			return 2
		}
		return 1
	}

	select {
	case <-stopped:
	case <-ctx.Done():
		logger.Warn("Interrupted, stopping optimizer")
		if err := sup.Stop(); err != nil {
			logger.Error("Failed to stop optimizer", "error", err)
		}
	}

	status := sup.Status()
	view := sup.History()
	columns := view.VisibleColumns
	feasibility := -1
	if view.Snapshot != nil {
		feasibility = len(view.Snapshot.Header) - 1
	}
	fmt.Println(report.HistoryTable(view.Snapshot, view.Analysis, report.HistoryOptions{
		Columns:           columns,
		FeasibilityColumn: feasibility,
	}))
	fmt.Println(report.Summary(view.Snapshot, view.Analysis))

	logger.Info("Run finished", "reason", status.StopReason, "exit_code", status.ExitCode, "signal", status.Signal)
	return exitStatus(status)
}

// exitStatus maps a finished run to a shell exit status: the optimizer's
// own code, 128+signal when a signal killed it, and 1 otherwise.
func exitStatus(status supervisor.Status) int {
	switch {
	case status.ExitCode != nil:
		return *status.ExitCode
	case status.Signal > 0:
		return 128 + status.Signal
	default:
		return 1
	}
}
