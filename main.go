// Package main is the entry point for the labsync simulator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/log"

	"github.com/billie-coop/labsync/internal/config"
	"github.com/billie-coop/labsync/internal/policy"
	"github.com/billie-coop/labsync/internal/sim"
	"github.com/billie-coop/labsync/internal/tui"
	"github.com/billie-coop/labsync/internal/tui/styles"
)

// options are the command line overrides
type options struct {
	dir      string
	workload string
	fair     bool
	duration time.Duration
	capacity int
	seed     uint64
	plain    bool
	report   bool
	debug    bool

	// set records which flags were given explicitly
	set map[string]bool
}

func main() {
	opts := options{set: make(map[string]bool)}
	flag.StringVar(&opts.dir, "dir", ".", "project directory holding .labsync/config.json")
	flag.StringVar(&opts.workload, "workload", "", "workload preset: light or heavy")
	flag.BoolVar(&opts.fair, "fair", false, "serve policy readers and writers in strict arrival order")
	flag.DurationVar(&opts.duration, "duration", 0, "how long to run, e.g. 10s")
	flag.IntVar(&opts.capacity, "capacity", 0, "order channel capacity")
	flag.Uint64Var(&opts.seed, "seed", 0, "seed for generated orders, 0 for random")
	flag.BoolVar(&opts.plain, "plain", false, "narrate events as log lines instead of the dashboard")
	flag.BoolVar(&opts.report, "report", true, "print the markdown report when the run ends")
	flag.BoolVar(&opts.debug, "debug", false, "log at debug level")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "labsync",
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts, logger); err != nil {
		logger.Error("labsync failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, logger *log.Logger) error {
	cfgManager := config.NewManager(opts.dir)
	if err := cfgManager.Load(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Flags override the file for this run only
	cfg := *cfgManager.Get()
	applyFlags(&cfg, opts)

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	if opts.debug {
		level = log.DebugLevel
	}
	logger.SetLevel(level)

	themes := styles.NewManager(cfg.Theme)
	if themes.Current().Name != cfg.Theme {
		logger.Warn("unknown theme, using default", "theme", cfg.Theme, "available", themes.List())
	}
	styles.SetDefaultManager(themes)

	workload, err := cfg.Resolve()
	if err != nil {
		return err
	}

	var stats sim.Stats
	if opts.plain {
		stats, err = runPlain(ctx, workload, cfg, logger)
	} else {
		stats, err = runDashboard(workload, cfg, logger, cfgManager.Path())
	}
	if err != nil {
		return err
	}

	if opts.report {
		width := 100
		fmt.Println(styles.RenderMarkdown(sim.Report(stats), width))
	}
	return nil
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.set["workload"] {
		cfg.Workload = opts.workload
	}
	if opts.set["fair"] {
		cfg.Fairness = policy.WriterPriority
		if opts.fair {
			cfg.Fairness = policy.StrictFair
		}
	}
	if opts.set["duration"] {
		cfg.Duration = config.Duration(opts.duration)
	}
	if opts.set["capacity"] {
		cfg.Capacity = opts.capacity
	}
	if opts.set["seed"] {
		cfg.Seed = opts.seed
	}
}

// runPlain narrates every event as a structured log line
func runPlain(ctx context.Context, w config.Workload, cfg config.Config, logger *log.Logger) (sim.Stats, error) {
	broker := sim.NewBroker(1024)
	runner, err := sim.New(w, cfg.Fairness,
		sim.WithLogger(logger),
		sim.WithBroker(broker),
		sim.WithSeed(cfg.Seed))
	if err != nil {
		return sim.Stats{}, err
	}

	banner := lipgloss.NewStyle().Bold(true).Foreground(styles.CurrentTheme().Primary)
	fmt.Fprintln(os.Stderr, banner.Render(fmt.Sprintf("labsync %s · %s workload · %s", runner.ID(), w.Name, cfg.Fairness)))

	events := broker.Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range events {
			narrate(logger, e)
		}
	}()

	stats, err := runner.Run(ctx)
	broker.Close()
	<-done

	if dropped := broker.Dropped(); dropped > 0 {
		logger.Warn("narration fell behind", "dropped", dropped)
	}
	return stats, err
}

// narrate logs one event with its payload as key-value pairs
func narrate(logger *log.Logger, e sim.Event) {
	kv := []any{"event", e.Type}
	if e.Worker != "" {
		kv = append(kv, "worker", e.Worker)
	}

	switch p := e.Payload.(type) {
	case sim.OrderPayload:
		kv = append(kv, "order", p.Order.ID, "kind", p.Order.Kind, "patient", p.Order.Patient)
		switch e.Type {
		case sim.OrderQueuedEvent:
			kv = append(kv, "queue", fmt.Sprintf("%d/%d", p.QueueLen, p.Capacity))
		case sim.OrderProcessingEvent:
			kv = append(kv, "wait", p.Wait.Round(time.Millisecond), "queued", p.QueueTime.Round(time.Millisecond))
		}
	case sim.PolicyPayload:
		kv = append(kv, "policy", p.Value, "readers", p.Readers)
		if p.WritersWaiting > 0 {
			kv = append(kv, "writers_waiting", p.WritersWaiting)
		}
	case sim.WorkerPayload:
		kv = append(kv, "role", p.Role, "reason", p.Reason)
		if p.Failed {
			logger.Error("worker failed", kv...)
			return
		}
	case sim.RunPayload:
		// run start and stop are logged by the runner itself
		return
	}

	if e.Type == sim.OrderCreatedEvent {
		logger.Debug("order created", kv...)
		return
	}
	logger.Info(e.String(), kv...)
}

// runDashboard runs the simulation under the live dashboard. Log output
// goes to a file next to the config so it does not tear the screen.
func runDashboard(w config.Workload, cfg config.Config, logger *log.Logger, cfgPath string) (sim.Stats, error) {
	var out io.Writer = io.Discard
	logPath := filepath.Join(filepath.Dir(cfgPath), "labsync.log")
	if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
		defer f.Close()
		out = f
	} else {
		logger.Warn("run log disabled", "path", logPath, "err", err)
	}
	fileLogger := log.NewWithOptions(out, log.Options{
		Prefix:          "labsync",
		ReportTimestamp: true,
		Level:           logger.GetLevel(),
	})

	runner, err := sim.New(w, cfg.Fairness,
		sim.WithLogger(fileLogger),
		sim.WithSeed(cfg.Seed))
	if err != nil {
		return sim.Stats{}, err
	}

	m := tui.New(runner)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		runner.Stop()
		return sim.Stats{}, fmt.Errorf("dashboard: %w", err)
	}
	if !m.Done() {
		return sim.Stats{}, errors.New("dashboard closed before the run finished")
	}
	return m.Result()
}
