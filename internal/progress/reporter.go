package progress

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// Reporter renders counters until stopped. Reporters never influence the
// run; they only read the counters.
type Reporter interface {
	Start()
	Stop()
}

// Options configures New.
type Options struct {
	Mode     string // auto, tui, log, off
	Title    string
	Out      *os.File
	Logger   *slog.Logger
	Interval time.Duration
}

// ResolveMode turns "auto" into "tui" or "log" depending on whether out is
// a terminal.
func ResolveMode(mode string, out *os.File) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "auto":
		if out != nil && term.IsTerminal(int(out.Fd())) {
			return "tui", nil
		}
		return "log", nil
	case "tui":
		return "tui", nil
	case "log":
		return "log", nil
	case "off":
		return "off", nil
	default:
		return "", fmt.Errorf("invalid progress mode %q (expected auto|tui|log|off)", mode)
	}
}

// New builds the reporter for opts.Mode.
func New(counters *Counters, opts Options) (Reporter, error) {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	mode, err := ResolveMode(opts.Mode, opts.Out)
	if err != nil {
		return nil, err
	}
	switch mode {
	case "tui":
		return NewTUIReporter(counters, opts.Title, opts.Out, opts.Logger), nil
	case "log":
		return NewLogReporter(counters, opts.Logger, opts.Interval), nil
	default:
		return Nop{}, nil
	}
}

// Nop discards progress.
type Nop struct{}

func (Nop) Start() {}
func (Nop) Stop()  {}

// LogReporter writes a progress record at a fixed interval whenever the
// counters moved, plus a final record on Stop.
type LogReporter struct {
	counters *Counters
	logger   *slog.Logger
	interval time.Duration

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func NewLogReporter(counters *Counters, logger *slog.Logger, interval time.Duration) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &LogReporter{
		counters: counters,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (r *LogReporter) Start() {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		var last Snapshot
		for {
			select {
			case <-r.stop:
				r.log(r.counters.Snapshot())
				return
			case <-ticker.C:
				s := r.counters.Snapshot()
				if s != last {
					r.log(s)
					last = s
				}
			}
		}
	}()
}

// Stop is idempotent and waits for the final record.
func (r *LogReporter) Stop() {
	r.once.Do(func() { close(r.stop) })
	<-r.done
}

func (r *LogReporter) log(s Snapshot) {
	r.logger.Info("progress",
		"discovered", s.Discovered,
		"expected", s.Expected,
		"fetched", s.Fetched,
		"total", s.Total,
	)
}
