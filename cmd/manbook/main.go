package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"

	"github.com/canonical/manbook/internal/config"
	"github.com/canonical/manbook/internal/logging"
	"github.com/canonical/manbook/internal/pipeline"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	m := NewMain()
	m.Terminal = os.Stdout
	err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "manbook:", err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps a run error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, pipeline.ErrInterrupted), errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

// Main represents the program.
type Main struct {
	// Terminal receives the interactive progress display. Nil disables
	// the terminal display in auto mode.
	Terminal *os.File
}

func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	exited := false
	parser, err := kong.New(cli,
		kong.Name("manbook"),
		kong.Description("Collect the man pages of every package in a catalog into one document."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) { exited = true }),
		kong.UsageOnError(),
	)
	if err != nil {
		return fmt.Errorf("create parser: %w", err)
	}

	kongCtx, err := parser.Parse(args)
	if exited {
		// --help was printed.
		return nil
	}
	if err != nil {
		return err
	}

	configPath, required := cli.Config, cli.Config != ""
	if configPath == "" {
		configPath = config.DefaultPath()
		required = os.Getenv("MANBOOK_CONFIG_FILE") != ""
	}
	cfg, err := config.Load(configPath, required)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	runID := uuid.NewString()
	logOut := logging.NewHeldWriter(stderr)
	logger := logging.BuildLogger(cli.LogLevel, cli.LogFormat, logOut).With(logging.KeyRunID, runID)

	deps := &Dependencies{
		Ctx:      ctx,
		Stdout:   stdout,
		Stderr:   stderr,
		Terminal: m.Terminal,
		Config:   cfg,
		Logger:   logger,
		LogOut:   logOut,
	}
	return kongCtx.Run(deps)
}
