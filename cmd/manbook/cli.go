package main

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/canonical/manbook/internal/config"
	"github.com/canonical/manbook/internal/logging"
)

// Dependencies holds everything a command needs to run.
type Dependencies struct {
	Ctx      context.Context
	Stdout   io.Writer
	Stderr   io.Writer
	Terminal *os.File
	Config   *config.Config
	Logger   *slog.Logger
	// LogOut is the writer behind Logger. Commands that take over the
	// terminal hold it until they are done.
	LogOut *logging.HeldWriter
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config    string `help:"Path to the YAML config (default: $MANBOOK_CONFIG_FILE or ./manbook.yaml)" type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)" default:"info"`
	LogFormat string `help:"Log format (text, json)" default:"text" enum:"text,json"`

	Build BuildCmd `cmd:"" default:"withargs" help:"Build the man page document (default)"`
	List  ListCmd  `cmd:"" help:"Print the parsed package listing"`
	Page  PageCmd  `cmd:"" help:"Fetch one man page and print it as laid out in the document"`
}
