package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Dhruv3sood/finq/internal/bootstrap"
	"github.com/Dhruv3sood/finq/internal/command"
	"github.com/Dhruv3sood/finq/internal/config"
	"github.com/Dhruv3sood/finq/internal/pkg/logger"
	"github.com/Dhruv3sood/finq/internal/tracer"
	"github.com/Dhruv3sood/finq/pkg/backend"
)

func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// the terminal belongs to the prompt; diagnostics go to the log file
	log.SetOutput(io.Discard)

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Logger & Tracer
	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer sysLogger.Sync()

	shutdownTracer := tracer.InitTracer(cfg.Tracing, "finq")
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(cfg, sysLogger)
	defer container.Close()

	// 4. Commands
	registry := command.NewRegistry()
	helpCmd := command.NewHelpCommand(registry)
	registry.Register(helpCmd)
	registry.Register(command.NewChatCommand(container, os.Stdin))
	registry.Register(command.NewSlidesCommand(container, os.Stdin))
	registry.Register(command.NewHealthCommand(map[string]*backend.Client{
		"chat":   container.ChatClient,
		"slides": container.SlidesClient,
	}))
	registry.Register(command.NewLogsCommand(sysLogger))
	registry.Register(command.NewEventsCommand(cfg.Events.NatsURL))

	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" {
		return helpCmd.Execute(nil, os.Stdout, os.Stderr)
	}

	cmd, err := registry.Get(os.Args[1])
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Use 'finq help' to see available commands.")
		return err
	}

	fs := flag.NewFlagSet(cmd.Name(), flag.ExitOnError)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: finq %s\n\n%s\n\nOptions:\n", cmd.Usage(), cmd.Description())
		fs.PrintDefaults()
	}
	cmd.SetupFlags(fs)
	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}

	return cmd.Execute(fs.Args(), os.Stdout, os.Stderr)
}
