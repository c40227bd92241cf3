package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Dhruv3sood/finq/pkg/backend"
)

type HealthCommand struct {
	*BaseCommand
	targets map[string]*backend.Client
	timeout time.Duration
}

// NewHealthCommand pings every named backend.
func NewHealthCommand(targets map[string]*backend.Client) *HealthCommand {
	return &HealthCommand{
		BaseCommand: NewBaseCommand("health", "Check that the backends are reachable", "health"),
		targets:     targets,
		timeout:     10 * time.Second,
	}
}

func (c *HealthCommand) Execute(args []string, stdout, stderr io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	failed := 0
	for _, name := range []string{"chat", "slides"} {
		client, ok := c.targets[name]
		if !ok {
			continue
		}
		res, err := client.Health(ctx)
		if err != nil {
			failed++
			_, _ = fmt.Fprintf(stdout, "%s %-7s %s %s\n", failure("✗"), name, client.HealthURL, muted(backend.UserMessage(err)))
			continue
		}
		_, _ = fmt.Fprintf(stdout, "%s %-7s %s %s\n", success("✓"), name, client.HealthURL, muted(res.Status))
	}
	if failed > 0 {
		return errors.New("one or more backends are unreachable")
	}
	return nil
}
