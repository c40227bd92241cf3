package command

import (
	"flag"
	"fmt"
	"io"
	"sort"
)

// Command is one finq subcommand.
type Command interface {
	Name() string
	Description() string
	Usage() string
	SetupFlags(fs *flag.FlagSet)
	// Execute runs with the arguments left after flag parsing.
	Execute(args []string, stdout, stderr io.Writer) error
}

type BaseCommand struct {
	name        string
	description string
	usage       string
}

func NewBaseCommand(name, description, usage string) *BaseCommand {
	return &BaseCommand{
		name:        name,
		description: description,
		usage:       usage,
	}
}

func (c *BaseCommand) Name() string        { return c.name }
func (c *BaseCommand) Description() string { return c.description }
func (c *BaseCommand) Usage() string       { return c.usage }

func (c *BaseCommand) SetupFlags(fs *flag.FlagSet) {}

type Registry struct {
	commands map[string]Command
}

func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Command)}
}

func (r *Registry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

func (r *Registry) Get(name string) (Command, error) {
	cmd, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("command not found: %s", name)
	}
	return cmd, nil
}

func (r *Registry) List() []Command {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Command, len(names))
	for i, name := range names {
		out[i] = r.commands[name]
	}
	return out
}

type HelpCommand struct {
	*BaseCommand
	registry *Registry
}

func NewHelpCommand(registry *Registry) *HelpCommand {
	return &HelpCommand{
		BaseCommand: NewBaseCommand("help", "Show available commands", "help"),
		registry:    registry,
	}
}

func (c *HelpCommand) Execute(args []string, stdout, stderr io.Writer) error {
	_, _ = fmt.Fprintln(stdout, heading("finq: chat with your financial documents or turn them into a deck"))
	_, _ = fmt.Fprintln(stdout)
	for _, cmd := range c.registry.List() {
		_, _ = fmt.Fprintf(stdout, "  %-8s %s\n", cmd.Name(), cmd.Description())
		_, _ = fmt.Fprintf(stdout, "           %s\n", muted("finq "+cmd.Usage()))
	}
	return nil
}
