package command

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/Dhruv3sood/finq/internal/pkg/logger"
)

type LogsCommand struct {
	*BaseCommand
	reader logger.LogReader
	level  string
	limit  int
}

func NewLogsCommand(reader logger.LogReader) *LogsCommand {
	return &LogsCommand{
		BaseCommand: NewBaseCommand("logs", "Show recent client log entries", "logs [-level L] [-limit N]"),
		reader:      reader,
	}
}

func (c *LogsCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.level, "level", "", "Only show entries at this level (debug, info, warn, error)")
	fs.IntVar(&c.limit, "limit", 50, "Maximum number of entries")
}

func (c *LogsCommand) Execute(args []string, stdout, stderr io.Writer) error {
	entries, err := c.reader.GetLogs(c.level, c.limit)
	if err != nil {
		return fmt.Errorf("failed to read logs: %w", err)
	}
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(stdout, muted("No log entries."))
		return nil
	}

	for _, e := range entries {
		lvl := e.Level
		switch strings.ToLower(lvl) {
		case "error":
			lvl = failure(lvl)
		case "warn":
			lvl = label(lvl)
		}
		_, _ = fmt.Fprintf(stdout, "%s %-5s [%s] %s", muted(e.Timestamp), lvl, e.Module, e.Message)
		if len(e.Details) > 0 {
			if details, err := json.Marshal(e.Details); err == nil {
				_, _ = fmt.Fprintf(stdout, " %s", muted(string(details)))
			}
		}
		_, _ = fmt.Fprintln(stdout)
	}
	return nil
}
