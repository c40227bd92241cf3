package command

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dhruv3sood/finq/pkg/events"
	pktNats "github.com/Dhruv3sood/finq/pkg/nats"
)

// EventsCommand follows the JetStream mirror, so a second terminal can watch
// what a running client does.
type EventsCommand struct {
	*BaseCommand
	natsURL string
	filter  string
}

func NewEventsCommand(natsURL string) *EventsCommand {
	return &EventsCommand{
		BaseCommand: NewBaseCommand("events", "Follow client events mirrored to NATS", "events [-type TYPE]"),
		natsURL:     natsURL,
	}
}

func (c *EventsCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.filter, "type", "", "Only show one event type, e.g. CHAT_TURN")
}

func (c *EventsCommand) Execute(args []string, stdout, stderr io.Writer) error {
	if c.natsURL == "" {
		return errors.New("NATS_URL is not set; event mirroring is disabled")
	}
	sub, err := pktNats.NewSubscriber(c.natsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	subject := pktNats.StreamSubjects
	if c.filter != "" {
		subject = pktNats.Subject(c.filter)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := newConsole(stdout)
	out.println(muted(fmt.Sprintf("Following %s (Ctrl-C to stop)", subject)))
	return sub.Tail(ctx, subject, func(_ context.Context, ev events.BaseEvent) error {
		data, _ := json.Marshal(ev.Data)
		out.printf("%s %-18s %s\n", muted(ev.OccurredAt.Format("15:04:05.000")), label(ev.Type), string(data))
		return nil
	})
}
