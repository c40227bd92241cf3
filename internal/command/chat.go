package command

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dhruv3sood/finq/internal/bootstrap"
	"github.com/Dhruv3sood/finq/pkg/backend"
	"github.com/Dhruv3sood/finq/pkg/chat"
	"github.com/Dhruv3sood/finq/pkg/slide"
	"github.com/Dhruv3sood/finq/pkg/upload"
)

const settleTimeout = 500 * time.Millisecond

type ChatCommand struct {
	*BaseCommand
	container *bootstrap.Container
	in        io.Reader

	balanceSheet   string
	companyProfile string
}

func NewChatCommand(container *bootstrap.Container, in io.Reader) *ChatCommand {
	return &ChatCommand{
		BaseCommand: NewBaseCommand(
			"chat",
			"Upload documents and ask questions about them",
			"chat -balance-sheet FILE [-company-profile FILE]",
		),
		container: container,
		in:        in,
	}
}

func (c *ChatCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.balanceSheet, "balance-sheet", "", "Balance sheet (.txt, .csv, .text, .pdf, .xlsx)")
	fs.StringVar(&c.companyProfile, "company-profile", "", "Optional company profile")
}

func (c *ChatCommand) Execute(args []string, stdout, stderr io.Writer) error {
	out := newConsole(stdout)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	n, err := subscribe(ctx, c.container.Bus, out)
	if err != nil {
		return err
	}

	if err := c.upload(ctx, out, n); err != nil {
		return err
	}

	svc := c.container.ChatService
	in := bufio.NewScanner(c.in)
	out.println(muted("Commands: /history, /reset, /upload, /quit"))
	for {
		line, ok := prompt(out, in, "\nyou> ")
		if !ok {
			return nil
		}
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/history":
			turns, err := svc.Transcript()
			if err != nil {
				out.println(failure(err.Error()))
				continue
			}
			for _, t := range turns {
				printTurn(out, t)
			}
			continue
		case "/reset":
			svc.Reset()
			out.println(muted("Session cleared. Use /upload to start again."))
			continue
		case "/upload":
			if err := c.upload(ctx, out, n); err != nil {
				out.println(failure(err.Error()))
			}
			continue
		}

		turn, err := svc.Ask(ctx, line)
		if turn.ID == "" {
			// nothing was appended
			out.println(failure(friendly(err)))
			continue
		}
		printTurn(out, turn)
	}
}

func (c *ChatCommand) upload(ctx context.Context, out *console, n *narrator) error {
	if c.balanceSheet == "" {
		return errors.New("-balance-sheet is required")
	}
	balanceSheet, err := upload.LoadFile(c.balanceSheet)
	if err != nil {
		return err
	}
	var profile *upload.File
	if c.companyProfile != "" {
		if profile, err = upload.LoadFile(c.companyProfile); err != nil {
			return err
		}
	}

	out.println(heading("Processing documents"))
	n.reset()
	res, err := c.container.ChatService.Upload(ctx, balanceSheet, profile)
	n.wait(settleTimeout)
	if err != nil {
		return fmt.Errorf("upload failed: %s", uploadMessage(err))
	}
	out.printf("%s\n", muted(fmt.Sprintf("Indexed %d chunks across %d sections.", res.ChunksCount, res.SectionsCount)))

	if turns, err := c.container.ChatService.Transcript(); err == nil {
		for _, t := range turns {
			printTurn(out, t)
		}
	}
	return nil
}

// uploadMessage is validation text or the backend's own words.
func uploadMessage(err error) string {
	var rejected *upload.Failure
	if errors.As(err, &rejected) {
		return rejected.Message
	}
	return err.Error()
}

func printTurn(out *console, t chat.Turn) {
	content := slide.Sanitize(t.Content)
	if t.Role == chat.RoleUser {
		out.printf("%s %s\n", label("you:"), content)
		return
	}
	if t.Failed {
		out.printf("%s %s\n", failure("assistant:"), content)
		return
	}
	out.printf("%s %s\n", heading("assistant:"), content)

	m := t.Metadata
	if m == nil {
		return
	}
	var parts []string
	if len(m.Citations) > 0 {
		cites := make([]string, len(m.Citations))
		for i, c := range m.Citations {
			cites[i] = slide.Sanitize(c)
		}
		parts = append(parts, "sources: "+strings.Join(cites, ", "))
	}
	if m.Grounded {
		parts = append(parts, success("grounded"))
	}
	if m.Pipeline != "" {
		parts = append(parts, "pipeline: "+slide.Sanitize(m.Pipeline))
	}
	if m.RouteInfo != nil && m.RouteInfo.Type != "" {
		parts = append(parts, "route: "+slide.Sanitize(m.RouteInfo.Type))
	}
	if m.WebSearchUsed {
		parts = append(parts, "web search")
	}
	if len(parts) > 0 {
		out.printf("  %s\n", muted(strings.Join(parts, " | ")))
	}
}

// friendly renders any service error for the prompt loop: backend failures
// through the user-facing message, local preconditions as they are.
func friendly(err error) string {
	if backend.Remote(err) {
		return backend.UserMessage(err)
	}
	return err.Error()
}
