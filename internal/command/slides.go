package command

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Dhruv3sood/finq/internal/bootstrap"
	"github.com/Dhruv3sood/finq/pkg/generation"
	"github.com/Dhruv3sood/finq/pkg/selection"
	"github.com/Dhruv3sood/finq/pkg/slide"
	"github.com/Dhruv3sood/finq/pkg/upload"
)

type SlidesCommand struct {
	*BaseCommand
	container *bootstrap.Container
	in        io.Reader

	balanceSheet   string
	companyProfile string
	template       string
	theme          string
	out            string
}

func NewSlidesCommand(container *bootstrap.Container, in io.Reader) *SlidesCommand {
	return &SlidesCommand{
		BaseCommand: NewBaseCommand(
			"slides",
			"Upload documents and generate a presentation",
			"slides -balance-sheet FILE -company-profile FILE [-template T] [-theme C] [-out deck.pptx]",
		),
		container: container,
		in:        in,
	}
}

func (c *SlidesCommand) SetupFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.balanceSheet, "balance-sheet", "", "Balance sheet (.txt, .csv, .text, .pdf, .xlsx)")
	fs.StringVar(&c.companyProfile, "company-profile", "", "Company profile")
	fs.StringVar(&c.template, "template", selection.DefaultTemplate, "Presentation template")
	fs.StringVar(&c.theme, "theme", selection.DefaultTheme, "Color theme")
	fs.StringVar(&c.out, "out", "", "Where download saves the deck (defaults to the server's filename)")
}

func (c *SlidesCommand) Execute(args []string, stdout, stderr io.Writer) error {
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

	in := bufio.NewScanner(c.in)
	out.println(muted("Commands: list, toggle <type>, generate, preview, download [path], reset, upload, quit"))
	for {
		line, ok := prompt(out, in, "\nslides> ")
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return nil
		case "list":
			c.list(out)
		case "toggle":
			if len(fields) < 2 {
				out.println(failure("usage: toggle <type>"))
				continue
			}
			for _, kind := range fields[1:] {
				if _, err := c.container.PresentationService.Toggle(kind); err != nil {
					out.println(failure(friendly(err)))
				}
			}
			c.list(out)
		case "generate":
			c.generate(ctx, out)
		case "preview":
			deck, err := c.container.PresentationService.Preview(ctx)
			if err != nil {
				out.println(failure(friendly(err)))
				continue
			}
			c.render(out, deck)
		case "download":
			path := c.out
			if len(fields) > 1 {
				path = fields[1]
			}
			c.download(ctx, out, path)
		case "reset":
			c.container.PresentationService.Reset()
			out.println(muted("Session cleared. Use upload to start again."))
		case "upload":
			if err := c.upload(ctx, out, n); err != nil {
				out.println(failure(err.Error()))
			}
		default:
			out.println(failure(fmt.Sprintf("unknown command: %s", fields[0])))
		}
	}
}

func (c *SlidesCommand) upload(ctx context.Context, out *console, n *narrator) error {
	if c.balanceSheet == "" || c.companyProfile == "" {
		return errors.New("-balance-sheet and -company-profile are both required")
	}
	balanceSheet, err := upload.LoadFile(c.balanceSheet)
	if err != nil {
		return err
	}
	profile, err := upload.LoadFile(c.companyProfile)
	if err != nil {
		return err
	}

	svc := c.container.PresentationService
	out.println(heading("Processing documents"))
	n.reset()
	_, err = svc.Upload(ctx, balanceSheet, profile)
	n.wait(settleTimeout)
	if err != nil {
		return fmt.Errorf("upload failed: %s", uploadMessage(err))
	}

	if svc.LoadRecommendations(ctx) {
		out.println(muted("Selection updated with recommended slides."))
	}
	c.list(out)
	return nil
}

func (c *SlidesCommand) list(out *console) {
	view, err := c.container.PresentationService.View()
	if err != nil {
		out.println(failure(friendly(err)))
		return
	}
	sel := view.Selection
	out.printf("%s %s\n", heading("Slides"), muted(fmt.Sprintf("(%d selected, %s)", len(sel.Slides), sel.Source)))
	for _, k := range slide.Catalog {
		mark := "[ ]"
		if sel.Contains(k) {
			mark = success("[x]")
		}
		out.printf("  %s %-18s %s\n", mark, string(k), muted(k.Label()))
	}
	if len(sel.Slides) == 0 {
		out.println(failure("Select at least one slide to generate."))
	}
}

func (c *SlidesCommand) generate(ctx context.Context, out *console) {
	svc := c.container.PresentationService
	if !svc.CanGenerate() {
		out.println(failure(selection.ErrEmptySelection.Error()))
		return
	}
	out.println(muted("Generating presentation..."))
	deck, err := svc.Generate(ctx, c.template, c.theme)
	if err != nil {
		out.println(failure(friendly(err)))
		return
	}
	c.render(out, deck)
}

func (c *SlidesCommand) render(out *console, deck generation.Deck) {
	r := slide.NewRenderer(slideStyle())
	if err := r.RenderDeck(out, deck.Slides, deck.Metadata); err != nil {
		out.println(failure(err.Error()))
	}
}

func (c *SlidesCommand) download(ctx context.Context, out *console, path string) {
	artifact, err := c.container.PresentationService.Download(ctx)
	if err != nil {
		out.println(failure(friendly(err)))
		return
	}
	if path == "" {
		path = filepath.Base(artifact.Filename)
	}
	if path == "" || path == "." {
		path = "presentation.pptx"
	}
	if err := os.WriteFile(path, artifact.Data, 0o644); err != nil {
		out.println(failure(fmt.Sprintf("failed to save deck: %v", err)))
		return
	}
	out.printf("%s %s (%d bytes)\n", success("Saved"), path, len(artifact.Data))
}
