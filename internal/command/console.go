package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Dhruv3sood/finq/pkg/events"
	"github.com/Dhruv3sood/finq/pkg/slide"

	"github.com/fatih/color"
)

var (
	heading = sprint(color.New(color.FgCyan, color.Bold))
	label   = sprint(color.New(color.FgYellow))
	muted   = sprint(color.New(color.FgHiBlack))
	success = sprint(color.New(color.FgGreen))
	failure = sprint(color.New(color.FgRed))
)

func sprint(c *color.Color) func(string) string {
	fn := c.SprintFunc()
	return func(s string) string { return fn(s) }
}

func slideStyle() slide.Style {
	return slide.Style{Heading: heading, Label: label, Muted: muted}
}

// console serializes writes from the prompt loop and the event narrator.
type console struct {
	mu sync.Mutex
	w  io.Writer
}

func newConsole(w io.Writer) *console {
	return &console{w: w}
}

func (c *console) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Write(p)
}

func (c *console) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(c, format, args...)
}

func (c *console) println(s string) {
	_, _ = fmt.Fprintln(c, s)
}

// prompt writes p and returns the next trimmed line, or false at EOF.
func prompt(c *console, in *bufio.Scanner, p string) (string, bool) {
	c.printf("%s", success(p))
	if !in.Scan() {
		return "", false
	}
	return strings.TrimSpace(in.Text()), true
}

// narrator prints upload stages and session failures as they are published.
type narrator struct {
	done    chan struct{}
	settled chan struct{}
}

func narrate(stream <-chan events.BaseEvent, out *console) *narrator {
	n := &narrator{done: make(chan struct{}), settled: make(chan struct{}, 1)}
	go func() {
		defer close(n.done)
		for ev := range stream {
			switch ev.Type {
			case events.TypeUploadStage:
				if ev.Bool("done") {
					out.printf("  %s %s\n", success("✓"), ev.String("label"))
					n.settle()
					continue
				}
				out.printf("  %s %s...\n", muted(fmt.Sprintf("[%d/%d]", ev.Int("index")+1, ev.Int("total"))), ev.String("label"))
			case events.TypeSessionFailed:
				out.printf("  %s %s\n", failure("✗"), slide.Sanitize(ev.String("error")))
				n.settle()
			}
		}
	}()
	return n
}

func (n *narrator) settle() {
	select {
	case n.settled <- struct{}{}:
	default:
	}
}

// reset forgets a settle signal left over from an earlier upload.
func (n *narrator) reset() {
	select {
	case <-n.settled:
	default:
	}
}

// wait gives the narrator up to d to print the outcome of an upload that has
// already returned, so the prompt does not interleave with it.
func (n *narrator) wait(d time.Duration) {
	select {
	case <-n.settled:
	case <-time.After(d):
	}
}

// subscribe starts narration for the lifetime of ctx.
func subscribe(ctx context.Context, bus *events.Bus, out *console) (*narrator, error) {
	stream, err := bus.Subscribe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to events: %w", err)
	}
	return narrate(stream, out), nil
}
