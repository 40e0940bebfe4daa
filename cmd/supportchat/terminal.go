package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wolfman30/connectcom-support/internal/chat"
)

const loginHint = "Authentication required. Log in to the portal and pass --token."

// terminal renders a controller's transcript as lines of text and feeds it
// lines read from in.
type terminal struct {
	ctrl    *chat.Controller
	in      *bufio.Scanner
	out     io.Writer
	printed int
}

func newTerminal(ctrl *chat.Controller, in io.Reader, out io.Writer) *terminal {
	return &terminal{ctrl: ctrl, in: bufio.NewScanner(in), out: out}
}

func (t *terminal) run(ctx context.Context) error {
	t.render()
	for {
		fmt.Fprint(t.out, "> ")
		if !t.in.Scan() {
			fmt.Fprintln(t.out)
			return t.in.Err()
		}
		if ctx.Err() != nil {
			return nil
		}
		if quit := t.handle(ctx, strings.TrimSpace(t.in.Text())); quit {
			return nil
		}
	}
}

// handle processes one input line and reports whether to exit.
func (t *terminal) handle(ctx context.Context, line string) bool {
	switch line {
	case "":
		return false
	case "/quit", "/exit":
		return true
	case "/reset":
		t.ctrl.Reset()
		t.printed = 0
		t.render()
		return false
	}

	var err error
	if t.isOptionKey(line) {
		err = t.ctrl.SelectKey(ctx, line)
	} else {
		err = t.ctrl.Submit(ctx, line)
	}
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrAuthenticationRequired):
		fmt.Fprintln(t.out, loginHint)
	default:
		fmt.Fprintf(t.out, "! %v\n", err)
	}
	t.render()
	return false
}

func (t *terminal) isOptionKey(line string) bool {
	for _, opt := range t.ctrl.Options() {
		if opt.Key == line {
			return true
		}
	}
	return false
}

// render prints turns not yet shown, then the banner and menu.
func (t *terminal) render() {
	snap := t.ctrl.Snapshot()
	for _, turn := range snap.Turns[t.printed:] {
		if turn.Sender == chat.SenderUser {
			continue
		}
		fmt.Fprintf(t.out, "support: %s\n", turn.Text)
		if turn.IsEnd {
			fmt.Fprintln(t.out, "(a human agent has been requested)")
		}
	}
	t.printed = len(snap.Turns)
	if snap.Error != "" {
		fmt.Fprintf(t.out, "! %s\n", snap.Error)
		t.ctrl.DismissError()
	}
	for _, opt := range snap.Options {
		fmt.Fprintf(t.out, "  [%s] %s\n", opt.Key, opt.Label)
	}
}
