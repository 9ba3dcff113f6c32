package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

type lineResult struct {
	line string
	err  error
}

// ConsoleConfirmer asks gate questions on a terminal.
type ConsoleConfirmer struct {
	in  *bufio.Reader
	out io.Writer
	// pending carries a read started by an earlier, cancelled prompt.
	pending chan lineResult
}

// NewConsoleConfirmer reads answers from in and writes prompts to out.
func NewConsoleConfirmer(in io.Reader, out io.Writer) *ConsoleConfirmer {
	return &ConsoleConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm prints message and reads one answer. An empty answer takes the
// default; end of input declines. It returns ctx's error as soon as ctx is
// done.
func (c *ConsoleConfirmer) Confirm(ctx context.Context, message string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	fmt.Fprintf(c.out, "\n%s %s %s: ", color.YellowString("?"), message, hint)

	line, err := c.readLine(ctx)
	if ctxErr := ctx.Err(); ctxErr != nil {
		fmt.Fprintln(c.out)
		return false, ctxErr
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(c.out)
		return false, nil
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (c *ConsoleConfirmer) readLine(ctx context.Context) (string, error) {
	if c.pending == nil {
		ch := make(chan lineResult, 1)
		go func() {
			line, err := c.in.ReadString('\n')
			ch <- lineResult{line: line, err: err}
		}()
		c.pending = ch
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-c.pending:
		c.pending = nil
		return res.line, res.err
	}
}
