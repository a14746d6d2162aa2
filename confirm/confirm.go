// Package confirm provides the confirmation gate destructive operations pass
// through before executing. Gates are injected so interactive prompts can be
// swapped for fixed answers in automation and tests.
package confirm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirmer answers yes/no questions guarding destructive operations.
// A false answer means the operation must not run; it is not an error.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// StdinConfirmer asks the question on Out and reads a single line from In.
// Only the exact word "yes" (case insensitive, surrounding whitespace
// ignored) confirms; anything else, including "y", an empty line or EOF,
// declines. EOF is a decline, not an error, so piped input that runs dry
// fails safe.
type StdinConfirmer struct {
	In  io.Reader
	Out io.Writer
}

// NewStdinConfirmer returns a StdinConfirmer bound to os.Stdin / os.Stdout.
func NewStdinConfirmer() *StdinConfirmer {
	return &StdinConfirmer{In: os.Stdin, Out: os.Stdout}
}

// Confirm implements Confirmer.
func (c *StdinConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	in := c.In
	if in == nil {
		in = os.Stdin
	}
	out := c.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintf(out, "%s (yes/no): ", prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "yes"), nil
}

// Static returns a Confirmer that always answers the same way. Useful for
// --yes style flags and tests.
func Static(answer bool) Confirmer { return staticConfirmer(answer) }

type staticConfirmer bool

// Confirm implements Confirmer.
func (s staticConfirmer) Confirm(context.Context, string) (bool, error) { return bool(s), nil }
