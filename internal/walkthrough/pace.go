package walkthrough

import (
	"bufio"
	"context"
	"fmt"
	"io"
)

// Pacer gates progress between phases. It is handed the prompt to show.
type Pacer func(ctx context.Context, prompt string)

const continuePrompt = "Press 'Enter' to continue."

// NoPause continues immediately.
func NoPause(context.Context, string) {}

// PromptPacer prints the prompt to out and blocks until a line (or EOF) is
// read from in, or ctx is done.
func PromptPacer(in io.Reader, out io.Writer) Pacer {
	lines := make(chan struct{})
	br := bufio.NewReader(in)
	go func() {
		defer close(lines)
		for {
			if _, err := br.ReadString('\n'); err != nil {
				return
			}
			lines <- struct{}{}
		}
	}()
	return func(ctx context.Context, prompt string) {
		fmt.Fprintln(out, prompt)
		select {
		case <-lines:
		case <-ctx.Done():
		}
	}
}
