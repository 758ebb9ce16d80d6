package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Prompter reads one line from the operator. ReadLine returns the context's
// error if the prompt is cancelled before input arrives.
type Prompter interface {
	ReadLine(ctx context.Context, label string) (string, error)
}

// stdinPrompter reads from in (normally os.Stdin) and writes the label to
// out. Cancellation is cooperative: the blocked read is abandoned, not
// interrupted, and any line typed afterwards is discarded with the
// goroutine.
type stdinPrompter struct {
	in  io.Reader
	out io.Writer
}

func (p *stdinPrompter) ReadLine(ctx context.Context, label string) (string, error) {
	_, _ = fmt.Fprint(p.out, label)

	lineCh := make(chan string, 1)
	errCh := make(chan error, 1)
	go func() {
		line, err := bufio.NewReader(p.in).ReadString('\n')
		if err != nil && strings.TrimSpace(line) == "" {
			errCh <- err
			return
		}
		lineCh <- strings.TrimSpace(line)
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		return "", err
	case line := <-lineCh:
		return line, nil
	}
}
