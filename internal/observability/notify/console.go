package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Console writes one line per notice to w.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole returns a console sink writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Notify implements Sink.
func (c *Console) Notify(_ context.Context, n Notice) error {
	var line string
	switch n.Kind {
	case KindSessionExpired:
		line = "! " + n.Message
	case KindRedirectToLogin:
		line = "! please sign in again: cutdesk login"
		if n.ReturnURL != "" {
			line += " (return to " + n.ReturnURL + ")"
		}
	case KindDemoIntercepted:
		line = fmt.Sprintf("! %s [%s]", n.Message, n.Operation)
	default:
		line = "! " + n.Message
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := fmt.Fprintln(c.w, line)
	return err
}
