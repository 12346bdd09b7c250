package apiclient

import (
	"context"
	"fmt"
	"strings"
)

// DemoActive reports whether demo mode is on, either forced by configuration
// or persisted in the session record.
func (c *Client) DemoActive(ctx context.Context) (bool, error) {
	if c.forceDemo {
		return true, nil
	}
	st, err := c.session.State(ctx)
	if err != nil {
		return false, fmt.Errorf("load session state: %w", err)
	}
	return st.DemoMode, nil
}

// demoGate runs before any token handling so it works without a session.
func (c *Client) demoGate(ctx context.Context, req Request) (intercepted, demo bool, err error) {
	demo, err = c.DemoActive(ctx)
	if err != nil || !demo {
		return false, demo, err
	}
	op := strings.ToUpper(req.Method) + " " + strings.TrimLeft(req.Path, "/")
	c.demo.OpenDemoModal(ctx, op)
	c.metrics.DemoIntercepted(strings.ToUpper(req.Method))
	c.logger.DebugContext(ctx, "demo mode intercepted call", "operation", op)
	return true, true, nil
}
