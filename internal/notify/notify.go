// Package notify posts plain-text push notifications to an ntfy-style
// endpoint. Used for cross-group intercepts when an endpoint is configured.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}

// Notifier posts intercept notifications to a fixed endpoint. A Notifier
// with an empty endpoint discards everything.
type Notifier struct {
	endpoint string
	client   *http.Client
}

func NewNotifier(endpoint string, client *http.Client) *Notifier {
	return &Notifier{endpoint: endpoint, client: client}
}

// Enabled reports whether an endpoint is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.endpoint != ""
}

// Intercept announces a cross-group interception.
func (n *Notifier) Intercept(ctx context.Context, domain string, tabGroup, targetGroup string) error {
	if !n.Enabled() {
		return nil
	}
	msg := fmt.Sprintf("tabfence: blocked %s (tab group %q, domain group %q)", domain, tabGroup, targetGroup)
	return Send(ctx, n.client, n.endpoint, msg)
}
