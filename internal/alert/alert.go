// Package alert delivers operator alerts to a Discord webhook without ever
// blocking or failing the caller.
package alert

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
)

const (
	userAgent = "couponsync (+https://github.com/fastprodman/couponsync)"
	// Discord rejects messages longer than this.
	maxContentRunes = 2000
)

var ErrClosed = errors.New("alert sink closed")

// Sink accepts free-text alerts. Alert must not block on network I/O and
// never reports delivery failures to the caller.
type Sink interface {
	Alert(ctx context.Context, text string)
}

type Discord struct {
	http    *resty.Client
	url     string
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ Sink = (*Discord)(nil)

// NewDiscord returns a sink posting to webhookURL. An empty URL yields a
// sink that only logs.
func NewDiscord(webhookURL string, timeout time.Duration) *Discord {
	rc := resty.New().
		SetHeader("User-Agent", userAgent).
		SetHeader("Content-Type", "application/json")

	return &Discord{http: rc, url: webhookURL, timeout: timeout}
}

func (d *Discord) Alert(ctx context.Context, text string) {
	slog.WarnContext(ctx, "alert raised", "text", text)

	if d.url == "" {
		return
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		slog.ErrorContext(ctx, "alert dropped", "error", ErrClosed)
		return
	}
	d.wg.Add(1)
	d.mu.Unlock()

	// delivery outlives the caller's request
	go d.deliver(context.WithoutCancel(ctx), truncate(text))
}

func (d *Discord) deliver(ctx context.Context, text string) {
	defer d.wg.Done()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resp, err := d.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"content": text}).
		Post(d.url)
	if err != nil {
		slog.ErrorContext(ctx, "alert delivery failed", "error", err)
		return
	}

	if resp.IsError() {
		slog.ErrorContext(ctx, "alert delivery rejected",
			"status", resp.StatusCode(),
			"body", resp.String(),
		)
	}
}

// Close stops accepting alerts and waits for in-flight deliveries until ctx
// is done.
func (d *Discord) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxContentRunes {
		return s
	}

	r := []rune(s)

	return string(r[:maxContentRunes-1]) + "…"
}
