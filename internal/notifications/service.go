package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"loomvale/internal/config"
)

const userAgent = "Loomvale/0.1.0"

// Service defines the notification surface exposed to the pipeline.
type Service interface {
	NotifyRunStarted(ctx context.Context, eligible int) error
	NotifyRunCompleted(ctx context.Context, processed, completed, failed int, duration time.Duration) error
	NotifyRowError(ctx context.Context, rowID int64, topic, message string) error
	NotifySeeded(ctx context.Context, count int) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when
// configured. When no ntfy topic is configured, a noop implementation
// is returned.
func NewService(cfg config.Notifications) Service {
	topic := strings.TrimSpace(cfg.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   topic,
		client:     &http.Client{Timeout: timeout},
		runSummary: cfg.RunSummary,
		errors:     cfg.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	runSummary bool
	errors     bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, eligible int) error {
	if !n.runSummary {
		return nil
	}
	data := payload{
		title:   "Loomvale - Run Started",
		message: fmt.Sprintf("Processing %d backlog row(s)", eligible),
		tags:    []string{"loomvale", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, processed, completed, failed int, duration time.Duration) error {
	if !n.runSummary {
		return nil
	}
	data := payload{
		title: "Loomvale - Run Completed",
		message: fmt.Sprintf("Processed %d row(s): %d done, %d failed in %s",
			processed, completed, failed, duration.Round(time.Second)),
		tags: []string{"loomvale", "run", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRowError(ctx context.Context, rowID int64, topic, message string) error {
	if !n.errors {
		return nil
	}
	data := payload{
		title:    "Loomvale - Row Error",
		message:  fmt.Sprintf("Row #%d (%s): %s", rowID, topic, message),
		tags:     []string{"loomvale", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifySeeded(ctx context.Context, count int) error {
	if !n.runSummary {
		return nil
	}
	data := payload{
		title:   "Loomvale - Topics Seeded",
		message: fmt.Sprintf("Appended %d new topic row(s)", count),
		tags:    []string{"loomvale", "seed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Loomvale - Test",
		message:  "Notification system test",
		tags:     []string{"loomvale", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, int) error { return nil }

func (noopService) NotifyRunCompleted(context.Context, int, int, int, time.Duration) error {
	return nil
}

func (noopService) NotifyRowError(context.Context, int64, string, string) error { return nil }

func (noopService) NotifySeeded(context.Context, int) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
