package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"darkroom/internal/config"
)

const userAgent = "Darkroom/0.1.0"

// Service defines the operator notification surface. Calls are dispatched
// after the queue engine's critical section, never inside it, so a slow
// push can never block a mutation.
type Service interface {
	NotifyRequestReceived(ctx context.Context, displayName string, position, total int) error
	NotifyRequestCancelled(ctx context.Context, displayName string) error
	NotifyRequestCompleted(ctx context.Context, displayName string) error
	NotifyQueueReset(ctx context.Context, removed int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  cfg.Notifications,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	enabled  config.Notifications
}

func (n *ntfyService) NotifyRequestReceived(ctx context.Context, displayName string, position, total int) error {
	if !n.enabled.Submissions {
		return nil
	}
	data := payload{
		title:   "Darkroom - New Request",
		message: fmt.Sprintf("New edit request from %s (#%d, queue %d)", strings.TrimSpace(displayName), position, total),
		tags:    []string{"darkroom", "request", "received"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRequestCancelled(ctx context.Context, displayName string) error {
	if !n.enabled.Submissions {
		return nil
	}
	data := payload{
		title:   "Darkroom - Request Cancelled",
		message: fmt.Sprintf("%s cancelled their request", strings.TrimSpace(displayName)),
		tags:    []string{"darkroom", "request", "cancelled"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRequestCompleted(ctx context.Context, displayName string) error {
	if !n.enabled.Completions {
		return nil
	}
	data := payload{
		title:   "Darkroom - Request Done",
		message: fmt.Sprintf("Marked done: %s", strings.TrimSpace(displayName)),
		tags:    []string{"darkroom", "request", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyQueueReset(ctx context.Context, removed int) error {
	if !n.enabled.Resets {
		return nil
	}
	data := payload{
		title:   "Darkroom - Queue Reset",
		message: fmt.Sprintf("Queue reset, %d requests removed", removed),
		tags:    []string{"darkroom", "queue", "reset"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.enabled.Errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Darkroom - Error",
		message:  builder.String(),
		tags:     []string{"darkroom", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Darkroom - Test",
		message:  "Notification system test",
		tags:     []string{"darkroom", "test"},
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

func (noopService) NotifyRequestReceived(context.Context, string, int, int) error { return nil }
func (noopService) NotifyRequestCancelled(context.Context, string) error          { return nil }
func (noopService) NotifyRequestCompleted(context.Context, string) error          { return nil }
func (noopService) NotifyQueueReset(context.Context, int) error                   { return nil }
func (noopService) NotifyError(context.Context, error, string) error              { return nil }
func (noopService) TestNotification(context.Context) error                        { return nil }
