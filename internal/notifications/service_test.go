package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"darkroom/internal/config"
	"darkroom/internal/notifications"
)

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = ""
	svc := notifications.NewService(&cfg)
	if err := svc.NotifyRequestReceived(context.Background(), "Casey", 1, 1); err != nil {
		t.Fatalf("expected noop notifier to return nil, got %v", err)
	}
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	tests := []struct {
		name           string
		send           func(svc notifications.Service) error
		expectTitle    string
		expectMessage  string
		expectTags     string
		expectPriority string
	}{
		{
			name: "request received",
			send: func(svc notifications.Service) error {
				return svc.NotifyRequestReceived(context.Background(), "Casey", 3, 3)
			},
			expectTitle:   "Darkroom - New Request",
			expectMessage: "New edit request from Casey (#3, queue 3)",
			expectTags:    "darkroom,request,received",
		},
		{
			name: "request completed",
			send: func(svc notifications.Service) error {
				return svc.NotifyRequestCompleted(context.Background(), "Casey")
			},
			expectTitle:   "Darkroom - Request Done",
			expectMessage: "Marked done: Casey",
			expectTags:    "darkroom,request,completed",
		},
		{
			name: "queue reset",
			send: func(svc notifications.Service) error {
				return svc.NotifyQueueReset(context.Background(), 4)
			},
			expectTitle:   "Darkroom - Queue Reset",
			expectMessage: "Queue reset, 4 requests removed",
			expectTags:    "darkroom,queue,reset",
		},
		{
			name: "error",
			send: func(svc notifications.Service) error {
				return svc.NotifyError(context.Background(), errors.New("disk full"), "snapshot save")
			},
			expectTitle:    "Darkroom - Error",
			expectMessage:  "Error with snapshot save: disk full",
			expectTags:     "darkroom,error,alert",
			expectPriority: "high",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var (
				gotTitle    string
				gotMessage  string
				gotTags     string
				gotPriority string
			)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, _ := io.ReadAll(r.Body)
				gotMessage = string(body)
				gotTitle = r.Header.Get("Title")
				gotTags = r.Header.Get("Tags")
				gotPriority = r.Header.Get("Priority")
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			cfg := config.Default()
			cfg.Notifications.NtfyTopic = server.URL
			svc := notifications.NewService(&cfg)

			if err := tc.send(svc); err != nil {
				t.Fatalf("notify: %v", err)
			}
			if gotTitle != tc.expectTitle {
				t.Fatalf("title = %q, want %q", gotTitle, tc.expectTitle)
			}
			if gotMessage != tc.expectMessage {
				t.Fatalf("message = %q, want %q", gotMessage, tc.expectMessage)
			}
			if gotTags != tc.expectTags {
				t.Fatalf("tags = %q, want %q", gotTags, tc.expectTags)
			}
			if gotPriority != tc.expectPriority {
				t.Fatalf("priority = %q, want %q", gotPriority, tc.expectPriority)
			}
		})
	}
}

func TestNtfyServiceRespectsEventToggles(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Submissions = false
	svc := notifications.NewService(&cfg)

	if err := svc.NotifyRequestReceived(context.Background(), "Casey", 1, 1); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if requests != 0 {
		t.Fatalf("expected suppressed notification, server saw %d requests", requests)
	}
}

func TestNtfyServiceReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic over quota", http.StatusTooManyRequests)
	}))
	defer server.Close()

	cfg := config.Default()
	cfg.Notifications.NtfyTopic = server.URL
	svc := notifications.NewService(&cfg)

	if err := svc.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error from non-2xx response")
	}
}
