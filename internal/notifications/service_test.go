package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loomvale/internal/config"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newTestService(t *testing.T, status int, opts func(*config.Notifications)) (Service, *[]captured) {
	t.Helper()

	var requests []captured
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		requests = append(requests, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	cfg := config.Notifications{
		NtfyTopic:  server.URL,
		RunSummary: true,
		Errors:     true,
	}
	if opts != nil {
		opts(&cfg)
	}
	return NewService(cfg), &requests
}

func TestNotifyRunCompletedPayload(t *testing.T) {
	service, requests := newTestService(t, http.StatusOK, nil)

	err := service.NotifyRunCompleted(context.Background(), 5, 3, 1, 42*time.Second)
	if err != nil {
		t.Fatalf("NotifyRunCompleted: %v", err)
	}
	if len(*requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(*requests))
	}
	req := (*requests)[0]
	if req.title != "Loomvale - Run Completed" {
		t.Errorf("title = %q", req.title)
	}
	if !strings.Contains(req.body, "Processed 5 row(s): 3 done, 1 failed") {
		t.Errorf("body = %q", req.body)
	}
	if req.priority != "" {
		t.Errorf("run summaries are default priority, got %q", req.priority)
	}
}

func TestNotifyRowErrorIsHighPriority(t *testing.T) {
	service, requests := newTestService(t, http.StatusOK, nil)

	err := service.NotifyRowError(context.Background(), 12, "Lantern Festival Night", "store write failed")
	if err != nil {
		t.Fatalf("NotifyRowError: %v", err)
	}
	req := (*requests)[0]
	if req.priority != "high" {
		t.Errorf("priority = %q, want high", req.priority)
	}
	for _, fragment := range []string{"#12", "Lantern Festival Night", "store write failed"} {
		if !strings.Contains(req.body, fragment) {
			t.Errorf("body %q missing %q", req.body, fragment)
		}
	}
	if !strings.Contains(req.tags, "error") {
		t.Errorf("tags = %q, want an error tag", req.tags)
	}
}

func TestNotifyRespectsCategoryToggles(t *testing.T) {
	service, requests := newTestService(t, http.StatusOK, func(cfg *config.Notifications) {
		cfg.RunSummary = false
		cfg.Errors = false
	})

	ctx := context.Background()
	if err := service.NotifyRunStarted(ctx, 3); err != nil {
		t.Fatal(err)
	}
	if err := service.NotifyRunCompleted(ctx, 3, 3, 0, time.Second); err != nil {
		t.Fatal(err)
	}
	if err := service.NotifyRowError(ctx, 1, "topic", "boom"); err != nil {
		t.Fatal(err)
	}
	if err := service.NotifySeeded(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if len(*requests) != 0 {
		t.Errorf("disabled categories sent %d requests", len(*requests))
	}

	// Test notifications bypass the toggles.
	if err := service.TestNotification(ctx); err != nil {
		t.Fatal(err)
	}
	if len(*requests) != 1 {
		t.Errorf("test notification sent %d requests, want 1", len(*requests))
	}
}

func TestNotifySurfacesServerErrors(t *testing.T) {
	service, _ := newTestService(t, http.StatusForbidden, nil)

	err := service.NotifySeeded(context.Background(), 2)
	if err == nil {
		t.Fatal("expected an error for a rejected notification")
	}
	if !strings.Contains(err.Error(), "403") {
		t.Errorf("error %q should carry the status code", err)
	}
}

func TestNewServiceWithoutTopicIsNoop(t *testing.T) {
	service := NewService(config.Notifications{})
	if _, ok := service.(noopService); !ok {
		t.Fatalf("got %T, want the noop service", service)
	}
	if err := service.TestNotification(context.Background()); err != nil {
		t.Errorf("noop must never error: %v", err)
	}
}
