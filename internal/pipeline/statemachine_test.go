package pipeline

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"loomvale/internal/backlog"
	"loomvale/internal/logging"
)

// stubDiscoverer returns a canned link slice and records the prior links
// it was handed.
type stubDiscoverer struct {
	links  []string
	topics []string
	prior  [][]string
}

func (d *stubDiscoverer) Discover(ctx context.Context, topic string, prior []string) []string {
	d.topics = append(d.topics, topic)
	d.prior = append(d.prior, prior)
	return d.links
}

func newMachine(links ...string) (*StateMachine, *stubDiscoverer) {
	discoverer := &stubDiscoverer{links: links}
	return NewStateMachine(discoverer, 3, logging.NewNop()), discoverer
}

func TestProcessSkipsTerminalAndBlankRows(t *testing.T) {
	machine, discoverer := newMachine("https://example.com/a.jpg")

	done := &backlog.Row{ID: 1, Status: backlog.StatusDone, Topic: "Akira", Mode: backlog.ModeDiscover}
	before := *done
	machine.Process(context.Background(), done)
	if !reflect.DeepEqual(*done, before) {
		t.Error("done row was mutated")
	}

	blank := &backlog.Row{ID: 2, Status: backlog.StatusNew}
	machine.Process(context.Background(), blank)
	if blank.Status != backlog.StatusNew || blank.Tone != "" {
		t.Error("unseeded row was mutated")
	}

	if len(discoverer.topics) != 0 {
		t.Errorf("discovery ran %d times for skipped rows, want 0", len(discoverer.topics))
	}
}

func TestProcessDiscoverOutcomes(t *testing.T) {
	links := []string{
		"https://example.com/a.jpg",
		"https://example.com/b.jpg",
		"https://example.com/c.jpg",
		"https://example.com/d.jpg",
	}
	cases := []struct {
		name       string
		found      []string
		prior      []string
		wantStatus backlog.Status
		wantLinks  []string
	}{
		{
			name:       "target met trims and completes",
			found:      links[:4],
			wantStatus: backlog.StatusDone,
			wantLinks:  links[:3],
		},
		{
			name:       "partial find persists and stays open",
			found:      links[:2],
			wantStatus: backlog.StatusNeedsImages,
			wantLinks:  links[:2],
		},
		{
			name:       "no find keeps prior links",
			found:      nil,
			prior:      links[:1],
			wantStatus: backlog.StatusNeedsImages,
			wantLinks:  links[:1],
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			machine, discoverer := newMachine(tc.found...)
			row := &backlog.Row{
				ID:          10,
				Status:      backlog.StatusReady,
				Topic:       "Lantern Festival Night",
				Mode:        backlog.ModeDiscover,
				SourceLinks: tc.prior,
			}
			machine.Process(context.Background(), row)

			if row.Status != tc.wantStatus {
				t.Errorf("status = %q, want %q", row.Status, tc.wantStatus)
			}
			if len(row.SourceLinks) != len(tc.wantLinks) {
				t.Fatalf("links = %v, want %v", row.SourceLinks, tc.wantLinks)
			}
			for i := range tc.wantLinks {
				if row.SourceLinks[i] != tc.wantLinks[i] {
					t.Errorf("link[%d] = %q, want %q", i, row.SourceLinks[i], tc.wantLinks[i])
				}
			}
			if len(discoverer.prior) != 1 {
				t.Fatal("discovery must run exactly once")
			}
			if len(discoverer.prior[0]) != len(tc.prior) {
				t.Errorf("prior links handed to discovery = %v, want %v", discoverer.prior[0], tc.prior)
			}
		})
	}
}

func TestProcessDiscoverClearsStaleError(t *testing.T) {
	machine, _ := newMachine(
		"https://example.com/a.jpg",
		"https://example.com/b.jpg",
		"https://example.com/c.jpg",
	)
	row := &backlog.Row{
		ID:           3,
		Status:       backlog.StatusError,
		Topic:        "Akira",
		Mode:         backlog.ModeDiscover,
		ErrorMessage: "previous attempt failed",
	}
	machine.Process(context.Background(), row)

	if row.Status != backlog.StatusDone {
		t.Fatalf("status = %q, want done", row.Status)
	}
	if row.ErrorMessage != "" {
		t.Errorf("stale error message survived: %q", row.ErrorMessage)
	}
}

func TestProcessGenerateCompletesWithPrompts(t *testing.T) {
	machine, discoverer := newMachine()
	row := &backlog.Row{
		ID:     4,
		Status: backlog.StatusReady,
		Topic:  "Lantern Festival Night",
		Mode:   backlog.ModeGenerate,
	}
	machine.Process(context.Background(), row)

	if row.Status != backlog.StatusDone {
		t.Fatalf("status = %q, want done", row.Status)
	}
	for name, field := range map[string]string{
		"tone":           row.Tone,
		"caption prompt": row.CaptionPrompt,
		"hashtag prompt": row.HashtagPrompt,
		"image brief":    row.ImageBrief,
	} {
		if strings.TrimSpace(field) == "" {
			t.Errorf("%s left empty", name)
		}
	}
	if len(discoverer.topics) != 0 {
		t.Error("generate-mode rows must never invoke discovery")
	}
}

func TestProcessPreservesOperatorText(t *testing.T) {
	machine, _ := newMachine()
	row := &backlog.Row{
		ID:     5,
		Status: backlog.StatusReady,
		Topic:  "Lantern Festival Night",
		Mode:   backlog.ModeGenerate,
		Tone:   "Hand-tuned tone",
	}
	machine.Process(context.Background(), row)

	if row.Tone != "Hand-tuned tone" {
		t.Errorf("operator tone was overwritten: %q", row.Tone)
	}
	if row.CaptionPrompt == "" {
		t.Error("empty fields must still be filled")
	}
}

func TestProcessUnknownModeFailsRow(t *testing.T) {
	machine, _ := newMachine()
	row := &backlog.Row{
		ID:     6,
		Status: backlog.StatusReady,
		Topic:  "Akira",
		Mode:   backlog.Mode("video"),
	}
	machine.Process(context.Background(), row)

	if row.Status != backlog.StatusError {
		t.Fatalf("status = %q, want error", row.Status)
	}
	if !strings.Contains(row.ErrorMessage, "video") {
		t.Errorf("error message should name the mode, got %q", row.ErrorMessage)
	}
}

func TestProcessIsIdempotentOnCompletedRows(t *testing.T) {
	machine, discoverer := newMachine(
		"https://example.com/a.jpg",
		"https://example.com/b.jpg",
		"https://example.com/c.jpg",
	)
	row := &backlog.Row{ID: 7, Status: backlog.StatusReady, Topic: "Akira", Mode: backlog.ModeDiscover}

	machine.Process(context.Background(), row)
	if row.Status != backlog.StatusDone {
		t.Fatalf("first pass status = %q, want done", row.Status)
	}
	first := *row
	firstLinks := append([]string(nil), row.SourceLinks...)

	machine.Process(context.Background(), row)
	row.SourceLinks = firstLinks
	if !reflect.DeepEqual(*row, first) {
		t.Error("second pass mutated a done row")
	}
	if len(discoverer.topics) != 1 {
		t.Errorf("discovery ran %d times, want 1", len(discoverer.topics))
	}
}
