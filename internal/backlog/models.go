package backlog

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a backlog row.
type Status string

const (
	// StatusNew marks a freshly appended row that has no topic or mode yet.
	StatusNew Status = "new"
	// StatusReady marks a row with topic and mode assigned, awaiting work.
	StatusReady Status = "ready"
	// StatusNeedsPrompts marks a generate-mode row whose prompt fields
	// could not be derived.
	StatusNeedsPrompts Status = "needs_prompts"
	// StatusNeedsImages marks a discover-mode row that has fewer than the
	// target number of verified links. The row stays eligible for later runs.
	StatusNeedsImages Status = "needs_images"
	// StatusError marks a row whose last processing attempt failed.
	StatusError Status = "error"
	// StatusDone is terminal. Done rows are never revisited.
	StatusDone Status = "done"
)

var allStatuses = []Status{
	StatusNew,
	StatusReady,
	StatusNeedsPrompts,
	StatusNeedsImages,
	StatusError,
	StatusDone,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Mode selects how a row's assets are produced.
type Mode string

const (
	// ModeDiscover rows get verified portrait links from web search.
	ModeDiscover Mode = "link"
	// ModeGenerate rows get an image brief for the generation backend.
	ModeGenerate Mode = "ai"
)

// ParseMode converts a string into a known Mode.
func ParseMode(value string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case string(ModeDiscover), "discover":
		return ModeDiscover, true
	case string(ModeGenerate), "generate":
		return ModeGenerate, true
	default:
		return "", false
	}
}

// Row represents one backlog item persisted in SQLite.
type Row struct {
	ID             int64
	Status         Status
	Topic          string
	Mode           Mode
	Tone           string
	CaptionPrompt  string
	HashtagPrompt  string
	ImageBrief     string
	SourceLinks    []string
	GeneratedLinks []string
	ErrorMessage   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsTerminal reports whether the row has finished its lifecycle.
func (r *Row) IsTerminal() bool {
	return r.Status == StatusDone
}

// IsSeeded reports whether topic and mode are both assigned. Blank rows
// belong to the seeder, not the state machine.
func (r *Row) IsSeeded() bool {
	return strings.TrimSpace(r.Topic) != "" && r.Mode != ""
}

// Eligible reports whether a pipeline run should process the row.
func (r *Row) Eligible() bool {
	return !r.IsTerminal() && r.IsSeeded()
}

// SetFailed marks the row as errored with the given message.
func (r *Row) SetFailed(message string) {
	r.Status = StatusError
	r.ErrorMessage = message
}

// HealthSummary describes aggregated backlog counts per lifecycle state.
type HealthSummary struct {
	Total        int
	New          int
	Ready        int
	NeedsPrompts int
	NeedsImages  int
	Errored      int
	Done         int
}
