package domain

import "time"

// Status is the lifecycle state of a ShareRecord.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusQueued     Status = "QUEUED"
	StatusProcessing Status = "PROCESSING"
	StatusPublished  Status = "PUBLISHED"
	StatusPartial    Status = "PARTIAL"
	StatusFailed     Status = "FAILED"
	StatusSkipped    Status = "SKIPPED"
)

// IsTerminal reports whether no further automatic transition leaves s.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusPublished, StatusPartial, StatusFailed, StatusSkipped:
		return true
	}
	return false
}

// SourceItem is one entry read from an owner's feed.
type SourceItem struct {
	SourceID      string
	CanonicalLink string
	Title         string
	Excerpt       string
	PublishedAt   time.Time
	ImageHint     string
}

// Snapshot is the item metadata captured when a ShareRecord is created.
type Snapshot struct {
	Title    string
	Link     string
	Excerpt  string
	ImageURL string
}

// ShareRecord is the persistent unit of work for one source item.
type ShareRecord struct {
	ID               string
	OwnerID          string
	DedupeKey        string
	Snapshot         Snapshot
	Status           Status
	GeneratedCaption *string
	Outcomes         []DestinationOutcome
	Error            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	ProcessedAt      *time.Time
}

// Outcome is the result recorded for one destination.
type Outcome string

const (
	OutcomePublished Outcome = "published"
	OutcomeFailed    Outcome = "failed"
	OutcomeSkipped   Outcome = "skipped"
)

type DestinationOutcome struct {
	Destination Destination `json:"destination"`
	Outcome     Outcome     `json:"outcome"`
	ExternalRef string      `json:"external_ref,omitempty"`
	ExternalURL string      `json:"external_url,omitempty"`
	Error       string      `json:"error,omitempty"`
	Attempts    int         `json:"attempts"`
}

// DeriveStatus maps a fan-out result to the terminal record status.
// An empty outcome list yields FAILED.
func DeriveStatus(outcomes []DestinationOutcome) Status {
	published := 0
	for _, o := range outcomes {
		if o.Outcome == OutcomePublished {
			published++
		}
	}

	switch {
	case published == 0:
		return StatusFailed
	case published == len(outcomes):
		return StatusPublished
	default:
		return StatusPartial
	}
}
