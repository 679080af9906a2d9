package domain

import "time"

// BatchResult holds counts for one owner's pipeline pass.
type BatchResult struct {
	OwnerID   string
	Fetched   int
	Processed int
	Published int
	Partial   int
	Drafts    int
	Queued    int
	Failed    int
	// Skipped includes Duplicates.
	Skipped    int
	Duplicates int
	// Stale counts PROCESSING records left by earlier passes that this pass
	// failed as interrupted.
	Stale int
	// FetchFailed is set when the owner's feed could not be read.
	FetchFailed bool
	// Interrupted is set when the pass stopped early on its deadline.
	Interrupted bool
	Duration    time.Duration
}

// Add accumulates r into b, leaving OwnerID untouched.
func (b *BatchResult) Add(r BatchResult) {
	b.Fetched += r.Fetched
	b.Processed += r.Processed
	b.Published += r.Published
	b.Partial += r.Partial
	b.Drafts += r.Drafts
	b.Queued += r.Queued
	b.Failed += r.Failed
	b.Skipped += r.Skipped
	b.Duplicates += r.Duplicates
	b.Stale += r.Stale
	b.Interrupted = b.Interrupted || r.Interrupted
	b.Duration += r.Duration
}

// RunSummary aggregates the batches of a pass over every enabled owner.
type RunSummary struct {
	Owners      int
	FetchErrors int
	Results     []BatchResult
	Totals      BatchResult
	Interrupted bool
	Duration    time.Duration
}

// TotalFailure reports whether the pass accomplished nothing at all: there
// were owners to serve and every one of them failed to fetch.
func (s RunSummary) TotalFailure() bool {
	return s.Owners > 0 && s.FetchErrors == s.Owners
}
