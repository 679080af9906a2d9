package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"autoshare/internal/caption"
	"autoshare/internal/config"
	"autoshare/internal/domain"
	"autoshare/internal/fanout"
	"autoshare/internal/lifecycle"
	"autoshare/internal/metrics"
	"autoshare/internal/quiethours"
)

// memShares is an in-memory share store enforcing the (owner, dedupe key)
// uniqueness the database provides.
type memShares struct {
	mu          sync.Mutex
	records     map[string]*domain.ShareRecord
	keys        map[string]string
	transitions []lifecycle.Transition
	seq         int
	// failFinalize is how many upcoming Finalize calls fail before writing.
	failFinalize int
}

func newMemShares() *memShares {
	return &memShares{
		records: make(map[string]*domain.ShareRecord),
		keys:    make(map[string]string),
	}
}

func (m *memShares) ExistsByDedupeKey(_ context.Context, ownerID, dedupeKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.keys[ownerID+"/"+dedupeKey]
	return ok, nil
}

func (m *memShares) Create(_ context.Context, rec *domain.ShareRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := rec.OwnerID + "/" + rec.DedupeKey
	if _, ok := m.keys[k]; ok {
		return domain.ErrAlreadyExists
	}
	m.seq++
	rec.ID = fmt.Sprintf("share-%d", m.seq)
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	stored := *rec
	m.records[rec.ID] = &stored
	m.keys[k] = rec.ID
	return nil
}

func (m *memShares) FindByID(_ context.Context, id string) (*domain.ShareRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (m *memShares) ListByStatus(_ context.Context, ownerID string, status domain.Status, limit int) ([]*domain.ShareRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.ShareRecord
	for i := 1; i <= m.seq && len(out) < limit; i++ {
		rec := m.records[fmt.Sprintf("share-%d", i)]
		if rec != nil && rec.OwnerID == ownerID && rec.Status == status {
			copied := *rec
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *memShares) SaveCaption(_ context.Context, id, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.Status != domain.StatusProcessing {
		return domain.ErrStaleState
	}
	rec.GeneratedCaption = &text
	rec.UpdatedAt = time.Now()
	return nil
}

func (m *memShares) UpdateStatus(_ context.Context, id string, from, to domain.Status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok || rec.Status != from {
		return domain.ErrStaleState
	}
	rec.Status = to
	rec.Error = reason
	rec.UpdatedAt = time.Now()
	return nil
}

func (m *memShares) Finalize(_ context.Context, id string, status domain.Status, outcomes []domain.DestinationOutcome, reason string, processedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFinalize > 0 {
		m.failFinalize--
		return errors.New("connection reset by peer")
	}
	rec, ok := m.records[id]
	if !ok || rec.Status != domain.StatusProcessing {
		return domain.ErrStaleState
	}
	rec.Status = status
	rec.Outcomes = outcomes
	rec.Error = reason
	rec.ProcessedAt = &processedAt
	rec.UpdatedAt = processedAt
	return nil
}

func (m *memShares) RecordTransition(_ context.Context, t lifecycle.Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, t)
	return nil
}

// seed stores rec as-is, bypassing reservation.
func (m *memShares) seed(rec domain.ShareRecord) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	rec.ID = fmt.Sprintf("share-%d", m.seq)
	m.records[rec.ID] = &rec
	m.keys[rec.OwnerID+"/"+rec.DedupeKey] = rec.ID
	return rec.ID
}

func (m *memShares) statuses() map[domain.Status]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[domain.Status]int)
	for _, rec := range m.records {
		counts[rec.Status]++
	}
	return counts
}

type passThroughTx struct{}

func (passThroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memOwners []domain.Owner

func (o memOwners) ListEnabled(context.Context) ([]domain.Owner, error) {
	return o, nil
}

func (o memOwners) FindByID(_ context.Context, id string) (domain.Owner, error) {
	for _, owner := range o {
		if owner.ID == id {
			return owner, nil
		}
	}
	return domain.Owner{}, domain.ErrNotFound
}

type staticFeed []domain.SourceItem

func (f staticFeed) FetchItems(context.Context, string) ([]domain.SourceItem, error) {
	return f, nil
}

// flakyClient fails every call to the destinations in down.
type flakyClient struct {
	mu    sync.Mutex
	down  map[domain.Destination]bool
	posts []fanout.Content
	calls []domain.Destination
}

func (c *flakyClient) Publish(_ context.Context, dest domain.Destination, content fanout.Content, _ string) (fanout.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, dest)
	if c.down[dest] {
		return fanout.Result{}, errors.New("service unavailable")
	}
	c.posts = append(c.posts, content)
	return fanout.Result{ExternalRef: fmt.Sprintf("%s-%d", dest, len(c.posts))}, nil
}

type wiredPipeline struct {
	pipeline *Pipeline
	shares   *memShares
	client   *flakyClient
}

type wiredOptions struct {
	// allowed is the deployment allowlist; empty allows every destination.
	allowed []domain.Destination
	config  config.PipelineConfig
	down    []domain.Destination
}

func newWiredPipeline(t *testing.T, owners memOwners, feed staticFeed, down ...domain.Destination) wiredPipeline {
	t.Helper()
	return newWiredPipelineWith(t, owners, feed, wiredOptions{
		config: config.PipelineConfig{MaxItemsPerRun: 10, BatchTimeout: time.Minute},
		down:   down,
	})
}

func newWiredPipelineWith(t *testing.T, owners memOwners, feed staticFeed, opts wiredOptions) wiredPipeline {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	shares := newMemShares()
	client := &flakyClient{down: make(map[domain.Destination]bool)}
	for _, d := range opts.down {
		client.down[d] = true
	}

	required := opts.allowed
	if len(required) == 0 {
		required = domain.AllDestinations()
	}
	formatter, err := caption.NewFormatter(caption.DefaultRules, required)
	require.NoError(t, err)

	publisher := fanout.NewPublisher(client, formatter, metrics.Nop{}, fanout.Config{
		MaxRetries: 2,
		BaseDelay:  time.Millisecond,
	}, logger)

	p := NewPipeline(Deps{
		Owners:    owners,
		Shares:    shares,
		Lifecycle: lifecycle.NewMachine(shares, passThroughTx{}, logger),
		Source:    feed,
		Composer:  caption.NewComposer(nil, caption.Config{CTA: "Read more:"}, logger),
		Publisher: publisher,
		Gate:      quiethours.NewGate(time.UTC),

		Destinations: opts.allowed,
	}, logger, opts.config)

	return wiredPipeline{pipeline: p, shares: shares, client: client}
}

func wiredOwner() domain.Owner {
	return domain.Owner{
		ID:           "owner-1",
		Enabled:      true,
		FeedURL:      "https://blog.example.com/feed.xml",
		AutoPublish:  true,
		Destinations: []domain.Destination{domain.DestinationX, domain.DestinationMastodon, domain.DestinationInstagram},
	}
}

func TestPipeline_SecondRunCreatesNothing(t *testing.T) {
	feed := staticFeed{item(1), item(2), item(3)}
	w := newWiredPipeline(t, memOwners{wiredOwner()}, feed)

	first, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, first.Totals.Processed)
	posts := len(w.client.posts)

	second, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, second.Totals.Processed)
	assert.Equal(t, 3, second.Totals.Duplicates)
	assert.Len(t, w.shares.records, 3)
	assert.Equal(t, posts, len(w.client.posts))
}

func TestPipeline_InstagramWithoutMediaIsPartial(t *testing.T) {
	w := newWiredPipeline(t, memOwners{wiredOwner()}, staticFeed{item(1)})

	summary, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Totals.Partial)

	rec, err := w.pipeline.Get(context.Background(), "share-1")
	require.NoError(t, err)
	require.Len(t, rec.Outcomes, 3)
	assert.Equal(t, domain.OutcomePublished, rec.Outcomes[0].Outcome)
	assert.Equal(t, domain.OutcomePublished, rec.Outcomes[1].Outcome)
	assert.Equal(t, domain.OutcomeSkipped, rec.Outcomes[2].Outcome)
	assert.Equal(t, "requires media", rec.Outcomes[2].Error)
	assert.Zero(t, rec.Outcomes[2].Attempts)
	assert.NotNil(t, rec.ProcessedAt)
}

func TestPipeline_DownDestinationDoesNotBlockOthers(t *testing.T) {
	owner := wiredOwner()
	owner.Destinations = []domain.Destination{domain.DestinationX, domain.DestinationBluesky}
	w := newWiredPipeline(t, memOwners{owner}, staticFeed{item(1)}, domain.DestinationX)

	summary, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Totals.Partial)

	rec, err := w.pipeline.Get(context.Background(), "share-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPartial, rec.Status)
	assert.Equal(t, domain.OutcomeFailed, rec.Outcomes[0].Outcome)
	assert.Equal(t, 2, rec.Outcomes[0].Attempts)
	assert.Equal(t, domain.OutcomePublished, rec.Outcomes[1].Outcome)
}

func TestPipeline_DraftApproveAndDismiss(t *testing.T) {
	owner := wiredOwner()
	owner.AutoPublish = false
	owner.Destinations = []domain.Destination{domain.DestinationX}
	w := newWiredPipeline(t, memOwners{owner}, staticFeed{item(1), item(2)})

	summary, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Totals.Drafts)
	assert.Empty(t, w.client.posts)

	approved, err := w.pipeline.Approve(context.Background(), "share-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPublished, approved.Status)
	assert.Len(t, w.client.posts, 1)

	_, err = w.pipeline.Approve(context.Background(), "share-1")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	dismissed, err := w.pipeline.Dismiss(context.Background(), "share-2")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSkipped, dismissed.Status)
	assert.Equal(t, "dismissed by owner", dismissed.Error)

	_, err = w.pipeline.Dismiss(context.Background(), "share-2")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, map[domain.Status]int{domain.StatusPublished: 1, domain.StatusSkipped: 1}, w.shares.statuses())
}

func TestPipeline_QuietHoursDeferThenResume(t *testing.T) {
	owner := wiredOwner()
	owner.Destinations = []domain.Destination{domain.DestinationX}

	hour := time.Now().UTC().Hour()
	owner.QuietHours = domain.QuietHours{Enabled: true, StartHour: hour, EndHour: (hour + 1) % 24}
	w := newWiredPipeline(t, memOwners{owner}, staticFeed{item(1)})

	first, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	if first.Totals.Queued == 0 {
		t.Skip("hour rolled over during the run")
	}
	assert.Empty(t, w.client.posts)

	owner.QuietHours.Enabled = false
	w.pipeline.owners = memOwners{owner}

	second, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Totals.Published)
	assert.Equal(t, 1, second.Totals.Duplicates)
	assert.Len(t, w.client.posts, 1)
}

func TestPipeline_OwnerDestinationsOutsideDeploymentAreNotCalled(t *testing.T) {
	w := newWiredPipelineWith(t, memOwners{wiredOwner()}, staticFeed{item(1)}, wiredOptions{
		allowed: []domain.Destination{domain.DestinationX},
		config:  config.PipelineConfig{MaxItemsPerRun: 10, BatchTimeout: time.Minute},
	})

	summary, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Totals.Published)
	assert.Equal(t, []domain.Destination{domain.DestinationX}, w.client.calls)

	rec, err := w.pipeline.Get(context.Background(), "share-1")
	require.NoError(t, err)
	require.Len(t, rec.Outcomes, 1)
	assert.Equal(t, domain.DestinationX, rec.Outcomes[0].Destination)
}

func TestPipeline_FinalizeSurvivesOneStoreFailure(t *testing.T) {
	owner := wiredOwner()
	owner.Destinations = []domain.Destination{domain.DestinationX}
	w := newWiredPipeline(t, memOwners{owner}, staticFeed{item(1)})
	w.shares.failFinalize = 1

	summary, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Totals.Published)
	assert.Equal(t, map[domain.Status]int{domain.StatusPublished: 1}, w.shares.statuses())
}

func TestPipeline_PersistentFinalizeFailureLeavesNoProcessingRecord(t *testing.T) {
	owner := wiredOwner()
	owner.Destinations = []domain.Destination{domain.DestinationX}
	w := newWiredPipeline(t, memOwners{owner}, staticFeed{item(1)})
	w.shares.failFinalize = finalizeAttempts

	summary, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Totals.Failed)

	rec, err := w.pipeline.Get(context.Background(), "share-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, rec.Status)
	assert.Contains(t, rec.Error, "connection reset by peer")
}

func TestPipeline_StaleProcessingRecordIsFailedAsInterrupted(t *testing.T) {
	owner := wiredOwner()
	w := newWiredPipelineWith(t, memOwners{owner}, staticFeed{}, wiredOptions{
		config: config.PipelineConfig{MaxItemsPerRun: 10, BatchTimeout: time.Minute, StaleAfter: 30 * time.Minute},
	})

	staleID := w.shares.seed(domain.ShareRecord{
		OwnerID:   owner.ID,
		DedupeKey: "stale",
		Status:    domain.StatusProcessing,
		UpdatedAt: time.Now().Add(-2 * time.Hour),
	})
	freshID := w.shares.seed(domain.ShareRecord{
		OwnerID:   owner.ID,
		DedupeKey: "fresh",
		Status:    domain.StatusProcessing,
		UpdatedAt: time.Now(),
	})

	summary, err := w.pipeline.RunAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Totals.Stale)

	stale, err := w.pipeline.Get(context.Background(), staleID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stale.Status)
	assert.Equal(t, "interrupted", stale.Error)

	fresh, err := w.pipeline.Get(context.Background(), freshID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusProcessing, fresh.Status)

	require.Len(t, w.shares.transitions, 1)
	assert.Equal(t, domain.StatusProcessing, w.shares.transitions[0].From)
	assert.Equal(t, domain.StatusFailed, w.shares.transitions[0].To)
	assert.Empty(t, w.client.calls)
}
