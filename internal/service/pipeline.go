package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"autoshare/internal/caption"
	"autoshare/internal/config"
	"autoshare/internal/dedup"
	"autoshare/internal/domain"
	"autoshare/internal/fanout"
	"autoshare/internal/metrics"
	"autoshare/internal/notify"
)

// itemResult is how one item ended up in a pass. It doubles as the metrics
// label.
type itemResult string

const (
	resultPublished itemResult = "published"
	resultPartial   itemResult = "partial"
	resultFailed    itemResult = "failed"
	resultDraft     itemResult = "draft"
	resultQueued    itemResult = "queued"
	resultSkipped   itemResult = "skipped"
	resultDuplicate itemResult = "duplicate"
)

const (
	reasonDismissed   = "dismissed by owner"
	reasonInterrupted = "interrupted"
)

// sweepLimit bounds the stale PROCESSING records examined per owner and pass.
const sweepLimit = 100

// finalizeAttempts is how often a finalize write is tried before the record
// is failed instead.
const finalizeAttempts = 2

type Deps struct {
	Owners    OwnerStore
	Shares    ShareStore
	Lifecycle Lifecycle
	Source    Source
	// Extractor is optional; without it items keep their feed metadata.
	Extractor Extractor
	Composer  Composer
	Publisher Publisher
	// Notifier is optional.
	Notifier Notifier
	Gate     QuietGate
	Metrics  metrics.MetricsCollector
	// Destinations is the deployment allowlist. Owner destinations outside
	// it are ignored; an empty list allows the whole catalog.
	Destinations []domain.Destination
}

// Pipeline runs feed items through dedup, gating, caption composition and
// fan-out for every enabled owner.
type Pipeline struct {
	owners    OwnerStore
	shares    ShareStore
	ledger    *dedup.Ledger
	lifecycle Lifecycle
	source    Source
	extractor Extractor
	composer  Composer
	publisher Publisher
	notifier  Notifier
	gate      QuietGate
	metrics   metrics.MetricsCollector
	allowed   map[domain.Destination]bool
	logger    *slog.Logger
	config    config.PipelineConfig
	now       func() time.Time
}

func NewPipeline(deps Deps, logger *slog.Logger, cfg config.PipelineConfig) *Pipeline {
	m := deps.Metrics
	if m == nil {
		m = metrics.Nop{}
	}
	var allowed map[domain.Destination]bool
	if len(deps.Destinations) > 0 {
		allowed = make(map[domain.Destination]bool, len(deps.Destinations))
		for _, d := range deps.Destinations {
			allowed[d] = true
		}
	}
	return &Pipeline{
		owners:    deps.Owners,
		shares:    deps.Shares,
		ledger:    dedup.NewLedger(deps.Shares),
		lifecycle: deps.Lifecycle,
		source:    deps.Source,
		extractor: deps.Extractor,
		composer:  deps.Composer,
		publisher: deps.Publisher,
		notifier:  deps.Notifier,
		gate:      deps.Gate,
		metrics:   m,
		allowed:   allowed,
		logger:    logger.With("component", "pipeline"),
		config:    cfg,
		now:       time.Now,
	}
}

// RunAll runs one batch per enabled owner under the configured batch
// timeout. It fails only when the owners cannot be listed; everything else
// ends up in the summary.
func (p *Pipeline) RunAll(ctx context.Context) (domain.RunSummary, error) {
	startTime := time.Now()

	if p.config.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.BatchTimeout)
		defer cancel()
	}

	owners, err := p.owners.ListEnabled(ctx)
	if err != nil {
		return domain.RunSummary{}, fmt.Errorf("list owners: %w", err)
	}

	summary := domain.RunSummary{Owners: len(owners)}
	for _, owner := range owners {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}

		res := p.RunBatch(ctx, owner)
		summary.Results = append(summary.Results, res)
		summary.Totals.Add(res)
		if res.FetchFailed {
			summary.FetchErrors++
		}
		if res.Interrupted {
			summary.Interrupted = true
		}
	}
	summary.Duration = time.Since(startTime)

	p.logger.Info("run completed",
		"owners", summary.Owners,
		"fetch_errors", summary.FetchErrors,
		"processed", summary.Totals.Processed,
		"published", summary.Totals.Published,
		"partial", summary.Totals.Partial,
		"drafts", summary.Totals.Drafts,
		"queued", summary.Totals.Queued,
		"failed", summary.Totals.Failed,
		"skipped", summary.Totals.Skipped,
		"interrupted", summary.Interrupted,
		"duration", summary.Duration,
	)

	return summary, nil
}

// RunBatch processes up to MaxItemsPerRun items for one owner: first the
// records deferred by quiet hours, then new feed items. Once ctx is done no
// new item is started; an item already started runs to its terminal state.
func (p *Pipeline) RunBatch(ctx context.Context, owner domain.Owner) domain.BatchResult {
	startTime := time.Now()
	logger := p.logger.With("owner_id", owner.ID)
	res := domain.BatchResult{OwnerID: owner.ID}

	defer func() {
		res.Duration = time.Since(startTime)
		p.metrics.RecordBatch(res.Duration)
	}()

	if p.config.StaleAfter > 0 {
		res.Stale = p.sweepStale(ctx, logger, owner.ID)
	}

	budget := p.config.MaxItemsPerRun
	quiet := p.gate.IsQuiet(owner.QuietHours)

	if !quiet {
		queued, err := p.shares.ListByStatus(ctx, owner.ID, domain.StatusQueued, budget)
		if err != nil {
			logger.Error("failed to list queued shares", "error", err)
		}
		for _, rec := range queued {
			if ctx.Err() != nil {
				res.Interrupted = true
				return res
			}
			budget--
			tally(&res, p.resumeQueued(context.WithoutCancel(ctx), owner, rec))
		}
	}

	if budget <= 0 {
		logger.Info("item cap reached by queued shares", "processed", res.Processed)
		return res
	}
	if ctx.Err() != nil {
		res.Interrupted = true
		return res
	}

	items, err := p.source.FetchItems(ctx, owner.FeedURL)
	if err != nil {
		res.FetchFailed = true
		p.metrics.RecordFetchFailure()
		logger.Error("failed to fetch feed", "feed_url", owner.FeedURL, "error", err)
		return res
	}
	res.Fetched = len(items)

	for _, item := range items {
		if budget <= 0 {
			break
		}
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}

		result := p.processItem(context.WithoutCancel(ctx), owner, item, quiet)
		if result != resultDuplicate {
			budget--
		}
		tally(&res, result)
	}

	logger.Info("batch completed",
		"fetched", res.Fetched,
		"processed", res.Processed,
		"published", res.Published,
		"partial", res.Partial,
		"drafts", res.Drafts,
		"queued", res.Queued,
		"failed", res.Failed,
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
		"stale", res.Stale,
		"interrupted", res.Interrupted,
		"duration", time.Since(startTime),
	)

	return res
}

// sweepStale fails PROCESSING records no pass has touched for StaleAfter,
// such as those left behind by a crash or an unrecoverable finalize error.
func (p *Pipeline) sweepStale(ctx context.Context, logger *slog.Logger, ownerID string) int {
	recs, err := p.shares.ListByStatus(ctx, ownerID, domain.StatusProcessing, sweepLimit)
	if err != nil {
		logger.Error("failed to list processing shares", "error", err)
		return 0
	}

	cutoff := p.now().Add(-p.config.StaleAfter)
	swept := 0
	for _, rec := range recs {
		if !rec.UpdatedAt.Before(cutoff) {
			continue
		}

		recLogger := logger.With("share_id", rec.ID)
		if err := p.lifecycle.Fail(ctx, rec, reasonInterrupted); err != nil {
			recLogger.Error("failed to fail stale share", "error", err)
			continue
		}
		swept++
		p.metrics.RecordItem(string(resultFailed))
		p.notify(ctx, recLogger, notify.EventFinalized, rec)
	}

	if swept > 0 {
		logger.Warn("stale processing shares failed", "count", swept)
	}
	return swept
}

func tally(res *domain.BatchResult, r itemResult) {
	if r == resultDuplicate {
		res.Skipped++
		res.Duplicates++
		return
	}

	res.Processed++
	switch r {
	case resultPublished:
		res.Published++
	case resultPartial:
		res.Partial++
	case resultDraft:
		res.Drafts++
	case resultQueued:
		res.Queued++
	case resultSkipped:
		res.Skipped++
	default:
		res.Failed++
	}
}

func (p *Pipeline) processItem(ctx context.Context, owner domain.Owner, item domain.SourceItem, quiet bool) (result itemResult) {
	logger := p.logger.With("owner_id", owner.ID, "source_id", item.SourceID)

	var rec *domain.ShareRecord
	defer p.recoverItem(ctx, logger, &rec, &result)

	key := dedup.KeyFor(item)
	exists, err := p.ledger.Exists(ctx, owner.ID, key)
	if err != nil {
		logger.Error("dedupe check failed", "error", err)
		return resultFailed
	}
	if exists {
		logger.Debug("duplicate item skipped")
		return resultDuplicate
	}

	snap := domain.Snapshot{
		Title:    item.Title,
		Link:     item.CanonicalLink,
		Excerpt:  item.Excerpt,
		ImageURL: item.ImageHint,
	}

	if item.CanonicalLink == "" {
		_, err := p.ledger.Reserve(ctx, owner.ID, key, snap, domain.StatusSkipped, domain.ErrNoArticleLink.Error())
		return p.reserved(logger, err, resultSkipped)
	}

	snap = p.enrich(ctx, logger, snap)

	initial := domain.StatusProcessing
	switch {
	case !owner.AutoPublish:
		initial = domain.StatusDraft
	case quiet:
		initial = domain.StatusQueued
	}

	rec, err = p.ledger.Reserve(ctx, owner.ID, key, snap, initial, "")
	switch initial {
	case domain.StatusDraft:
		result = p.reserved(logger, err, resultDraft)
		if result == resultDraft {
			p.notify(ctx, logger, notify.EventDrafted, rec)
		}
		return result
	case domain.StatusQueued:
		result = p.reserved(logger, err, resultQueued)
		if result == resultQueued {
			p.notify(ctx, logger, notify.EventQueued, rec)
		}
		return result
	}

	if result = p.reserved(logger, err, ""); result != "" {
		return result
	}
	return p.publish(ctx, logger.With("share_id", rec.ID), owner, rec)
}

// reserved maps the outcome of a ledger reservation to an item result.
func (p *Pipeline) reserved(logger *slog.Logger, err error, onSuccess itemResult) itemResult {
	switch {
	case err == nil:
		return onSuccess
	case errors.Is(err, domain.ErrAlreadyExists):
		logger.Debug("item reserved by a concurrent pass")
		return resultDuplicate
	default:
		logger.Error("failed to reserve item", "error", err)
		return resultFailed
	}
}

func (p *Pipeline) resumeQueued(ctx context.Context, owner domain.Owner, rec *domain.ShareRecord) (result itemResult) {
	logger := p.logger.With("owner_id", owner.ID, "share_id", rec.ID)
	defer p.recoverItem(ctx, logger, &rec, &result)

	if err := p.lifecycle.Transition(ctx, rec, domain.StatusProcessing, "quiet hours ended"); err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			logger.Info("queued share changed before pickup", "error", err)
			return resultSkipped
		}
		logger.Error("failed to resume queued share", "error", err)
		return resultFailed
	}

	return p.publish(ctx, logger, owner, rec)
}

// enrich prefers page metadata over feed metadata. Extraction failures keep
// the feed values.
func (p *Pipeline) enrich(ctx context.Context, logger *slog.Logger, snap domain.Snapshot) domain.Snapshot {
	if p.extractor == nil {
		return snap
	}

	meta, err := p.extractor.Extract(ctx, snap.Link)
	if err != nil {
		logger.Warn("metadata extraction failed, using feed metadata", "link", snap.Link, "error", err)
		return snap
	}

	if meta.Title != "" {
		snap.Title = meta.Title
	}
	if meta.Description != "" {
		snap.Excerpt = meta.Description
	}
	if meta.ImageURL != "" {
		snap.ImageURL = meta.ImageURL
	}
	return snap
}

// publish drives a PROCESSING record to its terminal state.
func (p *Pipeline) publish(ctx context.Context, logger *slog.Logger, owner domain.Owner, rec *domain.ShareRecord) itemResult {
	base, source := p.composer.Compose(ctx, rec.Snapshot, caption.Prefs{Tone: owner.CaptionTone})
	p.metrics.RecordCaptionSource(string(source))

	text := base.Text()
	if err := p.shares.SaveCaption(ctx, rec.ID, text); err != nil {
		return p.failRecord(ctx, logger, rec, fmt.Errorf("save caption: %w", err))
	}
	rec.GeneratedCaption = &text

	destinations := p.destinationsFor(logger, owner)
	if len(destinations) == 0 {
		return p.failRecord(ctx, logger, rec, domain.ErrNoDestinations)
	}

	media := rec.Snapshot.ImageURL
	if media == "" {
		media = owner.DefaultImageURL
	}

	outcomes := p.publisher.PublishAll(ctx, fanout.Request{
		ShareID:      rec.ID,
		Caption:      base,
		MediaURL:     media,
		Destinations: destinations,
		AuthRef:      owner.AuthRef,
	})
	for _, o := range outcomes {
		p.metrics.RecordDestinationOutcome(o.Destination.String(), string(o.Outcome))
	}

	if err := p.finalize(ctx, logger, rec, outcomes); err != nil {
		if errors.Is(err, domain.ErrStaleState) {
			logger.Error("share finalized concurrently", "error", err)
			return resultFailed
		}
		return p.failRecord(ctx, logger, rec, err)
	}

	p.notify(ctx, logger, notify.EventFinalized, rec)
	return resultForStatus(rec.Status)
}

func (p *Pipeline) finalize(ctx context.Context, logger *slog.Logger, rec *domain.ShareRecord, outcomes []domain.DestinationOutcome) error {
	var err error
	for attempt := 1; attempt <= finalizeAttempts; attempt++ {
		if err = p.lifecycle.Finalize(ctx, rec, outcomes, ""); err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrStaleState) {
			return err
		}
		logger.Warn("failed to finalize share", "attempt", attempt, "error", err)
	}
	return err
}

// destinationsFor returns the owner's destinations that this deployment
// publishes to, in the owner's order.
func (p *Pipeline) destinationsFor(logger *slog.Logger, owner domain.Owner) []domain.Destination {
	if p.allowed == nil {
		return owner.Destinations
	}

	out := make([]domain.Destination, 0, len(owner.Destinations))
	for _, d := range owner.Destinations {
		if !p.allowed[d] {
			logger.Warn("destination not enabled for this deployment, ignoring", "destination", d)
			continue
		}
		out = append(out, d)
	}
	return out
}

// failRecord moves a PROCESSING record to FAILED with err as the reason.
func (p *Pipeline) failRecord(ctx context.Context, logger *slog.Logger, rec *domain.ShareRecord, cause error) itemResult {
	logger.Error("share failed", "error", cause)

	if rec == nil || rec.Status != domain.StatusProcessing {
		return resultFailed
	}
	if err := p.lifecycle.Fail(ctx, rec, cause.Error()); err != nil {
		logger.Error("failed to mark share failed", "error", err)
		return resultFailed
	}

	p.notify(ctx, logger, notify.EventFinalized, rec)
	return resultFailed
}

// recoverItem turns a panic inside one item into a FAILED record so the
// batch continues.
func (p *Pipeline) recoverItem(ctx context.Context, logger *slog.Logger, rec **domain.ShareRecord, result *itemResult) {
	r := recover()
	if r != nil {
		cause := fmt.Errorf("unexpected item error: %v", r)
		logger.Error("item panicked", "panic", r, "stack", string(debug.Stack()))

		current := *rec
		if current != nil && current.Status.IsTerminal() {
			*result = resultForStatus(current.Status)
		} else {
			*result = p.failRecord(ctx, logger, current, cause)
		}
	}

	p.metrics.RecordItem(string(*result))
}

func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, event notify.Event, rec *domain.ShareRecord) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, event, rec); err != nil {
		logger.Warn("failed to notify owner", "event", event, "share_id", rec.ID, "error", err)
	}
}

func resultForStatus(s domain.Status) itemResult {
	switch s {
	case domain.StatusPublished:
		return resultPublished
	case domain.StatusPartial:
		return resultPartial
	case domain.StatusDraft:
		return resultDraft
	case domain.StatusQueued:
		return resultQueued
	case domain.StatusSkipped:
		return resultSkipped
	}
	return resultFailed
}

// Get returns a share record with its outcomes.
func (p *Pipeline) Get(ctx context.Context, shareID string) (*domain.ShareRecord, error) {
	rec, err := p.shares.FindByID(ctx, shareID)
	if err != nil {
		return nil, fmt.Errorf("find share: %w", err)
	}
	return rec, nil
}

// Approve publishes a DRAFT record now, regardless of quiet hours.
func (p *Pipeline) Approve(ctx context.Context, shareID string) (*domain.ShareRecord, error) {
	rec, err := p.shares.FindByID(ctx, shareID)
	if err != nil {
		return nil, fmt.Errorf("find share: %w", err)
	}
	if rec.Status != domain.StatusDraft {
		return rec, domain.TransitionError{From: rec.Status, To: domain.StatusProcessing}
	}

	owner, err := p.owners.FindByID(ctx, rec.OwnerID)
	if err != nil {
		return rec, fmt.Errorf("find owner: %w", err)
	}

	if err := p.lifecycle.Transition(ctx, rec, domain.StatusProcessing, "approved by owner"); err != nil {
		return rec, err
	}

	logger := p.logger.With("owner_id", owner.ID, "share_id", rec.ID)
	var result itemResult
	func() {
		defer p.recoverItem(ctx, logger, &rec, &result)
		result = p.publish(ctx, logger, owner, rec)
	}()

	logger.Info("draft approved", "status", rec.Status, "result", result)
	return rec, nil
}

// Dismiss skips a DRAFT or QUEUED record.
func (p *Pipeline) Dismiss(ctx context.Context, shareID string) (*domain.ShareRecord, error) {
	rec, err := p.shares.FindByID(ctx, shareID)
	if err != nil {
		return nil, fmt.Errorf("find share: %w", err)
	}

	if err := p.lifecycle.Transition(ctx, rec, domain.StatusSkipped, reasonDismissed); err != nil {
		return rec, err
	}

	p.logger.Info("share dismissed", "owner_id", rec.OwnerID, "share_id", rec.ID)
	return rec, nil
}
