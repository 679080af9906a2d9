// Package fanout publishes one caption to many destinations, retrying each
// destination independently.
package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"autoshare/internal/caption"
	"autoshare/internal/domain"
)

// DefaultMaxRetries bounds publish attempts per destination.
const DefaultMaxRetries = 3

// Content is what gets posted to one destination.
type Content struct {
	Caption  string
	MediaURL string
}

// Result is the platform's reference to a published post.
type Result struct {
	ExternalRef string
	ExternalURL string
}

// Client performs a single publish call.
type Client interface {
	Publish(ctx context.Context, dest domain.Destination, content Content, authRef string) (Result, error)
}

type Formatter interface {
	Format(d domain.Destination, base caption.Caption) (string, error)
}

// AttemptRecorder observes every publish attempt.
type AttemptRecorder interface {
	RecordPublishAttempt(destination string, duration time.Duration, success bool)
}

type Config struct {
	MaxRetries int
	// BaseDelay is multiplied by the attempt number between attempts.
	BaseDelay time.Duration
	// PacingDelay spaces consecutive calls toward the same destination and
	// staggers the start of successive destinations.
	PacingDelay    time.Duration
	AttemptTimeout time.Duration
	// Parallel runs one worker per destination.
	Parallel bool
}

// Request is one item's fan-out.
type Request struct {
	ShareID      string
	Caption      caption.Caption
	MediaURL     string
	Destinations []domain.Destination
	AuthRef      string
}

type Publisher struct {
	client    Client
	formatter Formatter
	recorder  AttemptRecorder
	cfg       Config
	logger    *slog.Logger

	mu       sync.Mutex
	limiters map[domain.Destination]*rate.Limiter
}

func NewPublisher(client Client, formatter Formatter, recorder AttemptRecorder, cfg Config, logger *slog.Logger) *Publisher {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	return &Publisher{
		client:    client,
		formatter: formatter,
		recorder:  recorder,
		cfg:       cfg,
		logger:    logger.With("component", "fanout"),
		limiters:  make(map[domain.Destination]*rate.Limiter),
	}
}

// PublishAll returns exactly one outcome per destination, in request order.
// A failing destination never prevents the others from being attempted.
func (p *Publisher) PublishAll(ctx context.Context, req Request) []domain.DestinationOutcome {
	outcomes := make([]domain.DestinationOutcome, len(req.Destinations))

	if !p.cfg.Parallel {
		for i, d := range req.Destinations {
			if i > 0 && p.cfg.PacingDelay > 0 {
				_ = sleep(ctx, p.cfg.PacingDelay)
			}
			outcomes[i] = p.publishOne(ctx, req, d)
		}
		return outcomes
	}

	var wg sync.WaitGroup
	for i, d := range req.Destinations {
		wg.Add(1)
		go func(i int, d domain.Destination) {
			defer wg.Done()
			if i > 0 && p.cfg.PacingDelay > 0 {
				_ = sleep(ctx, time.Duration(i)*p.cfg.PacingDelay)
			}
			outcomes[i] = p.publishOne(ctx, req, d)
		}(i, d)
	}
	wg.Wait()

	return outcomes
}

func (p *Publisher) publishOne(ctx context.Context, req Request, d domain.Destination) domain.DestinationOutcome {
	out := domain.DestinationOutcome{Destination: d}
	logger := p.logger.With("share_id", req.ShareID, "destination", d)

	capability, ok := d.Capability()
	if !ok {
		out.Outcome = domain.OutcomeFailed
		out.Error = fmt.Sprintf("unknown destination %q", d)
		return out
	}
	if capability.RequiresMedia && req.MediaURL == "" {
		out.Outcome = domain.OutcomeSkipped
		out.Error = domain.ErrRequiresMedia.Error()
		logger.Info("destination skipped", "reason", out.Error)
		return out
	}

	text, err := p.formatter.Format(d, req.Caption)
	if err != nil {
		out.Outcome = domain.OutcomeFailed
		out.Error = fmt.Sprintf("format caption: %v", err)
		return out
	}
	content := Content{Caption: text, MediaURL: req.MediaURL}

	var lastErr error
	for attempt := 1; attempt <= p.cfg.MaxRetries; attempt++ {
		if err := p.limiter(d).Wait(ctx); err != nil {
			lastErr = err
			break
		}

		out.Attempts = attempt
		res, err := p.attempt(ctx, d, content, req.AuthRef)
		if err == nil {
			out.Outcome = domain.OutcomePublished
			out.ExternalRef = res.ExternalRef
			out.ExternalURL = res.ExternalURL
			logger.Info("published", "attempts", attempt, "external_ref", res.ExternalRef)
			return out
		}
		lastErr = err

		if attempt == p.cfg.MaxRetries {
			break
		}

		backoff := p.cfg.BaseDelay * time.Duration(attempt)
		logger.Warn("publish failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)
		if err := sleep(ctx, backoff); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
	}

	out.Outcome = domain.OutcomeFailed
	out.Error = lastErr.Error()
	logger.Warn("publish failed", "attempts", out.Attempts, "error", lastErr)
	return out
}

func (p *Publisher) attempt(ctx context.Context, d domain.Destination, content Content, authRef string) (Result, error) {
	attemptCtx := ctx
	if p.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		attemptCtx, cancel = context.WithTimeout(ctx, p.cfg.AttemptTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := p.client.Publish(attemptCtx, d, content, authRef)
	if p.recorder != nil {
		p.recorder.RecordPublishAttempt(d.String(), time.Since(start), err == nil)
	}
	return res, err
}

// limiter returns the pacing limiter for d. Limiters live as long as the
// publisher so pacing also holds across items of a batch.
func (p *Publisher) limiter(d domain.Destination) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()

	l, ok := p.limiters[d]
	if !ok {
		limit := rate.Inf
		if p.cfg.PacingDelay > 0 {
			limit = rate.Every(p.cfg.PacingDelay)
		}
		l = rate.NewLimiter(limit, 1)
		p.limiters[d] = l
	}
	return l
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
