// Package feed reads an owner's RSS/Atom/JSON feed into source items.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"autoshare/internal/domain"
)

const defaultMaxBodySize = 5 << 20

type Config struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	MaxBodySize    int64
	UserAgent      string
}

type Source struct {
	httpClient     *http.Client
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	maxBodySize    int64
	userAgent      string
	logger         *slog.Logger
}

// New builds a source on top of client. The caller decides the client's
// timeout and dial policy.
func New(client *http.Client, cfg Config, logger *slog.Logger) *Source {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "autoshare/1.0"
	}
	return &Source{
		httpClient:     client,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		maxBodySize:    cfg.MaxBodySize,
		userAgent:      cfg.UserAgent,
		logger:         logger.With("component", "feed"),
	}
}

// errPermanent marks responses that will not improve on retry.
var errPermanent = errors.New("permanent feed error")

// FetchItems returns the feed's items, oldest first.
func (s *Source) FetchItems(ctx context.Context, feedURL string) ([]domain.SourceItem, error) {
	var (
		parsed *gofeed.Feed
		err    error
	)

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		parsed, err = s.fetch(ctx, feedURL)
		if err == nil || errors.Is(err, errPermanent) {
			break
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("feed request failed, retrying",
			"feed_url", feedURL,
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", feedURL, err)
	}

	items := convert(parsed.Items)
	s.logger.Debug("fetched feed", "feed_url", feedURL, "items", len(items))
	return items, nil
}

func (s *Source) fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w: %w", errPermanent, err)
	}

	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/feed+json, application/xml;q=0.9, */*;q=0.8")
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: unexpected status: %d", errPermanent, resp.StatusCode)
	}

	parsed, err := gofeed.NewParser().Parse(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: parse feed: %w", errPermanent, err)
	}

	return parsed, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if s.maxBackoff > 0 && backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

// convert maps gofeed items to source items. Feeds list newest first, so the
// order is reversed before a stable sort on publication time.
func convert(items []*gofeed.Item) []domain.SourceItem {
	out := make([]domain.SourceItem, 0, len(items))

	for i := len(items) - 1; i >= 0; i-- {
		item := items[i]
		if item == nil {
			continue
		}

		link := strings.TrimSpace(item.Link)
		guid := strings.TrimSpace(item.GUID)
		if link == "" && isHTTPURL(guid) {
			link = guid
		}

		sourceID := guid
		if sourceID == "" {
			sourceID = link
		}
		if sourceID == "" {
			sourceID = strings.TrimSpace(item.Title)
		}

		si := domain.SourceItem{
			SourceID:      sourceID,
			CanonicalLink: link,
			Title:         strings.TrimSpace(item.Title),
			Excerpt:       item.Description,
			ImageHint:     imageHint(item),
		}
		if si.Excerpt == "" {
			si.Excerpt = item.Content
		}

		if item.PublishedParsed != nil {
			si.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			si.PublishedAt = *item.UpdatedParsed
		}

		out = append(out, si)
	}

	slices.SortStableFunc(out, func(a, b domain.SourceItem) int {
		return a.PublishedAt.Compare(b.PublishedAt)
	})

	return out
}

func imageHint(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return ""
}

func isHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
