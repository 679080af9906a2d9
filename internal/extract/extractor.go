// Package extract scrapes an article page for the title, description and
// lead image used to enrich a feed item.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/patrickmn/go-cache"
)

const defaultMaxBodySize = 5 << 20

type Metadata struct {
	Title       string
	Description string
	ImageURL    string
	SiteName    string
}

type Config struct {
	Timeout     time.Duration
	CacheTTL    time.Duration
	MaxBodySize int64
	UserAgent   string
}

type Extractor struct {
	httpClient  *http.Client
	cache       *cache.Cache
	timeout     time.Duration
	maxBodySize int64
	userAgent   string
	logger      *slog.Logger
}

func New(client *http.Client, cfg Config, logger *slog.Logger) *Extractor {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaultMaxBodySize
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "autoshare/1.0"
	}
	return &Extractor{
		httpClient:  client,
		cache:       cache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		timeout:     cfg.Timeout,
		maxBodySize: cfg.MaxBodySize,
		userAgent:   cfg.UserAgent,
		logger:      logger.With("component", "extract"),
	}
}

// Extract fetches link and reads its metadata. Successful results are cached
// per URL; failures are not.
func (e *Extractor) Extract(ctx context.Context, link string) (Metadata, error) {
	if x, found := e.cache.Get(link); found {
		return x.(Metadata), nil
	}

	pageURL, err := url.Parse(link)
	if err != nil {
		return Metadata{}, fmt.Errorf("parse url: %w", err)
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	body, err := e.fetch(ctx, link)
	if err != nil {
		return Metadata{}, err
	}

	article, err := readability.FromReader(bytes.NewReader(body), pageURL)
	if err != nil {
		return Metadata{}, fmt.Errorf("extract article: %w", err)
	}

	meta := Metadata{
		Title:       strings.TrimSpace(article.Title),
		Description: strings.TrimSpace(article.Excerpt),
		ImageURL:    resolve(pageURL, strings.TrimSpace(article.Image)),
		SiteName:    strings.TrimSpace(article.SiteName),
	}

	e.cache.Set(link, meta, cache.DefaultExpiration)
	e.logger.Debug("extracted metadata", "url", link, "has_image", meta.ImageURL != "")

	return meta, nil
}

func (e *Extractor) fetch(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

func resolve(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}
