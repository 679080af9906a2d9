package caption

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"autoshare/internal/domain"
)

// Generator drafts caption text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Source tells which tier produced a caption.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceTemplate  Source = "template"
)

type Config struct {
	Timeout time.Duration
	CTA     string
}

// Prefs are the owner's caption preferences.
type Prefs struct {
	Tone string
}

type Composer struct {
	generator Generator
	strip     *bluemonday.Policy
	timeout   time.Duration
	cta       string
	logger    *slog.Logger
}

// NewComposer creates a composer. A nil generator always uses the template.
func NewComposer(generator Generator, cfg Config, logger *slog.Logger) *Composer {
	return &Composer{
		generator: generator,
		strip:     bluemonday.StrictPolicy(),
		timeout:   cfg.Timeout,
		cta:       cfg.CTA,
		logger:    logger.With("component", "caption"),
	}
}

// Compose produces the base caption for a snapshot. Generation failures are
// not errors: the deterministic template is used instead.
func (c *Composer) Compose(ctx context.Context, snap domain.Snapshot, prefs Prefs) (Caption, Source) {
	if body, err := c.generate(ctx, snap, prefs); err != nil {
		c.logger.Warn("caption generation failed, using template",
			"link", snap.Link,
			"error", err,
		)
	} else {
		return Caption{Body: body, CTA: c.cta, Link: snap.Link}, SourceGenerated
	}

	return c.template(snap), SourceTemplate
}

func (c *Composer) generate(ctx context.Context, snap domain.Snapshot, prefs Prefs) (string, error) {
	if c.generator == nil {
		return "", fmt.Errorf("no generator configured")
	}

	genCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.generator.Generate(genCtx, c.prompt(snap, prefs))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	body := c.cleanText(out)
	if snap.Link != "" {
		body = strings.TrimSpace(strings.ReplaceAll(body, snap.Link, ""))
	}
	if body == "" {
		return "", fmt.Errorf("generator returned empty caption")
	}
	return body, nil
}

func (c *Composer) template(snap domain.Snapshot) Caption {
	body := c.cleanText(snap.Excerpt)
	if body == "" {
		body = c.cleanText(snap.Title)
	}
	return Caption{Body: body, CTA: c.cta, Link: snap.Link}
}

// cleanText strips markup and collapses whitespace.
func (c *Composer) cleanText(s string) string {
	s = html.UnescapeString(c.strip.Sanitize(s))
	return strings.Join(strings.Fields(s), " ")
}

func (c *Composer) prompt(snap domain.Snapshot, prefs Prefs) string {
	tone := prefs.Tone
	if tone == "" {
		tone = "friendly and professional"
	}

	var sb strings.Builder
	sb.WriteString("Write a short social media post announcing a new article.\n")
	fmt.Fprintf(&sb, "Tone: %s.\n", tone)
	sb.WriteString("Do not include any URL, the link is added separately. At most two hashtags.\n\n")
	fmt.Fprintf(&sb, "Title: %s\n", c.cleanText(snap.Title))
	if ex := c.cleanText(snap.Excerpt); ex != "" {
		fmt.Fprintf(&sb, "Summary: %s\n", ex)
	}
	return sb.String()
}
