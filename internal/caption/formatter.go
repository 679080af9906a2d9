package caption

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"autoshare/internal/domain"
)

const ellipsis = "…"

const defaultLinkNote = "(Links aren't clickable here. Copy the address above to read the full article.)"

// Rule describes how a caption must be shaped for one destination.
type Rule struct {
	// MaxLength is the hard ceiling in characters; zero means unlimited.
	MaxLength      int
	ClickableLinks bool
	// LinkNote replaces the default note on non-clickable destinations.
	LinkNote string
}

// DefaultRules is the formatting table for the destination catalog.
var DefaultRules = map[domain.Destination]Rule{
	domain.DestinationX:         {MaxLength: 280, ClickableLinks: true},
	domain.DestinationLinkedIn:  {MaxLength: 3000, ClickableLinks: true},
	domain.DestinationFacebook:  {MaxLength: 63206, ClickableLinks: true},
	domain.DestinationInstagram: {MaxLength: 2200, ClickableLinks: false},
	domain.DestinationThreads:   {MaxLength: 500, ClickableLinks: true},
	domain.DestinationBluesky:   {MaxLength: 300, ClickableLinks: true},
	domain.DestinationMastodon:  {MaxLength: 500, ClickableLinks: true},
	domain.DestinationPinterest: {MaxLength: 500, ClickableLinks: true},
}

type Formatter struct {
	rules map[domain.Destination]Rule
}

// NewFormatter builds a formatter over rules and fails if any destination in
// required has no row. When required is non-empty the formatter keeps only
// those rows, so captions for any other destination are refused.
func NewFormatter(rules map[domain.Destination]Rule, required []domain.Destination) (*Formatter, error) {
	if len(required) == 0 {
		copied := make(map[domain.Destination]Rule, len(rules))
		for d, r := range rules {
			copied[d] = r
		}
		return &Formatter{rules: copied}, nil
	}

	var missing []string
	kept := make(map[domain.Destination]Rule, len(required))
	for _, d := range required {
		r, ok := rules[d]
		if !ok {
			missing = append(missing, d.String())
			continue
		}
		kept[d] = r
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("no formatting rule for destinations: %s", strings.Join(missing, ", "))
	}
	return &Formatter{rules: kept}, nil
}

// Format adapts the base caption to destination d. The link always survives:
// the body is truncated first, then the note and the call-to-action are
// dropped, and as a last resort only the link is posted.
func (f *Formatter) Format(d domain.Destination, base Caption) (string, error) {
	rule, ok := f.rules[d]
	if !ok {
		return "", fmt.Errorf("no formatting rule for destination %q", d)
	}

	c := base
	if !rule.ClickableLinks && c.Link != "" {
		c.Note = rule.LinkNote
		if c.Note == "" {
			c.Note = defaultLinkNote
		}
	}

	text := c.Text()
	if rule.MaxLength <= 0 || runeLen(text) <= rule.MaxLength {
		return text, nil
	}

	candidates := []Caption{
		c,
		{Body: c.Body, CTA: c.CTA, Link: c.Link},
		{Body: c.Body, Link: c.Link},
	}
	for _, cand := range candidates {
		if out, ok := truncateBody(cand, rule.MaxLength); ok {
			return out, nil
		}
	}

	return c.Link, nil
}

// truncateBody shortens the body so the whole caption fits in max runes.
// It reports false when not even one body character fits next to the tail.
func truncateBody(c Caption, max int) (string, bool) {
	if runeLen(c.Text()) <= max {
		return c.Text(), true
	}

	tail := c.tail()
	budget := max - runeLen(tail) - runeLen("\n\n") - runeLen(ellipsis)
	if budget <= 0 || c.Body == "" {
		return "", false
	}

	body := []rune(c.Body)
	cut := strings.TrimRight(string(body[:budget]), " \t\n")
	if cut == "" {
		return "", false
	}
	c.Body = cut + ellipsis
	return c.Text(), true
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
