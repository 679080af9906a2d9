// Package caption drafts the base caption for a share and adapts it to each
// destination's formatting rules.
package caption

import "strings"

// Caption keeps the body separate from the call-to-action tail so that
// formatting can shorten the body without touching the link.
type Caption struct {
	Body string
	CTA  string
	Link string
	// Note is appended after the link on destinations where links are not
	// clickable.
	Note string
}

// Text renders the caption as posted.
func (c Caption) Text() string {
	tail := c.tail()
	switch {
	case c.Body == "":
		return tail
	case tail == "":
		return c.Body
	}
	return c.Body + "\n\n" + tail
}

func (c Caption) tail() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.CTA, c.Link, c.Note} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n")
}
