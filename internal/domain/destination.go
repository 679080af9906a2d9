package domain

import (
	"fmt"
	"strings"
)

// Destination identifies a publishing platform. The set is closed: adding a
// platform means adding a constant plus a row in every destination table.
type Destination string

const (
	DestinationX         Destination = "x"
	DestinationLinkedIn  Destination = "linkedin"
	DestinationFacebook  Destination = "facebook"
	DestinationInstagram Destination = "instagram"
	DestinationThreads   Destination = "threads"
	DestinationBluesky   Destination = "bluesky"
	DestinationMastodon  Destination = "mastodon"
	DestinationPinterest Destination = "pinterest"
)

// Capability describes what a destination demands of a post.
type Capability struct {
	RequiresMedia bool
}

var capabilities = map[Destination]Capability{
	DestinationX:         {},
	DestinationLinkedIn:  {},
	DestinationFacebook:  {},
	DestinationInstagram: {RequiresMedia: true},
	DestinationThreads:   {},
	DestinationBluesky:   {},
	DestinationMastodon:  {},
	DestinationPinterest: {RequiresMedia: true},
}

// AllDestinations returns the catalog in a stable order.
func AllDestinations() []Destination {
	return []Destination{
		DestinationX,
		DestinationLinkedIn,
		DestinationFacebook,
		DestinationInstagram,
		DestinationThreads,
		DestinationBluesky,
		DestinationMastodon,
		DestinationPinterest,
	}
}

func ParseDestination(s string) (Destination, error) {
	d := Destination(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := capabilities[d]; !ok {
		return "", fmt.Errorf("unknown destination %q", s)
	}
	return d, nil
}

func ParseDestinations(names []string) ([]Destination, error) {
	out := make([]Destination, 0, len(names))
	seen := make(map[Destination]bool, len(names))
	for _, n := range names {
		d, err := ParseDestination(n)
		if err != nil {
			return nil, err
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out = append(out, d)
	}
	return out, nil
}

// Capability returns the capability row for d. Unknown destinations report
// ok == false.
func (d Destination) Capability() (Capability, bool) {
	c, ok := capabilities[d]
	return c, ok
}

func (d Destination) String() string {
	return string(d)
}
