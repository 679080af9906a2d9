package domain

// QuietHours is a per-owner window, in the reference timezone, during which
// new items are deferred. StartHour > EndHour wraps midnight.
type QuietHours struct {
	Enabled   bool
	StartHour int
	EndHour   int
}

// Owner is a user with auto-distribution configured.
type Owner struct {
	ID              string
	Enabled         bool
	FeedURL         string
	AutoPublish     bool
	QuietHours      QuietHours
	Destinations    []Destination
	DefaultImageURL string
	// AuthRef is the opaque credential handed to the destination publisher.
	AuthRef     string
	CaptionTone string
}
