// Package quiethours decides whether new items must be deferred.
package quiethours

import (
	"time"

	"autoshare/internal/domain"
)

// IsQuietNow reports whether now falls inside cfg's window, evaluated as an
// hour of day in loc. A nil loc means UTC.
func IsQuietNow(cfg domain.QuietHours, now time.Time, loc *time.Location) bool {
	if !cfg.Enabled {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}

	hour := now.In(loc).Hour()
	if cfg.StartHour <= cfg.EndHour {
		return cfg.StartHour <= hour && hour < cfg.EndHour
	}
	return hour >= cfg.StartHour || hour < cfg.EndHour
}

// Gate binds the reference timezone and clock.
type Gate struct {
	loc *time.Location
	now func() time.Time
}

func NewGate(loc *time.Location) *Gate {
	if loc == nil {
		loc = time.UTC
	}
	return &Gate{loc: loc, now: time.Now}
}

func (g *Gate) IsQuiet(cfg domain.QuietHours) bool {
	return IsQuietNow(cfg, g.now(), g.loc)
}

// Validate checks that both hours are within 0..23.
func Validate(cfg domain.QuietHours) bool {
	return cfg.StartHour >= 0 && cfg.StartHour <= 23 && cfg.EndHour >= 0 && cfg.EndHour <= 23
}
