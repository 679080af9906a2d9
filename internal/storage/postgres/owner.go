package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"autoshare/internal/domain"
	"autoshare/internal/quiethours"
)

type OwnerStore struct {
	db *sqlx.DB
}

func NewOwnerStore(db *sqlx.DB) *OwnerStore {
	return &OwnerStore{db: db}
}

type ownerRow struct {
	OwnerID           string         `db:"owner_id"`
	Enabled           bool           `db:"enabled"`
	FeedURL           string         `db:"feed_url"`
	AutoPublish       bool           `db:"auto_publish"`
	QuietHoursEnabled bool           `db:"quiet_hours_enabled"`
	QuietHoursStart   int            `db:"quiet_hours_start"`
	QuietHoursEnd     int            `db:"quiet_hours_end"`
	Destinations      pq.StringArray `db:"destinations"`
	DefaultImageURL   string         `db:"default_image_url"`
	AuthRef           string         `db:"auth_ref"`
	CaptionTone       string         `db:"caption_tone"`
}

const ownerColumns = `owner_id, enabled, feed_url, auto_publish, quiet_hours_enabled,
	quiet_hours_start, quiet_hours_end, destinations, default_image_url, auth_ref, caption_tone`

func (r ownerRow) toDomain() (domain.Owner, error) {
	dests, err := domain.ParseDestinations(r.Destinations)
	if err != nil {
		return domain.Owner{}, fmt.Errorf("owner %s: %w", r.OwnerID, err)
	}
	return domain.Owner{
		ID:          r.OwnerID,
		Enabled:     r.Enabled,
		FeedURL:     r.FeedURL,
		AutoPublish: r.AutoPublish,
		QuietHours: domain.QuietHours{
			Enabled:   r.QuietHoursEnabled,
			StartHour: r.QuietHoursStart,
			EndHour:   r.QuietHoursEnd,
		},
		Destinations:    dests,
		DefaultImageURL: r.DefaultImageURL,
		AuthRef:         r.AuthRef,
		CaptionTone:     r.CaptionTone,
	}, nil
}

// ListEnabled returns every owner with auto-distribution turned on.
func (s *OwnerStore) ListEnabled(ctx context.Context) ([]domain.Owner, error) {
	var rows []ownerRow
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows,
		`SELECT `+ownerColumns+` FROM owner_settings WHERE enabled ORDER BY owner_id`)
	if err != nil {
		return nil, err
	}

	owners := make([]domain.Owner, 0, len(rows))
	for _, r := range rows {
		o, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		owners = append(owners, o)
	}
	return owners, nil
}

func (s *OwnerStore) FindByID(ctx context.Context, ownerID string) (domain.Owner, error) {
	var row ownerRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row,
		`SELECT `+ownerColumns+` FROM owner_settings WHERE owner_id = $1`, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Owner{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Owner{}, err
	}
	return row.toDomain()
}

// Upsert creates or replaces an owner's settings. Quiet hours outside 0..23
// are rejected before reaching the database.
func (s *OwnerStore) Upsert(ctx context.Context, owner domain.Owner) error {
	if !quiethours.Validate(owner.QuietHours) {
		return fmt.Errorf("owner %s: quiet hours %d-%d out of range 0..23",
			owner.ID, owner.QuietHours.StartHour, owner.QuietHours.EndHour)
	}

	dests := make(pq.StringArray, 0, len(owner.Destinations))
	for _, d := range owner.Destinations {
		dests = append(dests, d.String())
	}

	query := `
		INSERT INTO owner_settings (
			owner_id, enabled, feed_url, auto_publish, quiet_hours_enabled,
			quiet_hours_start, quiet_hours_end, destinations, default_image_url,
			auth_ref, caption_tone
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
		ON CONFLICT (owner_id) DO UPDATE SET
			enabled = EXCLUDED.enabled,
			feed_url = EXCLUDED.feed_url,
			auto_publish = EXCLUDED.auto_publish,
			quiet_hours_enabled = EXCLUDED.quiet_hours_enabled,
			quiet_hours_start = EXCLUDED.quiet_hours_start,
			quiet_hours_end = EXCLUDED.quiet_hours_end,
			destinations = EXCLUDED.destinations,
			default_image_url = EXCLUDED.default_image_url,
			auth_ref = EXCLUDED.auth_ref,
			caption_tone = EXCLUDED.caption_tone,
			updated_at = NOW()`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		owner.ID,
		owner.Enabled,
		owner.FeedURL,
		owner.AutoPublish,
		owner.QuietHours.Enabled,
		owner.QuietHours.StartHour,
		owner.QuietHours.EndHour,
		dests,
		owner.DefaultImageURL,
		owner.AuthRef,
		owner.CaptionTone,
	)
	return err
}
