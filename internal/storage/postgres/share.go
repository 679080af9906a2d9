package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"autoshare/internal/domain"
	"autoshare/internal/lifecycle"
)

const uniqueViolation = "23505"

type ShareStore struct {
	db *sqlx.DB
}

func NewShareStore(db *sqlx.DB) *ShareStore {
	return &ShareStore{db: db}
}

type shareRow struct {
	ID               string         `db:"id"`
	OwnerID          string         `db:"owner_id"`
	DedupeKey        string         `db:"dedupe_key"`
	Title            string         `db:"title"`
	Link             string         `db:"link"`
	Excerpt          string         `db:"excerpt"`
	ImageURL         string         `db:"image_url"`
	Status           string         `db:"status"`
	GeneratedCaption sql.NullString `db:"generated_caption"`
	Outcomes         []byte         `db:"outcomes"`
	Error            string         `db:"error"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
	ProcessedAt      sql.NullTime   `db:"processed_at"`
}

const shareColumns = `id, owner_id, dedupe_key, title, link, excerpt, image_url, status,
	generated_caption, outcomes, error, created_at, updated_at, processed_at`

func (r shareRow) toDomain() (*domain.ShareRecord, error) {
	rec := &domain.ShareRecord{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		DedupeKey: r.DedupeKey,
		Snapshot: domain.Snapshot{
			Title:    r.Title,
			Link:     r.Link,
			Excerpt:  r.Excerpt,
			ImageURL: r.ImageURL,
		},
		Status:    domain.Status(r.Status),
		Error:     r.Error,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.GeneratedCaption.Valid {
		c := r.GeneratedCaption.String
		rec.GeneratedCaption = &c
	}
	if r.ProcessedAt.Valid {
		t := r.ProcessedAt.Time
		rec.ProcessedAt = &t
	}
	if len(r.Outcomes) > 0 {
		if err := json.Unmarshal(r.Outcomes, &rec.Outcomes); err != nil {
			return nil, fmt.Errorf("decode outcomes of %s: %w", r.ID, err)
		}
	}
	return rec, nil
}

// Create inserts a new record. The (owner_id, dedupe_key) constraint makes it
// the at-most-once guard: a duplicate returns domain.ErrAlreadyExists.
func (s *ShareStore) Create(ctx context.Context, record *domain.ShareRecord) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate id: %w", err)
	}
	now := time.Now().UTC()

	// The creation is audited like any later transition, in the same statement.
	query := `
		WITH created AS (
			INSERT INTO share_records (
				id, owner_id, dedupe_key, title, link, excerpt, image_url,
				status, error, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10
			)
			RETURNING id, status, error, created_at
		)
		INSERT INTO share_transitions (share_id, from_status, to_status, reason, at)
		SELECT id, '', status, error, created_at FROM created`

	_, err = GetExecutor(ctx, s.db).ExecContext(ctx, query,
		id.String(),
		record.OwnerID,
		record.DedupeKey,
		record.Snapshot.Title,
		record.Snapshot.Link,
		record.Snapshot.Excerpt,
		record.Snapshot.ImageURL,
		string(record.Status),
		record.Error,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyExists
		}
		return err
	}

	record.ID = id.String()
	record.CreatedAt = now
	record.UpdatedAt = now
	return nil
}

func (s *ShareStore) ExistsByDedupeKey(ctx context.Context, ownerID, dedupeKey string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
		`SELECT EXISTS (SELECT 1 FROM share_records WHERE owner_id = $1 AND dedupe_key = $2)`,
		ownerID, dedupeKey,
	)
	return exists, err
}

func (s *ShareStore) FindByID(ctx context.Context, id string) (*domain.ShareRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}

	var row shareRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row,
		`SELECT `+shareColumns+` FROM share_records WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return row.toDomain()
}

// ListByStatus returns up to limit records of an owner in the given status,
// oldest first.
func (s *ShareStore) ListByStatus(ctx context.Context, ownerID string, status domain.Status, limit int) ([]*domain.ShareRecord, error) {
	var rows []shareRow
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows,
		`SELECT `+shareColumns+` FROM share_records
		WHERE owner_id = $1 AND status = $2
		ORDER BY created_at, id
		LIMIT $3`,
		ownerID, string(status), limit,
	)
	if err != nil {
		return nil, err
	}

	records := make([]*domain.ShareRecord, 0, len(rows))
	for _, r := range rows {
		rec, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// UpdateStatus is a compare-and-swap on the current status.
func (s *ShareStore) UpdateStatus(ctx context.Context, id string, from, to domain.Status, reason string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE share_records SET status = $3, error = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), reason,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (s *ShareStore) SaveCaption(ctx context.Context, id, caption string) error {
	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE share_records SET generated_caption = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'PROCESSING'`,
		id, caption,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// Finalize writes the fan-out result of a PROCESSING record.
func (s *ShareStore) Finalize(
	ctx context.Context,
	id string,
	status domain.Status,
	outcomes []domain.DestinationOutcome,
	reason string,
	processedAt time.Time,
) error {
	if outcomes == nil {
		outcomes = []domain.DestinationOutcome{}
	}
	payload, err := json.Marshal(outcomes)
	if err != nil {
		return fmt.Errorf("encode outcomes: %w", err)
	}

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`UPDATE share_records
		SET status = $2, outcomes = $3::jsonb, error = $4, processed_at = $5, updated_at = $5
		WHERE id = $1 AND status = 'PROCESSING'`,
		id, string(status), string(payload), reason, processedAt,
	)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (s *ShareStore) RecordTransition(ctx context.Context, t lifecycle.Transition) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		`INSERT INTO share_transitions (share_id, from_status, to_status, reason, at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ShareID, string(t.From), string(t.To), t.Reason, t.At,
	)
	return err
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrStaleState
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
