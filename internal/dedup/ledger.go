// Package dedup derives stable keys for feed items and guards at-most-once
// creation of share records.
package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"autoshare/internal/domain"
)

// separator sits between the two key components so that the position of the
// link never shifts, even when it is empty.
const separator = "\x1f"

// Key returns the dedupe key for a (sourceID, canonicalLink) pair.
func Key(sourceID, canonicalLink string) string {
	sum := sha256.Sum256([]byte(sourceID + separator + canonicalLink))
	return hex.EncodeToString(sum[:])
}

// KeyFor returns the dedupe key for an item.
func KeyFor(item domain.SourceItem) string {
	return Key(item.SourceID, item.CanonicalLink)
}

// Store is the persistence the ledger needs. Create must fail with
// domain.ErrAlreadyExists when (owner, dedupe key) is already present.
type Store interface {
	ExistsByDedupeKey(ctx context.Context, ownerID, dedupeKey string) (bool, error)
	Create(ctx context.Context, record *domain.ShareRecord) error
}

type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Exists reports whether an item with this key was already recorded for the owner.
func (l *Ledger) Exists(ctx context.Context, ownerID, dedupeKey string) (bool, error) {
	exists, err := l.store.ExistsByDedupeKey(ctx, ownerID, dedupeKey)
	if err != nil {
		return false, fmt.Errorf("check dedupe key: %w", err)
	}
	return exists, nil
}

// Reserve atomically creates the share record for dedupeKey in the given
// initial status. Losing a race to a concurrent pass returns
// domain.ErrAlreadyExists.
func (l *Ledger) Reserve(
	ctx context.Context,
	ownerID, dedupeKey string,
	snapshot domain.Snapshot,
	initial domain.Status,
	reason string,
) (*domain.ShareRecord, error) {
	record := &domain.ShareRecord{
		OwnerID:   ownerID,
		DedupeKey: dedupeKey,
		Snapshot:  snapshot,
		Status:    initial,
		Error:     reason,
	}

	if err := l.store.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("create share record: %w", err)
	}

	return record, nil
}
