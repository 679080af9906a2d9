// Package lifecycle enforces the allowed status transitions of a share record
// and persists each one atomically together with its audit row.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"autoshare/internal/domain"
)

var allowed = map[domain.Status][]domain.Status{
	domain.StatusDraft:      {domain.StatusProcessing, domain.StatusSkipped},
	domain.StatusQueued:     {domain.StatusProcessing, domain.StatusSkipped},
	domain.StatusProcessing: {domain.StatusPublished, domain.StatusPartial, domain.StatusFailed},
}

var initial = []domain.Status{
	domain.StatusDraft,
	domain.StatusQueued,
	domain.StatusProcessing,
	domain.StatusSkipped,
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to domain.Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ValidateInitial checks the status a record may be created with.
func ValidateInitial(s domain.Status) error {
	for _, st := range initial {
		if st == s {
			return nil
		}
	}
	return domain.TransitionError{From: "", To: s}
}

type Transition struct {
	ShareID string
	From    domain.Status
	To      domain.Status
	Reason  string
	At      time.Time
}

type Store interface {
	// UpdateStatus moves id from -> to only if it is still in from, and
	// returns domain.ErrStaleState otherwise.
	UpdateStatus(ctx context.Context, id string, from, to domain.Status, reason string) error
	Finalize(ctx context.Context, id string, status domain.Status, outcomes []domain.DestinationOutcome, reason string, processedAt time.Time) error
	RecordTransition(ctx context.Context, t Transition) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Machine struct {
	store     Store
	txManager TransactionManager
	logger    *slog.Logger
	now       func() time.Time
}

func NewMachine(store Store, txManager TransactionManager, logger *slog.Logger) *Machine {
	return &Machine{
		store:     store,
		txManager: txManager,
		logger:    logger.With("component", "lifecycle"),
		now:       time.Now,
	}
}

// Transition moves rec to status to. On success rec reflects the new state.
func (m *Machine) Transition(ctx context.Context, rec *domain.ShareRecord, to domain.Status, reason string) error {
	from := rec.Status
	if !CanTransition(from, to) {
		return domain.TransitionError{From: from, To: to}
	}

	// Only a skip explains itself on the record; every reason goes to the audit row.
	errMsg := ""
	if to == domain.StatusSkipped {
		errMsg = reason
	}

	now := m.now()
	err := m.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := m.store.UpdateStatus(ctx, rec.ID, from, to, errMsg); err != nil {
			return err
		}
		return m.store.RecordTransition(ctx, Transition{
			ShareID: rec.ID,
			From:    from,
			To:      to,
			Reason:  reason,
			At:      now,
		})
	})
	if err != nil {
		return fmt.Errorf("transition %s %s -> %s: %w", rec.ID, from, to, err)
	}

	rec.Status = to
	rec.Error = errMsg
	rec.UpdatedAt = now

	m.logger.Debug("share transitioned", "share_id", rec.ID, "from", from, "to", to)
	return nil
}

// Finalize records the fan-out outcomes and moves a PROCESSING record to the
// status they imply.
func (m *Machine) Finalize(ctx context.Context, rec *domain.ShareRecord, outcomes []domain.DestinationOutcome, reason string) error {
	to := domain.DeriveStatus(outcomes)
	if rec.Status != domain.StatusProcessing {
		return domain.TransitionError{From: rec.Status, To: to}
	}
	if reason == "" && to == domain.StatusFailed {
		reason = failureReason(outcomes)
	}

	now := m.now()
	err := m.txManager.WithTransaction(ctx, func(ctx context.Context) error {
		if err := m.store.Finalize(ctx, rec.ID, to, outcomes, reason, now); err != nil {
			return err
		}
		return m.store.RecordTransition(ctx, Transition{
			ShareID: rec.ID,
			From:    domain.StatusProcessing,
			To:      to,
			Reason:  reason,
			At:      now,
		})
	})
	if err != nil {
		return fmt.Errorf("finalize %s: %w", rec.ID, err)
	}

	rec.Status = to
	rec.Outcomes = outcomes
	rec.Error = reason
	rec.UpdatedAt = now
	rec.ProcessedAt = &now

	m.logger.Info("share finalized", "share_id", rec.ID, "status", to, "destinations", len(outcomes))
	return nil
}

// Fail moves a PROCESSING record straight to FAILED without outcomes.
func (m *Machine) Fail(ctx context.Context, rec *domain.ShareRecord, reason string) error {
	return m.Finalize(ctx, rec, nil, reason)
}

func failureReason(outcomes []domain.DestinationOutcome) string {
	if len(outcomes) == 0 {
		return domain.ErrNoDestinations.Error()
	}
	for _, o := range outcomes {
		if o.Error != "" {
			return fmt.Sprintf("%s: %s", o.Destination, o.Error)
		}
	}
	return "no destination published"
}
