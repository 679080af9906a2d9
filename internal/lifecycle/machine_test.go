package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"autoshare/internal/domain"
)

type memStore struct {
	mu          sync.Mutex
	status      map[string]domain.Status
	outcomes    map[string][]domain.DestinationOutcome
	transitions []Transition
	failAudit   bool
}

func newMemStore() *memStore {
	return &memStore{
		status:   make(map[string]domain.Status),
		outcomes: make(map[string][]domain.DestinationOutcome),
	}
}

func (m *memStore) UpdateStatus(_ context.Context, id string, from, to domain.Status, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status[id] != from {
		return domain.ErrStaleState
	}
	m.status[id] = to
	return nil
}

func (m *memStore) Finalize(_ context.Context, id string, status domain.Status, outcomes []domain.DestinationOutcome, _ string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status[id] != domain.StatusProcessing {
		return domain.ErrStaleState
	}
	m.status[id] = status
	m.outcomes[id] = outcomes
	return nil
}

func (m *memStore) RecordTransition(_ context.Context, t Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAudit {
		return errors.New("audit insert failed")
	}
	m.transitions = append(m.transitions, t)
	return nil
}

// memTx restores the store snapshot when fn fails.
type memTx struct {
	store *memStore
	mu    sync.Mutex
}

func (tx *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	tx.store.mu.Lock()
	saved := make(map[string]domain.Status, len(tx.store.status))
	for k, v := range tx.store.status {
		saved[k] = v
	}
	tx.store.mu.Unlock()

	if err := fn(ctx); err != nil {
		tx.store.mu.Lock()
		tx.store.status = saved
		tx.store.mu.Unlock()
		return err
	}
	return nil
}

type MachineTestSuite struct {
	suite.Suite

	store   *memStore
	machine *Machine
}

func (s *MachineTestSuite) SetupTest() {
	s.store = newMemStore()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	s.machine = NewMachine(s.store, &memTx{store: s.store}, logger)
}

func TestMachineTestSuite(t *testing.T) {
	suite.Run(t, new(MachineTestSuite))
}

func (s *MachineTestSuite) record(id string, status domain.Status) *domain.ShareRecord {
	s.store.status[id] = status
	return &domain.ShareRecord{ID: id, Status: status}
}

func (s *MachineTestSuite) TestCanTransition() {
	cases := []struct {
		from, to domain.Status
		want     bool
	}{
		{domain.StatusDraft, domain.StatusProcessing, true},
		{domain.StatusDraft, domain.StatusSkipped, true},
		{domain.StatusQueued, domain.StatusProcessing, true},
		{domain.StatusQueued, domain.StatusSkipped, true},
		{domain.StatusProcessing, domain.StatusPublished, true},
		{domain.StatusProcessing, domain.StatusPartial, true},
		{domain.StatusProcessing, domain.StatusFailed, true},
		{domain.StatusDraft, domain.StatusPublished, false},
		{domain.StatusQueued, domain.StatusDraft, false},
		{domain.StatusProcessing, domain.StatusQueued, false},
		{domain.StatusPublished, domain.StatusProcessing, false},
		{domain.StatusPartial, domain.StatusProcessing, false},
		{domain.StatusFailed, domain.StatusProcessing, false},
		{domain.StatusSkipped, domain.StatusProcessing, false},
	}
	for _, tc := range cases {
		s.Equal(tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func (s *MachineTestSuite) TestTerminalStatesHaveNoExits() {
	for _, st := range []domain.Status{
		domain.StatusPublished, domain.StatusPartial, domain.StatusFailed, domain.StatusSkipped,
	} {
		s.True(st.IsTerminal())
		s.Empty(allowed[st])
	}
}

func (s *MachineTestSuite) TestValidateInitial() {
	s.NoError(ValidateInitial(domain.StatusDraft))
	s.NoError(ValidateInitial(domain.StatusQueued))
	s.NoError(ValidateInitial(domain.StatusProcessing))
	s.NoError(ValidateInitial(domain.StatusSkipped))
	s.ErrorIs(ValidateInitial(domain.StatusPublished), domain.ErrInvalidTransition)
}

func (s *MachineTestSuite) TestTransition_Persists() {
	rec := s.record("a", domain.StatusDraft)

	err := s.machine.Transition(context.Background(), rec, domain.StatusProcessing, "")

	s.Require().NoError(err)
	s.Equal(domain.StatusProcessing, rec.Status)
	s.Equal(domain.StatusProcessing, s.store.status["a"])
	s.Require().Len(s.store.transitions, 1)
	s.Equal(domain.StatusDraft, s.store.transitions[0].From)
	s.Equal(domain.StatusProcessing, s.store.transitions[0].To)
}

func (s *MachineTestSuite) TestTransition_RejectsIllegalMove() {
	rec := s.record("a", domain.StatusPublished)

	err := s.machine.Transition(context.Background(), rec, domain.StatusProcessing, "")

	s.ErrorIs(err, domain.ErrInvalidTransition)
	s.Equal(domain.StatusPublished, rec.Status)
	s.Empty(s.store.transitions)
}

func (s *MachineTestSuite) TestTransition_StaleState() {
	rec := s.record("a", domain.StatusDraft)
	s.store.status["a"] = domain.StatusSkipped

	err := s.machine.Transition(context.Background(), rec, domain.StatusProcessing, "")

	s.ErrorIs(err, domain.ErrStaleState)
	s.Equal(domain.StatusDraft, rec.Status)
}

func (s *MachineTestSuite) TestTransition_AuditFailureRollsBack() {
	rec := s.record("a", domain.StatusQueued)
	s.store.failAudit = true

	err := s.machine.Transition(context.Background(), rec, domain.StatusProcessing, "")

	s.Error(err)
	s.Equal(domain.StatusQueued, s.store.status["a"])
	s.Equal(domain.StatusQueued, rec.Status)
}

func (s *MachineTestSuite) TestTransition_OnlyOneConcurrentWinner() {
	const workers = 8
	s.store.status["a"] = domain.StatusQueued

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := &domain.ShareRecord{ID: "a", Status: domain.StatusQueued}
			if err := s.machine.Transition(context.Background(), rec, domain.StatusProcessing, ""); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	s.Equal(1, wins)
	s.Len(s.store.transitions, 1)
}

func (s *MachineTestSuite) TestFinalize_DerivesStatus() {
	cases := []struct {
		name     string
		outcomes []domain.DestinationOutcome
		want     domain.Status
	}{
		{
			name: "all published",
			outcomes: []domain.DestinationOutcome{
				{Destination: domain.DestinationX, Outcome: domain.OutcomePublished},
				{Destination: domain.DestinationLinkedIn, Outcome: domain.OutcomePublished},
			},
			want: domain.StatusPublished,
		},
		{
			name: "mixed",
			outcomes: []domain.DestinationOutcome{
				{Destination: domain.DestinationX, Outcome: domain.OutcomePublished},
				{Destination: domain.DestinationInstagram, Outcome: domain.OutcomeSkipped, Error: "requires media"},
			},
			want: domain.StatusPartial,
		},
		{
			name: "none published",
			outcomes: []domain.DestinationOutcome{
				{Destination: domain.DestinationX, Outcome: domain.OutcomeFailed, Error: "boom"},
			},
			want: domain.StatusFailed,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			rec := s.record(tc.name, domain.StatusProcessing)

			err := s.machine.Finalize(context.Background(), rec, tc.outcomes, "")

			s.Require().NoError(err)
			s.Equal(tc.want, rec.Status)
			s.Equal(tc.want, s.store.status[tc.name])
			s.NotNil(rec.ProcessedAt)
			s.Equal(tc.outcomes, s.store.outcomes[tc.name])
		})
	}
}

func (s *MachineTestSuite) TestFinalize_FailedReasonFromOutcome() {
	rec := s.record("a", domain.StatusProcessing)

	err := s.machine.Finalize(context.Background(), rec, []domain.DestinationOutcome{
		{Destination: domain.DestinationX, Outcome: domain.OutcomeFailed, Error: "rate limited"},
	}, "")

	s.Require().NoError(err)
	s.Equal("x: rate limited", rec.Error)
}

func (s *MachineTestSuite) TestFinalize_RequiresProcessing() {
	rec := s.record("a", domain.StatusDraft)

	err := s.machine.Finalize(context.Background(), rec, nil, "")

	s.ErrorIs(err, domain.ErrInvalidTransition)
}

func (s *MachineTestSuite) TestFail_NoDestinations() {
	rec := s.record("a", domain.StatusProcessing)

	s.Require().NoError(s.machine.Fail(context.Background(), rec, ""))
	s.Equal(domain.StatusFailed, rec.Status)
	s.Equal(domain.ErrNoDestinations.Error(), rec.Error)
}

func (s *MachineTestSuite) TestTransition_ReasonOnlyRecordedForSkip() {
	approved := s.record("a", domain.StatusDraft)
	s.Require().NoError(s.machine.Transition(context.Background(), approved, domain.StatusProcessing, "approved by owner"))
	s.Empty(approved.Error)

	dismissed := s.record("b", domain.StatusQueued)
	s.Require().NoError(s.machine.Transition(context.Background(), dismissed, domain.StatusSkipped, "dismissed by owner"))
	s.Equal("dismissed by owner", dismissed.Error)

	s.Require().Len(s.store.transitions, 2)
	s.Equal("approved by owner", s.store.transitions[0].Reason)
	s.Equal("dismissed by owner", s.store.transitions[1].Reason)
}
