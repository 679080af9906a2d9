package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"autoshare/internal/caption"
	"autoshare/internal/domain"
	"autoshare/internal/extract"
	"autoshare/internal/fanout"
	"autoshare/internal/notify"
)

type OwnerStore interface {
	ListEnabled(ctx context.Context) ([]domain.Owner, error)
	FindByID(ctx context.Context, ownerID string) (domain.Owner, error)
}

type ShareStore interface {
	ExistsByDedupeKey(ctx context.Context, ownerID, dedupeKey string) (bool, error)
	Create(ctx context.Context, record *domain.ShareRecord) error
	FindByID(ctx context.Context, id string) (*domain.ShareRecord, error)
	ListByStatus(ctx context.Context, ownerID string, status domain.Status, limit int) ([]*domain.ShareRecord, error)
	SaveCaption(ctx context.Context, id, caption string) error
}

type Lifecycle interface {
	Transition(ctx context.Context, rec *domain.ShareRecord, to domain.Status, reason string) error
	Finalize(ctx context.Context, rec *domain.ShareRecord, outcomes []domain.DestinationOutcome, reason string) error
	Fail(ctx context.Context, rec *domain.ShareRecord, reason string) error
}

type Source interface {
	FetchItems(ctx context.Context, feedURL string) ([]domain.SourceItem, error)
}

type Extractor interface {
	Extract(ctx context.Context, link string) (extract.Metadata, error)
}

type Composer interface {
	Compose(ctx context.Context, snap domain.Snapshot, prefs caption.Prefs) (caption.Caption, caption.Source)
}

type Publisher interface {
	PublishAll(ctx context.Context, req fanout.Request) []domain.DestinationOutcome
}

type Notifier interface {
	Notify(ctx context.Context, event notify.Event, rec *domain.ShareRecord) error
}

type QuietGate interface {
	IsQuiet(cfg domain.QuietHours) bool
}
