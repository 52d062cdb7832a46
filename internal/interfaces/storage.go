package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/pulse/internal/models"
)

// EventStore persists detected market events and their source data points.
// Any store satisfying these ordering and atomicity semantics is compliant.
type EventStore interface {
	// InsertEvent stores an event together with its source data points.
	// The write is atomic: either the event and all its points are stored,
	// or none are.
	InsertEvent(ctx context.Context, event *models.MarketEvent) error

	// EventByID returns the event with its source points joined, or
	// (nil, nil) when the id is unknown.
	EventByID(ctx context.Context, id string) (*models.MarketEvent, error)

	// EventsByTicker returns events for a ticker within [start, end],
	// in chronological order, with source points joined.
	EventsByTicker(ctx context.Context, ticker string, start, end time.Time) ([]*models.MarketEvent, error)

	// RecentEvents returns up to limit events, newest first, with source
	// points joined.
	RecentEvents(ctx context.Context, limit int) ([]*models.MarketEvent, error)

	// DataPointsByEvent returns the stored source points for an event.
	DataPointsByEvent(ctx context.Context, eventID string) ([]models.MarketDataPoint, error)

	Close() error
}
