package badger

import (
	"context"
	"errors"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/pulse/internal/common"
	"github.com/bobmcallan/pulse/internal/interfaces"
	"github.com/bobmcallan/pulse/internal/models"
)

// storedEvent is the persisted event record. Source data points live in
// their own rows (eventPoint) and are joined on read.
type storedEvent struct {
	ID            string `badgerhold:"key"`
	Type          models.EventType
	Ticker        string `badgerholdIndex:"Ticker"`
	Timestamp     time.Time
	Magnitude     float64
	Significance  models.Significance
	RelatedEvents []string
	Metadata      models.EventMetadata
	CreatedAt     time.Time
}

// eventPoint is one source data point row, keyed by insertion sequence so
// the original order is reproducible.
type eventPoint struct {
	Seq     uint64 `badgerhold:"key"`
	EventID string `badgerholdIndex:"EventID"`
	Point   models.MarketDataPoint
}

type eventStorage struct {
	store  *Store
	logger *common.Logger
}

// NewEventStorage creates an EventStore backed by BadgerHold.
func NewEventStorage(store *Store, logger *common.Logger) interfaces.EventStore {
	return &eventStorage{store: store, logger: logger}
}

// InsertEvent writes the event and all its source points in one Badger
// transaction; a failure on any row rolls back the whole write.
func (s *eventStorage) InsertEvent(_ context.Context, event *models.MarketEvent) error {
	rec := &storedEvent{
		ID:            event.ID,
		Type:          event.Type,
		Ticker:        models.NormalizeTicker(event.Ticker),
		Timestamp:     event.Timestamp,
		Magnitude:     event.Magnitude,
		Significance:  event.Significance,
		RelatedEvents: event.RelatedEvents,
		Metadata:      event.Metadata,
		CreatedAt:     event.CreatedAt,
	}

	err := s.store.db.Badger().Update(func(tx *badgerdb.Txn) error {
		if err := s.store.db.TxInsert(tx, rec.ID, rec); err != nil {
			return err
		}
		for _, p := range event.SourceData {
			if err := s.store.db.TxInsert(tx, badgerhold.NextSequence(), &eventPoint{
				EventID: rec.ID,
				Point:   p,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return common.WrapError(common.KindStorage, err, "failed to insert event %s", event.ID)
	}

	s.logger.Debug().Str("event_id", event.ID).Str("ticker", rec.Ticker).
		Int("source_points", len(event.SourceData)).Msg("Event stored")
	return nil
}

func (s *eventStorage) EventByID(ctx context.Context, id string) (*models.MarketEvent, error) {
	var rec storedEvent
	err := s.store.db.Get(id, &rec)
	if err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, nil
		}
		return nil, common.WrapError(common.KindStorage, err, "failed to get event %s", id)
	}
	return s.join(ctx, &rec)
}

func (s *eventStorage) EventsByTicker(ctx context.Context, ticker string, start, end time.Time) ([]*models.MarketEvent, error) {
	var recs []storedEvent
	query := badgerhold.Where("Ticker").Eq(models.NormalizeTicker(ticker)).Index("Ticker").
		And("Timestamp").Ge(start).And("Timestamp").Le(end)
	if err := s.store.db.Find(&recs, query); err != nil {
		return nil, common.WrapError(common.KindStorage, err, "failed to query events for %s", ticker)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Timestamp.Before(recs[j].Timestamp)
	})
	return s.joinAll(ctx, recs)
}

func (s *eventStorage) RecentEvents(ctx context.Context, limit int) ([]*models.MarketEvent, error) {
	var recs []storedEvent
	query := badgerhold.Where("ID").Ne("").SortBy("Timestamp").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.store.db.Find(&recs, query); err != nil {
		return nil, common.WrapError(common.KindStorage, err, "failed to query recent events")
	}
	return s.joinAll(ctx, recs)
}

func (s *eventStorage) DataPointsByEvent(_ context.Context, eventID string) ([]models.MarketDataPoint, error) {
	var rows []eventPoint
	query := badgerhold.Where("EventID").Eq(eventID).Index("EventID")
	if err := s.store.db.Find(&rows, query); err != nil {
		return nil, common.WrapError(common.KindStorage, err, "failed to query data points for event %s", eventID)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Seq < rows[j].Seq })

	points := make([]models.MarketDataPoint, len(rows))
	for i, row := range rows {
		points[i] = row.Point
	}
	return points, nil
}

func (s *eventStorage) Close() error {
	return s.store.Close()
}

func (s *eventStorage) join(ctx context.Context, rec *storedEvent) (*models.MarketEvent, error) {
	points, err := s.DataPointsByEvent(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return &models.MarketEvent{
		ID:            rec.ID,
		Type:          rec.Type,
		Ticker:        rec.Ticker,
		Timestamp:     rec.Timestamp,
		Magnitude:     rec.Magnitude,
		Significance:  rec.Significance,
		SourceData:    points,
		RelatedEvents: rec.RelatedEvents,
		Metadata:      rec.Metadata,
		CreatedAt:     rec.CreatedAt,
	}, nil
}

func (s *eventStorage) joinAll(ctx context.Context, recs []storedEvent) ([]*models.MarketEvent, error) {
	events := make([]*models.MarketEvent, 0, len(recs))
	for i := range recs {
		ev, err := s.join(ctx, &recs[i])
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}

// Ensure eventStorage implements EventStore
var _ interfaces.EventStore = (*eventStorage)(nil)
