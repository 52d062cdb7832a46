package analytics

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/pulse/internal/common"
	"github.com/bobmcallan/pulse/internal/interfaces"
	"github.com/bobmcallan/pulse/internal/models"
)

// mockProvider serves canned per-ticker series and counts calls.
type mockProvider struct {
	mu    sync.Mutex
	data  map[string][]models.MarketDataPoint
	errs  map[string]error
	calls int
}

func (m *mockProvider) GetHistoricalData(_ context.Context, ticker string, days int) ([]models.MarketDataPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	if err, ok := m.errs[ticker]; ok {
		return nil, err
	}
	return m.data[ticker], nil
}

var _ interfaces.MarketDataProvider = (*mockProvider)(nil)

// mockStore is an in-memory EventStore sufficient for service tests.
type mockStore struct {
	mu     sync.Mutex
	events []*models.MarketEvent
	recent []*models.MarketEvent
}

func (m *mockStore) InsertEvent(_ context.Context, event *models.MarketEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockStore) EventByID(context.Context, string) (*models.MarketEvent, error) {
	return nil, nil
}

func (m *mockStore) EventsByTicker(_ context.Context, ticker string, start, end time.Time) ([]*models.MarketEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.MarketEvent
	for _, ev := range m.events {
		if ev.Ticker == models.NormalizeTicker(ticker) && !ev.Timestamp.Before(start) && !ev.Timestamp.After(end) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *mockStore) RecentEvents(context.Context, int) ([]*models.MarketEvent, error) {
	return m.recent, nil
}

func (m *mockStore) DataPointsByEvent(context.Context, string) ([]models.MarketDataPoint, error) {
	return nil, nil
}

func (m *mockStore) Close() error { return nil }

var _ interfaces.EventStore = (*mockStore)(nil)

// jumpSeries builds n days of flat prices with a final jump of jumpPct.
func jumpSeries(ticker string, n int, jumpPct float64) []models.MarketDataPoint {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.MarketDataPoint, 0, n)
	for i := 0; i < n; i++ {
		value := 100.0
		if i == n-1 {
			value = 100 * (1 + jumpPct/100)
		}
		points = append(points, models.MarketDataPoint{
			Source:    models.SourceManual,
			Timestamp: base.AddDate(0, 0, i),
			Ticker:    ticker,
			DataType:  models.DataStockPrice,
			Value:     value,
		})
	}
	return points
}

func newTestService(t *testing.T, provider *mockProvider, store *mockStore) *Service {
	t.Helper()
	svc, err := New(common.EngineConfig{}, provider, store, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestAnalyzeTicker(t *testing.T) {
	provider := &mockProvider{data: map[string][]models.MarketDataPoint{
		"AAPL": jumpSeries("AAPL", 60, 10),
	}}
	store := &mockStore{}
	svc := newTestService(t, provider, store)

	// Lowercase input must resolve to the normalized series.
	result, err := svc.AnalyzeTicker(context.Background(), "aapl", 60)
	if err != nil {
		t.Fatalf("AnalyzeTicker: %v", err)
	}

	if len(result.Events) != 1 {
		t.Fatalf("events = %d, want 1 price jump", len(result.Events))
	}
	if result.Events[0].Ticker != "AAPL" {
		t.Errorf("event ticker = %q, want AAPL", result.Events[0].Ticker)
	}
	if result.Processing.TickersProcessed != 1 {
		t.Errorf("TickersProcessed = %d, want 1", result.Processing.TickersProcessed)
	}
	if result.Processing.DataPoints != 60 {
		t.Errorf("DataPoints = %d, want 60", result.Processing.DataPoints)
	}

	ta := result.TechnicalAnalysis["AAPL"]
	if ta == nil {
		t.Fatal("TechnicalAnalysis[AAPL] = nil, want report")
	}
	if ta.Indicators == nil {
		t.Error("Indicators = nil, want values for 60-point series")
	}
	if ta.Regime == nil {
		t.Error("Regime = nil, want classification")
	}

	if result.MarketSummary == nil || result.MarketSummary.TotalEvents != 1 {
		t.Errorf("MarketSummary = %+v, want TotalEvents 1", result.MarketSummary)
	}
	if len(store.events) != 1 {
		t.Errorf("persisted events = %d, want 1", len(store.events))
	}
}

func TestAnalyzeTickerNoData(t *testing.T) {
	svc := newTestService(t, &mockProvider{}, &mockStore{})

	_, err := svc.AnalyzeTicker(context.Background(), "GHOST", 30)
	if !common.IsKind(err, common.KindNotFound) {
		t.Errorf("AnalyzeTicker(no data) = %v, want not_found kind", err)
	}
}

func TestAnalyzeMultipleTickersValidation(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(t, provider, &mockStore{})
	ctx := context.Background()

	if _, err := svc.AnalyzeMultipleTickers(ctx, nil, 30); !common.IsKind(err, common.KindValidation) {
		t.Errorf("empty ticker list = %v, want validation error", err)
	}

	tooMany := make([]string, MaxTickersPerRequest+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("T%d", i)
	}
	if _, err := svc.AnalyzeMultipleTickers(ctx, tooMany, 30); !common.IsKind(err, common.KindValidation) {
		t.Errorf("%d tickers = %v, want validation error", len(tooMany), err)
	}

	// Validation happens before any provider call.
	if provider.calls != 0 {
		t.Errorf("provider calls = %d, want 0 before validation passes", provider.calls)
	}
}

func TestAnalyzeMultipleTickersPartialFailure(t *testing.T) {
	provider := &mockProvider{
		data: map[string][]models.MarketDataPoint{
			"AAPL": jumpSeries("AAPL", 60, 10),
		},
		errs: map[string]error{
			"BADTICKER": common.NewError(common.KindUpstream, "provider rejected ticker"),
		},
	}
	svc := newTestService(t, provider, &mockStore{})

	result, err := svc.AnalyzeMultipleTickers(context.Background(), []string{"AAPL", "BADTICKER"}, 60)
	if err != nil {
		t.Fatalf("AnalyzeMultipleTickers: %v", err)
	}

	// Requested counts both; the failing ticker is simply excluded.
	if result.Processing.TickersProcessed != 2 {
		t.Errorf("TickersProcessed = %d, want 2", result.Processing.TickersProcessed)
	}
	if _, ok := result.TechnicalAnalysis["BADTICKER"]; ok {
		t.Error("BADTICKER present in results, want excluded")
	}
	if result.TechnicalAnalysis["AAPL"] == nil {
		t.Error("AAPL missing from results, want analysis")
	}
	if len(result.Events) != 1 {
		t.Errorf("events = %d, want 1 from AAPL", len(result.Events))
	}
}

func TestGetRecentEventsSignificanceFilter(t *testing.T) {
	store := &mockStore{recent: []*models.MarketEvent{
		{ID: "1", Significance: models.SignificanceCritical},
		{ID: "2", Significance: models.SignificanceLow},
		{ID: "3", Significance: models.SignificanceCritical},
	}}
	svc := newTestService(t, &mockProvider{}, store)
	ctx := context.Background()

	all, err := svc.GetRecentEvents(ctx, 10, "")
	if err != nil {
		t.Fatalf("GetRecentEvents: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("unfiltered = %d events, want 3", len(all))
	}

	critical, err := svc.GetRecentEvents(ctx, 10, models.SignificanceCritical)
	if err != nil {
		t.Fatalf("GetRecentEvents filtered: %v", err)
	}
	if len(critical) != 2 {
		t.Fatalf("critical = %d events, want 2", len(critical))
	}
	for _, ev := range critical {
		if ev.Significance != models.SignificanceCritical {
			t.Errorf("event %s significance = %v, want critical", ev.ID, ev.Significance)
		}
	}
}

func TestGetTickerEventsTypeFilter(t *testing.T) {
	ts := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	store := &mockStore{events: []*models.MarketEvent{
		{ID: "1", Ticker: "AAPL", Type: models.EventPriceJump, Timestamp: ts},
		{ID: "2", Ticker: "AAPL", Type: models.EventVolumeSpike, Timestamp: ts.Add(time.Hour)},
	}}
	svc := newTestService(t, &mockProvider{}, store)

	events, err := svc.GetTickerEvents(context.Background(), "AAPL",
		ts.Add(-time.Hour), ts.Add(2*time.Hour), []models.EventType{models.EventVolumeSpike})
	if err != nil {
		t.Fatalf("GetTickerEvents: %v", err)
	}
	if len(events) != 1 || events[0].ID != "2" {
		t.Errorf("filtered events = %v, want only the volume spike", events)
	}
}
