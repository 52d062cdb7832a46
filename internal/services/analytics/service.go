// Package analytics provides the orchestration facade over the market data
// provider, the detection engine, and the analyzer.
package analytics

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bobmcallan/pulse/internal/analyzer"
	"github.com/bobmcallan/pulse/internal/common"
	"github.com/bobmcallan/pulse/internal/detector"
	"github.com/bobmcallan/pulse/internal/interfaces"
	"github.com/bobmcallan/pulse/internal/models"
)

// MaxTickersPerRequest bounds a multi-ticker analysis.
const MaxTickersPerRequest = 50

const defaultDays = 30

// Service implements AnalyticsService
type Service struct {
	cfg      common.EngineConfig
	provider interfaces.MarketDataProvider
	store    interfaces.EventStore
	detector *detector.Engine
	analyzer *analyzer.Analyzer
	logger   *common.Logger
}

// New merges partial engine config over the documented defaults, builds the
// detection engine, and returns a ready service.
func New(cfg common.EngineConfig, provider interfaces.MarketDataProvider, store interfaces.EventStore, logger *common.Logger) (*Service, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	applyDefaults(&cfg)

	filters := make([]models.Significance, 0, len(cfg.SignificanceFilters))
	for _, f := range cfg.SignificanceFilters {
		filters = append(filters, models.Significance(f))
	}

	det, err := detector.New(detector.Config{
		PriceThreshold:          cfg.PriceThreshold,
		VolumeThreshold:         cfg.VolumeThreshold,
		EnableRealTimeDetection: cfg.EnableRealTimeDetection,
		SignificanceFilters:     filters,
	}, store, logger)
	if err != nil {
		return nil, err
	}

	return &Service{
		cfg:      cfg,
		provider: provider,
		store:    store,
		detector: det,
		analyzer: analyzer.New(),
		logger:   logger,
	}, nil
}

func applyDefaults(cfg *common.EngineConfig) {
	if cfg.PriceThreshold <= 0 {
		cfg.PriceThreshold = common.DefaultPriceThreshold
	}
	if cfg.VolumeThreshold <= 0 {
		cfg.VolumeThreshold = common.DefaultVolumeThreshold
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = common.DefaultBatchSize
	}
	if cfg.MaxProcessingTime == "" {
		cfg.MaxProcessingTime = common.DefaultMaxProcessingTime.String()
	}
}

// Detector exposes the detection engine for real-time arming and event
// lookup by id.
func (s *Service) Detector() *detector.Engine {
	return s.detector
}

// AnalyzeTicker fetches historical data for one ticker, runs detection and
// technical analysis, and returns the combined result.
func (s *Service) AnalyzeTicker(ctx context.Context, ticker string, days int) (*models.AnalyticsResult, error) {
	started := time.Now()
	if days <= 0 {
		days = defaultDays
	}
	ticker = models.NormalizeTicker(ticker)

	points, err := s.provider.GetHistoricalData(ctx, ticker, days)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, common.NewError(common.KindNotFound, "no data for ticker %s over %d days", ticker, days)
	}

	events, err := s.detector.DetectEvents(ctx, points)
	if err != nil {
		// Detection succeeded; only persistence was degraded.
		s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Event persistence incomplete")
	}

	ta := s.analyzeTechnical(ticker, points)

	return &models.AnalyticsResult{
		Events:            events,
		TechnicalAnalysis: map[string]*models.TechnicalAnalysis{ticker: ta},
		MarketSummary:     buildMarketSummary(events, []*models.TechnicalAnalysis{ta}),
		Processing: models.ProcessingMetadata{
			StartedAt:        started,
			Duration:         time.Since(started),
			DataPoints:       len(points),
			TickersProcessed: 1,
		},
	}, nil
}

// tickerOutcome carries one ticker's analysis across the batch join.
type tickerOutcome struct {
	ticker   string
	points   int
	events   []*models.MarketEvent
	analysis *models.TechnicalAnalysis
}

// AnalyzeMultipleTickers analyzes tickers in batches of the configured
// size, one goroutine per ticker within a batch. A failing ticker is
// logged and excluded; it never aborts its siblings.
func (s *Service) AnalyzeMultipleTickers(ctx context.Context, tickers []string, days int) (*models.AnalyticsResult, error) {
	started := time.Now()
	if days <= 0 {
		days = defaultDays
	}

	if len(tickers) == 0 {
		return nil, common.NewError(common.KindValidation, "no tickers provided")
	}
	if len(tickers) > MaxTickersPerRequest {
		return nil, common.NewError(common.KindValidation,
			"too many tickers: %d exceeds limit of %d", len(tickers), MaxTickersPerRequest)
	}

	normalized := make([]string, len(tickers))
	for i, t := range tickers {
		normalized[i] = models.NormalizeTicker(t)
	}

	var (
		mu       sync.Mutex
		outcomes []tickerOutcome
	)

	for start := 0; start < len(normalized); start += s.cfg.BatchSize {
		end := start + s.cfg.BatchSize
		if end > len(normalized) {
			end = len(normalized)
		}
		batch := normalized[start:end]

		var wg sync.WaitGroup
		for _, ticker := range batch {
			if ctx.Err() != nil {
				break
			}
			wg.Add(1)
			go func(ticker string) {
				defer wg.Done()

				outcome, err := s.analyzeOne(ctx, ticker, days)
				if err != nil {
					s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Ticker analysis failed, excluding from results")
					return
				}

				mu.Lock()
				outcomes = append(outcomes, *outcome)
				mu.Unlock()
			}(ticker)
		}
		wg.Wait()

		if ctx.Err() != nil {
			break
		}
	}

	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].ticker < outcomes[j].ticker })

	var (
		events     []*models.MarketEvent
		analyses   []*models.TechnicalAnalysis
		dataPoints int
	)
	taMap := make(map[string]*models.TechnicalAnalysis, len(outcomes))
	for _, o := range outcomes {
		events = append(events, o.events...)
		taMap[o.ticker] = o.analysis
		analyses = append(analyses, o.analysis)
		dataPoints += o.points
	}

	s.logger.Info().Int("requested", len(normalized)).Int("succeeded", len(outcomes)).
		Int("events", len(events)).Msg("Multi-ticker analysis complete")

	return &models.AnalyticsResult{
		Events:            events,
		TechnicalAnalysis: taMap,
		MarketSummary:     buildMarketSummary(events, analyses),
		Processing: models.ProcessingMetadata{
			StartedAt:        started,
			Duration:         time.Since(started),
			DataPoints:       dataPoints,
			TickersProcessed: len(normalized),
		},
	}, nil
}

func (s *Service) analyzeOne(ctx context.Context, ticker string, days int) (*tickerOutcome, error) {
	points, err := s.provider.GetHistoricalData(ctx, ticker, days)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, common.NewError(common.KindNotFound, "no data for ticker %s over %d days", ticker, days)
	}

	events, err := s.detector.DetectEvents(ctx, points)
	if err != nil {
		s.logger.Warn().Str("ticker", ticker).Err(err).Msg("Event persistence incomplete")
	}

	return &tickerOutcome{
		ticker:   ticker,
		points:   len(points),
		events:   events,
		analysis: s.analyzeTechnical(ticker, points),
	}, nil
}

// analyzeTechnical builds the full analyzer report for one ticker.
func (s *Service) analyzeTechnical(ticker string, points []models.MarketDataPoint) *models.TechnicalAnalysis {
	sorted := make([]models.MarketDataPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var prices, volumes []float64
	for _, p := range sorted {
		switch p.DataType {
		case models.DataStockPrice:
			prices = append(prices, p.Value)
		case models.DataVolume:
			volumes = append(volumes, p.Value)
		}
	}

	ta := &models.TechnicalAnalysis{
		Ticker:     ticker,
		Indicators: s.analyzer.TechnicalIndicators(prices),
		Anomalies:  s.analyzer.DetectAnomalies(sorted, analyzer.DefaultLookback),
		Levels:     s.analyzer.FindSupportResistanceLevels(prices, analyzer.DefaultSensitivity),
		Regime:     s.analyzer.ClassifyMarketRegime(prices, volumes),
	}

	trend, err := s.analyzer.AnalyzeTrend(prices, analyzer.DefaultTrendWindow)
	if err != nil {
		s.logger.Debug().Str("ticker", ticker).Err(err).Msg("Trend analysis skipped")
	} else {
		ta.Trend = trend
	}

	return ta
}

// GetRecentEvents returns stored events newest-first, post-filtered by
// significance when one is given.
func (s *Service) GetRecentEvents(ctx context.Context, limit int, significance models.Significance) ([]*models.MarketEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	events, err := s.store.RecentEvents(ctx, limit)
	if err != nil {
		return nil, err
	}

	if significance == "" {
		return events, nil
	}

	filtered := events[:0]
	for _, ev := range events {
		if ev.Significance == significance {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// GetTickerEvents returns stored events for a ticker within [start, end] in
// chronological order, post-filtered by event type when any are given.
func (s *Service) GetTickerEvents(ctx context.Context, ticker string, start, end time.Time, eventTypes []models.EventType) ([]*models.MarketEvent, error) {
	events, err := s.store.EventsByTicker(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}

	if len(eventTypes) == 0 {
		return events, nil
	}

	allowed := make(map[models.EventType]struct{}, len(eventTypes))
	for _, t := range eventTypes {
		allowed[t] = struct{}{}
	}

	filtered := events[:0]
	for _, ev := range events {
		if _, ok := allowed[ev.Type]; ok {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

// Ensure Service implements AnalyticsService
var _ interfaces.AnalyticsService = (*Service)(nil)
