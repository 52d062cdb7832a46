package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/pulse/internal/models"
)

// AnalyticsService is the caller-facing surface of the engine. An API layer
// needs nothing beyond these operations.
type AnalyticsService interface {
	// AnalyzeTicker runs detection and technical analysis for one ticker
	// over the trailing number of days.
	AnalyzeTicker(ctx context.Context, ticker string, days int) (*models.AnalyticsResult, error)

	// AnalyzeMultipleTickers analyzes up to 50 tickers in bounded-
	// concurrency batches. Per-ticker failures are logged and excluded
	// rather than aborting the run.
	AnalyzeMultipleTickers(ctx context.Context, tickers []string, days int) (*models.AnalyticsResult, error)

	// GetRecentEvents returns stored events newest-first, optionally
	// post-filtered by significance.
	GetRecentEvents(ctx context.Context, limit int, significance models.Significance) ([]*models.MarketEvent, error)

	// GetTickerEvents returns stored events for a ticker within a window,
	// chronologically, optionally post-filtered by event type.
	GetTickerEvents(ctx context.Context, ticker string, start, end time.Time, eventTypes []models.EventType) ([]*models.MarketEvent, error)
}
