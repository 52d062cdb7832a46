// Package interfaces defines service contracts for Pulse
package interfaces

import (
	"context"

	"github.com/bobmcallan/pulse/internal/models"
)

// MarketDataProvider fetches raw market observations for a ticker.
// Chronological order of the returned slice is not guaranteed; consumers
// always re-sort.
type MarketDataProvider interface {
	GetHistoricalData(ctx context.Context, ticker string, days int) ([]models.MarketDataPoint, error)
}
