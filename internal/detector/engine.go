package detector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/bobmcallan/pulse/internal/common"
	"github.com/bobmcallan/pulse/internal/interfaces"
	"github.com/bobmcallan/pulse/internal/models"
)

// MaxArmedTickers bounds the real-time armed ticker set.
const MaxArmedTickers = 100

// Config holds detection engine configuration.
type Config struct {
	PriceThreshold          float64 `validate:"required,gt=0"` // percent change for a price jump
	VolumeThreshold         float64 `validate:"required,gt=0"` // multiple of trailing average volume
	EnableRealTimeDetection bool
	SignificanceFilters     []models.Significance `validate:"dive,oneof=low medium high critical"`
}

// Engine scans per-ticker time series with registered detection rules and
// persists the resulting events. An Engine is ready as soon as New returns;
// there is no separate configure step.
type Engine struct {
	cfg    Config
	rules  []Rule
	store  interfaces.EventStore
	logger *common.Logger

	// armed is replaced wholesale under mu, never mutated in place.
	mu    sync.RWMutex
	armed []string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// New validates the configuration and returns a ready engine with the
// built-in price-jump and volume-spike rules registered.
func New(cfg Config, store interfaces.EventStore, logger *common.Logger) (*Engine, error) {
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, common.WrapError(common.KindConfiguration, err,
			"invalid detection config (price_threshold=%.2f, volume_threshold=%.2f)",
			cfg.PriceThreshold, cfg.VolumeThreshold)
	}

	return &Engine{
		cfg: cfg,
		rules: []Rule{
			&PriceJumpRule{Threshold: cfg.PriceThreshold},
			&VolumeSpikeRule{Threshold: cfg.VolumeThreshold},
		},
		store:  store,
		logger: logger,
	}, nil
}

// RegisterRule adds a custom detection rule.
func (e *Engine) RegisterRule(rule Rule) {
	e.rules = append(e.rules, rule)
}

// DetectEvents groups points by ticker, evaluates every registered rule per
// ticker, and persists fired events with their source points. A failing
// rule or ticker is logged and skipped; a persistence failure is collected
// and returned alongside the successfully detected events.
func (e *Engine) DetectEvents(ctx context.Context, points []models.MarketDataPoint) ([]*models.MarketEvent, error) {
	groups := groupByTicker(points)

	tickers := make([]string, 0, len(groups))
	for ticker := range groups {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var events []*models.MarketEvent
	for _, ticker := range tickers {
		window := groups[ticker]
		if len(window) < 2 {
			continue
		}

		for _, rule := range e.rules {
			hit, err := rule.Evaluate(window)
			if err != nil {
				e.logger.Warn().Str("ticker", ticker).Str("rule", rule.Name()).Err(err).
					Msg("Rule evaluation failed")
				continue
			}
			if hit == nil {
				continue
			}
			events = append(events, e.buildEvent(ticker, hit))
		}
	}

	events = e.filterBySignificance(events)

	var persistErrs []error
	if e.store != nil {
		for _, ev := range events {
			if err := e.store.InsertEvent(ctx, ev); err != nil {
				e.logger.Error().Str("ticker", ev.Ticker).Str("event_id", ev.ID).Err(err).
					Msg("Failed to persist event")
				persistErrs = append(persistErrs, common.WrapError(common.KindStorage, err,
					"persist event %s for %s", ev.ID, ev.Ticker))
			}
		}
	}

	return events, errors.Join(persistErrs...)
}

func (e *Engine) buildEvent(ticker string, hit *RuleHit) *models.MarketEvent {
	return &models.MarketEvent{
		ID:            uuid.New().String(),
		Type:          hit.Type,
		Ticker:        ticker,
		Timestamp:     hit.Triggers[len(hit.Triggers)-1].Timestamp,
		Magnitude:     hit.Magnitude,
		Significance:  models.SignificanceForMagnitude(hit.Magnitude),
		SourceData:    hit.Triggers,
		RelatedEvents: []string{},
		Metadata:      hit.Metadata,
		CreatedAt:     time.Now(),
	}
}

func (e *Engine) filterBySignificance(events []*models.MarketEvent) []*models.MarketEvent {
	if len(e.cfg.SignificanceFilters) == 0 {
		return events
	}

	allowed := make(map[models.Significance]struct{}, len(e.cfg.SignificanceFilters))
	for _, s := range e.cfg.SignificanceFilters {
		allowed[s] = struct{}{}
	}

	filtered := events[:0]
	for _, ev := range events {
		if _, ok := allowed[ev.Significance]; ok {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

// StartRealTime arms a set of tickers for an external streaming collaborator
// to push through DetectEvents. The set is replaced wholesale.
func (e *Engine) StartRealTime(tickers []string) error {
	if !e.cfg.EnableRealTimeDetection {
		return common.NewError(common.KindConfiguration, "real-time detection is disabled in config")
	}
	if len(tickers) < 1 || len(tickers) > MaxArmedTickers {
		return common.NewError(common.KindValidation,
			"armed ticker count must be between 1 and %d, got %d", MaxArmedTickers, len(tickers))
	}

	armed := make([]string, len(tickers))
	for i, t := range tickers {
		armed[i] = models.NormalizeTicker(t)
	}

	e.mu.Lock()
	e.armed = armed
	e.mu.Unlock()

	e.logger.Info().Int("tickers", len(armed)).Msg("Real-time detection armed")
	return nil
}

// StopRealTime clears the armed ticker set.
func (e *Engine) StopRealTime() {
	e.mu.Lock()
	e.armed = nil
	e.mu.Unlock()

	e.logger.Info().Msg("Real-time detection stopped")
}

// ArmedTickers returns a copy of the currently armed ticker set.
func (e *Engine) ArmedTickers() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]string, len(e.armed))
	copy(out, e.armed)
	return out
}

// EventByID looks up a stored event. Returns (nil, nil) when absent.
func (e *Engine) EventByID(ctx context.Context, id string) (*models.MarketEvent, error) {
	if e.store == nil {
		return nil, nil
	}
	return e.store.EventByID(ctx, id)
}

// groupByTicker splits points by normalized ticker and sorts each group
// chronologically.
func groupByTicker(points []models.MarketDataPoint) map[string][]models.MarketDataPoint {
	groups := make(map[string][]models.MarketDataPoint)
	for _, p := range points {
		ticker := models.NormalizeTicker(p.Ticker)
		groups[ticker] = append(groups[ticker], p)
	}

	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
	}
	return groups
}
