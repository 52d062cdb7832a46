package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bobmcallan/pulse/internal/app"
	"github.com/bobmcallan/pulse/internal/common"
	"github.com/bobmcallan/pulse/internal/models"
)

func main() {
	var (
		configPath   = flag.String("config", os.Getenv("PULSE_CONFIG"), "path to TOML config file")
		tickers      = flag.String("tickers", "", "comma-separated tickers to analyze (overrides config)")
		days         = flag.Int("days", 30, "trailing days of history to analyze")
		recent       = flag.Bool("recent", false, "list recent stored events instead of analyzing")
		limit        = flag.Int("limit", 50, "maximum events to list with -recent")
		significance = flag.String("significance", "", "filter -recent by significance (low|medium|high|critical)")
		version      = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println(common.GetFullVersion())
		return
	}

	a, err := app.NewApp(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	common.PrintBanner(a.Config, a.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Engine.GetMaxProcessingTime())
	defer cancel()

	if *recent {
		if err := listRecentEvents(ctx, a, *limit, *significance); err != nil {
			a.Logger.Fatal().Err(err).Msg("Failed to list recent events")
		}
		common.PrintShutdownBanner(a.Logger)
		return
	}

	requested := resolveTickers(*tickers, a.Config.Tickers)
	if len(requested) == 0 {
		fmt.Fprintln(os.Stderr, "No tickers given; use -tickers or set tickers in config")
		os.Exit(1)
	}

	if err := analyze(ctx, a, requested, *days); err != nil {
		a.Logger.Fatal().Err(err).Msg("Analysis failed")
	}

	common.PrintShutdownBanner(a.Logger)
}

// resolveTickers prefers the -tickers flag over the configured list.
func resolveTickers(flagValue string, configured []string) []string {
	if flagValue == "" {
		return configured
	}

	var out []string
	for _, t := range strings.Split(flagValue, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func analyze(ctx context.Context, a *app.App, tickers []string, days int) error {
	var (
		result *models.AnalyticsResult
		err    error
	)
	if len(tickers) == 1 {
		result, err = a.Analytics.AnalyzeTicker(ctx, tickers[0], days)
	} else {
		result, err = a.Analytics.AnalyzeMultipleTickers(ctx, tickers, days)
	}
	if err != nil {
		return err
	}

	a.Logger.Info().
		Int("events", len(result.Events)).
		Int("tickers", result.Processing.TickersProcessed).
		Dur("duration", result.Processing.Duration).
		Msg("Analysis complete")

	return printJSON(result)
}

func listRecentEvents(ctx context.Context, a *app.App, limit int, significance string) error {
	events, err := a.Analytics.GetRecentEvents(ctx, limit, models.Significance(significance))
	if err != nil {
		return err
	}
	return printJSON(events)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
