package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"PivotScreener/internal/di"
	"PivotScreener/internal/domain/models"
	drepo "PivotScreener/internal/domain/repository"
	"PivotScreener/internal/usecase"
	"PivotScreener/pkg/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath string
	timeframe  string
	limit      int
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "Pivot point sentiment screener",
	Long: `Screens crypto pairs by their position against the classic floor pivot
levels and groups them into bullish, gradually bullish and bearish categories.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&timeframe, "tf", "", "bar timeframe: 1d, 1h, 1w or 1m (default from config)")
	rootCmd.PersistentFlags().IntVar(&limit, "limit", 0, "bars per symbol (default from config)")

	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(detailCmd())
	rootCmd.AddCommand(symbolsCmd())
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// session holds what a single CLI invocation needs.
type session struct {
	cfg      *config.Config
	screener *usecase.Screener
	tf       models.Timeframe
	limit    int
	cleanups []func()
}

func (s *session) Close() {
	for i := len(s.cleanups) - 1; i >= 0; i-- {
		s.cleanups[i]()
	}
}

// newSession loads the config, applies flag overrides and builds the
// screener from the same providers the service uses.
func newSession() (*session, error) {
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return nil, err
	}
	// keep stdout for tables
	cfg.Log.Output = "stderr"
	if cfg.Log.Level == "info" {
		cfg.Log.Level = "warn"
	}

	s := &session{cfg: cfg, tf: models.Timeframe(cfg.Screener.Timeframe), limit: cfg.Screener.Limit}
	if timeframe != "" {
		s.tf = models.Timeframe(timeframe)
		if !drepo.IsValidTimeframe(s.tf) {
			return nil, fmt.Errorf("invalid timeframe %q", timeframe)
		}
	}
	if limit != 0 {
		if limit < 1 || limit > 1000 {
			return nil, fmt.Errorf("limit must be within [1, 1000], got %d", limit)
		}
		s.limit = limit
	}

	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return nil, err
	}
	reg := di.ProvideRegistry()
	ex := di.ProvideExchangeClient(cfg, reg, l)
	ch, chCleanup, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return nil, err
	}
	s.cleanups = append(s.cleanups, chCleanup)
	c, cacheCleanup, err := di.ProvideCache(cfg)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.cleanups = append(s.cleanups, cacheCleanup)
	md := di.ProvideMarketData(cfg, ex, ch, c, l)
	s.screener = di.ProvideScreener(cfg, md, di.ProvideMetrics(reg), l)
	return s, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
