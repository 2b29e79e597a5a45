// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigilnet

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/vigilnet/internal/channel"
	"github.com/tomtom215/vigilnet/internal/config"
	"github.com/tomtom215/vigilnet/internal/discovery"
	"github.com/tomtom215/vigilnet/internal/eventbus"
	"github.com/tomtom215/vigilnet/internal/ipconfig"
	"github.com/tomtom215/vigilnet/internal/logging"
	"github.com/tomtom215/vigilnet/internal/resilience"
	"github.com/tomtom215/vigilnet/internal/riskengine"
	"github.com/tomtom215/vigilnet/internal/store"
	"github.com/tomtom215/vigilnet/internal/store/rollup"
	"github.com/tomtom215/vigilnet/internal/supervisor"
	"github.com/tomtom215/vigilnet/internal/supervisor/services"
	"github.com/tomtom215/vigilnet/internal/vision"
)

//nolint:gocyclo // sequential wiring, one component per step
func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level})
	logging.Info().Msg("starting vigilnet")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	badgerDB, err := store.OpenBadger(cfg.Store.BadgerDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open badger store")
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing badger store")
		}
	}()

	rollupDB, err := rollup.Open(ctx, cfg.Store.DuckDBPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open rollup database")
	}
	defer func() {
		if err := rollupDB.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing rollup database")
		}
	}()

	ipMgr, err := ipconfig.NewManager(cfg.Discovery.IPConfigPath)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load ip config")
	}
	matcher := ipconfig.NewMatcher()

	videos := store.NewVideoStore(badgerDB)
	channels := store.NewChannelStore(badgerDB)
	scans := store.NewScanHistoryStore(badgerDB)
	channelTracker := channel.NewTracker(channels)

	bus, err := eventbus.New(ctx, eventbus.LoadNATSConfig(), eventbus.DefaultRouterConfig(), nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to start event bus")
	}
	defer func() {
		if err := bus.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing event bus")
		}
	}()

	riskEngine := riskengine.NewEngine()
	processor := discovery.NewProcessor(videos, channelTracker, ipMgr, matcher, riskEngine, bus)

	searchAPIKey := os.Getenv("SEARCH_API_KEY")
	if searchAPIKey == "" {
		logging.Warn().Msg("SEARCH_API_KEY not set, discovery scheduler will fail every call")
	}
	searchClient := discovery.NewSearchClient(cfg.Discovery.SearchAPIBaseURL, searchAPIKey)

	seed := time.Now().UnixNano()
	history := discovery.NewHistory(rollupDB, seed)
	planner := discovery.NewPlanBuilder(history, seed)

	scheduler := discovery.NewScheduler(
		searchClient, rollupDB, history, planner, processor,
		videos, channelTracker, ipMgr, logging.Logger(),
		cfg.Quota.DailyUnits, cfg.Discovery.MaxChannelsPerRun, cfg.Discovery.MaxQueriesPerRun,
		cfg.Discovery.ChannelScanCooldown, cfg.Discovery.SearchQueryInterval, "discovery-search-api",
	)
	dispatchTrigger := discovery.NewDispatchTrigger(videos, bus)

	rescorer := riskengine.NewRescorer(riskEngine, videos, channels, logging.Logger())

	budget := vision.NewBudget(rollupDB, cfg.Budget.DailyEUR)
	configCalc := vision.NewConfigCalculator()
	promptBuilder := vision.NewPromptBuilder()

	geminiModel := vision.NewGeminiModel(
		cfg.Vision.Project, cfg.Vision.ModelRegion, cfg.Vision.ModelName,
		vision.GCEMetadataTokenSource, cfg.Vision.InputPricePer1M, cfg.Vision.OutputPricePer1M,
	)
	retryingModel := vision.NewRetryingModel(geminiModel, logging.Logger())
	resultProcessor := vision.NewResultProcessor(videos, channels, rollupDB, bus, logging.Logger())
	dispatcher := vision.NewDispatcher(
		videos, scans, ipMgr, budget, configCalc, promptBuilder, retryingModel, resultProcessor,
		logging.Logger(), cfg.Vision.WorkerPoolSize,
	)
	bus.Router().AddConsumerHandler(
		"vision-dispatcher", eventbus.TopicScanReady, bus.Subscriber(), dispatcher.HandlerFunc(),
	)

	sweeper := resilience.NewSweeper(videos, scans, logging.Logger())
	resilienceService := resilience.NewService(sweeper)

	slogLogger := logging.NewSlogLoggerWithLevel(cfg.Logging.Level)
	tree, err := supervisor.NewSupervisorTree(slogLogger, supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to create supervisor tree")
	}

	tree.AddStartupService(resilienceService)

	tree.AddPipelineService(services.NewPeriodicService(
		"discovery-scheduler",
		func(ctx context.Context) (string, error) {
			stats, err := scheduler.Run(ctx, cfg.Quota.DailyUnits)
			if err != nil {
				return "", err
			}
			if _, err := dispatchTrigger.TriggerBatch(ctx, cfg.Discovery.MaxVideosToScan, cfg.Discovery.MinimumScanPriority); err != nil {
				return "", fmt.Errorf("dispatch trigger: %w", err)
			}
			return fmt.Sprintf("new=%d rediscovered=%d channels=%d quota_used=%d",
				stats.NewVideos, stats.RediscoveredVideos, stats.UniqueChannels, stats.QuotaUsed), nil
		},
		time.Hour, true, logging.Logger(),
	))

	tree.AddPipelineService(services.NewPeriodicService(
		"risk-rescorer",
		func(ctx context.Context) (string, error) {
			stats, err := rescorer.Sweep(ctx)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("%+v", stats), nil
		},
		6*time.Hour, false, logging.Logger(),
	))

	tree.AddPipelineService(services.NewRouterService(bus, cfg.Supervisor.ShutdownTimeout))

	mux := chi.NewRouter()
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.With(httprate.LimitByIP(120, time.Minute)).Handle("/metrics", promhttp.Handler())

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(httpServer, cfg.Supervisor.ShutdownTimeout))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", httpServer.Addr).Msg("starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("context cancelled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("service failed to stop")
		}
	}

	logging.Info().Msg("vigilnet stopped gracefully")
}
