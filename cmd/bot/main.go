package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/vitos/fx_margin_trader/internal/config"
	"github.com/vitos/fx_margin_trader/internal/domain"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/audit"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/broker"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/decision"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/logger"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/news"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/providers"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/storage"
	"github.com/vitos/fx_margin_trader/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting FX margin trader")

	guard := broker.NewArmingGuard(cfg.EnableLiveTrading)

	var brokerClient domain.Broker
	switch cfg.Broker.Type {
	case "gmo":
		if cfg.Broker.APIKey == "" || cfg.Broker.APISecret == "" {
			log.Fatal("GMO_API_KEY / GMO_API_SECRET not set")
		}
		publicURL := cfg.Broker.PublicURL
		if publicURL == "" {
			publicURL = broker.GMOPublicURL
		}
		privateURL := cfg.Broker.PrivateURL
		if privateURL == "" {
			privateURL = broker.GMOPrivateURL
		}
		transport := broker.NewSignedTransport(cfg.Broker.APIKey, cfg.Broker.APISecret,
			publicURL, privateURL, guard.Armed, log)
		brokerClient = broker.NewGMOAdapter(transport, guard, cfg.TargetSymbols, log)
	default:
		log.Info("using offline broker (mock mode)")
		brokerClient = broker.NewOfflineBroker(0, log)
	}

	auditWriter, err := audit.NewJSONLWriter(cfg.Audit.Path)
	if err != nil {
		log.Fatal("failed to open audit log", zap.Error(err))
	}
	defer auditWriter.Close()

	store, err := storage.NewSQLiteStore(cfg.Database.SQLitePath)
	if err != nil {
		log.Fatal("failed to init sqlite", zap.Error(err))
	}
	defer store.Close()

	vixChain := usecase.NewVixChain([]domain.VixSource{
		providers.NewYahooVixSource(time.Duration(cfg.Providers.VixTTLMinutes)*time.Minute, log),
	}, cfg.Providers.VixFallback, log)

	swapChain := usecase.NewSwapChain([]domain.SwapSource{
		providers.NewHTTPSwapSource(cfg.Providers.SwapInfoURL, log),
		providers.NewManualSwapSource(cfg.Providers.ManualSwap.Points, cfg.Providers.ManualSwap.UpdatedAt, log),
	}, log)

	marketService := usecase.NewMarketService(brokerClient, vixChain, swapChain, log)

	riskManager := usecase.NewRiskManager(usecase.RiskConfig{
		MaxLeverage:           cfg.Risk.MaxLeverage,
		KillSwitchMarginPct:   cfg.Risk.KillSwitchMarginPct,
		MaxPositionsPerSymbol: cfg.Risk.MaxPositionsPerSymbol,
		CooldownDuration:      time.Duration(cfg.Risk.CooldownMinutes) * time.Minute,
	}, log)

	strategy := usecase.NewStrategyEngine(marketService, news.NewMockSource(), decision.NewStaticClient(),
		riskManager, usecase.StrategyConfig{
			VixThreshold:     cfg.Strategy.VixThreshold,
			DecisionInterval: time.Duration(cfg.Strategy.DecisionIntervalMinutes) * time.Minute,
			NewsLimit:        cfg.Strategy.NewsLimit,
		}, log)

	execution := usecase.NewExecutionService(brokerClient, auditWriter, store, guard,
		usecase.SizingConfig{
			MinOrderSize: cfg.Sizing.MinOrderSize,
			SizeStep:     cfg.Sizing.SizeStep,
		}, log)

	if guard.Armed() {
		log.Warn("LIVE TRADING IS ENABLED")
		fmt.Println("Starting in 5 seconds. Press Ctrl+C to ABORT.")
		for i := 5; i > 0; i-- {
			fmt.Printf("%d... ", i)
			time.Sleep(time.Second)
		}
		fmt.Println("START!")
	} else {
		log.Info("running in dry-run mode")
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	interval := time.Duration(cfg.IntervalSeconds) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info("entering main loop",
		zap.Strings("symbols", cfg.TargetSymbols),
		zap.Duration("interval", interval))

	for {
		for _, symbol := range cfg.TargetSymbols {
			ctx := context.Background()

			action := strategy.NextAction(ctx, symbol)
			outcome := execution.Execute(ctx, action)

			// A partial failure means positions may remain after a
			// close that reported success. Automated trading must stop
			// until an operator reconciles the account.
			if outcome.Status == domain.StatusPartialFailure {
				log.Error("EMERGENCY STOP: partial failure detected",
					zap.String("symbol", symbol),
					zap.String("request_id", outcome.RequestID))
				os.Exit(1)
			}
		}

		select {
		case <-stop:
			log.Info("bot stopped by user")
			return
		case <-ticker.C:
		}
	}
}
