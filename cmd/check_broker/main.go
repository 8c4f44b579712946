package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/vitos/fx_margin_trader/internal/config"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/broker"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/logger"
)

// Connectivity check: public quote, symbol spec, and (when credentials
// are present) account state. Never places orders.
func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger("warn")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	publicURL := cfg.Broker.PublicURL
	if publicURL == "" {
		publicURL = broker.GMOPublicURL
	}
	privateURL := cfg.Broker.PrivateURL
	if privateURL == "" {
		privateURL = broker.GMOPrivateURL
	}

	// Deliberately disarmed: this tool must never write.
	guard := broker.NewArmingGuard(false)
	transport := broker.NewSignedTransport(cfg.Broker.APIKey, cfg.Broker.APISecret,
		publicURL, privateURL, guard.Armed, log)
	adapter := broker.NewGMOAdapter(transport, guard, cfg.TargetSymbols, log)

	ctx := context.Background()
	symbol := cfg.TargetSymbols[0]

	fmt.Printf("Testing broker connectivity...\nPublic endpoint: %s\n", publicURL)

	snapshot, err := adapter.Quote(ctx, symbol)
	if err != nil {
		fmt.Printf("FAIL quote(%s): %v\n", symbol, err)
	} else {
		fmt.Printf("OK   quote(%s): bid=%.3f ask=%.3f\n", symbol, snapshot.Bid, snapshot.Ask)
	}

	spec, err := adapter.SymbolSpec(ctx, symbol)
	if err != nil {
		fmt.Printf("FAIL symbolSpec(%s): %v\n", symbol, err)
	} else {
		fmt.Printf("OK   symbolSpec(%s): min=%.0f step=%.0f\n", symbol, spec.MinOrderSize, spec.SizeStep)
	}

	if cfg.Broker.APIKey == "" {
		fmt.Println("SKIP account state (no GMO_API_KEY set)")
		return
	}

	account, err := adapter.AccountState(ctx)
	if err != nil {
		fmt.Printf("FAIL accountState: %v\n", err)
	} else {
		fmt.Printf("OK   accountState: balance=%.0f marginUsed=%.0f maintenance=%.2f\n",
			account.Balance, account.MarginUsed, account.MarginMaintenancePct)
	}
}
