package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vitos/fx_margin_trader/internal/infrastructure/broker"
	"github.com/vitos/fx_margin_trader/internal/infrastructure/logger"
)

// Streams live quotes from the public ticker channel to stdout.
func main() {
	symbols := flag.String("symbols", "USD_JPY", "comma-separated symbols to watch")
	wsURL := flag.String("ws", broker.GMOPublicWSURL, "websocket endpoint")
	flag.Parse()

	log, err := logger.NewLogger("warn")
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	stream := broker.NewRateStream(*wsURL, log)
	stream.OnQuote(func(symbol string, bid, ask float64) {
		fmt.Printf("%-10s bid=%.3f ask=%.3f spread=%.3f\n", symbol, bid, ask, ask-bid)
	})

	list := strings.Split(*symbols, ",")
	if err := stream.Connect(list); err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer stream.Close()

	fmt.Printf("Watching %s (Ctrl+C to stop)\n", *symbols)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case <-stream.Done():
		fmt.Println("stream closed")
	}
}
