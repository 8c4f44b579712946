package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vitos/fx_margin_trader/internal/infrastructure/storage"
)

// Dumps recent execution history from the sqlite store.
func main() {
	dbPath := flag.String("db", "bot.db", "path to sqlite database")
	limit := flag.Int("limit", 20, "number of records to show")
	flag.Parse()

	store, err := storage.NewSQLiteStore(*dbPath)
	if err != nil {
		fmt.Printf("Failed to open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	records, err := store.ListExecutions(context.Background(), *limit)
	if err != nil {
		fmt.Printf("Failed to list executions: %v\n", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Println("No executions recorded.")
		return
	}

	for _, rec := range records {
		orderID := rec.OrderID
		if orderID == "" {
			orderID = "-"
		}
		fmt.Printf("%s  %-8s %-4s %-18s units=%-8.0f order=%s  %s\n",
			rec.Timestamp.Format("2006-01-02 15:04:05"),
			rec.Symbol, rec.Action, rec.Status, rec.Units, orderID, rec.RequestID)
	}
}
