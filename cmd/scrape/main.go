// Command scrape runs the full pipeline once and exits, the way the hosted
// cron workflow did: fetch both BSI group tables, persist and write artifacts,
// commit changed files. Any failure yields a non-zero exit.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"bsiwatch/internal/app"
	"bsiwatch/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	builder := app.NewBuilder(&cfg)
	application, err := builder.Build(ctx)
	if err != nil {
		log.Fatalf("app build error: %v", err)
	}

	runErr := application.RunOnce(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := application.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	if runErr != nil {
		log.Printf("scrape failed: %v", runErr)
		os.Exit(1)
	}
}
