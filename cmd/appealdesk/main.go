package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/parcelworks/appealdesk/internal/appeal"
	"github.com/parcelworks/appealdesk/internal/config"
	"github.com/parcelworks/appealdesk/internal/export"
	"github.com/parcelworks/appealdesk/internal/recordsource"
	"github.com/parcelworks/appealdesk/internal/telemetry"
	"github.com/parcelworks/appealdesk/internal/toolapi"
)

func main() {
	addrFlag := flag.String("addr", "", "listen address (overrides APPEALDESK_ADDR)")
	snapshotFlag := flag.String("snapshot", "", "path to a SQLite roll snapshot (overrides ROLL_SNAPSHOT_PATH)")
	flag.Parse()

	cfg := config.Load()
	if *addrFlag != "" {
		cfg.ListenAddr = *addrFlag
	}
	if *snapshotFlag != "" {
		cfg.SnapshotPath = *snapshotFlag
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("telemetry setup: %v", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = shutdownTracing(flushCtx)
	}()

	// Prefer the live portal when a dataset is configured, otherwise the
	// local snapshot imported by roll-import.
	var source recordsource.Source
	if cfg.SODADataset != "" {
		source = recordsource.NewSODAClient(cfg.SODABaseURL, cfg.SODADataset, cfg.SODAAppToken)
		log.Printf("using roll feed %s dataset %s", cfg.SODABaseURL, cfg.SODADataset)
	} else {
		snapshot, err := recordsource.OpenSnapshot(cfg.SnapshotPath)
		if err != nil {
			log.Fatalf("open roll snapshot (%s): %v", cfg.SnapshotPath, err)
		}
		defer snapshot.Close()
		source = snapshot
		log.Printf("using roll snapshot at %s", cfg.SnapshotPath)
	}

	svc := appeal.NewService(appeal.Config{Source: source, RollYear: cfg.RollYear})
	registry := toolapi.NewRegistry(svc)
	handler := toolapi.NewServer(svc, registry, export.NewChromiumPDFRenderer())

	server := &http.Server{Addr: cfg.ListenAddr, Handler: handler}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Printf("appealdesk listening on %s", cfg.ListenAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
