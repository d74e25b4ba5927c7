package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/parcelworks/appealdesk/internal/advisor"
	"github.com/parcelworks/appealdesk/internal/appeal"
	"github.com/parcelworks/appealdesk/internal/config"
	"github.com/parcelworks/appealdesk/internal/recordsource"
	"github.com/parcelworks/appealdesk/internal/toolapi"
)

func main() {
	questionFlag := flag.String("q", "", "single question; omit for an interactive session")
	snapshotFlag := flag.String("snapshot", "", "path to a SQLite roll snapshot (overrides ROLL_SNAPSHOT_PATH)")
	flag.Parse()

	cfg := config.Load()
	if *snapshotFlag != "" {
		cfg.SnapshotPath = *snapshotFlag
	}

	var source recordsource.Source
	if cfg.SODADataset != "" {
		source = recordsource.NewSODAClient(cfg.SODABaseURL, cfg.SODADataset, cfg.SODAAppToken)
	} else {
		snapshot, err := recordsource.OpenSnapshot(cfg.SnapshotPath)
		if err != nil {
			log.Fatalf("open roll snapshot (%s): %v", cfg.SnapshotPath, err)
		}
		defer snapshot.Close()
		source = snapshot
	}

	svc := appeal.NewService(appeal.Config{Source: source, RollYear: cfg.RollYear})
	registry := toolapi.NewRegistry(svc)
	adv, err := advisor.NewFromEnv(registry, cfg.AnthropicModel)
	if err != nil {
		log.Fatal(err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if *questionFlag != "" {
		answer, err := adv.Ask(ctx, *questionFlag)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(answer)
		return
	}

	// Interactive: one case shared across questions, so the owner can
	// resolve, search, and build a packet across turns.
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("appeal-advisor ready. Ask about your assessment; ctrl-d to quit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		answer, err := adv.Ask(ctx, question)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("advisor error: %v", err)
			continue
		}
		fmt.Println(answer)
	}
}
