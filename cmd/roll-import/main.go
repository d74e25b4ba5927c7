// roll-import loads a secured-roll CSV export into the local SQLite
// snapshot that appealdesk serves comparable searches from when no live
// portal is configured.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/parcelworks/appealdesk/internal/config"
	"github.com/parcelworks/appealdesk/internal/recordsource"
)

const insertBatch = 500

func main() {
	csvFlag := flag.String("csv", "", "path to the roll CSV export (required)")
	snapshotFlag := flag.String("snapshot", "", "path to the SQLite snapshot (overrides ROLL_SNAPSHOT_PATH)")
	flag.Parse()

	if *csvFlag == "" {
		log.Fatal("missing required flag -csv")
	}

	cfg := config.Load()
	if *snapshotFlag != "" {
		cfg.SnapshotPath = *snapshotFlag
	}

	f, err := os.Open(*csvFlag)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	store, err := recordsource.OpenSnapshot(cfg.SnapshotPath)
	if err != nil {
		log.Fatalf("open roll snapshot (%s): %v", cfg.SnapshotPath, err)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		log.Fatalf("read csv header: %v", err)
	}
	index := headerIndex(header)

	var (
		batch    []recordsource.Row
		imported int
		skipped  int
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("read csv record: %v", err)
		}
		row := rowFromRecord(record, index)
		if row.ParcelID == "" {
			skipped++
			continue
		}
		batch = append(batch, row)
		if len(batch) >= insertBatch {
			if err := store.Insert(ctx, batch); err != nil {
				log.Fatalf("insert batch: %v", err)
			}
			imported += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := store.Insert(ctx, batch); err != nil {
			log.Fatalf("insert batch: %v", err)
		}
		imported += len(batch)
	}

	log.Printf("imported %d rows into %s (%d skipped without parcel number)", imported, cfg.SnapshotPath, skipped)
}

// headerIndex maps the portal's column identifiers to CSV positions,
// tolerating case and surrounding whitespace.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return index
}

func rowFromRecord(record []string, index map[string]int) recordsource.Row {
	field := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	return recordsource.Row{
		ParcelID:         field("parcel_number"),
		Block:            field("block"),
		Lot:              field("lot"),
		Address:          field("property_location"),
		UseCode:          field("use_code"),
		ClassText:        field("use_definition"),
		Bedrooms:         field("number_of_bedrooms"),
		Bathrooms:        field("number_of_bathrooms"),
		Area:             field("property_area"),
		LandValue:        field("assessed_land_value"),
		ImprovementValue: field("assessed_improvement_value"),
		SaleDate:         field("sale_date"),
		Latitude:         field("latitude"),
		Longitude:        field("longitude"),
		RollYear:         field("closed_roll_year"),
	}
}
