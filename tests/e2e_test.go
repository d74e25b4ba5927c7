//go:build integration

package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parcelworks/appealdesk/internal/appeal"
	"github.com/parcelworks/appealdesk/internal/recordsource"
	"github.com/parcelworks/appealdesk/internal/toolapi"
)

// seedRows is a small slice of the secured roll around Russian Hill: the
// subject at 990 Green St plus two recent sales nearby and one stale sale
// that the recency window must exclude.
func seedRows() []recordsource.Row {
	return []recordsource.Row{
		{
			ParcelID: "0100-001", Block: "0100", Lot: "001",
			Address: "0000 0990 GREEN                ST0000",
			UseCode: "SRES", ClassText: "Condominium",
			Bedrooms: "2", Bathrooms: "2", Area: "1350",
			LandValue: "500000", ImprovementValue: "700000",
			Latitude: "37.7980", Longitude: "-122.4180", RollYear: "2025",
		},
		{
			ParcelID: "0200-014", Block: "0200", Lot: "014",
			Address: "0000 1625 PACIFIC             AV0007",
			UseCode: "SRES", ClassText: "Condominium",
			Bedrooms: "2", Bathrooms: "1", Area: "1200",
			LandValue: "450000", ImprovementValue: "500000",
			SaleDate: "2025-03-10",
			Latitude: "37.7945", Longitude: "-122.4235", RollYear: "2025",
		},
		{
			ParcelID: "0210-008", Block: "0210", Lot: "008",
			Address: "0000 2150 WEBSTER            ST0000",
			UseCode: "SRES", ClassText: "Condominium",
			Bedrooms: "3", Bathrooms: "2", Area: "1500",
			LandValue: "480000", ImprovementValue: "520000",
			SaleDate: "2025-02-01",
			Latitude: "37.7937", Longitude: "-122.4330", RollYear: "2025",
		},
		{
			ParcelID: "0220-003", Block: "0220", Lot: "003",
			Address: "0000 1800 BROADWAY           ST0000",
			UseCode: "SRES", ClassText: "Condominium",
			LandValue: "400000", ImprovementValue: "450000",
			SaleDate: "2021-06-15",
			Latitude: "37.7958", Longitude: "-122.4250", RollYear: "2025",
		},
	}
}

func newE2EServer(t *testing.T) *httptest.Server {
	t.Helper()
	snapshot, err := recordsource.OpenSnapshot(filepath.Join(t.TempDir(), "roll.db"))
	if err != nil {
		t.Fatalf("open snapshot: %v", err)
	}
	t.Cleanup(func() { snapshot.Close() })
	if err := snapshot.Insert(context.Background(), seedRows()); err != nil {
		t.Fatalf("seed snapshot: %v", err)
	}

	svc := appeal.NewService(appeal.Config{
		Source: snapshot,
		Clock: func() time.Time {
			return time.Date(2025, time.August, 1, 12, 0, 0, 0, time.UTC)
		},
	})
	server := httptest.NewServer(toolapi.NewServer(svc, toolapi.NewRegistry(svc), nil))
	t.Cleanup(server.Close)
	return server
}

func invokeTool(t *testing.T, baseURL, name string, body any) (int, map[string]any) {
	t.Helper()
	blob, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(baseURL+"/v1/tools/"+name, "application/json", bytes.NewReader(blob))
	if err != nil {
		t.Fatalf("post %s: %v", name, err)
	}
	defer resp.Body.Close()
	var envelope map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode %s response: %v", name, err)
	}
	return resp.StatusCode, envelope
}

func TestFullAppealFlowOverSnapshot(t *testing.T) {
	server := newE2EServer(t)

	// Resolve the subject by street address.
	status, envelope := invokeTool(t, server.URL, "resolve-property", map[string]any{
		"query":           "990 Green St, San Francisco, CA",
		"reference_value": 950000,
	})
	if status != 200 {
		t.Fatalf("resolve status = %d: %v", status, envelope)
	}
	prop := envelope["result"].(map[string]any)["property"].(map[string]any)
	if prop["address"] != "990 GREEN ST" {
		t.Fatalf("address = %v", prop["address"])
	}

	// Search expands past the empty 0.25 mile request until sales appear,
	// and the stale 2021 sale stays out.
	status, envelope = invokeTool(t, server.URL, "find-comparables", map[string]any{
		"radius_miles":   0.25,
		"recency_months": 12,
	})
	if status != 200 {
		t.Fatalf("find status = %d: %v", status, envelope)
	}
	result := envelope["result"].(map[string]any)
	added := result["added"].([]any)
	if len(added) == 0 {
		t.Fatal("no comparables found")
	}
	for _, c := range added {
		if strings.Contains(c.(map[string]any)["address"].(string), "BROADWAY") {
			t.Fatal("stale sale leaked into results")
		}
	}

	// Re-running the identical search adds nothing.
	_, envelope = invokeTool(t, server.URL, "find-comparables", map[string]any{
		"radius_miles":   0.25,
		"recency_months": 12,
	})
	if again := envelope["result"].(map[string]any)["added"].([]any); len(again) != 0 {
		t.Fatalf("second run added %d rows", len(again))
	}

	// Eligibility during the filing window.
	status, envelope = invokeTool(t, server.URL, "check-eligibility", map[string]any{
		"property_type":   "condo",
		"assessed_value":  1200000,
		"reference_value": 950000,
	})
	if status != 200 {
		t.Fatalf("eligibility status = %d: %v", status, envelope)
	}
	report := envelope["result"].(map[string]any)
	if report["eligible"] != true || report["window_open"] != true {
		t.Fatalf("report = %v", report)
	}

	// Draft and build.
	if status, envelope = invokeTool(t, server.URL, "draft-argument", map[string]any{"tone": "formal"}); status != 200 {
		t.Fatalf("draft status = %d: %v", status, envelope)
	}
	status, envelope = invokeTool(t, server.URL, "build-packet", map[string]any{})
	if status != 200 {
		t.Fatalf("build status = %d: %v", status, envelope)
	}
	doc := envelope["result"].(map[string]any)["document"].(string)
	for _, want := range []string{"# Assessment Appeal Evidence Packet", "990 GREEN ST", "## Filing Checklist"} {
		if !strings.Contains(doc, want) {
			t.Fatalf("packet missing %q", want)
		}
	}

	// HTML export of the same packet.
	status, envelope = invokeTool(t, server.URL, "export-packet", map[string]any{"format": "html"})
	if status != 200 {
		t.Fatalf("export status = %d: %v", status, envelope)
	}
	htmlDoc := envelope["result"].(map[string]any)["document"].(string)
	if !strings.Contains(htmlDoc, "<!doctype html>") || !strings.Contains(htmlDoc, "990 GREEN ST") {
		t.Fatal("html export malformed")
	}

	// Reset clears the case.
	resp, err := http.Post(server.URL+"/v1/case/reset", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	status, envelope = invokeTool(t, server.URL, "build-packet", map[string]any{})
	if status != 409 {
		t.Fatalf("post-reset build status = %d: %v", status, envelope)
	}
}

func TestBlockLotResolutionOverSnapshot(t *testing.T) {
	server := newE2EServer(t)

	status, envelope := invokeTool(t, server.URL, "resolve-property", map[string]any{"query": "0210/008"})
	if status != 200 {
		t.Fatalf("resolve status = %d: %v", status, envelope)
	}
	prop := envelope["result"].(map[string]any)["property"].(map[string]any)
	if prop["parcel_id"] != "0210-008" {
		t.Fatalf("parcel = %v", prop["parcel_id"])
	}
	if prop["address"] != "2150 WEBSTER ST" {
		t.Fatalf("address = %v", prop["address"])
	}
}
