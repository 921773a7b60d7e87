// seed_items loads an auction's nomination pool, either from a JSON snapshot
// on disk or from an external item source, and posts it to the gateway's
// setup API.
//
// Usage:
//
//	AUCTION_ID=... ACTING_ID=... go run ./go/internal/tools/seed_items -file items.json
//	AUCTION_ID=... ACTING_ID=... ITEM_SOURCE_URL=... go run ./go/internal/tools/seed_items -source nfl-2026
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/mcdev12/gavel/go/clients/itemsource"
	"github.com/mcdev12/gavel/go/internal/models"
)

func main() {
	file := flag.String("file", "", "path to a JSON item snapshot")
	source := flag.String("source", "", "item source catalog id to fetch")
	gatewayURL := flag.String("gateway", "http://localhost:8081", "gateway base URL")
	flag.Parse()

	_ = godotenv.Load()

	auctionID, err := uuid.Parse(os.Getenv("AUCTION_ID"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "AUCTION_ID must be a valid UUID")
		os.Exit(1)
	}
	actingID, err := uuid.Parse(os.Getenv("ACTING_ID"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "ACTING_ID must be a valid UUID (the commissioner)")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	items, err := loadItems(ctx, *file, *source)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load items: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "no items to seed")
		os.Exit(1)
	}

	payload, err := json.Marshal(map[string]any{
		"acting_id": actingID,
		"items":     items,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal request: %v\n", err)
		os.Exit(1)
	}

	url := fmt.Sprintf("%s/api/auctions/%s/items", *gatewayURL, auctionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		fmt.Fprintf(os.Stderr, "build request: %v\n", err)
		os.Exit(1)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "post items: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		fmt.Fprintf(os.Stderr, "gateway returned %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Printf("seeded %d items into auction %s\n", len(items), auctionID)
}

func loadItems(ctx context.Context, file, source string) ([]models.Item, error) {
	switch {
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read snapshot: %w", err)
		}
		var items []models.Item
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("unmarshal snapshot: %w", err)
		}
		return items, nil

	case source != "":
		baseURL := os.Getenv("ITEM_SOURCE_URL")
		if baseURL == "" {
			return nil, fmt.Errorf("ITEM_SOURCE_URL is required with -source")
		}
		client := itemsource.NewClient(baseURL, os.Getenv("ITEM_SOURCE_API_KEY"))
		return client.FetchCatalog(ctx, source)

	default:
		return nil, fmt.Errorf("one of -file or -source is required")
	}
}
