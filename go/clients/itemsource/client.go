// Package itemsource fetches nomination catalogs from an external item
// source. An auction records the source it was seeded from as item_source_id;
// this client resolves that id back to the full item list.
package itemsource

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/gavel/go/clients"
	"github.com/mcdev12/gavel/go/internal/models"
)

type Client struct {
	base *clients.BaseClient
}

func NewClient(baseURL, apiKey string) *Client {
	base := clients.NewBaseClient(baseURL)
	if apiKey != "" {
		base.SetHeader("Authorization", "Bearer "+apiKey)
	}
	base.SetHeader("Accept", "application/json")
	return &Client{base: base}
}

// catalogEntry is the source's wire shape for one item.
type catalogEntry struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	Team            string `json:"team"`
	ExperienceYears int    `json:"experience_years"`
}

// FetchCatalog returns every item in a source's catalog.
func (c *Client) FetchCatalog(ctx context.Context, sourceID string) ([]models.Item, error) {
	body, err := c.base.Get(ctx, fmt.Sprintf("/catalogs/%s/items", sourceID))
	if err != nil {
		return nil, fmt.Errorf("fetch catalog %s: %w", sourceID, err)
	}

	var entries []catalogEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", sourceID, err)
	}

	items := make([]models.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.Item{
			ID:              e.ID,
			Name:            e.Name,
			Category:        e.Category,
			Team:            e.Team,
			ExperienceYears: e.ExperienceYears,
		})
	}
	return items, nil
}
