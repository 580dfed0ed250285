package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ItemStatus string

const (
	ItemActive ItemStatus = "active"
	ItemPaused ItemStatus = "paused"
	ItemClosed ItemStatus = "closed"
)

// CatalogItem mirrors one remote listing. (IntegrationID, ExternalItemID) is unique.
type CatalogItem struct {
	ID                int64           `db:"id" json:"-"`
	IntegrationID     int64           `db:"integration_id" json:"integration_id"`
	ExternalItemID    string          `db:"external_item_id" json:"id"`
	Title             string          `db:"title" json:"title"`
	Price             decimal.Decimal `db:"price" json:"price"`
	CurrencyID        string          `db:"currency_id" json:"currency_id"`
	AvailableQuantity int             `db:"available_quantity" json:"available_quantity"`
	SoldQuantity      int             `db:"sold_quantity" json:"sold_quantity"`
	Status            ItemStatus      `db:"status" json:"status"`
	Permalink         string          `db:"permalink" json:"permalink"`
	LastSyncedAt      time.Time       `db:"last_synced_at" json:"last_synced_at"`
}

// ListOptions selects a page of the local mirror.
type ListOptions struct {
	Limit  int
	Offset int
	Status ItemStatus
	Search string
}

type Paging struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// CatalogPage is the response shape of Synchronize.
type CatalogPage struct {
	Results []CatalogItem `json:"results"`
	Paging  Paging        `json:"paging"`
}
