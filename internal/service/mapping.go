package service

import (
	"time"

	"catalog_sync/internal/domain"
	"catalog_sync/internal/source/marketplace"
)

// mapItem converts a marketplace detail into the mirrored shape, filling
// defaults for optional remote fields.
func mapItem(integrationID int64, item *marketplace.Item, syncedAt time.Time, defaultCurrency string) *domain.CatalogItem {
	out := &domain.CatalogItem{
		IntegrationID:  integrationID,
		ExternalItemID: item.ID,
		Title:          item.Title,
		CurrencyID:     item.CurrencyID,
		Status:         mapStatus(item.Status),
		Permalink:      item.Permalink,
		LastSyncedAt:   syncedAt,
	}

	if item.Price != nil {
		out.Price = *item.Price
	}
	if out.CurrencyID == "" {
		out.CurrencyID = defaultCurrency
	}
	if item.AvailableQuantity != nil {
		out.AvailableQuantity = *item.AvailableQuantity
	}
	if item.SoldQuantity != nil {
		out.SoldQuantity = *item.SoldQuantity
	}

	return out
}

// mapStatus folds remote states the mirror does not model (under_review,
// inactive, ...) into paused.
func mapStatus(status string) domain.ItemStatus {
	switch domain.ItemStatus(status) {
	case "", domain.ItemActive:
		return domain.ItemActive
	case domain.ItemPaused:
		return domain.ItemPaused
	case domain.ItemClosed:
		return domain.ItemClosed
	default:
		return domain.ItemPaused
	}
}
