package postgres

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"catalog_sync/internal/domain"
)

type CatalogItemStore struct {
	db *sqlx.DB
}

func NewCatalogItemStore(db *sqlx.DB) *CatalogItemStore {
	return &CatalogItemStore{db: db}
}

// Upsert inserts item or overwrites the stored row with the same
// (integration_id, external_item_id).
func (s *CatalogItemStore) Upsert(ctx context.Context, item *domain.CatalogItem) error {
	query := `
		INSERT INTO catalog_items (
			integration_id, external_item_id, title, price, currency_id,
			available_quantity, sold_quantity, status, permalink, last_synced_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		)
		ON CONFLICT (integration_id, external_item_id) DO UPDATE SET
			title = EXCLUDED.title,
			price = EXCLUDED.price,
			currency_id = EXCLUDED.currency_id,
			available_quantity = EXCLUDED.available_quantity,
			sold_quantity = EXCLUDED.sold_quantity,
			status = EXCLUDED.status,
			permalink = EXCLUDED.permalink,
			last_synced_at = EXCLUDED.last_synced_at
		RETURNING id`

	return GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		item.IntegrationID,
		item.ExternalItemID,
		item.Title,
		item.Price,
		item.CurrencyID,
		item.AvailableQuantity,
		item.SoldQuantity,
		item.Status,
		item.Permalink,
		item.LastSyncedAt,
	).Scan(&item.ID)
}

// List returns one page of the mirror and the number of rows matching opts.
func (s *CatalogItemStore) List(ctx context.Context, integrationID int64, opts domain.ListOptions) ([]domain.CatalogItem, int, error) {
	where, args := listFilter(integrationID, opts)
	exec := GetExecutor(ctx, s.db)

	var total int
	if err := sqlx.GetContext(ctx, exec, &total, `SELECT COUNT(*) FROM catalog_items WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, integration_id, external_item_id, title, price, currency_id,
			available_quantity, sold_quantity, status, permalink, last_synced_at
		FROM catalog_items
		WHERE ` + where + `
		ORDER BY external_item_id
		LIMIT $` + strconv.Itoa(len(args)+1) + ` OFFSET $` + strconv.Itoa(len(args)+2)

	items := []domain.CatalogItem{}
	if err := sqlx.SelectContext(ctx, exec, &items, query, append(args, opts.Limit, opts.Offset)...); err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

func listFilter(integrationID int64, opts domain.ListOptions) (string, []any) {
	conditions := []string{"integration_id = $1"}
	args := []any{integrationID}

	if opts.Status != "" {
		args = append(args, opts.Status)
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}
	if opts.Search != "" {
		args = append(args, "%"+escapeLike(opts.Search)+"%")
		conditions = append(conditions, "title ILIKE $"+strconv.Itoa(len(args)))
	}

	return strings.Join(conditions, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
