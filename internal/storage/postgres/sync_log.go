package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"

	"catalog_sync/internal/domain"
)

// SyncLogStore is the append-only audit trail of sync attempts.
type SyncLogStore struct {
	db *sqlx.DB
}

func NewSyncLogStore(db *sqlx.DB) *SyncLogStore {
	return &SyncLogStore{db: db}
}

func (s *SyncLogStore) Append(ctx context.Context, entry *domain.SyncLogEntry) error {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("encode sync log metadata: %w", err)
	}

	query := `
		INSERT INTO sync_logs (integration_id, sync_type, outcome, metadata)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		entry.IntegrationID,
		entry.SyncType,
		entry.Outcome,
		metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
}

// LastCompletedAt returns when the integration last finished a sync that
// reached the upsert phase. Zero time means never.
func (s *SyncLogStore) LastCompletedAt(ctx context.Context, integrationID int64) (time.Time, error) {
	query := `
		SELECT created_at FROM sync_logs
		WHERE integration_id = $1 AND sync_type = $2 AND outcome IN ($3, $4)
		ORDER BY created_at DESC
		LIMIT 1`

	var at time.Time
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &at, query,
		integrationID,
		domain.SyncTypeCatalog,
		domain.OutcomeSuccess,
		domain.OutcomePartial,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}
	return at, nil
}
