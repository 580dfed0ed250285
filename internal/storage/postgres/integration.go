package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"catalog_sync/internal/domain"
)

const integrationColumns = `
	id, tenant_id, external_account_id, access_token_enc, refresh_token_enc,
	expires_at, scopes, status, last_error, created_at, updated_at`

// integrationRow adds the text[] column sqlx cannot map onto []string.
type integrationRow struct {
	domain.Integration
	Scopes pq.StringArray `db:"scopes"`
}

func (r *integrationRow) toDomain() *domain.Integration {
	integration := r.Integration
	integration.Scopes = []string(r.Scopes)
	return &integration
}

type IntegrationStore struct {
	db *sqlx.DB
	tm *TransactionManager
}

func NewIntegrationStore(db *sqlx.DB) *IntegrationStore {
	return &IntegrationStore{db: db, tm: NewTransactionManager(db)}
}

func (s *IntegrationStore) Get(ctx context.Context, id int64) (*domain.Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE id = $1`

	var row integrationRow
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("integration %d: %w", id, domain.ErrIntegrationNotFound)
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// ListActive returns every integration currently allowed to sync.
func (s *IntegrationStore) ListActive(ctx context.Context) ([]domain.Integration, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE status = $1 ORDER BY id`

	var rows []integrationRow
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &rows, query, domain.IntegrationActive); err != nil {
		return nil, err
	}

	result := make([]domain.Integration, 0, len(rows))
	for i := range rows {
		result = append(result, *rows[i].toDomain())
	}
	return result, nil
}

// Connect inserts integration as the active row for its tenant and account.
// A previously active row for the same pair is expired in the same transaction.
func (s *IntegrationStore) Connect(ctx context.Context, integration *domain.Integration) error {
	return s.tm.WithTransaction(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, s.db)

		_, err := exec.ExecContext(ctx, `
			UPDATE integrations
			SET status = $3, updated_at = NOW()
			WHERE tenant_id = $1 AND external_account_id = $2 AND status = $4`,
			integration.TenantID,
			integration.ExternalAccountID,
			domain.IntegrationExpired,
			domain.IntegrationActive,
		)
		if err != nil {
			return fmt.Errorf("expire previous integration: %w", err)
		}

		query := `
			INSERT INTO integrations (
				tenant_id, external_account_id, access_token_enc, refresh_token_enc,
				expires_at, scopes, status, last_error
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8
			)
			RETURNING id, created_at, updated_at`

		err = exec.QueryRowxContext(ctx, query,
			integration.TenantID,
			integration.ExternalAccountID,
			integration.AccessTokenEnc,
			integration.RefreshTokenEnc,
			integration.ExpiresAt,
			pq.StringArray(scopesOrEmpty(integration.Scopes)),
			integration.Status,
			integration.LastError,
		).Scan(&integration.ID, &integration.CreatedAt, &integration.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert integration: %w", err)
		}
		return nil
	})
}

// UpdateTokens persists a refreshed grant and clears the error state.
// Only an active integration is updated, so a refresh that races a revoke
// cannot reactivate it.
func (s *IntegrationStore) UpdateTokens(ctx context.Context, integration *domain.Integration) error {
	query := `
		UPDATE integrations SET
			access_token_enc = $2,
			refresh_token_enc = $3,
			expires_at = $4,
			scopes = $5,
			last_error = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = $6`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		integration.ID,
		integration.AccessTokenEnc,
		integration.RefreshTokenEnc,
		integration.ExpiresAt,
		pq.StringArray(scopesOrEmpty(integration.Scopes)),
		domain.IntegrationActive,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		current, err := s.Get(ctx, integration.ID)
		if err != nil {
			return err
		}
		return fmt.Errorf("integration %d is %s: %w", integration.ID, current.Status, domain.ErrIntegrationInactive)
	}
	return nil
}

// MarkStatus moves an integration to status. An empty lastError clears it.
func (s *IntegrationStore) MarkStatus(ctx context.Context, id int64, status domain.IntegrationStatus, lastError string) error {
	query := `
		UPDATE integrations
		SET status = $2, last_error = NULLIF($3, ''), updated_at = NOW()
		WHERE id = $1`

	res, err := GetExecutor(ctx, s.db).ExecContext(ctx, query, id, status, lastError)
	if err != nil {
		return err
	}
	return expectOneRow(res, id)
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("integration %d: %w", id, domain.ErrIntegrationNotFound)
	}
	return nil
}

func scopesOrEmpty(scopes []string) []string {
	if scopes == nil {
		return []string{}
	}
	return scopes
}
