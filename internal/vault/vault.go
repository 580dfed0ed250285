// Package vault keeps marketplace OAuth credentials encrypted at rest and
// hands out access tokens that are valid for at least the refresh buffer.
//
// Refreshes are coalesced per integration: the marketplace rotates the
// refresh token on every grant, so two parallel refreshes would leave one
// caller holding a revoked token.
package vault

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"catalog_sync/internal/domain"
	"catalog_sync/internal/metrics"
)

const DefaultRefreshBuffer = 5 * time.Minute

type IntegrationStore interface {
	Get(ctx context.Context, id int64) (*domain.Integration, error)
	Connect(ctx context.Context, integration *domain.Integration) error
	UpdateTokens(ctx context.Context, integration *domain.Integration) error
	MarkStatus(ctx context.Context, id int64, status domain.IntegrationStatus, lastError string) error
}

// TokenRefresher exchanges a refresh token at the marketplace token endpoint.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error)
}

type Vault struct {
	store     IntegrationStore
	refresher TokenRefresher
	cipher    *Cipher
	buffer    time.Duration
	now       func() time.Time
	flights   singleflight.Group
	logger    *slog.Logger
}

func New(store IntegrationStore, refresher TokenRefresher, cipher *Cipher, buffer time.Duration, logger *slog.Logger) *Vault {
	if buffer <= 0 {
		buffer = DefaultRefreshBuffer
	}
	return &Vault{
		store:     store,
		refresher: refresher,
		cipher:    cipher,
		buffer:    buffer,
		now:       time.Now,
		logger:    logger.With("component", "vault"),
	}
}

// GetValidToken returns a plaintext access token, refreshing it first when
// it expires within the refresh buffer.
func (v *Vault) GetValidToken(ctx context.Context, integrationID int64) (string, error) {
	integration, err := v.store.Get(ctx, integrationID)
	if err != nil {
		return "", fmt.Errorf("load integration: %w", err)
	}
	if !integration.IsActive() {
		return "", inactive(integration)
	}

	if !v.needsRefresh(integration) {
		return v.accessToken(integration)
	}

	return v.refreshShared(ctx, integrationID, "")
}

// ForceRefresh refreshes after the marketplace rejected rejectedToken with 401.
// If another caller already replaced that token, the current one is returned.
func (v *Vault) ForceRefresh(ctx context.Context, integrationID int64, rejectedToken string) (string, error) {
	return v.refreshShared(ctx, integrationID, rejectedToken)
}

func (v *Vault) refreshShared(ctx context.Context, integrationID int64, rejectedToken string) (string, error) {
	// The flight outlives any single caller's cancellation.
	flightCtx := context.WithoutCancel(ctx)

	token, err, shared := v.flights.Do(strconv.FormatInt(integrationID, 10), func() (any, error) {
		integration, err := v.store.Get(flightCtx, integrationID)
		if err != nil {
			return "", fmt.Errorf("load integration: %w", err)
		}
		if !integration.IsActive() {
			return "", inactive(integration)
		}

		if rejectedToken == "" && !v.needsRefresh(integration) {
			return v.accessToken(integration)
		}
		if rejectedToken != "" {
			current, err := v.accessToken(integration)
			if err == nil && current != rejectedToken {
				return current, nil
			}
		}

		return v.Refresh(flightCtx, integration)
	})
	if err != nil {
		return "", err
	}

	if shared {
		v.logger.Debug("joined in-flight refresh", "integration_id", integrationID)
	}

	return token.(string), nil
}

// Refresh exchanges the stored refresh token and persists the new grant.
// On failure the integration is marked expired and a *domain.TokenError is returned.
func (v *Vault) Refresh(ctx context.Context, integration *domain.Integration) (string, error) {
	logger := v.logger.With("integration_id", integration.ID)

	refreshToken, err := v.cipher.Decrypt(integration.RefreshTokenEnc)
	if err != nil {
		return "", v.fail(ctx, integration, domain.IntegrationError, "stored refresh token is unreadable", err)
	}

	grant, err := v.refresher.RefreshToken(ctx, refreshToken)
	if err != nil {
		return "", v.fail(ctx, integration, domain.IntegrationExpired, err.Error(), err)
	}

	if grant.RefreshToken == "" {
		grant.RefreshToken = refreshToken
	}
	if err := v.seal(integration, grant); err != nil {
		return "", err
	}

	if err := v.store.UpdateTokens(ctx, integration); err != nil {
		metrics.TokenRefreshes.WithLabelValues("store_error").Inc()
		return "", fmt.Errorf("persist refreshed tokens: %w", err)
	}

	metrics.TokenRefreshes.WithLabelValues("success").Inc()
	logger.Info("token refreshed", "expires_at", integration.ExpiresAt)

	return grant.AccessToken, nil
}

// Connect stores the grant of a completed OAuth handshake as the tenant's
// active integration for the account.
func (v *Vault) Connect(ctx context.Context, tenantID, accountID string, grant *domain.TokenGrant) (*domain.Integration, error) {
	integration := &domain.Integration{
		TenantID:          tenantID,
		ExternalAccountID: accountID,
	}
	if err := v.seal(integration, grant); err != nil {
		return nil, err
	}

	if err := v.store.Connect(ctx, integration); err != nil {
		return nil, fmt.Errorf("store integration: %w", err)
	}

	v.logger.Info("integration connected",
		"integration_id", integration.ID,
		"tenant_id", tenantID,
		"account_id", accountID,
	)

	return integration, nil
}

func (v *Vault) Revoke(ctx context.Context, integrationID int64) error {
	if err := v.store.MarkStatus(ctx, integrationID, domain.IntegrationRevoked, ""); err != nil {
		return fmt.Errorf("revoke integration: %w", err)
	}
	v.logger.Info("integration revoked", "integration_id", integrationID)
	return nil
}

func (v *Vault) seal(integration *domain.Integration, grant *domain.TokenGrant) error {
	accessEnc, err := v.cipher.Encrypt(grant.AccessToken)
	if err != nil {
		return fmt.Errorf("encrypt access token: %w", err)
	}
	refreshEnc, err := v.cipher.Encrypt(grant.RefreshToken)
	if err != nil {
		return fmt.Errorf("encrypt refresh token: %w", err)
	}

	integration.AccessTokenEnc = accessEnc
	integration.RefreshTokenEnc = refreshEnc
	integration.ExpiresAt = v.now().Add(grant.ExpiresIn)
	if len(grant.Scopes) > 0 {
		integration.Scopes = grant.Scopes
	}
	integration.Status = domain.IntegrationActive
	integration.LastError = nil
	return nil
}

func (v *Vault) fail(ctx context.Context, integration *domain.Integration, status domain.IntegrationStatus, reason string, cause error) error {
	metrics.TokenRefreshes.WithLabelValues("failure").Inc()
	v.logger.Error("token refresh failed",
		"integration_id", integration.ID,
		"status", status,
		"error", cause,
	)

	if err := v.store.MarkStatus(ctx, integration.ID, status, reason); err != nil {
		v.logger.Error("failed to record refresh failure", "integration_id", integration.ID, "error", err)
	}

	return &domain.TokenError{IntegrationID: integration.ID, Reason: reason, Err: cause}
}

func (v *Vault) needsRefresh(integration *domain.Integration) bool {
	return !v.now().Add(v.buffer).Before(integration.ExpiresAt)
}

func (v *Vault) accessToken(integration *domain.Integration) (string, error) {
	token, err := v.cipher.Decrypt(integration.AccessTokenEnc)
	if err != nil {
		return "", &domain.TokenError{IntegrationID: integration.ID, Reason: "stored access token is unreadable", Err: err}
	}
	return token, nil
}

func inactive(integration *domain.Integration) error {
	return fmt.Errorf("integration %d is %s: %w", integration.ID, integration.Status, domain.ErrIntegrationInactive)
}
