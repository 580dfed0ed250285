package domain

import "time"

type IntegrationStatus string

const (
	IntegrationActive  IntegrationStatus = "active"
	IntegrationExpired IntegrationStatus = "expired"
	IntegrationRevoked IntegrationStatus = "revoked"
	IntegrationError   IntegrationStatus = "error"
)

// Integration is a tenant's authorized connection to one marketplace account.
// Token fields hold ciphertext produced by the vault, never plaintext.
type Integration struct {
	ID                int64             `db:"id"`
	TenantID          string            `db:"tenant_id"`
	ExternalAccountID string            `db:"external_account_id"`
	AccessTokenEnc    string            `db:"access_token_enc"`
	RefreshTokenEnc   string            `db:"refresh_token_enc"`
	ExpiresAt         time.Time         `db:"expires_at"`
	Scopes            []string          `db:"-"`
	Status            IntegrationStatus `db:"status"`
	LastError         *string           `db:"last_error"`
	CreatedAt         time.Time         `db:"created_at"`
	UpdatedAt         time.Time         `db:"updated_at"`
}

func (i *Integration) IsActive() bool {
	return i.Status == IntegrationActive
}

// TokenGrant is a token endpoint response after the handshake or a refresh.
type TokenGrant struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	Scopes       []string
}
