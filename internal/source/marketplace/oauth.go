package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog_sync/internal/domain"
)

// RefreshToken performs the refresh_token grant against the token endpoint.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenGrant, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("refresh_token", refreshToken)

	var resp tokenResponse
	err := c.Do(ctx, Request{
		Endpoint: "oauth.token",
		Method:   http.MethodPost,
		Path:     "/oauth/token",
		URL:      c.tokenURL,
		Form:     form,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}

	if resp.AccessToken == "" {
		return nil, fmt.Errorf("refresh token: empty access token in response")
	}

	return &domain.TokenGrant{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    time.Duration(resp.ExpiresIn) * time.Second,
		Scopes:       strings.Fields(resp.Scope),
	}, nil
}
