package service

import (
	"context"
	"errors"
	"sync"

	"catalog_sync/internal/domain"
)

// apiSession holds the access token of one run. A call rejected with 401
// gets one forced refresh and one retry.
type apiSession struct {
	tokens        TokenProvider
	integrationID int64

	mu    sync.Mutex
	token string
}

func newAPISession(tokens TokenProvider, integrationID int64, token string) *apiSession {
	return &apiSession{tokens: tokens, integrationID: integrationID, token: token}
}

func (a *apiSession) current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

func (a *apiSession) call(ctx context.Context, fn func(token string) error) error {
	token := a.current()

	err := fn(token)
	if !errors.Is(err, domain.ErrUnauthorized) {
		return err
	}

	fresh, refreshErr := a.tokens.ForceRefresh(ctx, a.integrationID, token)
	if refreshErr != nil {
		return errors.Join(err, refreshErr)
	}

	a.mu.Lock()
	a.token = fresh
	a.mu.Unlock()

	return fn(fresh)
}
