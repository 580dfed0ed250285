package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"catalog_sync/internal/domain"
)

type CatalogService interface {
	Synchronize(ctx context.Context, integrationID int64, opts domain.ListOptions) (*domain.CatalogPage, error)
	Sync(ctx context.Context, integrationID int64) (*domain.SyncResult, error)
	UpdateItemPrice(ctx context.Context, integrationID int64, externalItemID string, price decimal.Decimal) (*domain.CatalogItem, error)
}

// CredentialService stores and retires marketplace credentials.
type CredentialService interface {
	Connect(ctx context.Context, tenantID, accountID string, grant *domain.TokenGrant) (*domain.Integration, error)
	Revoke(ctx context.Context, integrationID int64) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	catalog     CatalogService
	credentials CredentialService
	db          Pinger
	logger      *slog.Logger
}

func NewHandler(catalog CatalogService, credentials CredentialService, db Pinger, logger *slog.Logger) *Handler {
	return &Handler{
		catalog:     catalog,
		credentials: credentials,
		db:          db,
		logger:      logger.With("component", "http"),
	}
}

type connectRequest struct {
	TenantID     string   `json:"tenant_id"`
	AccountID    string   `json:"account_id"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int64    `json:"expires_in"`
	Scopes       []string `json:"scopes"`
}

// integrationView is the public shape of an integration; token ciphertext stays internal.
type integrationView struct {
	ID        int64                    `json:"id"`
	TenantID  string                   `json:"tenant_id"`
	AccountID string                   `json:"account_id"`
	Status    domain.IntegrationStatus `json:"status"`
	Scopes    []string                 `json:"scopes"`
	ExpiresAt time.Time                `json:"expires_at"`
	CreatedAt time.Time                `json:"created_at"`
}

// ConnectIntegration handles POST /integrations with the grant of a completed
// OAuth handshake.
func (h *Handler) ConnectIntegration(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}
	if req.TenantID == "" || req.AccountID == "" || req.AccessToken == "" || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "tenant_id, account_id, access_token and refresh_token are required")
		return
	}
	if req.ExpiresIn <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "expires_in must be a positive number of seconds")
		return
	}

	integration, err := h.credentials.Connect(r.Context(), req.TenantID, req.AccountID, &domain.TokenGrant{
		AccessToken:  req.AccessToken,
		RefreshToken: req.RefreshToken,
		ExpiresIn:    time.Duration(req.ExpiresIn) * time.Second,
		Scopes:       req.Scopes,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, integrationView{
		ID:        integration.ID,
		TenantID:  integration.TenantID,
		AccountID: integration.ExternalAccountID,
		Status:    integration.Status,
		Scopes:    integration.Scopes,
		ExpiresAt: integration.ExpiresAt,
		CreatedAt: integration.CreatedAt,
	})
}

// RevokeIntegration handles DELETE /integrations/{id}
func (h *Handler) RevokeIntegration(w http.ResponseWriter, r *http.Request) {
	id, ok := h.integrationID(w, r)
	if !ok {
		return
	}

	if err := h.credentials.Revoke(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListItems handles GET /integrations/{id}/items
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	id, ok := h.integrationID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	opts := domain.ListOptions{
		Status: domain.ItemStatus(query.Get("status")),
		Search: query.Get("search"),
	}

	var err error
	if opts.Limit, err = intParam(query.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "limit must be an integer")
		return
	}
	if opts.Offset, err = intParam(query.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "offset must be an integer")
		return
	}
	switch opts.Status {
	case "", domain.ItemActive, domain.ItemPaused, domain.ItemClosed:
	default:
		writeError(w, http.StatusBadRequest, "bad_request", "status must be one of active, paused, closed")
		return
	}

	page, err := h.catalog.Synchronize(r.Context(), id, opts)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// TriggerSync handles POST /integrations/{id}/sync
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	id, ok := h.integrationID(w, r)
	if !ok {
		return
	}

	result, err := h.catalog.Sync(r.Context(), id)
	if err != nil {
		if result != nil {
			status, _ := statusFor(err)
			writeJSON(w, status, result)
			return
		}
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type priceRequest struct {
	Price decimal.Decimal `json:"price"`
}

// UpdatePrice handles PUT /integrations/{id}/items/{itemID}/price
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := h.integrationID(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")

	var req priceRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return
	}

	item, err := h.catalog.UpdateItemPrice(r.Context(), id, itemID, req.Price)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, item)
}

// Health handles GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "database": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) integrationID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "integration id must be a positive integer")
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeError(w, status, code, err.Error())
}

func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
