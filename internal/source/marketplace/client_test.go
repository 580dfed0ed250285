package marketplace

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog_sync/internal/domain"
)

type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delays = append(r.delays, d)
	return nil
}

func newTestClient(t *testing.T, baseURL string, mutate ...func(*Config)) (*Client, *sleepRecorder) {
	t.Helper()
	cfg := Config{
		BaseURL:        baseURL,
		ClientID:       "client-id",
		ClientSecret:   "client-secret",
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		Jitter:         0.2,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := New(cfg, logger)
	rec := &sleepRecorder{}
	c.sleep = rec.sleep
	return c, rec
}

func TestClient_RetryCeilingOnPersistent429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, rec := newTestClient(t, srv.URL)

	_, err := c.GetItem(context.Background(), "tok", "MLA1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.Equal(t, int32(4), calls.Load())
	assert.Len(t, rec.delays, 3)
}

func TestClient_SucceedsAfterBackoff(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"MLA1","title":"Mate","price":10.5}`))
	}))
	defer srv.Close()

	c, rec := newTestClient(t, srv.URL)

	item, err := c.GetItem(context.Background(), "tok", "MLA1")
	require.NoError(t, err)
	assert.Equal(t, "MLA1", item.ID)
	require.NotNil(t, item.Price)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("10.5")))

	require.Len(t, rec.delays, 3)
	for i, want := range []time.Duration{time.Second, 2 * time.Second, 4 * time.Second} {
		assert.InDelta(t, float64(want), float64(rec.delays[i]), float64(want)*0.2+1)
	}
}

func TestClient_HonorsRetryAfter(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"MLA1"}`))
	}))
	defer srv.Close()

	c, rec := newTestClient(t, srv.URL)

	_, err := c.GetItem(context.Background(), "tok", "MLA1")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, rec.delays)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"id":"MLA1"}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	_, err := c.GetItem(context.Background(), "tok", "MLA1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_ClientErrorsAreNotRetried(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, domain.ErrBadRequest},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrForbidden},
		{http.StatusNotFound, domain.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"message":"upstream says no"}`))
			}))
			defer srv.Close()

			c, rec := newTestClient(t, srv.URL)

			_, err := c.GetItem(context.Background(), "tok", "MLA1")
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, int32(1), calls.Load())
			assert.Empty(t, rec.delays)

			var apiErr *domain.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Contains(t, apiErr.Detail, "upstream says no")
		})
	}
}

func TestClient_SendsHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		_, _ = w.Write([]byte(`{"id":"MLA1"}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	_, err := c.GetItem(context.Background(), "secret-token", "MLA1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", got.Get("Authorization"))
	assert.NotEmpty(t, got.Get("X-Correlation-ID"))
	assert.Equal(t, userAgent, got.Get("User-Agent"))
}

func TestClient_CircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.MaxRetries = 0
		cfg.BreakerFailures = 2
		cfg.BreakerOpenTimeout = time.Hour
	})

	for i := 0; i < 2; i++ {
		_, err := c.GetItem(context.Background(), "tok", "MLA1")
		assert.ErrorIs(t, err, domain.ErrUpstream)
	}

	_, err := c.GetItem(context.Background(), "tok", "MLA1")
	assert.ErrorIs(t, err, domain.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL, func(cfg *Config) {
		cfg.BreakerFailures = 1
	})

	for i := 0; i < 3; i++ {
		_, err := c.GetItem(context.Background(), "tok", "MLA1")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestClient_SearchAndScanQueries(t *testing.T) {
	var queries []url.Values
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		paths = append(paths, r.URL.Path)
		_, _ = w.Write([]byte(`{"results":["A","B"],"paging":{"total":2},"scroll_id":"s-2"}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	ctx := context.Background()

	resp, err := c.SearchItemIDs(ctx, "tok", "seller-1", 50, 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, resp.Results)
	assert.Equal(t, 2, resp.Paging.Total)

	resp, err = c.ScanItemIDs(ctx, "tok", "seller-1", 100, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "s-2", resp.ScrollID)

	require.Len(t, queries, 2)
	assert.Equal(t, "/seller-1/items/search", paths[0])
	assert.Equal(t, "50", queries[0].Get("limit"))
	assert.Equal(t, "100", queries[0].Get("offset"))
	assert.Equal(t, "scan", queries[1].Get("search_type"))
	assert.Equal(t, "s-1", queries[1].Get("scroll_id"))
}

func TestClient_GetItemsMixedResults(t *testing.T) {
	var ids string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = r.URL.Query().Get("ids")
		_, _ = w.Write([]byte(`[
			{"code":200,"body":{"id":"A","title":"Item A","price":"12.30","currency_id":"ARS","available_quantity":3,"status":"active"}},
			{"code":404,"body":{"id":"B","message":"item not found"}}
		]`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	results, err := c.GetItems(context.Background(), "tok", []string{"A", "B"})
	require.NoError(t, err)
	assert.Equal(t, "A,B", ids)
	require.Len(t, results, 2)

	assert.Equal(t, "A", results[0].ID)
	require.NotNil(t, results[0].Item)
	assert.Equal(t, 3, *results[0].Item.AvailableQuantity)

	assert.Equal(t, "B", results[1].ID)
	assert.ErrorIs(t, results[1].Err, domain.ErrNotFound)
}

func TestClient_UpdateItemSendsJSON(t *testing.T) {
	var body string
	var method string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		_, _ = w.Write([]byte(`{"id":"A","price":99.9}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)
	price := decimal.RequireFromString("99.9")

	item, err := c.UpdateItem(context.Background(), "tok", "A", ItemUpdate{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, method)
	assert.JSONEq(t, `{"price":"99.9"}`, body)
	assert.True(t, item.Price.Equal(price))
}

func TestClient_RefreshToken(t *testing.T) {
	var form url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		_, _ = w.Write([]byte(`{"access_token":"new-access","refresh_token":"new-refresh","expires_in":21600,"scope":"offline_access read write"}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	grant, err := c.RefreshToken(context.Background(), "old-refresh")
	require.NoError(t, err)
	assert.Equal(t, "refresh_token", form.Get("grant_type"))
	assert.Equal(t, "old-refresh", form.Get("refresh_token"))
	assert.Equal(t, "client-id", form.Get("client_id"))
	assert.Equal(t, "client-secret", form.Get("client_secret"))

	assert.Equal(t, "new-access", grant.AccessToken)
	assert.Equal(t, "new-refresh", grant.RefreshToken)
	assert.Equal(t, 6*time.Hour, grant.ExpiresIn)
	assert.Equal(t, []string{"offline_access", "read", "write"}, grant.Scopes)
}

func TestClient_RefreshTokenInvalidGrant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
	}))
	defer srv.Close()

	c, _ := newTestClient(t, srv.URL)

	_, err := c.RefreshToken(context.Background(), "old-refresh")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
	assert.Contains(t, err.Error(), "invalid_grant")
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Duration(0), parseRetryAfter("", now))
	assert.Equal(t, 3*time.Second, parseRetryAfter("3", now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-1", now))
	assert.Equal(t, 90*time.Second, parseRetryAfter(now.Add(90*time.Second).Format(http.TimeFormat), now))
	assert.Equal(t, time.Duration(0), parseRetryAfter("soon", now))
}

func TestCalculateBackoff_Capped(t *testing.T) {
	c, _ := newTestClient(t, "http://unused", func(cfg *Config) {
		cfg.Jitter = 0
		cfg.MaxBackoff = 5 * time.Second
	})

	assert.Equal(t, time.Second, c.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, c.calculateBackoff(2))
	assert.Equal(t, 4*time.Second, c.calculateBackoff(3))
	assert.Equal(t, 5*time.Second, c.calculateBackoff(4))
	assert.Equal(t, 5*time.Second, c.calculateBackoff(10))
}
