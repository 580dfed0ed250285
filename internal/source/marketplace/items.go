package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"catalog_sync/internal/domain"
)

// SearchItemIDs lists item identifiers of owner with offset pagination.
func (c *Client) SearchItemIDs(ctx context.Context, token, owner string, limit, offset int) (*SearchResponse, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	var resp SearchResponse
	err := c.Do(ctx, Request{
		Endpoint: "items.search",
		Method:   http.MethodGet,
		Path:     searchPath(owner),
		Query:    query,
		Token:    token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ScanItemIDs lists item identifiers of owner with scroll pagination.
// An empty scrollID opens a new scroll.
func (c *Client) ScanItemIDs(ctx context.Context, token, owner string, limit int, scrollID string) (*SearchResponse, error) {
	query := url.Values{}
	query.Set("search_type", "scan")
	query.Set("limit", strconv.Itoa(limit))
	if scrollID != "" {
		query.Set("scroll_id", scrollID)
	}

	var resp SearchResponse
	err := c.Do(ctx, Request{
		Endpoint: "items.scan",
		Method:   http.MethodGet,
		Path:     searchPath(owner),
		Query:    query,
		Token:    token,
	}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetItems fetches details for ids with one multi-get call. Per-item failures
// are reported in the result; ids absent from the response are not returned.
func (c *Client) GetItems(ctx context.Context, token string, ids []string) ([]ItemResult, error) {
	query := url.Values{}
	query.Set("ids", strings.Join(ids, ","))

	var entries []multiGetEntry
	err := c.Do(ctx, Request{
		Endpoint: "items.multiget",
		Method:   http.MethodGet,
		Path:     "/items",
		Query:    query,
		Token:    token,
	}, &entries)
	if err != nil {
		return nil, err
	}

	results := make([]ItemResult, 0, len(entries))
	for _, entry := range entries {
		if entry.Code == http.StatusOK {
			var item Item
			if err := json.Unmarshal(entry.Body, &item); err != nil {
				continue
			}
			results = append(results, ItemResult{ID: item.ID, Item: &item})
			continue
		}

		var body errorBody
		_ = json.Unmarshal(entry.Body, &body)
		kind := domain.ClassifyStatus(entry.Code)
		if kind == nil {
			kind = domain.ErrUpstream
		}
		results = append(results, ItemResult{
			ID: body.ID,
			Err: &domain.APIError{
				Kind:       kind,
				StatusCode: entry.Code,
				Method:     http.MethodGet,
				Path:       "/items",
				Detail:     firstNonEmpty(body.Message, body.Error),
			},
		})
	}

	return results, nil
}

// GetItem fetches a single item.
func (c *Client) GetItem(ctx context.Context, token, id string) (*Item, error) {
	var item Item
	err := c.Do(ctx, Request{
		Endpoint: "items.get",
		Method:   http.MethodGet,
		Path:     "/items/" + url.PathEscape(id),
		Token:    token,
	}, &item)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem changes fields of an item and returns its new state.
func (c *Client) UpdateItem(ctx context.Context, token, id string, update ItemUpdate) (*Item, error) {
	var item Item
	err := c.Do(ctx, Request{
		Endpoint: "items.update",
		Method:   http.MethodPut,
		Path:     "/items/" + url.PathEscape(id),
		Token:    token,
		Body:     update,
	}, &item)
	if err != nil {
		return nil, fmt.Errorf("update item %s: %w", id, err)
	}
	return &item, nil
}

func searchPath(owner string) string {
	return "/" + url.PathEscape(owner) + "/items/search"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
