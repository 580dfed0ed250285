package marketplace

import (
	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// SearchResponse is returned by both the offset and the scan search modes.
type SearchResponse struct {
	SellerID string   `json:"seller_id"`
	Results  []string `json:"results"`
	Paging   Paging   `json:"paging"`
	ScrollID string   `json:"scroll_id"`
}

type Paging struct {
	Total  int `json:"total"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// Item is the detail representation of a listing. Optional fields are
// pointers so the mapper can tell "absent" from zero.
type Item struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Price             *decimal.Decimal `json:"price"`
	CurrencyID        string           `json:"currency_id"`
	AvailableQuantity *int             `json:"available_quantity"`
	SoldQuantity      *int             `json:"sold_quantity"`
	Status            string           `json:"status"`
	Permalink         string           `json:"permalink"`
}

// multiGetEntry wraps each element of a multi-get response.
type multiGetEntry struct {
	Code int             `json:"code"`
	Body json.RawMessage `json:"body"`
}

type errorBody struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// ItemResult is one multi-get element; exactly one of Item and Err is set.
type ItemResult struct {
	ID   string
	Item *Item
	Err  error
}

// ItemUpdate is the body of PUT /items/{id}.
type ItemUpdate struct {
	Price             *decimal.Decimal `json:"price,omitempty"`
	AvailableQuantity *int             `json:"available_quantity,omitempty"`
	Status            string           `json:"status,omitempty"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token"`
}
