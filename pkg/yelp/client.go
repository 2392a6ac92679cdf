// Package yelp is a minimal client for the Yelp Fusion business search API.
package yelp

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/resilience"
)

const defaultBaseURL = "https://api.yelp.com/v3"

// MaxRadiusM is the largest search radius the API accepts.
const MaxRadiusM = 40000

// MaxLimit is the largest page size the API accepts.
const MaxLimit = 50

// Client performs Yelp Fusion operations.
type Client interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// SearchRequest describes a coordinate-centered business search.
type SearchRequest struct {
	Term      string
	Latitude  float64
	Longitude float64
	RadiusM   int
	Limit     int
}

// SearchResponse carries each business as raw JSON; decode with DecodeBusiness.
type SearchResponse struct {
	Businesses []json.RawMessage `json:"businesses"`
	Total      int               `json:"total"`
}

// Business is the subset of a Yelp business the collector reads.
type Business struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	URL          string       `json:"url,omitempty"`
	DisplayPhone string       `json:"display_phone,omitempty"`
	Rating       *float64     `json:"rating,omitempty"`
	ReviewCount  *int         `json:"review_count,omitempty"`
	Price        string       `json:"price,omitempty"`
	IsClosed     bool         `json:"is_closed"`
	Categories   []Category   `json:"categories,omitempty"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Location     Location     `json:"location"`
}

// Category is a Yelp business category.
type Category struct {
	Alias string `json:"alias"`
	Title string `json:"title"`
}

// Coordinates may carry nulls for businesses without a geocode.
type Coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Location is a business's postal address.
type Location struct {
	Address1       string   `json:"address1"`
	City           string   `json:"city"`
	State          string   `json:"state"`
	ZipCode        string   `json:"zip_code"`
	DisplayAddress []string `json:"display_address"`
}

// DecodeBusiness parses one raw business from a SearchResponse.
func DecodeBusiness(raw json.RawMessage) (Business, error) {
	var b Business
	if err := json.Unmarshal(raw, &b); err != nil {
		return Business{}, eris.Wrap(err, "yelp: decode business")
	}
	return b, nil
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Yelp Fusion client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Search(ctx context.Context, in SearchRequest) (*SearchResponse, error) {
	radius := in.RadiusM
	if radius > MaxRadiusM {
		radius = MaxRadiusM
	}
	limit := in.Limit
	if limit <= 0 || limit > MaxLimit {
		limit = MaxLimit
	}

	q := url.Values{}
	q.Set("term", in.Term)
	q.Set("latitude", strconv.FormatFloat(in.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(in.Longitude, 'f', -1, 64))
	if radius > 0 {
		q.Set("radius", strconv.Itoa(radius))
	}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("sort_by", "best_match")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/businesses/search?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "yelp: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("yelp", resp.StatusCode, body)
	}

	var result SearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "yelp: unmarshal response")
	}
	return &result, nil
}
