package google

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/resilience"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// MaxResultCount is the largest page the Text Search endpoint returns.
const MaxResultCount = 20

// FieldMask selects the place fields requested from Text Search.
const FieldMask = "places.id,places.displayName,places.formattedAddress,places.location," +
	"places.types,places.nationalPhoneNumber,places.websiteUri,places.regularOpeningHours," +
	"places.rating,places.userRatingCount,places.priceLevel"

// Client performs Google Places API operations.
type Client interface {
	TextSearch(ctx context.Context, req TextSearchRequest) (*TextSearchResponse, error)
}

// TextSearchRequest is the body of a Places Text Search (New) call.
type TextSearchRequest struct {
	TextQuery      string        `json:"textQuery"`
	LocationBias   *LocationBias `json:"locationBias,omitempty"`
	MaxResultCount int           `json:"maxResultCount,omitempty"`
}

// LocationBias biases results toward a circle.
type LocationBias struct {
	Circle Circle `json:"circle"`
}

// Circle is a center point and radius in meters.
type Circle struct {
	Center LatLng  `json:"center"`
	Radius float64 `json:"radius"`
}

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TextSearchResponse carries each place as raw JSON so callers can keep the
// provider payload and decode it with DecodePlace.
type TextSearchResponse struct {
	Places []json.RawMessage `json:"places"`
}

// Place is the subset of a Places API place selected by FieldMask.
type Place struct {
	ID                  string          `json:"id"`
	DisplayName         DisplayName     `json:"displayName"`
	FormattedAddress    string          `json:"formattedAddress"`
	Location            *LatLng         `json:"location,omitempty"`
	Types               []string        `json:"types,omitempty"`
	NationalPhoneNumber string          `json:"nationalPhoneNumber,omitempty"`
	WebsiteURI          string          `json:"websiteUri,omitempty"`
	RegularOpeningHours json.RawMessage `json:"regularOpeningHours,omitempty"`
	Rating              *float64        `json:"rating,omitempty"`
	UserRatingCount     *int            `json:"userRatingCount,omitempty"`
	PriceLevel          string          `json:"priceLevel,omitempty"`
}

// DisplayName holds the place's display name.
type DisplayName struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// DecodePlace parses one raw place from a TextSearchResponse.
func DecodePlace(raw json.RawMessage) (Place, error) {
	var p Place
	if err := json.Unmarshal(raw, &p); err != nil {
		return Place{}, eris.Wrap(err, "google: decode place")
	}
	return p, nil
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		if url != "" {
			c.baseURL = url
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

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) TextSearch(ctx context.Context, in TextSearchRequest) (*TextSearchResponse, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, eris.Wrap(err, "google: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", FieldMask)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("google", resp.StatusCode, respBody)
	}

	var result TextSearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "google: unmarshal response")
	}

	return &result, nil
}
