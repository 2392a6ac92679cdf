// Package overpass queries OpenStreetMap through the Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/resilience"
)

const defaultURL = "https://overpass-api.de/api/interpreter"

// DefaultNamePatterns match western-wear retailers by name, case-insensitively.
var DefaultNamePatterns = []string{
	"western", "cowboy", "boot", "ranch", "tack",
	"rodeo", "saddlery", "wrangler", "ariat", "cavender",
	"boot barn", "sheplers",
}

// anyShopPattern matches names on shops of any type.
const anyShopPattern = "western wear|cowboy|boot barn|cavender|tack|saddlery"

var shopTypes = []string{"clothes", "shoes", "outdoor", "farm"}

// BBox is a south/west/north/east bounding box in degrees.
type BBox struct {
	South, West, North, East float64
}

func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.South, b.West, b.North, b.East)
}

// BBoxAround returns the box extending radiusM meters from (lat, lon) on each
// side, using 111 km per degree on both axes.
func BBoxAround(lat, lon float64, radiusM int) BBox {
	d := float64(radiusM) / 111000.0
	return BBox{South: lat - d, West: lon - d, North: lat + d, East: lon + d}
}

// BuildQuery renders the Overpass QL for shops in bbox whose names match patterns.
func BuildQuery(bbox BBox, patterns []string) string {
	pattern := strings.Join(patterns, "|")
	b := bbox.String()

	var sb strings.Builder
	sb.WriteString("[out:json][timeout:120];\n(\n")
	for _, shop := range shopTypes {
		for _, kind := range []string{"node", "way"} {
			fmt.Fprintf(&sb, "  %s[\"shop\"=%q][\"name\"~%q,i](%s);\n", kind, shop, pattern, b)
		}
	}
	for _, kind := range []string{"node", "way"} {
		fmt.Fprintf(&sb, "  %s[\"shop\"][\"name\"~%q,i](%s);\n", kind, anyShopPattern, b)
	}
	sb.WriteString(");\nout center;\n")
	return sb.String()
}

// Client executes Overpass QL.
type Client interface {
	Query(ctx context.Context, ql string) (*Response, error)
}

// Response carries each element as raw JSON; decode with DecodeElement.
type Response struct {
	Elements []json.RawMessage `json:"elements"`
	Remark   string            `json:"remark,omitempty"`
}

// Element is an OSM node or way.
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *Center           `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

// Center is the centroid Overpass reports for ways with "out center".
type Center struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// OSMID returns the "type/id" identifier of the element.
func (e Element) OSMID() string {
	return fmt.Sprintf("%s/%d", e.Type, e.ID)
}

// Coordinates returns the node position or the way center.
func (e Element) Coordinates() (lat, lon float64, ok bool) {
	if e.Type == "node" && e.Lat != nil && e.Lon != nil {
		return *e.Lat, *e.Lon, true
	}
	if e.Center != nil {
		return e.Center.Lat, e.Center.Lon, true
	}
	return 0, 0, false
}

// DecodeElement parses one raw element from a Response.
func DecodeElement(raw json.RawMessage) (Element, error) {
	var e Element
	if err := json.Unmarshal(raw, &e); err != nil {
		return Element{}, eris.Wrap(err, "overpass: decode element")
	}
	if e.Type == "" {
		return Element{}, eris.New("overpass: element missing type")
	}
	return e, nil
}

// Option configures the client.
type Option func(*httpClient)

// WithURL overrides the interpreter endpoint.
func WithURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.url = u
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
	url  string
	http *http.Client
}

// NewClient creates an Overpass client. No credentials are required.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		url:  defaultURL,
		http: &http.Client{Timeout: 180 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) Query(ctx context.Context, ql string) (*Response, error) {
	form := url.Values{"data": {ql}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "overpass: create request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "overpass: send request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "overpass: read response"), 0)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("overpass", resp.StatusCode, body)
	}

	var result Response
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "overpass: unmarshal response")
	}
	return &result, nil
}
