package provider

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/model"
	"github.com/sells-group/places-collector/pkg/yelp"
)

// Yelp searches Yelp Fusion by coordinate. Like Google it is metered and
// single-shot.
type Yelp struct {
	keys       KeyFunc
	newClient  func(apiKey string) yelp.Client
	maxRadiusM int

	mu     sync.Mutex
	client yelp.Client
}

// NewYelp creates the adapter. maxRadiusM <= 0 uses the API maximum.
func NewYelp(keys KeyFunc, maxRadiusM int, opts ...yelp.Option) *Yelp {
	return &Yelp{
		keys:       keys,
		maxRadiusM: maxRadiusM,
		newClient: func(apiKey string) yelp.Client {
			return yelp.NewClient(apiKey, opts...)
		},
	}
}

// NewYelpWithClient creates the adapter around an existing client.
func NewYelpWithClient(c yelp.Client, maxRadiusM int) *Yelp {
	return &Yelp{client: c, maxRadiusM: maxRadiusM}
}

// Name implements Provider.
func (y *Yelp) Name() string { return model.SourceYelp }

func (y *Yelp) getClient() (yelp.Client, error) {
	y.mu.Lock()
	defer y.mu.Unlock()
	if y.client != nil {
		return y.client, nil
	}
	if y.keys == nil {
		return nil, eris.Wrap(ErrMissingCredential, "yelp: no key source")
	}
	key, err := y.keys()
	if err != nil {
		return nil, err
	}
	y.client = y.newClient(key)
	return y.client, nil
}

// Search implements Provider.
func (y *Yelp) Search(ctx context.Context, query string, center LatLng, radiusM int) ([]json.RawMessage, error) {
	c, err := y.getClient()
	if err != nil {
		return nil, err
	}
	maxR := yelp.MaxRadiusM
	if y.maxRadiusM > 0 && y.maxRadiusM < maxR {
		maxR = y.maxRadiusM
	}
	if radiusM > maxR {
		radiusM = maxR
	}
	resp, err := c.Search(ctx, yelp.SearchRequest{
		Term:      query,
		Latitude:  center.Lat,
		Longitude: center.Lon,
		RadiusM:   radiusM,
		Limit:     yelp.MaxLimit,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return resp.Businesses, nil
}

// Normalize implements Provider. The Yelp listing URL is not a business
// website and is dropped.
func (y *Yelp) Normalize(raw json.RawMessage) (model.Record, error) {
	b, err := yelp.DecodeBusiness(raw)
	if err != nil {
		return model.Record{}, err
	}

	rec := model.Record{
		Source:           model.SourceYelp,
		ProviderID:       b.ID,
		Name:             strings.TrimSpace(b.Name),
		FormattedAddress: strings.Join(b.Location.DisplayAddress, ", "),
		Street:           b.Location.Address1,
		City:             b.Location.City,
		State:            b.Location.State,
		ZipCode:          b.Location.ZipCode,
		Phone:            b.DisplayPhone,
		Rating:           b.Rating,
		ReviewCount:      b.ReviewCount,
	}
	if c := b.Coordinates; c != nil && c.Latitude != nil && c.Longitude != nil {
		rec.Latitude = model.Ptr(*c.Latitude)
		rec.Longitude = model.Ptr(*c.Longitude)
	}
	for _, cat := range b.Categories {
		if cat.Title != "" {
			rec.Categories = append(rec.Categories, cat.Title)
		}
	}
	if b.IsClosed {
		rec.Notes = "marked closed on yelp"
	}
	if err := rec.Validate(); err != nil {
		return model.Record{}, eris.Wrapf(err, "yelp: business %q", b.ID)
	}
	return rec, nil
}
