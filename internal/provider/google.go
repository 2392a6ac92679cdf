package provider

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/model"
	"github.com/sells-group/places-collector/pkg/google"
)

// Google searches the Places API Text Search endpoint. Calls are single-shot:
// a failure is reported, never retried, so that quota is not burned.
type Google struct {
	keys      KeyFunc
	newClient func(apiKey string) google.Client

	mu     sync.Mutex
	client google.Client
}

// NewGoogle creates the adapter. The key is resolved on the first search.
func NewGoogle(keys KeyFunc, opts ...google.Option) *Google {
	return &Google{
		keys: keys,
		newClient: func(apiKey string) google.Client {
			return google.NewClient(apiKey, opts...)
		},
	}
}

// NewGoogleWithClient creates the adapter around an existing client.
func NewGoogleWithClient(c google.Client) *Google {
	return &Google{client: c}
}

// Name implements Provider.
func (g *Google) Name() string { return model.SourceGoogle }

func (g *Google) getClient() (google.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return g.client, nil
	}
	if g.keys == nil {
		return nil, eris.Wrap(ErrMissingCredential, "google: no key source")
	}
	key, err := g.keys()
	if err != nil {
		return nil, err
	}
	g.client = g.newClient(key)
	return g.client, nil
}

// Search implements Provider.
func (g *Google) Search(ctx context.Context, query string, center LatLng, radiusM int) ([]json.RawMessage, error) {
	c, err := g.getClient()
	if err != nil {
		return nil, err
	}
	resp, err := c.TextSearch(ctx, google.TextSearchRequest{
		TextQuery: query,
		LocationBias: &google.LocationBias{Circle: google.Circle{
			Center: google.LatLng{Latitude: center.Lat, Longitude: center.Lon},
			Radius: float64(radiusM),
		}},
		MaxResultCount: google.MaxResultCount,
	})
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return resp.Places, nil
}

// Normalize implements Provider. Google place types are not carried into
// categories.
func (g *Google) Normalize(raw json.RawMessage) (model.Record, error) {
	p, err := google.DecodePlace(raw)
	if err != nil {
		return model.Record{}, err
	}

	street, city, state, zip := parseAddress(p.FormattedAddress)
	rec := model.Record{
		Source:           model.SourceGoogle,
		ProviderID:       p.ID,
		Name:             strings.TrimSpace(p.DisplayName.Text),
		FormattedAddress: p.FormattedAddress,
		Street:           street,
		City:             city,
		State:            state,
		ZipCode:          zip,
		Phone:            p.NationalPhoneNumber,
		Website:          p.WebsiteURI,
		Rating:           p.Rating,
		ReviewCount:      p.UserRatingCount,
	}
	if p.Location != nil {
		rec.Latitude = model.Ptr(p.Location.Latitude)
		rec.Longitude = model.Ptr(p.Location.Longitude)
	}
	if err := rec.Validate(); err != nil {
		return model.Record{}, eris.Wrapf(err, "google: place %q", p.ID)
	}
	return rec, nil
}
