package provider

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/places-collector/internal/model"
	"github.com/sells-group/places-collector/internal/resilience"
	"github.com/sells-group/places-collector/pkg/overpass"
)

// OSM queries OpenStreetMap through Overpass. The Overpass query matches
// built-in name patterns and ignores the search term, so the response for
// the most recent box is reused while consecutive queries target the same
// point. Transient failures are retried with backoff.
type OSM struct {
	client   overpass.Client
	retry    resilience.RetryConfig
	patterns []string

	mu       sync.Mutex
	lastBox  overpass.BBox
	lastResp []json.RawMessage
	cached   bool
}

// NewOSM creates the adapter.
func NewOSM(client overpass.Client, retry resilience.RetryConfig) *OSM {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(model.SourceOSM, "query")
	}
	return &OSM{client: client, retry: retry, patterns: overpass.DefaultNamePatterns}
}

// Name implements Provider.
func (o *OSM) Name() string { return model.SourceOSM }

// Search implements Provider.
func (o *OSM) Search(ctx context.Context, _ string, center LatLng, radiusM int) ([]json.RawMessage, error) {
	box := overpass.BBoxAround(center.Lat, center.Lon, radiusM)

	o.mu.Lock()
	if o.cached && o.lastBox == box {
		out := o.lastResp
		o.mu.Unlock()
		return out, nil
	}
	o.mu.Unlock()

	ql := overpass.BuildQuery(box, o.patterns)
	resp, err := resilience.DoVal(ctx, o.retry, func(ctx context.Context) (*overpass.Response, error) {
		return o.client.Query(ctx, ql)
	})
	if err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if resp != nil {
		elems = resp.Elements
	}

	o.mu.Lock()
	o.lastBox, o.lastResp, o.cached = box, elems, true
	o.mu.Unlock()
	return elems, nil
}

// Normalize implements Provider.
func (o *OSM) Normalize(raw json.RawMessage) (model.Record, error) {
	e, err := overpass.DecodeElement(raw)
	if err != nil {
		return model.Record{}, err
	}

	tags := e.Tags
	street := strings.TrimSpace(strings.Join(nonEmpty(tags["addr:housenumber"], tags["addr:street"]), " "))
	stateZip := strings.Join(nonEmpty(tags["addr:state"], tags["addr:postcode"]), " ")

	rec := model.Record{
		Source:           model.SourceOSM,
		ProviderID:       e.OSMID(),
		Name:             strings.TrimSpace(tags["name"]),
		FormattedAddress: strings.Join(nonEmpty(street, tags["addr:city"], stateZip), ", "),
		Street:           street,
		City:             tags["addr:city"],
		State:            tags["addr:state"],
		ZipCode:          tags["addr:postcode"],
		Phone:            tags["phone"],
		Website:          tags["website"],
	}
	if lat, lon, ok := e.Coordinates(); ok {
		rec.Latitude = model.Ptr(lat)
		rec.Longitude = model.Ptr(lon)
	}
	if shop := tags["shop"]; shop != "" {
		rec.Categories = []string{shop}
	}
	if err := rec.Validate(); err != nil {
		return model.Record{}, eris.Wrapf(err, "osm: element %s", e.OSMID())
	}
	return rec, nil
}

func nonEmpty(vals ...string) []string {
	var out []string
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
