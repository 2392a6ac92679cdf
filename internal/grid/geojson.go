package grid

import (
	"io"

	"github.com/paulmach/orb/geojson"
	"github.com/rotisserie/eris"
)

// FeatureCollection converts points to GeoJSON, one Point feature each with
// "index" and "region" properties.
func FeatureCollection(points []Point) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for i, p := range points {
		f := geojson.NewFeature(p.Orb())
		f.Properties["index"] = i
		if p.Region != "" {
			f.Properties["region"] = p.Region
		}
		fc.Append(f)
	}
	return fc
}

// WriteGeoJSON writes the points to w as a FeatureCollection.
func WriteGeoJSON(w io.Writer, points []Point) error {
	data, err := FeatureCollection(points).MarshalJSON()
	if err != nil {
		return eris.Wrap(err, "grid: marshal geojson")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "grid: write geojson")
	}
	return nil
}
