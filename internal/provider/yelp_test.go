package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/places-collector/internal/model"
	"github.com/sells-group/places-collector/pkg/yelp"
)

func TestYelp_SearchClampsRadius(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer yk", r.Header.Get("Authorization"))
		assert.Equal(t, "30000", r.URL.Query().Get("radius"))
		_, _ = w.Write([]byte(`{"businesses":[{"id":"b1","name":"Spur"}]}`))
	}))
	defer srv.Close()

	y := NewYelp(StaticKey("yk"), 30000, yelp.WithBaseURL(srv.URL))
	got, err := y.Search(context.Background(), "western wear", LatLng{Lat: 35, Lon: -97}, 50000)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestYelp_MissingKey(t *testing.T) {
	t.Parallel()

	_, err := NewYelp(StaticKey(""), 0).Search(context.Background(), "q", LatLng{}, 1000)
	assert.True(t, eris.Is(err, ErrMissingCredential))
}

func TestYelp_Normalize(t *testing.T) {
	t.Parallel()

	y := NewYelpWithClient(nil, 0)
	rec, err := y.Normalize(json.RawMessage(`{"id":"pistol-creek","name":"Pistol Creek West",
		"url":"https://www.yelp.com/biz/pistol-creek","display_phone":"(803) 555-0199",
		"rating":4.5,"review_count":37,"is_closed":true,
		"categories":[{"alias":"westernwear","title":"Western Wear"},{"alias":"x","title":""}],
		"coordinates":{"latitude":34.05,"longitude":-81.1},
		"location":{"address1":"4350 Saint Andrews Rd","city":"Columbia","state":"SC","zip_code":"29210",
		"display_address":["4350 Saint Andrews Rd","Columbia, SC 29210"]}}`))
	require.NoError(t, err)

	assert.Equal(t, model.SourceYelp, rec.Source)
	assert.Equal(t, "pistol-creek", rec.ProviderID)
	assert.Equal(t, "4350 Saint Andrews Rd, Columbia, SC 29210", rec.FormattedAddress)
	assert.Equal(t, "Columbia", rec.City)
	assert.Empty(t, rec.Website)
	assert.Equal(t, []string{"Western Wear"}, rec.Categories)
	assert.Equal(t, 37, *rec.ReviewCount)
	assert.NotEmpty(t, rec.Notes)
}

func TestYelp_NormalizeNullCoordinates(t *testing.T) {
	t.Parallel()

	rec, err := NewYelpWithClient(nil, 0).Normalize(json.RawMessage(`{"id":"a","name":"A","coordinates":{"latitude":null,"longitude":-80}}`))
	require.NoError(t, err)
	assert.False(t, rec.HasCoordinates())
}
