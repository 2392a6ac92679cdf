package yelp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/places-collector/internal/resilience"
)

func TestSearch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/businesses/search", r.URL.Path)
		assert.Equal(t, "Bearer yelp-key", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "tack shop", q.Get("term"))
		assert.Equal(t, "34", q.Get("latitude"))
		assert.Equal(t, "-81.05", q.Get("longitude"))
		assert.Equal(t, "40000", q.Get("radius"), "radius is clamped")
		assert.Equal(t, "50", q.Get("limit"))

		_, _ = w.Write([]byte(`{"total":1,"businesses":[{"id":"pistol-creek","name":"Pistol Creek West",
			"display_phone":"(803) 555-0199","rating":4.5,"review_count":37,"is_closed":false,
			"categories":[{"alias":"westernwear","title":"Western Wear"}],
			"coordinates":{"latitude":34.05,"longitude":-81.1},
			"location":{"address1":"4350 Saint Andrews Rd","city":"Columbia","state":"SC","zip_code":"29210",
			"display_address":["4350 Saint Andrews Rd","Columbia, SC 29210"]}}]}`))
	}))
	defer srv.Close()

	resp, err := NewClient("yelp-key", WithBaseURL(srv.URL)).Search(context.Background(), SearchRequest{
		Term: "tack shop", Latitude: 34, Longitude: -81.05, RadiusM: 50000,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Total)
	require.Len(t, resp.Businesses, 1)

	b, err := DecodeBusiness(resp.Businesses[0])
	require.NoError(t, err)
	assert.Equal(t, "pistol-creek", b.ID)
	assert.Equal(t, "Columbia", b.Location.City)
	require.NotNil(t, b.ReviewCount)
	assert.Equal(t, 37, *b.ReviewCount)
	require.NotNil(t, b.Coordinates)
	assert.InDelta(t, 34.05, *b.Coordinates.Latitude, 1e-9)
	assert.Equal(t, "Western Wear", b.Categories[0].Title)
}

func TestSearch_SmallRadiusKept(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5000", r.URL.Query().Get("radius"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"businesses":[]}`))
	}))
	defer srv.Close()

	resp, err := NewClient("k", WithBaseURL(srv.URL)).Search(context.Background(), SearchRequest{Term: "x", RadiusM: 5000, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, resp.Businesses)
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"TOKEN_INVALID"}}`))
	}))
	defer srv.Close()

	_, err := NewClient("bad", WithBaseURL(srv.URL)).Search(context.Background(), SearchRequest{Term: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "yelp: unexpected status 401")
	assert.False(t, resilience.IsTransient(err))
}

func TestDecodeBusiness_NullCoordinates(t *testing.T) {
	b, err := DecodeBusiness([]byte(`{"id":"a","name":"A","coordinates":{"latitude":null,"longitude":null}}`))
	require.NoError(t, err)
	require.NotNil(t, b.Coordinates)
	assert.Nil(t, b.Coordinates.Latitude)
}
