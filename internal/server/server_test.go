package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/places-collector/internal/collector"
	"github.com/sells-group/places-collector/internal/grid"
	"github.com/sells-group/places-collector/internal/model"
)

func seedDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	sc := model.NewEntity("gp_abc123", model.Record{
		Source: model.SourceGoogle, ProviderID: "abc123", Name: "Pistol Creek West", City: "Columbia", State: "SC",
	})
	sc.Sources = append(sc.Sources, model.SourceYelp)
	tx := model.NewEntity("osm_node/9", model.Record{
		Source: model.SourceOSM, ProviderID: "node/9", Name: "Tack Barn", City: "Austin", State: "TX",
	})
	tx2 := model.NewEntity("yp_spur", model.Record{
		Source: model.SourceYelp, ProviderID: "spur", Name: "Spur Western Wear", City: "Dallas", State: "TX",
	})

	p := collector.Progress{
		RunID:           "run-1",
		TotalPoints:     100,
		CompletedPoints: 30,
		CurrentIndex:    30,
		EntitiesFound:   3,
		Scope:           grid.Scope{Mode: grid.ModeFull, SpacingKM: 70},
	}
	require.NoError(t, collector.NewCheckpoint(dir).Save(p, []model.Entity{*sc, *tx, *tx2}, time.Now().UTC()))
	return dir
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	var body map[string]string
	assert.Equal(t, http.StatusOK, get(t, New(t.TempDir()).Handler(), "/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestProgress(t *testing.T) {
	h := New(seedDir(t)).Handler()

	var body struct {
		RunID        string  `json:"run_id"`
		CurrentIndex int     `json:"current_index"`
		Percent      float64 `json:"percent"`
	}
	require.Equal(t, http.StatusOK, get(t, h, "/progress", &body))
	assert.Equal(t, "run-1", body.RunID)
	assert.Equal(t, 30, body.CurrentIndex)
	assert.InDelta(t, 30.0, body.Percent, 1e-9)
}

func TestProgress_NoCheckpoint(t *testing.T) {
	var body map[string]string
	assert.Equal(t, http.StatusNotFound, get(t, New(t.TempDir()).Handler(), "/progress", &body))
	assert.NotEmpty(t, body["error"])
}

func TestEntities_FilterAndPage(t *testing.T) {
	h := New(seedDir(t)).Handler()

	var body entitiesResponse
	require.Equal(t, http.StatusOK, get(t, h, "/entities", &body))
	assert.Equal(t, 3, body.Total)
	assert.Len(t, body.Entities, 3)

	require.Equal(t, http.StatusOK, get(t, h, "/entities?state=tx", &body))
	assert.Equal(t, 2, body.Total)

	require.Equal(t, http.StatusOK, get(t, h, "/entities?source=yelp", &body))
	assert.Equal(t, 2, body.Total)

	require.Equal(t, http.StatusOK, get(t, h, "/entities?limit=1&offset=1", &body))
	assert.Equal(t, 3, body.Total)
	require.Len(t, body.Entities, 1)
	assert.Equal(t, "osm_node/9", body.Entities[0].ID)

	require.Equal(t, http.StatusOK, get(t, h, "/entities?offset=10", &body))
	assert.Empty(t, body.Entities)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/entities?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/entities?offset=-1", nil))
}

func TestEntity(t *testing.T) {
	h := New(seedDir(t)).Handler()

	var e model.Entity
	require.Equal(t, http.StatusOK, get(t, h, "/entities/yp_spur", &e))
	assert.Equal(t, "Spur Western Wear", e.Name)

	require.Equal(t, http.StatusOK, get(t, h, "/entities/osm_node/9", &e))
	assert.Equal(t, "Tack Barn", e.Name)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/entities/missing", nil))
}

func TestStats(t *testing.T) {
	var body struct {
		TotalUnique int            `json:"total_unique"`
		BySource    map[string]int `json:"by_source"`
		MultiSource int            `json:"multi_source"`
	}
	require.Equal(t, http.StatusOK, get(t, New(seedDir(t)).Handler(), "/stats", &body))
	assert.Equal(t, 3, body.TotalUnique)
	assert.Equal(t, 2, body.BySource[model.SourceYelp])
	assert.Equal(t, 1, body.MultiSource)
}

func TestCORS(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	New(t.TempDir()).Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(t.TempDir()).Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
