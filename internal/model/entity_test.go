package model

import (
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rec     Record
		wantErr bool
	}{
		{"valid minimal", Record{Source: SourceOSM, Name: "Tack Barn"}, false},
		{"valid with coords", Record{Source: SourceGoogle, Name: "Boot Barn", Latitude: Ptr(30.1), Longitude: Ptr(-97.7)}, false},
		{"missing name", Record{Source: SourceYelp, Name: "  "}, true},
		{"missing source", Record{Name: "Boot Barn"}, true},
		{"lat without lon", Record{Source: SourceOSM, Name: "X", Latitude: Ptr(30.0)}, true},
		{"lat out of range", Record{Source: SourceOSM, Name: "X", Latitude: Ptr(91.0), Longitude: Ptr(0.0)}, true},
		{"lon out of range", Record{Source: SourceOSM, Name: "X", Latitude: Ptr(0.0), Longitude: Ptr(-181.0)}, true},
		{"negative reviews", Record{Source: SourceYelp, Name: "X", ReviewCount: Ptr(-1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.rec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, eris.Is(err, ErrInvalidRecord))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNewEntity(t *testing.T) {
	t.Parallel()

	rec := Record{
		Source:      SourceYelp,
		ProviderID:  "abc",
		Name:        "Cavender's",
		City:        "Austin",
		State:       "TX",
		Latitude:    Ptr(30.2),
		Longitude:   Ptr(-97.7),
		Rating:      Ptr(4.5),
		ReviewCount: Ptr(120),
		Categories:  []string{"Western Wear", "", "Western Wear", "Shoes"},
	}

	e := NewEntity("yp_abc", rec)
	assert.Equal(t, "yp_abc", e.ID)
	assert.Equal(t, map[string]string{SourceYelp: "abc"}, e.ProviderIDs)
	assert.Equal(t, []string{SourceYelp}, e.Sources)
	assert.Equal(t, []string{"Western Wear", "Shoes"}, e.Categories)
	require.Contains(t, e.Ratings, SourceYelp)
	assert.InDelta(t, 4.5, *e.Ratings[SourceYelp].Value, 1e-9)
	assert.Equal(t, 120, *e.Ratings[SourceYelp].Count)
	assert.True(t, e.HasSource(SourceYelp))
	assert.False(t, e.HasSource(SourceGoogle))

	*rec.Latitude = 0
	assert.InDelta(t, 30.2, *e.Latitude, 1e-9)
}

func TestEntity_CloneIsDeep(t *testing.T) {
	t.Parallel()

	e := NewEntity("gp_1", Record{
		Source: SourceGoogle, ProviderID: "1", Name: "Boot Barn",
		Latitude: Ptr(1.0), Longitude: Ptr(2.0), Rating: Ptr(4.0), ReviewCount: Ptr(10),
		Categories: []string{"boots"},
	})

	c := e.Clone()
	c.ProviderIDs[SourceOSM] = "node/1"
	c.Sources = append(c.Sources, SourceOSM)
	c.Categories[0] = "changed"
	*c.Latitude = 50
	*c.Ratings[SourceGoogle].Count = 99

	assert.NotContains(t, e.ProviderIDs, SourceOSM)
	assert.Equal(t, []string{SourceGoogle}, e.Sources)
	assert.Equal(t, "boots", e.Categories[0])
	assert.InDelta(t, 1.0, *e.Latitude, 1e-9)
	assert.Equal(t, 10, *e.Ratings[SourceGoogle].Count)
}
