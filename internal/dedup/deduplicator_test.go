package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/places-collector/internal/model"
)

func googleRec(id, name, addr string) model.Record {
	return model.Record{Source: model.SourceGoogle, ProviderID: id, Name: name, FormattedAddress: addr}
}

func TestAdd_PistolCreekScenario(t *testing.T) {
	t.Parallel()

	d := New(DefaultThreshold)

	id1, isNew := d.Add(model.Record{
		Source:           model.SourceGoogle,
		ProviderID:       "abc123",
		Name:             "Pistol Creek West Boot Store",
		FormattedAddress: "4350 St Andrews Rd, Columbia, SC 29210",
		Rating:           model.Ptr(4.4),
	})
	assert.True(t, isNew)
	assert.Equal(t, "gp_abc123", id1)

	id2, isNew := d.Add(model.Record{
		Source:           model.SourceYelp,
		Name:             "Pistol Creek West",
		FormattedAddress: "4350 Saint Andrews Road, Columbia, SC",
		Rating:           model.Ptr(4.5),
	})
	assert.False(t, isNew)
	assert.Equal(t, id1, id2)

	all := d.All()
	require.Len(t, all, 1)
	assert.Equal(t, []string{model.SourceGoogle, model.SourceYelp}, all[0].Sources)
}

func TestAdd_Idempotent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		rec  model.Record
	}{
		{"with provider id", googleRec("g1", "Boot Barn", "1 Main St, Austin, TX 78701")},
		{"without id or city", model.Record{Source: model.SourceOSM, Name: "Saddle Shed"}},
		{"without id with city", model.Record{Source: model.SourceYelp, Name: "Tack Trunk", City: "Ocala"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := New(DefaultThreshold)
			id1, n1 := d.Add(tt.rec)
			id2, n2 := d.Add(tt.rec)

			assert.True(t, n1)
			assert.False(t, n2)
			assert.Equal(t, id1, id2)
			require.Equal(t, 1, d.Len())
			assert.Equal(t, []string{tt.rec.Source}, d.All()[0].Sources)
		})
	}
}

func TestAdd_IdentifierPrecedence(t *testing.T) {
	t.Parallel()

	d := New(DefaultThreshold)
	id1, _ := d.Add(googleRec("same", "Cavender's", "10 Elm St, Tyler, TX 75701"))
	id2, isNew := d.Add(googleRec("same", "Completely Different Name", "99 Oak Ave, Reno, NV 89501"))

	assert.False(t, isNew)
	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, d.Len())
}

func TestAdd_FuzzyThreshold(t *testing.T) {
	t.Parallel()

	t.Run("similar names in same city merge", func(t *testing.T) {
		t.Parallel()
		require.InDelta(t, 0.90, Similarity("lone stars", "lone starz"), 1e-9)

		d := New(DefaultThreshold)
		d.Add(googleRec("a", "Lone Stars", "1 Main St, Amarillo, TX 79101"))
		_, isNew := d.Add(model.Record{Source: model.SourceYelp, Name: "Lone Starz", FormattedAddress: "1 Main Street, Amarillo, TX"})

		assert.False(t, isNew)
		assert.Equal(t, 1, d.Len())
	})

	t.Run("dissimilar names in same city stay distinct", func(t *testing.T) {
		t.Parallel()
		require.InDelta(t, 0.60, Similarity("lone stars", "lone pines"), 1e-9)

		d := New(DefaultThreshold)
		d.Add(googleRec("a", "Lone Stars", "1 Main St, Amarillo, TX 79101"))
		_, isNew := d.Add(model.Record{Source: model.SourceYelp, Name: "Lone Pines", FormattedAddress: "1 Main St, Amarillo, TX"})

		assert.True(t, isNew)
		assert.Equal(t, 2, d.Len())
	})

	t.Run("same name in different city stays distinct", func(t *testing.T) {
		t.Parallel()
		d := New(DefaultThreshold)
		d.Add(googleRec("a", "Boot Barn", "1 Main St, Amarillo, TX 79101"))
		_, isNew := d.Add(model.Record{Source: model.SourceYelp, Name: "Boot Barn", FormattedAddress: "5 Pine Rd, Phoenix, AZ 85001"})

		assert.True(t, isNew)
	})

	t.Run("missing city never fuzzy matches", func(t *testing.T) {
		t.Parallel()
		d := New(DefaultThreshold)
		d.Add(googleRec("a", "Boot Barn", ""))
		_, isNew := d.Add(model.Record{Source: model.SourceYelp, ProviderID: "y", Name: "Boot Barn"})

		assert.True(t, isNew)
	})
}

func TestAdd_NonLatinNamesStayDistinct(t *testing.T) {
	t.Parallel()

	d := New(DefaultThreshold)
	_, n1 := d.Add(googleRec("g1", "牛仔靴店", "100 Congress Ave, Austin, TX 78701"))
	_, n2 := d.Add(googleRec("g2", "西部服装", "200 Congress Ave, Austin, TX 78701"))
	_, n3 := d.Add(googleRec("g3", "Сапоги", "300 Congress Ave, Austin, TX 78701"))

	assert.True(t, n1)
	assert.True(t, n2)
	assert.True(t, n3)
	assert.Equal(t, 3, d.Len())

	id, isNew := d.Add(model.Record{Source: model.SourceYelp, Name: "牛仔靴店", FormattedAddress: "100 Congress Ave, Austin, TX"})
	assert.False(t, isNew)
	assert.Equal(t, "gp_g1", id)
}

func TestAdd_EmptyNormalizedNamesNeverFuzzyMatch(t *testing.T) {
	t.Parallel()

	d := New(DefaultThreshold)
	id1, n1 := d.Add(model.Record{Source: model.SourceOSM, Name: "!!!", FormattedAddress: "1 Main St, Austin, TX 78701"})
	id2, n2 := d.Add(model.Record{Source: model.SourceOSM, Name: "???", FormattedAddress: "2 Main St, Austin, TX 78701"})

	assert.True(t, n1)
	assert.True(t, n2)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, d.Len())
}

func TestAdd_FirstCandidateWins(t *testing.T) {
	t.Parallel()

	d := New(DefaultThreshold)
	d.Restore([]model.Entity{
		*model.NewEntity("gp_a", googleRec("a", "Ranch House", "1 Main St, Dallas, TX 75201")),
		*model.NewEntity("gp_b", googleRec("b", "Ranch House", "9 Oak St, Dallas, TX 75202")),
	})

	id, isNew := d.Add(model.Record{Source: model.SourceOSM, ProviderID: "node/1", Name: "Ranch House", City: "Dallas"})
	assert.False(t, isNew)
	assert.Equal(t, "gp_a", id)
}

func TestMerge_FieldFill(t *testing.T) {
	t.Parallel()

	d := New(DefaultThreshold)
	id, _ := d.Add(model.Record{Source: model.SourceGoogle, ProviderID: "g", Name: "Tack Room", City: "Ocala"})
	d.Add(model.Record{
		Source: model.SourceYelp, ProviderID: "y", Name: "Tack Room", City: "Ocala",
		Phone: "(352) 555-0100", Website: "https://tackroom.example",
		Latitude: model.Ptr(29.18), Longitude: model.Ptr(-82.14),
		Categories: []string{"Saddlery"},
	})

	e, ok := d.Get(id)
	require.True(t, ok)
	assert.Equal(t, "(352) 555-0100", e.Phone)
	assert.Equal(t, "https://tackroom.example", e.Website)
	require.NotNil(t, e.Latitude)
	assert.InDelta(t, 29.18, *e.Latitude, 1e-9)
	assert.Equal(t, "y", e.ProviderIDs[model.SourceYelp])
	assert.Equal(t, []string{"Saddlery"}, e.Categories)

	d.Add(model.Record{Source: model.SourceOSM, Name: "Tack Room", City: "Ocala", Phone: "000", Categories: []string{"Saddlery", "clothes"}})
	e, _ = d.Get(id)
	assert.Equal(t, "(352) 555-0100", e.Phone, "existing phone must not be overwritten")
	assert.Equal(t, []string{"Saddlery", "clothes"}, e.Categories)

	// Yelp ID indexed on merge: exact match now resolves regardless of name.
	got, isNew := d.Add(model.Record{Source: model.SourceYelp, ProviderID: "y", Name: "Other"})
	assert.False(t, isNew)
	assert.Equal(t, id, got)
}

func TestMerge_RatingReplacement(t *testing.T) {
	t.Parallel()

	d := New(DefaultThreshold)
	rec := model.Record{Source: model.SourceYelp, ProviderID: "y1", Name: "Spur Outfitters", Rating: model.Ptr(3.5), ReviewCount: model.Ptr(45)}
	id, _ := d.Add(rec)

	rec.Rating, rec.ReviewCount = model.Ptr(4.5), model.Ptr(120)
	d.Add(rec)
	e, _ := d.Get(id)
	assert.InDelta(t, 4.5, *e.Ratings[model.SourceYelp].Value, 1e-9)
	assert.Equal(t, 120, *e.Ratings[model.SourceYelp].Count)

	rec.Rating, rec.ReviewCount = model.Ptr(1.0), model.Ptr(10)
	d.Add(rec)
	e, _ = d.Get(id)
	assert.InDelta(t, 4.5, *e.Ratings[model.SourceYelp].Value, 1e-9)
	assert.Equal(t, 120, *e.Ratings[model.SourceYelp].Count)

	rec.Rating, rec.ReviewCount = model.Ptr(2.0), nil
	d.Add(rec)
	e, _ = d.Get(id)
	assert.InDelta(t, 4.5, *e.Ratings[model.SourceYelp].Value, 1e-9)
}

func TestCanonicalID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "gp_x", CanonicalID(model.Record{Source: model.SourceGoogle, ProviderID: "x"}))
	assert.Equal(t, "yp_x", CanonicalID(model.Record{Source: model.SourceYelp, ProviderID: "x"}))
	assert.Equal(t, "osm_node/1", CanonicalID(model.Record{Source: model.SourceOSM, ProviderID: "node/1"}))

	a := CanonicalID(model.Record{Source: model.SourceOSM, Name: "Boot Barn Inc.", FormattedAddress: "1 Main Street"})
	b := CanonicalID(model.Record{Source: model.SourceYelp, Name: "boot barn", FormattedAddress: "1 main st"})
	assert.Equal(t, a, b)
	assert.Regexp(t, `^hash_[0-9a-f]{8}$`, a)
}

func TestRestore_LoadsWithoutMerging(t *testing.T) {
	t.Parallel()

	src := New(DefaultThreshold)
	src.Add(googleRec("a", "Boot Barn", "1 Main St, Austin, TX 78701"))
	src.Add(model.Record{Source: model.SourceYelp, Name: "Boot Barn", FormattedAddress: "1 Main St, Austin, TX"})
	src.Add(model.Record{Source: model.SourceOSM, ProviderID: "way/7", Name: "Saddle Shed", City: "Waco"})
	snapshot := src.All()

	dst := New(DefaultThreshold)
	n := dst.Restore(append(snapshot, snapshot[0]))
	assert.Equal(t, 2, n)
	assert.Equal(t, snapshot, dst.All())
	assert.Equal(t, src.Stats(), dst.Stats())

	id, isNew := dst.Add(model.Record{Source: model.SourceOSM, ProviderID: "way/7", Name: "Renamed"})
	assert.False(t, isNew)
	assert.Equal(t, "osm_way/7", id)
	_, isNew = dst.Add(model.Record{Source: model.SourceYelp, Name: "Boot Barn", City: "Austin"})
	assert.False(t, isNew)
}

func TestStats(t *testing.T) {
	t.Parallel()

	d := New(0)
	assert.InDelta(t, DefaultThreshold, d.Threshold(), 1e-9)

	d.Add(googleRec("a", "Boot Barn", "1 Main St, Austin, TX 78701"))
	d.Add(model.Record{Source: model.SourceYelp, Name: "Boot Barn", City: "Austin"})
	d.Add(model.Record{Source: model.SourceOSM, ProviderID: "n1", Name: "Tack Hut"})

	s := d.Stats()
	assert.Equal(t, 2, s.TotalUnique)
	assert.Equal(t, map[string]int{model.SourceGoogle: 1, model.SourceYelp: 1, model.SourceOSM: 1}, s.BySource)
	assert.Equal(t, 1, s.MultiSource)
}

func TestAll_ReturnsCopies(t *testing.T) {
	t.Parallel()

	d := New(DefaultThreshold)
	id, _ := d.Add(googleRec("a", "Boot Barn", ""))
	all := d.All()
	all[0].Sources[0] = "mutated"

	e, _ := d.Get(id)
	assert.Equal(t, []string{model.SourceGoogle}, e.Sources)
}
