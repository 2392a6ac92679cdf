// Package dedup resolves provider records into canonical entities, merging
// sightings that refer to the same real-world place.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/sells-group/places-collector/internal/model"
)

// DefaultThreshold is the minimum normalized-name similarity for a fuzzy match.
const DefaultThreshold = 0.85

// CityThreshold is the minimum city similarity for a fuzzy match.
const CityThreshold = 0.8

var idPrefixes = map[string]string{
	model.SourceGoogle: "gp",
	model.SourceYelp:   "yp",
	model.SourceOSM:    "osm",
}

// Stats aggregates the canonical set.
type Stats struct {
	TotalUnique int            `json:"total_unique"`
	BySource    map[string]int `json:"by_source"`
	MultiSource int            `json:"multi_source"`
}

// Deduplicator holds the canonical entity set and its lookup indexes. It is
// not safe for concurrent use.
type Deduplicator struct {
	threshold float64

	entities map[string]*model.Entity
	order    []string
	cities   map[string]string // entity ID -> lowercased match city

	byProvider map[string]map[string]string // source -> provider ID -> entity ID
	byName     map[string][]string
	byCity     map[string][]string
}

// New creates an empty Deduplicator. A threshold outside (0, 1] falls back to
// DefaultThreshold.
func New(threshold float64) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	d := &Deduplicator{threshold: threshold}
	d.reset()
	return d
}

func (d *Deduplicator) reset() {
	d.entities = make(map[string]*model.Entity)
	d.order = nil
	d.cities = make(map[string]string)
	d.byProvider = make(map[string]map[string]string)
	d.byName = make(map[string][]string)
	d.byCity = make(map[string][]string)
}

// Threshold returns the configured name-similarity threshold.
func (d *Deduplicator) Threshold() float64 { return d.threshold }

// Len returns the number of canonical entities.
func (d *Deduplicator) Len() int { return len(d.order) }

// Add resolves rec against the canonical set. It returns the canonical ID the
// record was filed under and whether a new entity was created.
func (d *Deduplicator) Add(rec model.Record) (string, bool) {
	if rec.ProviderID != "" {
		if id, ok := d.byProvider[rec.Source][rec.ProviderID]; ok {
			d.merge(d.entities[id], rec)
			return id, false
		}
	}

	normName := NormalizeName(rec.Name)
	city := matchCity(rec.FormattedAddress, rec.City)

	// A name with nothing left after normalization cannot be compared.
	if normName == "" {
		return d.addNew(rec, normName, city)
	}

	for _, id := range d.candidates(normName, city) {
		cand := d.entities[id]
		nameSim := Similarity(normName, NormalizeName(cand.Name))
		citySim := 0.0
		if candCity := d.cities[id]; city != "" && candCity != "" {
			citySim = Similarity(city, candCity)
		}
		if nameSim >= d.threshold && citySim >= CityThreshold {
			d.merge(cand, rec)
			return id, false
		}
	}

	return d.addNew(rec, normName, city)
}

func (d *Deduplicator) addNew(rec model.Record, normName, city string) (string, bool) {
	id := CanonicalID(rec)
	if existing, ok := d.entities[id]; ok {
		d.merge(existing, rec)
		return id, false
	}

	d.insert(model.NewEntity(id, rec), normName, city)
	return id, true
}

// candidates lists entities filed under the same normalized name, then those
// filed under the same city, without repeats and in insertion order.
func (d *Deduplicator) candidates(normName, city string) []string {
	named := d.byName[normName]
	if city == "" {
		return named
	}
	local := d.byCity[city]
	if len(local) == 0 {
		return named
	}

	out := make([]string, 0, len(named)+len(local))
	seen := make(map[string]struct{}, len(named))
	for _, id := range named {
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, id := range local {
		if _, dup := seen[id]; !dup {
			out = append(out, id)
		}
	}
	return out
}

func (d *Deduplicator) insert(e *model.Entity, normName, city string) {
	d.entities[e.ID] = e
	d.order = append(d.order, e.ID)
	d.cities[e.ID] = city
	d.byName[normName] = append(d.byName[normName], e.ID)
	if city != "" {
		d.byCity[city] = append(d.byCity[city], e.ID)
	}
	for src, pid := range e.ProviderIDs {
		d.indexProvider(src, pid, e.ID)
	}
}

func (d *Deduplicator) indexProvider(src, pid, id string) {
	if pid == "" {
		return
	}
	idx, ok := d.byProvider[src]
	if !ok {
		idx = make(map[string]string)
		d.byProvider[src] = idx
	}
	if _, taken := idx[pid]; !taken {
		idx[pid] = id
	}
}

// merge folds rec into e. Existing values are never overwritten except for a
// provider rating backed by more reviews.
func (d *Deduplicator) merge(e *model.Entity, rec model.Record) {
	if rec.Source != "" && !e.HasSource(rec.Source) {
		e.Sources = append(e.Sources, rec.Source)
	}

	if rec.ProviderID != "" && e.ProviderIDs[rec.Source] == "" {
		if e.ProviderIDs == nil {
			e.ProviderIDs = make(map[string]string)
		}
		e.ProviderIDs[rec.Source] = rec.ProviderID
		d.indexProvider(rec.Source, rec.ProviderID, e.ID)
	}
	if e.Phone == "" && rec.Phone != "" {
		e.Phone = rec.Phone
	}
	if e.Website == "" && rec.Website != "" {
		e.Website = rec.Website
	}
	if e.Latitude == nil && rec.HasCoordinates() {
		e.Latitude = model.Ptr(*rec.Latitude)
		e.Longitude = model.Ptr(*rec.Longitude)
	}

	if rec.ReviewCount != nil {
		existing := 0
		if cur, ok := e.Ratings[rec.Source]; ok && cur.Count != nil {
			existing = *cur.Count
		}
		if *rec.ReviewCount > existing {
			if e.Ratings == nil {
				e.Ratings = make(map[string]model.Rating)
			}
			r := model.Rating{Count: model.Ptr(*rec.ReviewCount)}
			if rec.Rating != nil {
				r.Value = model.Ptr(*rec.Rating)
			}
			e.Ratings[rec.Source] = r
		}
	}

	for _, c := range rec.Categories {
		if c == "" {
			continue
		}
		found := false
		for _, have := range e.Categories {
			if have == c {
				found = true
				break
			}
		}
		if !found {
			e.Categories = append(e.Categories, c)
		}
	}
}

// Restore replaces the canonical set with a persisted snapshot. Entities are
// loaded as-is and indexed; no matching or merging takes place. Entries with
// an empty or repeated ID are skipped. It returns the number loaded.
func (d *Deduplicator) Restore(entities []model.Entity) int {
	d.reset()
	for i := range entities {
		e := entities[i].Clone()
		if e.ID == "" {
			continue
		}
		if _, dup := d.entities[e.ID]; dup {
			continue
		}
		d.insert(&e, NormalizeName(e.Name), matchCity(e.FormattedAddress, e.City))
	}
	return len(d.order)
}

// Get returns a copy of the entity with the given ID.
func (d *Deduplicator) Get(id string) (model.Entity, bool) {
	e, ok := d.entities[id]
	if !ok {
		return model.Entity{}, false
	}
	return e.Clone(), true
}

// All returns copies of every canonical entity in creation order.
func (d *Deduplicator) All() []model.Entity {
	out := make([]model.Entity, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.entities[id].Clone())
	}
	return out
}

// Stats returns the total, per-source and multi-source counts.
func (d *Deduplicator) Stats() Stats {
	return ComputeStats(d.All())
}

// ComputeStats aggregates an entity list, such as a persisted snapshot.
func ComputeStats(entities []model.Entity) Stats {
	s := Stats{TotalUnique: len(entities), BySource: make(map[string]int)}
	for _, e := range entities {
		for _, src := range e.Sources {
			s.BySource[src]++
		}
		if len(e.Sources) > 1 {
			s.MultiSource++
		}
	}
	return s
}

// CanonicalID derives the identifier a new entity is filed under: the
// provider-prefixed identifier when one is present, otherwise a hash of the
// normalized name and address.
func CanonicalID(rec model.Record) string {
	if rec.ProviderID != "" {
		if prefix, ok := idPrefixes[rec.Source]; ok {
			return prefix + "_" + rec.ProviderID
		}
		return rec.Source + "_" + rec.ProviderID
	}
	sum := sha256.Sum256([]byte(NormalizeName(rec.Name) + "_" + NormalizeAddress(rec.FormattedAddress)))
	return "hash_" + hex.EncodeToString(sum[:4])
}

// matchCity returns the lowercased city parsed from the address, falling
// back to the explicit city field.
func matchCity(addr, city string) string {
	c, _ := ExtractCityState(addr)
	if c == "" {
		c = city
	}
	return strings.ToLower(strings.TrimSpace(c))
}
