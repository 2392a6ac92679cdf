package model

import "slices"

// Rating is one provider's rating together with the review count it is based on.
type Rating struct {
	Value *float64 `json:"rating,omitempty"`
	Count *int     `json:"review_count,omitempty"`
}

// Entity is the canonical, merged record for one real-world place.
type Entity struct {
	ID               string            `json:"id"`
	ProviderIDs      map[string]string `json:"provider_ids,omitempty"`
	Name             string            `json:"name"`
	FormattedAddress string            `json:"formatted_address"`
	City             string            `json:"city"`
	State            string            `json:"state"`
	ZipCode          string            `json:"zip_code"`
	Latitude         *float64          `json:"latitude,omitempty"`
	Longitude        *float64          `json:"longitude,omitempty"`
	Phone            string            `json:"phone"`
	Website          string            `json:"website"`
	Ratings          map[string]Rating `json:"ratings,omitempty"`
	Categories       []string          `json:"categories"`
	Sources          []string          `json:"sources"`
	Notes            string            `json:"notes,omitempty"`
}

// NewEntity builds a canonical entity from its first sighting.
func NewEntity(id string, r Record) *Entity {
	e := &Entity{
		ID:               id,
		ProviderIDs:      map[string]string{},
		Name:             r.Name,
		FormattedAddress: r.FormattedAddress,
		City:             r.City,
		State:            r.State,
		ZipCode:          r.ZipCode,
		Phone:            r.Phone,
		Website:          r.Website,
		Ratings:          map[string]Rating{},
		Categories:       []string{},
		Sources:          []string{r.Source},
		Notes:            r.Notes,
	}
	if r.ProviderID != "" {
		e.ProviderIDs[r.Source] = r.ProviderID
	}
	if r.HasCoordinates() {
		e.Latitude = Ptr(*r.Latitude)
		e.Longitude = Ptr(*r.Longitude)
	}
	if r.Rating != nil || r.ReviewCount != nil {
		e.Ratings[r.Source] = Rating{Value: copyPtr(r.Rating), Count: copyPtr(r.ReviewCount)}
	}
	for _, c := range r.Categories {
		if c != "" && !slices.Contains(e.Categories, c) {
			e.Categories = append(e.Categories, c)
		}
	}
	return e
}

// HasSource reports whether src has contributed to the entity.
func (e *Entity) HasSource(src string) bool {
	return slices.Contains(e.Sources, src)
}

// Clone returns a deep copy so callers cannot mutate deduplicator state.
func (e *Entity) Clone() Entity {
	out := *e
	out.ProviderIDs = make(map[string]string, len(e.ProviderIDs))
	for k, v := range e.ProviderIDs {
		out.ProviderIDs[k] = v
	}
	out.Ratings = make(map[string]Rating, len(e.Ratings))
	for k, v := range e.Ratings {
		out.Ratings[k] = Rating{Value: copyPtr(v.Value), Count: copyPtr(v.Count)}
	}
	out.Latitude = copyPtr(e.Latitude)
	out.Longitude = copyPtr(e.Longitude)
	out.Categories = slices.Clone(e.Categories)
	out.Sources = slices.Clone(e.Sources)
	if out.Categories == nil {
		out.Categories = []string{}
	}
	if out.Sources == nil {
		out.Sources = []string{}
	}
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
