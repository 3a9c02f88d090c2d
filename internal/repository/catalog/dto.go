package catalog

import (
	"github.com/kailas-cloud/geocatalog/internal/domain/geo"
	"github.com/kailas-cloud/geocatalog/internal/domain/item"
)

// itemDTO is the JSON form of an item stored in a group hash.
type itemDTO struct {
	ID         string         `json:"id"`
	Group      string         `json:"group"`
	Type       string         `json:"type"`
	URL        string         `json:"url"`
	Name       string         `json:"name"`
	Origin     *originDTO     `json:"origin,omitempty"`
	Scale      *float64       `json:"scale,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

type originDTO struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	Height    float64 `json:"height"`
}

func toDTO(it *item.Item) itemDTO {
	d := itemDTO{
		ID:         it.ID(),
		Group:      it.Group(),
		Type:       string(it.Type()),
		URL:        it.URL(),
		Name:       it.Name(),
		Scale:      it.Scale(),
		Properties: it.Properties(),
	}
	if o := it.Origin(); o != nil {
		d.Origin = &originDTO{Longitude: o.Longitude, Latitude: o.Latitude, Height: o.Height}
	}
	return d
}

func (d itemDTO) toDomain() item.Item {
	var origin *geo.Origin
	if d.Origin != nil {
		origin = &geo.Origin{Longitude: d.Origin.Longitude, Latitude: d.Origin.Latitude, Height: d.Origin.Height}
	}
	return item.Reconstruct(d.ID, item.Params{
		Group:      d.Group,
		Type:       item.Type(d.Type),
		URL:        d.URL,
		Name:       d.Name,
		Origin:     origin,
		Scale:      d.Scale,
		Properties: d.Properties,
	})
}
