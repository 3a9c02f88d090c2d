package item

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/geocatalog/internal/domain/geo"
)

// Type is the renderable type of a catalog item.
type Type string

// Item types produced by the adapters.
const (
	Type3DTiles Type = "3d-tiles"
	TypeGLTF    Type = "gltf"
	TypeSensor  Type = "sensor"
)

// Valid reports whether t is a known item type.
func (t Type) Valid() bool {
	switch t {
	case Type3DTiles, TypeGLTF, TypeSensor:
		return true
	}
	return false
}

// Item is a materialized catalog item descriptor (immutable value object).
type Item struct {
	id         string
	group      string
	typ        Type
	url        string
	name       string
	origin     *geo.Origin
	scale      *float64
	properties map[string]any
}

// Params holds the resolved fields an Item is built from.
type Params struct {
	Group      string
	Type       Type
	URL        string
	Name       string
	Origin     *geo.Origin
	Scale      *float64
	Properties map[string]any
}

// New validates params and creates an Item with a deterministic ID.
func New(p Params) (Item, error) {
	if p.Group == "" {
		return Item{}, fmt.Errorf("item group is required")
	}
	if p.URL == "" {
		return Item{}, fmt.Errorf("item url is required")
	}
	if !p.Type.Valid() {
		return Item{}, fmt.Errorf("unknown item type %q", p.Type)
	}
	var origin *geo.Origin
	if p.Origin != nil {
		o := *p.Origin
		origin = &o
	}
	var scale *float64
	if p.Scale != nil {
		s := *p.Scale
		scale = &s
	}
	return Item{
		id:         NewID(p.Group, p.URL, p.Name),
		group:      p.Group,
		typ:        p.Type,
		url:        p.URL,
		name:       p.Name,
		origin:     origin,
		scale:      scale,
		properties: cloneProperties(p.Properties),
	}, nil
}

// Reconstruct creates an Item without validation (storage hydration).
func Reconstruct(id string, p Params) Item {
	return Item{
		id: id, group: p.Group, typ: p.Type, url: p.URL, name: p.Name,
		origin: p.Origin, scale: p.Scale, properties: p.Properties,
	}
}

// NewID derives a stable item identifier so reloading a group yields the same IDs.
func NewID(group, url, name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(group+"\x00"+url+"\x00"+name)).String()
}

// ID returns the item identifier.
func (i *Item) ID() string { return i.id }

// Group returns the owning catalog group.
func (i *Item) Group() string { return i.group }

// Type returns the renderable item type.
func (i *Item) Type() Type { return i.typ }

// URL returns the asset URL.
func (i *Item) URL() string { return i.url }

// Name returns the display name.
func (i *Item) Name() string { return i.name }

// Origin returns the model placement, or nil.
func (i *Item) Origin() *geo.Origin { return i.origin }

// Scale returns the model scale factor, or nil.
func (i *Item) Scale() *float64 { return i.scale }

// Properties returns the extra renderer properties.
func (i *Item) Properties() map[string]any { return i.properties }

func cloneProperties(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	c := make(map[string]any, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
