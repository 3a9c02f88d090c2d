package record

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is one search hit. Field identifiers are opaque and come from configuration.
type Record struct {
	tiles []Tile
}

// Tile is one tile of a resource instance: a mapping from field id to raw JSON.
type Tile struct {
	Data map[string]json.RawMessage `json:"data"`
}

type hit struct {
	Source *struct {
		Tiles []Tile `json:"tiles"`
	} `json:"_source"`
	Tiles []Tile `json:"tiles"`
}

// Decode parses a raw hit. Hits wrapped in "_source" and bare {"tiles": [...]} are both accepted.
func Decode(raw json.RawMessage) (Record, error) {
	var h hit
	if err := json.Unmarshal(raw, &h); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if h.Source != nil {
		return Record{tiles: h.Source.Tiles}, nil
	}
	return Record{tiles: h.Tiles}, nil
}

// New creates a Record from tiles (tests and in-process sources).
func New(tiles ...Tile) Record { return Record{tiles: tiles} }

// HasTiles reports whether the record carries at least one tile.
func (r Record) HasTiles() bool { return len(r.tiles) > 0 }

// Field looks up a field of the first tile. JSON null counts as absent.
func (r Record) Field(id string) (json.RawMessage, bool) {
	if len(r.tiles) == 0 || id == "" {
		return nil, false
	}
	v, ok := r.tiles[0].Data[id]
	if !ok || len(v) == 0 || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}

// String looks up a string field of the first tile.
// Returns ok=false when the field is absent; err when it is present but not a string.
func (r Record) String(id string) (string, bool, error) {
	v, ok := r.Field(id)
	if !ok {
		return "", false, nil
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", true, fmt.Errorf("field %s is not a string: %w", id, err)
	}
	return s, true, nil
}
