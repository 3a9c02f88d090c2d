package sensorthings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID is a SensorThings "@iot.id". Servers use numbers or strings.
type ID struct {
	value   string
	numeric bool
}

// UnmarshalJSON accepts JSON numbers and strings.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ID{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode @iot.id: %w", err)
		}
		*id = ID{value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("decode @iot.id: %w", err)
	}
	*id = ID{value: n.String(), numeric: true}
	return nil
}

// String returns the id as text.
func (id ID) String() string { return id.value }

// Literal returns the id as an OData key literal: numbers bare, strings quoted.
func (id ID) Literal() string {
	if id.numeric {
		return id.value
	}
	if _, err := strconv.ParseFloat(id.value, 64); err == nil {
		return id.value
	}
	return "'" + id.value + "'"
}

type locationsResponse struct {
	Value json.RawMessage `json:"value"`
}

// Location is one entry of the Locations collection, with expanded Things.
type Location struct {
	ID       ID              `json:"@iot.id"`
	Name     string          `json:"name"`
	Location json.RawMessage `json:"location"`
	Things   []Thing         `json:"Things"`
}

// Thing groups the datastreams of one station.
type Thing struct {
	ID          ID           `json:"@iot.id"`
	Name        string       `json:"name"`
	Datastreams []Datastream `json:"Datastreams"`
}

// Datastream is one measured series.
type Datastream struct {
	ID                ID                `json:"@iot.id"`
	Name              string            `json:"name"`
	UnitOfMeasurement UnitOfMeasurement `json:"unitOfMeasurement"`
	ObservedProperty  *ObservedProperty `json:"ObservedProperty"`
}

// UnitOfMeasurement names the datastream unit.
type UnitOfMeasurement struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// ObservedProperty is the phenomenon a datastream measures.
type ObservedProperty struct {
	ID   ID     `json:"@iot.id"`
	Name string `json:"name"`
}
