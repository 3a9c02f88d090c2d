package geo

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tidwall/gjson"
)

// ErrNotPoint signals GeoJSON whose first geometry is not a Point.
var ErrNotPoint = errors.New("geometry is not a point")

// OriginFromGeoJSON reads the first point of a GeoJSON value. FeatureCollections
// use their first feature; Features use their geometry; bare Points are accepted.
// Height is always 0.
func OriginFromGeoJSON(raw []byte) (Origin, error) {
	g, err := firstGeometry(raw)
	if err != nil {
		return Origin{}, err
	}
	p, ok := g.(orb.Point)
	if !ok {
		return Origin{}, fmt.Errorf("%w: %T", ErrNotPoint, g)
	}
	return NewOrigin(p.Lon(), p.Lat(), 0)
}

func firstGeometry(raw []byte) (orb.Geometry, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("invalid geojson")
	}
	switch typ := gjson.GetBytes(raw, "type").String(); typ {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection(raw)
		if err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
		if len(fc.Features) == 0 {
			return nil, errors.New("feature collection has no features")
		}
		return featureGeometry(fc.Features[0])
	case "Feature":
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		return featureGeometry(f)
	case "":
		return nil, errors.New("geojson has no type")
	default:
		if !gjson.GetBytes(raw, "coordinates").IsArray() {
			return nil, fmt.Errorf("geometry %s has no coordinates", typ)
		}
		g, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		return g.Geometry(), nil
	}
}

func featureGeometry(f *geojson.Feature) (orb.Geometry, error) {
	if f == nil || f.Geometry == nil {
		return nil, errors.New("feature has no geometry")
	}
	return f.Geometry, nil
}
