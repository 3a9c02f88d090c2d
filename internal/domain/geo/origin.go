package geo

import "fmt"

// Origin is the placement of a model on the globe, in degrees and meters.
type Origin struct {
	Longitude float64
	Latitude  float64
	Height    float64
}

// NewOrigin validates longitude/latitude and creates an Origin.
func NewOrigin(lon, lat, height float64) (Origin, error) {
	if !ValidateCoordinates(lat, lon) {
		return Origin{}, fmt.Errorf("invalid coordinates: lat=%f lon=%f", lat, lon)
	}
	return Origin{Longitude: lon, Latitude: lat, Height: height}, nil
}

// ValidateCoordinates checks that latitude is in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
