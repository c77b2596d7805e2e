package providers

import (
	"context"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
)

// DeviceLocator requests the current position from a device geolocation
// sensor. Failures are LocationPermissionDenied, LocationUnavailable or
// LocationTimeout errors.
type DeviceLocator interface {
	CurrentPosition(ctx context.Context) (entities.Coordinates, error)
}

// Address is a human-readable place for a coordinate
type Address struct {
	Street       string               `json:"street"`
	Neighborhood string               `json:"neighborhood"`
	City         string               `json:"city"`
	Country      string               `json:"country"`
	Coordinates  entities.Coordinates `json:"coordinates"`
}

// UnknownLocationLabel is shown when no address could be resolved
const UnknownLocationLabel = "Unknown location"

// Label joins street and neighborhood for display
func (a *Address) Label() string {
	if a == nil {
		return UnknownLocationLabel
	}
	switch {
	case a.Street != "" && a.Neighborhood != "":
		return a.Street + ", " + a.Neighborhood
	case a.Street != "":
		return a.Street
	case a.Neighborhood != "":
		return a.Neighborhood
	case a.City != "":
		return a.City
	}
	return UnknownLocationLabel
}

// ReverseGeocoder turns a coordinate into an address
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, coords entities.Coordinates) (*Address, error)
}
