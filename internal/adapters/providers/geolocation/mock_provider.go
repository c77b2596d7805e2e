package geolocation

import (
	"context"
	"fmt"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

// MockGeocoder resolves coordinates near a few known places and labels
// everything else with the raw coordinate
type MockGeocoder struct{}

var _ providers.ReverseGeocoder = (*MockGeocoder)(nil)

// NewMockGeocoder creates a new mock reverse geocoder
func NewMockGeocoder() *MockGeocoder {
	return &MockGeocoder{}
}

var knownPlaces = []struct {
	name    string
	street  string
	coords  entities.Coordinates
	country string
}{
	{"Prishtina", "Sheshi Nëna Terezë", entities.Coordinates{Latitude: 42.6629, Longitude: 21.1655}, "Kosovo"},
	{"Prizren", "Rruga e Shadërvanit", entities.Coordinates{Latitude: 42.2139, Longitude: 20.7397}, "Kosovo"},
	{"Peja", "Rruga Mbretëresha Teutë", entities.Coordinates{Latitude: 42.6593, Longitude: 20.2887}, "Kosovo"},
}

// ReverseGeocode returns the nearest known place within 5 km
func (m *MockGeocoder) ReverseGeocode(ctx context.Context, coords entities.Coordinates) (*providers.Address, error) {
	if !coords.Valid() {
		return nil, apperrors.NewValidationError("coordinate out of range")
	}

	for _, place := range knownPlaces {
		if entities.DistanceKm(coords, place.coords) <= 5 {
			return &providers.Address{
				Street:       place.street,
				Neighborhood: "Qendra",
				City:         place.name,
				Country:      place.country,
				Coordinates:  coords,
			}, nil
		}
	}

	return &providers.Address{
		Street:      fmt.Sprintf("Near %s", coords.String()),
		Coordinates: coords,
	}, nil
}
