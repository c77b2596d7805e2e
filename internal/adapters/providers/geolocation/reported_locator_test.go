package geolocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

func TestReportedLocator(t *testing.T) {
	fix := &entities.Coordinates{Latitude: 42.6629, Longitude: 21.1655}

	tests := []struct {
		name    string
		fix     *entities.Coordinates
		outcome string
		want    apperrors.ErrorType
	}{
		{"permission denied", fix, "permission_denied", apperrors.ErrorTypeLocationPermissionDenied},
		{"unavailable", nil, "unavailable", apperrors.ErrorTypeLocationUnavailable},
		{"timeout", nil, "TIMEOUT", apperrors.ErrorTypeLocationTimeout},
		{"unknown code", nil, "sensor_broken", apperrors.ErrorTypeLocationUnavailable},
		{"no fix and no code", nil, "", apperrors.ErrorTypeLocationUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewReportedLocator(tt.fix, tt.outcome).CurrentPosition(context.Background())
			assert.True(t, apperrors.IsType(err, tt.want), "got %v", err)
		})
	}

	t.Run("fix", func(t *testing.T) {
		got, err := NewReportedLocator(fix, "").CurrentPosition(context.Background())
		require.NoError(t, err)
		assert.Equal(t, *fix, got)
	})

	t.Run("expired deadline", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
		defer cancel()
		<-ctx.Done()

		_, err := NewReportedLocator(fix, "").CurrentPosition(ctx)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeLocationTimeout))
	})
}

func TestMockGeocoder(t *testing.T) {
	address, err := NewMockGeocoder().ReverseGeocode(context.Background(), entities.Coordinates{Latitude: 42.66, Longitude: 21.16})
	require.NoError(t, err)
	assert.Equal(t, "Prishtina", address.City)

	address, err = NewMockGeocoder().ReverseGeocode(context.Background(), entities.Coordinates{Latitude: 10, Longitude: 10})
	require.NoError(t, err)
	assert.Equal(t, "Near 10.000000, 10.000000", address.Street)
}
