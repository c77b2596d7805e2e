package geolocation

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("miss")
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error { return nil }

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }

func (c *memoryCache) Increment(ctx context.Context, key string, expirationSeconds int) (int64, error) {
	return 0, nil
}

func TestNominatimGeocoder_ReverseGeocode(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "42.6629", r.URL.Query().Get("lat"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"address":{"pedestrian":"Sheshi Nëna Terezë","neighbourhood":"Qendra","city":"Prishtina","country":"Kosovo"}}`))
	}))
	defer server.Close()

	geocoder := NewNominatimGeocoder(server.URL, "test-agent", newMemoryCache(), server.Client())
	coords := entities.Coordinates{Latitude: 42.6629, Longitude: 21.1655}

	address, err := geocoder.ReverseGeocode(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, "Sheshi Nëna Terezë", address.Street)
	assert.Equal(t, "Qendra", address.Neighborhood)
	assert.Equal(t, "Sheshi Nëna Terezë, Qendra", address.Label())

	_, err = geocoder.ReverseGeocode(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNominatimGeocoder_UpstreamFailureIsTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	geocoder := NewNominatimGeocoder(server.URL, "", nil, server.Client())
	_, err := geocoder.ReverseGeocode(context.Background(), entities.Coordinates{Latitude: 1, Longitude: 1})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransport))
}

func TestNominatimGeocoder_RejectsInvalidCoordinate(t *testing.T) {
	geocoder := NewNominatimGeocoder("http://unused.invalid", "", nil, nil)
	_, err := geocoder.ReverseGeocode(context.Background(), entities.Coordinates{Latitude: 91})

	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}
