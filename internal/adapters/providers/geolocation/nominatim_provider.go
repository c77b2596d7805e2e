package geolocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
	apperrors "github.com/civicpulse/reporter/backend/pkg/errors"
)

const (
	nominatimReverseURL    = "https://nominatim.openstreetmap.org/reverse"
	defaultReverseCacheTTL = 60 * 60 * 24 * 30
	defaultHTTPTimeout     = 8 * time.Second
)

// NominatimGeocoder implements ReverseGeocoder against an OpenStreetMap
// Nominatim endpoint
type NominatimGeocoder struct {
	httpClient *http.Client
	cache      providers.CacheProvider
	baseURL    string
	userAgent  string
}

var _ providers.ReverseGeocoder = (*NominatimGeocoder)(nil)

// NewNominatimGeocoder creates a Nominatim reverse geocoder. cache may be nil.
func NewNominatimGeocoder(baseURL, userAgent string, cache providers.CacheProvider, httpClient *http.Client) *NominatimGeocoder {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = nominatimReverseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &NominatimGeocoder{
		httpClient: httpClient,
		cache:      cache,
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		Road          string `json:"road"`
		Pedestrian    string `json:"pedestrian"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		Residential   string `json:"residential"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		Country       string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode resolves the street and neighborhood for a coordinate
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, coords entities.Coordinates) (*providers.Address, error) {
	if !coords.Valid() {
		return nil, apperrors.NewValidationError("coordinate out of range")
	}

	cacheKey := "geo:reverse:" + hashKey(fmt.Sprintf("%.5f,%.5f", coords.Latitude, coords.Longitude))
	if g.cache != nil {
		if cached, err := g.cache.Get(ctx, cacheKey); err == nil && len(cached) > 0 {
			var address providers.Address
			if err := json.Unmarshal(cached, &address); err == nil {
				return &address, nil
			}
		}
	}

	params := url.Values{
		"format":         []string{"json"},
		"lat":            []string{strconv.FormatFloat(coords.Latitude, 'f', -1, 64)},
		"lon":            []string{strconv.FormatFloat(coords.Longitude, 'f', -1, 64)},
		"zoom":           []string{"18"},
		"addressdetails": []string{"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build reverse geocode request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.NewTransportError("reverse geocode request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.NewTransportError(fmt.Sprintf("reverse geocode returned status %d", resp.StatusCode), nil)
	}

	var payload nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, apperrors.NewTransportError("failed to decode reverse geocode response", err)
	}
	if payload.Error != "" {
		return nil, apperrors.NewNotFoundError(payload.Error)
	}

	address := &providers.Address{
		Street:       firstNonEmpty(payload.Address.Road, payload.Address.Pedestrian),
		Neighborhood: firstNonEmpty(payload.Address.Suburb, payload.Address.Neighbourhood, payload.Address.Residential),
		City:         firstNonEmpty(payload.Address.City, payload.Address.Town, payload.Address.Village),
		Country:      payload.Address.Country,
		Coordinates:  coords,
	}

	if g.cache != nil {
		if data, err := json.Marshal(address); err == nil {
			_ = g.cache.Set(ctx, cacheKey, data, defaultReverseCacheTTL)
		}
	}
	return address, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func hashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
