package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/civicpulse/reporter/backend/internal/domain/entities"
	"github.com/civicpulse/reporter/backend/internal/domain/providers"
)

// GeolocationHandler handles reverse geocoding for the report form
type GeolocationHandler struct {
	geocoder providers.ReverseGeocoder
}

// NewGeolocationHandler creates a new geolocation handler
func NewGeolocationHandler(geocoder providers.ReverseGeocoder) *GeolocationHandler {
	return &GeolocationHandler{geocoder: geocoder}
}

type reverseGeocodeResponse struct {
	Street       string               `json:"street"`
	Neighborhood string               `json:"neighborhood"`
	Label        string               `json:"label"`
	Formatted    string               `json:"formatted"`
	Coordinates  entities.Coordinates `json:"coordinates"`
}

// ReverseGeocode handles GET /api/geocode/reverse?lat=...&lng=...
func (h *GeolocationHandler) ReverseGeocode(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	lngParam := query.Get("lng")
	if lngParam == "" {
		lngParam = query.Get("lon")
	}
	latStr := strings.TrimSpace(query.Get("lat"))
	lngStr := strings.TrimSpace(lngParam)
	if latStr == "" || lngStr == "" {
		respondWithError(w, http.StatusBadRequest, "lat and lng parameters are required")
		return
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lat parameter")
		return
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid lng parameter")
		return
	}

	coords := entities.Coordinates{Latitude: lat, Longitude: lng}
	if !coords.Valid() {
		respondWithError(w, http.StatusBadRequest, "coordinates out of range")
		return
	}

	resp := reverseGeocodeResponse{
		Street:      providers.UnknownLocationLabel,
		Label:       providers.UnknownLocationLabel,
		Formatted:   fmt.Sprintf("%.6f, %.6f", lat, lng),
		Coordinates: coords,
	}

	address, err := h.geocoder.ReverseGeocode(r.Context(), coords)
	if err != nil {
		log.Warn().Err(err).Str("coords", coords.String()).Msg("reverse geocoding failed")
		respondWithJSON(w, http.StatusOK, resp)
		return
	}

	if address.Street != "" {
		resp.Street = address.Street
	}
	resp.Neighborhood = address.Neighborhood
	resp.Label = address.Label()
	respondWithJSON(w, http.StatusOK, resp)
}
