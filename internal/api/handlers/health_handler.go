package handlers

import (
	"net/http"
	"time"
)

var timeNow = time.Now

// Health handles GET /health
func Health(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   timeNow().UTC().Format(time.RFC3339),
	})
}
