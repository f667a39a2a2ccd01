package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/yeojun7429/portfolio-api/internal/middleware"
	"github.com/yeojun7429/portfolio-api/internal/weather"
)

// WeatherHandler serves current weather for a coordinate pair
type WeatherHandler struct {
	client *weather.Client
}

// NewWeatherHandler creates a new weather handler
func NewWeatherHandler(client *weather.Client) *WeatherHandler {
	return &WeatherHandler{client: client}
}

// RegisterRoutes registers weather routes
func (h *WeatherHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.GetCurrent).Methods("GET")
}

// GetCurrent returns current conditions for ?lat=&lon=
func (h *WeatherHandler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid or missing lat parameter")
		return
	}
	lon, err := strconv.ParseFloat(r.URL.Query().Get("lon"), 64)
	if err != nil || lon < -180 || lon > 180 {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Invalid or missing lon parameter")
		return
	}

	report, err := h.client.Current(r.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, weather.ErrMissingAPIKey) {
			respondJSONError(w, http.StatusServiceUnavailable, "Service Unavailable", "Weather service is not configured")
			return
		}
		respondJSONError(w, http.StatusBadGateway, "Bad Gateway", "Failed to fetch weather")
		return
	}

	respondJSON(w, http.StatusOK, report)
}
