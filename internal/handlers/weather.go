package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"rain-check/internal/api"
	"rain-check/internal/models"
	"rain-check/internal/services"
)

const (
	detailWeatherFetch = "Error fetching weather data"
	detailWeatherParse = "Error parsing weather data: "
	detailNoValidReply = "Failed to get valid percentage response from the language model"
	detailInternal     = "Internal server error"
)

type WeatherChecker interface {
	Check(ctx context.Context, coord models.Coordinate) (string, error)
}

type WeatherCheckHandler struct {
	checker    WeatherChecker
	defaultLat *float64
	defaultLon *float64
}

// NewWeatherCheckHandler builds the handler. When both defaults are non-nil
// they replace omitted lat/lon parameters; otherwise both are required.
func NewWeatherCheckHandler(checker WeatherChecker, defaultLat, defaultLon *float64) *WeatherCheckHandler {
	h := &WeatherCheckHandler{checker: checker}
	if defaultLat != nil && defaultLon != nil {
		h.defaultLat, h.defaultLon = defaultLat, defaultLon
	}
	return h
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, models.ErrorResponse{Detail: detail})
}

func (h *WeatherCheckHandler) WeatherCheck(w http.ResponseWriter, r *http.Request) {
	lat, ok := h.coordinateParam(w, r, "lat", h.defaultLat)
	if !ok {
		return
	}
	lon, ok := h.coordinateParam(w, r, "lon", h.defaultLon)
	if !ok {
		return
	}
	coord := models.Coordinate{Latitude: lat, Longitude: lon}

	reply, err := h.checker.Check(r.Context(), coord)
	if err != nil {
		status, detail := mapError(err)
		slog.Error("weather check failed", "lat", lat, "lon", lon, "status", status, "error", err)
		writeDetail(w, status, detail)
		return
	}

	// The service only returns validated replies; this guards the response contract.
	if !services.IsValidPercentage(reply) {
		slog.Error("refusing to return unvalidated reply", "reply", reply)
		writeDetail(w, http.StatusInternalServerError, detailNoValidReply)
		return
	}

	writeJSON(w, http.StatusOK, models.RainCheckResponse{RainPercentage: strings.TrimSpace(reply)})
}

func (h *WeatherCheckHandler) coordinateParam(w http.ResponseWriter, r *http.Request, name string, fallback *float64) (float64, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		if fallback != nil {
			return *fallback, true
		}
		writeDetail(w, http.StatusUnprocessableEntity, "query parameter '"+name+"' is required")
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid query parameter '"+name+"'")
		return 0, false
	}
	return v, true
}

// mapError converts service errors into a status code and a caller-safe
// message. Raw model output never ends up in the message.
func mapError(err error) (int, string) {
	var (
		upstream  *api.UpstreamStatusError
		malformed *api.MalformedPayloadError
		transport *api.TransportError
		noValid   *services.NoValidReplyError
	)
	switch {
	case errors.As(err, &upstream):
		return upstream.StatusCode, detailWeatherFetch
	case errors.As(err, &malformed):
		return http.StatusInternalServerError, detailWeatherParse + malformed.Detail
	case errors.As(err, &noValid):
		return http.StatusInternalServerError, detailNoValidReply
	case errors.As(err, &transport):
		return http.StatusBadGateway, detailWeatherFetch
	default:
		return http.StatusInternalServerError, detailInternal
	}
}
