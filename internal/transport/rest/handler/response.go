package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"stylequiz/internal/poller"
	"stylequiz/internal/service"
)

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeServiceError maps service and poller errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] ERROR: %v", err)
		message = "internal server error"
	} else if status >= 500 {
		_, message = service.Classify(err)
	}
	writeError(w, status, message)
}

// StatusFor returns the HTTP status for err
func StatusFor(err error) int {
	var remote *poller.RemoteError
	var transport *poller.TransportError
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrJobNotFound),
		errors.Is(err, service.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrUnknownQuestion),
		errors.Is(err, service.ErrInvalidOption),
		errors.Is(err, service.ErrNoPhotos),
		errors.Is(err, service.ErrUnknownStep),
		errors.Is(err, service.ErrMissingURL),
		errors.Is(err, service.ErrNoColorResults):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrResultNotReady):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, poller.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case poller.IsTimeout(err):
		return http.StatusGatewayTimeout
	case errors.As(err, &remote), poller.IsProtocol(err), errors.As(err, &transport):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
