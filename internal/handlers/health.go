package handlers

import "net/http"

// Healthz is a liveness probe.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Health reports API status for the frontend.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "OK", Message: "server online"})
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
