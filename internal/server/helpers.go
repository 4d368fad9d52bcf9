package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/logging"
)

func baseURL(r *http.Request) string {
	return fmt.Sprintf("https://%s", r.Host)
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromRequest(r).WithError(err).Error("failed to write response")
	}
}

func respondUnauthorized(w http.ResponseWriter) {
	http.Error(w, "Invalid or missing token", http.StatusUnauthorized)
}
