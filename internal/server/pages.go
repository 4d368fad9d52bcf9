package server

import (
	_ "embed"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/logging"
)

//go:embed login.html
var loginPage string

//go:embed callback.html
var callbackPage string

func respondLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(loginPage)); err != nil {
		logging.FromRequest(r).WithError(err).Error("failed to write login page")
	}
}

func respondCallbackPage(w http.ResponseWriter, r *http.Request, providerCallbackURL string) {
	// The URL is embedded as a JSON string literal so the page script
	// receives it byte-exact.
	b, err := json.Marshal(providerCallbackURL)
	if err != nil {
		logging.FromRequest(r).WithError(err).Error("failed to marshal provider callback URL")
		http.Error(w, "Failed to render callback page", http.StatusInternalServerError)
		return
	}

	page := strings.ReplaceAll(callbackPage, "PROVIDER_CALLBACK_URL", string(b))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(page)); err != nil {
		logging.FromRequest(r).WithError(err).Error("failed to write callback page")
	}
}
