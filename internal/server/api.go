package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/config"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/constants"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/issuer"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/logging"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/provider"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/session"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/store"
)

const (
	// Browser-facing authorization flow.
	pathLogin    = "/login/"
	pathCallback = "/callback/"

	// Consumer-facing token redemption.
	pathAuthorization = "/authorization/"

	// Public keys for tokenMode jwt.
	pathJWKS = "/jwks"
)

type api struct {
	issuer   issuer.Issuer
	provider provider.Interface
	conf     *config.Config
	store    store.CodeStore
	nowFunc  func() time.Time
}

func newAPI(ti issuer.Issuer, p provider.Interface, conf *config.Config,
	st store.CodeStore, sessions *session.Manager, nowFunc func() time.Time) http.Handler {

	a := &api{
		issuer:   ti,
		provider: p,
		conf:     conf,
		store:    st,
		nowFunc:  nowFunc,
	}

	mux := http.NewServeMux()

	mux.Handle(pathLogin, sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			a.handleLoginPage(w, r)
		case http.MethodPost:
			a.handleLoginSubmit(w, r)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})))

	mux.Handle(pathCallback, sessions.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			a.handleCallbackPage(w, r)
		case http.MethodPost:
			a.handleCallbackSubmit(w, r)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})))

	mux.HandleFunc(pathAuthorization, a.handleAuthorization)

	mux.HandleFunc(pathJWKS, func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]any{
			"keys": a.issuer.PublicKeys(nowFunc()),
		})
	})

	return mux
}

// handleLoginPage seeds the session with the consumer's OAuth request
// parameters and renders the member login form. All four parameters
// are required; a missing one is a request-validation failure.
func (a *api) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	for _, name := range []string{
		constants.QueryParamResponseType,
		constants.QueryParamClientID,
		constants.QueryParamState,
		constants.QueryParamRedirectURI,
	} {
		if q.Get(name) == "" {
			http.Error(w, "Missing required query parameter: "+name, http.StatusUnprocessableEntity)
			return
		}
	}

	sess := session.FromRequest(r)
	sess.ResponseType = q.Get(constants.QueryParamResponseType)
	sess.ClientID = q.Get(constants.QueryParamClientID)
	sess.State = q.Get(constants.QueryParamState)
	sess.RedirectURI = q.Get(constants.QueryParamRedirectURI)

	respondLoginPage(w, r)
}

// handleLoginSubmit performs the provider login and stores the
// resulting callback URL and code verifier in the session, then sends
// the browser to the local callback step.
func (a *api) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	l := logging.FromRequest(r)

	if err := r.ParseForm(); err != nil {
		l.WithError(err).Error("failed to parse form")
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	username := r.FormValue(constants.FormParamUsername)
	password := r.FormValue(constants.FormParamPassword)
	if username == "" || password == "" {
		http.Error(w, "Missing username or password", http.StatusUnprocessableEntity)
		return
	}

	sess := session.FromRequest(r)
	res, err := a.provider.Login(r.Context(), username, password, sess.State)
	if err != nil {
		l.WithError(err).Error("provider login failed")
		respondJSON(w, r, http.StatusOK, a.fallbackGrant())
		return
	}

	sess.ProviderCallbackURL = res.CallbackURL
	sess.CodeVerifier = res.CodeVerifier

	http.Redirect(w, r, pathCallback, http.StatusSeeOther)
}

// handleCallbackPage renders the page that forwards the browser to the
// provider callback URL and relays the provider-issued code back to
// the bridge.
func (a *api) handleCallbackPage(w http.ResponseWriter, r *http.Request) {
	sess := session.FromRequest(r)
	respondCallbackPage(w, r, sess.ProviderCallbackURL)
}

// handleCallbackSubmit mints the one-time proxy code. Every internal
// failure collapses to the fallback payload; the kind tag only feeds
// the logs.
func (a *api) handleCallbackSubmit(w http.ResponseWriter, r *http.Request) {
	l := logging.FromRequest(r)

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		l.WithError(err).Error("failed to parse request body as JSON")
		respondJSON(w, r, http.StatusOK, a.fallbackGrant())
		return
	}

	sess := session.FromRequest(r)
	result, err := a.completeGrant(r.Context(), sess, req.Code)
	if err != nil {
		entry := l.WithError(err)
		var gerr *grantError
		if errors.As(err, &gerr) {
			entry = entry.WithField("kind", string(gerr.kind))
		}
		entry.Error("authorization grant failed")
		respondJSON(w, r, http.StatusOK, a.fallbackGrant())
		return
	}

	respondJSON(w, r, http.StatusOK, result)
}

// handleAuthorization redeems a one-time proxy code for a bearer
// token. Credential mismatch, a missing or expired code and a store
// failure are indistinguishable to the caller.
func (a *api) handleAuthorization(w http.ResponseWriter, r *http.Request) {
	l := logging.FromRequest(r)

	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		l.WithError(err).Error("failed to parse form")
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	clientID := r.FormValue(constants.QueryParamClientID)
	clientSecret := r.FormValue(constants.QueryParamClientSecret)
	code := r.FormValue(constants.QueryParamAuthorizationCode)

	expiresIn, ok, err := a.store.Get(r.Context(), code)
	if err != nil {
		// Fail closed: an unreachable store never grants access.
		l.WithError(err).Error("code store lookup failed")
		respondUnauthorized(w)
		return
	}

	if clientID != a.conf.Bridge.ClientID || clientSecret != a.conf.Bridge.ClientSecret || !ok {
		respondUnauthorized(w)
		return
	}

	accessToken := a.conf.Bridge.AccessToken
	if a.conf.Bridge.TokenMode == config.TokenModeJWT {
		now := a.nowFunc()
		token, exp, err := a.issuer.Issue(baseURL(r), clientID, baseURL(r), now, expiresIn)
		if err != nil {
			l.WithError(err).Error("failed to issue access token")
			http.Error(w, "Failed to issue access token", http.StatusInternalServerError)
			return
		}
		accessToken = token
		expiresIn = int(exp.Sub(now).Seconds())
	}

	respondJSON(w, r, http.StatusOK, map[string]any{
		"access_token": accessToken,
		"token_type":   constants.TokenTypeBearer,
		"expires_in":   expiresIn,
	})
}
