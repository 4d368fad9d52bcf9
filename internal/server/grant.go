package server

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/constants"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/provider"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/session"
)

// grantErrorKind distinguishes failure classes inside the callback
// step for logging. The response to the caller is the same fallback
// payload for every kind.
type grantErrorKind string

const (
	grantErrorSession  grantErrorKind = "session"
	grantErrorProvider grantErrorKind = "provider"
	grantErrorStore    grantErrorKind = "store"
)

type grantError struct {
	kind grantErrorKind
	err  error
}

func (e *grantError) Error() string {
	return fmt.Sprintf("%s: %v", e.kind, e.err)
}

func (e *grantError) Unwrap() error {
	return e.err
}

// grantResult is the JSON payload of the callback step: a tier message
// and the URL the browser should be sent to next.
type grantResult struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// completeGrant runs the final transition of the authorization flow:
// it exchanges the provider code for a member token, looks up the
// subscription, mints the one-time proxy code and stores it under the
// provider-reported expiry. The code occupies a store slot even when
// the tier is invalid, so the redemption endpoint's lookup is uniform.
func (a *api) completeGrant(ctx context.Context, sess *session.Data, providerCode string) (*grantResult, error) {
	state, redirectURI := sess.State, sess.RedirectURI
	if state == "" || redirectURI == "" {
		return nil, &grantError{grantErrorSession, fmt.Errorf("missing state or redirect_uri in session")}
	}

	proxyCode := uuid.NewString()
	redirectURL := redirectURI + "?state=" + state + "&code=" + proxyCode

	memberAccessToken, err := a.provider.Exchange(ctx, providerCode, sess.CodeVerifier)
	if err != nil {
		return nil, &grantError{grantErrorProvider, err}
	}

	sub, err := a.provider.Subscription(ctx, memberAccessToken)
	if err != nil {
		return nil, &grantError{grantErrorProvider, err}
	}

	if err := a.store.Put(ctx, proxyCode, sub.ExpiresIn, constants.AuthorizationCodeTTL); err != nil {
		return nil, &grantError{grantErrorStore, err}
	}

	switch sub.Tier {
	case provider.TierBasic:
		return &grantResult{Message: constants.MessageBasicMember, URL: redirectURL}, nil
	case provider.TierPro:
		return &grantResult{Message: constants.MessageProMember, URL: redirectURL}, nil
	default:
		return a.fallbackGrant(), nil
	}
}

// fallbackGrant is the uniform "no valid subscription" response. It
// discards the consumer's redirect_uri entirely.
func (a *api) fallbackGrant() *grantResult {
	return &grantResult{
		Message: constants.MessageNoSubscription,
		URL:     a.conf.Bridge.FallbackURL,
	}
}
