package constants

import "time"

const (
	TianGongBridge = "tiangong-oauth2-bridge"

	QueryParamAuthorizationCode = "code"
	QueryParamClientID          = "client_id"
	QueryParamClientSecret      = "client_secret"
	QueryParamRedirectURI       = "redirect_uri"
	QueryParamResponseType      = "response_type"
	QueryParamState             = "state"

	FormParamUsername = "username"
	FormParamPassword = "password"

	TokenTypeBearer = "bearer"

	// AuthorizationCodeTTL is the absolute lifetime of a one-time proxy
	// code in the code store, independent of the subscription tier.
	AuthorizationCodeTTL = 1800 * time.Second

	MessageBasicMember    = "You are a Basic member."
	MessageProMember      = "You are a Pro member."
	MessageNoSubscription = "You do not have a valid subscription."
)
