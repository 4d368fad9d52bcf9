package provider

import "context"

// Tier is the subscription level reported by the membership provider.
// Anything outside Basic and Pro is treated as no valid subscription.
type Tier string

const (
	TierBasic Tier = "Basic"
	TierPro   Tier = "Pro"
	TierNone  Tier = "None"
)

func (t Tier) Valid() bool {
	return t == TierBasic || t == TierPro
}

// LoginResult is the outcome of a member login: the provider-issued
// callback URL the browser must visit to complete the authorization,
// and the PKCE code verifier that unlocks the later code exchange.
type LoginResult struct {
	CallbackURL  string
	CodeVerifier string
}

// Subscription is the outcome of a subscription lookup for a member.
type Subscription struct {
	Tier      Tier
	ExpiresIn int
}

type Interface interface {
	// Login authenticates a member with the provider and starts an
	// authorization redirect session bound to state.
	Login(ctx context.Context, username, password, state string) (*LoginResult, error)

	// Exchange trades a provider-issued authorization code plus the
	// PKCE code verifier for a member access token.
	Exchange(ctx context.Context, code, codeVerifier string) (string, error)

	// Subscription looks up the member's subscription with the access
	// token obtained from Exchange.
	Subscription(ctx context.Context, memberAccessToken string) (*Subscription, error)
}
