package wix

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/config"
	"github.com/Jinliang-Xie/tiangong-oauth2-bridge/internal/provider"
)

const (
	defaultAPIBaseURL = "https://www.wixapis.com"

	pathLogin           = "/_api/iam/authentication/v2/login"
	pathRedirectSession = "/_api/redirect-session"
	pathToken           = "/oauth2/token"
	pathMemberOrders    = "/pricing-plans/v2/member/orders"

	loginStateSuccess = "SUCCESS"
	orderStatusActive = "ACTIVE"
)

type wixProvider struct {
	clientID   string
	apiBaseURL string
	httpClient *http.Client
}

func New(conf *config.ProviderConfig) (provider.Interface, error) {
	if conf.ClientID == "" {
		return nil, fmt.Errorf("wix provider requires a client ID")
	}
	baseURL := conf.APIBaseURL
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	return &wixProvider{
		clientID:   conf.ClientID,
		apiBaseURL: baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Login implements provider.Interface. It authenticates the member and
// creates a redirect session carrying a PKCE challenge, so the browser
// can land on the provider callback and hand the authorization code
// back to the bridge.
func (w *wixProvider) Login(ctx context.Context, username, password, state string) (*provider.LoginResult, error) {
	sessionToken, err := w.login(ctx, username, password)
	if err != nil {
		return nil, fmt.Errorf("wix login failed: %w", err)
	}

	codeVerifier, err := pkceVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	callbackURL, err := w.createRedirectSession(ctx, sessionToken, pkceS256Challenge(codeVerifier), state)
	if err != nil {
		return nil, fmt.Errorf("wix redirect session failed: %w", err)
	}

	return &provider.LoginResult{
		CallbackURL:  callbackURL,
		CodeVerifier: codeVerifier,
	}, nil
}

// Exchange implements provider.Interface.
func (w *wixProvider) Exchange(ctx context.Context, code, codeVerifier string) (string, error) {
	conf := &oauth2.Config{
		ClientID: w.clientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  w.apiBaseURL + pathToken,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, w.httpClient)
	token, err := conf.Exchange(ctx, code, oauth2.SetAuthURLParam("code_verifier", codeVerifier))
	if err != nil {
		return "", fmt.Errorf("failed to exchange authorization code for member tokens: %w", err)
	}
	return token.AccessToken, nil
}

// Subscription implements provider.Interface. The member's pricing plan
// orders are listed and the first active one decides the tier.
func (w *wixProvider) Subscription(ctx context.Context, memberAccessToken string) (*provider.Subscription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.apiBaseURL+pathMemberOrders, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create member orders request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+memberAccessToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("member orders request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("member orders: %s", resp.Status)
	}

	var payload struct {
		Orders []struct {
			PlanName string    `json:"planName"`
			Status   string    `json:"status"`
			EndDate  time.Time `json:"endDate"`
		} `json:"orders"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("error unmarshaling member orders response: %w", err)
	}

	for _, order := range payload.Orders {
		if order.Status != orderStatusActive {
			continue
		}
		tier := provider.Tier(order.PlanName)
		if !tier.Valid() {
			continue
		}
		expiresIn := int(time.Until(order.EndDate).Seconds())
		if expiresIn < 0 {
			expiresIn = 0
		}
		return &provider.Subscription{Tier: tier, ExpiresIn: expiresIn}, nil
	}
	return &provider.Subscription{Tier: provider.TierNone}, nil
}

func (w *wixProvider) login(ctx context.Context, username, password string) (string, error) {
	reqBody := map[string]any{
		"loginId":  map[string]string{"email": username},
		"password": password,
	}

	var respBody struct {
		State        string `json:"state"`
		SessionToken string `json:"sessionToken"`
	}
	if err := w.postJSON(ctx, pathLogin, reqBody, &respBody); err != nil {
		return "", err
	}
	if respBody.State != loginStateSuccess || respBody.SessionToken == "" {
		return "", fmt.Errorf("login not completed, state: %s", respBody.State)
	}
	return respBody.SessionToken, nil
}

func (w *wixProvider) createRedirectSession(ctx context.Context, sessionToken, codeChallenge, state string) (string, error) {
	reqBody := map[string]any{
		"auth": map[string]any{
			"authRequest": map[string]string{
				"clientId":            w.clientID,
				"codeChallenge":       codeChallenge,
				"codeChallengeMethod": "S256",
				"responseType":        "code",
				"scope":               "offline_access",
				"state":               state,
			},
		},
		"sessionToken": sessionToken,
	}

	var respBody struct {
		RedirectSession struct {
			FullURL string `json:"fullUrl"`
		} `json:"redirectSession"`
	}
	if err := w.postJSON(ctx, pathRedirectSession, reqBody, &respBody); err != nil {
		return "", err
	}
	if respBody.RedirectSession.FullURL == "" {
		return "", fmt.Errorf("redirect session response carries no URL")
	}
	return respBody.RedirectSession.FullURL, nil
}

func (w *wixProvider) postJSON(ctx context.Context, path string, reqBody, respBody any) error {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.apiBaseURL+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", path, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("error unmarshaling response from %s: %w", path, err)
	}
	return nil
}
