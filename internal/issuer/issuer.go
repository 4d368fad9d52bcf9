package issuer

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/sirupsen/logrus"
)

const (
	// maxTokenDuration caps the lifetime of issued bearer tokens even
	// when the stored subscription expiry is longer.
	maxTokenDuration = time.Hour
)

func Algorithm() jwa.SignatureAlgorithm { return jwa.RS256() }

// Issuer mints bearer tokens bound to the redeeming consumer and the
// stored subscription expiry. It is only exercised when the bridge
// runs with tokenMode jwt; the static token mode bypasses it.
type Issuer interface {
	Issue(iss, sub, aud string, now time.Time, expiresIn int) (string, time.Time, error)
	Verify(bearerToken string, now time.Time, iss, aud string) bool
	PublicKeys(now time.Time) []jwk.Key
}

type tokenIssuer struct{ privateKeySource }

func New() Issuer {
	return &tokenIssuer{&automaticPrivateKeySource{}}
}

func (t *tokenIssuer) Issue(iss, sub, aud string, now time.Time, expiresIn int) (string, time.Time, error) {
	cur, err := t.current(now)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to get current private key: %w", err)
	}
	keyID, ok := cur.KeyID()
	if !ok {
		return "", time.Time{}, fmt.Errorf("private key has no key ID")
	}

	duration := time.Duration(expiresIn) * time.Second
	if duration <= 0 || duration > maxTokenDuration {
		duration = maxTokenDuration
	}
	exp := now.Add(duration)

	tok, err := jwt.NewBuilder().
		Issuer(iss).
		Subject(sub).
		Audience([]string{aud}).
		Expiration(exp).
		NotBefore(now).
		IssuedAt(now).
		JwtID(uuid.NewString()).
		Build()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to build token: %w", err)
	}

	b, err := jwt.Sign(tok, jwt.WithKey(Algorithm(), cur))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	logrus.WithField("token", logrus.Fields{
		jwk.KeyIDKey: keyID,
		"sub":        sub,
		"exp":        exp,
	}).Info("token issued")

	return string(b), exp, nil
}

func (t *tokenIssuer) Verify(bearerToken string, now time.Time, iss, aud string) bool {
	for _, key := range t.publicKeys(now) {

		token, err := jwt.ParseString(bearerToken,
			jwt.WithKey(Algorithm(), key),
			jwt.WithIssuer(iss),
			jwt.WithAudience(aud))
		if err != nil {
			continue
		}

		if exp, ok := token.Expiration(); !ok || now.After(exp) {
			continue
		}

		return true
	}
	return false
}

func (t *tokenIssuer) PublicKeys(now time.Time) []jwk.Key {
	return t.publicKeys(now)
}
