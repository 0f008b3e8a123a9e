package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrStateExpired = errors.New("oauth state expired")
	ErrStateInvalid = errors.New("oauth state invalid")
)

// StatePayload is the OAuth flow context carried inside a signed state
// token. The PKCE verifier rides along for providers that require it,
// so no server-side session is needed between authorize and callback.
type StatePayload struct {
	UserID       string `json:"uid"`
	Provider     string `json:"prv"`
	CodeVerifier string `json:"cv,omitempty"`
}

type stateClaims struct {
	StatePayload
	jwt.RegisteredClaims
}

// stateKey derives a per-provider signing key so a state issued for one
// provider can never verify for another.
func stateKey(secret, provider string) []byte {
	return []byte(secret + ":" + provider + "-oauth-state")
}

func IssueStateToken(secret string, payload StatePayload, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("STATE_SIGNING_SECRET is required")
	}

	now := time.Now()
	claims := stateClaims{
		StatePayload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(stateKey(secret, payload.Provider))
}

// VerifyStateToken checks signature and expiry under the given
// provider's salt. Expiry and tampering are distinguishable outcomes.
func VerifyStateToken(secret, provider, tokenString string) (*StatePayload, error) {
	if secret == "" {
		return nil, errors.New("STATE_SIGNING_SECRET is required")
	}

	token, err := jwt.ParseWithClaims(tokenString, &stateClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrStateInvalid
		}
		return stateKey(secret, provider), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrStateExpired
		}
		return nil, ErrStateInvalid
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid || claims.Provider != provider {
		return nil, ErrStateInvalid
	}
	return &claims.StatePayload, nil
}
