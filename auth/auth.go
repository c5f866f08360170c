// Package auth supplies Authorization header values for restbridge
// Configurations. A CredentialSource is consulted once per request, after
// endpoint headers, so an endpoint that sets its own Authorization always
// wins.
//
// Sources:
// - StaticToken: a fixed bearer token.
// - Basic: RFC 7617 user:password credentials.
// - ClientCredentials: the OAuth2 client-credentials grant, caching the
//   token and refetching it on expiry under the caller's context.
// - JWTAssertion: RS256-signed client assertions for token endpoints that
//   require certificate-based authentication.
package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// CredentialSource yields the value of the Authorization header for one
// request, e.g. "Bearer eyJ...".
type CredentialSource interface {
	Authorization(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken struct {
	Token string
}

func (s StaticToken) Authorization(ctx context.Context) (string, error) {
	return "Bearer " + s.Token, nil
}

// Basic holds RFC 7617 basic-auth credentials.
type Basic struct {
	Username string
	Password string
}

func (b Basic) Authorization(ctx context.Context) (string, error) {
	raw := b.Username + ":" + b.Password
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(raw)), nil
}

// ClientCredentials obtains tokens via the OAuth2 client-credentials
// grant. The token is cached and refetched on expiry; each fetch runs
// under the requesting call's context, so the caller's deadline bounds
// the round trip to the token endpoint.
type ClientCredentials struct {
	Config clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClientCredentials builds a ClientCredentials source for the given
// token endpoint.
func NewClientCredentials(clientID, clientSecret, tokenURL string, scopes ...string) *ClientCredentials {
	return &ClientCredentials{
		Config: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
		},
	}
}

func (c *ClientCredentials) Authorization(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.token.Valid() {
		tok, err := c.Config.Token(ctx)
		if err != nil {
			return "", fmt.Errorf("auth: acquiring client-credentials token: %w", err)
		}
		c.token = tok
	}
	return c.token.Type() + " " + c.token.AccessToken, nil
}

// JWTAssertion signs RS256 client assertions. Some token endpoints (Azure
// AD certificate flows among them) accept such an assertion in place of a
// client secret; the signed token can also be sent directly as a bearer
// credential, which is what Authorization does.
type JWTAssertion struct {
	// Issuer, Subject and Audience populate the registered claims. For
	// client-assertion flows issuer and subject are both the client ID
	// and the audience is the token endpoint.
	Issuer   string
	Subject  string
	Audience string

	// Key signs the assertion. KeyID, when set, is emitted as the "kid"
	// header so the server can pick the matching certificate.
	Key   *rsa.PrivateKey
	KeyID string

	// TTL bounds the assertion's validity. Defaults to 5 minutes.
	TTL time.Duration

	// now is swapped in tests.
	now func() time.Time
}

// Sign produces one signed assertion.
func (a *JWTAssertion) Sign() (string, error) {
	if a.Key == nil {
		return "", fmt.Errorf("auth: JWT assertion has no signing key")
	}
	ttl := a.TTL
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	nowFn := a.now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()

	claims := jwt.RegisteredClaims{
		Issuer:    a.Issuer,
		Subject:   a.Subject,
		Audience:  jwt.ClaimStrings{a.Audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        fmt.Sprintf("%d", now.UnixNano()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if a.KeyID != "" {
		token.Header["kid"] = a.KeyID
	}
	signed, err := token.SignedString(a.Key)
	if err != nil {
		return "", fmt.Errorf("auth: signing assertion: %w", err)
	}
	return signed, nil
}

func (a *JWTAssertion) Authorization(ctx context.Context) (string, error) {
	signed, err := a.Sign()
	if err != nil {
		return "", err
	}
	return "Bearer " + signed, nil
}

// ParseRSAPrivateKeyPEM parses a PEM-encoded RSA private key in either
// PKCS#1 or PKCS#8 form.
func ParseRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("auth: no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("auth: parsing private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("auth: PEM block holds a %T, not an RSA key", parsed)
	}
	return key, nil
}
