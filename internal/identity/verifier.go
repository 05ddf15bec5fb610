// Package identity verifies bearer credentials issued by the external
// identity authority. Every call verifies from scratch; results are never
// cached between requests.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgrijalva/jwt-go"

	"tiffin/internal/apperr"
)

// Identity is a verified caller.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
}

// Verifier turns a raw credential into a verified identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// Options configure a JWTVerifier.
type Options struct {
	Issuer     string
	Audience   string
	HMACSecret []byte
	Keys       KeySource
}

// JWTVerifier checks signed JWTs. RS256 tokens are verified against the key
// source by "kid"; HS256 is accepted only when a shared secret is set.
type JWTVerifier struct {
	issuer   string
	audience string
	secret   []byte
	keys     KeySource
}

// NewJWTVerifier returns an error when no signature check is possible.
func NewJWTVerifier(opts Options) (*JWTVerifier, error) {
	if len(opts.HMACSecret) == 0 && opts.Keys == nil {
		return nil, fmt.Errorf("identity verifier needs an HMAC secret or a key source")
	}
	return &JWTVerifier{
		issuer:   opts.Issuer,
		audience: opts.Audience,
		secret:   opts.HMACSecret,
		keys:     opts.Keys,
	}, nil
}

// Verify parses and validates token.
func (v *JWTVerifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, apperr.New(apperr.KindInvalidCredential, "Credential is empty")
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.keyFor(ctx, t)
	})
	if err != nil {
		return nil, classify(err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, apperr.New(apperr.KindInvalidCredential, "Invalid credential")
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return nil, apperr.New(apperr.KindInvalidCredential, "Credential issuer mismatch")
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return nil, apperr.New(apperr.KindInvalidCredential, "Credential audience mismatch")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, apperr.New(apperr.KindInvalidCredential, "Credential has no subject")
	}
	email, _ := claims["email"].(string)
	verified, _ := claims["email_verified"].(bool)

	return &Identity{Subject: sub, Email: email, EmailVerified: verified}, nil
}

func (v *JWTVerifier) keyFor(ctx context.Context, t *jwt.Token) (interface{}, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodRSA:
		if v.keys == nil {
			return nil, errUnsupportedAlg
		}
		kid, _ := t.Header["kid"].(string)
		key, err := v.keys.PublicKey(ctx, kid)
		if err != nil {
			return nil, err
		}
		return key, nil
	case *jwt.SigningMethodHMAC:
		if len(v.secret) == 0 || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errUnsupportedAlg
		}
		return v.secret, nil
	default:
		return nil, errUnsupportedAlg
	}
}

var errUnsupportedAlg = errors.New("unsupported signing algorithm")

// classify maps jwt-go failures onto the credential error kinds.
func classify(err error) error {
	var ve *jwt.ValidationError
	if !errors.As(err, &ve) {
		return apperr.Wrap(apperr.KindInvalidCredential, err, "Invalid credential")
	}
	var unavailable *UnavailableError
	if errors.As(ve.Inner, &unavailable) {
		return apperr.Wrap(apperr.KindVerificationUnavailable, unavailable, "Identity authority unavailable")
	}
	// Expiry only counts when it is the sole problem, i.e. the signature held.
	if ve.Errors == jwt.ValidationErrorExpired {
		return apperr.Wrap(apperr.KindExpiredCredential, err, "Token has expired. Please log in again.")
	}
	return apperr.Wrap(apperr.KindInvalidCredential, err, "Invalid credential")
}
