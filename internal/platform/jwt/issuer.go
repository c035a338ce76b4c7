package jwtmw

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// UserTokenTTL is the lifetime of tokens issued by register and login.
	UserTokenTTL = 30 * 24 * time.Hour
	// AdminTokenTTL is the lifetime of tokens issued by admin login.
	AdminTokenTTL = 24 * time.Hour
)

var (
	// ErrMissingSecret is returned when no signing secret is configured.
	// The issuer refuses to exist without one.
	ErrMissingSecret = errors.New("jwt signing secret is not configured")

	ErrTokenMalformed        = errors.New("token is malformed")
	ErrTokenInvalidSignature = errors.New("token signature is invalid")
	ErrTokenExpired          = errors.New("token has expired")
)

// Claims is the signed claim set: subject id, role, issued-at and expiry.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with a process-wide secret.
// There is no revocation list: a token stays valid until it expires.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		i.now = now
	}
}

// NewIssuer creates an Issuer. It fails with ErrMissingSecret for an empty secret.
func NewIssuer(secret string, opts ...Option) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	i := &Issuer{
		secret: []byte(secret),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue signs a token for subjectID and role that expires after ttl.
func (i *Issuer) Issue(subjectID, role string, ttl time.Duration) (string, error) {
	if subjectID == "" || role == "" {
		return "", fmt.Errorf("failed to sign token: subject and role are required")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("failed to sign token: ttl must be positive, got %v", ttl)
	}

	// NumericDate has whole-second precision; exp must equal iat + ttl.
	now := i.now().Truncate(time.Second)
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry of tokenStr and returns its claims.
// The error is one of ErrTokenMalformed, ErrTokenInvalidSignature or ErrTokenExpired.
// A token is accepted up to and including the second of its expiry.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, ErrTokenMalformed
	}

	claims := &Claims{}
	// Expiry is checked below against the issuer clock, so the library's
	// own claims validation is turned off.
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, classify(err)
	}
	if !token.Valid {
		return nil, ErrTokenInvalidSignature
	}

	if claims.Subject == "" || claims.Role == "" || claims.ExpiresAt == nil {
		return nil, ErrTokenMalformed
	}
	// Compared at the whole-second precision of NumericDate.
	if i.now().Truncate(time.Second).After(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrTokenInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}
