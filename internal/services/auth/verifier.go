// Package auth verifies bearer tokens issued by the external identity
// provider. Users are not stored; the token subject is the user id.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/benvon/selfspeak/internal/models"
)

var (
	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")
	// ErrNoKey is returned when the token's algorithm has no configured key.
	ErrNoKey = errors.New("no verification key for token algorithm")
)

// Config selects the verification keys and claim checks.
type Config struct {
	Secret    string // HS256 shared secret, as issued by Supabase
	JWKSURL   string // key set for asymmetric tokens
	Issuer    string
	Audience  string
	CacheSize int
	CacheTTL  time.Duration
}

type cachedClaims struct {
	claims  *models.JWTClaims
	expires time.Time
}

// Verifier verifies JWT tokens and caches the claims of valid ones
type Verifier struct {
	secret   []byte
	jwks     *JWKSManager
	issuer   string
	audience string
	cache    *expirable.LRU[string, cachedClaims]
	now      func() time.Time
}

// NewVerifier creates a verifier. At least one of Secret and JWKSURL must be set.
func NewVerifier(cfg Config) (*Verifier, error) {
	if cfg.Secret == "" && cfg.JWKSURL == "" {
		return nil, errors.New("a token secret or JWKS URL is required")
	}
	if cfg.CacheSize < 1 {
		cfg.CacheSize = 1024
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}

	v := &Verifier{
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
		cache:    expirable.NewLRU[string, cachedClaims](cfg.CacheSize, nil, cfg.CacheTTL),
		now:      time.Now,
	}
	if cfg.Secret != "" {
		v.secret = []byte(cfg.Secret)
	}
	if cfg.JWKSURL != "" {
		v.jwks = NewJWKSManager(cfg.JWKSURL, 0)
	}
	return v, nil
}

// Verify verifies a JWT token and extracts claims. Claims are served from
// cache until the earlier of the cache TTL and the token's expiry.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*models.JWTClaims, error) {
	key := cacheKey(tokenString)
	if hit, ok := v.cache.Get(key); ok {
		if v.now().Before(hit.expires) {
			return hit.claims, nil
		}
		v.cache.Remove(key)
	}

	opts, err := v.parseOptions(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	token, err := jwt.Parse([]byte(tokenString), opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if token.Subject() == "" {
		return nil, fmt.Errorf("%w: token missing subject claim", ErrInvalidToken)
	}

	claims := extractClaims(token)
	if !token.Expiration().IsZero() {
		v.cache.Add(key, cachedClaims{claims: claims, expires: token.Expiration()})
	}
	return claims, nil
}

func (v *Verifier) parseOptions(ctx context.Context, tokenString string) ([]jwt.ParseOption, error) {
	msg, err := jws.Parse([]byte(tokenString))
	if err != nil || len(msg.Signatures()) == 0 {
		return nil, fmt.Errorf("%w: malformed token", ErrInvalidToken)
	}
	alg := msg.Signatures()[0].ProtectedHeaders().Algorithm()

	opts := []jwt.ParseOption{
		jwt.WithValidate(true),
		jwt.WithClock(jwt.ClockFunc(v.now)),
		jwt.WithAcceptableSkew(30 * time.Second),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	switch {
	case alg == jwa.HS256 && v.secret != nil:
		opts = append(opts, jwt.WithKey(jwa.HS256, v.secret))
	case alg != jwa.HS256 && v.jwks != nil:
		keys, err := v.jwks.GetJWKS(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, jwt.WithKeySet(keys))
	default:
		return nil, fmt.Errorf("%w: %s", ErrNoKey, alg)
	}
	return opts, nil
}

func extractClaims(token jwt.Token) *models.JWTClaims {
	claims := &models.JWTClaims{
		Sub: token.Subject(),
		Iss: token.Issuer(),
		Exp: token.Expiration().Unix(),
		Iat: token.IssuedAt().Unix(),
	}
	if aud := token.Audience(); len(aud) > 0 {
		claims.Aud = aud[0]
	}
	if email, ok := token.Get("email"); ok {
		if emailStr, ok := email.(string); ok {
			claims.Email = emailStr
		}
	}
	if role, ok := token.Get("role"); ok {
		if roleStr, ok := role.(string); ok {
			claims.Role = roleStr
		}
	}
	return claims
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
