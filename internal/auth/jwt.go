package auth

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/BuzzLyutic/task-registry/internal/model"
)

var (
	// ErrUnauthenticated is returned when the call cannot be attested for the claimed identity.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrExpiredToken is returned when the attestation token has expired.
	ErrExpiredToken = fmt.Errorf("%w: token has expired", ErrUnauthenticated)
	// ErrReplayedToken is returned when a token id has already been accepted once.
	ErrReplayedToken = fmt.Errorf("%w: token already used", ErrUnauthenticated)
)

// Verifier attests that the current invocation was authorized by identity.
type Verifier interface {
	RequireAuth(ctx context.Context, identity model.Identity) error
}

// Config holds attestation settings.
type Config struct {
	Audience string
	Leeway   time.Duration
	TokenTTL time.Duration
}

func DefaultConfig() Config {
	return Config{
		Audience: "task-registry",
		Leeway:   5 * time.Second,
		TokenTTL: 5 * time.Minute,
	}
}

// JWTVerifier accepts a call as identity X when the request carries a JWT
// signed with X's private key (EdDSA) whose subject is X. Each token attests
// exactly one operation: its jti is remembered until the token expires and
// a second use is rejected. The set of used ids is local to the process.
type JWTVerifier struct {
	config Config
	now    func() time.Time

	mu        sync.Mutex
	used      map[string]time.Time // jti -> moment it can be forgotten
	nextPrune time.Time
}

func NewJWTVerifier(config Config) *JWTVerifier {
	return &JWTVerifier{
		config: config,
		now:    time.Now,
		used:   make(map[string]time.Time),
	}
}

func (v *JWTVerifier) RequireAuth(ctx context.Context, identity model.Identity) error {
	tokenString, ok := TokenFromContext(ctx)
	if !ok {
		return fmt.Errorf("%w: no attestation token", ErrUnauthenticated)
	}

	pub, err := ParseIdentity(identity)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithSubject(string(identity)),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(v.config.Leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.config.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.config.Audience))
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return pub, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	if !token.Valid {
		return ErrUnauthenticated
	}
	if claims.ID == "" {
		return fmt.Errorf("%w: token has no id", ErrUnauthenticated)
	}
	return v.consume(claims.ID, claims.ExpiresAt.Time)
}

// consume marks jti as used. Entries are kept until the token could no
// longer pass the expiry check.
func (v *JWTVerifier) consume(jti string, expiresAt time.Time) error {
	now := v.now()

	v.mu.Lock()
	defer v.mu.Unlock()

	if now.After(v.nextPrune) {
		for id, forget := range v.used {
			if now.After(forget) {
				delete(v.used, id)
			}
		}
		v.nextPrune = now.Add(time.Second)
	}

	if _, ok := v.used[jti]; ok {
		return ErrReplayedToken
	}
	v.used[jti] = expiresAt.Add(v.config.Leeway)
	return nil
}

// Signer mints attestation tokens for one identity.
type Signer struct {
	key    ed25519.PrivateKey
	config Config
	now    func() time.Time
}

func NewSigner(key ed25519.PrivateKey, config Config) *Signer {
	return &Signer{
		key:    key,
		config: config,
		now:    time.Now,
	}
}

func (s *Signer) Identity() model.Identity {
	return IdentityOf(s.key.Public().(ed25519.PublicKey))
}

// Token returns a fresh single-use token valid for the configured TTL.
func (s *Signer) Token() (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   string(s.Identity()),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TokenTTL)),
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.key)
}
