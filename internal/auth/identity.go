package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/BuzzLyutic/task-registry/internal/model"
)

// ErrInvalidIdentity is returned when an identity is not an encoded ed25519 public key.
var ErrInvalidIdentity = errors.New("invalid identity")

var encoding = base64.RawURLEncoding

// ParseIdentity decodes the public key behind an identity.
func ParseIdentity(id model.Identity) (ed25519.PublicKey, error) {
	raw, err := encoding.DecodeString(string(id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrInvalidIdentity, ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

func IdentityOf(pub ed25519.PublicKey) model.Identity {
	return model.Identity(encoding.EncodeToString(pub))
}

// NewIdentity generates a fresh key pair.
func NewIdentity() (model.Identity, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return "", nil, err
	}
	return IdentityOf(pub), priv, nil
}

// EncodePrivateKey returns the key seed in the identity encoding.
func EncodePrivateKey(priv ed25519.PrivateKey) string {
	return encoding.EncodeToString(priv.Seed())
}

func DecodePrivateKey(s string) (ed25519.PrivateKey, error) {
	seed, err := encoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("decode private key: want %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return ed25519.NewKeyFromSeed(seed), nil
}
