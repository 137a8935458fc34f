package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
)

// KeyPair is the asymmetric identity generated at signup. The hex of the
// public half is the identity handle everything else keys on; the private
// half stays with the client and never reaches a store.
type KeyPair struct {
	PublicKeyHex string
	Private      ed25519.PrivateKey
}

// NewKeyPair generates a fresh ed25519 keypair from the system CSPRNG.
func NewKeyPair() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, err
	}
	return KeyPair{
		PublicKeyHex: hex.EncodeToString(pub),
		Private:      priv,
	}, nil
}
