package signing

import (
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"xdao.co/hashit/digest"
)

var sealSalt = []byte("xdao-hashit-seal-v1")

// DeriveSeed expands rootSeed into a purpose-bound Ed25519 seed with
// HKDF-SHA256. Equal inputs give equal seeds; distinct purposes give
// unrelated ones.
func DeriveSeed(rootSeed []byte, purpose string) ([]byte, error) {
	if len(rootSeed) != ed25519.SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", ed25519.SeedSize)
	}
	if purpose == "" {
		return nil, fmt.Errorf("purpose is required")
	}
	seed := make([]byte, ed25519.SeedSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, rootSeed, sealSalt, []byte(purpose)), seed); err != nil {
		return nil, fmt.Errorf("derive seed: %w", err)
	}
	return seed, nil
}

// SealEd25519Derived signs fp with the Ed25519 key derived from rootSeed for
// purpose. The seal verifies with Verify like any other Ed25519 seal.
func SealEd25519Derived(fp digest.Fingerprint, hashAlg string, rootSeed []byte, purpose string) (Seal, error) {
	seed, err := DeriveSeed(rootSeed, purpose)
	if err != nil {
		return Seal{}, err
	}
	return SealEd25519(fp, hashAlg, ed25519.NewKeyFromSeed(seed))
}
