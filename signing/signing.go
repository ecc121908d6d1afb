// Package signing seals fingerprints with an issuer signature.
//
// The signed message is a pre-hash (sha256, sha512 or sha3-256) of the
// fingerprint's multihash bytes, so a seal commits to the digest algorithm
// as well as the digest. Issuer keys use the "<alg>:<base64 public key>"
// form.
package signing

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"

	"xdao.co/hashit/digest"
)

// Signature algorithms.
const (
	Ed25519    = "ed25519"
	Dilithium3 = "dilithium3"
)

// Seal is a detached signature over a fingerprint.
type Seal struct {
	SignatureAlg string `json:"signature_alg"`
	HashAlg      string `json:"hash_alg"`
	IssuerKey    string `json:"issuer_key"`
	Signature    string `json:"signature"`
}

func digestFor(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", hashAlg)
	}
}

func sealMessage(fp digest.Fingerprint, hashAlg string) ([]byte, error) {
	mh, err := fp.Multihash()
	if err != nil {
		return nil, fmt.Errorf("encode fingerprint: %w", err)
	}
	return digestFor(hashAlg, mh)
}

// SealEd25519 signs fp with an Ed25519 key.
func SealEd25519(fp digest.Fingerprint, hashAlg string, priv ed25519.PrivateKey) (Seal, error) {
	if len(priv) != ed25519.PrivateKeySize {
		return Seal{}, errors.New("invalid ed25519 private key")
	}
	msg, err := sealMessage(fp, hashAlg)
	if err != nil {
		return Seal{}, err
	}
	return Seal{
		SignatureAlg: Ed25519,
		HashAlg:      hashAlg,
		IssuerKey:    IssuerKeyEd25519(priv.Public().(ed25519.PublicKey)),
		Signature:    base64.StdEncoding.EncodeToString(ed25519.Sign(priv, msg)),
	}, nil
}

// SealDilithium3 signs fp with a Dilithium3 key.
func SealDilithium3(fp digest.Fingerprint, hashAlg string, priv *mode3.PrivateKey) (Seal, error) {
	if priv == nil {
		return Seal{}, errors.New("missing private key")
	}
	msg, err := sealMessage(fp, hashAlg)
	if err != nil {
		return Seal{}, err
	}
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(priv, msg, sig)
	issuer, err := IssuerKeyDilithium3(priv.Public().(*mode3.PublicKey))
	if err != nil {
		return Seal{}, err
	}
	return Seal{
		SignatureAlg: Dilithium3,
		HashAlg:      hashAlg,
		IssuerKey:    issuer,
		Signature:    base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// Verify checks that s is a valid seal over fp by its issuer key.
func Verify(fp digest.Fingerprint, s Seal) error {
	alg, pub, err := ParseIssuerKey(s.IssuerKey)
	if err != nil {
		return err
	}
	if alg != s.SignatureAlg {
		return fmt.Errorf("issuer key algorithm %q does not match signature algorithm %q", alg, s.SignatureAlg)
	}
	sig, err := base64.StdEncoding.DecodeString(s.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature base64: %w", err)
	}
	msg, err := sealMessage(fp, s.HashAlg)
	if err != nil {
		return err
	}

	var ok bool
	switch alg {
	case Ed25519:
		ok = ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
	case Dilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub); err != nil {
			return fmt.Errorf("invalid dilithium3 public key: %w", err)
		}
		ok = mode3.Verify(&pk, msg, sig)
	}
	if !ok {
		return errors.New("signature verification failed")
	}
	return nil
}

// IssuerKeyEd25519 formats an Ed25519 public key as an issuer key.
func IssuerKeyEd25519(pub ed25519.PublicKey) string {
	return Ed25519 + ":" + base64.StdEncoding.EncodeToString(pub)
}

// IssuerKeyDilithium3 formats a Dilithium3 public key as an issuer key.
func IssuerKeyDilithium3(pub *mode3.PublicKey) (string, error) {
	if pub == nil {
		return "", errors.New("missing public key")
	}
	b, err := pub.MarshalBinary()
	if err != nil {
		return "", err
	}
	return Dilithium3 + ":" + base64.StdEncoding.EncodeToString(b), nil
}

// ParseIssuerKey splits an issuer key into its algorithm and raw public key.
func ParseIssuerKey(issuer string) (string, []byte, error) {
	alg, enc, ok := strings.Cut(issuer, ":")
	if !ok {
		return "", nil, errors.New("invalid issuer key encoding")
	}
	pub, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", nil, fmt.Errorf("invalid issuer key base64: %w", err)
	}
	switch alg {
	case Ed25519:
		if len(pub) != ed25519.PublicKeySize {
			return "", nil, errors.New("invalid ed25519 public key length")
		}
	case Dilithium3:
		if len(pub) != mode3.PublicKeySize {
			return "", nil, errors.New("invalid dilithium3 public key length")
		}
	default:
		return "", nil, fmt.Errorf("unsupported issuer key algorithm %q", alg)
	}
	return alg, pub, nil
}

// GenerateDilithium3Keypair returns a new Dilithium3 keypair.
func GenerateDilithium3Keypair(rand io.Reader) (*mode3.PublicKey, *mode3.PrivateKey, error) {
	return mode3.GenerateKey(rand)
}
