package digest

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	mhcore "github.com/multiformats/go-multihash/core"
	godigest "github.com/opencontainers/go-digest"

	"xdao.co/hashit/cidutil"
)

// Fingerprint is an algorithm-tagged digest.
type Fingerprint struct {
	// Algorithm is the multihash table name, e.g. "sha2-256".
	Algorithm string
	// Code is the multihash code of Algorithm.
	Code uint64
	Sum  []byte
}

// Encode renders the digest bytes in the named output encoding.
func (f Fingerprint) Encode(enc string) (string, error) {
	return encodeOutput(f.Sum, enc)
}

// String returns the lowercase hex digest.
func (f Fingerprint) String() string {
	return hex.EncodeToString(f.Sum)
}

// Multihash returns the self-describing multihash form.
func (f Fingerprint) Multihash() (multihash.Multihash, error) {
	return multihash.Encode(f.Sum, f.Code)
}

// CID returns a CIDv1 (raw codec) addressing the fingerprint.
func (f Fingerprint) CID() (cid.Cid, error) {
	mh, err := f.Multihash()
	if err != nil {
		return cid.Undef, err
	}
	return cidutil.CIDv1Raw(mh), nil
}

// OCIDigest returns the OCI content digest ("sha256:<hex>"). Only sha2-256,
// sha2-384 and sha2-512 fingerprints have an OCI form.
func (f Fingerprint) OCIDigest() (godigest.Digest, error) {
	var alg godigest.Algorithm
	switch f.Code {
	case multihash.SHA2_256:
		alg = godigest.SHA256
	case mhcore.SHA2_384:
		alg = godigest.SHA384
	case multihash.SHA2_512:
		alg = godigest.SHA512
	default:
		return "", fmt.Errorf("digest: %s has no OCI digest form", f.Algorithm)
	}
	d := godigest.NewDigestFromEncoded(alg, hex.EncodeToString(f.Sum))
	if err := d.Validate(); err != nil {
		return "", err
	}
	return d, nil
}

// Equal reports whether f and o carry the same algorithm and digest.
func (f Fingerprint) Equal(o Fingerprint) bool {
	return f.Code == o.Code && bytes.Equal(f.Sum, o.Sum)
}
