package cidutil

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1Raw wraps an existing multihash in a CIDv1 using the "raw"
// multicodec.
func CIDv1Raw(mh multihash.Multihash) cid.Cid {
	return cid.NewCidV1(cid.Raw, mh)
}

// CIDv1RawSum hashes data with the multihash function identified by code and
// returns the resulting CIDv1 (raw).
func CIDv1RawSum(data []byte, code uint64) (cid.Cid, error) {
	sum, err := multihash.Sum(data, code, -1)
	if err != nil {
		return cid.Undef, err
	}
	return CIDv1Raw(sum), nil
}

// CIDv1RawSHA256CID returns a CIDv1 (raw + sha2-256) derived from data.
func CIDv1RawSHA256CID(data []byte) (cid.Cid, error) {
	return CIDv1RawSum(data, multihash.SHA2_256)
}
