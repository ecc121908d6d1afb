package digest

import (
	"hash"
	"slices"
	"strings"

	"github.com/multiformats/go-multihash"
	mhcore "github.com/multiformats/go-multihash/core"
	_ "github.com/multiformats/go-multihash/register/all"
	"golang.org/x/crypto/md4"
	"golang.org/x/crypto/ripemd160"

	"xdao.co/hashit/canon"
)

// Multihash codes for algorithms the multihash name table leaves out.
const (
	codeMD4       = 0xd4
	codeRIPEMD160 = 0x1053
)

func init() {
	mhcore.Register(codeMD4, md4.New)
	mhcore.Register(codeRIPEMD160, ripemd160.New)
}

// extraNames extends multihash.Names with codes the core table already has
// hashers for but no names.
var extraNames = map[string]uint64{
	"sha2-224":     mhcore.SHA2_224,
	"sha2-384":     mhcore.SHA2_384,
	"sha2-512-224": mhcore.SHA2_512_224,
	"sha2-512-256": mhcore.SHA2_512_256,
	"md4":          codeMD4,
	"ripemd-160":   codeRIPEMD160,
}

// aliases maps the names digest users commonly pass (OpenSSL style) to
// multihash table names.
var aliases = map[string]string{
	"sha224":      "sha2-224",
	"sha256":      "sha2-256",
	"sha384":      "sha2-384",
	"sha512":      "sha2-512",
	"sha512-224":  "sha2-512-224",
	"sha512-256":  "sha2-512-256",
	"blake2b512":  "blake2b-512",
	"blake2s256":  "blake2s-256",
	"ripemd160":   "ripemd-160",
	"rmd160":      "ripemd-160",
	"keccak256":   "keccak-256",
	"keccak512":   "keccak-512",
	"shake128":    "shake-128",
	"shake256":    "shake-256",
	"murmur3":     "murmur3-x64-64",
	"dbl-sha256":  "dbl-sha2-256",
	"double-sha2": "dbl-sha2-256",
}

// algorithm is a resolved digest algorithm.
type algorithm struct {
	name string // multihash table name
	code uint64
}

func (a algorithm) hasher() (hash.Hash, error) {
	return mhcore.GetHasher(a.code)
}

func codeForName(name string) (uint64, bool) {
	if code, ok := multihash.Names[name]; ok {
		return code, true
	}
	code, ok := extraNames[name]
	return code, ok
}

// lookupAlgorithm resolves a user supplied algorithm name. The name must map
// to a multihash code with a registered hasher.
func lookupAlgorithm(name string) (algorithm, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		n = DefaultAlgorithm
	}
	if a, ok := aliases[n]; ok {
		n = a
	}
	code, ok := codeForName(n)
	if !ok {
		return algorithm{}, canon.Errorf(canon.KindConfiguration, "HASHIT-CONF-001", "digest: unknown algorithm %q", name)
	}
	if _, err := mhcore.GetHasher(code); err != nil {
		return algorithm{}, canon.WrapError(canon.KindConfiguration, "HASHIT-CONF-001", "digest: algorithm "+n+" has no hasher", err)
	}
	return algorithm{name: n, code: code}, nil
}

// Algorithms returns the names of every algorithm with a usable hasher,
// sorted. Aliases are not listed.
func Algorithms() []string {
	var out []string
	add := func(name string, code uint64) {
		if _, err := mhcore.GetHasher(code); err == nil {
			out = append(out, name)
		}
	}
	for name, code := range multihash.Names {
		add(name, code)
	}
	for name, code := range extraNames {
		if _, dup := multihash.Names[name]; !dup {
			add(name, code)
		}
	}
	slices.Sort(out)
	return out
}
