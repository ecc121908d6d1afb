// Package hashit computes deterministic fingerprints of arbitrary Go values.
//
// A value is first rendered into canonical text (see package canon): struct
// fields in sorted order, maps and sets in sorted canonical order, cycles
// rejected. The text is then digested (see package digest). Two values that
// are structurally equivalent under the same Options hash identically,
// whatever their map iteration or field declaration order.
//
//	sum, err := hashit.Hash(order, hashit.Options{Algorithm: "sha256"})
//
// Extensions for bundled third-party types are enabled by blank import:
//
//	import _ "xdao.co/hashit/ext/cidext"
package hashit

import (
	"reflect"

	"github.com/rs/zerolog"

	"xdao.co/hashit/canon"
	"xdao.co/hashit/config"
	"xdao.co/hashit/digest"
	"xdao.co/hashit/internal/logx"
)

// Options configures canonicalization and digesting. The zero value hashes
// with md5, reads canonical text as UTF-8 and returns lowercase hex.
type Options = digest.Options

// Canonicalize returns the canonical text of v.
func Canonicalize(v any, opts Options) (string, error) {
	return canon.Canonicalize(v, opts.Options)
}

// Hash canonicalizes v and returns its digest in opts.OutputEncoding.
func Hash(v any, opts Options) (string, error) {
	h, err := digest.New(opts)
	if err != nil {
		return "", err
	}
	if err := h.Update(v); err != nil {
		return "", err
	}
	return h.Digest("")
}

// MustHash is like Hash but panics on error. Intended for values known to
// be acyclic, such as package-level fixtures.
func MustHash(v any, opts Options) string {
	s, err := Hash(v, opts)
	if err != nil {
		panic(err)
	}
	return s
}

// Sum canonicalizes v and returns the algorithm-tagged fingerprint.
func Sum(v any, opts Options) (digest.Fingerprint, error) {
	h, err := digest.New(opts)
	if err != nil {
		return digest.Fingerprint{}, err
	}
	if err := h.Update(v); err != nil {
		return digest.Fingerprint{}, err
	}
	return h.Fingerprint(), nil
}

// RegisterExtension installs a process-wide canonicalization callback for
// typ. Register during initialization, before hashing concurrently.
func RegisterExtension(typ reflect.Type, fn canon.ExtensionFunc) error {
	return canon.Register(typ, fn)
}

// RegisterType is RegisterExtension with a typed callback.
func RegisterType[T any](fn func(s *canon.State, v T) error) error {
	return canon.RegisterFunc(canon.Default, fn)
}

// SetLogger installs the logger used by every hashit package. The default
// discards everything.
func SetLogger(l zerolog.Logger) {
	logx.Set(l)
}

// LoadOptions reads Options from a YAML or JSON config file.
func LoadOptions(path string) (Options, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return Options{}, err
	}
	return cfg.Options(), nil
}
