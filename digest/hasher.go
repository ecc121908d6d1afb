// Package digest feeds canonical text into a digest function and exposes
// the resulting fingerprint.
package digest

import (
	"hash"

	"xdao.co/hashit/canon"
	"xdao.co/hashit/internal/logx"
)

// Hasher accumulates canonicalized values into one digest. It is not safe
// for concurrent use. A Hasher finalizes on the first call to Sum, Digest or
// Fingerprint; later updates fail.
type Hasher struct {
	opts Options
	alg  algorithm
	h    hash.Hash
	sum  []byte
}

// New returns a Hasher for opts. Invalid options are reported here, before
// any value is traversed.
func New(opts Options) (*Hasher, error) {
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	alg, err := lookupAlgorithm(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	h, err := alg.hasher()
	if err != nil {
		return nil, canon.WrapError(canon.KindConfiguration, "HASHIT-CONF-001", "digest: create "+alg.name+" hasher", err)
	}

	l := logx.Component("digest")
	l.Debug().
		Str("algorithm", alg.name).
		Str("input_encoding", opts.InputEncoding).
		Str("output_encoding", opts.OutputEncoding).
		Msg("hasher created")
	return &Hasher{opts: opts, alg: alg, h: h}, nil
}

// Options returns the effective options, defaults applied.
func (h *Hasher) Options() Options { return h.opts }

// Update canonicalizes v and writes it using the configured input encoding.
func (h *Hasher) Update(v any) error {
	return h.UpdateEncoding(v, "")
}

// UpdateEncoding is Update with an explicit input encoding; "" selects the
// configured one. A []byte is written as is, skipping canonicalization and
// input encoding.
func (h *Hasher) UpdateEncoding(v any, enc string) error {
	if h.sum != nil {
		return canon.NewError(canon.KindState, "HASHIT-STATE-001", "digest: update after finalization")
	}
	if b, ok := v.([]byte); ok {
		_, _ = h.h.Write(b)
		return nil
	}
	if enc == "" {
		enc = h.opts.InputEncoding
	}
	if err := checkInputEncoding(enc); err != nil {
		return err
	}
	text, err := canon.Canonicalize(v, h.opts.Options)
	if err != nil {
		return err
	}
	b, err := encodeInput(text, enc)
	if err != nil {
		return err
	}
	_, _ = h.h.Write(b)
	return nil
}

func (h *Hasher) finalize() []byte {
	if h.sum == nil {
		h.sum = h.h.Sum(make([]byte, 0, h.h.Size()))
	}
	return h.sum
}

// Sum finalizes the Hasher and returns a copy of the raw digest.
func (h *Hasher) Sum() []byte {
	return append([]byte(nil), h.finalize()...)
}

// Digest finalizes the Hasher and returns the digest rendered in enc; ""
// selects the configured output encoding. Raw encodings return the digest
// bytes as a string.
func (h *Hasher) Digest(enc string) (string, error) {
	if enc == "" {
		enc = h.opts.OutputEncoding
	}
	return encodeOutput(h.finalize(), enc)
}

// Fingerprint finalizes the Hasher and returns the algorithm-tagged digest.
func (h *Hasher) Fingerprint() Fingerprint {
	return Fingerprint{Algorithm: h.alg.name, Code: h.alg.code, Sum: h.Sum()}
}
