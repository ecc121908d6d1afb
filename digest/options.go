package digest

import (
	"xdao.co/hashit/canon"
	"xdao.co/hashit/internal/logx"
)

// Defaults applied to empty Options fields.
const (
	DefaultAlgorithm      = "md5"
	DefaultInputEncoding  = "utf8"
	DefaultOutputEncoding = "hex"
)

// Options configures a Hasher: the canonicalization options plus the digest
// algorithm and the encodings on either side of it.
type Options struct {
	canon.Options

	// Algorithm names the digest function, e.g. "sha256", "sha3-512",
	// "blake2b-512". See Algorithms for the full list.
	Algorithm string
	// InputEncoding converts canonical text to bytes before hashing.
	InputEncoding string
	// OutputEncoding renders the digest; "none" requests raw bytes.
	OutputEncoding string
}

// WithDefaults returns o with empty fields set to their defaults.
func (o Options) WithDefaults() Options {
	if o.Algorithm == "" {
		o.Algorithm = DefaultAlgorithm
	}
	if o.InputEncoding == "" {
		o.InputEncoding = DefaultInputEncoding
	}
	if o.OutputEncoding == "" {
		o.OutputEncoding = DefaultOutputEncoding
	}
	return o
}

// Validate checks that every named algorithm and encoding is known. Empty
// fields are valid and take their defaults.
func (o Options) Validate() error {
	o = o.WithDefaults()
	err := func() error {
		if _, err := lookupAlgorithm(o.Algorithm); err != nil {
			return err
		}
		if err := checkInputEncoding(o.InputEncoding); err != nil {
			return err
		}
		return checkOutputEncoding(o.OutputEncoding)
	}()
	if err != nil {
		l := logx.Component("digest")
		l.Debug().Err(err).Str("rule", canon.RuleID(err)).Msg("options rejected")
	}
	return err
}
