// Package cidext canonicalizes content identifiers by their string form
// rather than their internal byte layout.
//
// Importing the package registers the extensions in canon.Default.
package cidext

import (
	"reflect"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/hashit/canon"
)

func init() {
	if err := Register(canon.Default); err != nil {
		panic(err)
	}
}

// Register installs the cid.Cid and multihash.Multihash extensions in reg.
func Register(reg *canon.Registry) error {
	if err := reg.Register(reflect.TypeFor[cid.Cid](), canonicalCID); err != nil {
		return err
	}
	return reg.Register(reflect.TypeFor[multihash.Multihash](), canonicalMultihash)
}

// CIDs render as cid^<multibase string>. CIDv0 is upgraded to v1 so both
// versions of the same content agree; cid.Undef renders as null.
func canonicalCID(s *canon.State, v any) error {
	c := v.(cid.Cid)
	if !c.Defined() {
		return s.Update(nil)
	}
	if c.Version() == 0 {
		c = cid.NewCidV1(c.Type(), c.Hash())
	}
	s.WriteString("cid^")
	s.WriteString(c.String())
	return nil
}

func canonicalMultihash(s *canon.State, v any) error {
	mh := v.(multihash.Multihash)
	if len(mh) == 0 {
		return s.Update(nil)
	}
	if _, err := multihash.Decode(mh); err != nil {
		return err
	}
	s.WriteString("mh^")
	s.WriteString(mh.B58String())
	return nil
}
