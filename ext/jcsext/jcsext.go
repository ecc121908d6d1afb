// Package jcsext canonicalizes embedded JSON documents with the JSON
// Canonicalization Scheme (RFC 8785), so formatting and member order inside
// a json.RawMessage do not affect the canonical form.
//
// Importing the package registers the extension in canon.Default.
package jcsext

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"xdao.co/hashit/canon"
)

func init() {
	if err := Register(canon.Default); err != nil {
		panic(err)
	}
}

// Register installs the json.RawMessage extension in reg.
func Register(reg *canon.Registry) error {
	return reg.Register(reflect.TypeFor[json.RawMessage](), canonicalJSON)
}

func canonicalJSON(s *canon.State, v any) error {
	raw := v.(json.RawMessage)
	if len(raw) == 0 {
		return s.Update(nil)
	}
	out, err := jsoncanonicalizer.Transform(raw)
	if err != nil {
		return fmt.Errorf("jcsext: canonicalize JSON: %w", err)
	}
	s.WriteString("json^")
	_, _ = s.Write(out)
	return nil
}
