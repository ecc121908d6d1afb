package canon_test

import (
	"testing"

	"xdao.co/hashit/canon"
	"xdao.co/hashit/canon/canontest"
)

func TestConformance(t *testing.T) {
	for name, opts := range map[string]canon.Options{
		"default":    {},
		"sorted":     {SortArrays: true},
		"typed":      {IncludePrimitiveTypes: true},
		"everything": {SortArrays: true, IncludePrimitiveTypes: true, IncludeConstructorNames: true},
	} {
		t.Run(name, func(t *testing.T) {
			canontest.RunConformance(t, func(v any) (string, error) {
				return canon.Canonicalize(v, opts)
			})
		})
	}
}
