// Package canontest provides a reusable conformance suite for anything that
// maps values to canonical strings (canonical text or digests of it).
package canontest

import (
	"errors"
	"testing"
	"time"

	"xdao.co/hashit/canon"
)

// Canonicalizer renders v under a fixed configuration.
type Canonicalizer func(v any) (string, error)

type forward struct {
	Alpha int
	Beta  string
	Gamma []int
}

type reverse struct {
	Gamma []int
	Beta  string
	Alpha int
}

type link struct {
	Name string
	Next *link
}

// RunConformance checks the properties every configuration must hold:
// order independence for keyed and unordered collections, determinism,
// cycle rejection, diamond acceptance and unbounded nesting.
func RunConformance(t *testing.T, render Canonicalizer) {
	t.Helper()

	mustRender := func(t *testing.T, v any) string {
		t.Helper()
		s, err := render(v)
		if err != nil {
			t.Fatalf("render failed: %v", err)
		}
		return s
	}

	t.Run("KeyOrderIndependent", func(t *testing.T) {
		a := mustRender(t, forward{Alpha: 1, Beta: "b", Gamma: []int{1}})
		b := mustRender(t, reverse{Gamma: []int{1}, Beta: "b", Alpha: 1})
		if a != b {
			t.Fatalf("field declaration order leaked: %q vs %q", a, b)
		}
	})

	t.Run("UnorderedCollections", func(t *testing.T) {
		m1, m2 := map[string]int{}, map[string]int{}
		s1, s2 := map[string]struct{}{}, map[string]struct{}{}
		keys := []string{"x", "a", "m", "b", "zz", "q"}
		for i, k := range keys {
			m1[k] = i
			s1[k] = struct{}{}
		}
		for i := len(keys) - 1; i >= 0; i-- {
			m2[keys[i]] = i
			s2[keys[i]] = struct{}{}
		}
		if mustRender(t, m1) != mustRender(t, m2) {
			t.Fatalf("map insertion order leaked")
		}
		if mustRender(t, s1) != mustRender(t, s2) {
			t.Fatalf("set insertion order leaked")
		}
	})

	t.Run("Deterministic", func(t *testing.T) {
		v := map[string]any{
			"n":    1.25,
			"when": time.Unix(1, 0),
			"list": []any{"a", 2, nil, map[int]struct{}{3: {}, 1: {}}},
			"obj":  &forward{Alpha: 9},
		}
		first := mustRender(t, v)
		for i := 0; i < 16; i++ {
			if got := mustRender(t, v); got != first {
				t.Fatalf("render %d differs", i)
			}
		}
	})

	t.Run("DistinguishesValues", func(t *testing.T) {
		if mustRender(t, forward{Alpha: 1}) == mustRender(t, forward{Alpha: 2}) {
			t.Fatalf("distinct values rendered identically")
		}
		if mustRender(t, map[string]int{"a": 1}) == mustRender(t, map[string]int{"a": 2}) {
			t.Fatalf("distinct map values rendered identically")
		}
	})

	t.Run("RejectsCycles", func(t *testing.T) {
		l := &link{Name: "a"}
		l.Next = &link{Name: "b", Next: l}
		_, err := render(l)
		if !errors.Is(err, canon.ErrCyclicStructure) {
			t.Fatalf("expected ErrCyclicStructure, got %v", err)
		}
	})

	t.Run("AcceptsDiamonds", func(t *testing.T) {
		shared := &link{Name: "shared"}
		if _, err := render([]*link{shared, shared, {Name: "x", Next: shared}}); err != nil {
			t.Fatalf("diamond rejected: %v", err)
		}
	})

	t.Run("DeepNesting", func(t *testing.T) {
		var head *link
		for i := 0; i < 10_000; i++ {
			head = &link{Name: "n", Next: head}
		}
		if _, err := render(head); err != nil {
			t.Fatalf("deep structure rejected: %v", err)
		}
	})
}
