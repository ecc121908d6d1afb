package canon

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"
	"unsafe"
)

type leaf struct {
	V int
}

type ab struct {
	A int
	B string
}

type ba struct {
	B string
	A int
}

type node struct {
	Name string
	Next *node
}

type tagged struct {
	Renamed int `hashit:"z"`
	Skipped int `hashit:"-"`
	C       int
	hidden  int
}

type embedding struct {
	leaf
	Leaf2 leaf
	X     int
}

func mustCanon(t *testing.T, v any, opts Options) string {
	t.Helper()
	got, err := Canonicalize(v, opts)
	if err != nil {
		t.Fatalf("Canonicalize(%#v): %v", v, err)
	}
	return got
}

func TestCanonicalize_Golden(t *testing.T) {
	fn := func(int) string { return "" }
	var zero *leaf

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, "null"},
		{"nil pointer", zero, "null"},
		{"nil slice", []int(nil), "null"},
		{"undefined", Undefined, "undefined"},
		{"bool", true, "true"},
		{"int", 5, "5"},
		{"negative", int8(-3), "-3"},
		{"uint", uint64(math.MaxUint64), "18446744073709551615"},
		{"float", 1.5, "1.5"},
		{"float32", float32(0.1), "0.1"},
		{"string", "5", "5"},
		{"symbol", Symbol{Description: "x"}, "Symbol(x)"},
		{"chan", make(chan int), "Symbol(chan int)"},
		{"func", fn, "function func(int) string"},
		{"json number", json.Number("5.0"), "5"},
		{"big int", big.NewInt(42), "42"},
		{"big rat", big.NewRat(1, 3), "1/3"},
		{"complex", complex(1, 2), "(1,2)"},
		{"date", time.UnixMilli(1700000000000), "date^1700000000000"},
		{"date sub-ms", time.Unix(0, 1_500_000), "date^1.5"},
		{"empty slice", []any{}, "[]"},
		{"slice", []int{1, 2, 3}, "[1,2,3]"},
		{"array", [2]string{"b", "a"}, "[b,a]"},
		{"mixed slice", []any{1, "a", nil, []int{2}}, "[1,a,null,[2]]"},
		{"set", map[string]struct{}{"b": {}, "a": {}}, "set^[a,b]"},
		{"map", map[string]int{"b": 2, "a": 1}, "map^[[[a,1],[b,2]]]"},
		{"map nested", map[string]any{"b": []int{1}, "a": nil}, "map^[[[a,null],[b,[1]]]]"},
		{"struct", ab{A: 1, B: "x"}, "{A:1,B:x}"},
		{"pointer struct", &leaf{V: 7}, "{V:7}"},
		{"empty struct", struct{}{}, "{}"},
		{"no exported fields", struct{ a int }{a: 1}, "{}"},
		{"tags", tagged{Renamed: 1, Skipped: 2, C: 3, hidden: 4}, "{C:3,z:1}"},
		{"embedded", embedding{leaf: leaf{V: 1}, Leaf2: leaf{V: 2}, X: 3}, "{Leaf2:{V:2},V:1,X:3}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustCanon(t, tc.in, Options{}); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

type pointerEmbedding struct {
	*leaf
	X int
}

type shadowing struct {
	leaf
	V string
}

type renamedA struct {
	Q int `hashit:"A"`
}

type Leaf leaf

func TestCanonicalize_EmbeddedFields(t *testing.T) {
	if a, b := mustCanon(t, embedding{leaf: leaf{V: 1}}, Options{}), mustCanon(t, embedding{leaf: leaf{V: 2}}, Options{}); a == b {
		t.Fatalf("promoted field ignored: %q", a)
	}

	cases := []struct {
		name string
		in   any
		want string
	}{
		{"nil embedded pointer", pointerEmbedding{X: 1}, "{X:1}"},
		{"embedded pointer", pointerEmbedding{leaf: &leaf{V: 2}, X: 1}, "{V:2,X:1}"},
		{"shallower wins", shadowing{leaf: leaf{V: 1}, V: "top"}, "{V:top}"},
		{"ambiguous names dropped", struct {
			ab
			ba
		}{ab{A: 1, B: "x"}, ba{B: "y", A: 2}}, "{}"},
		{"tagged name breaks tie", struct {
			ab
			renamedA
		}{ab{A: 1, B: "x"}, renamedA{Q: 9}}, "{A:9,B:x}"},
		{"exported embedded promoted", struct{ Leaf }{Leaf{V: 3}}, "{V:3}"},
		{"tagged embedded named", struct {
			Leaf `hashit:"L"`
		}{Leaf{V: 3}}, "{L:{V:3}}"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := mustCanon(t, tc.in, Options{}); got != tc.want {
				t.Fatalf("got %q want %q", got, tc.want)
			}
		})
	}
}

func TestCanonicalize_KeyOrderIndependent(t *testing.T) {
	a := mustCanon(t, ab{A: 1, B: "x"}, Options{})
	b := mustCanon(t, ba{B: "x", A: 1}, Options{})
	if a != b {
		t.Fatalf("field order leaked: %q vs %q", a, b)
	}
}

func TestCanonicalize_MapAndSetOrderIndependent(t *testing.T) {
	m1 := map[string]int{}
	m2 := map[string]int{}
	s1 := map[int]struct{}{}
	s2 := map[int]struct{}{}
	for i := 0; i < 50; i++ {
		m1[string(rune('a'+i%26))+strings.Repeat("x", i)] = i
		s1[i] = struct{}{}
	}
	for i := 49; i >= 0; i-- {
		m2[string(rune('a'+i%26))+strings.Repeat("x", i)] = i
		s2[i] = struct{}{}
	}
	first := mustCanon(t, []any{m1, s1}, Options{})
	for i := 0; i < 20; i++ {
		if got := mustCanon(t, []any{m2, s2}, Options{}); got != first {
			t.Fatalf("iteration %d: collection order leaked", i)
		}
	}
}

func TestCanonicalize_MapPairTieBreak(t *testing.T) {
	// 1 and "1" render identically without type tags; values break the tie.
	m := map[any]int{1: 2, "1": 1}
	want := "map^[[[1,1],[1,2]]]"
	for i := 0; i < 20; i++ {
		if got := mustCanon(t, m, Options{}); got != want {
			t.Fatalf("got %q want %q", got, want)
		}
	}
}

func TestCanonicalize_SyncMap(t *testing.T) {
	var m sync.Map
	m.Store("b", 2)
	m.Store("a", 1)
	if got := mustCanon(t, &m, Options{}); got != "map^[[[a,1],[b,2]]]" {
		t.Fatalf("got %q", got)
	}
}

type mapHolder struct {
	M sync.Map
}

func TestCanonicalize_NestedSyncMapsByValue(t *testing.T) {
	inner := &mapHolder{}
	inner.M.Store("k", 1)
	outer := &mapHolder{}
	outer.M.Store("inner", inner)

	if got := mustCanon(t, outer, Options{}); got != "{M:map^[[[inner,{M:map^[[[k,1]]]}]]]}" {
		t.Fatalf("got %q", got)
	}

	outer.M.Store("self", outer)
	if _, err := Canonicalize(outer, Options{}); !errors.Is(err, ErrCyclicStructure) {
		t.Fatalf("expected ErrCyclicStructure, got %v", err)
	}
}

func TestCanonicalize_SequenceOrder(t *testing.T) {
	if a, b := mustCanon(t, []int{3, 1, 2}, Options{}), mustCanon(t, []int{1, 2, 3}, Options{}); a == b {
		t.Fatalf("sequence order ignored without SortArrays")
	}

	opts := Options{SortArrays: true}
	if got := mustCanon(t, []int{3, 1, 2}, opts); got != "[1,2,3]" {
		t.Fatalf("sorted ints: got %q", got)
	}
	if got := mustCanon(t, [][]int{{2, 1}, {0}}, opts); got != "[[0],[1,2]]" {
		t.Fatalf("nested sorted: got %q", got)
	}
	a := mustCanon(t, []any{ab{A: 1}, "z", 3}, opts)
	b := mustCanon(t, []any{3, "z", ab{A: 1}}, opts)
	if a != b {
		t.Fatalf("sorted mixed sequences differ: %q vs %q", a, b)
	}
}

func TestCanonicalize_PrimitiveTypes(t *testing.T) {
	if mustCanon(t, 5, Options{}) != mustCanon(t, "5", Options{}) {
		t.Fatalf("expected 5 and \"5\" to collide without type tags")
	}
	if a, b := mustCanon(t, []string{"1", "2", "3"}, Options{}), mustCanon(t, []int{1, 2, 3}, Options{}); a != b {
		t.Fatalf("expected equal untyped sequences, got %q vs %q", a, b)
	}

	opts := Options{IncludePrimitiveTypes: true}
	cases := []struct {
		in   any
		want string
	}{
		{5, "n^5"},
		{"5", "s^5"},
		{true, "b^true"},
		{nil, "n^null"},
		{Undefined, "u^undefined"},
		{[]string{"1", "2"}, "[s^1,s^2]"},
		{[]int{1, 2}, "[n^1,n^2]"},
		{map[string]int{"a": 1}, "map^[[[s^a,n^1]]]"},
		{leaf{V: 1}, "{V:n^1}"},
	}
	for _, tc := range cases {
		if got := mustCanon(t, tc.in, opts); got != tc.want {
			t.Fatalf("%#v: got %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestCanonicalize_TimeZones(t *testing.T) {
	utc := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	local := utc.In(time.FixedZone("X", 3600))
	if mustCanon(t, utc, Options{}) != mustCanon(t, local, Options{}) {
		t.Fatalf("same instant rendered differently across zones")
	}
}

func TestCanonicalize_Diamond(t *testing.T) {
	shared := &leaf{V: 1}
	sharedSlice := []int{1, 2}
	in := struct {
		A, B *leaf
		S    [][]int
	}{A: shared, B: shared, S: [][]int{sharedSlice, sharedSlice}}
	want := "{A:{V:1},B:{V:1},S:[[1,2],[1,2]]}"
	if got := mustCanon(t, in, Options{}); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestCanonicalize_Cycles(t *testing.T) {
	n := &node{Name: "a"}
	n.Next = &node{Name: "b", Next: n}

	m := map[string]any{"a": 1}
	m["self"] = m

	s := make([]any, 1)
	s[0] = s

	for name, v := range map[string]any{"pointer": n, "map": m, "slice": s} {
		t.Run(name, func(t *testing.T) {
			_, err := Canonicalize(v, Options{})
			if err == nil {
				t.Fatalf("expected cyclic structure error")
			}
			if !errors.Is(err, ErrCyclicStructure) {
				t.Fatalf("expected ErrCyclicStructure, got %v", err)
			}
			if RuleID(err) != "HASHIT-CYCLE-001" {
				t.Fatalf("unexpected rule id %q", RuleID(err))
			}
		})
	}
}

func TestCanonicalize_Deep(t *testing.T) {
	const depth = 100_000
	var head *node
	for i := 0; i < depth; i++ {
		head = &node{Next: head}
	}
	got := mustCanon(t, head, Options{})
	want := strings.Repeat("{Name:,Next:", depth) + "null" + strings.Repeat("}", depth)
	if got != want {
		t.Fatalf("deep list mismatch (len %d vs %d)", len(got), len(want))
	}

	var nested any = 1
	for i := 0; i < depth; i++ {
		nested = []any{nested}
	}
	got = mustCanon(t, nested, Options{})
	want = strings.Repeat("[", depth) + "1" + strings.Repeat("]", depth)
	if got != want {
		t.Fatalf("deep sequence mismatch")
	}
}

func TestCanonicalize_Depth100(t *testing.T) {
	var v any = "x"
	for i := 0; i < 100; i++ {
		v = map[string]any{"k": v}
	}
	got := mustCanon(t, v, Options{})
	want := strings.Repeat("map^[[[k,", 100) + "x" + strings.Repeat("]]]", 100)
	if got != want {
		t.Fatalf("got %q", got)
	}
}

func TestCanonicalize_Unsupported(t *testing.T) {
	x := 1
	_, err := Canonicalize(unsafe.Pointer(&x), Options{})
	if !errors.Is(err, ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
	if !IsKind(err, KindUnsupported) {
		t.Fatalf("expected KindUnsupported, got %v", err)
	}
}

func TestCanonicalize_Deterministic(t *testing.T) {
	v := map[string]any{
		"list": []any{1, "two", 3.5, nil},
		"set":  map[string]struct{}{"x": {}, "y": {}},
		"obj":  &ab{A: 1, B: "b"},
		"when": time.UnixMilli(0),
	}
	first := mustCanon(t, v, Options{})
	for i := 0; i < 10; i++ {
		if got := mustCanon(t, v, Options{}); got != first {
			t.Fatalf("run %d differs", i)
		}
	}
}

func TestFloatText(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{123.456, "123.456"},
		{1e20, "100000000000000000000"},
		{1e21, "1e+21"},
		{-2.5e30, "-2.5e+30"},
		{0.000001, "0.000001"},
		{1e-7, "1e-7"},
		{1.5e-7, "1.5e-7"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tc := range cases {
		if got := floatText(tc.in, 64); got != tc.want {
			t.Fatalf("floatText(%v) = %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestNumberText_SameValueAcrossTypes(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	cases := []struct {
		name string
		a, b any
		want string
	}{
		{"big float small", big.NewFloat(1e-7), 1e-7, "1e-7"},
		{"big float large", big.NewFloat(1.5e300), 1.5e300, "1.5e+300"},
		{"big float integral", big.NewFloat(5), 5, "5"},
		{"json uint64", json.Number("12345678901234567890"), uint64(12345678901234567890), "12345678901234567890"},
		{"json exponent", json.Number("1E-7"), 1e-7, "1e-7"},
		{"json big integer", json.Number("123456789012345678901234567890"), huge, "123456789012345678901234567890"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, b := mustCanon(t, tc.a, Options{}), mustCanon(t, tc.b, Options{})
			if a != tc.want || b != tc.want {
				t.Fatalf("got %q and %q want %q", a, b, tc.want)
			}
		})
	}

	third := new(big.Float).SetPrec(200).Quo(big.NewFloat(1), big.NewFloat(3))
	if got := bigFloatText(third); !strings.HasPrefix(got, "0.33333333333333333333") {
		t.Fatalf("high precision fraction: %q", got)
	}
	tiny := new(big.Float).SetPrec(200).Quo(big.NewFloat(1), big.NewFloat(3e7))
	if got := bigFloatText(tiny); !strings.HasSuffix(got, "e-8") {
		t.Fatalf("high precision exponent: %q", got)
	}
}

func TestDateText_BeforeEpoch(t *testing.T) {
	if got := dateText(time.Unix(0, -500_000)); got != "-1.5" {
		t.Fatalf("got %q", got)
	}
}

func TestOrderPairs_TieBreakOnValue(t *testing.T) {
	got := orderPairs([]pair{{"b", "1"}, {"a", "2"}, {"a", "1"}})
	want := []pair{{"a", "1"}, {"a", "2"}, {"b", "1"}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("pair %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestClassify(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterFunc(reg, func(s *State, v leaf) error { return nil }); err != nil {
		t.Fatalf("RegisterFunc: %v", err)
	}
	x := 1
	cases := []struct {
		in   any
		want Variant
	}{
		{nil, VariantNull},
		{(*int)(nil), VariantNull},
		{Undefined, VariantUndefined},
		{false, VariantBoolean},
		{3.5, VariantNumber},
		{big.NewInt(1), VariantNumber},
		{"s", VariantString},
		{Symbol{}, VariantSymbolic},
		{func() {}, VariantCallable},
		{time.Time{}, VariantTemporal},
		{[]int{}, VariantSequence},
		{map[int]struct{}{}, VariantSetLike},
		{map[int]int{}, VariantMapLike},
		{&sync.Map{}, VariantMapLike},
		{ab{}, VariantStructure},
		{&x, VariantNumber},
		{leaf{}, VariantExtended},
		{&leaf{}, VariantExtended},
		{unsafe.Pointer(&x), VariantUnsupported},
	}
	for _, tc := range cases {
		if got := Classify(tc.in, reg); got != tc.want {
			t.Fatalf("Classify(%#v) = %s want %s", tc.in, got, tc.want)
		}
	}
}
