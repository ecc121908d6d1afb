// Package canon renders arbitrary Go values into a deterministic canonical
// text form.
//
// Two values that are structurally equivalent under the active Options render
// identically: struct fields are emitted in sorted name order, sets and maps
// in sorted canonical order, and sequences in input order unless SortArrays
// is set. The text is write-only; it is meant to be fed into a digest, never
// parsed back.
//
// Traversal uses an explicit work stack, so nesting depth is bounded by
// memory rather than the goroutine stack. Cycles are rejected with a
// KindCyclic error; repeated (diamond) references are fine.
//
// Types can opt out of the built-in rules by registering an ExtensionFunc
// in a Registry (Default unless Options.Registry is set).
package canon

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"xdao.co/hashit/internal/logx"
)

// Options controls canonicalization. The zero value is the default
// configuration.
type Options struct {
	// SortArrays sorts sequence elements canonically, making order irrelevant.
	SortArrays bool
	// IncludePrimitiveTypes prefixes primitives with a one-letter type tag so
	// that 5 and "5" differ.
	IncludePrimitiveTypes bool
	// IncludeConstructorNames prefixes extension output with the type name.
	IncludeConstructorNames bool
	// Registry holds the extensions to consult; nil means Default.
	Registry *Registry
}

// Canonicalize returns the canonical text of v.
func Canonicalize(v any, opts Options) (string, error) {
	s := newState(opts)
	if err := s.Update(v); err != nil {
		return "", err
	}
	return s.out.String(), nil
}

// State is the per-call serialization context: the output accumulator, the
// active options and the set of values currently being visited. Extension
// callbacks receive it and must write through it.
type State struct {
	opts     Options
	reg      *Registry
	out      strings.Builder
	bufs     []*strings.Builder
	visiting map[visitKey]struct{}
	stack    []frame

	// values handed to active callbacks that have no reference identity
	extending  map[any]struct{}
	valueDepth int
}

func newState(opts Options) *State {
	reg := opts.Registry
	if reg == nil {
		reg = Default
	}
	return &State{opts: opts, reg: reg, visiting: map[visitKey]struct{}{}}
}

// Options returns the active configuration.
func (s *State) Options() Options { return s.opts }

// WriteString appends raw text to the accumulator.
func (s *State) WriteString(str string) {
	s.cur().WriteString(str)
}

// Write appends raw bytes to the accumulator. It never fails.
func (s *State) Write(p []byte) (int, error) {
	return s.cur().Write(p)
}

// Update canonicalizes v into the accumulator. On error nothing is
// appended, so a callback may recover from a failed Update.
func (s *State) Update(v any) error {
	rv := reflect.ValueOf(v)
	if len(s.bufs) == 0 && s.out.Len() == 0 {
		if err := s.run(rv); err != nil {
			s.out.Reset()
			return err
		}
		return nil
	}
	s.bufs = append(s.bufs, new(strings.Builder))
	err := s.run(rv)
	b := s.bufs[len(s.bufs)-1]
	s.bufs = s.bufs[:len(s.bufs)-1]
	if err != nil {
		return err
	}
	s.cur().WriteString(b.String())
	return nil
}

func (s *State) cur() *strings.Builder {
	if n := len(s.bufs); n > 0 {
		return s.bufs[n-1]
	}
	return &s.out
}

// visitKey identifies a reference value. Slices include their length so a
// sub-slice of a backing array is not mistaken for its parent.
type visitKey struct {
	typ reflect.Type
	ptr uintptr
	n   int
}

func identity(v reflect.Value) (visitKey, bool) {
	switch v.Kind() {
	case reflect.Pointer, reflect.Map:
		if v.IsNil() {
			return visitKey{}, false
		}
		return visitKey{typ: v.Type(), ptr: v.Pointer()}, true
	case reflect.Slice:
		if v.Len() == 0 {
			return visitKey{}, false
		}
		return visitKey{typ: v.Type(), ptr: v.Pointer(), n: v.Len()}, true
	}
	return visitKey{}, false
}

func (s *State) enter(key visitKey, v reflect.Value) error {
	if _, ok := s.visiting[key]; ok {
		l := logx.Component("canon")
		l.Debug().Str("type", v.Type().String()).Msg("cyclic structure rejected")
		return Errorf(KindCyclic, "HASHIT-CYCLE-001", "canon: cyclic structure through %s", v.Type())
	}
	s.visiting[key] = struct{}{}
	return nil
}

type op uint8

const (
	opVisit op = iota
	opLiteral
	opLeave
	opPushBuf
	opPopElem
	opPopKey
	opPopValue
	opFlushElems
	opFlushPairs
)

type frame struct {
	op  op
	val reflect.Value
	lit string
	key visitKey
	col *collector
}

// collector gathers the canonical forms of an order-independent
// collection's children until they can be sorted.
type collector struct {
	elems []string
	pairs []pair
}

func (s *State) push(f frame) { s.stack = append(s.stack, f) }

// run drives the work stack until every frame scheduled for v is done.
// Extension callbacks re-enter run through Update; each call only consumes
// frames above its own base.
func (s *State) run(v reflect.Value) error {
	base := len(s.stack)
	s.push(frame{op: opVisit, val: v})
	for len(s.stack) > base {
		f := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]

		var err error
		switch f.op {
		case opVisit:
			err = s.visit(f.val)
		case opLiteral:
			s.cur().WriteString(f.lit)
		case opLeave:
			delete(s.visiting, f.key)
		case opPushBuf:
			s.bufs = append(s.bufs, new(strings.Builder))
		case opPopElem, opPopKey, opPopValue:
			text := s.bufs[len(s.bufs)-1].String()
			s.bufs = s.bufs[:len(s.bufs)-1]
			switch f.op {
			case opPopElem:
				f.col.elems = append(f.col.elems, text)
			case opPopKey:
				f.col.pairs = append(f.col.pairs, pair{key: text})
			default:
				f.col.pairs[len(f.col.pairs)-1].value = text
			}
		case opFlushElems:
			writeJoined(s.cur(), orderStrings(f.col.elems))
		case opFlushPairs:
			writePairs(s.cur(), orderPairs(f.col.pairs))
		}
		if err != nil {
			s.unwind(base)
			return err
		}
	}
	return nil
}

// unwind drops pending frames above base, releasing visited identities and
// buffers pushed for children that already started.
func (s *State) unwind(base int) {
	pending := 0
	for len(s.stack) > base {
		f := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]
		switch f.op {
		case opLeave:
			delete(s.visiting, f.key)
		case opPushBuf:
			pending++
		case opPopElem, opPopKey, opPopValue:
			if pending > 0 {
				pending--
				continue
			}
			s.bufs = s.bufs[:len(s.bufs)-1]
		}
	}
}

func (s *State) visit(v reflect.Value) error {
	v = unwrapInterface(v)
	if isNil(v) {
		s.primitive(VariantNull, v)
		return nil
	}
	if fn, target, ok := lookupExtension(s.reg, v); ok {
		return s.extend(fn, v, target)
	}
	if v.Kind() == reflect.Pointer && !isSpecialPointer(v.Type()) {
		key, _ := identity(v)
		if err := s.enter(key, v); err != nil {
			return err
		}
		s.push(frame{op: opLeave, key: key})
		s.push(frame{op: opVisit, val: v.Elem()})
		return nil
	}

	switch variant := classifyValue(v); variant {
	case VariantUnsupported:
		return Errorf(KindUnsupported, "HASHIT-TYPE-001", "canon: unsupported value of type %s", v.Type())
	case VariantTemporal:
		s.cur().WriteString("date^")
		s.cur().WriteString(dateText(timeOf(v)))
	case VariantSequence:
		return s.sequence(v)
	case VariantSetLike:
		return s.set(v)
	case VariantMapLike:
		return s.mapLike(v)
	case VariantStructure:
		s.structure(v)
	default:
		s.primitive(variant, v)
	}
	return nil
}

func timeOf(v reflect.Value) time.Time {
	return v.Interface().(time.Time)
}

func (s *State) primitive(variant Variant, v reflect.Value) {
	b := s.cur()
	if s.opts.IncludePrimitiveTypes {
		b.WriteByte(typeTag(variant))
		b.WriteByte('^')
	}
	b.WriteString(primitiveText(variant, v))
}

// extend hands target to a registered callback. orig is the value as found
// (possibly a pointer to target) and carries the identity used for cycle
// detection.
func (s *State) extend(fn ExtensionFunc, orig, target reflect.Value) error {
	if !target.CanInterface() {
		return Errorf(KindUnsupported, "HASHIT-TYPE-002", "canon: extension value of type %s is not accessible", target.Type())
	}
	if key, ok := identity(orig); ok {
		if err := s.enter(key, orig); err != nil {
			return err
		}
		defer delete(s.visiting, key)
	} else {
		leave, err := s.enterValue(target)
		if err != nil {
			return err
		}
		defer leave()
	}
	if s.opts.IncludeConstructorNames {
		s.cur().WriteString(typeName(target.Type()))
	}
	if err := fn(s, target.Interface()); err != nil {
		var e *Error
		if errors.As(err, &e) {
			return err
		}
		return WrapError(KindExtension, "HASHIT-EXT-001", fmt.Sprintf("canon: extension for %s failed", target.Type()), err)
	}
	return nil
}

// maxValueExtensionDepth bounds nested callbacks on values without a
// reference identity.
const maxValueExtensionDepth = 10_000

// enterValue guards a callback on a value without a reference identity. A
// comparable value already being rendered by an enclosing callback is a
// cycle; other values are bounded by nesting depth.
func (s *State) enterValue(v reflect.Value) (func(), error) {
	if s.valueDepth >= maxValueExtensionDepth {
		return nil, Errorf(KindCyclic, "HASHIT-CYCLE-002", "canon: extension for %s nested deeper than %d", v.Type(), maxValueExtensionDepth)
	}
	var key any
	if v.Comparable() {
		key = v.Interface()
		if _, ok := s.extending[key]; ok {
			l := logx.Component("canon")
			l.Debug().Str("type", v.Type().String()).Msg("extension re-entered with its own value")
			return nil, Errorf(KindCyclic, "HASHIT-CYCLE-002", "canon: extension for %s re-entered with the same value", v.Type())
		}
		if s.extending == nil {
			s.extending = map[any]struct{}{}
		}
		s.extending[key] = struct{}{}
	}
	s.valueDepth++
	return func() {
		s.valueDepth--
		if key != nil {
			delete(s.extending, key)
		}
	}, nil
}

func typeName(t reflect.Type) string {
	if t.Name() != "" {
		return t.Name()
	}
	if t.Kind() == reflect.Pointer && t.Elem().Name() != "" {
		return t.Elem().Name()
	}
	return t.String()
}

func (s *State) sequence(v reflect.Value) error {
	key, tracked := identity(v)
	if tracked {
		if err := s.enter(key, v); err != nil {
			return err
		}
	}
	n := v.Len()

	if s.scalarElems(v.Type().Elem()) {
		texts := make([]string, n)
		for i := range texts {
			texts[i] = s.scalarText(v.Index(i))
		}
		if s.opts.SortArrays {
			orderStrings(texts)
		}
		b := s.cur()
		b.WriteByte('[')
		writeJoined(b, texts)
		b.WriteByte(']')
		if tracked {
			delete(s.visiting, key)
		}
		return nil
	}

	s.cur().WriteByte('[')
	if tracked {
		s.push(frame{op: opLeave, key: key})
	}
	s.push(frame{op: opLiteral, lit: "]"})
	if s.opts.SortArrays {
		s.pushSorted(n, v.Index)
		return nil
	}
	for i := n - 1; i >= 0; i-- {
		s.push(frame{op: opVisit, val: v.Index(i)})
		if i > 0 {
			s.push(frame{op: opLiteral, lit: ","})
		}
	}
	return nil
}

// pushSorted schedules n children to be rendered into private buffers and
// flushed in sorted order.
func (s *State) pushSorted(n int, elem func(int) reflect.Value) {
	col := &collector{elems: make([]string, 0, n)}
	s.push(frame{op: opFlushElems, col: col})
	for i := n - 1; i >= 0; i-- {
		s.push(frame{op: opPopElem, col: col})
		s.push(frame{op: opVisit, val: elem(i)})
		s.push(frame{op: opPushBuf})
	}
}

func (s *State) set(v reflect.Value) error {
	key, _ := identity(v)
	if err := s.enter(key, v); err != nil {
		return err
	}
	keys := v.MapKeys()
	s.cur().WriteString("set^[")
	s.push(frame{op: opLeave, key: key})
	s.push(frame{op: opLiteral, lit: "]"})
	s.pushSorted(len(keys), func(i int) reflect.Value { return keys[i] })
	return nil
}

func (s *State) mapLike(v reflect.Value) error {
	key, tracked := identity(v)
	if !tracked && v.CanAddr() {
		// sync.Map held by value: identify it by address.
		key, tracked = visitKey{typ: reflect.PointerTo(v.Type()), ptr: v.Addr().Pointer()}, true
	}
	if tracked {
		if err := s.enter(key, v); err != nil {
			return err
		}
	}
	var keys, vals []reflect.Value
	if v.Kind() == reflect.Map {
		iter := v.MapRange()
		for iter.Next() {
			keys = append(keys, iter.Key())
			vals = append(vals, iter.Value())
		}
	} else {
		syncMapOf(v).Range(func(k, val any) bool {
			keys = append(keys, reflect.ValueOf(k))
			vals = append(vals, reflect.ValueOf(val))
			return true
		})
	}

	s.cur().WriteString("map^[[")
	if tracked {
		s.push(frame{op: opLeave, key: key})
	}
	s.push(frame{op: opLiteral, lit: "]]"})
	col := &collector{pairs: make([]pair, 0, len(keys))}
	s.push(frame{op: opFlushPairs, col: col})
	for i := len(keys) - 1; i >= 0; i-- {
		s.push(frame{op: opPopValue, col: col})
		s.push(frame{op: opVisit, val: vals[i]})
		s.push(frame{op: opPushBuf})
		s.push(frame{op: opPopKey, col: col})
		s.push(frame{op: opVisit, val: keys[i]})
		s.push(frame{op: opPushBuf})
	}
	return nil
}

func syncMapOf(v reflect.Value) *sync.Map {
	if v.Kind() == reflect.Pointer {
		return v.Interface().(*sync.Map)
	}
	if v.CanAddr() {
		return v.Addr().Interface().(*sync.Map)
	}
	c := reflect.New(v.Type())
	c.Elem().Set(v)
	return c.Interface().(*sync.Map)
}

func (s *State) structure(v reflect.Value) {
	fields := structFields(v.Type())
	names := make([]string, 0, len(fields))
	vals := make([]reflect.Value, 0, len(fields))
	for _, f := range fields {
		fv, err := v.FieldByIndexErr(f.index)
		if err != nil {
			// promoted through a nil embedded pointer
			continue
		}
		names = append(names, f.name)
		vals = append(vals, fv)
	}

	b := s.cur()
	b.WriteByte('{')
	if len(vals) == 0 {
		b.WriteByte('}')
		return
	}
	b.WriteString(names[0])
	b.WriteByte(':')
	s.push(frame{op: opLiteral, lit: "}"})
	for i := len(vals) - 1; i >= 0; i-- {
		s.push(frame{op: opVisit, val: vals[i]})
		if i > 0 {
			s.push(frame{op: opLiteral, lit: "," + names[i] + ":"})
		}
	}
}

type field struct {
	name   string
	index  []int
	tagged bool
}

var fieldCache sync.Map // reflect.Type -> []field

// structFields returns the canonical fields of t sorted by name. Exported
// fields are kept; fields of untagged embedded structs are promoted with the
// encoding/json visibility rules (shallowest wins, a tagged name breaks a
// tie, other ties drop the name). The hashit struct tag renames a field
// ("name") or skips it ("-").
func structFields(t reflect.Type) []field {
	if f, ok := fieldCache.Load(t); ok {
		return f.([]field)
	}
	fields := typeFields(t)
	f, _ := fieldCache.LoadOrStore(t, fields)
	return f.([]field)
}

func typeFields(t reflect.Type) []field {
	type embedded struct {
		typ   reflect.Type
		index []int
	}

	var fields []field
	claimed := map[string]bool{}
	visited := map[reflect.Type]bool{}
	next := []embedded{{typ: t}}
	var count map[reflect.Type]int
	nextCount := map[reflect.Type]int{t: 1}
	for len(next) > 0 {
		current := next
		next = nil
		count, nextCount = nextCount, map[reflect.Type]int{}
		byName := map[string][]field{}
		var order []string
		for _, e := range current {
			if visited[e.typ] {
				continue
			}
			visited[e.typ] = true
			for i := 0; i < e.typ.NumField(); i++ {
				sf := e.typ.Field(i)
				tag := sf.Tag.Get("hashit")
				if tag == "-" {
					continue
				}
				name, _, _ := strings.Cut(tag, ",")
				index := append(slices.Clip(e.index), i)

				if sf.Anonymous {
					ft := sf.Type
					if ft.Kind() == reflect.Pointer {
						ft = ft.Elem()
					}
					if !sf.IsExported() && ft.Kind() != reflect.Struct {
						continue
					}
					if ft.Kind() == reflect.Struct && name == "" {
						nextCount[ft]++
						if nextCount[ft] == 1 {
							next = append(next, embedded{typ: ft, index: index})
						}
						continue
					}
				} else if !sf.IsExported() {
					continue
				}

				tagged := name != ""
				if !tagged {
					name = sf.Name
				}
				if claimed[name] {
					continue
				}
				if _, ok := byName[name]; !ok {
					order = append(order, name)
				}
				f := field{name: name, index: index, tagged: tagged}
				byName[name] = append(byName[name], f)
				if count[e.typ] > 1 {
					// the same struct embedded twice at this depth
					byName[name] = append(byName[name], f)
				}
			}
		}
		for _, name := range order {
			claimed[name] = true
			if f, ok := dominantField(byName[name]); ok {
				fields = append(fields, f)
			}
		}
	}
	slices.SortStableFunc(fields, func(a, b field) int { return strings.Compare(a.name, b.name) })
	return fields
}

// dominantField picks the field that owns a name among candidates at the
// same embedding depth.
func dominantField(fs []field) (field, bool) {
	if len(fs) == 1 {
		return fs[0], true
	}
	var winner field
	n := 0
	for _, f := range fs {
		if f.tagged {
			winner = f
			n++
		}
	}
	return winner, n == 1
}

func scalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// scalarElems reports whether sequence elements of type t can be rendered
// inline without scheduling frames.
func (s *State) scalarElems(t reflect.Type) bool {
	if !scalarKind(t.Kind()) {
		return false
	}
	_, ok := s.reg.Lookup(t)
	return !ok
}

func (s *State) scalarText(v reflect.Value) string {
	variant := classifyValue(v)
	text := primitiveText(variant, v)
	if s.opts.IncludePrimitiveTypes {
		return string([]byte{typeTag(variant), '^'}) + text
	}
	return text
}
