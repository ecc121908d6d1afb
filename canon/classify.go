package canon

import (
	"encoding/json"
	"math/big"
	"reflect"
	"sync"
	"time"
)

// Variant is the canonicalization strategy chosen for a value.
type Variant uint8

const (
	VariantUnsupported Variant = iota
	VariantNull
	VariantUndefined
	VariantBoolean
	VariantNumber
	VariantString
	VariantSymbolic
	VariantCallable
	VariantTemporal
	VariantSequence
	VariantSetLike
	VariantMapLike
	VariantStructure
	VariantExtended
)

var variantNames = [...]string{
	VariantUnsupported: "unsupported",
	VariantNull:        "null",
	VariantUndefined:   "undefined",
	VariantBoolean:     "boolean",
	VariantNumber:      "number",
	VariantString:      "string",
	VariantSymbolic:    "symbol",
	VariantCallable:    "function",
	VariantTemporal:    "date",
	VariantSequence:    "array",
	VariantSetLike:     "set",
	VariantMapLike:     "map",
	VariantStructure:   "object",
	VariantExtended:    "extended",
}

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return "unknown"
}

// Primitive reports whether values of this variant render as a single text
// fragment with no children.
func (v Variant) Primitive() bool {
	switch v {
	case VariantNull, VariantUndefined, VariantBoolean, VariantNumber,
		VariantString, VariantSymbolic, VariantCallable:
		return true
	}
	return false
}

// Symbol is an opaque identity token. Symbols render by description only.
type Symbol struct {
	Description string
}

func (s Symbol) String() string { return "Symbol(" + s.Description + ")" }

type undefined struct{}

// Undefined marks an absent value, distinct from nil.
var Undefined any = undefined{}

var (
	typeUndefined   = reflect.TypeFor[undefined]()
	typeSymbol      = reflect.TypeFor[Symbol]()
	typeTime        = reflect.TypeFor[time.Time]()
	typeJSONNumber  = reflect.TypeFor[json.Number]()
	typeBigInt      = reflect.TypeFor[big.Int]()
	typeBigFloat    = reflect.TypeFor[big.Float]()
	typeBigRat      = reflect.TypeFor[big.Rat]()
	typeSyncMap     = reflect.TypeFor[sync.Map]()
	typeEmptyStruct = reflect.TypeFor[struct{}]()
)

// Classify reports the variant v canonicalizes as under reg (nil means the
// Default registry). Pointers are followed to their pointee.
func Classify(v any, reg *Registry) Variant {
	if reg == nil {
		reg = Default
	}
	rv := reflect.ValueOf(v)
	seen := map[uintptr]struct{}{}
	for {
		rv = unwrapInterface(rv)
		if isNil(rv) {
			return VariantNull
		}
		if _, _, ok := lookupExtension(reg, rv); ok {
			return VariantExtended
		}
		if rv.Kind() != reflect.Pointer || isSpecialPointer(rv.Type()) {
			return classifyValue(rv)
		}
		if _, loop := seen[rv.Pointer()]; loop {
			return VariantUnsupported
		}
		seen[rv.Pointer()] = struct{}{}
		rv = rv.Elem()
	}
}

func unwrapInterface(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// isNil reports whether v is absent or a nil reference of any kind.
func isNil(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// lookupExtension finds an extension for v. Exact registrations for v's type
// and then the pointee type of a non-nil pointer win over interface
// registrations. The returned value is the one the callback receives.
func lookupExtension(reg *Registry, v reflect.Value) (ExtensionFunc, reflect.Value, bool) {
	t := v.Type()
	deref := v.Kind() == reflect.Pointer && !v.IsNil()
	if fn, ok := reg.lookupExact(t); ok {
		return fn, v, true
	}
	if deref {
		if fn, ok := reg.lookupExact(t.Elem()); ok {
			return fn, v.Elem(), true
		}
	}
	if fn, ok := reg.lookupInterface(t); ok {
		return fn, v, true
	}
	if deref {
		if fn, ok := reg.lookupInterface(t.Elem()); ok {
			return fn, v.Elem(), true
		}
	}
	return nil, v, false
}

// isSpecialPointer reports pointer types classified directly rather than
// dereferenced by the serializer.
func isSpecialPointer(t reflect.Type) bool {
	switch t.Elem() {
	case typeBigInt, typeBigFloat, typeBigRat, typeSyncMap:
		return true
	}
	return false
}

// classifyValue classifies a non-nil, non-pointer value (or a special
// pointer) with no registered extension.
func classifyValue(v reflect.Value) Variant {
	t := v.Type()
	switch t {
	case typeUndefined:
		return VariantUndefined
	case typeSymbol:
		return VariantSymbolic
	case typeTime:
		return VariantTemporal
	case typeJSONNumber, typeBigInt, typeBigFloat, typeBigRat:
		return VariantNumber
	case typeSyncMap:
		return VariantMapLike
	}

	switch v.Kind() {
	case reflect.Bool:
		return VariantBoolean
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return VariantNumber
	case reflect.String:
		return VariantString
	case reflect.Chan:
		return VariantSymbolic
	case reflect.Func:
		return VariantCallable
	case reflect.Slice, reflect.Array:
		return VariantSequence
	case reflect.Map:
		if t.Elem() == typeEmptyStruct {
			return VariantSetLike
		}
		return VariantMapLike
	case reflect.Struct:
		return VariantStructure
	case reflect.Pointer:
		switch t.Elem() {
		case typeBigInt, typeBigFloat, typeBigRat:
			return VariantNumber
		case typeSyncMap:
			return VariantMapLike
		}
	}
	return VariantUnsupported
}
