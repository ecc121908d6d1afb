package canon

import (
	"reflect"
	"sort"
	"sync"

	"xdao.co/hashit/internal/logx"
)

// ExtensionFunc renders v into the state's accumulator. It may append text
// with s.WriteString and canonicalize sub-values with s.Update; the active
// configuration is available through s.Options.
type ExtensionFunc func(s *State, v any) error

// Registry maps type identities to extension callbacks.
//
// Registrations are expected at process start (typically from init); lookups
// are safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	exact  map[reflect.Type]ExtensionFunc
	ifaces []ifaceEntry // sorted by type string
}

type ifaceEntry struct {
	typ reflect.Type
	fn  ExtensionFunc
}

// Default is the process-wide registry used when Options.Registry is nil.
var Default = NewRegistry()

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{exact: map[reflect.Type]ExtensionFunc{}}
}

// Register adds an extension for typ. Interface types match every value
// whose type implements them.
func (r *Registry) Register(typ reflect.Type, fn ExtensionFunc) error {
	if typ == nil {
		return NewError(KindConfiguration, "HASHIT-REG-001", "canon: extension type is required")
	}
	if fn == nil {
		return Errorf(KindConfiguration, "HASHIT-REG-002", "canon: extension for %s missing callback", typ)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.exact[typ]; exists {
		return Errorf(KindConfiguration, "HASHIT-REG-003", "canon: extension for %s already registered", typ)
	}
	r.exact[typ] = fn
	if typ.Kind() == reflect.Interface {
		r.ifaces = append(r.ifaces, ifaceEntry{typ: typ, fn: fn})
		sort.Slice(r.ifaces, func(i, j int) bool {
			return r.ifaces[i].typ.String() < r.ifaces[j].typ.String()
		})
	}

	l := logx.Component("canon.registry")
	l.Debug().Str("type", typ.String()).Msg("extension registered")
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(typ reflect.Type, fn ExtensionFunc) {
	if err := r.Register(typ, fn); err != nil {
		panic(err)
	}
}

// Unregister removes the extension for typ, reporting whether one existed.
func (r *Registry) Unregister(typ reflect.Type) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.exact[typ]; !ok {
		return false
	}
	delete(r.exact, typ)
	for i, e := range r.ifaces {
		if e.typ == typ {
			r.ifaces = append(r.ifaces[:i], r.ifaces[i+1:]...)
			break
		}
	}
	return true
}

// Lookup returns the extension for typ: an exact registration first, then the
// first registered interface typ implements (in type-string order).
func (r *Registry) Lookup(typ reflect.Type) (ExtensionFunc, bool) {
	if fn, ok := r.lookupExact(typ); ok {
		return fn, true
	}
	return r.lookupInterface(typ)
}

func (r *Registry) lookupExact(typ reflect.Type) (ExtensionFunc, bool) {
	if r == nil || typ == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.exact[typ]
	return fn, ok
}

func (r *Registry) lookupInterface(typ reflect.Type) (ExtensionFunc, bool) {
	if r == nil || typ == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.ifaces {
		if typ.Implements(e.typ) {
			return e.fn, true
		}
	}
	return nil, false
}

// Types returns the registered types sorted by their string form.
func (r *Registry) Types() []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]reflect.Type, 0, len(r.exact))
	for t := range r.exact {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Register adds an extension to the Default registry.
func Register(typ reflect.Type, fn ExtensionFunc) error {
	return Default.Register(typ, fn)
}

// MustRegister is like Register but panics on error.
func MustRegister(typ reflect.Type, fn ExtensionFunc) {
	Default.MustRegister(typ, fn)
}

// RegisterFunc registers a typed callback for T in reg.
//
//	canon.RegisterFunc(canon.Default, func(s *canon.State, m Money) error {
//		s.WriteString(m.Currency)
//		return s.Update(m.Cents)
//	})
func RegisterFunc[T any](reg *Registry, fn func(s *State, v T) error) error {
	if fn == nil {
		return Errorf(KindConfiguration, "HASHIT-REG-002", "canon: extension for %s missing callback", reflect.TypeFor[T]())
	}
	return reg.Register(reflect.TypeFor[T](), func(s *State, v any) error {
		return fn(s, v.(T))
	})
}
