// Package logx holds the process-wide zerolog logger used by the hashit
// packages. The zero state is a no-op logger.
package logx

import (
	"sync/atomic"

	"github.com/rs/zerolog"
)

var current atomic.Pointer[zerolog.Logger]

func init() {
	nop := zerolog.Nop()
	current.Store(&nop)
}

// Set replaces the logger. Safe for concurrent use.
func Set(l zerolog.Logger) {
	current.Store(&l)
}

// L returns the current logger.
func L() *zerolog.Logger {
	return current.Load()
}

// Component returns a logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return L().With().Str("component", name).Logger()
}
