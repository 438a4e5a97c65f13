package safe

import (
	"runtime/debug"

	"RelayGate/logger"
)

// Go starts a goroutine that recovers from panics, so a misbehaving handler
// cannot take the whole relay down.
func Go(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[safe] goroutine %s panic recovered: %v\n%s", name, r, debug.Stack())
			}
		}()
		f()
	}()
}
