package lifecycle

import (
	"fmt"
	"time"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Entity is the currency of the dispatcher: every persisted record the
// lifecycle rules can react to exposes a kind and a stable identifier.
type Entity interface {
	EntityKind() string
	EntityID() string
}

// Expirable is implemented by entities that carry an optional expiry.
// When IsExpiring reports true the pre-write rule guarantees a non-nil
// expiry is persisted.
type Expirable interface {
	Entity
	IsExpiring() bool
	GetExpires() *time.Time
	SetExpires(time.Time)
}

// Backchanneler is implemented by provider entities that must always be
// persisted with their backchannel flag forced on.
type Backchanneler interface {
	Entity
	MarkBackchannel()
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] LIFECYCLE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] LIFECYCLE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] LIFECYCLE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] LIFECYCLE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
