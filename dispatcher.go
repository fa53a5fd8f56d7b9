package lifecycle

import (
	"context"
	"fmt"
	"sync"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// EventKind identifies the dispatch phase a rule is bound to.
type EventKind string

const (
	// EventPreWrite fires before an entity mutation is durably recorded;
	// rules run inside the write's transaction and may mutate the entity.
	EventPreWrite EventKind = "pre-write"
	// EventPostWrite fires after a mutation is durably recorded.
	EventPostWrite EventKind = "post-write"
	// EventPostDelete fires after an entity is durably removed.
	EventPostDelete EventKind = "post-delete"
	// EventLoginSucceeded fires after an authentication flow completes,
	// carrying the authenticated user and request context.
	EventLoginSucceeded EventKind = "login-succeeded"
)

// Event is what rules receive on dispatch. Entity is nil for login events;
// User and Request are nil for entity events. Tx carries the active
// transaction for pre-write rules.
type Event struct {
	Kind    EventKind
	Entity  Entity
	Created bool
	User    *User
	Request RequestContext
	Tx      bun.IDB
}

// Rule is a named reaction. Handlers classify failures with go-errors
// categories; the dispatcher logs them uniformly.
type Rule struct {
	Name   string
	Handle func(ctx context.Context, evt *Event) error
}

// EntityFilter limits which entities a rule reacts to. A nil filter
// matches every event of the registered kind.
type EntityFilter func(Entity) bool

// FilterKind matches entities of any of the given kinds.
func FilterKind(kinds ...string) EntityFilter {
	return func(e Entity) bool {
		if e == nil {
			return false
		}
		for _, k := range kinds {
			if e.EntityKind() == k {
				return true
			}
		}
		return false
	}
}

// FilterExpirable matches any entity implementing Expirable.
func FilterExpirable() EntityFilter {
	return func(e Entity) bool {
		_, ok := e.(Expirable)
		return ok
	}
}

// FilterBackchanneler matches any entity implementing Backchanneler.
func FilterBackchanneler() EntityFilter {
	return func(e Entity) bool {
		_, ok := e.(Backchanneler)
		return ok
	}
}

type registration struct {
	filter EntityFilter
	rule   Rule
}

// Dispatcher routes lifecycle events to registered rules. Rules for a
// given kind run synchronously on the dispatching goroutine, in
// registration order. Register everything at startup; Dispatch is safe
// for concurrent use afterwards.
type Dispatcher struct {
	mu     sync.RWMutex
	rules  map[EventKind][]registration
	logger Logger
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		rules:  map[EventKind][]registration{},
		logger: defLogger{},
	}
}

func (d *Dispatcher) WithLogger(logger Logger) *Dispatcher {
	if logger != nil {
		d.logger = logger
	}
	return d
}

// On binds a rule to an event kind. A nil filter matches all entities.
func (d *Dispatcher) On(kind EventKind, filter EntityFilter, rule Rule) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.rules[kind] = append(d.rules[kind], registration{filter: filter, rule: rule})
}

// Dispatch runs the matching rules for the event, in registration order.
//
// For pre-write events the first rule error aborts dispatch and is
// returned, blocking the enclosing write. For every other kind rule
// errors are logged with their classification and swallowed: side
// effects are best-effort and must not affect the committed operation.
func (d *Dispatcher) Dispatch(ctx context.Context, evt Event) error {
	d.mu.RLock()
	regs := d.rules[evt.Kind]
	d.mu.RUnlock()

	for _, reg := range regs {
		if reg.filter != nil && !reg.filter(evt.Entity) {
			continue
		}

		err := reg.rule.Handle(ctx, &evt)
		if err == nil {
			continue
		}

		if evt.Kind == EventPreWrite {
			return goerrors.Wrap(
				err,
				goerrors.CategoryValidation,
				fmt.Sprintf("pre-write rule %q rejected %s", reg.rule.Name, describeEntity(evt.Entity)),
			)
		}

		d.logger.Error(
			"lifecycle rule failed: rule=%s entity=%s category=%s error=%v",
			reg.rule.Name, describeEntity(evt.Entity), errCategory(err), err,
		)
	}

	return nil
}

func describeEntity(e Entity) string {
	if e == nil {
		return "<none>"
	}
	return e.EntityKind() + "/" + e.EntityID()
}

func errCategory(err error) string {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) {
		return fmt.Sprintf("%s", rich.Category)
	}
	return fmt.Sprintf("%s", goerrors.CategoryInternal)
}
