package lifecycle

import (
	"context"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// CoreRuleDeps carries the collaborators the core rules close over.
// Notifier is optional; without it the device broadcast is skipped.
type CoreRuleDeps struct {
	Repos    RepositoryManager
	Store    *Store
	Cache    *Cache
	Notifier *Notifier
	Config   Config
	Logger   Logger
}

func (d CoreRuleDeps) validate() error {
	if d.Repos == nil {
		return errors.New("core rules require a repository manager")
	}
	if d.Store == nil {
		return errors.New("core rules require a store")
	}
	if d.Cache == nil {
		return errors.New("core rules require a cache")
	}
	return d.Config.Validate()
}

// RegisterCoreRules wires the built-in reaction rules in their canonical
// order. Registration order is dispatch order.
func RegisterCoreRules(d *Dispatcher, deps CoreRuleDeps) error {
	if err := deps.validate(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid core rule dependencies")
	}
	if deps.Logger == nil {
		deps.Logger = defLogger{}
	}
	if deps.Notifier != nil {
		deps.Notifier.WithPublishTimeout(deps.Config.PublishTimeout)
	}

	d.On(EventPostWrite, FilterKind(KindApplication), Rule{
		Name:   "application.listing-cache.invalidate",
		Handle: applicationCreated(deps),
	})
	d.On(EventLoginSucceeded, nil, Rule{
		Name:   "login.session.create",
		Handle: loginSucceeded(deps),
	})
	d.On(EventPostDelete, FilterKind(KindAuthenticatedSession), Rule{
		Name:   "authenticated-session.cascade",
		Handle: authenticatedSessionDeleted(deps),
	})
	d.On(EventPreWrite, FilterBackchanneler(), Rule{
		Name:   "provider.backchannel.enforce",
		Handle: enforceBackchannel,
	})
	d.On(EventPreWrite, FilterExpirable(), Rule{
		Name:   "expirable.expiry.default",
		Handle: defaultExpiry(deps),
	})
	d.On(EventPostWrite, FilterKind(KindUser), Rule{
		Name:   "user.partner-group.assign",
		Handle: assignPartnerGroup(deps),
	})

	return nil
}

// applicationCreated drops every cached per-viewer application listing so
// the next read recomputes it. Updates leave the cache alone.
func applicationCreated(deps CoreRuleDeps) func(ctx context.Context, evt *Event) error {
	return func(ctx context.Context, evt *Event) error {
		if !evt.Created {
			return nil
		}
		return deps.Cache.InvalidateAppListings(ctx)
	}
}

// loginSucceeded persists an AuthenticatedSession built from the request
// and, when the refresh feature is on and a device cookie is present,
// broadcasts to the device group. Requests without a session key produce
// no record but still honor the broadcast branch.
func loginSucceeded(deps CoreRuleDeps) func(ctx context.Context, evt *Event) error {
	return func(ctx context.Context, evt *Event) error {
		if evt.Request == nil {
			return nil
		}

		if session := NewAuthenticatedSession(evt.Request, evt.User, deps.Config.DeviceCookie); session != nil {
			if err := deps.Store.Create(ctx, session); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryOperation, "could not record authenticated session")
			}
		}

		if !deps.Config.RefreshFlowsAfterAuth || deps.Notifier == nil {
			return nil
		}
		device, ok := evt.Request.Cookie(deps.Config.DeviceCookie)
		if !ok || device == "" {
			return nil
		}
		return deps.Notifier.DeviceAuthenticated(ctx, device)
	}
}

// authenticatedSessionDeleted cascades to the Session with the matching
// key. One-way only: deleting a Session directly triggers nothing here.
func authenticatedSessionDeleted(deps CoreRuleDeps) func(ctx context.Context, evt *Event) error {
	return func(ctx context.Context, evt *Event) error {
		session, ok := evt.Entity.(*AuthenticatedSession)
		if !ok {
			return nil
		}
		if err := deps.Repos.Sessions().DeleteByKey(ctx, session.SessionKey); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryOperation, "session cascade delete failed")
		}
		return nil
	}
}

// enforceBackchannel forces the backchannel flag on, regardless of the
// caller-supplied value.
func enforceBackchannel(_ context.Context, evt *Event) error {
	evt.Entity.(Backchanneler).MarkBackchannel()
	return nil
}

// defaultExpiry assigns the configured expiry to expiring entities
// persisted without one.
func defaultExpiry(deps CoreRuleDeps) func(ctx context.Context, evt *Event) error {
	expiry := deps.Config.Expiry
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return func(_ context.Context, evt *Event) error {
		e := evt.Entity.(Expirable)
		if e.IsExpiring() && e.GetExpires() == nil {
			e.SetExpires(time.Now().Add(expiry))
		}
		return nil
	}
}
