// Package lifecycle provides the reactive backbone for identity entities:
// a lifecycle event dispatcher that intercepts entity writes, deletes, and
// successful logins, and runs registered reaction rules with deterministic
// ordering and per-rule failure isolation.
//
// Event phases:
//   - Pre-write rules run inside the same transaction as the write they
//     guard and may mutate the in-flight entity; a failure aborts the write.
//   - Post-write and post-delete rules run after the durability point and
//     are best-effort: failures are logged, never propagated, and never
//     roll back the committed mutation.
//   - Login-succeeded rules bridge the synchronous auth flow to session
//     creation and realtime device notification.
//
// Core rules:
//   - Application creation invalidates the per-viewer listing cache.
//   - A successful login creates an AuthenticatedSession and optionally
//     broadcasts to the device's pub/sub group.
//   - Deleting an AuthenticatedSession cascades to the underlying Session.
//   - Backchannel-capable providers are always persisted with the
//     backchannel flag forced on.
//   - Expiring entities never persist a nil expiry.
//   - New users are assigned to partner groups based on their attributes.
//
// The Dispatcher is an explicit object constructed once at startup; rules
// are registered in order and there is no hidden global registry. Pass the
// Dispatcher (usually via Store) to whatever triggers entity mutations.
package lifecycle
