// Package guard runs the session bootstrap and decides what a protected view may show.
//
// [Bootstrap] rehydrates the session at most once per process. [Decide] maps a session
// snapshot onto a [Decision]; [Guard] applies that decision to HTTP handlers and [Gate]
// applies it to views that re-render on every snapshot, such as the terminal dashboard.
//
// A view is never redirected while the session is uninitialized or a credential-mutating
// operation is in flight, so a fresh login cannot race the redirect.
package guard
