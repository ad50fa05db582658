// Package store holds the client-side session and domain state for stemhub.
//
// # Session
//
// [Session] owns the authenticated identity (user, API key, tokens) plus loading, error and
// initialized flags, and mirrors the identity to a [Storage] under [SessionKey] as
// {user, api_key, tokens}. Login and Register overwrite the record; Logout removes it;
// UpdateProfile and RegenerateAPIKey rewrite a single field. Session implements
// [oauth2.TokenSource] so the API client reads the credential at call time.
//
// # Domain stores
//
// [Projects], [Versions], [Samples] and [Activity] proxy the remote API. Each has one
// [Flags] pair shared by all of its operations, so the last operation to settle decides the
// visible error. Versions, samples, members and project activity live in [Partitions]
// keyed by owning project id: List replaces a partition, Create appends, Update and Delete
// scan every partition for the id.
//
// # Snapshots
//
// Every store publishes a copy of its state when an operation starts and when it settles.
// Subscribe returns a cancel func; Snapshot returns the current copy. Nested user profile
// maps are shared between snapshots and must be treated as read-only.
//
// # Storage drivers
//
// [FileStorage] writes one JSON file per key, [MemoryStorage] keeps values in the process,
// and the sqlite driver uses [repositories.RecordRepository]. [OpenStorage] selects one
// from configuration.
package store
