// Package tasks runs long operations on top of the stores with real-time progress reporting.
//
// # Push watching
//
// [PushWatcher.Watch] polls a version push through [store.Versions.RefreshPushStatus] until the
// approval workflow settles it (approved, rejected or failed). Polls are paced by a rate limiter
// and bounded by a poll budget. Every refresh is the server's view, so the versions store ends the
// watch holding a confirmed status.
//
// # Activity exports
//
// [ActivityExporter.Export] fetches the audit trail of many projects and writes each one with a
// pool of workers:
//   - json: {id}.json with the project and its entries
//   - csv: {id}_activity.csv plus {id}_project.json
//   - markdown: {id}/README.md
//   - txt: {id}_activity.txt
//
// Failures are per project. An export_manifest.json in the output directory records what was written.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
