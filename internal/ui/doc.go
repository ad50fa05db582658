// Package ui implements an interactive terminal dashboard using bubbletea's Elm architecture.
//
// The dashboard is a protected view. It bootstraps the session on start and passes every session
// snapshot through [guard.Gate]:
//  1. [LoadingView] : spinner while the session loads or a credential change is in flight
//  2. [SignedOutView] : shown once when nobody is signed in
//  3. [ProjectListView] : the user's projects, filterable
//  4. [ProjectDetailView] : versions, samples and activity of one project, one tab each
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Detail tabs render straight from the store snapshots, so the same partitions the CLI fills are what the dashboard shows.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, tab, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
