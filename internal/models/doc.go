// Package models defines the client-side data model for the stemhub API.
//
// The package contains two categories of types:
//
// 1. Remote resources, decoded from API responses and keyed by [ID]:
//   - [Project] : a collaboration workspace, with [Member] entries
//   - [Version] : a snapshot of a project's session files
//   - [Sample] : an audio file attached to a project
//   - [ActivityLog] : one entry in a project's audit trail
//   - [PushStatus] : the approval record of a version upload
//
// 2. Session material, mirrored to durable storage:
//   - [UserProfile] : the opaque account record
//   - [Tokens] : access/refresh pair
//   - [SessionRecord] : the persisted {user, api_key, tokens} layout
//
// Every resource implements [Identified] so stores can partition and look them up uniformly.
package models
