// Package services implements the HTTP client for the stemhub REST API.
//
// # Client
//
// [Client] exposes one method per remote endpoint, grouped by resource:
// accounts, projects, versions, samples and activity. The group interfaces
// ([AccountsAPI], [ProjectsAPI], ...) are what the stores depend on, so tests can
// substitute an [net/http/httptest] server or a fake.
//
// # Authorization
//
// Authorized calls go through an [oauth2.Transport] whose token source is read at call
// time. The session store implements [oauth2.TokenSource] with the current API key,
// so a login or logout is picked up by the next request without rebuilding the client.
//
// # Responses
//
// Bodies wrapped as {"data": ...} are unwrapped. List endpoints return either a bare
// array or an envelope with a project_id owning key; both decode into a [Partition].
// Multipart uploads are buffered so the request carries a Content-Length, and report
// progress through [Upload.Progress].
//
// # Errors
//
// Non-2xx responses become [*APIError], which unwraps to [shared.ErrAPIRequest].
// [ParsePayload] classifies the body and [ErrorMessage] renders it with the precedence
// string, message, first of errors, detail, then the JSON text itself.
//
// # Metrics
//
// [Metrics] counts requests and observes latency per method and resource group.
package services
