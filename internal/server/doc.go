// Package server provides HTTP routing, middleware and the local web dashboard.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method patterns ("GET /dashboard") on an [http.ServeMux].
//
// # Dashboard
//
// [NewDashboard] serves:
//
//	GET /          landing page, also where signed-out visitors are sent
//	GET /dashboard projects and recent activity, as HTML or JSON (Accept or ?format=json)
//	GET /healthz   session readiness as JSON
//	GET /metrics   Prometheus metrics of the API client
//
// /dashboard sits behind [guard.Guard]: a loading page while the session bootstraps, a single
// redirect when nobody is signed in.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
