// Package server provides HTTP routing, middleware, and the link listener used by account commands.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # Link Handler
//
// Verification and password reset emails link to /verify-email?token=... and /reset-password?token=....
// When the user service is configured to point those links at the local listener, [LinkHandler] catches
// the click, calls the user service once and reports the outcome through a channel.
//
// It only processes one link; later requests get a 400.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
