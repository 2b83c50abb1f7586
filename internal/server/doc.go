// Package server provides the temporary HTTP listener used during Spotify authorization.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
// [RequestLogger] is the only middleware snapmix installs.
//
// The [BasicRouter] implementation uses [http.ServeMux] method patterns.
//
// # OAuth Callback Handler
//
// [CallbackHandler] validates the state parameter (CSRF protection) and delivers the authorization code,
// or the provider's error, through a channel. The code exchange is left to the Spotify service.
//
// It only processes one callback to prevent replay attacks.
//
// # Lifecycle
//
// When the user runs auth, [Start] binds the redirect address (localhost:3000 by default), the browser is
// opened on the consent page, and the listener is shut down as soon as a result arrives.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
