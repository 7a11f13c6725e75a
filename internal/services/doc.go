// Package services implements the HTTP clients for the user/auth service and the show, season and episode services.
//
// # API Service
//
// [APIService] is the shared transport: it sends a JSON request to one base URL, tags it with an
// X-Request-ID and reads the whole response into an [APIResponse]. Non-2xx statuses are not errors at
// this layer.
//
// # User Service
//
// [UserService] talks to the user/auth service. Bearer-authenticated calls go through
// [UserService.Do]:
//
//  1. The stored access token is attached with [oauth2.Token.SetAuthHeader], replacing any caller header.
//  2. On a 401, and only if a token was sent, the pair is refreshed once via /refresh.
//  3. On success the request is re-dispatched with the new token and that response is final.
//  4. On failure the token store is cleared, OnRefreshFailed hooks run and the original 401 is returned.
//
// Concurrent callers rejected with the same token share a single refresh through [singleflight.Group].
//
// # Catalog Service
//
// [CatalogService] reads shows, seasons and episodes. Requests are unauthenticated, never cached and
// paced with a [rate.Limiter].
//
// # Error Handling
//
// Failed calls return [*Error], which carries the HTTP status and a display-ready message taken from
// the service's {"error": ...} body or a per-operation fallback. It unwraps to a sentinel from the
// shared package:
//   - [shared.ErrAuthFailed] : login, registration or password reset rejected
//   - [shared.ErrVerifyFailed] : the stored token could not be verified
//   - [shared.ErrServiceUnavailable] : no response was received
//   - [shared.ErrShowNotFound], [shared.ErrSeasonNotFound], [shared.ErrEpisodeNotFound] : catalog 404s
//   - [shared.ErrAPIRequest] : any other non-2xx response
package services
