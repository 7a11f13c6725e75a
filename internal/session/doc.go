// Package session owns the authenticated-user state machine.
//
// A [Manager] moves between [Unauthenticated], [Authenticating] and [Authenticated] as the user
// logs in, out, or restores a stored session on startup. It reads and clears the token store
// directly and talks to the user service through [UserClient].
//
// [Manager.Logout] is final for anything already in flight: an operation started before the
// logout may finish its request, but its result is dropped instead of signing the user back in.
package session
