// Package tokens owns the persisted access/refresh token pair.
//
// A [Store] is the only holder of the pair. Callers read the current values for the lifetime of one request and
// never keep a copy. Writes are partial: an empty argument to [Store.SetTokens] leaves that token untouched.
// [Store.ClearTokens] always removes both.
//
// Two implementations are provided:
//   - [SQLStore] : durable storage in the local SQLite database, surviving restarts
//   - [MemoryStore] : process-local storage for tests and ephemeral sessions
//
// Storage failures never surface to callers. They are logged and treated as "tokens absent".
//
// [Inspect] decodes access-token claims without verifying the signature. It is for display only and is never used
// to decide whether a token is valid; the user service is the sole authority on that.
package tokens
