// Package repositories implements SQLite persistence for the client's local state.
//
// The only durable state tvbf keeps is a small key/value table, the terminal counterpart of a browser's localStorage.
// [KVRepository] reads and writes that table; multi-key writes and deletes run in a single transaction so related keys
// (the access and refresh token) never drift apart.
package repositories
