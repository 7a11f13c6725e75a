// Package models defines the data carried between tvbf and its remote services.
//
// The package contains two groups of types:
//
// 1. Account types from the user service
//   - [User] : the record returned by /verify and /profile
//   - [TokenPair] : access and refresh tokens returned by /login and /refresh
//   - [Message] : confirmation objects returned by account operations
//
// 2. Catalog types from the show, season and episode services
//   - [Show] : show detail and search result entries
//   - [Season] : a season of a show, including its episode order
//   - [Episode] : a single episode with air date, runtime and summary
//
// Field names follow the JSON emitted by the services (camelCase for catalog data, snake_case for account data).
package models
