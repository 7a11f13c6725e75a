// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is a drill-down browser over the catalog services:
//  1. [SearchView] : Type a query; results refresh 300ms after the last keystroke
//  2. [ShowView] : Show details and its seasons
//  3. [SeasonView] : Episodes of the selected season, with [ and ] moving between seasons
//  4. [EpisodeView] : Episode details, with [ and ] moving to the previous or next episode across seasons
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Catalog calls run as commands so rendering never blocks on the network.
//
// A header shows who is signed in, read from the session manager.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, [/], q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
