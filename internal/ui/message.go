package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tvbf/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSearchTick MsgKind = iota
	MsgSearchResults
	MsgShowFetched
	MsgEpisodesFetched
)

type searchTick struct {
	seq   int
	query string
}

type searchResults struct {
	seq   int
	shows []models.Show
	err   error
}

type showFetched struct {
	show    *models.Show
	seasons []models.Season
	err     error
}

type episodesFetched struct {
	season   int
	episodes []models.Episode
	// open is the episode number to show once loaded; zero opens the season list.
	open int
	err  error
}

// searchTickMsg is the constructor for [MsgSearchTick]
func searchTickMsg(seq int, query string) Msg {
	return Msg{kind: MsgSearchTick, data: searchTick{seq: seq, query: query}}
}

// searchResultsMsg is the constructor for [MsgSearchResults]
func searchResultsMsg(seq int, shows []models.Show, err error) Msg {
	return Msg{kind: MsgSearchResults, data: searchResults{seq: seq, shows: shows, err: err}}
}

// showFetchedMsg is the constructor for [MsgShowFetched]
func showFetchedMsg(show *models.Show, seasons []models.Season, err error) Msg {
	return Msg{kind: MsgShowFetched, data: showFetched{show: show, seasons: seasons, err: err}}
}

// episodesFetchedMsg is the constructor for [MsgEpisodesFetched]
func episodesFetchedMsg(season int, episodes []models.Episode, open int, err error) Msg {
	return Msg{kind: MsgEpisodesFetched, data: episodesFetched{season: season, episodes: episodes, open: open, err: err}}
}
