package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tvbf/internal/formatter"
	"github.com/desertthunder/tvbf/internal/models"
)

var (
	_ list.Item = showItem{}
	_ list.Item = seasonItem{}
	_ list.Item = episodeItem{}
)

// showItem wraps [models.Show] to implement [list.Item].
type showItem struct {
	show models.Show
}

func (i showItem) FilterValue() string { return i.show.Name }
func (i showItem) Title() string       { return i.show.Name }
func (i showItem) Description() string {
	parts := []string{formatter.FormatYear(i.show.Premiered)}
	if genres := formatter.FormatGenres(i.show.Genres); genres != "" {
		parts = append(parts, genres)
	}
	return strings.Join(parts, " • ")
}

// seasonItem wraps [models.Season] to implement [list.Item].
type seasonItem struct {
	season models.Season
}

func (i seasonItem) FilterValue() string { return formatter.SeasonTitle(i.season) }
func (i seasonItem) Title() string {
	if i.season.Name != "" {
		return fmt.Sprintf("Season %d: %s", i.season.Number, i.season.Name)
	}
	return formatter.SeasonTitle(i.season)
}
func (i seasonItem) Description() string {
	desc := formatter.FormatDate(i.season.PremiereDate)
	if i.season.EpisodeOrder > 0 {
		desc = fmt.Sprintf("%d episodes • %s", i.season.EpisodeOrder, desc)
	}
	return desc
}

// episodeItem wraps [models.Episode] to implement [list.Item].
type episodeItem struct {
	episode models.Episode
}

func (i episodeItem) FilterValue() string { return i.episode.Name }
func (i episodeItem) Title() string {
	return fmt.Sprintf("%s %s", formatter.EpisodeCode(i.episode.Season, i.episode.Number), i.episode.Name)
}
func (i episodeItem) Description() string {
	return fmt.Sprintf("%s • %s", formatter.FormatDate(i.episode.Airdate), formatter.FormatRuntime(i.episode.Runtime))
}

func newList(items []list.Item, title string, width, height int) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), width, height)
	l.Title = title
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	return l
}
