package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
	"github.com/desertthunder/tvbf/internal/formatter"
	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/services"
)

const searchDebounce = 300 * time.Millisecond

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SearchView ViewState = iota
	ShowView
	SeasonView
	EpisodeView
)

// Catalog is the part of the catalog client the browser reads from.
type Catalog interface {
	SearchShows(ctx context.Context, query string, limit int) ([]models.Show, error)
	Show(ctx context.Context, id int64) (*models.Show, error)
	Seasons(ctx context.Context, showID int64) ([]models.Season, error)
	Episodes(ctx context.Context, showID int64, season int) ([]models.Episode, error)
}

// Viewer reports the signed-in user, or nil.
type Viewer interface {
	User() *models.User
}

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	view        ViewState
	catalog     Catalog
	viewer      Viewer
	searchLimit int
	width       int
	height      int
	banner      string
	input       textinput.Model
	searchSeq   int
	query       string
	results     list.Model
	seasonList  list.Model
	episodeList list.Model
	show        *models.Show
	seasons     []models.Season
	season      int
	episodes    []models.Episode
	episode     *models.Episode
	loading     bool
	err         error
	help        help.Model
	keys        keyMap
}

// NewModel creates a new TUI model with the provided dependencies. viewer may be nil.
func NewModel(ctx context.Context, catalog Catalog, viewer Viewer, searchLimit int) *Model {
	input := textinput.New()
	input.Placeholder = "Search shows"
	input.Prompt = "> "
	input.Focus()

	return &Model{
		ctx:         ctx,
		view:        SearchView,
		catalog:     catalog,
		viewer:      viewer,
		searchLimit: searchLimit,
		banner:      figure.NewFigure("tvbf", "cybermedium", true).String(),
		input:       input,
		results:     newList(nil, "Results", 0, 0),
		seasonList:  newList(nil, "Seasons", 0, 0),
		episodeList: newList(nil, "Episodes", 0, 0),
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the cursor blinking in the search box.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.abort) {
			return m, tea.Quit
		}
		switch m.view {
		case SearchView:
			return m.handleSearchKeys(msg)
		case ShowView:
			return m.handleShowKeys(msg)
		case SeasonView:
			return m.handleSeasonKeys(msg)
		case EpisodeView:
			return m.handleEpisodeKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSearchTick:
		tick := msg.data.(searchTick)
		if tick.seq != m.searchSeq {
			return m, nil
		}
		m.query = strings.TrimSpace(tick.query)
		if m.query == "" {
			m.loading = false
			m.err = nil
			return m, m.results.SetItems(nil)
		}
		m.loading = true
		return m, m.search(tick.seq, m.query)

	case MsgSearchResults:
		res := msg.data.(searchResults)
		if res.seq != m.searchSeq {
			return m, nil
		}
		m.loading = false
		m.err = res.err
		items := make([]list.Item, len(res.shows))
		for i, show := range res.shows {
			items[i] = showItem{show: show}
		}
		m.results.Title = fmt.Sprintf("Results for %q", m.query)
		m.results.Select(0)
		return m, m.results.SetItems(items)

	case MsgShowFetched:
		res := msg.data.(showFetched)
		m.loading = false
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.show = res.show
		m.seasons = res.seasons
		items := make([]list.Item, len(res.seasons))
		for i, season := range res.seasons {
			items[i] = seasonItem{season: season}
		}
		m.seasonList.Title = res.show.Name
		m.seasonList.Select(0)
		m.view = ShowView
		return m, m.seasonList.SetItems(items)

	case MsgEpisodesFetched:
		res := msg.data.(episodesFetched)
		m.loading = false
		if res.err != nil {
			m.err = res.err
			return m, nil
		}
		m.err = nil
		m.season = res.season
		m.episodes = res.episodes
		items := make([]list.Item, len(res.episodes))
		for i, ep := range res.episodes {
			items[i] = episodeItem{episode: ep}
		}
		m.episodeList.Title = m.seasonTitle(res.season)
		m.episodeList.Select(0)
		cmd := m.episodeList.SetItems(items)

		m.view = SeasonView
		if res.open > 0 {
			m.openEpisode(res.open)
		}
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		if item, ok := m.results.SelectedItem().(showItem); ok {
			m.loading = true
			return m, m.fetchShow(item.show.ID)
		}
		return m, nil
	case tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != before {
		return m, tea.Batch(cmd, m.queueSearch())
	}
	return m, cmd
}

func (m *Model) handleShowKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SearchView
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.seasonList.SelectedItem().(seasonItem); ok {
			m.loading = true
			return m, m.fetchEpisodes(m.show.ID, item.season.Number, 0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.seasonList, cmd = m.seasonList.Update(msg)
	return m, cmd
}

func (m *Model) handleSeasonKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	prev, next := formatter.AdjacentSeasons(m.season, m.seasons)

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ShowView
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.episodeList.SelectedItem().(episodeItem); ok {
			m.openEpisode(item.episode.Number)
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if prev {
			m.loading = true
			return m, m.fetchEpisodes(m.show.ID, m.season-1, 0)
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		if next {
			m.loading = true
			return m, m.fetchEpisodes(m.show.ID, m.season+1, 0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.episodeList, cmd = m.episodeList.Update(msg)
	return m, cmd
}

func (m *Model) handleEpisodeKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SeasonView
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if ref, ok := formatter.PreviousEpisode(m.show.ID, *m.episode, m.episodes, m.seasons); ok {
			return m, m.goTo(ref)
		}
	case key.Matches(msg, m.keys.next):
		if ref, ok := formatter.NextEpisode(m.show.ID, *m.episode, m.episodes, m.seasons); ok {
			return m, m.goTo(ref)
		}
	}
	return m, nil
}

// goTo opens ref, loading its season first when it is not the one on screen.
func (m *Model) goTo(ref models.EpisodeRef) tea.Cmd {
	if ref.Season == m.season {
		m.openEpisode(ref.Number)
		return nil
	}
	m.loading = true
	return m.fetchEpisodes(ref.ShowID, ref.Season, ref.Number)
}

// openEpisode switches to the detail view for episode number of the loaded season.
func (m *Model) openEpisode(number int) {
	for i, ep := range m.episodes {
		if ep.Number == number {
			m.episode = &m.episodes[i]
			m.episodeList.Select(i)
			m.view = EpisodeView
			return
		}
	}
}

func (m *Model) resize() {
	w := max(m.width-4, 0)
	h := max(m.height-10, 0)
	m.results.SetSize(w, h)
	m.seasonList.SetSize(w, h)
	m.episodeList.SetSize(w, h)
	m.input.Width = max(w-len(m.input.Prompt), 0)
}

func (m *Model) queueSearch() tea.Cmd {
	m.searchSeq++
	seq, query := m.searchSeq, m.input.Value()
	return tea.Tick(searchDebounce, func(time.Time) tea.Msg {
		return searchTickMsg(seq, query)
	})
}

func (m *Model) search(seq int, query string) tea.Cmd {
	return func() tea.Msg {
		shows, err := m.catalog.SearchShows(m.ctx, query, m.searchLimit)
		return searchResultsMsg(seq, shows, err)
	}
}

func (m *Model) fetchShow(id int64) tea.Cmd {
	return func() tea.Msg {
		show, err := m.catalog.Show(m.ctx, id)
		if err != nil {
			return showFetchedMsg(nil, nil, err)
		}
		seasons, err := m.catalog.Seasons(m.ctx, id)
		return showFetchedMsg(show, seasons, err)
	}
}

func (m *Model) fetchEpisodes(showID int64, season, open int) tea.Cmd {
	return func() tea.Msg {
		episodes, err := m.catalog.Episodes(m.ctx, showID, season)
		return episodesFetchedMsg(season, episodes, open, err)
	}
}

func (m *Model) seasonTitle(number int) string {
	for _, s := range m.seasons {
		if s.Number == number {
			return formatter.SeasonTitle(s)
		}
	}
	return fmt.Sprintf("Season %d", number)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	switch m.view {
	case SearchView:
		b.WriteString(m.renderSearch())
	case ShowView:
		b.WriteString(m.renderShow())
	case SeasonView:
		b.WriteString(m.episodeList.View())
	case EpisodeView:
		b.WriteString(m.renderEpisode())
	}

	b.WriteString("\n")
	if m.loading {
		b.WriteString(styles.warn.Render("Loading..."))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(styles.err.Render("Error: " + services.Message(m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(m.helpKeys()))
	return b.String()
}

func (m *Model) renderHeader() string {
	status := styles.warn.Render("not signed in")
	if m.viewer != nil {
		if user := m.viewer.User(); user != nil {
			status = styles.ok.Render("signed in as " + user.Username)
		}
	}
	return styles.header.Render(fmt.Sprintf("tvbf • %s", status))
}

func (m *Model) renderSearch() string {
	var b strings.Builder

	if m.query == "" && len(m.results.Items()) == 0 {
		b.WriteString(styles.title.Render(m.banner))
		b.WriteString("\n")
	}

	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case len(m.results.Items()) > 0:
		b.WriteString(m.results.View())
	case m.query != "" && !m.loading && m.err == nil:
		b.WriteString(styles.help.Render("No shows found"))
	}
	return b.String()
}

func (m *Model) renderShow() string {
	var b strings.Builder
	show := m.show

	b.WriteString(styles.title.Render(show.Name))
	b.WriteString("\n")
	m.writeField(&b, "Premiered", formatter.FormatYear(show.Premiered))
	if genres := formatter.FormatGenres(show.Genres); genres != "" {
		m.writeField(&b, "Genres", genres)
	}
	if network := formatter.FormatNetwork(show.Broadcaster()); network != "" {
		m.writeField(&b, "Network", network)
	}
	m.writeField(&b, "Rating", formatter.FormatRating(show.Rating))

	if summary := formatter.StripHTML(show.Summary); summary != "" {
		style := lipgloss.NewStyle()
		if m.width > 4 {
			style = style.Width(m.width - 4)
		}
		b.WriteString("\n")
		b.WriteString(style.Render(summary))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.seasonList.View())
	return b.String()
}

func (m *Model) renderEpisode() string {
	var prev, next *models.EpisodeRef
	if ref, ok := formatter.PreviousEpisode(m.show.ID, *m.episode, m.episodes, m.seasons); ok {
		prev = &ref
	}
	if ref, ok := formatter.NextEpisode(m.show.ID, *m.episode, m.episodes, m.seasons); ok {
		next = &ref
	}

	header := styles.title.Render(m.show.Name)
	return fmt.Sprintf("%s\n%s", header, formatter.EpisodeToText(m.episode, prev, next))
}

func (m *Model) writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s %s\n", styles.label.Render(fmt.Sprintf("%-10s", label)), value)
}

func (m *Model) helpKeys() []key.Binding {
	switch m.view {
	case SearchView:
		return []key.Binding{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑/↓", "results")),
			m.keys.enter,
			m.keys.abort,
		}
	case ShowView:
		return []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	case SeasonView:
		return []key.Binding{
			m.keys.enter,
			key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "season")),
			m.keys.back,
			m.keys.quit,
		}
	case EpisodeView:
		return []key.Binding{
			key.NewBinding(key.WithKeys("["), key.WithHelp("[/]", "episode")),
			m.keys.back,
			m.keys.quit,
		}
	}
	return []key.Binding{m.keys.quit}
}
