package testing

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/tvbf/internal/models"
)

func rating(v float64) models.Rating {
	return models.Rating{Average: &v}
}

// Fixture catalog: one show with two seasons (three episodes, then two).
var (
	FixtureShow = models.Show{
		ID:        1,
		Name:      "Harbor Lights",
		Type:      "Scripted",
		Language:  "English",
		Genres:    []string{"Drama", "Mystery", "Crime", "Thriller"},
		Status:    "Ended",
		Runtime:   60,
		Premiered: "2019-03-04",
		Ended:     "2020-05-11",
		Rating:    rating(8.4),
		Network:   &models.Network{ID: 3, Name: "BBC One", Country: &models.Country{Name: "United Kingdom", Code: "GB"}},
		Image:     &models.Image{Medium: "https://img.example/1.jpg"},
		Summary:   "<p>A <b>coastal</b> town keeps its secrets.</p>",
	}

	FixtureSeasons = []models.Season{
		{ID: 10, Number: 1, Name: "", EpisodeOrder: 3, PremiereDate: "2019-03-04", EndDate: "2019-03-18"},
		{ID: 11, Number: 2, Name: "Undertow", EpisodeOrder: 2, PremiereDate: "2020-05-04", EndDate: "2020-05-11"},
	}

	FixtureEpisodes = map[int][]models.Episode{
		1: {
			{ID: 100, Name: "Arrival", Season: 1, Number: 1, Airdate: "2019-03-04", Airtime: "21:00", Runtime: 60, Rating: rating(8.1)},
			{ID: 101, Name: "Low Tide", Season: 1, Number: 2, Airdate: "2019-03-11", Airtime: "21:00", Runtime: 58},
			{ID: 102, Name: "Beacon", Season: 1, Number: 3, Airdate: "2019-03-18", Airtime: "21:00", Runtime: 62, Summary: "<p>The light goes out.</p>"},
		},
		2: {
			{ID: 200, Name: "Return", Season: 2, Number: 1, Airdate: "2020-05-04", Airtime: "20:30", Runtime: 60},
			{ID: 201, Name: "Undertow", Season: 2, Number: 2, Airdate: "2020-05-11", Airtime: "", Runtime: 0},
		},
	}
)

// CatalogServer is an in-process fake serving the show, season and episode service routes from one listener.
type CatalogServer struct {
	*httptest.Server

	mu    sync.Mutex
	calls map[string]int
	query []string
}

// NewCatalogServer starts a fake catalog backed by the fixture show, closed when t finishes.
func NewCatalogServer(t *testing.T) *CatalogServer {
	t.Helper()

	c := &CatalogServer{calls: make(map[string]int)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/shows/search", c.handleSearch)
	mux.HandleFunc("GET /api/shows/{id}", c.handleShow)
	mux.HandleFunc("GET /api/shows/{id}/seasons", c.handleSeasons)
	mux.HandleFunc("GET /api/shows/{id}/seasons/{n}", c.handleSeason)
	mux.HandleFunc("GET /api/shows/{id}/seasons/{n}/episodes", c.handleEpisodes)

	c.Server = httptest.NewServer(mux)
	t.Cleanup(c.Close)
	return c
}

// Calls returns how many requests hit path.
func (c *CatalogServer) Calls(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[path]
}

// Queries returns the raw query strings sent to the search route.
func (c *CatalogServer) Queries() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.query...)
}

func (c *CatalogServer) record(r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[r.URL.Path]++
	if strings.HasSuffix(r.URL.Path, "/search") {
		c.query = append(c.query, r.URL.RawQuery)
	}
}

func showFromPath(w http.ResponseWriter, r *http.Request) bool {
	if r.PathValue("id") != strconv.FormatInt(FixtureShow.ID, 10) {
		writeError(w, http.StatusNotFound, "Show not found")
		return false
	}
	return true
}

func (c *CatalogServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	c.record(r)

	q := strings.ToLower(r.URL.Query().Get("q"))
	results := []models.Show{}
	if q != "" && strings.Contains(strings.ToLower(FixtureShow.Name), q) {
		results = append(results, FixtureShow)
	}
	writeJSON(w, http.StatusOK, models.SearchResult{Results: results, Total: len(results)})
}

func (c *CatalogServer) handleShow(w http.ResponseWriter, r *http.Request) {
	c.record(r)
	if !showFromPath(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, FixtureShow)
}

func (c *CatalogServer) handleSeasons(w http.ResponseWriter, r *http.Request) {
	c.record(r)
	if !showFromPath(w, r) {
		return
	}
	writeJSON(w, http.StatusOK, FixtureSeasons)
}

func (c *CatalogServer) handleSeason(w http.ResponseWriter, r *http.Request) {
	c.record(r)
	if !showFromPath(w, r) {
		return
	}
	for _, s := range FixtureSeasons {
		if strconv.Itoa(s.Number) == r.PathValue("n") {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeError(w, http.StatusNotFound, "Season not found")
}

func (c *CatalogServer) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	c.record(r)
	if !showFromPath(w, r) {
		return
	}
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid season number")
		return
	}
	episodes, ok := FixtureEpisodes[n]
	if !ok {
		writeError(w, http.StatusNotFound, "Season not found")
		return
	}
	writeJSON(w, http.StatusOK, episodes)
}
