package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/shared"
	"golang.org/x/time/rate"
)

// DefaultSearchLimit is the number of results requested when the caller does not set one.
const DefaultSearchLimit = 20

// CatalogServiceOpts configures a [CatalogService].
type CatalogServiceOpts struct {
	ShowURL           string
	SeasonURL         string
	EpisodeURL        string
	HTTPClient        *http.Client
	RequestsPerSecond float64
	Burst             int
	SearchLimit       int
	Logger            *log.Logger
}

// CatalogService reads shows, seasons and episodes from their three services.
//
// Calls are unauthenticated, uncached and paced by a shared rate limiter.
type CatalogService struct {
	shows       *APIService
	seasons     *APIService
	episodes    *APIService
	limiter     *rate.Limiter
	searchLimit int
	logger      *log.Logger
}

// NewCatalogService creates a catalog client. A non-positive rate disables pacing.
func NewCatalogService(opts CatalogServiceOpts) *CatalogService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}
	searchLimit := opts.SearchLimit
	if searchLimit < 1 {
		searchLimit = DefaultSearchLimit
	}

	c := &CatalogService{
		shows:       NewAPIService(opts.ShowURL, opts.HTTPClient),
		seasons:     NewAPIService(opts.SeasonURL, opts.HTTPClient),
		episodes:    NewAPIService(opts.EpisodeURL, opts.HTTPClient),
		limiter:     rate.NewLimiter(limit, burst),
		searchLimit: searchLimit,
		logger:      logger,
	}
	for _, api := range []*APIService{c.shows, c.seasons, c.episodes} {
		api.SetLogger(logger)
	}
	return c
}

func (c *CatalogService) get(ctx context.Context, api *APIService, path string) (*APIResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return api.Get(ctx, path)
}

// SearchShows searches shows by name. A blank query returns no results without a request.
func (c *CatalogService) SearchShows(ctx context.Context, query string, limit int) ([]models.Show, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Show{}, nil
	}
	if limit < 1 {
		limit = c.searchLimit
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))

	resp, err := c.get(ctx, c.shows, "/api/shows/search?"+params.Encode())

	var result models.SearchResult
	if err := expect("search shows", resp, err, "Search failed", shared.ErrAPIRequest, &result); err != nil {
		return nil, err
	}
	if result.Results == nil {
		result.Results = []models.Show{}
	}

	c.logger.Debug("search completed", "query", query, "results", len(result.Results))
	return result.Results, nil
}

// Show fetches a single show.
func (c *CatalogService) Show(ctx context.Context, id int64) (*models.Show, error) {
	resp, err := c.get(ctx, c.shows, fmt.Sprintf("/api/shows/%d", id))

	var show models.Show
	if err := expect("get show", resp, err, "Failed to fetch show", notFound(resp, shared.ErrShowNotFound), &show); err != nil {
		return nil, err
	}
	return &show, nil
}

// Seasons lists the seasons of a show in the order the service returns them.
func (c *CatalogService) Seasons(ctx context.Context, showID int64) ([]models.Season, error) {
	resp, err := c.get(ctx, c.seasons, fmt.Sprintf("/api/shows/%d/seasons", showID))

	var seasons []models.Season
	if err := expect("list seasons", resp, err, "Failed to fetch seasons", notFound(resp, shared.ErrShowNotFound), &seasons); err != nil {
		return nil, err
	}
	return seasons, nil
}

// Season fetches one season by number.
func (c *CatalogService) Season(ctx context.Context, showID int64, number int) (*models.Season, error) {
	resp, err := c.get(ctx, c.seasons, fmt.Sprintf("/api/shows/%d/seasons/%d", showID, number))

	var season models.Season
	if err := expect("get season", resp, err, "Failed to fetch season", notFound(resp, shared.ErrSeasonNotFound), &season); err != nil {
		return nil, err
	}
	return &season, nil
}

// Episodes lists the episodes of a season.
func (c *CatalogService) Episodes(ctx context.Context, showID int64, season int) ([]models.Episode, error) {
	resp, err := c.get(ctx, c.episodes, fmt.Sprintf("/api/shows/%d/seasons/%d/episodes", showID, season))

	var episodes []models.Episode
	if err := expect("list episodes", resp, err, "Failed to fetch episodes", notFound(resp, shared.ErrSeasonNotFound), &episodes); err != nil {
		return nil, err
	}
	return episodes, nil
}

// Episode finds one episode by scanning its season's episode list.
func (c *CatalogService) Episode(ctx context.Context, showID int64, season, number int) (*models.Episode, error) {
	episodes, err := c.Episodes(ctx, showID, season)
	if err != nil {
		return nil, err
	}

	for i := range episodes {
		if episodes[i].Number == number {
			return &episodes[i], nil
		}
	}

	return nil, &Error{
		Op:         "get episode",
		StatusCode: http.StatusNotFound,
		Message:    "Episode not found",
		Err:        shared.ErrEpisodeNotFound,
	}
}

// notFound picks the not-found sentinel for 404 responses and [shared.ErrAPIRequest] otherwise.
func notFound(resp *APIResponse, sentinel error) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return sentinel
	}
	return shared.ErrAPIRequest
}
