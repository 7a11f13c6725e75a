package tasks

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/desertthunder/tvbf/internal/formatter"
	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/shared"
)

const (
	defaultWorkers = 3
	maxWorkers     = 10
	manifestName   = "export_manifest.json"
)

// ExportOpts contains configuration for a season export.
type ExportOpts struct {
	Format     formatter.Format // Export format: text, markdown, csv, json
	OutputDir  string           // Output directory (default: show-{id}-episodes)
	NumWorkers int              // Concurrent workers (default: 3, max: 10)
}

type seasonJob struct {
	season  models.Season
	seasons []models.Season
}

// Export writes one file per season of the show and a manifest summarizing the results.
//
// Request pacing is left to the catalog client. A season that fails to fetch or write is
// recorded as failed and the rest continue. Results are ordered by season number.
func (e *SeasonExporter) Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	showID int64,
	opts ExportOpts,
) (*ExportResult, error) {
	if e.catalog == nil {
		return nil, fmt.Errorf("%w: catalog not initialized", shared.ErrServiceUnavailable)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if _, err := formatter.ParseFormat(string(opts.Format)); err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("show-%d-episodes", showID)
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = defaultWorkers
	}
	if opts.NumWorkers > maxWorkers {
		opts.NumWorkers = maxWorkers
	}

	e.sendProgress(prog, fetchShowUpdate(showID))

	show, err := e.catalog.Show(ctx, showID)
	if err != nil {
		return nil, err
	}
	seasons, err := e.catalog.Seasons(ctx, showID)
	if err != nil {
		return nil, err
	}
	e.sendProgress(prog, foundSeasonsUpdate(show, seasons))

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ExportResult{
		ShowID:          show.ID,
		ShowName:        show.Name,
		Format:          string(opts.Format),
		TotalSeasons:    len(seasons),
		OutputDirectory: opts.OutputDir,
		Results:         make([]SeasonExportResult, 0, len(seasons)),
	}

	jobs := make(chan seasonJob, len(seasons))
	results := make(chan SeasonExportResult, len(seasons))

	var wg sync.WaitGroup
	for i := 0; i < min(opts.NumWorkers, max(len(seasons), 1)); i++ {
		wg.Add(1)
		go e.exportWorker(ctx, &wg, showID, jobs, results, opts)
	}

	for _, s := range seasons {
		jobs <- seasonJob{season: s, seasons: seasons}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.SuccessfulExports++
			e.sendProgress(prog, seasonCompletedUpdate(completed, len(seasons), res))
		} else {
			result.FailedExports++
			e.sendProgress(prog, seasonFailedUpdate(completed, len(seasons), res))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	sort.Slice(result.Results, func(i, j int) bool {
		return result.Results[i].Season < result.Results[j].Season
	})

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	e.sendProgress(prog, manifestUpdate(manifestPath))

	data, err := shared.MarshalJSON(result, true)
	if err != nil {
		return result, fmt.Errorf("export completed but failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(manifestPath, data, 0644); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// exportWorker is a worker goroutine that exports seasons from the jobs channel.
func (e *SeasonExporter) exportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	showID int64,
	jobs <-chan seasonJob,
	results chan<- SeasonExportResult,
	opts ExportOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		results <- e.exportSeason(ctx, showID, job, opts)
	}
}

// exportSeason fetches one season's episodes and writes them in the requested format.
func (e *SeasonExporter) exportSeason(ctx context.Context, showID int64, j seasonJob, opts ExportOpts) SeasonExportResult {
	result := SeasonExportResult{
		Season: j.season.Number,
		Title:  formatter.SeasonTitle(j.season),
		Files:  []string{},
	}
	fail := func(err error) SeasonExportResult {
		result.Error = err
		result.Message = err.Error()
		return result
	}

	episodes, err := e.catalog.Episodes(ctx, showID, j.season.Number)
	if err != nil {
		return fail(fmt.Errorf("failed to fetch episodes: %w", err))
	}
	result.Episodes = len(episodes)

	base := filepath.Join(opts.OutputDir, fmt.Sprintf("season-%02d", j.season.Number))

	var (
		path string
		data []byte
	)
	switch opts.Format {
	case formatter.FormatCSV:
		path = base + ".csv"
		data, err = formatter.EpisodesToCSV(episodes)
		if err != nil {
			return fail(fmt.Errorf("CSV export failed: %w", err))
		}
	case formatter.FormatMarkdown:
		path = base + ".md"
		data = seasonMarkdown(j.season, episodes)
	case formatter.FormatText:
		path = base + ".txt"
		data = formatter.SeasonToText(&j.season, episodes, j.seasons)
	default:
		path = base + ".json"
		data, err = shared.MarshalJSON(struct {
			models.Season
			Episodes []models.Episode `json:"episodes"`
		}{j.season, episodes}, true)
		if err != nil {
			return fail(fmt.Errorf("JSON marshal failed: %w", err))
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fail(fmt.Errorf("write failed: %w", err))
	}

	result.Files = []string{path}
	result.Success = true
	return result
}

func seasonMarkdown(season models.Season, episodes []models.Episode) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("# %s\n\n", formatter.SeasonTitle(season)))
	for i := range episodes {
		md := bytes.Replace(formatter.EpisodeToMarkdown(&episodes[i]), []byte("# "), []byte("## "), 1)
		buf.Write(md)
		buf.WriteString("\n")
	}
	return buf.Bytes()
}
