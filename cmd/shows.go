package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/tvbf/internal/formatter"
	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/shared"
	"github.com/desertthunder/tvbf/internal/tasks"
	"github.com/urfave/cli/v3"
)

func parseShowID(cmd *cli.Command) (int64, error) {
	raw := strings.TrimSpace(cmd.StringArg("show-id"))
	if raw == "" {
		return 0, fmt.Errorf("%w: show-id", shared.ErrMissingArgument)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: show-id must be a positive integer, got %q", shared.ErrInvalidArgument, raw)
	}
	return id, nil
}

func parseNumberArg(cmd *cli.Command, name string) (int, error) {
	raw := strings.TrimSpace(cmd.StringArg(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return n, nil
}

// ShowsSearch searches the show service by name.
func (r *Runner) ShowsSearch(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	query, err := r.argOrPrompt(cmd, "query", "Search")
	if err != nil {
		return err
	}

	r.logger.Debug("searching shows", "query", query)
	shows, err := r.catalog.SearchShows(ctx, query, int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(shows, true)
	case formatter.FormatCSV, formatter.FormatMarkdown:
		return fmt.Errorf("%w: search results support text and json only", shared.ErrInvalidArgument)
	default:
		return r.writeBytes(formatter.SearchResultsToText(shows))
	}
}

// ShowsGet prints a show with its seasons, or exports it as a Markdown directory.
func (r *Runner) ShowsGet(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	id, err := parseShowID(cmd)
	if err != nil {
		return err
	}

	show, err := r.catalog.Show(ctx, id)
	if err != nil {
		return err
	}

	seasons, err := r.catalog.Seasons(ctx, id)
	if err != nil {
		r.logger.Warn("failed to fetch seasons", "show_id", id, "error", err)
		seasons = nil
	}

	if cmd.Bool("open") && show.URL != "" {
		if err := shared.OpenBrowser(show.URL); err != nil {
			r.logger.Warn("failed to open browser", "url", show.URL, "error", err)
		}
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(struct {
			*models.Show
			Seasons []models.Season `json:"seasons"`
		}{show, seasons}, true)
	case formatter.FormatMarkdown:
		result, err := formatter.WriteMarkdownExport(r.httpClient, show, seasons, cmd.String("output"), r.output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %s to %s\n", show.Name, result.Directory)
		for _, f := range result.Files {
			r.writePlain("  %s\n", f)
		}
		return nil
	case formatter.FormatCSV:
		return fmt.Errorf("%w: csv output is available for episode lists only", shared.ErrInvalidArgument)
	default:
		return r.writeBytes(formatter.ShowToText(show, seasons))
	}
}

// ShowsSeasons lists a show's seasons.
func (r *Runner) ShowsSeasons(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	id, err := parseShowID(cmd)
	if err != nil {
		return err
	}

	seasons, err := r.catalog.Seasons(ctx, id)
	if err != nil {
		return err
	}

	if format == formatter.FormatJSON {
		return r.writeJSON(seasons, true)
	}

	if len(seasons) == 0 {
		return r.writePlain("No seasons found\n")
	}
	for _, s := range seasons {
		r.writePlain("%s", formatter.SeasonTitle(s))
		if s.EpisodeOrder > 0 {
			r.writePlain(" (%d episodes)", s.EpisodeOrder)
		}
		if date := formatter.FormatDate(s.PremiereDate); date != "" {
			r.writePlain(" - %s", date)
		}
		r.writePlain("\n")
	}
	return nil
}

// ShowsSeason prints a season and its episodes.
func (r *Runner) ShowsSeason(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	id, err := parseShowID(cmd)
	if err != nil {
		return err
	}
	number, err := parseNumberArg(cmd, "season")
	if err != nil {
		return err
	}

	season, err := r.catalog.Season(ctx, id, number)
	if err != nil {
		return err
	}
	episodes, err := r.catalog.Episodes(ctx, id, number)
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(struct {
			*models.Season
			Episodes []models.Episode `json:"episodes"`
		}{season, episodes}, true)
	case formatter.FormatCSV:
		data, err := formatter.EpisodesToCSV(episodes)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	case formatter.FormatMarkdown:
		return fmt.Errorf("%w: markdown output is available for shows and episodes only", shared.ErrInvalidArgument)
	}

	seasons, err := r.catalog.Seasons(ctx, id)
	if err != nil {
		r.logger.Warn("failed to fetch seasons", "show_id", id, "error", err)
	}
	return r.writeBytes(formatter.SeasonToText(season, episodes, seasons))
}

// ShowsEpisodes lists a season's episodes.
func (r *Runner) ShowsEpisodes(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	id, err := parseShowID(cmd)
	if err != nil {
		return err
	}
	number, err := parseNumberArg(cmd, "season")
	if err != nil {
		return err
	}

	episodes, err := r.catalog.Episodes(ctx, id, number)
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(episodes, true)
	case formatter.FormatCSV:
		data, err := formatter.EpisodesToCSV(episodes)
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	case formatter.FormatMarkdown:
		for _, ep := range episodes {
			if err := r.writeBytes(formatter.EpisodeToMarkdown(&ep)); err != nil {
				return err
			}
			r.writePlain("\n")
		}
		return nil
	}

	if len(episodes) == 0 {
		return r.writePlain("No episodes found\n")
	}
	for _, ep := range episodes {
		r.writePlain("%s %s", formatter.EpisodeCode(ep.Season, ep.Number), ep.Name)
		if date := formatter.FormatDate(ep.Airdate); date != "" {
			r.writePlain(" - %s", date)
		}
		r.writePlain("\n")
	}
	return nil
}

// ShowsEpisode prints an episode with references to the episodes before and after it.
func (r *Runner) ShowsEpisode(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	id, err := parseShowID(cmd)
	if err != nil {
		return err
	}
	seasonNumber, err := parseNumberArg(cmd, "season")
	if err != nil {
		return err
	}
	number, err := parseNumberArg(cmd, "episode")
	if err != nil {
		return err
	}

	ep, err := r.catalog.Episode(ctx, id, seasonNumber, number)
	if err != nil {
		return err
	}

	switch format {
	case formatter.FormatJSON:
		return r.writeJSON(ep, true)
	case formatter.FormatMarkdown:
		return r.writeBytes(formatter.EpisodeToMarkdown(ep))
	case formatter.FormatCSV:
		data, err := formatter.EpisodesToCSV([]models.Episode{*ep})
		if err != nil {
			return err
		}
		return r.writeBytes(data)
	}

	var prev, next *models.EpisodeRef
	episodes, err := r.catalog.Episodes(ctx, id, seasonNumber)
	if err != nil {
		r.logger.Warn("failed to fetch episodes for navigation", "error", err)
	}
	seasons, err := r.catalog.Seasons(ctx, id)
	if err != nil {
		r.logger.Warn("failed to fetch seasons for navigation", "error", err)
	}
	if ref, ok := formatter.PreviousEpisode(id, *ep, episodes, seasons); ok {
		prev = &ref
	}
	if ref, ok := formatter.NextEpisode(id, *ep, episodes, seasons); ok {
		next = &ref
	}

	return r.writeBytes(formatter.EpisodeToText(ep, prev, next))
}

// ShowsExport writes a show's episodes to one file per season, reporting progress as seasons finish.
func (r *Runner) ShowsExport(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	id, err := parseShowID(cmd)
	if err != nil {
		return err
	}

	prog := make(chan tasks.ProgressUpdate, 16)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range prog {
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := tasks.NewSeasonExporter(r.catalog).Export(ctx, prog, id, tasks.ExportOpts{
		Format:     format,
		OutputDir:  cmd.String("output"),
		NumWorkers: int(cmd.Int("workers")),
	})
	close(prog)
	<-done

	if err != nil {
		return err
	}

	r.writePlainln("✓ Exported %d of %d seasons of %s to %s", result.SuccessfulExports, result.TotalSeasons, result.ShowName, result.OutputDirectory)
	if result.FailedExports > 0 {
		r.logger.Warn("some seasons failed to export", "failed", result.FailedExports)
		return fmt.Errorf("%w: %d seasons failed, see %s", shared.ErrAPIRequest, result.FailedExports, result.ManifestPath)
	}
	return nil
}
