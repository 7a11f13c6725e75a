package tasks

import (
	"context"

	"github.com/desertthunder/tvbf/internal/models"
)

// Catalog is the subset of the catalog client an export reads from.
type Catalog interface {
	Show(ctx context.Context, id int64) (*models.Show, error)
	Seasons(ctx context.Context, showID int64) ([]models.Season, error)
	Episodes(ctx context.Context, showID int64, season int) ([]models.Episode, error)
}

// SeasonExportResult is the outcome for one season.
type SeasonExportResult struct {
	Season   int      `json:"season"`
	Title    string   `json:"title"`
	Episodes int      `json:"episodes"`
	Files    []string `json:"files"`
	Success  bool     `json:"success"`
	Error    error    `json:"-"`
	Message  string   `json:"error,omitempty"`
}

// ExportResult summarizes a whole-show export and is written as the manifest.
type ExportResult struct {
	ShowID            int64                `json:"show_id"`
	ShowName          string               `json:"show_name"`
	Format            string               `json:"format"`
	TotalSeasons      int                  `json:"total_seasons"`
	SuccessfulExports int                  `json:"successful_exports"`
	FailedExports     int                  `json:"failed_exports"`
	OutputDirectory   string               `json:"output_directory"`
	ManifestPath      string               `json:"-"`
	Results           []SeasonExportResult `json:"results"`
}

// SeasonExporter exports shows season by season through a [Catalog].
type SeasonExporter struct {
	catalog Catalog
}

// NewSeasonExporter creates a SeasonExporter reading from catalog.
func NewSeasonExporter(catalog Catalog) *SeasonExporter {
	return &SeasonExporter{catalog: catalog}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *SeasonExporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
