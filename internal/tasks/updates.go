package tasks

import (
	"fmt"

	"github.com/desertthunder/tvbf/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchShow Phase = iota
	FetchSeasons
	ExportSeason
	WriteManifest
)

func (p Phase) String() string {
	switch p {
	case FetchShow:
		return "fetch_show"
	case FetchSeasons:
		return "fetch_seasons"
	case ExportSeason:
		return "export_season"
	case WriteManifest:
		return "write_manifest"
	default:
		return ""
	}
}

func fetchShowUpdate(id int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchShow,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching show %d...", id),
	}
}

func foundSeasonsUpdate(show *models.Show, seasons []models.Season) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSeasons,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %s (%d seasons)", show.Name, len(seasons)),
		Data:    seasons,
	}
}

func seasonCompletedUpdate(step, total int, res SeasonExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSeason,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d episodes)", step, total, res.Title, res.Episodes),
		Data:    res,
	}
}

func seasonFailedUpdate(step, total int, res SeasonExportResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportSeason,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Title, res.Error),
		Data:    res,
	}
}

func manifestUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteManifest,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %s", path),
	}
}
