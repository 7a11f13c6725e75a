// package formatter renders catalog data as plain text, Markdown and CSV, and computes episode navigation
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/shared"
)

// Format selects an output renderer.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatMarkdown, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, csv or json)", shared.ErrInvalidArgument, s)
	}
}

// SearchResultsToText lists search results one per line with year and genres.
func SearchResultsToText(shows []models.Show) []byte {
	var buf bytes.Buffer

	if len(shows) == 0 {
		buf.WriteString("No shows found\n")
		return buf.Bytes()
	}

	for _, show := range shows {
		buf.WriteString(fmt.Sprintf("[%d] %s", show.ID, show.Name))
		if year := FormatYear(show.Premiered); year != "" {
			buf.WriteString(fmt.Sprintf(" (%s)", year))
		}
		if genres := FormatGenres(show.Genres); genres != "" {
			buf.WriteString(fmt.Sprintf(" - %s", genres))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// ShowToText renders show detail and its season list as plain text.
func ShowToText(show *models.Show, seasons []models.Season) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s\n", show.Name))
	writeField(&buf, "Type", show.Type)
	writeField(&buf, "Language", show.Language)
	writeField(&buf, "Genres", FormatGenres(show.Genres))
	writeField(&buf, "Status", show.Status)
	writeField(&buf, "Premiered", FormatDate(show.Premiered))
	if show.Ended != "" {
		writeField(&buf, "Ended", FormatDate(show.Ended))
	}
	writeField(&buf, "Network", FormatNetwork(show.Broadcaster()))
	writeField(&buf, "Rating", FormatRating(show.Rating))

	if summary := StripHTML(show.Summary); summary != "" {
		buf.WriteString(fmt.Sprintf("\n%s\n", summary))
	}

	if len(seasons) > 0 {
		buf.WriteString(fmt.Sprintf("\nSeasons: %d\n", len(seasons)))
		for _, s := range seasons {
			buf.WriteString(fmt.Sprintf("  %d. %s", s.Number, SeasonTitle(s)))
			if s.EpisodeOrder > 0 {
				buf.WriteString(fmt.Sprintf(" (%d episodes)", s.EpisodeOrder))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes()
}

// ShowToMarkdown renders show detail as Markdown with an optional cover image.
func ShowToMarkdown(show *models.Show, seasons []models.Season, imageFilename string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", show.Name))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	if genres := FormatGenres(show.Genres); genres != "" {
		buf.WriteString(fmt.Sprintf("**Genres**: %s\n", genres))
	}
	buf.WriteString(fmt.Sprintf("**Status**: %s\n", show.Status))
	buf.WriteString(fmt.Sprintf("**Premiered**: %s\n", FormatDate(show.Premiered)))
	if network := FormatNetwork(show.Broadcaster()); network != "" {
		buf.WriteString(fmt.Sprintf("**Network**: %s\n", network))
	}
	buf.WriteString(fmt.Sprintf("**Rating**: %s\n\n", FormatRating(show.Rating)))

	if summary := StripHTML(show.Summary); summary != "" {
		buf.WriteString(fmt.Sprintf("%s\n\n", summary))
	}

	if len(seasons) > 0 {
		buf.WriteString("## Seasons\n\n")
		for _, s := range seasons {
			buf.WriteString(fmt.Sprintf("%d. %s", s.Number, SeasonTitle(s)))
			if s.EpisodeOrder > 0 {
				buf.WriteString(fmt.Sprintf(" (%d episodes)", s.EpisodeOrder))
			}
			if s.PremiereDate != "" {
				buf.WriteString(fmt.Sprintf(" [%s]", FormatDate(s.PremiereDate)))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes()
}

// SeasonToText renders a season header and its episode list.
func SeasonToText(season *models.Season, episodes []models.Episode, seasons []models.Season) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Season %d", season.Number))
	if season.Name != "" {
		buf.WriteString(fmt.Sprintf(": %s", season.Name))
	}
	buf.WriteString("\n")
	writeField(&buf, "Premiered", FormatDate(season.PremiereDate))
	writeField(&buf, "Ended", FormatDate(season.EndDate))
	writeField(&buf, "Network", FormatNetwork(season.Broadcaster()))

	if summary := StripHTML(season.Summary); summary != "" {
		buf.WriteString(fmt.Sprintf("\n%s\n", summary))
	}

	buf.WriteString(fmt.Sprintf("\nEpisodes: %d\n", len(episodes)))
	for _, ep := range episodes {
		buf.WriteString(fmt.Sprintf("  %d. %s (%s)\n", ep.Number, ep.Name, FormatDate(ep.Airdate)))
	}

	prev, next := AdjacentSeasons(season.Number, seasons)
	if prev || next {
		buf.WriteString("\n")
		if prev {
			buf.WriteString(fmt.Sprintf("Previous: season %d\n", season.Number-1))
		}
		if next {
			buf.WriteString(fmt.Sprintf("Next: season %d\n", season.Number+1))
		}
	}

	return buf.Bytes()
}

// EpisodeToText renders episode detail with previous/next references when known.
func EpisodeToText(ep *models.Episode, prev, next *models.EpisodeRef) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("%s %s\n", EpisodeCode(ep.Season, ep.Number), ep.Name))
	writeField(&buf, "Aired", FormatDate(ep.Airdate))
	writeField(&buf, "Airtime", FormatAirtime(ep.Airtime))
	writeField(&buf, "Runtime", FormatRuntime(ep.Runtime))
	writeField(&buf, "Rating", FormatRating(ep.Rating))

	if summary := StripHTML(ep.Summary); summary != "" {
		buf.WriteString(fmt.Sprintf("\n%s\n", summary))
	}

	if prev != nil || next != nil {
		buf.WriteString("\n")
		if prev != nil {
			buf.WriteString(fmt.Sprintf("Previous: %s\n", EpisodeCode(prev.Season, prev.Number)))
		}
		if next != nil {
			buf.WriteString(fmt.Sprintf("Next: %s\n", EpisodeCode(next.Season, next.Number)))
		}
	}

	return buf.Bytes()
}

// EpisodeToMarkdown renders episode detail as Markdown.
func EpisodeToMarkdown(ep *models.Episode) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s %s\n\n", EpisodeCode(ep.Season, ep.Number), ep.Name))
	if ep.Image != nil && ep.Image.Medium != "" {
		buf.WriteString(fmt.Sprintf("![Still](%s)\n\n", ep.Image.Medium))
	}
	buf.WriteString(fmt.Sprintf("**Aired**: %s at %s\n", FormatDate(ep.Airdate), FormatAirtime(ep.Airtime)))
	buf.WriteString(fmt.Sprintf("**Runtime**: %s\n", FormatRuntime(ep.Runtime)))
	buf.WriteString(fmt.Sprintf("**Rating**: %s\n", FormatRating(ep.Rating)))

	if summary := StripHTML(ep.Summary); summary != "" {
		buf.WriteString(fmt.Sprintf("\n%s\n", summary))
	}

	return buf.Bytes()
}

// EpisodesToCSV converts an episode list to CSV with columns: ID, Season, Number, Name, Airdate, Airtime, Runtime, Rating
func EpisodesToCSV(episodes []models.Episode) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Season", "Number", "Name", "Airdate", "Airtime", "Runtime", "Rating"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, ep := range episodes {
		rating := ""
		if ep.Rating.Average != nil {
			rating = strconv.FormatFloat(*ep.Rating.Average, 'f', -1, 64)
		}
		record := []string{
			strconv.FormatInt(ep.ID, 10),
			strconv.Itoa(ep.Season),
			strconv.Itoa(ep.Number),
			ep.Name,
			ep.Airdate,
			ep.Airtime,
			strconv.Itoa(ep.Runtime),
			rating,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, label, value string) {
	if value == "" {
		return
	}
	buf.WriteString(fmt.Sprintf("%-10s %s\n", label+":", value))
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes a show to {dir}/README.md, with {dir}/cover.jpg when the show has artwork.
//
// Directory name defaults to "show-{id}". A failed cover download is reported on warn and skipped.
func WriteMarkdownExport(client *http.Client, show *models.Show, seasons []models.Season, outputDir string, warn io.Writer) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = fmt.Sprintf("show-%d", show.ID)
	}
	if warn == nil {
		warn = os.Stderr
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if show.Image != nil && show.Image.Medium != "" {
		imageData, err := DownloadImage(client, show.Image.Medium)
		if err != nil {
			fmt.Fprintf(warn, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(warn, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, ShowToMarkdown(show, seasons, coverImageFilename), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}
