package formatter

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tvbf/internal/models"
	"github.com/desertthunder/tvbf/internal/shared"
	th "github.com/desertthunder/tvbf/internal/testing"
)

func TestHelpers(t *testing.T) {
	t.Run("StripHTML", func(t *testing.T) {
		tests := []struct {
			in, want string
		}{
			{"", ""},
			{"plain", "plain"},
			{"<p>A <b>coastal</b> town.</p>", "A coastal town."},
			{"<p>Tom &amp; Jerry&#39;s</p>", "Tom & Jerry's"},
			{"  <i>spaced</i>  ", "spaced"},
			{"<p>unclosed <b>bold", "unclosed bold"},
		}
		for _, tt := range tests {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		}
	})

	t.Run("FormatGenres", func(t *testing.T) {
		if got := FormatGenres([]string{"Drama", "Mystery", "Crime", "Thriller"}); got != "Drama, Mystery, Crime" {
			t.Errorf("expected first three genres, got %q", got)
		}
		if got := FormatGenres(nil); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})

	t.Run("FormatYear", func(t *testing.T) {
		if got := FormatYear("2019-03-04"); got != "2019" {
			t.Errorf("expected 2019, got %q", got)
		}
		if got := FormatYear(""); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})

	t.Run("FormatDate", func(t *testing.T) {
		tests := map[string]string{
			"2019-03-04": "Mar 4, 2019",
			"":           Unknown,
			"sometime":   "sometime",
		}
		for in, want := range tests {
			if got := FormatDate(in); got != want {
				t.Errorf("FormatDate(%q) = %q, want %q", in, got, want)
			}
		}
	})

	t.Run("FormatAirtime", func(t *testing.T) {
		tests := map[string]string{
			"21:00": "9:00 PM",
			"12:30": "12:30 PM",
			"00:15": "12:15 AM",
			"09:05": "9:05 AM",
			"":      Unknown,
			"25:00": "25:00",
			"noon":  "noon",
		}
		for in, want := range tests {
			if got := FormatAirtime(in); got != want {
				t.Errorf("FormatAirtime(%q) = %q, want %q", in, got, want)
			}
		}
	})

	t.Run("FormatRuntime", func(t *testing.T) {
		if got := FormatRuntime(60); got != "60 minutes" {
			t.Errorf("expected '60 minutes', got %q", got)
		}
		if got := FormatRuntime(0); got != Unknown {
			t.Errorf("expected %q, got %q", Unknown, got)
		}
	})

	t.Run("FormatRating", func(t *testing.T) {
		v := 8.4
		if got := FormatRating(models.Rating{Average: &v}); got != "8.4/10" {
			t.Errorf("expected '8.4/10', got %q", got)
		}
		if got := FormatRating(models.Rating{}); got != "N/A" {
			t.Errorf("expected 'N/A', got %q", got)
		}
	})

	t.Run("FormatNetwork", func(t *testing.T) {
		n := &models.Network{Name: "BBC One", Country: &models.Country{Name: "United Kingdom"}}
		if got := FormatNetwork(n); got != "BBC One (United Kingdom)" {
			t.Errorf("unexpected %q", got)
		}
		if got := FormatNetwork(&models.Network{Name: "Netflix"}); got != "Netflix" {
			t.Errorf("unexpected %q", got)
		}
		if got := FormatNetwork(nil); got != "" {
			t.Errorf("expected empty, got %q", got)
		}
	})

	t.Run("SeasonTitle", func(t *testing.T) {
		if got := SeasonTitle(models.Season{Number: 2}); got != "Season 2" {
			t.Errorf("unexpected %q", got)
		}
		if got := SeasonTitle(models.Season{Number: 2, Name: "Undertow"}); got != "Undertow" {
			t.Errorf("unexpected %q", got)
		}
	})

	t.Run("ParseFormat", func(t *testing.T) {
		if f, err := ParseFormat(""); err != nil || f != FormatText {
			t.Errorf("expected text default, got %q, %v", f, err)
		}
		if f, err := ParseFormat("csv"); err != nil || f != FormatCSV {
			t.Errorf("expected csv, got %q, %v", f, err)
		}
		if _, err := ParseFormat("yaml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestNavigation(t *testing.T) {
	seasons := th.FixtureSeasons
	s1 := th.FixtureEpisodes[1]
	s2 := th.FixtureEpisodes[2]

	t.Run("Previous Within Season", func(t *testing.T) {
		ref, ok := PreviousEpisode(1, s1[2], s1, seasons)
		if !ok || ref != (models.EpisodeRef{ShowID: 1, Season: 1, Number: 2}) {
			t.Errorf("unexpected %+v, %v", ref, ok)
		}
	})

	t.Run("Previous Crosses To Last Of Prior Season", func(t *testing.T) {
		ref, ok := PreviousEpisode(1, s2[0], s2, seasons)
		if !ok || ref != (models.EpisodeRef{ShowID: 1, Season: 1, Number: 3}) {
			t.Errorf("expected S01E03, got %+v, %v", ref, ok)
		}
	})

	t.Run("No Previous For First Episode", func(t *testing.T) {
		if _, ok := PreviousEpisode(1, s1[0], s1, seasons); ok {
			t.Error("expected no previous episode")
		}
	})

	t.Run("Previous Season Without Episode Order", func(t *testing.T) {
		noOrder := []models.Season{{Number: 1}, {Number: 2}}
		if _, ok := PreviousEpisode(1, s2[0], s2, noOrder); ok {
			t.Error("expected no previous without episodeOrder")
		}
	})

	t.Run("Next Within Season", func(t *testing.T) {
		ref, ok := NextEpisode(1, s1[0], s1, seasons)
		if !ok || ref.Season != 1 || ref.Number != 2 {
			t.Errorf("unexpected %+v, %v", ref, ok)
		}
	})

	t.Run("Next Crosses To First Of Next Season", func(t *testing.T) {
		ref, ok := NextEpisode(1, s1[2], s1, seasons)
		if !ok || ref.Season != 2 || ref.Number != 1 {
			t.Errorf("expected S02E01, got %+v, %v", ref, ok)
		}
	})

	t.Run("No Next After Finale", func(t *testing.T) {
		if _, ok := NextEpisode(1, s2[1], s2, seasons); ok {
			t.Error("expected no next episode")
		}
	})

	t.Run("AdjacentSeasons", func(t *testing.T) {
		prev, next := AdjacentSeasons(1, seasons)
		if prev || !next {
			t.Errorf("season 1: expected (false, true), got (%v, %v)", prev, next)
		}
		prev, next = AdjacentSeasons(2, seasons)
		if !prev || next {
			t.Errorf("season 2: expected (true, false), got (%v, %v)", prev, next)
		}
	})
}

func TestRenderers(t *testing.T) {
	show := th.FixtureShow
	seasons := th.FixtureSeasons

	t.Run("SearchResultsToText", func(t *testing.T) {
		out := string(SearchResultsToText([]models.Show{show}))
		if !strings.Contains(out, "[1] Harbor Lights (2019) - Drama, Mystery, Crime") {
			t.Errorf("unexpected output: %s", out)
		}
		if out := string(SearchResultsToText(nil)); out != "No shows found\n" {
			t.Errorf("unexpected empty output: %q", out)
		}
	})

	t.Run("ShowToText", func(t *testing.T) {
		out := string(ShowToText(&show, seasons))
		for _, want := range []string{
			"Harbor Lights",
			"BBC One (United Kingdom)",
			"8.4/10",
			"A coastal town keeps its secrets.",
			"Seasons: 2",
			"1. Season 1 (3 episodes)",
			"2. Undertow (2 episodes)",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q, got:\n%s", want, out)
			}
		}
		if strings.Contains(out, "<p>") {
			t.Error("expected HTML to be stripped")
		}
	})

	t.Run("ShowToMarkdown", func(t *testing.T) {
		t.Run("without cover image", func(t *testing.T) {
			out := string(ShowToMarkdown(&show, seasons, ""))
			if !strings.HasPrefix(out, "# Harbor Lights\n") {
				t.Errorf("expected heading, got %s", out)
			}
			if strings.Contains(out, "![Cover]") {
				t.Error("expected no cover image")
			}
			if !strings.Contains(out, "## Seasons") {
				t.Error("expected seasons section")
			}
		})

		t.Run("with cover image", func(t *testing.T) {
			out := string(ShowToMarkdown(&show, nil, "cover.jpg"))
			if !strings.Contains(out, "![Cover](cover.jpg)") {
				t.Errorf("expected cover image, got %s", out)
			}
		})
	})

	t.Run("SeasonToText", func(t *testing.T) {
		out := string(SeasonToText(&seasons[0], th.FixtureEpisodes[1], seasons))
		for _, want := range []string{"Season 1", "Episodes: 3", "2. Low Tide (Mar 11, 2019)", "Next: season 2"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in:\n%s", want, out)
			}
		}
		if strings.Contains(out, "Previous:") {
			t.Error("expected no previous season for season 1")
		}
	})

	t.Run("EpisodeToText", func(t *testing.T) {
		ep := th.FixtureEpisodes[1][0]
		next := models.EpisodeRef{ShowID: 1, Season: 1, Number: 2}
		out := string(EpisodeToText(&ep, nil, &next))
		for _, want := range []string{"S01E01 Arrival", "9:00 PM", "60 minutes", "Next: S01E02"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in:\n%s", want, out)
			}
		}

		bare := th.FixtureEpisodes[2][1]
		out = string(EpisodeToText(&bare, nil, nil))
		if !strings.Contains(out, "Airtime:   Unknown") || !strings.Contains(out, "Runtime:   Unknown") {
			t.Errorf("expected Unknown placeholders, got:\n%s", out)
		}
	})

	t.Run("EpisodeToMarkdown", func(t *testing.T) {
		ep := th.FixtureEpisodes[1][2]
		out := string(EpisodeToMarkdown(&ep))
		if !strings.Contains(out, "# S01E03 Beacon") || !strings.Contains(out, "The light goes out.") {
			t.Errorf("unexpected output:\n%s", out)
		}
	})

	t.Run("EpisodesToCSV", func(t *testing.T) {
		data, err := EpisodesToCSV(th.FixtureEpisodes[1])
		if err != nil {
			t.Fatalf("EpisodesToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "ID,Season,Number,Name,Airdate,Airtime,Runtime,Rating") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "100,1,1,Arrival,2019-03-04,21:00,60,8.1") {
			t.Errorf("CSV missing first episode, got: %s", output)
		}
		if !strings.Contains(output, "101,1,2,Low Tide,2019-03-11,21:00,58,\n") {
			t.Errorf("CSV missing unrated episode, got: %s", output)
		}
	})
}

func TestDownloadImage(t *testing.T) {
	t.Run("EmptyURL", func(t *testing.T) {
		if _, err := DownloadImage(nil, ""); err == nil {
			t.Error("expected error for empty URL")
		}
	})

	t.Run("Non200", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		defer server.Close()

		if _, err := DownloadImage(server.Client(), server.URL); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestWriteMarkdownExport(t *testing.T) {
	image := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("jpeg-bytes"))
	}))
	defer image.Close()

	t.Run("WithDefaultDirectory", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		show := th.FixtureShow
		show.Image = &models.Image{Medium: image.URL + "/1.jpg"}

		result, err := WriteMarkdownExport(image.Client(), &show, th.FixtureSeasons, "", &strings.Builder{})
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}

		if result.Directory != "show-1" {
			t.Errorf("expected directory 'show-1', got %s", result.Directory)
		}
		th.AssertDirExists(t, result.Directory)
		th.AssertFileExists(t, result.CoverImage)

		content := th.MustReadFile(t, filepath.Join(result.Directory, "README.md"))
		if !strings.Contains(content, "![Cover](cover.jpg)") {
			t.Errorf("expected cover reference, got %s", content)
		}
		if th.MustReadFile(t, result.CoverImage) != "jpeg-bytes" {
			t.Error("expected downloaded image bytes")
		}
	})

	t.Run("CoverDownloadFailure", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "out")
		show := th.FixtureShow
		show.Image = &models.Image{Medium: "http://127.0.0.1:1/missing.jpg"}

		var warn strings.Builder
		result, err := WriteMarkdownExport(nil, &show, nil, dir, &warn)
		if err != nil {
			t.Fatalf("WriteMarkdownExport failed: %v", err)
		}
		if result.CoverImage != "" || len(result.Files) != 1 {
			t.Errorf("expected README only, got %+v", result)
		}
		if !strings.Contains(warn.String(), "failed to download cover image") {
			t.Errorf("expected warning, got %q", warn.String())
		}
	})
}
