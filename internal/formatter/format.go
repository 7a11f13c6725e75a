package formatter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/tvbf/internal/models"
	"golang.org/x/net/html"
)

// Unknown is shown in place of missing dates, times and runtimes.
const Unknown = "Unknown"

// StripHTML returns the text content of an HTML fragment with entities decoded.
func StripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// FormatGenres joins the first three genres with commas.
func FormatGenres(genres []string) string {
	if len(genres) > 3 {
		genres = genres[:3]
	}
	return strings.Join(genres, ", ")
}

// FormatYear returns the year part of a premiere date such as "2019-03-04".
func FormatYear(premiered string) string {
	if premiered == "" {
		return ""
	}
	year, _, _ := strings.Cut(premiered, "-")
	return year
}

// FormatDate renders a YYYY-MM-DD date as "Jan 2, 2006". Unparseable dates are returned as given.
func FormatDate(date string) string {
	if date == "" {
		return Unknown
	}
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2, 2006")
}

// FormatAirtime converts a 24-hour "HH:MM" airtime to 12-hour AM/PM.
func FormatAirtime(airtime string) string {
	if airtime == "" {
		return Unknown
	}

	hours, minutes, ok := strings.Cut(airtime, ":")
	hour, err := strconv.Atoi(hours)
	if !ok || err != nil || hour < 0 || hour > 23 {
		return airtime
	}

	ampm := "AM"
	if hour >= 12 {
		ampm = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%s %s", display, minutes, ampm)
}

// FormatRuntime renders a runtime in minutes.
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return Unknown
	}
	return fmt.Sprintf("%d minutes", minutes)
}

// FormatRating renders an average rating out of ten, or "N/A" when unrated.
func FormatRating(r models.Rating) string {
	if r.Average == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*r.Average, 'f', -1, 64) + "/10"
}

// FormatNetwork renders a network as "name (country)".
func FormatNetwork(n *models.Network) string {
	if n == nil || n.Name == "" {
		return ""
	}
	if n.Country == nil || n.Country.Name == "" {
		return n.Name
	}
	return fmt.Sprintf("%s (%s)", n.Name, n.Country.Name)
}

// SeasonTitle returns the season's name, falling back to "Season N".
func SeasonTitle(s models.Season) string {
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("Season %d", s.Number)
}

// EpisodeCode renders an episode position as S01E02.
func EpisodeCode(season, number int) string {
	return fmt.Sprintf("S%02dE%02d", season, number)
}
