package formatter

import "github.com/desertthunder/tvbf/internal/models"

// PreviousEpisode finds the episode before current.
//
// Within a season it is number-1. From episode 1 it is the last episode of the previous season, taken from
// that season's episodeOrder; a previous season without an episodeOrder ends the search.
func PreviousEpisode(showID int64, current models.Episode, episodes []models.Episode, seasons []models.Season) (models.EpisodeRef, bool) {
	if findEpisode(episodes, current.Number-1) {
		return models.EpisodeRef{ShowID: showID, Season: current.Season, Number: current.Number - 1}, true
	}

	if current.Number == 1 {
		if prev, ok := findSeason(seasons, current.Season-1); ok && prev.EpisodeOrder > 0 {
			return models.EpisodeRef{ShowID: showID, Season: prev.Number, Number: prev.EpisodeOrder}, true
		}
	}

	return models.EpisodeRef{}, false
}

// NextEpisode finds the episode after current: number+1 in the same season, otherwise episode 1 of the next season.
func NextEpisode(showID int64, current models.Episode, episodes []models.Episode, seasons []models.Season) (models.EpisodeRef, bool) {
	if findEpisode(episodes, current.Number+1) {
		return models.EpisodeRef{ShowID: showID, Season: current.Season, Number: current.Number + 1}, true
	}

	if next, ok := findSeason(seasons, current.Season+1); ok {
		return models.EpisodeRef{ShowID: showID, Season: next.Number, Number: 1}, true
	}

	return models.EpisodeRef{}, false
}

// AdjacentSeasons reports whether seasons number-1 and number+1 exist.
func AdjacentSeasons(number int, seasons []models.Season) (prev, next bool) {
	_, prev = findSeason(seasons, number-1)
	_, next = findSeason(seasons, number+1)
	return prev, next
}

func findEpisode(episodes []models.Episode, number int) bool {
	for _, ep := range episodes {
		if ep.Number == number {
			return true
		}
	}
	return false
}

func findSeason(seasons []models.Season, number int) (models.Season, bool) {
	for _, s := range seasons {
		if s.Number == number {
			return s, true
		}
	}
	return models.Season{}, false
}
