package models

// Image holds the artwork URLs the catalog services provide.
type Image struct {
	Medium   string `json:"medium"`
	Original string `json:"original"`
}

// Rating holds the average viewer rating out of ten. Average is nil when unrated.
type Rating struct {
	Average *float64 `json:"average"`
}

// Country is the country a network broadcasts from.
type Country struct {
	Name     string `json:"name"`
	Code     string `json:"code"`
	Timezone string `json:"timezone"`
}

// Network is a broadcast network or web channel.
type Network struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Country *Country `json:"country"`
}

// Show is a TV show as returned by the show service.
type Show struct {
	ID         int64    `json:"id"`
	URL        string   `json:"url"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Language   string   `json:"language"`
	Genres     []string `json:"genres"`
	Status     string   `json:"status"`
	Runtime    int      `json:"runtime"`
	Premiered  string   `json:"premiered"`
	Ended      string   `json:"ended"`
	Rating     Rating   `json:"rating"`
	Network    *Network `json:"network"`
	WebChannel *Network `json:"webChannel"`
	Image      *Image   `json:"image"`
	Summary    string   `json:"summary"`
}

// Broadcaster returns the network when present, otherwise the web channel.
func (s Show) Broadcaster() *Network {
	if s.Network != nil && s.Network.Name != "" {
		return s.Network
	}
	return s.WebChannel
}

// SearchResult is the body returned by /api/shows/search.
type SearchResult struct {
	Results []Show `json:"results"`
	Total   int    `json:"total,omitempty"`
}

// Season is a season of a show as returned by the season service.
type Season struct {
	ID           int64    `json:"id"`
	Number       int      `json:"number"`
	Name         string   `json:"name"`
	EpisodeOrder int      `json:"episodeOrder"`
	PremiereDate string   `json:"premiereDate"`
	EndDate      string   `json:"endDate"`
	Network      *Network `json:"network"`
	WebChannel   *Network `json:"webChannel"`
	Image        *Image   `json:"image"`
	Summary      string   `json:"summary"`
}

// Broadcaster returns the network when present, otherwise the web channel.
func (s Season) Broadcaster() *Network {
	if s.Network != nil && s.Network.Name != "" {
		return s.Network
	}
	return s.WebChannel
}

// Episode is a single episode as returned by the episode service.
type Episode struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Season  int    `json:"season"`
	Number  int    `json:"number"`
	Airdate string `json:"airdate"`
	Airtime string `json:"airtime"`
	Runtime int    `json:"runtime"`
	Rating  Rating `json:"rating"`
	Image   *Image `json:"image"`
	Summary string `json:"summary"`
}

// EpisodeRef identifies an episode by position, used for previous/next navigation.
type EpisodeRef struct {
	ShowID int64
	Season int
	Number int
}
