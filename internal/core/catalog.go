package core

// Artist represents a performing artist.
type Artist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Image  string `json:"image,omitempty"`
	Link   string `json:"link,omitempty"`
	Fans   int    `json:"fans,omitempty"`
	Albums int    `json:"albums,omitempty"`
}

// Album represents a release.
type Album struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist,omitempty"`
	Image       string `json:"image,omitempty"`
	Link        string `json:"link,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	TrackCount  int    `json:"track_count,omitempty"`
}

// SearchKind selects which catalog entities a search returns.
type SearchKind int

const (
	SearchAll SearchKind = iota
	SearchTracks
	SearchArtists
	SearchAlbums
)

func (k SearchKind) String() string {
	switch k {
	case SearchTracks:
		return "Tracks"
	case SearchArtists:
		return "Artists"
	case SearchAlbums:
		return "Albums"
	default:
		return "All"
	}
}

// SearchResult is a single hit from a catalog search.
type SearchResult struct {
	Kind     SearchKind `json:"kind"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	Image    string     `json:"image,omitempty"`
	Track    *Track     `json:"track,omitempty"`
}

// Home holds the trending content shown on the start screen.
type Home struct {
	Songs   []Track  `json:"songs"`
	Artists []Artist `json:"artists"`
	Albums  []Album  `json:"albums"`
}

// ArtistDetails is an artist with their top tracks.
type ArtistDetails struct {
	Artist Artist  `json:"artist"`
	Tracks []Track `json:"tracks"`
}

// AlbumDetails is an album with its tracks.
type AlbumDetails struct {
	Album  Album   `json:"album"`
	Tracks []Track `json:"tracks"`
}
