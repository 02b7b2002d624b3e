package deezer

// Track represents a Deezer track.
type Track struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	TitleShort     string  `json:"title_short"`
	Link           string  `json:"link"`
	Duration       int     `json:"duration"` // seconds
	Rank           int     `json:"rank"`
	ExplicitLyrics bool    `json:"explicit_lyrics"`
	Preview        string  `json:"preview"`
	Artist         *Artist `json:"artist"`
	Album          *Album  `json:"album"`
	Type           string  `json:"type"`
}

// Artist represents a Deezer artist.
type Artist struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Link          string `json:"link"`
	Picture       string `json:"picture"`
	PictureMedium string `json:"picture_medium"`
	PictureBig    string `json:"picture_big"`
	NbAlbum       int    `json:"nb_album"`
	NbFan         int    `json:"nb_fan"`
	Type          string `json:"type"`
}

// Album represents a Deezer album.
type Album struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Link        string     `json:"link"`
	Cover       string     `json:"cover"`
	CoverMedium string     `json:"cover_medium"`
	CoverBig    string     `json:"cover_big"`
	ReleaseDate string     `json:"release_date"`
	NbTracks    int        `json:"nb_tracks"`
	Artist      *Artist    `json:"artist"`
	Tracks      *TrackList `json:"tracks,omitempty"`
	Type        string     `json:"type"`
}

// TrackList is a paginated list of tracks.
type TrackList struct {
	Data  []Track `json:"data"`
	Total int     `json:"total"`
	Next  string  `json:"next"`
}

// ArtistList is a paginated list of artists.
type ArtistList struct {
	Data  []Artist `json:"data"`
	Total int      `json:"total"`
	Next  string   `json:"next"`
}

// AlbumList is a paginated list of albums.
type AlbumList struct {
	Data  []Album `json:"data"`
	Total int     `json:"total"`
	Next  string  `json:"next"`
}
