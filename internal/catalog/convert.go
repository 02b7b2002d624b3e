package catalog

import (
	"strconv"
	"strings"
	"time"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/deezer"
)

// convertTrack converts a Deezer track to a core track. cover is used when
// the payload carries no album.
func convertTrack(t *deezer.Track, cover string) core.Track {
	track := core.Track{
		ID:       formatID(t.ID),
		Title:    firstNonEmpty(t.Title, t.TitleShort),
		Preview:  strings.TrimSpace(t.Preview),
		Link:     t.Link,
		Duration: time.Duration(t.Duration) * time.Second,
		Explicit: t.ExplicitLyrics,
		Image:    cover,
	}

	if t.Artist != nil {
		track.Artist = t.Artist.Name
		track.ArtistID = formatID(t.Artist.ID)
	}
	if t.Album != nil {
		track.Album = t.Album.Title
		track.AlbumID = formatID(t.Album.ID)
		track.Image = firstNonEmpty(t.Album.CoverMedium, t.Album.Cover, cover)
	}
	return track
}

func convertTracks(tracks []deezer.Track, cover string) []core.Track {
	result := make([]core.Track, 0, len(tracks))
	for i := range tracks {
		result = append(result, convertTrack(&tracks[i], cover))
	}
	return result
}

func convertArtist(a *deezer.Artist) core.Artist {
	return core.Artist{
		ID:     formatID(a.ID),
		Name:   a.Name,
		Image:  firstNonEmpty(a.PictureMedium, a.Picture),
		Link:   a.Link,
		Fans:   a.NbFan,
		Albums: a.NbAlbum,
	}
}

func convertAlbum(a *deezer.Album) core.Album {
	album := core.Album{
		ID:          formatID(a.ID),
		Title:       a.Title,
		Image:       firstNonEmpty(a.CoverMedium, a.Cover),
		Link:        a.Link,
		ReleaseDate: a.ReleaseDate,
		TrackCount:  a.NbTracks,
	}
	if a.Artist != nil {
		album.Artist = a.Artist.Name
	}
	return album
}

func trackResult(t core.Track) core.SearchResult {
	return core.SearchResult{
		Kind:     core.SearchTracks,
		ID:       t.ID,
		Title:    t.Title,
		Subtitle: t.Artist,
		Image:    t.Image,
		Track:    &t,
	}
}

func artistResult(a core.Artist) core.SearchResult {
	return core.SearchResult{
		Kind:     core.SearchArtists,
		ID:       a.ID,
		Title:    a.Name,
		Subtitle: a.Name,
		Image:    a.Image,
	}
}

func albumResult(a core.Album) core.SearchResult {
	return core.SearchResult{
		Kind:     core.SearchAlbums,
		ID:       a.ID,
		Title:    a.Title,
		Subtitle: a.Artist,
		Image:    a.Image,
	}
}

func formatID(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
