// Package catalog turns Deezer records into the flat track, artist and album
// records the player and display surfaces work with.
package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/deezer"
	"github.com/tessro/encore/internal/errors"
)

const (
	// ArtistTopLimit is the number of top tracks fetched for an artist.
	ArtistTopLimit = 20

	homeLimit = 10
)

// API is the subset of the Deezer client the catalog uses.
type API interface {
	SearchTracks(ctx context.Context, opts deezer.SearchOptions) (*deezer.TrackList, error)
	SearchArtists(ctx context.Context, opts deezer.SearchOptions) (*deezer.ArtistList, error)
	SearchAlbums(ctx context.Context, opts deezer.SearchOptions) (*deezer.AlbumList, error)
	ChartTracks(ctx context.Context, limit int) (*deezer.TrackList, error)
	ChartArtists(ctx context.Context, limit int) (*deezer.ArtistList, error)
	ChartAlbums(ctx context.Context, limit int) (*deezer.AlbumList, error)
	Artist(ctx context.Context, id string) (*deezer.Artist, error)
	ArtistTop(ctx context.Context, id string, limit int) (*deezer.TrackList, error)
	Album(ctx context.Context, id string) (*deezer.Album, error)
	Track(ctx context.Context, id string) (*deezer.Track, error)
}

// Catalog resolves queries and ids to core records.
type Catalog struct {
	api    API
	logger zerolog.Logger
}

// New creates a catalog backed by api.
func New(api API, logger zerolog.Logger) *Catalog {
	return &Catalog{
		api:    api,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// Search runs a query against one kind of entity. SearchAll and
// SearchTracks both search tracks, which carry their artist and album.
func (c *Catalog) Search(ctx context.Context, query string, kind core.SearchKind, limit int) ([]core.SearchResult, error) {
	opts := deezer.SearchOptions{Query: query, Limit: limit}

	switch kind {
	case core.SearchArtists:
		resp, err := c.api.SearchArtists(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("artist search failed: %w", err)
		}
		results := make([]core.SearchResult, 0, len(resp.Data))
		for _, a := range resp.Data {
			results = append(results, artistResult(convertArtist(&a)))
		}
		return results, nil

	case core.SearchAlbums:
		resp, err := c.api.SearchAlbums(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("album search failed: %w", err)
		}
		results := make([]core.SearchResult, 0, len(resp.Data))
		for _, a := range resp.Data {
			results = append(results, albumResult(convertAlbum(&a)))
		}
		return results, nil

	default:
		resp, err := c.api.SearchTracks(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("track search failed: %w", err)
		}
		results := make([]core.SearchResult, 0, len(resp.Data))
		for _, t := range resp.Data {
			results = append(results, trackResult(convertTrack(&t, "")))
		}
		return results, nil
	}
}

// SearchTracks returns the tracks matching query.
func (c *Catalog) SearchTracks(ctx context.Context, query string, limit int) ([]core.Track, error) {
	resp, err := c.api.SearchTracks(ctx, deezer.SearchOptions{Query: query, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("track search failed: %w", err)
	}
	return convertTracks(resp.Data, ""), nil
}

// Home fetches the trending songs, artists and albums. A section that
// fails is left empty and its error is collected in the result.
func (c *Catalog) Home(ctx context.Context) *errors.PartialResult[core.Home] {
	result := &errors.PartialResult[core.Home]{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	collect := func(section string, err error) {
		mu.Lock()
		defer mu.Unlock()
		c.logger.Warn().Err(err).Str("section", section).Msg("chart section unavailable")
		result.AddError(fmt.Errorf("%s: %w", section, err))
	}

	wg.Add(3)
	go func() {
		defer wg.Done()
		resp, err := c.api.ChartTracks(ctx, homeLimit)
		if err != nil {
			collect("songs", err)
			return
		}
		songs := convertTracks(resp.Data, "")
		mu.Lock()
		result.Data.Songs = songs
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		resp, err := c.api.ChartArtists(ctx, homeLimit)
		if err != nil {
			collect("artists", err)
			return
		}
		artists := make([]core.Artist, 0, len(resp.Data))
		for _, a := range resp.Data {
			artists = append(artists, convertArtist(&a))
		}
		mu.Lock()
		result.Data.Artists = artists
		mu.Unlock()
	}()
	go func() {
		defer wg.Done()
		resp, err := c.api.ChartAlbums(ctx, homeLimit)
		if err != nil {
			collect("albums", err)
			return
		}
		albums := make([]core.Album, 0, len(resp.Data))
		for _, a := range resp.Data {
			albums = append(albums, convertAlbum(&a))
		}
		mu.Lock()
		result.Data.Albums = albums
		mu.Unlock()
	}()
	wg.Wait()

	return result
}

// Artist fetches an artist and their top tracks concurrently.
func (c *Catalog) Artist(ctx context.Context, id string) (*core.ArtistDetails, error) {
	var info *deezer.Artist
	var top *deezer.TrackList

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		info, err = c.api.Artist(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		top, err = c.api.ArtistTop(gctx, id, ArtistTopLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load artist %s: %w", id, err)
	}

	return &core.ArtistDetails{
		Artist: convertArtist(info),
		Tracks: convertTracks(top.Data, ""),
	}, nil
}

// Album fetches an album and its tracks. Album track payloads omit the
// cover, so the album cover is attached to every track.
func (c *Catalog) Album(ctx context.Context, id string) (*core.AlbumDetails, error) {
	album, err := c.api.Album(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load album %s: %w", id, err)
	}

	details := &core.AlbumDetails{Album: convertAlbum(album)}
	if album.Tracks != nil {
		details.Tracks = convertTracks(album.Tracks.Data, album.CoverMedium)
		for i := range details.Tracks {
			if details.Tracks[i].Album == "" {
				details.Tracks[i].Album = album.Title
				details.Tracks[i].AlbumID = details.Album.ID
			}
		}
	}
	return details, nil
}

// Track fetches a single track.
func (c *Catalog) Track(ctx context.Context, id string) (*core.Track, error) {
	t, err := c.api.Track(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load track %s: %w", id, err)
	}
	track := convertTrack(t, "")
	return &track, nil
}

// FirstPlayable returns the first track that has a preview.
func FirstPlayable(tracks []core.Track) (core.Track, bool) {
	for _, t := range tracks {
		if t.Playable() {
			return t, true
		}
	}
	return core.Track{}, false
}

// TrackResults wraps tracks as search results for list surfaces.
func TrackResults(tracks []core.Track) []core.SearchResult {
	results := make([]core.SearchResult, 0, len(tracks))
	for _, t := range tracks {
		results = append(results, trackResult(t))
	}
	return results
}

// HomeResults flattens the home sections into one list: songs first, then
// artists and albums.
func HomeResults(home core.Home) []core.SearchResult {
	results := TrackResults(home.Songs)
	for _, a := range home.Artists {
		results = append(results, artistResult(a))
	}
	for _, a := range home.Albums {
		results = append(results, albumResult(a))
	}
	return results
}
