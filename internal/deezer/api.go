package deezer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// SearchOptions configures a search query.
type SearchOptions struct {
	Query string
	Limit int
	Index int
}

func (o SearchOptions) params() (map[string]string, error) {
	q := strings.TrimSpace(o.Query)
	if q == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	params := map[string]string{"q": q}
	if o.Limit > 0 {
		params["limit"] = strconv.Itoa(o.Limit)
	}
	if o.Index > 0 {
		params["index"] = strconv.Itoa(o.Index)
	}
	return params, nil
}

// SearchTracks searches tracks.
func (c *Client) SearchTracks(ctx context.Context, opts SearchOptions) (*TrackList, error) {
	params, err := opts.params()
	if err != nil {
		return nil, err
	}
	var resp TrackList
	if err := c.Get(ctx, BuildURL("/search", params), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchArtists searches artists.
func (c *Client) SearchArtists(ctx context.Context, opts SearchOptions) (*ArtistList, error) {
	params, err := opts.params()
	if err != nil {
		return nil, err
	}
	var resp ArtistList
	if err := c.Get(ctx, BuildURL("/search/artist", params), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchAlbums searches albums.
func (c *Client) SearchAlbums(ctx context.Context, opts SearchOptions) (*AlbumList, error) {
	params, err := opts.params()
	if err != nil {
		return nil, err
	}
	var resp AlbumList
	if err := c.Get(ctx, BuildURL("/search/album", params), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChartTracks returns the trending tracks of the editorial chart.
func (c *Client) ChartTracks(ctx context.Context, limit int) (*TrackList, error) {
	var resp TrackList
	if err := c.Get(ctx, BuildURL("/chart/0/tracks", limitParam(limit)), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChartArtists returns the trending artists of the editorial chart.
func (c *Client) ChartArtists(ctx context.Context, limit int) (*ArtistList, error) {
	var resp ArtistList
	if err := c.Get(ctx, BuildURL("/chart/0/artists", limitParam(limit)), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ChartAlbums returns the trending albums of the editorial chart.
func (c *Client) ChartAlbums(ctx context.Context, limit int) (*AlbumList, error) {
	var resp AlbumList
	if err := c.Get(ctx, BuildURL("/chart/0/albums", limitParam(limit)), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Artist returns an artist.
func (c *Client) Artist(ctx context.Context, id string) (*Artist, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var resp Artist
	if err := c.Get(ctx, "/artist/"+id, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ArtistTop returns an artist's most popular tracks.
func (c *Client) ArtistTop(ctx context.Context, id string, limit int) (*TrackList, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var resp TrackList
	if err := c.Get(ctx, BuildURL("/artist/"+id+"/top", limitParam(limit)), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Album returns an album with its track list.
func (c *Client) Album(ctx context.Context, id string) (*Album, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var resp Album
	if err := c.Get(ctx, "/album/"+id, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Track returns a single track.
func (c *Client) Track(ctx context.Context, id string) (*Track, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	var resp Track
	if err := c.Get(ctx, "/track/"+id, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// checkID rejects ids that are not Deezer numeric ids.
func checkID(id string) error {
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return fmt.Errorf("invalid id %q: must be numeric", id)
	}
	return nil
}

func limitParam(limit int) map[string]string {
	if limit <= 0 {
		return nil
	}
	return map[string]string{"limit": strconv.Itoa(limit)}
}
