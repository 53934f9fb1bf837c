// Package youtubetest provides an in-memory upstream client with scripted failures.
package youtubetest

import (
	"context"
	"strconv"
	"sync"

	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/duration"
	"github.com/far4599/ytduration/internal/pkg/youtube"
	"github.com/pkg/errors"
)

type Client struct {
	PageSize int

	mu        sync.Mutex
	videos    map[string]youtube.Video
	playlists map[string][]string
	channels  map[string]string
	search    []string

	// videoErrs are returned by successive Videos calls, nil entries mean success.
	videoErrs []error
	listErrs  map[string]error

	VideoCalls    int
	PlaylistCalls int
	RequestedIDs  [][]string
}

func NewClient() *Client {
	return &Client{
		PageSize:  youtube.MaxPageSize,
		videos:    make(map[string]youtube.Video),
		playlists: make(map[string][]string),
		channels:  make(map[string]string),
		listErrs:  make(map[string]error),
	}
}

// AddVideo registers a video with its duration in seconds.
func (c *Client) AddVideo(id string, seconds int) *Client {
	return c.AddVideoRaw(id, duration.Encode(seconds))
}

// AddVideoRaw registers a video with a verbatim upstream duration.
func (c *Client) AddVideoRaw(id, rawDuration string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.videos[id] = youtube.Video{
		ID:       id,
		Title:    "Title " + id,
		Channel:  "Channel",
		Duration: rawDuration,
	}

	return c
}

func (c *Client) AddPlaylist(id string, videoIDs ...string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.playlists[id] = videoIDs

	return c
}

// AddChannel registers a channel whose uploads playlist holds videoIDs.
func (c *Client) AddChannel(channel string, videoIDs ...string) *Client {
	uploads := "UU-" + channel
	c.AddPlaylist(uploads, videoIDs...)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.channels[channel] = uploads

	return c
}

func (c *Client) SetSearchResults(videoIDs ...string) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.search = videoIDs

	return c
}

// FailVideoCalls scripts the results of the next Videos calls.
func (c *Client) FailVideoCalls(errs ...error) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.videoErrs = append(c.videoErrs, errs...)

	return c
}

// FailPlaylist makes every listing of the playlist fail with err.
func (c *Client) FailPlaylist(id string, err error) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.listErrs[id] = err

	return c
}

func (c *Client) Videos(ctx context.Context, ids []string) ([]youtube.Video, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.VideoCalls++
	c.RequestedIDs = append(c.RequestedIDs, append([]string(nil), ids...))

	if len(c.videoErrs) > 0 {
		err := c.videoErrs[0]
		c.videoErrs = c.videoErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	result := make([]youtube.Video, 0, len(ids))
	for _, id := range ids {
		if v, ok := c.videos[id]; ok {
			result = append(result, v)
		}
	}

	return result, nil
}

func (c *Client) PlaylistPage(ctx context.Context, playlistID, pageToken string) (*youtube.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.PlaylistCalls++

	if err, ok := c.listErrs[playlistID]; ok {
		return nil, err
	}

	ids, ok := c.playlists[playlistID]
	if !ok {
		return nil, errors.Wrapf(models.ErrNotAvailable, "playlist '%s' not found", playlistID)
	}

	return paginate(ids, pageToken, c.PageSize)
}

func (c *Client) UploadsPlaylist(_ context.Context, channel string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	uploads, ok := c.channels[channel]
	if !ok {
		return "", errors.Wrapf(models.ErrNotAvailable, "channel '%s' not found", channel)
	}

	return uploads, nil
}

func (c *Client) Search(_ context.Context, q youtube.SearchQuery) (*youtube.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := int(q.MaxResults)
	if size <= 0 {
		size = youtube.MaxPageSize
	}

	return paginate(c.search, q.PageToken, size)
}

func paginate(ids []string, pageToken string, size int) (*youtube.Page, error) {
	start := 0
	if len(pageToken) > 0 {
		n, err := strconv.Atoi(pageToken)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid page token '%s'", pageToken)
		}
		start = n
	}

	if start > len(ids) {
		start = len(ids)
	}

	end := start + size
	if end > len(ids) {
		end = len(ids)
	}

	page := &youtube.Page{VideoIDs: append([]string(nil), ids[start:end]...)}
	if end < len(ids) {
		page.NextPageToken = strconv.Itoa(end)
	}

	return page, nil
}
