package youtube

import (
	"context"
	"net/http"
	"strings"

	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/log"
	"github.com/pkg/errors"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

var quotaReasons = map[string]struct{}{
	"quotaExceeded":      {},
	"dailyLimitExceeded": {},
}

type APIClient struct {
	service *youtube.Service
}

func NewAPIClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*APIClient, error) {
	if len(apiKey) == 0 {
		return nil, &models.ConfigurationError{Field: "youtube.api_key", Reason: "is required for the api backend (set YOUTUBE_API_KEY)"}
	}

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create youtube service")
	}

	return &APIClient{
		service: service,
	}, nil
}

// Videos returns the items the API knows about. Private, deleted and region blocked
// videos are simply absent from the result.
func (c *APIClient) Videos(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	resp, err := c.service.Videos.List([]string{"snippet", "contentDetails"}).
		Id(strings.Join(ids, ",")).
		MaxResults(MaxPageSize).
		Context(ctx).
		Do()
	if err != nil {
		return nil, mapAPIError(err, "videos.list")
	}

	result := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ContentDetails == nil {
			continue
		}

		v := Video{
			ID:       item.Id,
			Duration: item.ContentDetails.Duration,
		}
		if item.Snippet != nil {
			v.Title = item.Snippet.Title
			v.Channel = item.Snippet.ChannelTitle
		}

		result = append(result, v)
	}

	return result, nil
}

func (c *APIClient) PlaylistPage(ctx context.Context, playlistID, pageToken string) (*Page, error) {
	call := c.service.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(playlistID).
		MaxResults(MaxPageSize).
		Context(ctx)
	if len(pageToken) > 0 {
		call = call.PageToken(pageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, mapAPIError(err, "playlistItems.list")
	}

	page := &Page{
		VideoIDs:      make([]string, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		if item.ContentDetails == nil || len(item.ContentDetails.VideoId) == 0 {
			continue
		}
		page.VideoIDs = append(page.VideoIDs, item.ContentDetails.VideoId)
	}

	return page, nil
}

// UploadsPlaylist finds the playlist holding every upload of the channel.
func (c *APIClient) UploadsPlaylist(ctx context.Context, channel string) (string, error) {
	call := c.service.Channels.List([]string{"contentDetails"}).Context(ctx)

	kind := classifyChannel(channel)
	switch kind {
	case channelByID:
		call = call.Id(channel)
	case channelByHandle:
		call = call.ForHandle(channel)
	default:
		call = call.ForUsername(channel)
	}

	resp, err := call.Do()
	if err != nil {
		return "", mapAPIError(err, "channels.list")
	}

	if len(resp.Items) == 0 && kind != channelByID {
		log.Logger.Debugw("channel lookup returned nothing, searching by name", "channel", channel)

		id, err := c.searchChannel(ctx, channel)
		if err != nil {
			return "", err
		}

		resp, err = c.service.Channels.List([]string{"contentDetails"}).Id(id).Context(ctx).Do()
		if err != nil {
			return "", mapAPIError(err, "channels.list")
		}
	}

	if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil || resp.Items[0].ContentDetails.RelatedPlaylists == nil {
		return "", errors.Wrapf(models.ErrNotAvailable, "channel '%s' not found", channel)
	}

	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

func (c *APIClient) searchChannel(ctx context.Context, name string) (string, error) {
	resp, err := c.service.Search.List([]string{"id"}).
		Q(name).
		Type("channel").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", mapAPIError(err, "search.list")
	}

	if len(resp.Items) == 0 || resp.Items[0].Id == nil || len(resp.Items[0].Id.ChannelId) == 0 {
		return "", errors.Wrapf(models.ErrNotAvailable, "channel '%s' not found", name)
	}

	return resp.Items[0].Id.ChannelId, nil
}

func (c *APIClient) Search(ctx context.Context, q SearchQuery) (*Page, error) {
	call := c.service.Search.List([]string{"id"}).
		Q(q.Query).
		Type("video").
		MaxResults(q.MaxResults).
		Context(ctx)
	if len(q.Language) > 0 {
		call = call.RelevanceLanguage(q.Language)
	}
	if len(q.Country) > 0 {
		call = call.RegionCode(strings.ToUpper(q.Country))
	}
	if len(q.Duration) > 0 && q.Duration != "any" {
		call = call.VideoDuration(q.Duration)
	}
	if len(q.PageToken) > 0 {
		call = call.PageToken(q.PageToken)
	}

	resp, err := call.Do()
	if err != nil {
		return nil, mapAPIError(err, "search.list")
	}

	page := &Page{
		VideoIDs:      make([]string, 0, len(resp.Items)),
		NextPageToken: resp.NextPageToken,
	}
	for _, item := range resp.Items {
		if item.Id == nil || len(item.Id.VideoId) == 0 {
			continue
		}
		page.VideoIDs = append(page.VideoIDs, item.Id.VideoId)
	}

	return page, nil
}

func mapAPIError(err error, call string) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return errors.Wrapf(err, "%s failed", call)
	}

	for _, item := range apiErr.Errors {
		if _, ok := quotaReasons[item.Reason]; ok {
			return errors.Wrapf(models.ErrQuotaExceeded, "%s: %s", call, apiErr.Message)
		}
	}

	if apiErr.Code == http.StatusNotFound {
		return errors.Wrapf(models.ErrNotAvailable, "%s: %s", call, apiErr.Message)
	}

	return errors.Wrapf(err, "%s failed", call)
}
