package service

import (
	"context"

	"github.com/far4599/ytduration/internal/pkg/youtube"
)

type VideoClient interface {
	Videos(ctx context.Context, ids []string) ([]youtube.Video, error)
}

type PlaylistClient interface {
	PlaylistPage(ctx context.Context, playlistID, pageToken string) (*youtube.Page, error)
	UploadsPlaylist(ctx context.Context, channel string) (string, error)
}

type SearchClient interface {
	Search(ctx context.Context, q youtube.SearchQuery) (*youtube.Page, error)
}

// Client is everything a run needs from upstream, implemented by both youtube backends.
type Client interface {
	VideoClient
	PlaylistClient
	SearchClient
}
