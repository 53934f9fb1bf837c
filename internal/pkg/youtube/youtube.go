// Package youtube holds the upstream clients the pipeline talks to: the YouTube Data API v3
// and a yt-dlp subprocess backend. Both report durations in the API's ISO-8601 encoding.
package youtube

import (
	"strings"
)

// MaxPageSize is the largest number of items a single upstream request may carry.
const MaxPageSize = 50

type Video struct {
	ID       string
	Title    string
	Channel  string
	Duration string
}

type Page struct {
	VideoIDs      []string
	NextPageToken string
}

type SearchQuery struct {
	Query    string
	Language string
	Country  string
	// Duration is one of any, short, medium, long.
	Duration   string
	MaxResults int64
	PageToken  string
}

// channelKind tells how a channel identifier has to be looked up.
type channelKind int

const (
	channelByID channelKind = iota
	channelByHandle
	channelByName
)

func classifyChannel(channel string) channelKind {
	switch {
	case strings.HasPrefix(channel, "@"):
		return channelByHandle
	case strings.HasPrefix(channel, "UC") && len(channel) == 24:
		return channelByID
	}

	return channelByName
}
