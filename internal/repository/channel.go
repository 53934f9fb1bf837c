package repository

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// ChannelRepository remembers which uploads playlist belongs to a channel identifier.
type ChannelRepository struct {
	cache *cache.Cache
}

func NewChannelRepository(ttl time.Duration) *ChannelRepository {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	return &ChannelRepository{
		cache: cache.New(ttl, 10*time.Minute),
	}
}

func (r *ChannelRepository) Add(channel, uploadsPlaylist string) {
	r.cache.Set(channel, uploadsPlaylist, cache.DefaultExpiration)
}

func (r *ChannelRepository) Get(channel string) (string, bool) {
	v, ok := r.cache.Get(channel)
	if !ok {
		return "", false
	}

	uploads, ok := v.(string)
	return uploads, ok
}
