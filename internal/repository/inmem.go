package repository

import (
	"github.com/far4599/ytduration/internal/models"
	lru "github.com/hashicorp/golang-lru"
)

const defaultMetadataSize = 10_000

// MetadataRepository keeps fetched video metadata for the duration of a run so repeated
// video IDs do not cost another upstream request.
type MetadataRepository struct {
	cache *lru.Cache
}

func NewMetadataRepository(size int) (*MetadataRepository, error) {
	if size <= 0 {
		size = defaultMetadataSize
	}

	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}

	return &MetadataRepository{
		cache: cache,
	}, nil
}

func (r *MetadataRepository) Add(m models.VideoMetadata) {
	r.cache.Add(m.Ref.ID, m)
}

func (r *MetadataRepository) Get(id string) (models.VideoMetadata, bool) {
	v, ok := r.cache.Get(id)
	if !ok {
		return models.VideoMetadata{}, false
	}

	m, ok := v.(models.VideoMetadata)
	if !ok {
		defer r.cache.Remove(id)
		return models.VideoMetadata{}, false
	}

	return m, true
}

func (r *MetadataRepository) Len() int {
	return r.cache.Len()
}
