package service

import (
	"context"
	"iter"

	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/duration"
	"github.com/far4599/ytduration/internal/pkg/log"
	"github.com/far4599/ytduration/internal/pkg/youtube"
	"github.com/far4599/ytduration/internal/repository"
	"github.com/pkg/errors"
)

// Fetcher turns video references into metadata, one upstream request per batch.
type Fetcher struct {
	client    VideoClient
	repo      *repository.MetadataRepository
	policy    RetryPolicy
	batchSize int
}

func NewFetcher(client VideoClient, repo *repository.MetadataRepository, policy RetryPolicy, batchSize int) *Fetcher {
	if batchSize <= 0 || batchSize > youtube.MaxPageSize {
		batchSize = youtube.MaxPageSize
	}

	return &Fetcher{
		client:    client,
		repo:      repo,
		policy:    policy,
		batchSize: batchSize,
	}
}

// Fetch yields one result per reference, in input order. Batches whose request keeps
// failing degrade to per-video failures. Quota exhaustion yields a single fatal result
// and ends the sequence.
func (f *Fetcher) Fetch(ctx context.Context, refs iter.Seq2[models.VideoRef, error]) iter.Seq[models.FetchResult] {
	return func(yield func(models.FetchResult) bool) {
		var (
			batch   = make([]models.VideoRef, 0, f.batchSize)
			batches int
		)

		// flush reports whether the caller may continue
		flush := func() bool {
			if len(batch) == 0 {
				return true
			}

			batches++
			results, fatal := f.fetchBatch(ctx, batch)
			batch = batch[:0]

			for _, res := range results {
				if !yield(res) {
					return false
				}
			}

			if fatal != nil {
				log.Logger.Errorw("aborting fetch", "batch", batches, "error", fatal)
				yield(models.FetchResult{Err: fatal})
				return false
			}

			return true
		}

		for ref, err := range refs {
			if err != nil {
				if !flush() {
					return
				}

				if models.IsFatal(err) {
					yield(models.FetchResult{Err: err})
					return
				}

				log.Logger.Warnw("source failed", "error", err)
				if !yield(models.FetchResult{Err: err}) {
					return
				}
				continue
			}

			batch = append(batch, ref)
			if len(batch) == f.batchSize && !flush() {
				return
			}
		}

		flush()
	}
}

func (f *Fetcher) fetchBatch(ctx context.Context, batch []models.VideoRef) ([]models.FetchResult, error) {
	var (
		known     = make(map[string]models.VideoMetadata, len(batch))
		requested = make(map[string]struct{}, len(batch))
		missing   = make([]string, 0, len(batch))
	)

	for _, ref := range batch {
		if _, ok := requested[ref.ID]; ok {
			continue
		}
		requested[ref.ID] = struct{}{}

		if m, ok := f.repo.Get(ref.ID); ok {
			known[ref.ID] = m
			continue
		}

		missing = append(missing, ref.ID)
	}

	if len(missing) > 0 {
		var videos []youtube.Video
		err := f.policy.Do(ctx, func(ctx context.Context) (err error) {
			videos, err = f.client.Videos(ctx, missing)
			return err
		})
		if err != nil {
			if models.IsFatal(err) {
				return nil, &models.FetchError{Kind: models.FetchQuotaExceeded, Err: err}
			}

			log.Logger.Warnw("batch request failed", "videos", len(missing), "error", err)
			return failAll(batch, func(ref models.VideoRef) error {
				return &models.FetchError{Kind: models.FetchTransientNetwork, VideoID: ref.ID, Err: err}
			}), nil
		}

		decoded := make([]models.VideoMetadata, 0, len(videos))
		for _, v := range videos {
			seconds, err := duration.Decode(v.Duration)
			if err != nil {
				log.Logger.Errorw("upstream returned malformed duration", "video", v.ID, "error", err)
				return failAll(batch, func(models.VideoRef) error { return err }), nil
			}

			decoded = append(decoded, models.VideoMetadata{
				Ref:             models.VideoRef{ID: v.ID},
				DurationSeconds: seconds,
				Title:           v.Title,
				Channel:         v.Channel,
			})
		}

		for _, m := range decoded {
			known[m.Ref.ID] = m
			f.repo.Add(m)
		}
	}

	results := make([]models.FetchResult, 0, len(batch))
	for _, ref := range batch {
		m, ok := known[ref.ID]
		if !ok {
			results = append(results, models.FetchResult{Ref: ref, Err: &models.FetchError{
				Kind:    models.FetchNotAvailable,
				VideoID: ref.ID,
				Err:     models.ErrNotAvailable,
			}})
			continue
		}

		m.Ref = ref
		results = append(results, models.FetchResult{Ref: ref, Metadata: &m})
	}

	return results, nil
}

func failAll(batch []models.VideoRef, errFn func(models.VideoRef) error) []models.FetchResult {
	results := make([]models.FetchResult, 0, len(batch))
	for _, ref := range batch {
		results = append(results, models.FetchResult{Ref: ref, Err: errFn(ref)})
	}

	return results
}

func fetchErrorKind(err error) models.FetchErrorKind {
	switch {
	case errors.Is(err, models.ErrQuotaExceeded):
		return models.FetchQuotaExceeded
	case errors.Is(err, models.ErrNotAvailable):
		return models.FetchNotAvailable
	}

	return models.FetchTransientNetwork
}
