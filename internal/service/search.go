package service

import (
	"context"
	"iter"

	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/log"
	"github.com/far4599/ytduration/internal/pkg/youtube"
	"github.com/pkg/errors"
)

// maxSearchPages caps how many result pages a filtered search may spend quota on.
const maxSearchPages = 5

var searchDurations = map[string]struct{}{
	"any":    {},
	"short":  {},
	"medium": {},
	"long":   {},
}

type SearchOptions struct {
	Query    string
	Language string
	Country  string
	// Duration is the upstream duration category, ignored when Filter is set.
	Duration   string
	MaxResults int
	Filter     models.FilterConfig
}

func (o SearchOptions) Validate() error {
	if len(o.Query) == 0 {
		return &models.ConfigurationError{Field: "query", Reason: "must not be empty"}
	}
	if o.MaxResults < 1 || o.MaxResults > youtube.MaxPageSize {
		return &models.ConfigurationError{Field: "max-results", Reason: "must be between 1 and 50"}
	}
	if _, ok := searchDurations[o.Duration]; len(o.Duration) > 0 && !ok {
		return &models.ConfigurationError{Field: "duration", Reason: "must be one of any, short, medium, long"}
	}

	return nil
}

type Searcher struct {
	client  SearchClient
	fetcher *Fetcher
	policy  RetryPolicy
}

func NewSearcher(client SearchClient, fetcher *Fetcher, policy RetryPolicy) *Searcher {
	return &Searcher{
		client:  client,
		fetcher: fetcher,
		policy:  policy,
	}
}

// Search runs a keyword search. With a minimum duration set, several result pages are
// scanned until MaxResults long enough videos are found.
func (s *Searcher) Search(ctx context.Context, opts SearchOptions) (*models.AggregationResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	q := youtube.SearchQuery{
		Query:      opts.Query,
		Language:   opts.Language,
		Country:    opts.Country,
		Duration:   opts.Duration,
		MaxResults: int64(opts.MaxResults),
	}

	pages := 1
	if opts.Filter.MinDurationSeconds != nil {
		log.Logger.Infow("custom duration filter scans several result pages, this may take longer", "pages", maxSearchPages)

		q.Duration = ""
		q.MaxResults = youtube.MaxPageSize
		pages = maxSearchPages
	}

	results := s.fetcher.Fetch(ctx, s.searchPages(ctx, q, pages))

	return Aggregate(limitIncluded(results, opts.Filter, opts.MaxResults), opts.Filter)
}

func (s *Searcher) searchPages(ctx context.Context, q youtube.SearchQuery, pages int) iter.Seq2[models.VideoRef, error] {
	return func(yield func(models.VideoRef, error) bool) {
		for i := 0; i < pages; i++ {
			var page *youtube.Page
			err := s.policy.Do(ctx, func(ctx context.Context) (err error) {
				page, err = s.client.Search(ctx, q)
				return err
			})
			if err != nil {
				yield(models.VideoRef{}, &models.FetchError{
					Kind: fetchErrorKind(err),
					Err:  errors.Wrapf(err, "search for '%s' failed", q.Query),
				})
				return
			}

			for _, id := range page.VideoIDs {
				if !yield(models.VideoRef{ID: id}, nil) {
					return
				}
			}

			if len(page.NextPageToken) == 0 {
				return
			}
			q.PageToken = page.NextPageToken
		}
	}
}

// limitIncluded stops the stream once max results have passed the filter.
func limitIncluded(results iter.Seq[models.FetchResult], filter models.FilterConfig, max int) iter.Seq[models.FetchResult] {
	return func(yield func(models.FetchResult) bool) {
		passed := 0

		for res := range results {
			if !yield(res) {
				return
			}

			if res.Metadata == nil {
				continue
			}
			if filter.MinDurationSeconds != nil && res.Metadata.DurationSeconds < *filter.MinDurationSeconds {
				continue
			}

			passed++
			if passed >= max {
				return
			}
		}
	}
}
