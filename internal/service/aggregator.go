package service

import (
	"iter"

	"github.com/far4599/ytduration/internal/models"
)

// Aggregate applies the filter in a single pass. A fatal result stops the pass and is
// returned together with everything accumulated before it.
func Aggregate(results iter.Seq[models.FetchResult], filter models.FilterConfig) (*models.AggregationResult, error) {
	agg := &models.AggregationResult{}

	for res := range results {
		if res.Err != nil {
			if models.IsFatal(res.Err) {
				return agg, res.Err
			}

			agg.FailedCount++
			agg.Failures = append(agg.Failures, models.FetchFailure{Ref: res.Ref, Err: res.Err})
			continue
		}

		if res.Metadata == nil {
			continue
		}

		m := *res.Metadata
		if filter.MinDurationSeconds != nil && m.DurationSeconds < *filter.MinDurationSeconds {
			agg.ExcludedCount++
			continue
		}

		agg.IncludedCount++
		agg.TotalSeconds += m.DurationSeconds
		agg.Included = append(agg.Included, m)
	}

	return agg, nil
}
