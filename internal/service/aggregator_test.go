package service

import (
	"testing"

	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/duration"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetched(id string, seconds int) models.FetchResult {
	ref := models.VideoRef{ID: id}
	return models.FetchResult{Ref: ref, Metadata: &models.VideoMetadata{Ref: ref, DurationSeconds: seconds, Title: "Title " + id}}
}

func unavailable(id string) models.FetchResult {
	return models.FetchResult{Ref: models.VideoRef{ID: id}, Err: &models.FetchError{Kind: models.FetchNotAvailable, VideoID: id, Err: models.ErrNotAvailable}}
}

func TestAggregateSingleVideo(t *testing.T) {
	agg, err := Aggregate(collectSeq([]models.FetchResult{fetched("v1", 90)}), models.MinDurationMinutes(1))
	require.NoError(t, err)

	assert.Equal(t, 90, agg.TotalSeconds)
	assert.Equal(t, 1, agg.IncludedCount)
	assert.Equal(t, "00:01:30", duration.Format(agg.TotalSeconds))
}

func TestAggregateFilter(t *testing.T) {
	results := []models.FetchResult{fetched("a", 300), fetched("b", 3600), fetched("c", 59)}

	agg, err := Aggregate(collectSeq(results), models.MinDurationMinutes(1))
	require.NoError(t, err)

	assert.Equal(t, 3900, agg.TotalSeconds)
	assert.Equal(t, "01:05:00", duration.Format(agg.TotalSeconds))
	assert.Equal(t, 2, agg.IncludedCount)
	assert.Equal(t, 1, agg.ExcludedCount)
	assert.Equal(t, []models.VideoRef{{ID: "a"}, {ID: "b"}}, agg.IncludedRefs())
}

func TestAggregateThresholdIsInclusive(t *testing.T) {
	agg, err := Aggregate(collectSeq([]models.FetchResult{fetched("a", 60), fetched("b", 59)}), models.MinDurationMinutes(1))
	require.NoError(t, err)

	assert.Equal(t, 1, agg.IncludedCount)
	assert.Equal(t, 60, agg.TotalSeconds)
}

func TestAggregateWithoutFilter(t *testing.T) {
	agg, err := Aggregate(collectSeq([]models.FetchResult{fetched("a", 0), fetched("b", 1), unavailable("c")}), models.FilterConfig{})
	require.NoError(t, err)

	assert.Equal(t, 2, agg.IncludedCount)
	assert.Equal(t, 0, agg.ExcludedCount)
	assert.Equal(t, 1, agg.FailedCount)
	require.Len(t, agg.Failures, 1)
	assert.Equal(t, "c", agg.Failures[0].Ref.ID)
}

func TestAggregateCountsAddUp(t *testing.T) {
	results := []models.FetchResult{
		fetched("a", 10), unavailable("b"), fetched("c", 600), fetched("a", 10), unavailable("d"), fetched("e", 7200), fetched("f", 299),
	}

	for _, minutes := range []int{0, 1, 5, 10, 200} {
		filter := models.MinDurationMinutes(minutes)

		agg, err := Aggregate(collectSeq(results), filter)
		require.NoError(t, err)

		assert.Equal(t, len(results), agg.IncludedCount+agg.ExcludedCount+agg.FailedCount)

		sum := 0
		for _, m := range agg.Included {
			sum += m.DurationSeconds
			if filter.MinDurationSeconds != nil {
				assert.GreaterOrEqual(t, m.DurationSeconds, *filter.MinDurationSeconds)
			}
		}
		assert.Equal(t, sum, agg.TotalSeconds)
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	results := []models.FetchResult{fetched("a", 10), unavailable("b"), fetched("c", 600)}

	first, err := Aggregate(collectSeq(results), models.MinDurationMinutes(1))
	require.NoError(t, err)
	second, err := Aggregate(collectSeq(results), models.MinDurationMinutes(1))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestAggregatePartialOnQuota(t *testing.T) {
	results := []models.FetchResult{
		fetched("a", 10),
		unavailable("b"),
		{Err: &models.FetchError{Kind: models.FetchQuotaExceeded, Err: models.ErrQuotaExceeded}},
		fetched("c", 600),
	}

	agg, err := Aggregate(collectSeq(results), models.FilterConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrQuotaExceeded))

	assert.Equal(t, 10, agg.TotalSeconds)
	assert.Equal(t, 1, agg.IncludedCount)
	assert.Equal(t, 1, agg.FailedCount)
}
