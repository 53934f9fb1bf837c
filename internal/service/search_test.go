package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/youtube/youtubetest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchOptionsValidate(t *testing.T) {
	valid := SearchOptions{Query: "golang", MaxResults: 10}
	assert.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		modify func(o *SearchOptions)
		field  string
	}{
		{"empty query", func(o *SearchOptions) { o.Query = "" }, "query"},
		{"zero results", func(o *SearchOptions) { o.MaxResults = 0 }, "max-results"},
		{"too many results", func(o *SearchOptions) { o.MaxResults = 51 }, "max-results"},
		{"bad category", func(o *SearchOptions) { o.Duration = "huge" }, "duration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := valid
			tt.modify(&o)

			var confErr *models.ConfigurationError
			require.True(t, errors.As(o.Validate(), &confErr))
			assert.Equal(t, tt.field, confErr.Field)
		})
	}
}

func TestSearch(t *testing.T) {
	client := youtubetest.NewClient().
		AddVideo("s1", 100).
		AddVideo("s2", 200).
		AddVideo("s3", 300).
		SetSearchResults("s1", "s2", "s3")

	searcher := NewSearcher(client, newTestFetcher(t, client, 50), testPolicy)

	agg, err := searcher.Search(context.Background(), SearchOptions{Query: "golang", MaxResults: 2})
	require.NoError(t, err)

	assert.Equal(t, 2, agg.IncludedCount)
	assert.Equal(t, 300, agg.TotalSeconds)
}

func TestSearchWithFilterScansPages(t *testing.T) {
	client := youtubetest.NewClient()

	ids := make([]string, 0, 120)
	for i := 0; i < 120; i++ {
		id := fmt.Sprintf("s%03d", i)
		ids = append(ids, id)

		seconds := 30
		if i >= 60 {
			seconds = 600
		}
		client.AddVideo(id, seconds)
	}
	client.SetSearchResults(ids...)

	searcher := NewSearcher(client, newTestFetcher(t, client, 50), testPolicy)

	agg, err := searcher.Search(context.Background(), SearchOptions{
		Query:      "golang",
		MaxResults: 3,
		Filter:     models.MinDurationMinutes(5),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, agg.IncludedCount)
	assert.Equal(t, 1800, agg.TotalSeconds)
	assert.Equal(t, 60, agg.ExcludedCount)
	assert.Equal(t, "s060", agg.Included[0].Ref.ID)
}

func TestSearchInvalidOptions(t *testing.T) {
	client := youtubetest.NewClient()

	_, err := NewSearcher(client, newTestFetcher(t, client, 50), testPolicy).Search(context.Background(), SearchOptions{MaxResults: 5})
	assert.Error(t, err)
	assert.Zero(t, client.VideoCalls)
}
