package service

import (
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/repository"
	"github.com/stretchr/testify/require"
)

var testPolicy = RetryPolicy{Attempts: 2, Timeout: time.Second}

func refsOf(ids ...string) iter.Seq2[models.VideoRef, error] {
	return func(yield func(models.VideoRef, error) bool) {
		for _, id := range ids {
			if !yield(models.VideoRef{ID: id}, nil) {
				return
			}
		}
	}
}

func collectRefs(seq iter.Seq2[models.VideoRef, error]) ([]string, []error) {
	var (
		ids  []string
		errs []error
	)

	for ref, err := range seq {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, ref.ID)
	}

	return ids, errs
}

func newTestFetcher(t *testing.T, client VideoClient, batchSize int) *Fetcher {
	t.Helper()

	repo, err := repository.NewMetadataRepository(100)
	require.NoError(t, err)

	return NewFetcher(client, repo, testPolicy, batchSize)
}

func writeBatchFile(t *testing.T, lines ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sources.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o600))

	return path
}

func collectSeq(results []models.FetchResult) iter.Seq[models.FetchResult] {
	return slices.Values(results)
}
