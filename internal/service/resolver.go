package service

import (
	"bufio"
	"context"
	"iter"
	"os"
	"regexp"
	"strings"

	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/log"
	"github.com/far4599/ytduration/internal/pkg/youtube"
	"github.com/far4599/ytduration/internal/repository"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const commentMarker = "#"

var (
	videoRegexp    = regexp.MustCompile(`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|embed/|shorts/|live/|v/)|youtu\.be/)([A-Za-z0-9_-]{11})`)
	playlistRegexp = regexp.MustCompile(`[?&]list=([A-Za-z0-9_-]+)`)
	channelRegexp  = regexp.MustCompile(`youtube\.com/(?:channel/(UC[A-Za-z0-9_-]{22})|(@[A-Za-z0-9_.-]+)|c/([A-Za-z0-9_.-]+)|user/([A-Za-z0-9_.-]+))`)
	handleRegexp   = regexp.MustCompile(`^@[A-Za-z0-9_.-]+$`)
)

// Classify matches input against the known source shapes. Batch files are read and every
// entry classified right away, so a malformed batch fails before anything goes upstream.
func Classify(input string) (models.SourceSpec, error) {
	return classify(strings.TrimSpace(input), false)
}

func classify(input string, nested bool) (models.SourceSpec, error) {
	if m := videoRegexp.FindStringSubmatch(input); m != nil {
		return models.SourceSpec{Kind: models.SourceVideo, ID: m[1]}, nil
	}

	if m := playlistRegexp.FindStringSubmatch(input); m != nil {
		return models.SourceSpec{Kind: models.SourcePlaylist, ID: m[1]}, nil
	}

	if m := channelRegexp.FindStringSubmatch(input); m != nil {
		for _, group := range m[1:] {
			if len(group) > 0 {
				return models.SourceSpec{Kind: models.SourceChannel, ID: group}, nil
			}
		}
	}

	if handleRegexp.MatchString(input) {
		return models.SourceSpec{Kind: models.SourceChannel, ID: input}, nil
	}

	if info, err := os.Stat(input); err == nil && info.Mode().IsRegular() {
		if nested {
			return models.SourceSpec{}, &models.NestedBatchFileError{Entry: input}
		}

		entries, err := readBatchFile(input)
		if err != nil {
			return models.SourceSpec{}, err
		}

		return models.SourceSpec{Kind: models.SourceBatchFile, ID: input, Entries: entries}, nil
	}

	return models.SourceSpec{}, &models.UnrecognizedSourceError{Input: input}
}

func readBatchFile(path string) ([]models.SourceSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open batch file '%s'", path)
	}
	defer f.Close()

	var (
		entries []models.SourceSpec
		lineNo  int
	)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, commentMarker) {
			continue
		}

		spec, err := classify(line, true)
		if err != nil {
			var nestedErr *models.NestedBatchFileError
			if errors.As(err, &nestedErr) {
				nestedErr.Path, nestedErr.Line = path, lineNo
				return nil, nestedErr
			}

			return nil, errors.Wrapf(err, "batch file '%s' line %d", path, lineNo)
		}

		entries = append(entries, spec)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read batch file '%s'", path)
	}

	return entries, nil
}

type Resolver struct {
	client   PlaylistClient
	channels *repository.ChannelRepository
	policy   RetryPolicy

	concurrency int
	unique      bool
}

func NewResolver(client PlaylistClient, channels *repository.ChannelRepository, policy RetryPolicy) *Resolver {
	return &Resolver{
		client:      client,
		channels:    channels,
		policy:      policy,
		concurrency: 1,
	}
}

// WithConcurrency lets batch file entries be expanded in parallel. Each entry's membership
// is then fully listed before its videos are handed on, in file order.
func (r *Resolver) WithConcurrency(n int) *Resolver {
	if n < 1 {
		n = 1
	}
	r.concurrency = n

	return r
}

// WithUnique drops repeated video IDs, the first occurrence wins.
func (r *Resolver) WithUnique(unique bool) *Resolver {
	r.unique = unique

	return r
}

// Resolve expands spec into video references. Playlist pages are only requested as the
// sequence is consumed. Listing failures are yielded as *models.FetchError.
func (r *Resolver) Resolve(ctx context.Context, spec models.SourceSpec) iter.Seq2[models.VideoRef, error] {
	seq := r.expand(ctx, spec)
	if r.unique {
		seq = uniqueRefs(seq)
	}

	return seq
}

func (r *Resolver) expand(ctx context.Context, spec models.SourceSpec) iter.Seq2[models.VideoRef, error] {
	switch spec.Kind {
	case models.SourceVideo:
		return func(yield func(models.VideoRef, error) bool) {
			yield(models.VideoRef{ID: spec.ID}, nil)
		}
	case models.SourcePlaylist:
		return r.playlist(ctx, spec.ID)
	case models.SourceChannel:
		return r.channel(ctx, spec.ID)
	case models.SourceBatchFile:
		if r.concurrency > 1 {
			return r.batchConcurrent(ctx, spec.Entries)
		}
		return r.batch(ctx, spec.Entries)
	}

	return func(yield func(models.VideoRef, error) bool) {
		yield(models.VideoRef{}, errors.Errorf("unsupported source kind %s", spec.Kind))
	}
}

func (r *Resolver) playlist(ctx context.Context, playlistID string) iter.Seq2[models.VideoRef, error] {
	return func(yield func(models.VideoRef, error) bool) {
		var (
			token string
			pages int
		)

		for {
			var page *youtube.Page
			err := r.policy.Do(ctx, func(ctx context.Context) (err error) {
				page, err = r.client.PlaylistPage(ctx, playlistID, token)
				return err
			})
			if err != nil {
				yield(models.VideoRef{}, &models.FetchError{
					Kind: fetchErrorKind(err),
					Err:  errors.Wrapf(err, "failed to list playlist '%s'", playlistID),
				})
				return
			}

			pages++
			log.Logger.Debugw("playlist page listed", "playlist", playlistID, "page", pages, "videos", len(page.VideoIDs))

			for _, id := range page.VideoIDs {
				if !yield(models.VideoRef{ID: id}, nil) {
					return
				}
			}

			if len(page.NextPageToken) == 0 || page.NextPageToken == token {
				return
			}
			token = page.NextPageToken
		}
	}
}

func (r *Resolver) channel(ctx context.Context, channel string) iter.Seq2[models.VideoRef, error] {
	return func(yield func(models.VideoRef, error) bool) {
		uploads, ok := r.channels.Get(channel)
		if !ok {
			err := r.policy.Do(ctx, func(ctx context.Context) (err error) {
				uploads, err = r.client.UploadsPlaylist(ctx, channel)
				return err
			})
			if err != nil {
				yield(models.VideoRef{}, &models.FetchError{
					Kind: fetchErrorKind(err),
					Err:  errors.Wrapf(err, "failed to resolve channel '%s'", channel),
				})
				return
			}

			r.channels.Add(channel, uploads)
		}

		log.Logger.Debugw("channel resolved", "channel", channel, "uploads", uploads)

		for ref, err := range r.playlist(ctx, uploads) {
			if !yield(ref, err) {
				return
			}
		}
	}
}

func (r *Resolver) batch(ctx context.Context, entries []models.SourceSpec) iter.Seq2[models.VideoRef, error] {
	return func(yield func(models.VideoRef, error) bool) {
		for _, entry := range entries {
			for ref, err := range r.expand(ctx, entry) {
				if !yield(ref, err) {
					return
				}
			}
		}
	}
}

type resolved struct {
	ref models.VideoRef
	err error
}

// batchConcurrent stops every sibling listing once one entry hits a fatal error. Entries
// cut short by that are replaced by the fatal error when joined.
func (r *Resolver) batchConcurrent(ctx context.Context, entries []models.SourceSpec) iter.Seq2[models.VideoRef, error] {
	return func(yield func(models.VideoRef, error) bool) {
		collected := make([][]resolved, len(entries))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)

		for i, entry := range entries {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					collected[i] = []resolved{{err: err}}
					return nil
				}

				for ref, err := range r.expand(gctx, entry) {
					collected[i] = append(collected[i], resolved{ref: ref, err: err})
					if models.IsFatal(err) {
						return err
					}
				}
				return nil
			})
		}

		fatal := g.Wait()

		for _, items := range collected {
			for _, item := range items {
				if fatal != nil && errors.Is(item.err, context.Canceled) {
					yield(models.VideoRef{}, fatal)
					return
				}

				if !yield(item.ref, item.err) || models.IsFatal(item.err) {
					return
				}
			}
		}
	}
}

func uniqueRefs(seq iter.Seq2[models.VideoRef, error]) iter.Seq2[models.VideoRef, error] {
	return func(yield func(models.VideoRef, error) bool) {
		seen := make(map[string]struct{})

		for ref, err := range seq {
			if err == nil {
				if _, ok := seen[ref.ID]; ok {
					continue
				}
				seen[ref.ID] = struct{}{}
			}

			if !yield(ref, err) {
				return
			}
		}
	}
}
