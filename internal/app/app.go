package app

import (
	"context"
	"io"
	"iter"

	"github.com/far4599/ytduration/internal/config"
	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/log"
	"github.com/far4599/ytduration/internal/pkg/youtube"
	"github.com/far4599/ytduration/internal/repository"
	"github.com/far4599/ytduration/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type App struct {
	conf   *config.Config
	client service.Client

	stdout io.Writer
	stderr io.Writer
}

type RunOptions struct {
	Source string
	Filter models.FilterConfig
	// SaveFile receives the links of included videos, OutputFile the formatted report.
	// A .json extension switches either of them to JSON records.
	SaveFile   string
	OutputFile string
	Unique     bool
	Progress   bool
}

type SearchOptions struct {
	service.SearchOptions
	OutputFile string
}

type export struct {
	path  string
	links bool
}

// NewClient builds the upstream client selected by the configuration.
func NewClient(ctx context.Context, conf *config.Config) (service.Client, error) {
	if conf.YouTube.Backend == config.BackendYtDlp {
		return youtube.NewYtDlpClient(conf.YouTube.YtDlpPath, conf.YouTube.CacheDir), nil
	}

	return youtube.NewAPIClient(ctx, conf.YouTube.APIKey)
}

func NewApp(conf *config.Config, client service.Client, stdout, stderr io.Writer) *App {
	return &App{
		conf:   conf,
		client: client,
		stdout: stdout,
		stderr: stderr,
	}
}

// Run resolves the source, fetches every video, aggregates and reports. A fatal upstream
// error still reports the partial result before it is returned.
func (app *App) Run(ctx context.Context, opts RunOptions) error {
	runID := uuid.New().String()
	logger := log.Logger.With("run", runID)

	spec, err := service.Classify(opts.Source)
	if err != nil {
		return err
	}

	logger.Infow("processing source", "kind", spec.Kind, "id", spec.ID, "entries", len(spec.Entries))

	fetcher, err := app.newFetcher()
	if err != nil {
		return err
	}

	resolver := service.NewResolver(app.client, repository.NewChannelRepository(app.conf.Fetch.ChannelCacheTTL), app.retryPolicy()).
		WithConcurrency(app.conf.Fetch.Concurrency).
		WithUnique(opts.Unique)

	results := fetcher.Fetch(ctx, resolver.Resolve(ctx, spec))
	if opts.Progress {
		var finish func()
		results, finish = trackProgress(results, app.stderr)
		defer finish()
	}

	result, aborted := service.Aggregate(results, opts.Filter)

	return app.report(logger, &service.Report{
		Result:  result,
		Filter:  opts.Filter,
		Aborted: aborted,
	}, export{path: opts.SaveFile, links: true}, export{path: opts.OutputFile})
}

func (app *App) Search(ctx context.Context, opts SearchOptions) error {
	runID := uuid.New().String()
	logger := log.Logger.With("run", runID)

	if err := opts.Validate(); err != nil {
		return err
	}

	logger.Infow("searching", "query", opts.Query, "language", opts.Language, "country", opts.Country, "max", opts.MaxResults)

	fetcher, err := app.newFetcher()
	if err != nil {
		return err
	}

	searcher := service.NewSearcher(app.client, fetcher, app.retryPolicy())

	result, aborted := searcher.Search(ctx, opts.SearchOptions)
	if result == nil {
		return aborted
	}

	return app.report(logger, &service.Report{
		Result:  result,
		Filter:  opts.Filter,
		Aborted: aborted,
	}, export{path: opts.OutputFile})
}

func (app *App) newFetcher() (*service.Fetcher, error) {
	metadata, err := repository.NewMetadataRepository(app.conf.Fetch.CacheSize)
	if err != nil {
		return nil, err
	}

	return service.NewFetcher(app.client, metadata, app.retryPolicy(), app.conf.Fetch.BatchSize), nil
}

func (app *App) retryPolicy() service.RetryPolicy {
	return service.RetryPolicy{
		Attempts: app.conf.Fetch.Attempts,
		Delay:    app.conf.Fetch.RetryDelay,
		Timeout:  app.conf.Fetch.RequestTimeout,
	}
}

func (app *App) report(logger *zap.SugaredLogger, report *service.Report, exports ...export) error {
	for _, f := range report.Result.Failures {
		logger.Debugw("video skipped", "video", f.Ref.ID, "error", f.Err)
	}
	if report.Result.FailedCount > 0 {
		logger.Warnw("some videos could not be fetched", "failed", report.Result.FailedCount)
	}

	emitter := service.NewEmitter(app.stdout)

	emitErr := emitter.Emit(report, service.ModeConsole, "")
	for _, e := range exports {
		if emitErr != nil || len(e.path) == 0 {
			continue
		}

		mode := service.ModeFor(e.path, e.links)
		if emitErr = emitter.Emit(report, mode, e.path); emitErr == nil {
			logger.Infow("results saved", "file", e.path, "format", mode, "videos", report.Result.IncludedCount)
		}
	}

	if report.Aborted != nil {
		if emitErr != nil {
			logger.Errorw("failed to emit partial report", "error", emitErr)
		}
		return report.Aborted
	}

	return emitErr
}

func trackProgress(results iter.Seq[models.FetchResult], w io.Writer) (iter.Seq[models.FetchResult], func()) {
	bar := newProgressBar(w)

	tracked := func(yield func(models.FetchResult) bool) {
		for res := range results {
			_ = bar.Add(1)
			if !yield(res) {
				return
			}
		}
	}

	return tracked, func() { _ = bar.Finish() }
}
