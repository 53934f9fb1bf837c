package service

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/duration"
	"github.com/pkg/errors"
)

type ReportMode int

const (
	ModeConsole ReportMode = iota
	ModeTextFile
	ModeLinksFile
	ModeJSONFile
)

func (m ReportMode) String() string {
	switch m {
	case ModeConsole:
		return "console"
	case ModeTextFile:
		return "text"
	case ModeLinksFile:
		return "links"
	case ModeJSONFile:
		return "json"
	}

	return "unknown"
}

// ModeFor picks the export format for destination: .json files get JSON, everything else
// a URL list when links is set and formatted lines otherwise.
func ModeFor(destination string, links bool) ReportMode {
	switch {
	case len(destination) == 0:
		return ModeConsole
	case strings.EqualFold(filepath.Ext(destination), ".json"):
		return ModeJSONFile
	case links:
		return ModeLinksFile
	}

	return ModeTextFile
}

type Report struct {
	Result *models.AggregationResult
	Filter models.FilterConfig
	// Aborted is the fatal error that cut the run short, if any.
	Aborted error
}

type Emitter struct {
	stdout io.Writer
}

func NewEmitter(stdout io.Writer) *Emitter {
	return &Emitter{
		stdout: stdout,
	}
}

// Emit writes the report to stdout in console mode, or to destination otherwise.
func (e *Emitter) Emit(r *Report, mode ReportMode, destination string) (err error) {
	if mode == ModeConsole {
		return writeLines(e.stdout, r)
	}

	f, err := os.Create(destination)
	if err != nil {
		return errors.Wrapf(err, "failed to create output file '%s'", destination)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(closeErr, "failed to close output file '%s'", destination)
		}
	}()

	w := bufio.NewWriter(f)

	switch mode {
	case ModeTextFile:
		err = writeLines(w, r)
	case ModeLinksFile:
		err = writeLinks(w, r)
	case ModeJSONFile:
		err = writeJSON(w, r)
	default:
		err = errors.Errorf("unsupported report mode %s", mode)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to write output file '%s'", destination)
	}

	return errors.Wrapf(w.Flush(), "failed to write output file '%s'", destination)
}

// Summary renders the one line summary of a report.
func Summary(r *Report) string {
	res := r.Result

	included := "included " + humanize.Comma(int64(res.IncludedCount))
	if r.Filter.MinDurationSeconds != nil {
		included += " (>= " + duration.Format(*r.Filter.MinDurationSeconds) + ")"
	}

	parts := []string{
		"total " + duration.Format(res.TotalSeconds),
		included,
		"excluded " + humanize.Comma(int64(res.ExcludedCount)),
		"failed " + humanize.Comma(int64(res.FailedCount)),
	}
	if r.Aborted != nil {
		parts = append(parts, "partial: "+r.Aborted.Error())
	}

	return strings.Join(parts, " | ")
}

func formatLine(m models.VideoMetadata) string {
	return fmt.Sprintf("[%s] %s - (%s) %s", duration.Format(m.DurationSeconds), m.Title, m.Channel, m.Ref.URL())
}

func writeLines(w io.Writer, r *Report) error {
	for _, m := range r.Result.Included {
		if _, err := fmt.Fprintln(w, formatLine(m)); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintln(w, Summary(r))
	return err
}

func writeLinks(w io.Writer, r *Report) error {
	for _, ref := range r.Result.IncludedRefs() {
		if _, err := fmt.Fprintln(w, ref.URL()); err != nil {
			return err
		}
	}

	return nil
}

type jsonVideo struct {
	Title    string `json:"title"`
	Channel  string `json:"channel"`
	Duration string `json:"duration"`
	URL      string `json:"url"`
	VideoID  string `json:"videoId"`
}

// writeJSON writes a bare array of video records, the summary stays on the console.
func writeJSON(w io.Writer, r *Report) error {
	videos := make([]jsonVideo, 0, len(r.Result.Included))
	for _, m := range r.Result.Included {
		videos = append(videos, jsonVideo{
			Title:    m.Title,
			Channel:  m.Channel,
			Duration: duration.Format(m.DurationSeconds),
			URL:      m.Ref.URL(),
			VideoID:  m.Ref.ID,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")

	return enc.Encode(videos)
}
