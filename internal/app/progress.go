package app

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// newProgressBar returns a spinner, the number of videos is unknown until the sources
// are fully listed.
func newProgressBar(w io.Writer) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("fetching videos"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
