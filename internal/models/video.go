package models

const watchURLPrefix = "https://www.youtube.com/watch?v="

type VideoRef struct {
	ID string
}

// URL returns the canonical watch URL of the video.
func (r VideoRef) URL() string {
	return watchURLPrefix + r.ID
}

type VideoMetadata struct {
	Ref             VideoRef
	DurationSeconds int
	Title           string
	Channel         string
}

type SourceKind int

const (
	SourceVideo SourceKind = iota
	SourcePlaylist
	SourceChannel
	SourceBatchFile
)

func (k SourceKind) String() string {
	switch k {
	case SourceVideo:
		return "video"
	case SourcePlaylist:
		return "playlist"
	case SourceChannel:
		return "channel"
	case SourceBatchFile:
		return "batch file"
	}

	return "unknown"
}

// SourceSpec is a classified user input. ID holds the video ID, the playlist ID,
// the channel identifier (UC… id, @handle or legacy name) or the batch file path.
type SourceSpec struct {
	Kind SourceKind
	ID   string

	// Entries are the classified lines of a batch file, in file order.
	Entries []SourceSpec
}

type FilterConfig struct {
	// MinDurationSeconds is nil when no filtering is requested.
	MinDurationSeconds *int
}

// MinDurationMinutes builds a filter from a minute threshold, zero or less meaning no filter.
func MinDurationMinutes(minutes int) FilterConfig {
	if minutes <= 0 {
		return FilterConfig{}
	}

	seconds := minutes * 60
	return FilterConfig{MinDurationSeconds: &seconds}
}

type FetchResult struct {
	Ref      VideoRef
	Metadata *VideoMetadata
	Err      error
}

type FetchFailure struct {
	Ref VideoRef
	Err error
}

type AggregationResult struct {
	TotalSeconds  int
	Included      []VideoMetadata
	IncludedCount int
	ExcludedCount int
	FailedCount   int
	Failures      []FetchFailure
}

// IncludedRefs returns the references of the included videos in order.
func (r *AggregationResult) IncludedRefs() []VideoRef {
	refs := make([]VideoRef, 0, len(r.Included))
	for _, m := range r.Included {
		refs = append(refs, m.Ref)
	}

	return refs
}
