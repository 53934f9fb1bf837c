package youtube

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/far4599/ytduration/internal/models"
	"github.com/far4599/ytduration/internal/pkg/duration"
	"github.com/far4599/ytduration/internal/pkg/log"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

const (
	errorPrefix  = "ERROR: "
	tooManyCalls = "HTTP Error 429"
)

// YtDlpClient talks to YouTube through the yt-dlp binary. It needs no API key.
type YtDlpClient struct {
	path     string
	cacheDir string
}

func NewYtDlpClient(path, cacheDir string) *YtDlpClient {
	if len(path) == 0 {
		path = "yt-dlp"
	}

	return &YtDlpClient{
		path:     path,
		cacheDir: cacheDir,
	}
}

func (c *YtDlpClient) Videos(ctx context.Context, ids []string) ([]Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	urls := make([]string, 0, len(ids))
	for _, id := range ids {
		urls = append(urls, models.VideoRef{ID: id}.URL())
	}

	out, err := c.run(ctx, urls, "-j", "--skip-download")
	if err != nil {
		return nil, err
	}

	return parseVideos(out)
}

// PlaylistPage reads one page of a playlist. The page token is the 1-based index of the
// first item of the page.
func (c *YtDlpClient) PlaylistPage(ctx context.Context, playlist, pageToken string) (*Page, error) {
	start := 1
	if len(pageToken) > 0 {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 1 {
			return nil, errors.Errorf("invalid page token '%s'", pageToken)
		}
		start = n
	}

	items := fmt.Sprintf("%d-%d", start, start+MaxPageSize-1)

	out, err := c.run(ctx, []string{playlistURL(playlist)}, "--flat-playlist", "-j", "--playlist-items", items)
	if err != nil {
		return nil, err
	}

	ids, err := parseIDs(out)
	if err != nil {
		return nil, err
	}

	page := &Page{VideoIDs: ids}
	if len(ids) == MaxPageSize {
		page.NextPageToken = strconv.Itoa(start + MaxPageSize)
	}

	return page, nil
}

// UploadsPlaylist returns the channel videos tab, which yt-dlp lists like a playlist.
func (c *YtDlpClient) UploadsPlaylist(_ context.Context, channel string) (string, error) {
	switch classifyChannel(channel) {
	case channelByHandle:
		return "https://www.youtube.com/" + channel + "/videos", nil
	case channelByID:
		return "https://www.youtube.com/channel/" + channel + "/videos", nil
	default:
		return "https://www.youtube.com/c/" + channel + "/videos", nil
	}
}

// Search has no paging and ignores language and country, yt-dlp cannot bias searches.
func (c *YtDlpClient) Search(ctx context.Context, q SearchQuery) (*Page, error) {
	if len(q.PageToken) > 0 {
		return &Page{}, nil
	}

	if len(q.Language) > 0 || len(q.Country) > 0 {
		log.Logger.Warnw("yt-dlp backend ignores language and country", "language", q.Language, "country", q.Country)
	}

	n := q.MaxResults
	if n <= 0 {
		n = MaxPageSize
	}

	out, err := c.run(ctx, []string{fmt.Sprintf("ytsearch%d:%s", n, q.Query)}, "--flat-playlist", "-j")
	if err != nil {
		return nil, err
	}

	ids, err := parseIDs(out)
	if err != nil {
		return nil, err
	}

	return &Page{VideoIDs: ids}, nil
}

func (c *YtDlpClient) run(ctx context.Context, urls []string, args ...string) ([]byte, error) {
	defaultArgs := []string{
		"--ignore-errors",
		"--no-warnings",
		// provide URLs via stdin, yt-dlp would treat some of them as options otherwise
		"--batch-file", "-",
	}
	if len(c.cacheDir) > 0 {
		defaultArgs = append(defaultArgs, "--cache-dir", c.cacheDir)
	}

	cmd := exec.CommandContext(ctx, c.path, append(defaultArgs, args...)...)

	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd.Stdin = strings.NewReader(strings.Join(urls, "\n") + "\n")
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	runErr := cmd.Run()

	if err := scanStderr(stderr); err != nil {
		return nil, err
	}

	// --ignore-errors makes yt-dlp exit non-zero when a single video is unavailable,
	// only fail when nothing came out
	if runErr != nil && stdout.Len() == 0 {
		if ctx.Err() != nil {
			return nil, errors.Wrap(ctx.Err(), "yt-dlp interrupted")
		}
		return nil, errors.Wrap(runErr, "failed to run yt-dlp")
	}

	return stdout.Bytes(), nil
}

func scanStderr(stderr *bytes.Buffer) error {
	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, errorPrefix) {
			continue
		}

		msg := line[len(errorPrefix):]
		if strings.Contains(msg, tooManyCalls) {
			return errors.Wrap(models.ErrQuotaExceeded, msg)
		}

		log.Logger.Debugw("yt-dlp returned error", "error", msg)
	}

	return nil
}

func playlistURL(playlist string) string {
	if strings.HasPrefix(playlist, "http://") || strings.HasPrefix(playlist, "https://") {
		return playlist
	}

	return "https://www.youtube.com/playlist?list=" + playlist
}

func parseVideos(out []byte) ([]Video, error) {
	var (
		p      fastjson.Parser
		result []Video
	)

	err := eachLine(out, func(line []byte) error {
		v, err := p.ParseBytes(line)
		if err != nil {
			return errors.Wrap(err, "failed to parse yt-dlp output")
		}

		id := getString(v, "id")
		if len(id) == 0 {
			return nil
		}

		video := Video{
			ID:      id,
			Title:   getString(v, "title"),
			Channel: getString(v, "channel"),
		}
		if len(video.Channel) == 0 {
			video.Channel = getString(v, "uploader")
		}

		// live streams have no duration, the API reports them as P0D
		video.Duration = "P0D"
		if d := v.Get("duration"); d != nil && d.Type() == fastjson.TypeNumber {
			video.Duration = duration.Encode(int(d.GetFloat64()))
		}

		result = append(result, video)

		return nil
	})

	return result, err
}

func parseIDs(out []byte) ([]string, error) {
	var (
		p   fastjson.Parser
		ids []string
	)

	err := eachLine(out, func(line []byte) error {
		v, err := p.ParseBytes(line)
		if err != nil {
			return errors.Wrap(err, "failed to parse yt-dlp output")
		}

		if id := getString(v, "id"); len(id) > 0 {
			ids = append(ids, id)
		}

		return nil
	})

	return ids, err
}

func eachLine(out []byte, fn func([]byte) error) error {
	for _, line := range bytes.Split(out, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		if err := fn(line); err != nil {
			return err
		}
	}

	return nil
}

func getString(v *fastjson.Value, key string) string {
	return string(v.GetStringBytes(key))
}
