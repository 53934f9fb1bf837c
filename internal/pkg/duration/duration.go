// Package duration converts between the ISO-8601 durations reported by YouTube and integer seconds.
package duration

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/far4599/ytduration/internal/models"
)

var isoRegexp = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

// Decode parses durations like PT1H2M3S, PT45S or P1DT2H into seconds.
func Decode(raw string) (int, error) {
	m := isoRegexp.FindStringSubmatch(raw)
	if m == nil || raw == "P" || strings.HasSuffix(raw, "T") {
		return 0, &models.MalformedDurationError{Raw: raw}
	}

	var (
		total int
		units = [...]int{86400, 3600, 60, 1}
	)
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}

		n, err := strconv.Atoi(m[i+1])
		if err != nil || n > (math.MaxInt-total)/unit {
			return 0, &models.MalformedDurationError{Raw: raw}
		}
		total += n * unit
	}

	return total, nil
}

// Encode is the inverse of Decode. Days are never emitted, hours are unbounded.
func Encode(seconds int) string {
	if seconds <= 0 {
		return "PT0S"
	}

	h, m, s := split(seconds)

	var b strings.Builder
	b.WriteString("PT")
	if h > 0 {
		b.WriteString(strconv.Itoa(h) + "H")
	}
	if m > 0 {
		b.WriteString(strconv.Itoa(m) + "M")
	}
	if s > 0 {
		b.WriteString(strconv.Itoa(s) + "S")
	}

	return b.String()
}

// Format renders seconds as HH:MM:SS.
func Format(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	h, m, s := split(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func split(seconds int) (h, m, s int) {
	return seconds / 3600, seconds % 3600 / 60, seconds % 60
}
