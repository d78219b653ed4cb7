package clip

import (
	"bufio"
	"fmt"
	"io"
	"math"
)

// DefaultCaptionGap is the silence inserted before and after every cue of
// the caption track, in seconds.
const DefaultCaptionGap = 0.5

const edlHeader = "# mpv EDL v0"

// RenderPlaylist writes an mpv EDL playlist with one "path,start,length"
// line per window. Windows whose path contains a comma are skipped.
func RenderPlaylist(w io.Writer, windows []Window) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, edlHeader)
	for _, win := range windows {
		if !win.Playable() {
			continue
		}
		fmt.Fprintf(bw, "%s,%.2f,%.2f\n", win.Media.Path, win.Start(), win.Length())
	}
	return bw.Flush()
}

// RenderTranscript writes every window's cues as plain text, with a file
// header whenever the media path changes.
func RenderTranscript(w io.Writer, windows []Window) error {
	bw := bufio.NewWriter(w)
	current := ""
	for _, win := range windows {
		if win.Media.Path != current {
			fmt.Fprintf(bw, "\n--- File: %s ---\n", win.Media.Path)
			current = win.Media.Path
		}
		for _, c := range win.Cues {
			fmt.Fprintf(bw, "[%.2f --> %.2f]\n%s\n", c.Start, c.End, c.Text)
		}
	}
	return bw.Flush()
}

// RenderCaptions writes a WebVTT track that follows the playlist: the
// cues of every playable window are laid end to end on one timeline
// starting at 0, each keeping its duration and surrounded by gap seconds
// of silence. Negative durations are laid out as zero.
func RenderCaptions(w io.Writer, windows []Window, gap float64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "WEBVTT\n\n")

	current := 0.0
	for _, win := range windows {
		if !win.Playable() {
			continue
		}
		for _, c := range win.Cues {
			start := current + gap
			end := start + math.Max(c.End-c.Start, 0)
			fmt.Fprintf(bw, "%s --> %s\n%s\n\n", FormatTimestamp(start), FormatTimestamp(end), c.Text)
			current = end + gap
		}
	}
	return bw.Flush()
}

// FormatTimestamp renders seconds as HH:MM:SS.mmm, rounding to the
// nearest millisecond. Negative values render as zero.
func FormatTimestamp(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	if ms < 0 {
		ms = 0
	}
	h := ms / 3_600_000
	ms %= 3_600_000
	m := ms / 60_000
	ms %= 60_000
	s := ms / 1000
	ms %= 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
