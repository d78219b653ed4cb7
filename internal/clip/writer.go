package clip

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_]+`)

// SanitizeName collapses every run of characters outside [A-Za-z0-9_] into
// a single underscore.
func SanitizeName(s string) string {
	return unsafeName.ReplaceAllString(s, "_")
}

// UniqueName returns the sanitized query followed by a short random
// suffix, so two searches for the same text never share files.
func UniqueName(query string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return SanitizeName(query) + "-" + id[:8]
}

// Output says where artifacts go.
type Output struct {
	Dir string
	// Name is the artifact base name. Empty means UniqueName(query).
	Name       string
	CaptionGap float64
}

// Artifacts holds the paths of the files written for one search.
type Artifacts struct {
	Playlist   string `json:"playlist"`
	Transcript string `json:"transcript"`
	Captions   string `json:"captions"`
	// Excluded counts windows left out of the playlist and captions.
	Excluded int `json:"excluded"`
}

// Write renders res into <dir>/<name>.edl, .txt and .vtt. Each file is
// written to a temporary file in dir and renamed into place. If any file
// fails, the ones already written are removed.
func Write(res *Result, out Output, log zerolog.Logger) (*Artifacts, error) {
	name := out.Name
	if name == "" {
		name = UniqueName(res.Query.Text)
	} else {
		name = SanitizeName(name)
	}
	if err := os.MkdirAll(out.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	art := &Artifacts{
		Playlist:   filepath.Join(out.Dir, name+".edl"),
		Transcript: filepath.Join(out.Dir, name+".txt"),
		Captions:   filepath.Join(out.Dir, name+".vtt"),
	}
	for _, w := range res.Windows {
		if !w.Playable() {
			art.Excluded++
			log.Warn().Str("media", w.Media.Path).Msg("path contains a comma, left out of playlist and captions")
		}
	}

	steps := []struct {
		dest   string
		render func(io.Writer) error
	}{
		{art.Playlist, func(w io.Writer) error { return RenderPlaylist(w, res.Windows) }},
		{art.Transcript, func(w io.Writer) error { return RenderTranscript(w, res.Windows) }},
		{art.Captions, func(w io.Writer) error { return RenderCaptions(w, res.Windows, out.CaptionGap) }},
	}
	for i, step := range steps {
		if err := writeAtomic(step.dest, step.render); err != nil {
			// Leave no partial set behind.
			for _, done := range steps[:i] {
				_ = os.Remove(done.dest)
			}
			return nil, err
		}
	}

	return art, nil
}

func writeAtomic(dest string, render func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, 0644)

	bw := bufio.NewWriter(tmp)
	if err := render(bw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}
