package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/runnerr0/subclip/internal/config"
	"github.com/runnerr0/subclip/internal/subtitle"
)

// Pair is a media file and the subtitle file chosen for it.
type Pair struct {
	MediaPath    string
	SubtitlePath string
	Format       subtitle.Format
}

type subtitleFile struct {
	path string
	kind config.Kind
}

// FindPairs walks root and pairs every media file with a subtitle file of
// the same base name found anywhere under root. SRT is preferred over VTT;
// among files of the same kind one in the media file's own directory wins,
// then the lexically smallest path. Unreadable directories are logged and
// skipped. Paths are absolute and the result is ordered by media path.
func FindPairs(root string, exts config.Extensions, log zerolog.Logger) ([]Pair, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}

	var media []string
	subs := make(map[string][]subtitleFile)

	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == absRoot {
				return err
			}
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable path")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		switch kind := exts.Classify(path); kind {
		case config.KindMedia:
			media = append(media, path)
		case config.KindSRT, config.KindVTT:
			base := baseName(path)
			subs[base] = append(subs[base], subtitleFile{path: path, kind: kind})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(media)

	pairs := make([]Pair, 0, len(media))
	for _, m := range media {
		candidates, ok := subs[baseName(m)]
		if !ok {
			log.Debug().Str("media", m).Msg("no subtitle file")
			continue
		}
		best := pickSubtitle(candidates, filepath.Dir(m))
		pairs = append(pairs, Pair{
			MediaPath:    m,
			SubtitlePath: best.path,
			Format:       formatFor(best.kind),
		})
	}

	return pairs, nil
}

func pickSubtitle(candidates []subtitleFile, dir string) subtitleFile {
	rank := func(s subtitleFile) int {
		r := 0
		if s.kind != config.KindSRT {
			r += 2
		}
		if filepath.Dir(s.path) != dir {
			r++
		}
		return r
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		rc, rb := rank(c), rank(best)
		if rc < rb || (rc == rb && c.path < best.path) {
			best = c
		}
	}
	return best
}

// baseName strips the directory and the final extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func formatFor(kind config.Kind) subtitle.Format {
	if kind == config.KindVTT {
		return subtitle.FormatVTT
	}
	return subtitle.FormatSRT
}
