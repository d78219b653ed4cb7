// Package clip searches the index and assembles matched cues into
// playable clips: an mpv playlist, a plain transcript and a re-timed
// caption track.
package clip

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/runnerr0/subclip/internal/logging"
	"github.com/runnerr0/subclip/internal/storage"
)

var (
	ErrEmptyQuery      = errors.New("query text is empty")
	ErrNegativeContext = errors.New("before and after must be non-negative")
)

// Query describes one search.
type Query struct {
	Text   string
	Before int
	After  int
}

// Window is a matched cue plus up to Before preceding and After following
// cues of the same media file, in id order.
type Window struct {
	Media storage.MediaRecord
	Match storage.Cue
	Cues  []storage.Cue
}

// Start is the start time of the first cue in the window.
func (w Window) Start() float64 { return w.Cues[0].Start }

// End is the end time of the last cue in the window.
func (w Window) End() float64 { return w.Cues[len(w.Cues)-1].End }

// Length is End - Start. It is not clamped, so a window over malformed
// timestamps can have a negative length.
func (w Window) Length() float64 { return w.End() - w.Start() }

// Playable reports whether the window can be written to an mpv EDL line,
// whose fields are comma separated.
func (w Window) Playable() bool {
	return !strings.Contains(w.Media.Path, ",")
}

// Result is the outcome of a search.
type Result struct {
	Query   Query
	Windows []Window
}

// Hits is the number of matched cues.
func (r *Result) Hits() int { return len(r.Windows) }

// Playable returns the windows that can appear in the playlist and the
// caption track.
func (r *Result) Playable() []Window {
	out := make([]Window, 0, len(r.Windows))
	for _, w := range r.Windows {
		if w.Playable() {
			out = append(out, w)
		}
	}
	return out
}

// Engine runs searches against a Store. It never modifies the store.
type Engine struct {
	store storage.Store
	log   zerolog.Logger
}

// NewEngine creates an Engine. A nil logger selects the "clip" component
// logger.
func NewEngine(store storage.Store, log *zerolog.Logger) *Engine {
	e := &Engine{store: store, log: logging.WithComponent("clip")}
	if log != nil {
		e.log = *log
	}
	return e
}

// Search finds every cue containing q.Text and builds a context window
// around each one. Windows are ordered by media path, then match start.
func (e *Engine) Search(ctx context.Context, q Query) (*Result, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	if q.Before < 0 || q.After < 0 {
		return nil, fmt.Errorf("before=%d after=%d: %w", q.Before, q.After, ErrNegativeContext)
	}

	hits, err := e.store.SearchCues(ctx, q.Text)
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("query", q.Text).Int("hits", len(hits)).Msg("searched cues")

	res := &Result{Query: q, Windows: make([]Window, 0, len(hits))}
	for _, h := range hits {
		before, err := e.store.CuesBefore(ctx, h.Media.ID, h.Cue.ID, q.Before)
		if err != nil {
			return nil, err
		}
		after, err := e.store.CuesAfter(ctx, h.Media.ID, h.Cue.ID, q.After)
		if err != nil {
			return nil, err
		}

		cues := make([]storage.Cue, 0, len(before)+1+len(after))
		cues = append(cues, before...)
		cues = append(cues, h.Cue)
		cues = append(cues, after...)

		res.Windows = append(res.Windows, Window{Media: h.Media, Match: h.Cue, Cues: cues})
	}

	return res, nil
}
