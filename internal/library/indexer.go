// Package library finds media/subtitle pairs on disk and records them in
// the index store.
package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/runnerr0/subclip/internal/config"
	"github.com/runnerr0/subclip/internal/logging"
	"github.com/runnerr0/subclip/internal/storage"
	"github.com/runnerr0/subclip/internal/subtitle"
)

// Mode selects how Scan treats media that is already indexed.
type Mode int

const (
	// ModeUpdate indexes new paths and refreshes paths whose media file is
	// newer than the recorded modification time.
	ModeUpdate Mode = iota
	// ModeReload empties the index first and indexes every pair.
	ModeReload
)

func (m Mode) String() string {
	if m == ModeReload {
		return "reload"
	}
	return "update"
}

// Options configures an Indexer.
type Options struct {
	Extensions config.Extensions
	Policy     subtitle.Policy
	Mode       Mode
	// Logger defaults to the "indexer" component logger.
	Logger *zerolog.Logger
}

// ScanResult summarises one Scan.
type ScanResult struct {
	Pairs int
	// Indexed is the number of newly inserted media records.
	Indexed   int
	Refreshed int
	Skipped   int
	Failed    int
	Cues      int
	Degraded  int
}

// Indexer records media/subtitle pairs in a Store.
type Indexer struct {
	store  storage.Store
	exts   config.Extensions
	policy subtitle.Policy
	mode   Mode
	log    zerolog.Logger
}

// New creates an Indexer writing to store.
func New(store storage.Store, opts Options) *Indexer {
	exts := opts.Extensions
	if exts == nil {
		exts = config.DefaultConfig().Extensions()
	}
	log := logging.WithComponent("indexer")
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Indexer{
		store:  store,
		exts:   exts,
		policy: opts.Policy,
		mode:   opts.Mode,
		log:    log,
	}
}

// Scan walks root and indexes every media/subtitle pair according to the
// indexer's mode. In ModeReload the index is emptied only after the walk
// succeeds. A subtitle that cannot be decoded is logged and counted
// in Failed; store errors abort the scan.
func (ix *Indexer) Scan(ctx context.Context, root string) (*ScanResult, error) {
	pairs, err := FindPairs(root, ix.exts, ix.log)
	if err != nil {
		return nil, err
	}

	if ix.mode == ModeReload {
		ix.log.Info().Msg("recreating index")
		if err := ix.store.PurgeAll(ctx); err != nil {
			return nil, fmt.Errorf("purge index: %w", err)
		}
	}
	ix.log.Info().Int("pairs", len(pairs)).Str("root", root).Msg("found media/subtitle pairs")

	res := &ScanResult{Pairs: len(pairs)}
	for _, p := range pairs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := ix.indexPair(ctx, p, res); err != nil {
			return res, err
		}
	}

	ix.log.Info().
		Int("indexed", res.Indexed).
		Int("refreshed", res.Refreshed).
		Int("skipped", res.Skipped).
		Int("failed", res.Failed).
		Msg("scan complete")
	return res, nil
}

func (ix *Indexer) indexPair(ctx context.Context, p Pair, res *ScanResult) error {
	log := ix.log.With().Str("media", p.MediaPath).Logger()

	info, err := os.Stat(p.MediaPath)
	if err != nil {
		log.Warn().Err(err).Msg("cannot stat media file")
		res.Failed++
		return nil
	}
	mtime := info.ModTime()
	rec := &storage.MediaRecord{
		Path:         p.MediaPath,
		ChangeToken:  strconv.FormatFloat(float64(mtime.UnixNano())/1e9, 'f', -1, 64),
		ModifiedTime: mtime.Unix(),
	}

	var existing *storage.MediaRecord
	if ix.mode == ModeUpdate {
		existing, err = ix.store.GetMedia(ctx, p.MediaPath)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			existing = nil
		case err != nil:
			return err
		case existing.ModifiedTime >= rec.ModifiedTime:
			log.Debug().Msg("unchanged, skipping")
			res.Skipped++
			return nil
		}
	}

	track, err := subtitle.DecodeFile(p.SubtitlePath, p.Format, ix.policy)
	if err != nil {
		log.Warn().Err(err).Str("subtitle", p.SubtitlePath).Msg("cannot decode subtitle file")
		res.Failed++
		return nil
	}
	if track.Degraded > 0 {
		log.Debug().Int("degraded", track.Degraded).Msg("timestamps replaced by 0")
	}
	cues := toStorageCues(track.Cues)

	if existing != nil {
		rec.ID = existing.ID
		if err := ix.store.ReplaceCues(ctx, rec, cues); err != nil {
			return fmt.Errorf("refresh %s: %w", p.MediaPath, err)
		}
		log.Info().Int("cues", len(cues)).Msg("refreshed")
		res.Refreshed++
		res.Cues += len(cues)
		res.Degraded += track.Degraded
		return nil
	}

	inserted, err := ix.store.AddMediaWithCues(ctx, rec, cues)
	if err != nil {
		return fmt.Errorf("index %s: %w", p.MediaPath, err)
	}
	if !inserted {
		log.Info().Msg("already in the index, skipping")
		res.Skipped++
		return nil
	}

	log.Info().Int("cues", len(cues)).Str("subtitle", p.SubtitlePath).Msg("indexed")
	res.Indexed++
	res.Cues += len(cues)
	res.Degraded += track.Degraded
	return nil
}

func toStorageCues(cues []subtitle.Cue) []storage.Cue {
	out := make([]storage.Cue, len(cues))
	for i, c := range cues {
		out[i] = storage.Cue{Start: c.Start, End: c.End, Text: c.Text}
	}
	return out
}
