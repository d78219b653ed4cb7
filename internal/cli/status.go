package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/subclip/internal/storage"
)

// statsJSON is the JSON output structure for --stats.
type statsJSON struct {
	Version           string           `json:"version"`
	DatabasePath      string           `json:"database_path"`
	DatabaseSizeBytes int64            `json:"database_size_bytes"`
	MediaFiles        int64            `json:"media_files"`
	Cues              int64            `json:"cues"`
	LastModified      string           `json:"last_modified,omitempty"`
	TopMedia          []mediaCountJSON `json:"top_media"`
}

type mediaCountJSON struct {
	Path string `json:"path"`
	Cues int64  `json:"cues"`
}

func (a *app) runStats(ctx context.Context, store storage.Store, dbPath string) error {
	stats, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	if a.opts.JSON {
		return a.printStatsJSON(stats, dbPath)
	}
	a.printStatsHuman(stats, dbPath)
	return nil
}

func (a *app) printStatsHuman(stats *storage.Stats, dbPath string) {
	fmt.Println("subclip index")
	fmt.Println("=============")
	fmt.Printf("Version:       %s\n", a.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, humanize.Bytes(uint64(stats.DatabaseSizeBytes)))
	fmt.Printf("Media files:   %s\n", humanize.Comma(stats.MediaFiles))
	fmt.Printf("Cues:          %s\n", humanize.Comma(stats.Cues))
	if !stats.LastModified.IsZero() {
		fmt.Printf("Newest media:  %s (%s)\n",
			stats.LastModified.Local().Format("2006-01-02 15:04"), humanize.Time(stats.LastModified))
	}

	if len(stats.TopMedia) > 0 {
		fmt.Println()
		rows := make([][]string, len(stats.TopMedia))
		for i, m := range stats.TopMedia {
			rows[i] = []string{m.Path, humanize.Comma(m.Cues)}
		}
		printTable([]string{"Media", "Cues"}, rows, true)
	}
}

func (a *app) printStatsJSON(stats *storage.Stats, dbPath string) error {
	out := statsJSON{
		Version:           a.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: stats.DatabaseSizeBytes,
		MediaFiles:        stats.MediaFiles,
		Cues:              stats.Cues,
		TopMedia:          make([]mediaCountJSON, len(stats.TopMedia)),
	}
	if !stats.LastModified.IsZero() {
		out.LastModified = stats.LastModified.UTC().Format(time.RFC3339)
	}
	for i, m := range stats.TopMedia {
		out.TopMedia[i] = mediaCountJSON{Path: m.Path, Cues: m.Cues}
	}
	return printJSON(out)
}
