package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/runnerr0/subclip/internal/library"
	"github.com/runnerr0/subclip/internal/storage"
	"github.com/runnerr0/subclip/internal/subtitle"
)

type indexJSON struct {
	Mode      string `json:"mode"`
	Directory string `json:"directory"`
	Pairs     int    `json:"pairs"`
	Indexed   int    `json:"indexed"`
	Refreshed int    `json:"refreshed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Cues      int    `json:"cues"`
	Degraded  int    `json:"degraded"`
}

func (a *app) runIndex(ctx context.Context, store storage.Store) error {
	policy, err := subtitle.ParsePolicy(a.cfg.Library.DecodePolicy)
	if err != nil {
		return err
	}
	mode := library.ModeUpdate
	if a.opts.Reload {
		mode = library.ModeReload
	}

	ix := library.New(store, library.Options{
		Extensions: a.cfg.Extensions(),
		Policy:     policy,
		Mode:       mode,
	})
	res, err := ix.Scan(ctx, a.opts.Args.Directory)
	if err != nil {
		return fmt.Errorf("index %s: %w", a.opts.Args.Directory, err)
	}

	if a.opts.JSON {
		return printJSON(indexJSON{
			Mode:      mode.String(),
			Directory: a.opts.Args.Directory,
			Pairs:     res.Pairs,
			Indexed:   res.Indexed,
			Refreshed: res.Refreshed,
			Skipped:   res.Skipped,
			Failed:    res.Failed,
			Cues:      res.Cues,
			Degraded:  res.Degraded,
		})
	}
	printIndexHuman(res)
	return nil
}

func printIndexHuman(res *library.ScanResult) {
	fmt.Printf("Indexed %s new media %s (%s subtitle cues)\n",
		humanize.Comma(int64(res.Indexed)), plural(res.Indexed, "file", "files"),
		humanize.Comma(int64(res.Cues)))

	rows := [][]string{
		{"Pairs found", strconv.Itoa(res.Pairs)},
		{"New", strconv.Itoa(res.Indexed)},
		{"Refreshed", strconv.Itoa(res.Refreshed)},
		{"Unchanged", strconv.Itoa(res.Skipped)},
		{"Failed", strconv.Itoa(res.Failed)},
	}
	if res.Degraded > 0 {
		rows = append(rows, []string{"Cues with unreadable timestamps", strconv.Itoa(res.Degraded)})
	}
	printTable([]string{"Media files", "Count"}, rows, true)
}
