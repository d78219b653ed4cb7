package cli

import (
	"context"
	"fmt"

	"github.com/runnerr0/subclip/internal/clip"
	"github.com/runnerr0/subclip/internal/storage"
)

type jsonArtifacts struct {
	Playlist   string `json:"playlist"`
	Transcript string `json:"transcript"`
	Captions   string `json:"captions"`
	Excluded   int    `json:"excluded"`
}

type jsonMatch struct {
	Path   string  `json:"path"`
	Start  float64 `json:"start"`
	End    float64 `json:"end"`
	Length float64 `json:"length"`
	Text   string  `json:"text"`
	Cues   int     `json:"cues"`
}

type jsonSearchOutput struct {
	Query     string         `json:"query"`
	Count     int            `json:"count"`
	Matches   []jsonMatch    `json:"matches"`
	Artifacts *jsonArtifacts `json:"artifacts,omitempty"`
}

func (a *app) runSearch(ctx context.Context, store storage.Store) error {
	engine := clip.NewEngine(store, nil)
	res, err := engine.Search(ctx, clip.Query{
		Text:   a.opts.Query,
		Before: a.cfg.Search.Before,
		After:  a.cfg.Search.After,
	})
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	var art *clip.Artifacts
	if res.Hits() > 0 {
		dir, err := a.cfg.OutputDir()
		if err != nil {
			return err
		}
		art, err = clip.Write(res, clip.Output{
			Dir:        dir,
			Name:       a.opts.Name,
			CaptionGap: a.cfg.Output.CaptionGapSeconds,
		}, a.log)
		if err != nil {
			return err
		}
	}

	if a.opts.JSON {
		return printSearchJSON(res, art)
	}
	printSearchHuman(res, art)
	return nil
}

func printSearchHuman(res *clip.Result, art *clip.Artifacts) {
	if res.Hits() == 0 {
		fmt.Printf("No results found for '%s'\n", res.Query.Text)
		return
	}

	fmt.Printf("Found %d %s for '%s'\n", res.Hits(), plural(res.Hits(), "match", "matches"), res.Query.Text)
	rows := [][]string{
		{"Playlist", art.Playlist},
		{"Transcript", art.Transcript},
		{"Captions", art.Captions},
	}
	printTable([]string{"Artifact", "Path"}, rows, false)
	if art.Excluded > 0 {
		fmt.Printf("%d %s left out of the playlist and captions (comma in path)\n",
			art.Excluded, plural(art.Excluded, "match", "matches"))
	}
}

func printSearchJSON(res *clip.Result, art *clip.Artifacts) error {
	out := jsonSearchOutput{
		Query:   res.Query.Text,
		Count:   res.Hits(),
		Matches: make([]jsonMatch, len(res.Windows)),
	}
	for i, w := range res.Windows {
		out.Matches[i] = jsonMatch{
			Path:   w.Media.Path,
			Start:  w.Start(),
			End:    w.End(),
			Length: w.Length(),
			Text:   w.Match.Text,
			Cues:   len(w.Cues),
		}
	}
	if art != nil {
		out.Artifacts = &jsonArtifacts{
			Playlist:   art.Playlist,
			Transcript: art.Transcript,
			Captions:   art.Captions,
			Excluded:   art.Excluded,
		}
	}
	return printJSON(out)
}
