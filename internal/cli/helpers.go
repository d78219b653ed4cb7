package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/runnerr0/subclip/internal/config"
	"github.com/runnerr0/subclip/internal/storage"
)

// loadConfig reads the config file at path. An empty path selects the
// default location, which is created with defaults on first use.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrCreate()
	}
	expanded, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	return config.Load(expanded)
}

// acquireLock takes the index lock: exclusive when the index is written,
// shared otherwise.
func acquireLock(dbPath string, write bool) (*storage.Lock, error) {
	if write {
		return storage.LockExclusive(dbPath)
	}
	return storage.LockShared(dbPath)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderTable draws rows under headers in a rounded box. With numeric set
// the last column is right aligned.
func renderTable(headers []string, rows [][]string, numeric bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(tableRow(headers))
	for _, r := range rows {
		tw.AppendRow(tableRow(r))
	}
	if numeric {
		tw.SetColumnConfigs([]table.ColumnConfig{{
			Number:      len(headers),
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		}})
	}
	return tw.Render()
}

func tableRow(cells []string) table.Row {
	row := make(table.Row, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return row
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func printTable(headers []string, rows [][]string, numeric bool) {
	fmt.Println(renderTable(headers, rows, numeric))
}
