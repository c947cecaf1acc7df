package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/grovetools/elementipelago/cli"
	"github.com/grovetools/elementipelago/pkg/datapackage"
	"github.com/spf13/cobra"
)

func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the datapackage cache",
		Long: `Manage the datapackage cache.

Every game's datapackage is stored as <game>.json in the cache directory
and reused while the server reports the same checksum.`,
	}
	cmd.AddCommand(newCacheListCmd(), newCacheClearCmd(), newCachePathCmd())
	return cmd
}

// openCache opens the directory from cache.dir, or the default one.
func openCache(cmd *cobra.Command) (*datapackage.Cache, error) {
	cfg, _, err := cli.LoadConfig(cmd)
	if err != nil {
		return nil, err
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		dir = datapackage.DefaultDir()
	}
	return datapackage.Open(dir)
}

type cacheEntryJSON struct {
	Game     string    `json:"game"`
	Checksum string    `json:"checksum"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modified"`
}

func newCacheListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List cached datapackages",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmd)
			if err != nil {
				return err
			}
			entries, err := cache.Entries()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if cli.GetOptions(cmd).JSONOutput {
				rows := make([]cacheEntryJSON, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, cacheEntryJSON(e))
				}
				data, err := json.MarshalIndent(rows, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(entries) == 0 {
				fmt.Fprintf(out, "No cached datapackages in %s\n", cache.Dir())
				return nil
			}

			t := cli.NewStyledTable(cli.DefaultTheme, "GAME", "CHECKSUM", "SIZE", "UPDATED")
			for _, e := range entries {
				t.Row(e.Game, shortChecksum(e.Checksum), humanize.Bytes(uint64(e.Size)), humanize.Time(e.ModTime))
			}
			fmt.Fprintln(out, t.Render())
			return nil
		},
	}
}

func newCacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached datapackage",
		Long: `Remove every cached datapackage.
The next login fetches the datapackage of every game in the room again.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmd)
			if err != nil {
				return err
			}
			removed, err := cache.Clear()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cached %s from %s\n",
				removed, plural(removed, "datapackage", "datapackages"), cache.Dir())
			return nil
		},
	}
}

func newCachePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the datapackage cache directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(cmd)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cache.Dir())
			return nil
		},
	}
}

func shortChecksum(sum string) string {
	if len(sum) > 12 {
		return sum[:12]
	}
	return sum
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
