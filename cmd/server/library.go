package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLibraryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Maintain the song library on disk",
	}

	var (
		dryRun     bool
		clearCache bool
	)
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Remove song directories that have no song row and expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApplication(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ids, err := a.db.ListSongIDs()
			if err != nil {
				return err
			}
			orphans, err := a.library.Orphans(ids)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			removed := 0
			for _, dir := range orphans {
				if dryRun {
					fmt.Fprintln(out, "would remove", dir)
					continue
				}
				if err := a.library.DeleteSongDir(dir); err != nil {
					a.log.Warn("Failed to remove orphan directory", "dir", dir, "error", err)
					continue
				}
				removed++
				fmt.Fprintln(out, "removed", dir)
			}

			switch {
			case dryRun:
			case clearCache:
				if err := a.db.ClearCache(); err != nil {
					return err
				}
				fmt.Fprintln(out, "cache cleared")
			default:
				if _, err := a.db.PruneCache(); err != nil {
					a.log.Warn("Failed to prune cache", "error", err)
				}
			}
			fmt.Fprintf(out, "%d orphan directories, %d removed\n", len(orphans), removed)
			return nil
		},
	}
	prune.Flags().BoolVar(&dryRun, "dry-run", false, "list orphan directories without removing them")
	prune.Flags().BoolVar(&clearCache, "clear-cache", false, "also drop every cached metadata lookup")
	cmd.AddCommand(prune)
	return cmd
}
