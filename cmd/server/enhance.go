package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newEnhanceCmd(opts *rootOptions) *cobra.Command {
	var (
		songID string
		all    bool
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Fill missing song metadata from iTunes, MusicBrainz and LRClib",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (songID == "") == !all {
				return errors.New("exactly one of --song or --all is required")
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			a, err := newApplication(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if songID != "" {
				song, err := a.enhancer.Enhance(ctx, songID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s - %s\n", song.ID, song.Artist, song.Title)
				return nil
			}

			n, err := a.enhancer.EnhanceMissing(ctx, limit)
			fmt.Fprintf(cmd.OutOrStdout(), "enhanced %d songs\n", n)
			return err
		},
	}
	cmd.Flags().StringVar(&songID, "song", "", "enhance a single song by id")
	cmd.Flags().BoolVar(&all, "all", false, "enhance every song missing metadata")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum songs to process with --all")
	return cmd
}
