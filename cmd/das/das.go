// Package das contains the commands querying the CMS Data Aggregation System.
package das

import (
	"context"
	"fmt"
	"strings"
	"time"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/das"
	"github.com/spf13/cobra"
)

// NewCommand returns the "das" subcommands.
func NewCommand(s *cmdutil.Setup) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "das",
		Short: "Query datasets, files and event counts with dasgoclient.",
	}

	// with opens the client, and its cache when one is configured,
	// for the duration of f.
	with := func(ctx context.Context, f func(context.Context, *das.Client) error) error {
		conf := s.Conf.DAS
		client := &das.Client{
			Runner:  s.Runner,
			Path:    conf.Client,
			Retrier: cmdutil.NewRetrier(s.Conf.Retry),
		}
		if conf.CachePath != "" {
			cache, err := das.NewCache(conf.CachePath, time.Duration(conf.CacheTTL))
			if err != nil {
				return err
			}
			defer cache.Close()
			client.Cache = cache
		}
		return f(ctx, client)
	}

	var jsonOutput bool
	query := &cobra.Command{
		Use:   "query <query>",
		Short: "Run a raw DAS query and print its output.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd.Context(), func(ctx context.Context, c *das.Client) error {
				out, err := c.Query(ctx, strings.Join(args, " "), jsonOutput)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}
	query.Flags().BoolVar(&jsonOutput, "json", false, "Request JSON output")

	datasets := &cobra.Command{
		Use:   "datasets <pattern>",
		Short: "List the datasets matching a pattern.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd.Context(), func(ctx context.Context, c *das.Client) error {
				ds, err := c.ListDatasets(ctx, args[0])
				if err != nil {
					return err
				}
				for _, d := range ds {
					fmt.Fprintln(cmd.OutOrStdout(), d)
				}
				return nil
			})
		},
	}

	events := &cobra.Command{
		Use:   "events <pattern>",
		Short: "Print the number of events of each dataset matching a pattern.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd.Context(), func(ctx context.Context, c *das.Client) error {
				ds, err := c.DatasetsWithEvents(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), das.FormatDatasetEvents(ds))
				return nil
			})
		},
	}

	var run int
	files := &cobra.Command{
		Use:   "files <dataset>",
		Short: "List the files of a dataset, optionally those of a single run ordered by lumisection.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd.Context(), func(ctx context.Context, c *das.Client) error {
				var (
					fs  []string
					err error
				)
				if cmd.Flags().Changed("run") {
					fs, err = c.FilesForRun(ctx, args[0], run)
				} else {
					fs, err = c.Files(ctx, args[0])
				}
				if err != nil {
					return err
				}
				for _, f := range fs {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
				return nil
			})
		},
	}
	files.Flags().IntVar(&run, "run", 0, "Only list the files of this run")

	prepid := &cobra.Command{
		Use:   "prepid <dataset>",
		Short: "Print the McM prepID of a dataset.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return with(cmd.Context(), func(ctx context.Context, c *das.Client) error {
				id, err := c.MCMPrepID(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}

	purge := &cobra.Command{
		Use:   "purge-cache",
		Short: "Remove all cached query results.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.Conf.DAS.CachePath == "" {
				return fmt.Errorf("no cache configured, set DAS.CachePath")
			}
			return with(cmd.Context(), func(ctx context.Context, c *das.Client) error {
				if err := c.Cache.Purge(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Purged %s\n", s.Conf.DAS.CachePath)
				return nil
			})
		},
	}

	cmd.AddCommand(query, datasets, events, files, prepid, purge)
	return cmd
}
