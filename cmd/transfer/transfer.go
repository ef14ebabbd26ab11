// Package transfer contains the commands listing, checksumming and copying
// files across local disk, xrootd and S3.
package transfer

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/alecthomas/units"
	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/metrics"
	"github.com/hepkit/hepkit/storage"
	"github.com/hepkit/hepkit/transfer"
	"github.com/spf13/cobra"
)

// NewCommand returns the "transfer" subcommands.
func NewCommand(s *cmdutil.Setup) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transfer",
		Aliases: []string{"storage"},
		Short:   "List, checksum and copy files across local disk, xrootd and S3.",
	}

	var long bool
	ls := &cobra.Command{
		Use:   "ls <url>",
		Short: "Recursively list the files under a url.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mux, err := newMux(s)
			if err != nil {
				return err
			}
			objs, err := mux.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return list(cmd.OutOrStdout(), objs, long)
		},
	}
	ls.Flags().BoolVarP(&long, "long", "l", false, "Print sizes and checksums")

	checksum := &cobra.Command{
		Use:   "checksum <url> [url ...]",
		Short: "Print the adler32 checksum of files.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mux, err := newMux(s)
			if err != nil {
				return err
			}
			for _, u := range args {
				sum, err := mux.Checksum(cmd.Context(), u)
				if err != nil {
					return fmt.Errorf("%s: %w", u, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", sum, u)
			}
			return nil
		},
	}

	opts := transfer.Options{}
	var showProgress bool
	clone := &cobra.Command{
		Use:   "clone <src url> <dest dir>",
		Short: "Copy the files under a url into a local directory, skipping up to date files.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mux, err := newMux(s)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				opts.Workers = s.Conf.Transfer.Workers
			}
			if showProgress {
				opts.Progress = cmd.ErrOrStderr()
			}
			sum, err := transfer.Clone(cmd.Context(), mux, args[0], args[1], opts)
			if sum != nil {
				fmt.Fprintln(cmd.OutOrStdout(), sum.String())
			}
			if err != nil {
				return err
			}
			return metrics.WriteTextfile(s.Conf.Metrics.TextfilePath)
		},
	}
	f := clone.Flags()
	f.IntVarP(&opts.Workers, "workers", "w", 1, "Concurrent copies. Defaults to Transfer.Workers")
	f.BoolVarP(&opts.Verbose, "verbose", "v", false, "Log every file")
	f.BoolVar(&showProgress, "progress", false, "Show a progress bar on stderr")

	cmd.AddCommand(ls, checksum, clone)
	return cmd
}

func list(w io.Writer, objs []*storage.Object, long bool) error {
	if !long {
		for _, o := range objs {
			fmt.Fprintln(w, o.URL)
		}
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, o := range objs {
		sum := o.Checksum
		if sum == "" {
			sum = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", units.Base2Bytes(o.Size), sum, o.URL)
	}
	return tw.Flush()
}

func newMux(s *cmdutil.Setup) (*storage.Mux, error) {
	mux, err := storage.NewMux(s.Conf, s.Runner)
	if err != nil {
		return nil, err
	}
	mux.AttachLogger(logger.NewSubLogger("storage"))
	return mux, nil
}
