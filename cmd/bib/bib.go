// Package bib contains the bibliography command.
package bib

import (
	"io"
	"os"

	"github.com/hepkit/hepkit/bib"
	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/util/fsutil"
	"github.com/spf13/cobra"
)

// NewCommand returns the "bib" command.
func NewCommand(s *cmdutil.Setup) *cobra.Command {
	var jsonInput, header, output string
	cmd := &cobra.Command{
		Use:   "bib",
		Short: "Fetch the BibTeX records of arXiv and DOI references from INSPIRE.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			refs, err := bib.LoadReferences(jsonInput)
			if err != nil {
				return err
			}

			var h io.Reader
			if header != "" {
				f, err := os.Open(header)
				if err != nil {
					return err
				}
				defer f.Close()
				h = f
			}

			out := cmd.OutOrStdout()
			if output != "" {
				if err := fsutil.EnsurePath(output); err != nil {
					return err
				}
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return bib.NewClient(s.Conf.Inspire, s.Conf.Retry).Convert(cmd.Context(), refs, h, out)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&jsonInput, "json-input", "i", "", "JSON file listing the references")
	f.StringVar(&header, "bib-header", "", "File copied to the top of the output")
	f.StringVarP(&output, "bib-output", "o", "", "BibTeX output path. Defaults to stdout")
	cmd.MarkFlagRequired("json-input")
	return cmd
}
