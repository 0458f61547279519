package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/apperr"
	"github.com/blackcoderx/aperture/internal/manifest"
)

// newOverviewCmd builds the `overview [api|--all]` one-paragraph-per-API
// summary, recovered from original_source/src/docs.rs (spec.md §12
// supplemented feature).
func newOverviewCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "overview [api]",
		Short: "Print a one-paragraph summary of a registered API, or every API with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			if all {
				names, err := registeredAPINames(app)
				if err != nil {
					return err
				}
				for _, name := range names {
					spec, err := app.loadSpec(name)
					if err != nil {
						continue
					}
					fmt.Fprintln(cmd.OutOrStdout(), manifest.BuildOverview(spec).Describe())
				}
				return nil
			}

			if len(args) != 1 {
				return apperr.New(apperr.InvalidArgument, "overview requires an api name or --all")
			}
			spec, err := app.loadSpec(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), manifest.BuildOverview(spec).Describe())
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "summarize every registered API")
	return cmd
}
