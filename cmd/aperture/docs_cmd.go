package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/docsrender"
)

// newDocsCmd builds the `docs [api [tag [operation]]] [--enhanced]`
// drill-down command, recovered from original_source/src/docs.rs (spec.md
// §12 supplemented feature).
func newDocsCmd() *cobra.Command {
	var enhanced bool

	cmd := &cobra.Command{
		Use:   "docs [api] [tag] [operation]",
		Short: "Render an API's documentation as Markdown",
		Args:  cobra.MaximumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			r, err := docsrender.New()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				names, err := registeredAPINames(app)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}

			spec, err := app.loadSpec(args[0])
			if err != nil {
				return err
			}

			switch len(args) {
			case 1:
				out, err := r.Tags(spec)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			case 2:
				out, err := r.Operations(spec, args[1], enhanced)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			default:
				out, err := r.Operation(spec, args[1], args[2], enhanced)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&enhanced, "enhanced", false, "include security and binding detail")
	return cmd
}
