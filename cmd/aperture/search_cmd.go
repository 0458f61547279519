package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/manifest"
)

func newSearchCmd() *cobra.Command {
	var api string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search registered APIs' operations by id, summary, description, or path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}

			names := []string{api}
			if api == "" {
				names, err = registeredAPINames(app)
				if err != nil {
					return err
				}
			}

			var results []manifest.SearchResult
			for _, name := range names {
				spec, err := app.loadSpec(name)
				if err != nil {
					continue
				}
				results = append(results, manifest.Search(name, spec, args[0])...)
			}

			for _, r := range results {
				if verbose {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s  %-6s %s\n  %s\n", r.API, r.Group, r.Name, r.Method, r.Path, r.Summary)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s  %-6s %s\n", r.API, r.Group, r.Name, r.Method, r.Path)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&api, "api", "", "restrict the search to one registered API")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "include each result's summary")
	return cmd
}
