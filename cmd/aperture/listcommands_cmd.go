package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackcoderx/aperture/internal/manifest"
)

func newListCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list-commands <api>",
		Short: "List every generated command for a registered API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			spec, err := app.loadSpec(args[0])
			if err != nil {
				return err
			}

			if describeJSON {
				raw, err := json.MarshalIndent(manifest.Build(spec), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(raw))
				return nil
			}

			for _, c := range spec.Commands {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s  %-6s %s  %s\n", args[0], c.EffectiveGroup(), c.Method, c.Path, c.EffectiveName())
			}
			return nil
		},
	}
}
