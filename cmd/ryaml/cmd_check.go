package main

import (
	"fmt"

	"github.com/KimNorgaard/go-ryaml"
	"github.com/spf13/cobra"
)

func newCheckCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check FILE...",
		Short: "Report files that cannot be read",
		Long: `Check that each FILE decodes and parses. Problems are reported with
their line and column: invalid bytes for the encoding, duplicate keys and
syntax errors.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrinter(cmd.OutOrStdout())
			failed := 0
			for _, path := range args {
				if _, err := ryaml.ReadFile(path, g.options()...); err != nil {
					p.println(p.failed, err.Error())
					failed++
					continue
				}
				p.println(p.ok, "ok "+path)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	return cmd
}
