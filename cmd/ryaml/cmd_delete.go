package main

import (
	"github.com/KimNorgaard/go-ryaml"
	"github.com/spf13/cobra"
)

func newDeleteCmd(g *globalFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "delete FILE KEY...",
		Short: "Delete the value at a key path",
		Long: `Delete the entry or item found by following KEY... from the root of FILE.

Comment lines directly above a deleted entry go with it.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, keys := args[0], args[1:]
			edit := func(doc *ryaml.Document) error {
				c, err := walk(doc, keys[:len(keys)-1], false)
				if err != nil {
					return err
				}
				return c.delete(keys[len(keys)-1])
			}
			return apply(newPrinter(cmd.OutOrStdout()), path, dryRun, edit, g.options())
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print the changes instead of writing them")

	return cmd
}
