package main

import (
	"github.com/KimNorgaard/go-ryaml"
	"github.com/spf13/cobra"
)

func newSetCmd(g *globalFlags) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "set FILE KEY... VALUE",
		Short: "Set the value at a key path",
		Long: `Set the value found by following KEY... from the root of FILE.

VALUE is read as YAML, so "8080" is a number and "[a, b]" a sequence.
Missing mapping keys along the path are created. A missing FILE is
created too. The rest of the file is kept as it was.`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, keys, raw := args[0], args[1:len(args)-1], args[len(args)-1]
			value, err := ryaml.Parse([]byte(raw), "VALUE")
			if err != nil {
				return err
			}

			edit := func(doc *ryaml.Document) error {
				c, err := walk(doc, keys[:len(keys)-1], true)
				if err != nil {
					return err
				}
				return c.set(keys[len(keys)-1], value)
			}
			return apply(newPrinter(cmd.OutOrStdout()), path, dryRun, edit, g.options())
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "print the changes instead of writing them")

	return cmd
}
