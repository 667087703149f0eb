package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/KimNorgaard/go-ryaml"
	"github.com/spf13/cobra"
)

func newGetCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get FILE [KEY...]",
		Short: "Print the value at a key path",
		Long: `Print the value found by following KEY... from the root of FILE.

Sequence items are addressed by their index. Without keys the whole
document is printed in canonical form.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, keys := args[0], args[1:]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			doc, err := ryaml.ParseForUpdate(data, path, g.options()...)
			if err != nil {
				return err
			}
			v, ok := doc.Lookup(keys...)
			if !ok {
				return fmt.Errorf("%s: no value at %s", path, strings.Join(keys, "."))
			}
			out, err := ryaml.MarshalString(v, ryaml.Indent(g.indent))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), out)
			return err
		},
	}

	return cmd
}
