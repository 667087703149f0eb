package main

import (
	"fmt"
	"io"
	"os"

	"github.com/KimNorgaard/go-ryaml"
	"github.com/spf13/cobra"
)

func newFmtCmd(g *globalFlags) *cobra.Command {
	var fmtOverwrite bool

	cmd := &cobra.Command{
		Use:   "fmt [file]",
		Short: "Rewrite a YAML file in canonical form",
		Long: `Print a YAML file in canonical form: block style, one entry per line,
minimal quoting. Comments are not kept.

If no file is provided, reads YAML from stdin.

Use -w to overwrite the file in place (requires a file argument).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var source []byte
			var err error
			var filename string

			if len(args) == 0 {
				if fmtOverwrite {
					return fmt.Errorf("-w requires a file argument")
				}
				source, err = io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read stdin: %w", err)
				}
			} else {
				filename = args[0]
				source, err = os.ReadFile(filename)
				if err != nil {
					return fmt.Errorf("read file: %w", err)
				}
			}

			v, err := ryaml.Parse(source, filename, g.options()...)
			if err != nil {
				return err
			}

			if fmtOverwrite {
				return ryaml.WriteFile(filename, v, g.options()...)
			}
			output, err := ryaml.Marshal(v, g.options()...)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(output)
			return err
		},
	}

	cmd.Flags().BoolVarP(&fmtOverwrite, "write", "w", false, "overwrite the file in place")

	return cmd
}
