package main

import (
	"os"

	"github.com/KimNorgaard/go-ryaml"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// globalFlags holds the flags shared by every command.
type globalFlags struct {
	verbose  int
	encoding string
	indent   int
}

func (g *globalFlags) options() []ryaml.Option {
	return []ryaml.Option{ryaml.Encoding(g.encoding), ryaml.Indent(g.indent)}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "ryaml",
		Short: "Read and edit YAML files without losing their comments",
		Long: `Read and edit YAML files.

Edits made with set and delete keep the rest of the file as it was:
comments, blank lines, key order and quoting style all survive.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if g.verbose > 0 {
				commonlog.Configure(g.verbose, nil)
			}
		},
	}

	rootCmd.PersistentFlags().CountVarP(&g.verbose, "verbose", "v", "log more (repeat for more detail)")
	rootCmd.PersistentFlags().StringVar(&g.encoding, "encoding", "utf-8", "text encoding of the files")
	rootCmd.PersistentFlags().IntVar(&g.indent, "indent", 2, "indentation of nested mappings in new content")

	rootCmd.AddCommand(newGetCmd(g))
	rootCmd.AddCommand(newSetCmd(g))
	rootCmd.AddCommand(newDeleteCmd(g))
	rootCmd.AddCommand(newFmtCmd(g))
	rootCmd.AddCommand(newCheckCmd(g))

	return rootCmd
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		p := newPrinter(os.Stderr)
		p.println(p.failed, "error: "+err.Error())
		os.Exit(1)
	}
}
