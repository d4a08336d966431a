package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"nllbd/internal/langmap"
)

func newLanguagesCmd(o *rootOptions) *cobra.Command {
	var resolve string
	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List the language map, or resolve one tag with --resolve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			langs, err := langmap.Load(o.cfg.LangMapPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if cmd.Flags().Changed("resolve") {
				if o.cfg.StrictLanguages {
					code, err := langs.ResolveStrict(resolve)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(out, code)
					return err
				}
				_, err := fmt.Fprintln(out, langs.Resolve(resolve))
				return err
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, tag := range langs.Tags() {
				code, _ := langs.Lookup(tag)
				fmt.Fprintf(tw, "%s\t%s\n", tag, code)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&resolve, "resolve", "", "Resolve a single BCP-47 tag to its Flores code")
	cmd.Flags().Bool("strict", false, "Reject unknown language tags instead of falling back to eng_Latn")
	return cmd
}
