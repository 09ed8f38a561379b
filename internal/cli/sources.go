package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/spf13/cobra"
)

var sourcesJSON bool

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List and manage library sources",
	Long: `List the sources in the library. Subcommands include or exclude a source
from answers, rename it or remove it.

Examples:
  cortex sources
  cortex sources exclude 6f1c...
  cortex sources rename 6f1c... "Incident report"`,
	Args: cobra.NoArgs,
	RunE: runSourcesList,
}

var sourcesIncludeCmd = &cobra.Command{
	Use:   "include <id>",
	Short: "Use a source in answers and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setIncluded(cmd, args[0], true)
	},
}

var sourcesExcludeCmd = &cobra.Command{
	Use:   "exclude <id>",
	Short: "Keep a source in the library but out of answers and artifacts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setIncluded(cmd, args[0], false)
	},
}

var sourcesRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a source",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openLibrary()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Rename(args[0], strings.TrimSpace(args[1])); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s\n", args[0])
		return nil
	},
}

var sourcesRemoveCmd = &cobra.Command{
	Use:     "remove <id>",
	Aliases: []string{"rm"},
	Short:   "Remove a source from the library",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openLibrary()
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.AddCommand(sourcesIncludeCmd, sourcesExcludeCmd, sourcesRenameCmd, sourcesRemoveCmd)
	sourcesCmd.Flags().BoolVar(&sourcesJSON, "json", false, "output as JSON")
}

func runSourcesList(cmd *cobra.Command, args []string) error {
	st, err := openLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if sourcesJSON {
		for i := range docs {
			docs[i].Text = ""
		}
		output, _ := json.MarshalIndent(docs, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(docs) == 0 {
		fmt.Fprintln(out, "No sources yet. Run 'cortex add' first.")
		return nil
	}

	retrieve := newRetrieve(GetConfig())
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tTYPE\tCHARS\tSTATUS")
	for _, doc := range docs {
		status := "included"
		switch {
		case !doc.IncludeInContext:
			status = "excluded"
		case !retrieve.Eligible(doc):
			status = "not searchable"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
			doc.ID, doc.DisplayTitle(), doc.Type, utf8.RuneCountInString(doc.Text), status)
	}
	return tw.Flush()
}

func setIncluded(cmd *cobra.Command, id string, include bool) error {
	st, err := openLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SetIncluded(id, include); err != nil {
		return err
	}
	verb := "Excluded"
	if include {
		verb = "Included"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, id)
	return nil
}
