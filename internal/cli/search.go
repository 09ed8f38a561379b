package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cortex/internal/usecase"
)

var (
	searchMaxHits int
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank library passages against a query",
	Long: `Rank the passages of every included source against a query with smoothed
TF-IDF and print the best hits.

Examples:
  cortex search "engine failure"
  cortex search "coolant pressure" -k 10 --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchMaxHits, "max-hits", "k", 0, "number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	query := strings.Join(args, " ")

	st, err := openLibrary()
	if err != nil {
		return err
	}
	defer st.Close()

	docs, err := st.List()
	if err != nil {
		return err
	}

	maxHits := cfg.Retrieve.ChatMaxHits
	if searchMaxHits > 0 {
		maxHits = searchMaxHits
	}
	hits := newRetrieve(cfg).Search(query, docs, maxHits)

	out := cmd.OutOrStdout()
	if searchJSON {
		output, _ := json.MarshalIndent(hits, "", "  ")
		fmt.Fprintln(out, string(output))
		return nil
	}

	if len(hits) == 0 {
		fmt.Fprintln(out, "No results found.")
		return nil
	}
	fmt.Fprintf(out, "Found %d results for: %s\n\n", len(hits), query)
	for _, h := range hits {
		fmt.Fprintf(out, "--- [%d] %s #%d (score: %.4f) ---\n", h.Rank, h.Chunk.SourceTitle, h.Chunk.ChunkIndex, h.Score)
		fmt.Fprintln(out, usecase.Truncate(h.Chunk.Text, 500))
		fmt.Fprintln(out)
	}
	return nil
}
