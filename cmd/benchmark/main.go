package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"cortex/config"
	"cortex/internal/adapter/retriever"
	"cortex/internal/adapter/store"
	"cortex/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding the cortex library")
	query := flag.String("q", "", "Query to test")
	maxHits := flag.Int("k", 10, "Number of results")
	runs := flag.Int("n", 20, "Number of timed runs")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir ./notes -q \"query\"")
		fmt.Println("\nMeasures:")
		fmt.Println("  1. Library size (sources, eligible sources, chunks)")
		fmt.Println("  2. Search latency over the whole library")
		fmt.Println("  3. Query term coverage of the returned passages")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	st, err := store.NewBoltStore(cfg.LibraryPath(*dir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening library: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	docs, err := st.List()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing sources: %v\n", err)
		os.Exit(1)
	}

	tfidf := retriever.NewFromConfig(cfg.Retrieve)
	retrieve := usecase.NewRetrieveUseCase(tfidf, cfg.Retrieve.MinTextChars)

	eligible := retrieve.EligibleDocuments(docs)
	chunks := tfidf.ChunkCount(eligible)

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Sources:          %d\n", len(docs))
	fmt.Printf("Eligible sources: %d\n", len(eligible))
	fmt.Printf("Chunks:           %d\n", chunks)
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	terms := tfidf.QueryTerms(*query)
	fmt.Printf("Query terms: %s\n", strings.Join(terms, ", "))
	fmt.Println(strings.Repeat("-", 70))

	start := time.Now()
	hits := retrieve.Search(*query, docs, *maxHits)
	for i := 1; i < *runs; i++ {
		retrieve.Search(*query, docs, *maxHits)
	}
	perRun := time.Since(start) / time.Duration(max(1, *runs))

	if len(hits) == 0 {
		fmt.Println("No matches.")
		fmt.Printf("\nSearch latency: %s per run\n", perRun)
		return
	}

	fmt.Printf("Top %d matches:\n\n", len(hits))

	totalCoverage := 0.0
	for _, h := range hits {
		preview := strings.ReplaceAll(usecase.Truncate(h.Chunk.Text, 150), "\n", " ")
		coverage := termCoverage(tfidf.QueryTerms(h.Chunk.Text), terms)
		totalCoverage += coverage

		rating := "LOW"
		if coverage > 0.7 {
			rating = "HIGH"
		} else if coverage > 0.5 {
			rating = "GOOD"
		} else if coverage > 0.3 {
			rating = "OK"
		}

		fmt.Printf("%d. [%s %.4f] %s #%d\n", h.Rank, rating, h.Score, h.Chunk.SourceTitle, h.Chunk.ChunkIndex)
		fmt.Printf("   %s\n\n", preview)
	}

	avgCoverage := totalCoverage / float64(len(hits))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Search latency:     %s per run (%d runs)\n", perRun, max(1, *runs))
	fmt.Printf("  Average coverage:   %.3f\n", avgCoverage)
	fmt.Printf("  Top-1 score:        %.4f\n", hits[0].Score)

	if avgCoverage > 0.5 {
		fmt.Println("  Status: GOOD - passages cover most query terms")
	} else if avgCoverage > 0.3 {
		fmt.Println("  Status: OK - passages cover some query terms")
	} else {
		fmt.Println("  Status: POOR - try more specific terms")
	}
}

// termCoverage is the share of query terms found among the chunk terms.
func termCoverage(chunkTerms, queryTerms []string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}
	seen := make(map[string]bool, len(chunkTerms))
	for _, t := range chunkTerms {
		seen[t] = true
	}
	found := 0
	for _, t := range queryTerms {
		if seen[t] {
			found++
		}
	}
	return float64(found) / float64(len(queryTerms))
}
