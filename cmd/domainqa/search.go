package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ebrodie/domainqa/internal/search"
)

var (
	searchTopK       int
	searchIndustries []string
	searchCountries  []string
	searchDateFrom   int64
	searchDateTo     int64
)

func init() {
	searchCmd.Flags().IntVar(&searchTopK, "top-k", 0, "Number of results (default from config)")
	searchCmd.Flags().StringSliceVar(&searchIndustries, "industries", nil, "Filter by industry tags")
	searchCmd.Flags().StringSliceVar(&searchCountries, "countries", nil, "Filter by country codes")
	searchCmd.Flags().Int64Var(&searchDateFrom, "date-from", 0, "Earliest document date (unix timestamp)")
	searchCmd.Flags().Int64Var(&searchDateTo, "date-to", 0, "Latest document date (unix timestamp)")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Retrieve the most relevant chunks for a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

// SearchResponse is the search command's JSON output.
type SearchResponse struct {
	Query string       `json:"query"`
	Hits  []search.Hit `json:"hits"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	r := openRepo()
	defer r.close()

	query := strings.Join(args, " ")
	vectors := r.openVectors()

	hits, err := r.searcher(vectors, searchTopK).Search(context.Background(), query, search.Filters{
		Industries:   searchIndustries,
		CountryCodes: searchCountries,
		DateFrom:     searchDateFrom,
		DateTo:       searchDateTo,
	})
	if err != nil {
		exitWithError(ExitError, "search: %v", err)
	}

	if humanOutput {
		printHitsHuman(hits)
		return nil
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	return outputJSON(SearchResponse{Query: query, Hits: hits})
}

func printHitsHuman(hits []search.Hit) {
	for i, h := range hits {
		outputHuman("%d. [%.2f] %s\n", i+1, h.Score, h.ID)
		outputHuman("   %s\n\n", truncateString(strings.ReplaceAll(h.Text, "\n", " "), 160))
	}
	if len(hits) == 0 {
		outputHuman("No results.\n")
	}
}
