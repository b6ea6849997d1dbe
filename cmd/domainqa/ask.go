package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ebrodie/domainqa/internal/search"
)

var (
	askTopK       int
	askIndustries []string
	askCountries  []string
	askDateFrom   int64
	askDateTo     int64
)

func init() {
	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "Number of context chunks (default from config)")
	askCmd.Flags().StringSliceVar(&askIndustries, "industries", nil, "Filter by industry tags")
	askCmd.Flags().StringSliceVar(&askCountries, "countries", nil, "Filter by country codes")
	askCmd.Flags().Int64Var(&askDateFrom, "date-from", 0, "Earliest document date (unix timestamp)")
	askCmd.Flags().Int64Var(&askDateTo, "date-to", 0, "Latest document date (unix timestamp)")
	rootCmd.AddCommand(askCmd)
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the knowledge base",
	Long: `Answer a question from retrieved context using Gemini.

Without GEMINI_API_KEY set, the raw top context is returned instead of
a generated answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

// AskResponse is the ask command's JSON output.
type AskResponse struct {
	Question string       `json:"question"`
	Answer   string       `json:"answer"`
	Contexts []search.Hit `json:"contexts"`
}

func runAsk(cmd *cobra.Command, args []string) error {
	r := openRepo()
	defer r.close()

	question := strings.Join(args, " ")
	vectors := r.openVectors()
	assets := r.openAssets()
	defer assets.Close()

	ctx := context.Background()
	hits, err := r.searcher(vectors, askTopK).Search(ctx, question, search.Filters{
		Industries:   askIndustries,
		CountryCodes: askCountries,
		DateFrom:     askDateFrom,
		DateTo:       askDateTo,
	})
	if err != nil {
		exitWithError(ExitError, "search: %v", err)
	}

	answerText := r.answerer(assets).Answer(ctx, question, hits)

	if humanOutput {
		outputHuman("%s\n", answerText)
		if len(hits) > 0 {
			outputHuman("\nContext:\n")
			printHitsHuman(hits)
		}
		return nil
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	return outputJSON(AskResponse{Question: question, Answer: answerText, Contexts: hits})
}
