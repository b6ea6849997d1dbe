// Package search retrieves chunks from the vector store and re-ranks them
// with a lexical overlap signal before they reach the answer generator.
package search

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ebrodie/domainqa/internal/vectorstore"
)

const (
	// DefaultAlpha weights vector similarity against token overlap.
	DefaultAlpha = 0.7

	// overfetchFactor widens the candidate pool when in-memory filters are
	// active, so filtering does not starve the final top-k.
	overfetchFactor = 4
)

// Hit is a retrieved chunk with its blended relevance score.
type Hit struct {
	vectorstore.Result
	Score float64 `json:"score"`
}

// Filters narrows results after retrieval. The vector store only supports
// exact-match metadata predicates, so industry, country and date filtering
// all happen in memory. Zero date bounds mean unbounded.
type Filters struct {
	Industries   []string `json:"industries,omitempty"`
	CountryCodes []string `json:"country_codes,omitempty"`
	DateFrom     int64    `json:"date_from,omitempty"`
	DateTo       int64    `json:"date_to,omitempty"`
}

func (f Filters) active() bool {
	return len(f.Industries) > 0 || len(f.CountryCodes) > 0 || f.DateFrom != 0 || f.DateTo != 0
}

// Searcher runs the retrieve, filter, rerank pipeline.
type Searcher struct {
	vectors *vectorstore.Store
	logger  *zap.Logger
	topK    int
	alpha   float64
}

// New builds a Searcher returning at most topK hits per query.
func New(vectors *vectorstore.Store, topK int, logger *zap.Logger) *Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if topK <= 0 {
		topK = 6
	}
	return &Searcher{vectors: vectors, logger: logger, topK: topK, alpha: DefaultAlpha}
}

// Search retrieves candidates, applies the filters, re-ranks and truncates to
// the configured top-k. An empty result is not an error.
func (s *Searcher) Search(ctx context.Context, query string, f Filters) ([]Hit, error) {
	fetch := s.topK
	if f.active() {
		fetch *= overfetchFactor
	}
	results, err := s.vectors.Query(ctx, query, fetch, nil)
	if err != nil {
		return nil, fmt.Errorf("querying vector store: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{Result: r})
	}

	hits = FilterByMetadata(hits, f.Industries, f.CountryCodes)
	hits = FilterByDate(hits, f.DateFrom, f.DateTo)
	hits = Rerank(query, hits, s.alpha)

	if len(hits) > s.topK {
		hits = hits[:s.topK]
	}
	s.logger.Debug("search complete",
		zap.String("query", query),
		zap.Int("candidates", len(results)),
		zap.Int("returned", len(hits)))
	return hits, nil
}

var tokenPattern = regexp.MustCompile(`\W+`)

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, tok := range tokenPattern.Split(strings.ToLower(text), -1) {
		if tok != "" {
			tokens[tok] = struct{}{}
		}
	}
	return tokens
}

// Rerank orders hits by alpha*similarity + (1-alpha)*jaccard(query, text),
// descending. The sort is stable, so equal scores keep retrieval order.
func Rerank(query string, hits []Hit, alpha float64) []Hit {
	qTokens := tokenize(query)
	for i := range hits {
		tTokens := tokenize(hits[i].Text)
		inter, union := 0, len(qTokens)
		for tok := range tTokens {
			if _, ok := qTokens[tok]; ok {
				inter++
			} else {
				union++
			}
		}
		jaccard := 0.0
		if union > 0 {
			jaccard = float64(inter) / float64(union)
		}
		hits[i].Score = alpha*float64(hits[i].Similarity) + (1-alpha)*jaccard
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits
}

// FilterByMetadata keeps hits whose industries and country_codes metadata
// contain every requested facet, matched case-insensitively as substrings of
// the semicolon-joined stored value.
func FilterByMetadata(hits []Hit, industries, countries []string) []Hit {
	industries = normalizeTerms(industries)
	countries = normalizeTerms(countries)
	if len(industries) == 0 && len(countries) == 0 {
		return hits
	}

	kept := hits[:0]
	for _, h := range hits {
		if len(industries) > 0 && !metaMatchesAny(h.Metadata["industries"], industries) {
			continue
		}
		if len(countries) > 0 && !metaMatchesAny(h.Metadata["country_codes"], countries) {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

func metaMatchesAny(value string, terms []string) bool {
	if value == "" {
		return false
	}
	haystack := strings.ToLower(value)
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

// FilterByDate keeps hits whose date_ts metadata falls within [from, to].
// A zero bound is open. When any bound is set, hits without a parseable
// date_ts are dropped.
func FilterByDate(hits []Hit, from, to int64) []Hit {
	if from == 0 && to == 0 {
		return hits
	}
	kept := hits[:0]
	for _, h := range hits {
		ts, err := strconv.ParseInt(h.Metadata["date_ts"], 10, 64)
		if err != nil {
			continue
		}
		if from != 0 && ts < from {
			continue
		}
		if to != 0 && ts > to {
			continue
		}
		kept = append(kept, h)
	}
	return kept
}
