package search

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/ebrodie/domainqa/internal/embedding"
	"github.com/ebrodie/domainqa/internal/vectorstore"
)

type stubProvider struct{}

const stubDims = 16

func (stubProvider) Embed(_ context.Context, text string) (embedding.Embedding, error) {
	vec := make([]float32, stubDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%stubDims]++
	}
	vec[0] += 0.01
	return embedding.Embedding{Vector: vec}, nil
}

func (stubProvider) ModelName() string { return "stub" }
func (stubProvider) Dimensions() int   { return stubDims }

func hit(id, text string, sim float32, meta map[string]string) Hit {
	if meta == nil {
		meta = map[string]string{}
	}
	return Hit{Result: vectorstore.Result{ID: id, Text: text, Metadata: meta, Similarity: sim}}
}

func TestRerank_LexicalOverlapBreaksVectorTies(t *testing.T) {
	hits := []Hit{
		hit("a", "completely unrelated words here", 0.5, nil),
		hit("b", "iron ore mining output", 0.5, nil),
	}
	ranked := Rerank("mining output", hits, DefaultAlpha)
	if ranked[0].ID != "b" {
		t.Errorf("top hit = %s, want the lexically overlapping one", ranked[0].ID)
	}
	if ranked[0].Score <= ranked[1].Score {
		t.Errorf("scores not descending: %v vs %v", ranked[0].Score, ranked[1].Score)
	}
}

func TestRerank_AlphaOneIgnoresOverlap(t *testing.T) {
	hits := []Hit{
		hit("a", "no overlap at all", 0.9, nil),
		hit("b", "mining output exactly", 0.2, nil),
	}
	ranked := Rerank("mining output", hits, 1.0)
	if ranked[0].ID != "a" {
		t.Errorf("alpha=1 must rank purely by similarity, got %s first", ranked[0].ID)
	}
}

func TestRerank_StableOnEqualScores(t *testing.T) {
	hits := []Hit{
		hit("first", "same text", 0.4, nil),
		hit("second", "same text", 0.4, nil),
	}
	ranked := Rerank("query", hits, DefaultAlpha)
	if ranked[0].ID != "first" || ranked[1].ID != "second" {
		t.Errorf("equal scores must preserve retrieval order: %s, %s", ranked[0].ID, ranked[1].ID)
	}
}

func TestRerank_EmptyQuery(t *testing.T) {
	hits := []Hit{hit("a", "some text", 0.5, nil)}
	ranked := Rerank("", hits, DefaultAlpha)
	if len(ranked) != 1 {
		t.Fatalf("got %d hits", len(ranked))
	}
	// Overlap contributes zero; only similarity remains.
	if got, want := ranked[0].Score, 0.7*0.5; got != want {
		t.Errorf("score = %v, want %v", got, want)
	}
}

func TestFilterByMetadata(t *testing.T) {
	hits := []Hit{
		hit("a", "", 0, map[string]string{"industries": "mining;energy", "country_codes": "AU;CL"}),
		hit("b", "", 0, map[string]string{"industries": "finance", "country_codes": "US"}),
		hit("c", "", 0, nil),
	}

	tests := []struct {
		name       string
		industries []string
		countries  []string
		wantIDs    []string
	}{
		{"no filters keeps all", nil, nil, []string{"a", "b", "c"}},
		{"industry match", []string{"Mining"}, nil, []string{"a"}},
		{"country match", nil, []string{"us"}, []string{"b"}},
		{"both must match", []string{"mining"}, []string{"us"}, nil},
		{"missing metadata excluded", []string{"retail"}, nil, nil},
		{"blank terms ignored", []string{"  "}, nil, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]Hit, len(hits))
			copy(in, hits)
			got := FilterByMetadata(in, tt.industries, tt.countries)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d hits, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("hit %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestFilterByDate(t *testing.T) {
	hits := []Hit{
		hit("old", "", 0, map[string]string{"date_ts": "1000"}),
		hit("mid", "", 0, map[string]string{"date_ts": "2000"}),
		hit("new", "", 0, map[string]string{"date_ts": "3000"}),
		hit("undated", "", 0, nil),
	}

	tests := []struct {
		name     string
		from, to int64
		wantIDs  []string
	}{
		{"unbounded keeps all", 0, 0, []string{"old", "mid", "new", "undated"}},
		{"from only", 2000, 0, []string{"mid", "new"}},
		{"to only", 0, 2000, []string{"old", "mid"}},
		{"window", 1500, 2500, []string{"mid"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]Hit, len(hits))
			copy(in, hits)
			got := FilterByDate(in, tt.from, tt.to)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d hits, want %d: %+v", len(got), len(tt.wantIDs), got)
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Errorf("hit %d = %s, want %s", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestSearcher_Search(t *testing.T) {
	store, err := vectorstore.Open(t.TempDir(), stubProvider{}, nil)
	if err != nil {
		t.Fatalf("opening vector store: %v", err)
	}
	ctx := context.Background()
	docs := []vectorstore.Document{
		{ID: "c1", Text: "copper mining in chile", Metadata: map[string]string{"industries": "mining", "date_ts": "100"}},
		{ID: "c2", Text: "copper mining in australia", Metadata: map[string]string{"industries": "mining", "date_ts": "200"}},
		{ID: "c3", Text: "retail banking overview", Metadata: map[string]string{"industries": "finance", "date_ts": "150"}},
	}
	if err := store.Upsert(ctx, docs); err != nil {
		t.Fatal(err)
	}

	s := New(store, 2, nil)

	hits, err := s.Search(ctx, "copper mining", Filters{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want top-2", len(hits))
	}
	for _, h := range hits {
		if h.Metadata["industries"] != "mining" {
			t.Errorf("unexpected hit %s", h.ID)
		}
	}

	// Filters applied in memory after an over-fetched retrieval.
	hits, err = s.Search(ctx, "copper mining", Filters{Industries: []string{"mining"}, DateFrom: 150})
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "c2" {
		t.Errorf("filtered hits = %+v, want only c2", hits)
	}
}

func TestSearcher_SearchEmptyStore(t *testing.T) {
	store, err := vectorstore.Open(t.TempDir(), stubProvider{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	hits, err := New(store, 6, nil).Search(context.Background(), "anything", Filters{})
	if err != nil {
		t.Fatalf("Search() on empty store error = %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %+v, want none", hits)
	}
}
