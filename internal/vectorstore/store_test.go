package vectorstore

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"

	"github.com/ebrodie/domainqa/internal/embedding"
)

// stubProvider embeds text as a bag-of-words hash histogram. Deterministic,
// and texts sharing words land near each other under cosine similarity.
type stubProvider struct{}

const stubDims = 16

func (stubProvider) Embed(_ context.Context, text string) (embedding.Embedding, error) {
	vec := make([]float32, stubDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		vec[h.Sum32()%stubDims]++
	}
	// Never return the zero vector.
	vec[0] += 0.01
	return embedding.Embedding{Vector: vec}, nil
}

func (stubProvider) ModelName() string { return "stub" }
func (stubProvider) Dimensions() int   { return stubDims }

func openTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	store, err := Open(dir, stubProvider{}, nil)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return store
}

func TestStore_UpsertAndQuery(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, t.TempDir())

	docs := []Document{
		{ID: "a::pg1::x", Text: "quarterly revenue grew in the mining sector", Metadata: map[string]string{"doc_id": "a"}},
		{ID: "a::pg2::y", Text: "the weather forecast is cloudy with rain", Metadata: map[string]string{"doc_id": "a"}},
		{ID: "b::pg1::z", Text: "mining sector output and revenue figures", Metadata: map[string]string{"doc_id": "b"}},
	}
	if err := store.Upsert(ctx, docs); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if store.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", store.Count())
	}

	results, err := store.Query(ctx, "revenue in the mining sector", 2, nil)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	for _, r := range results {
		if strings.Contains(r.Text, "weather") {
			t.Errorf("unrelated chunk ranked in top 2: %q", r.Text)
		}
	}
	if results[0].Similarity < results[1].Similarity {
		t.Error("results not ordered by similarity")
	}
}

func TestStore_QueryWhereFilter(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, t.TempDir())

	docs := []Document{
		{ID: "a::pg1::x", Text: "mining revenue report", Metadata: map[string]string{"doc_id": "a"}},
		{ID: "b::pg1::y", Text: "mining revenue report", Metadata: map[string]string{"doc_id": "b"}},
	}
	if err := store.Upsert(ctx, docs); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	results, err := store.Query(ctx, "mining revenue", 5, map[string]string{"doc_id": "b"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(results) != 1 || results[0].ID != "b::pg1::y" {
		t.Errorf("filtered results = %+v, want only doc b", results)
	}
}

func TestStore_QueryCapsKAtCount(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, t.TempDir())

	if err := store.Upsert(ctx, []Document{{ID: "only", Text: "single chunk"}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	results, err := store.Query(ctx, "single", 10, nil)
	if err != nil {
		t.Fatalf("Query() with k above count error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
}

func TestStore_QueryEmptyCollection(t *testing.T) {
	store := openTestStore(t, t.TempDir())

	results, err := store.Query(context.Background(), "anything", 5, nil)
	if err != nil {
		t.Fatalf("Query() on empty store error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want none", len(results))
	}
}

func TestStore_DeleteByDoc(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t, t.TempDir())

	docs := []Document{
		{ID: "a::pg1::x", Text: "first doc text", Metadata: map[string]string{"doc_id": "a"}},
		{ID: "b::pg1::y", Text: "second doc text", Metadata: map[string]string{"doc_id": "b"}},
	}
	if err := store.Upsert(ctx, docs); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if err := store.DeleteByDoc(ctx, "a"); err != nil {
		t.Fatalf("DeleteByDoc() error = %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d after delete, want 1", store.Count())
	}

	// Empty ID is a no-op, never a blanket delete.
	if err := store.DeleteByDoc(ctx, ""); err != nil {
		t.Fatalf("DeleteByDoc(\"\") error = %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("Count() = %d, want 1", store.Count())
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := openTestStore(t, dir)
	if err := store.Upsert(ctx, []Document{{ID: "keep", Text: "durable chunk"}}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	reopened := openTestStore(t, dir)
	if reopened.Count() != 1 {
		t.Errorf("Count() after reopen = %d, want 1", reopened.Count())
	}
}

func TestStore_UpsertRejectsMissingID(t *testing.T) {
	store := openTestStore(t, t.TempDir())
	err := store.Upsert(context.Background(), []Document{{Text: "no id"}})
	if err == nil {
		t.Error("expected error for document without ID")
	}
}
