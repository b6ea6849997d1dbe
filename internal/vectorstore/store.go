// Package vectorstore persists chunk embeddings in an embedded chromem-go
// database and serves similarity queries over them.
package vectorstore

import (
	"context"
	"fmt"
	"os"

	chromem "github.com/philippgille/chromem-go"
	"go.uber.org/zap"

	"github.com/ebrodie/domainqa/internal/embedding"
)

// CollectionName is the single collection holding all chunk embeddings.
const CollectionName = "kb_chunks"

// upsertConcurrency bounds parallel embedding calls during AddDocuments.
const upsertConcurrency = 4

// Document is one chunk to index. Metadata values must be scalar strings;
// chromem matches them with exact equality only.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Result is one similarity hit. It is serialized as-is in search and ask
// responses.
type Result struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Metadata   map[string]string `json:"metadata"`
	Similarity float32           `json:"similarity"`
}

// Store wraps a persistent chromem collection keyed by chunk ID.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	logger     *zap.Logger
}

// Open creates or reopens the store at path. Embeddings are produced through
// provider both at indexing and at query time, so the same model must serve
// both.
func Open(path string, provider embedding.Provider, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("creating vector store directory: %w", err)
	}

	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("opening chromem db: %w", err)
	}

	embedFunc := chromem.EmbeddingFunc(func(ctx context.Context, text string) ([]float32, error) {
		emb, err := provider.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		return emb.Vector, nil
	})

	collection, err := db.GetOrCreateCollection(CollectionName, map[string]string{
		"embed_model": provider.ModelName(),
	}, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("opening collection %s: %w", CollectionName, err)
	}

	logger.Debug("vector store opened",
		zap.String("path", path),
		zap.String("model", provider.ModelName()),
		zap.Int("documents", collection.Count()),
	)

	return &Store{db: db, collection: collection, logger: logger}, nil
}

// Upsert indexes documents, replacing any existing entries with the same IDs.
func (s *Store) Upsert(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	converted := make([]chromem.Document, len(docs))
	for i, d := range docs {
		if d.ID == "" {
			return fmt.Errorf("document %d has no ID", i)
		}
		converted[i] = chromem.Document{
			ID:       d.ID,
			Content:  d.Text,
			Metadata: d.Metadata,
		}
	}

	if err := s.collection.AddDocuments(ctx, converted, upsertConcurrency); err != nil {
		return fmt.Errorf("adding documents: %w", err)
	}

	s.logger.Debug("upserted chunks", zap.Int("count", len(docs)))
	return nil
}

// Query returns up to k most similar chunks for text. where narrows hits to
// exact metadata matches before ranking; pass nil to search everything. An
// empty collection yields an empty result, not an error.
func (s *Store) Query(ctx context.Context, text string, k int, where map[string]string) ([]Result, error) {
	count := s.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	// chromem rejects nResults above the document count.
	if k > count {
		k = count
	}

	hits, err := s.collection.Query(ctx, text, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("querying collection: %w", err)
	}

	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{
			ID:         h.ID,
			Text:       h.Content,
			Metadata:   h.Metadata,
			Similarity: h.Similarity,
		}
	}
	return results, nil
}

// DeleteByDoc removes every chunk indexed for the given document ID. Used
// before re-ingesting a document so stale chunks do not linger.
func (s *Store) DeleteByDoc(ctx context.Context, docID string) error {
	if docID == "" {
		return nil
	}
	if err := s.collection.Delete(ctx, map[string]string{"doc_id": docID}, nil); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", docID, err)
	}
	return nil
}

// Count returns the number of indexed chunks.
func (s *Store) Count() int {
	return s.collection.Count()
}
