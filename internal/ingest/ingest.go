// Package ingest runs the document pipeline: discover PDFs, partition them
// into elements, persist extracted assets, segment into chunks and index the
// chunks in the vector store. One failing document is recorded and skipped,
// never fatal to the run.
package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ebrodie/domainqa/internal/assetstore"
	"github.com/ebrodie/domainqa/internal/chunk"
	"github.com/ebrodie/domainqa/internal/config"
	"github.com/ebrodie/domainqa/internal/element"
	"github.com/ebrodie/domainqa/internal/vectorstore"
)

// PartitionFunc extracts positioned elements and a page count from a PDF.
type PartitionFunc func(path string) ([]element.Element, int, error)

// Options wires a Pipeline.
type Options struct {
	Config    *config.Config
	Assets    *assetstore.Store
	Vectors   *vectorstore.Store
	Source    chunk.PageSource // page-level fallback for the chunker
	Partition PartitionFunc    // native extractor when no sidecar exists
	Logger    *zap.Logger
}

// Pipeline ingests a PDF corpus.
type Pipeline struct {
	cfg       *config.Config
	assets    *assetstore.Store
	vectors   *vectorstore.Store
	source    chunk.PageSource
	partition PartitionFunc
	logger    *zap.Logger
}

// Summary reports what a Run accomplished.
type Summary struct {
	Documents int `json:"documents"`
	Chunks    int `json:"chunks"`
	Assets    int `json:"assets"`
	Failures  int `json:"failures"`
}

// New builds a Pipeline from options. Config, Assets and Vectors are
// required; a nil Logger logs nowhere.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil || opts.Assets == nil || opts.Vectors == nil {
		return nil, fmt.Errorf("config, asset store and vector store are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:       opts.Config,
		assets:    opts.Assets,
		vectors:   opts.Vectors,
		source:    opts.Source,
		partition: opts.Partition,
		logger:    logger,
	}, nil
}

// Run ingests every PDF under the configured corpus root. It stops early only
// when ctx is canceled; per-document failures are recorded in the asset
// store's failure log and skipped.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	paths, err := WalkPDFs(p.cfg.PDFRoot)
	if err != nil {
		return Summary{}, err
	}
	metas, err := LoadMetadata(p.cfg.MetadataPath())
	if err != nil {
		return Summary{}, err
	}

	p.logger.Info("ingest started",
		zap.String("root", p.cfg.PDFRoot),
		zap.Int("pdfs", len(paths)),
		zap.Int("metadata_records", len(metas)),
	)

	var summary Summary
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		chunks, assets, stage, err := p.processDocument(ctx, path, metas)
		if err != nil {
			summary.Failures++
			p.logger.Warn("document failed",
				zap.String("path", path),
				zap.String("stage", stage),
				zap.Error(err),
			)
			if recErr := p.assets.RecordFailure(GuessDocID(path), path, stage, err.Error()); recErr != nil {
				p.logger.Error("recording failure", zap.Error(recErr))
			}
			continue
		}
		summary.Documents++
		summary.Chunks += chunks
		summary.Assets += assets
	}

	p.logger.Info("ingest finished",
		zap.Int("documents", summary.Documents),
		zap.Int("chunks", summary.Chunks),
		zap.Int("assets", summary.Assets),
		zap.Int("failures", summary.Failures),
	)
	return summary, nil
}

// processDocument ingests one PDF. On error the returned stage names the
// pipeline step that failed.
func (p *Pipeline) processDocument(ctx context.Context, path string, metas map[string]DocMeta) (chunks, assets int, stage string, err error) {
	docID := GuessDocID(path)

	elements, pages, err := p.loadElements(path)
	if err != nil {
		return 0, 0, "partition", err
	}

	// Stale state from a previous run of the same document must go first.
	if err := p.vectors.DeleteByDoc(ctx, docID); err != nil {
		return 0, 0, "clear", err
	}
	if err := p.assets.ClearDocument(docID); err != nil {
		return 0, 0, "clear", err
	}

	assets, err = p.saveAssets(docID, elements)
	if err != nil {
		return 0, 0, "assets", err
	}

	cfg := chunk.Config{
		NarrativeMaxChars: p.cfg.NarrativeMaxChars,
		GapThreshold:      p.cfg.GapThreshold,
	}
	chunked := chunk.ChunkElements(elements, p.source, path, cfg)
	if len(chunked) == 0 {
		return 0, assets, "chunk", fmt.Errorf("no text extracted")
	}

	meta, haveMeta := metas[docID]
	docs := make([]vectorstore.Document, 0, len(chunked))
	for _, c := range chunked {
		page := 0
		if c.Meta.Page != nil {
			page = *c.Meta.Page
		}
		var mp *DocMeta
		if haveMeta {
			mp = &meta
		}
		docs = append(docs, vectorstore.Document{
			ID:       ChunkID(docID, page),
			Text:     c.Text,
			Metadata: ChunkMetadata(docID, page, c.Category, mp),
		})
	}
	if err := p.vectors.Upsert(ctx, docs); err != nil {
		return 0, assets, "index", err
	}

	if err := p.assets.RecordDocument(docID, path, pages, len(chunked)); err != nil {
		return 0, assets, "record", err
	}

	p.logger.Debug("document ingested",
		zap.String("doc_id", docID),
		zap.Int("pages", pages),
		zap.Int("chunks", len(chunked)),
		zap.Int("assets", assets),
	)
	return len(chunked), assets, "", nil
}

// loadElements prefers an extractor sidecar next to the PDF; without one it
// falls back to native line extraction.
func (p *Pipeline) loadElements(path string) ([]element.Element, int, error) {
	sidecar := SidecarPath(path)
	if data, err := os.ReadFile(sidecar); err == nil {
		elements, err := element.DecodeRaw(data)
		if err != nil {
			return nil, 0, fmt.Errorf("parsing %s: %w", sidecar, err)
		}
		return elements, maxPage(elements), nil
	}

	if p.partition == nil {
		return nil, 0, fmt.Errorf("no element sidecar and no native extractor")
	}
	return p.partition(path)
}

func maxPage(elements []element.Element) int {
	pages := 0
	for _, e := range elements {
		if p, ok := e.Page(); ok && p > pages {
			pages = p
		}
	}
	return pages
}

// saveAssets persists table text and the binary payloads of image elements
// that pass the keep filters. Tables keep their text so answers can quote
// them; images are filtered for size and shape first.
func (p *Pipeline) saveAssets(docID string, elements []element.Element) (int, error) {
	saved := 0
	perPage := map[int]int{}
	for _, e := range elements {
		kind := assetKind(e)
		if kind == "" {
			continue
		}

		var data []byte
		var ext string
		switch kind {
		case "table":
			text := strings.TrimSpace(e.Text())
			if text == "" {
				continue
			}
			data, ext = []byte(text), ".txt"
		case "image":
			payload, mime, ok := element.PayloadOf(e)
			if !ok {
				continue
			}
			if keep, reason := KeepImage(payload); !keep {
				p.logger.Debug("asset dropped",
					zap.String("doc_id", docID),
					zap.String("kind", kind),
					zap.String("reason", reason),
				)
				continue
			}
			data, ext = payload, extForMime(mime)
		}

		page := 0
		if pg, ok := e.Page(); ok {
			page = pg
		}
		name := fmt.Sprintf("%s-%d%s", kind, perPage[page], ext)
		perPage[page]++

		if _, err := p.assets.SaveAsset(docID, page, kind, name, data); err != nil {
			return saved, err
		}
		saved++
	}
	return saved, nil
}

func assetKind(e element.Element) string {
	if element.IsTable(e) {
		return "table"
	}
	switch strings.ToLower(e.Category()) {
	case "image", "figure":
		return "image"
	case "table":
		return "table"
	default:
		return ""
	}
}

func extForMime(mime string) string {
	switch mime {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
