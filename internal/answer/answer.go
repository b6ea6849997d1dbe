// Package answer turns retrieved context into a grounded Gemini answer.
// Without an API key, or when generation fails, it degrades to returning the
// raw top context instead of an error.
package answer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/ebrodie/domainqa/internal/assetstore"
	"github.com/ebrodie/domainqa/internal/search"
)

const (
	// tableSnippetChars bounds how much of a stored table is quoted into the
	// prompt.
	tableSnippetChars = 1500

	// rawContextTop is how many hits the degraded (no-model) answer echoes.
	rawContextTop = 3
)

const promptHeader = "You are a careful assistant. Answer the user's question using ONLY the provided context snippets.\n" +
	"If the answer cannot be found in the context, say you don't know.\n" +
	"Cite snippet IDs in brackets like [ID] where applicable.\n\n"

// Options wires a Generator.
type Options struct {
	APIKey    string
	Model     string
	MaxAssets int // per-answer cap on attached table/image assets
	Assets    *assetstore.Store
	Logger    *zap.Logger
}

// Generator produces answers from search hits.
type Generator struct {
	apiKey    string
	model     string
	maxAssets int
	assets    *assetstore.Store
	logger    *zap.Logger
}

// New builds a Generator. A nil asset store disables asset attachment.
func New(opts Options) *Generator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		apiKey:    opts.APIKey,
		model:     opts.Model,
		maxAssets: opts.MaxAssets,
		assets:    opts.Assets,
		logger:    logger,
	}
}

// BuildPrompt renders the guarded instruction header, one [ID=...] line per
// context hit and the question.
func BuildPrompt(hits []search.Hit, query string) string {
	var b strings.Builder
	b.WriteString(promptHeader)
	b.WriteString("Context:\n")
	for i, h := range hits {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "[ID=%s] %s", h.ID, h.Text)
	}
	fmt.Fprintf(&b, "\n\nQuestion: %s\nAnswer:", query)
	return b.String()
}

// Answer generates a grounded answer for the query. It is total: every
// failure mode degrades to a raw-context answer.
func (g *Generator) Answer(ctx context.Context, query string, hits []search.Hit) string {
	if g.apiKey == "" {
		return degraded("no Gemini API key configured; returning raw context", hits)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		g.logger.Error("creating Gemini client", zap.Error(err))
		return degraded("answer generation failed", hits)
	}

	parts := []*genai.Part{genai.NewPartFromText(BuildPrompt(hits, query))}
	parts = append(parts, g.attachAssets(hits)...)
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		g.logger.Error("generating answer", zap.String("model", g.model), zap.Error(err))
		return degraded("answer generation failed", hits)
	}
	return strings.TrimSpace(resp.Text())
}

// attachAssets collects table snippets and inline images for the documents
// behind the hits, capped at maxAssets, first document first.
func (g *Generator) attachAssets(hits []search.Hit) []*genai.Part {
	if g.assets == nil || g.maxAssets <= 0 {
		return nil
	}

	var parts []*genai.Part
	seenDocs := map[string]bool{}
	for _, h := range hits {
		docID := h.Metadata["doc_id"]
		if docID == "" || seenDocs[docID] {
			continue
		}
		seenDocs[docID] = true

		assets, err := g.assets.AssetsForDoc(docID)
		if err != nil {
			g.logger.Warn("listing assets", zap.String("doc_id", docID), zap.Error(err))
			continue
		}
		for _, a := range assets {
			if len(parts) >= g.maxAssets {
				return parts
			}
			part, err := assetPart(a)
			if err != nil {
				g.logger.Warn("reading asset",
					zap.String("doc_id", docID),
					zap.String("path", a.Path),
					zap.Error(err))
				continue
			}
			if part != nil {
				parts = append(parts, part)
			}
		}
	}
	return parts
}

func assetPart(a assetstore.Asset) (*genai.Part, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return nil, err
	}
	switch a.Kind {
	case "table":
		text := strings.TrimSpace(string(data))
		if text == "" {
			return nil, nil
		}
		if len(text) > tableSnippetChars {
			text = strings.ToValidUTF8(text[:tableSnippetChars], "")
		}
		return genai.NewPartFromText(fmt.Sprintf("[Table %d] %s", a.ID, text)), nil
	case "image":
		return &genai.Part{InlineData: &genai.Blob{
			MIMEType: mimeForPath(a.Path),
			Data:     data,
		}}, nil
	default:
		return nil, nil
	}
}

func mimeForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	default:
		return "image/png"
	}
}

func degraded(reason string, hits []search.Hit) string {
	texts := make([]string, 0, rawContextTop)
	for _, h := range hits {
		if len(texts) >= rawContextTop {
			break
		}
		if h.Text != "" {
			texts = append(texts, h.Text)
		}
	}
	return strings.TrimSpace(fmt.Sprintf("(%s)\n\n%s", reason, strings.Join(texts, "\n\n")))
}
