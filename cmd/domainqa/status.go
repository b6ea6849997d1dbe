package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/ebrodie/domainqa/internal/assetstore"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base status",
	RunE:  runStatus,
}

// StatusReport is the status command's JSON output.
type StatusReport struct {
	Root        string               `json:"root"`
	PDFRoot     string               `json:"pdf_root"`
	Documents   int                  `json:"documents"`
	Chunks      int                  `json:"chunks"`
	Assets      int                  `json:"assets"`
	Failures    []assetstore.Failure `json:"failures,omitempty"`
	OllamaReady bool                 `json:"ollama_ready"`
	EmbedModel  string               `json:"embed_model"`
	GeminiModel string               `json:"gemini_model"`
	GeminiKey   bool                 `json:"gemini_key_configured"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	r := openRepo()
	defer r.close()

	assets := r.openAssets()
	defer assets.Close()
	vectors := r.openVectors()

	stats, err := assets.Stats()
	if err != nil {
		exitWithError(ExitDataError, "reading asset store: %v", err)
	}
	failures, err := assets.Failures()
	if err != nil {
		exitWithError(ExitDataError, "reading failures: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	ollamaReady := r.embedder().IsAvailable(ctx) == nil

	report := StatusReport{
		Root:        r.root,
		PDFRoot:     r.cfg.PDFRoot,
		Documents:   stats.Documents,
		Chunks:      vectors.Count(),
		Assets:      stats.Assets,
		Failures:    failures,
		OllamaReady: ollamaReady,
		EmbedModel:  r.cfg.EmbedModel,
		GeminiModel: r.cfg.GeminiModel,
		GeminiKey:   r.cfg.GeminiAPIKey != "",
	}

	if humanOutput {
		outputHuman("Repository:   %s\n", report.Root)
		outputHuman("PDF root:     %s\n", report.PDFRoot)
		outputHuman("Documents:    %d\n", report.Documents)
		outputHuman("Chunks:       %d\n", report.Chunks)
		outputHuman("Assets:       %d\n", report.Assets)
		outputHuman("Failures:     %d\n", len(report.Failures))
		outputHuman("Ollama ready: %v (%s)\n", report.OllamaReady, report.EmbedModel)
		outputHuman("Gemini:       %s (key configured: %v)\n", report.GeminiModel, report.GeminiKey)
		return nil
	}
	return outputJSON(report)
}
