package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ebrodie/domainqa/internal/ingest"
	"github.com/ebrodie/domainqa/internal/pdfx"
)

func init() {
	rootCmd.AddCommand(ingestCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest the PDF corpus into the knowledge base",
	Long: `Ingest every PDF under the configured pdf-root.

Each document is partitioned into positioned elements (from an
<name>.elements.json sidecar when present, otherwise native text
extraction), segmented into chunks, embedded and indexed. Table text
and page images are stored as assets for answer attachment. Documents
that fail are recorded and skipped; re-running replaces their state.`,
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	r := openRepo()
	defer r.close()

	if r.cfg.PDFRoot == "" {
		exitWithError(ExitConfigError, "pdf-root is not configured; run: domainqa config pdf-root <path>")
	}

	embedder := r.embedder()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := embedder.IsAvailable(ctx); err != nil {
		exitWithError(ExitDataError, "Ollama not available at %s: %v", r.cfg.OllamaURL, err)
	}
	if ok, err := embedder.HasModel(ctx); err == nil && !ok {
		exitWithError(ExitDataError, "embedding model %q not found; run: ollama pull %s", r.cfg.EmbedModel, r.cfg.EmbedModel)
	}

	assets := r.openAssets()
	defer assets.Close()
	vectors := r.openVectors()

	pipeline, err := ingest.New(ingest.Options{
		Config:    r.cfg,
		Assets:    assets,
		Vectors:   vectors,
		Source:    pdfx.Source{},
		Partition: pdfx.Partition,
		Logger:    r.logger,
	})
	if err != nil {
		exitWithError(ExitError, "building pipeline: %v", err)
	}

	summary, err := pipeline.Run(ctx)
	if err != nil {
		exitWithError(ExitError, "ingest: %v", err)
	}

	if humanOutput {
		outputHuman("Ingested %d documents (%d chunks, %d assets, %d failures)\n",
			summary.Documents, summary.Chunks, summary.Assets, summary.Failures)
	} else {
		outputJSON(summary)
	}
	return nil
}
