package main

import (
	"go.uber.org/zap"

	"github.com/ebrodie/domainqa/internal/answer"
	"github.com/ebrodie/domainqa/internal/assetstore"
	"github.com/ebrodie/domainqa/internal/config"
	"github.com/ebrodie/domainqa/internal/embedding"
	"github.com/ebrodie/domainqa/internal/logging"
	"github.com/ebrodie/domainqa/internal/search"
	"github.com/ebrodie/domainqa/internal/vectorstore"
)

// repo bundles everything a repository-bound command needs.
type repo struct {
	root   string
	cfg    *config.Config
	logger *zap.Logger
}

// openRepo locates the repository, loads its config and sets up logging.
// Exits with ExitConfigError when there is no repository.
func openRepo() *repo {
	cwd, exitCode := getRepoRoot()
	if exitCode != 0 {
		exitWithError(exitCode, "cannot determine working directory")
	}

	root, err := config.FindRepository(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	logger, err := logging.New(config.LogsPath(root), verboseLogging)
	if err != nil {
		exitWithError(ExitError, "setting up logging: %v", err)
	}

	return &repo{root: root, cfg: cfg, logger: logger}
}

func (r *repo) close() {
	logging.Sync(r.logger)
}

// embedder builds the Ollama embedding provider from config.
func (r *repo) embedder() *embedding.OllamaProvider {
	return embedding.NewOllamaProvider(
		embedding.WithBaseURL(r.cfg.OllamaURL),
		embedding.WithModel(r.cfg.EmbedModel),
	)
}

// openVectors opens the chunk index. Exits with ExitDataError when the store
// cannot be opened.
func (r *repo) openVectors() *vectorstore.Store {
	vectors, err := vectorstore.Open(config.ChromaPath(r.root), r.embedder(), r.logger)
	if err != nil {
		exitWithError(ExitDataError, "opening vector store: %v", err)
	}
	return vectors
}

// openAssets opens the asset catalog. Exits with ExitDataError on failure.
func (r *repo) openAssets() *assetstore.Store {
	assets, err := assetstore.Open(config.AssetsDBPath(r.root), config.AssetsPath(r.root))
	if err != nil {
		exitWithError(ExitDataError, "opening asset store: %v", err)
	}
	return assets
}

func (r *repo) searcher(vectors *vectorstore.Store, topK int) *search.Searcher {
	if topK <= 0 {
		topK = r.cfg.TopK
	}
	return search.New(vectors, topK, r.logger)
}

func (r *repo) answerer(assets *assetstore.Store) *answer.Generator {
	return answer.New(answer.Options{
		APIKey:    r.cfg.GeminiAPIKey,
		Model:     r.cfg.GeminiModel,
		MaxAssets: r.cfg.MaxAssetAttach,
		Assets:    assets,
		Logger:    r.logger,
	})
}
