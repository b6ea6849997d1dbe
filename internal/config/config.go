// Package config handles repository configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents repository configuration stored in .domainqa/config.yml.
type Config struct {
	PDFRoot string `yaml:"pdf_root" json:"pdf_root"` // Absolute path to the PDF corpus folder

	// Segmentation tunables.
	NarrativeMaxChars int     `yaml:"narrative_max_chars,omitempty" json:"narrative_max_chars"`
	GapThreshold      float64 `yaml:"gap_threshold,omitempty" json:"gap_threshold"`

	// Retrieval tunables.
	TopK           int `yaml:"top_k,omitempty" json:"top_k"`
	MaxAssetAttach int `yaml:"max_asset_attach,omitempty" json:"max_asset_attach"`

	// Embedding backend.
	OllamaURL  string `yaml:"ollama_url,omitempty" json:"ollama_url"`
	EmbedModel string `yaml:"embed_model,omitempty" json:"embed_model"`

	// Answer generation. The API key is read from the environment, never
	// serialized back out.
	GeminiModel  string `yaml:"gemini_model,omitempty" json:"gemini_model"`
	GeminiAPIKey string `yaml:"-" json:"-"`

	// Server bind address for `domainqa serve`.
	ServeAddr string `yaml:"serve_addr,omitempty" json:"serve_addr"`
}

const (
	DomainQADir  = ".domainqa"
	ConfigFile   = "config.yml"
	StorageDir   = "storage"
	ChromaDir    = "chroma"
	AssetsDir    = "assets"
	AssetsDBFile = "assets.sqlite"
	LogsDir      = "logs"
	MetadataFile = "metadata.jsonl"
)

// Defaults applied by Load and Init when a field is unset.
const (
	DefaultNarrativeMaxChars = 1600
	DefaultGapThreshold      = 30.0
	DefaultTopK              = 6
	DefaultMaxAssetAttach    = 4
	DefaultOllamaURL         = "http://localhost:11434"
	DefaultEmbedModel        = "nomic-embed-text"
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultServeAddr         = "127.0.0.1:8080"
)

// DomainQAPath returns the path to the .domainqa directory from a root path.
func DomainQAPath(root string) string {
	return filepath.Join(root, DomainQADir)
}

// ConfigPath returns the path to config.yml from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, DomainQADir, ConfigFile)
}

// StoragePath returns the path to the storage directory from a root path.
func StoragePath(root string) string {
	return filepath.Join(root, DomainQADir, StorageDir)
}

// ChromaPath returns the path to the vector store directory from a root path.
func ChromaPath(root string) string {
	return filepath.Join(root, DomainQADir, StorageDir, ChromaDir)
}

// AssetsPath returns the path to the extracted-asset directory from a root path.
func AssetsPath(root string) string {
	return filepath.Join(root, DomainQADir, StorageDir, AssetsDir)
}

// AssetsDBPath returns the path to the asset database from a root path.
func AssetsDBPath(root string) string {
	return filepath.Join(root, DomainQADir, StorageDir, AssetsDBFile)
}

// LogsPath returns the path to the log directory from a root path.
func LogsPath(root string) string {
	return filepath.Join(root, DomainQADir, LogsDir)
}

// MetadataPath returns the path to the corpus metadata sidecar, which lives
// next to the PDFs rather than under .domainqa.
func (c *Config) MetadataPath() string {
	return filepath.Join(c.PDFRoot, MetadataFile)
}

// IsRepository checks if the given path contains a domainqa repository.
func IsRepository(root string) bool {
	info, err := os.Stat(DomainQAPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a domainqa repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a domainqa repository (no .domainqa directory found)")
		}
		abs = parent
	}
}

// Init creates the repository skeleton at root and writes a default config.
// It fails if the repository already exists.
func Init(root, pdfRoot string) (*Config, error) {
	if IsRepository(root) {
		return nil, fmt.Errorf("repository already exists at %s", DomainQAPath(root))
	}

	for _, dir := range []string{
		DomainQAPath(root),
		StoragePath(root),
		ChromaPath(root),
		AssetsPath(root),
		LogsPath(root),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	cfg := &Config{PDFRoot: pdfRoot}
	cfg.applyDefaults()
	if err := cfg.Save(root); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads configuration from the repository at the given root, applies
// defaults to unset fields and then environment overrides.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.PDFRoot = ExpandPath(cfg.PDFRoot)
	cfg.applyDefaults()
	cfg.applyEnv(root)
	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.NarrativeMaxChars <= 0 {
		c.NarrativeMaxChars = DefaultNarrativeMaxChars
	}
	if c.GapThreshold <= 0 {
		c.GapThreshold = DefaultGapThreshold
	}
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.MaxAssetAttach <= 0 {
		c.MaxAssetAttach = DefaultMaxAssetAttach
	}
	if c.OllamaURL == "" {
		c.OllamaURL = DefaultOllamaURL
	}
	if c.EmbedModel == "" {
		c.EmbedModel = DefaultEmbedModel
	}
	if c.GeminiModel == "" {
		c.GeminiModel = DefaultGeminiModel
	}
	if c.ServeAddr == "" {
		c.ServeAddr = DefaultServeAddr
	}
}

// ValidatePDFRoot checks that the PDF root path exists and is a directory.
func ValidatePDFRoot(path string) error {
	if path == "" {
		return nil // Empty is allowed (not yet configured)
	}

	expandedPath := ExpandPath(path)

	info, err := os.Stat(expandedPath)
	if err != nil {
		return fmt.Errorf("path does not exist: %s", expandedPath)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", expandedPath)
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
