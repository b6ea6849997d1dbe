package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/ebrodie/domainqa/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set configuration values.

Usage:
  domainqa config                        # Show all config
  domainqa config pdf-root               # Get specific value
  domainqa config pdf-root ~/corpus      # Set value

Keys:
  pdf-root            Path to the PDF corpus
  ollama-url          Ollama API endpoint
  embed-model         Ollama embedding model
  gemini-model        Gemini model used for answers
  serve-addr          Listen address for the HTTP server
  top-k               Retrieval depth
  max-asset-attach    Max table/image assets attached per answer
  narrative-max-chars Chunk budget for narrative text
  gap-threshold       Vertical gap (layout units) that starts a new block

The Gemini API key is never stored in config; set GEMINI_API_KEY in the
environment or in a .env file at the repository root.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	r := openRepo()
	defer r.close()
	cfg := r.cfg

	if len(args) == 0 {
		if humanOutput {
			outputHuman("pdf-root:            %s\n", cfg.PDFRoot)
			outputHuman("ollama-url:          %s\n", cfg.OllamaURL)
			outputHuman("embed-model:         %s\n", cfg.EmbedModel)
			outputHuman("gemini-model:        %s\n", cfg.GeminiModel)
			outputHuman("serve-addr:          %s\n", cfg.ServeAddr)
			outputHuman("top-k:               %d\n", cfg.TopK)
			outputHuman("max-asset-attach:    %d\n", cfg.MaxAssetAttach)
			outputHuman("narrative-max-chars: %d\n", cfg.NarrativeMaxChars)
			outputHuman("gap-threshold:       %g\n", cfg.GapThreshold)
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := args[0]

	if len(args) == 1 {
		value, err := configValue(cfg, key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			outputHuman("%s\n", value)
		} else {
			outputJSON(map[string]string{key: value})
		}
		return nil
	}

	value := args[1]
	if err := setConfigValue(cfg, key, value); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := cfg.Save(r.root); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		outputHuman("Set %s to %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}

func configValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "pdf-root":
		return cfg.PDFRoot, nil
	case "ollama-url":
		return cfg.OllamaURL, nil
	case "embed-model":
		return cfg.EmbedModel, nil
	case "gemini-model":
		return cfg.GeminiModel, nil
	case "serve-addr":
		return cfg.ServeAddr, nil
	case "top-k":
		return strconv.Itoa(cfg.TopK), nil
	case "max-asset-attach":
		return strconv.Itoa(cfg.MaxAssetAttach), nil
	case "narrative-max-chars":
		return strconv.Itoa(cfg.NarrativeMaxChars), nil
	case "gap-threshold":
		return strconv.FormatFloat(cfg.GapThreshold, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "pdf-root":
		expanded := config.ExpandPath(value)
		if err := config.ValidatePDFRoot(expanded); err != nil {
			return err
		}
		cfg.PDFRoot = expanded
	case "ollama-url":
		cfg.OllamaURL = value
	case "embed-model":
		cfg.EmbedModel = value
	case "gemini-model":
		cfg.GeminiModel = value
	case "serve-addr":
		cfg.ServeAddr = value
	case "top-k":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("top-k must be a positive integer, got %q", value)
		}
		cfg.TopK = n
	case "max-asset-attach":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("max-asset-attach must be a non-negative integer, got %q", value)
		}
		cfg.MaxAssetAttach = n
	case "narrative-max-chars":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("narrative-max-chars must be a positive integer, got %q", value)
		}
		cfg.NarrativeMaxChars = n
	case "gap-threshold":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("gap-threshold must be a non-negative number, got %q", value)
		}
		cfg.GapThreshold = f
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}
