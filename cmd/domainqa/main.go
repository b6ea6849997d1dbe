// Package main provides the domainqa CLI entry point.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verboseLogging enables debug-level console logging
var verboseLogging bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "domainqa",
	Short: "Layout-aware PDF knowledge base with retrieval QA",
	Long: `domainqa ingests a PDF corpus into a local knowledge base and answers
questions against it.

PDFs are segmented into layout-aware chunks, embedded via Ollama and
indexed in an embedded vector store. Questions are answered by Gemini
from retrieved context, with table and image assets attached. All
commands output JSON by default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&verboseLogging, "verbose", false, "Enable debug logging")
	rootCmd.Version = Version
}

// getRepoRoot returns the working root, or exits with an error.
func getRepoRoot() (string, int) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", outputError(ExitError, "getting current directory: %v", err)
	}

	// DOMAINQA_ROOT overrides the working directory
	if root := os.Getenv("DOMAINQA_ROOT"); root != "" {
		cwd = root
	}

	return cwd, 0
}
