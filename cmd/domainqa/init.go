package main

import (
	"github.com/spf13/cobra"

	"github.com/ebrodie/domainqa/internal/config"
)

var initPDFRoot string

func init() {
	initCmd.Flags().StringVar(&initPDFRoot, "pdf-root", "", "Path to the PDF corpus")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new domainqa repository",
	Long: `Initialize a new domainqa repository in the current directory.

Creates:
  .domainqa/
  ├── config.yml        # Default config
  ├── storage/
  │   ├── chroma/       # Vector index
  │   └── assets/       # Extracted table/image assets
  └── logs/`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, exitCode := getRepoRoot()
	if exitCode != 0 {
		exitWithError(exitCode, "cannot determine working directory")
	}

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a domainqa repository")
	}

	if initPDFRoot != "" {
		if err := config.ValidatePDFRoot(config.ExpandPath(initPDFRoot)); err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
	}

	if _, err := config.Init(root, initPDFRoot); err != nil {
		exitWithError(ExitError, "initializing repository: %v", err)
	}

	if humanOutput {
		outputHuman("Initialized domainqa repository in %s\n", root)
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: root})
	}
	return nil
}
