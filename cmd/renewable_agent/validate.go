package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jonathan/renewable-watch/internal/artifacts"
	"github.com/jonathan/renewable-watch/internal/config"
	"github.com/jonathan/renewable-watch/internal/schemas"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate persisted opposition summaries against the schema",
	Long: `Walks every summary artifact in the store and validates it against the
embedded opposition summary JSON schema. Violations are reported per file;
nothing is modified or deleted. Exits non-zero when any summary is invalid.`,
	RunE: runValidate,
}

var (
	validateConfigPath string
	validateDataDir    string
)

func init() {
	validateCmd.Flags().StringVar(&validateConfigPath, "config", "", "Path to config.json file (values can be overridden by other flags)")

	validateCmd.Flags().StringVar(&validateDataDir, "data-dir", "", "Root directory for dataset and artifacts")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadMergedConfig(validateConfigPath, func(cfg *config.Config) {
		if cmd.Flags().Changed("data-dir") {
			cfg.DataDir = validateDataDir
		}
	})
	if err != nil {
		return err
	}

	store := artifacts.NewStore(cfg.ArtifactsDir())

	ids, err := store.ListSummaryIDs()
	if err != nil {
		return fmt.Errorf("failed to list summaries: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintf(os.Stdout, "No summaries found under %s\n", store.Root())
		return nil
	}

	invalid := 0
	for _, id := range ids {
		path := store.SummaryPath(id)
		err := schemas.ValidateSummaryFile(path)
		if err == nil {
			continue
		}

		invalid++
		var validationErr *schemas.ValidationError
		if errors.As(err, &validationErr) {
			fmt.Fprintf(os.Stdout, "INVALID %s\n", path)
			for _, fieldErr := range validationErr.Errors {
				fmt.Fprintf(os.Stdout, "  %s: %s\n", fieldErr.Field, fieldErr.Message)
			}
			continue
		}
		// Unreadable or unparseable files count as violations too
		fmt.Fprintf(os.Stdout, "INVALID %s\n  %v\n", path, err)
	}

	fmt.Fprintf(os.Stdout, "Validated %d summaries: %d valid, %d invalid\n", len(ids), len(ids)-invalid, invalid)

	if invalid > 0 {
		return fmt.Errorf("validation found %d invalid summary file(s)", invalid)
	}

	return nil
}
