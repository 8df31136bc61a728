package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentic-research/mache-xml/internal/trigger"
)

func init() {
	rootCmd.AddCommand(triggerConfigureCmd)
}

var triggerConfigureCmd = &cobra.Command{
	Use:   "trigger-configure <hcl-file>",
	Short: "Validate an HCL trigger configuration without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		file := args[0]
		src, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("trigger-configure: read %s: %w", file, err)
		}
		cfg, err := trigger.LoadTriggerConfig(src, file)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.OutOrStdout(), "trigger %q valid: separator=%q, %d extraction(s)\n", cfg.Name, cfg.Separator, len(cfg.Extractions))
		for _, ext := range cfg.Extractions {
			fmt.Fprintf(c.OutOrStdout(), "  %s -> %d emit(s)\n", ext.Path, len(ext.Emits))
		}
		return nil
	},
}
