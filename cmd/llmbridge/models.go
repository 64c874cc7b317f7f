package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"llmbridge/internal/config"
	"llmbridge/internal/registry"
)

func newModelsCmd(opts *rootOptions) *cobra.Command {
	var modelsDir string
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List *.gguf model files in the models directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := opts.load(cmd, func(c *config.Config) {
				if modelsDir != "" {
					c.ModelsDir = modelsDir
				}
			})
			if err != nil {
				return err
			}
			models, err := registry.LoadDir(cfg.ModelsDir)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSIZE\tPATH")
			for _, m := range models {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, humanBytes(m.SizeBytes), m.Path)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&modelsDir, "models-dir", "", "Directory to scan (defaults to config models_dir)")
	return cmd
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%dB", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
