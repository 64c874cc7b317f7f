package main

import (
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/spf13/cobra"

	"llmbridge/internal/app"
	"llmbridge/internal/config"
)

func newPredictCmd(opts *rootOptions) *cobra.Command {
	var (
		model     string
		modelsDir string
		mode      string
		maxTokens int
		system    string
		tmpl      string
		vars      map[string]string
	)
	cmd := &cobra.Command{
		Use:     "predict [prompt...]",
		Short:   "Load a model and generate text for one prompt (stdin when no args)",
		Example: "  llmbridge predict --engine mock --model ./valid.gguf Tell me about today\n" +
			"  echo hi | llmbridge predict --model gemma.gguf\n" +
			"  llmbridge predict --model gemma.gguf --system 'Be gentle.' --var category=joy \\\n" +
			"    --template '{{.System}} Category: {{.Vars.category}} Entry: {{.Prompt}} AI:' I got the job",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd, func(c *config.Config) {
				if model != "" {
					c.ModelPath = model
				}
				if modelsDir != "" {
					c.ModelsDir = modelsDir
				}
				if mode != "" {
					c.Generation.Mode = mode
				}
				if maxTokens > 0 {
					c.Generation.MaxTokens = maxTokens
				}
				if system != "" {
					c.Generation.System = system
				}
				if tmpl != "" {
					c.Generation.Template = tmpl
				}
				if len(vars) > 0 {
					merged := maps.Clone(c.Generation.Vars)
					if merged == nil {
						merged = map[string]string{}
					}
					maps.Copy(merged, vars)
					c.Generation.Vars = merged
				}
			})
			if err != nil {
				return err
			}
			if cfg.ModelPath == "" {
				return fmt.Errorf("no model: pass --model or set model_path")
			}
			prompt := strings.Join(args, " ")
			if prompt == "" {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("read prompt: %w", err)
				}
				prompt = strings.TrimRight(string(b), "\r\n")
			}

			a, err := app.New(cfg, app.WithLogger(log))
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.Preload(cmd.Context()); err != nil {
				return err
			}
			text, err := a.Predict(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model path or models-dir ID")
	cmd.Flags().StringVar(&modelsDir, "models-dir", "", "Directory to resolve model IDs against")
	cmd.Flags().StringVar(&mode, "mode", "", "Generation mode: deterministic|stochastic")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum tokens to generate")
	cmd.Flags().StringVar(&system, "system", "", "System prompt prepended to the prompt")
	cmd.Flags().StringVar(&tmpl, "template", "", "Prompt template using {{.System}}, {{.Prompt}} and {{.Vars.key}}")
	cmd.Flags().StringToStringVar(&vars, "var", nil, "Template variable key=value (repeatable)")
	return cmd
}
