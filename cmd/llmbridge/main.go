// Command llmbridge runs the on-device LLM bridge outside the mobile app:
// an HTTP harness (serve), one-shot generation (predict) and model
// discovery (models).
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llmbridge/internal/config"
	"llmbridge/internal/logging"
)

// rootOptions carries the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
	engine     string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "llmbridge",
		Short:         "Load a local LLM and run inference through the bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("LLMBRIDGE_CONFIG"), "Config file (.yaml, .yml, .json, .toml); defaults LLMBRIDGE_CONFIG")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug|info|warn|error|off")
	root.PersistentFlags().StringVar(&opts.engine, "engine", "", "Engine: llama|mock|none")

	root.AddCommand(newServeCmd(opts), newPredictCmd(opts), newModelsCmd(opts))
	return root
}

// load builds the effective config: defaults, then the config file, then
// persistent flags, then the subcommand's overrides.
func (o *rootOptions) load(cmd *cobra.Command, override func(*config.Config)) (config.Config, zerolog.Logger, error) {
	cfg := config.Default()
	if o.configPath != "" {
		fc, err := config.Load(o.configPath)
		if err != nil {
			return cfg, zerolog.Nop(), err
		}
		cfg = config.Merge(cfg, fc)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.engine != "" {
		cfg.Engine = o.engine
	}
	if override != nil {
		override(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, zerolog.Nop(), err
	}
	log, err := logging.NewConsole(cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	return cfg, log, nil
}

// splitCSV splits a comma-separated flag value, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "llmbridge:", err)
		os.Exit(1)
	}
}
