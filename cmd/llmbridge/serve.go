package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"llmbridge/internal/app"
	"llmbridge/internal/config"
	"llmbridge/internal/httpapi"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		addr           string
		modelsDir      string
		model          string
		corsOrigins    string
		requestTimeout time.Duration
		maxBodyBytes   int64
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the HTTP harness",
		Example: "  llmbridge serve --engine mock --model ./valid.gguf\n  llmbridge serve --config llmbridge.yaml --addr :8080",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd, func(c *config.Config) {
				if addr != "" {
					c.Addr = addr
				}
				if modelsDir != "" {
					c.ModelsDir = modelsDir
				}
				if model != "" {
					c.ModelPath = model
				}
				if origins := splitCSV(corsOrigins); len(origins) > 0 {
					c.CORSOrigins = origins
				}
			})
			if err != nil {
				return err
			}
			a, err := app.New(cfg, app.WithLogger(log), app.WithRegisterer(prometheus.DefaultRegisterer))
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn().Err(err).Msg("close")
				}
			}()
			report := a.SanityCheck()
			if report.Error != "" {
				log.Warn().Interface("sanity", report).Msg("sanity check")
			} else {
				log.Info().Interface("sanity", report).Msg("sanity check")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			httpapi.SetLogger(log)
			httpapi.SetRequestLogLevel(cfg.LogLevel)
			httpapi.SetBaseContext(ctx)
			httpapi.SetRequestTimeout(requestTimeout)
			httpapi.SetMaxBodyBytes(maxBodyBytes)
			if len(cfg.CORSOrigins) > 0 {
				httpapi.SetCORSOptions(true, cfg.CORSOrigins, nil, nil)
			}
			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpapi.NewMux(a),
				ReadHeaderTimeout: 10 * time.Second,
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				// A failed preload leaves the server up and Unloaded.
				if err := a.Preload(gctx); err != nil {
					log.Error().Err(err).Str("model", cfg.ModelPath).Msg("preload failed")
				}
				return nil
			})
			g.Go(func() error {
				log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Str("engine", cfg.Engine).Msg("llmbridge listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-gctx.Done()
				sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(sctx); err != nil {
					log.Warn().Err(err).Msg("graceful shutdown")
				}
				return nil
			})
			return g.Wait()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", os.Getenv("LLMBRIDGE_ADDR"), "HTTP listen address, e.g. :8080 (defaults LLMBRIDGE_ADDR, then config)")
	cmd.Flags().StringVar(&modelsDir, "models-dir", "", "Directory to scan for *.gguf model files")
	cmd.Flags().StringVar(&model, "model", "", "Model to load at startup (path or models-dir ID)")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	cmd.Flags().DurationVar(&requestTimeout, "request-timeout", 0, "Bound on waiting for the model per request (0 = none)")
	cmd.Flags().Int64Var(&maxBodyBytes, "max-body-bytes", 1<<20, "Maximum JSON request body size")
	return cmd
}
