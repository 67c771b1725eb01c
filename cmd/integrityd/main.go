// Command integrityd runs the academic-integrity scoring engine, either as
// an HTTP service or as a one-shot analysis of a captured session file.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"integrityd/internal/classifier"
	"integrityd/internal/config"
	"integrityd/internal/engine"
	"integrityd/internal/logging"
	"integrityd/internal/metrics"
	"integrityd/internal/screenwatch"
	"integrityd/internal/server"
	"integrityd/internal/store"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "integrityd",
		Short: "Academic-integrity scoring engine for writing sessions",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (TOML or YAML)")

	root.AddCommand(serveCmd(), analyzeCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis service",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader(configPath)
			cfg, err := loader.Load()
			if err != nil {
				return err
			}
			defer loader.Close()

			logger := logging.New(logging.Config{
				Level:     cfg.Logging.Level,
				Format:    cfg.Logging.Format,
				Component: "integrityd",
			})
			loader.SetLogger(logging.WithComponent(logger, "config"))

			registry := prometheus.NewRegistry()
			m := metrics.New(registry)

			var archive *store.Store
			if cfg.Storage.Enabled {
				archive, err = store.Open(cfg.Storage.Path)
				if err != nil {
					// Archival is secondary; run degraded rather than fail.
					logger.Warn("submission archive unavailable", "error", err)
					archive = nil
				} else {
					defer archive.Close()
				}
			}

			fallback := classifier.NewFallbackClassifier(
				classifier.NewHTTPClassifier(classifier.HTTPConfig{
					Endpoint:          cfg.Classifier.Endpoint,
					APIKey:            config.APIKey(),
					Version:           cfg.Classifier.Version,
					Timeout:           cfg.Classifier.Timeout(),
					RequestsPerSecond: cfg.Classifier.RequestsPerSecond,
				}),
				classifier.NewHeuristicClassifier(),
				logging.WithComponent(logger, "classifier"),
			)
			fallback.OnFallback(m.ClassifierFallbacks.Inc)

			eng := engine.New(engine.Options{
				Tolerances: cfg.Calibration.Tolerances(),
				Thresholds: cfg.Detectors,
				Classifier: fallback,
				Archive:    archive,
				Metrics:    m,
				Logger:     logging.WithComponent(logger, "engine"),
			})

			// Threshold changes apply without a restart.
			loader.OnChange(func(c *config.Config) {
				eng.SetThresholds(c.Detectors)
				logger.Info("detector thresholds reloaded")
			})
			if configPath != "" {
				if err := loader.Watch(); err != nil {
					logger.Warn("config watch unavailable", "error", err)
				}
			}

			srv := server.New(eng, screenwatch.NewDetector(cfg.Screen), cfg.Server,
				logging.WithComponent(logger, "server"), registry)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info("listening", "addr", cfg.Server.Addr)
			return srv.ListenAndServe(ctx)
		},
	}
}

func analyzeCmd() *cobra.Command {
	var textPath string
	cmd := &cobra.Command{
		Use:   "analyze <session.json>",
		Short: "Analyze a captured session file and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := config.NewLoader(configPath)
			cfg, err := loader.Load()
			if err != nil {
				return err
			}

			logger := logging.New(logging.Config{Level: "warn", Format: "text", Component: "integrityd"})

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read session file: %w", err)
			}

			var session struct {
				Actions          json.RawMessage `json:"actions"`
				ReferenceActions json.RawMessage `json:"referenceActions"`
				TextContent      string          `json:"textContent"`
				SubmissionID     string          `json:"submissionId"`
			}
			if err := json.Unmarshal(data, &session); err != nil {
				return fmt.Errorf("parse session file: %w", err)
			}

			req, err := buildRequest(session.Actions, session.ReferenceActions, session.TextContent, session.SubmissionID)
			if err != nil {
				return err
			}

			if textPath != "" {
				text, err := os.ReadFile(textPath)
				if err != nil {
					return fmt.Errorf("read text file: %w", err)
				}
				req.TextContent = string(text)
			}

			fallback := classifier.NewFallbackClassifier(
				classifier.NewHTTPClassifier(classifier.HTTPConfig{
					Endpoint:          cfg.Classifier.Endpoint,
					APIKey:            config.APIKey(),
					Version:           cfg.Classifier.Version,
					Timeout:           cfg.Classifier.Timeout(),
					RequestsPerSecond: cfg.Classifier.RequestsPerSecond,
				}),
				classifier.NewHeuristicClassifier(),
				logger,
			)

			eng := engine.New(engine.Options{
				Tolerances: cfg.Calibration.Tolerances(),
				Thresholds: cfg.Detectors,
				Classifier: fallback,
				Logger:     logger,
			})

			result, err := eng.Analyze(cmd.Context(), req)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().StringVar(&textPath, "text", "", "path to the final text (overrides textContent in the session file)")
	return cmd
}
