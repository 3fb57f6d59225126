package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petasbytes/frame-agent/internal/config"
	"github.com/petasbytes/frame-agent/internal/frameio"
	"github.com/petasbytes/frame-agent/internal/provider"
	"github.com/petasbytes/frame-agent/internal/session"
	"github.com/petasbytes/frame-agent/replay"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		csvPath    string
		request    string
		model      string
		configPath string
		maxSteps   int
		stepsOut   string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "frame-agent",
		Short: "Agentic analysis of a CSV dataset through dataframe tool calls",
		Long: `frame-agent loads a CSV file onto a dataframe stack and lets the model
analyze it by issuing structured tool calls (dataframe_operation,
series_operation, series_assign, pop) until it produces a final answer.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if os.Getenv("ANTHROPIC_API_KEY") == "" {
				return fmt.Errorf("missing ANTHROPIC_API_KEY; export it before running")
			}

			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			if model != "" {
				cfg.Model = model
			}
			if maxSteps > 0 {
				cfg.MaxSteps = maxSteps
			}

			log, err := newLogger(verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			df, err := frameio.LoadCSV(csvPath)
			if err != nil {
				return fmt.Errorf("load %s: %w", csvPath, err)
			}
			log.Info("dataset loaded",
				zap.String("path", csvPath),
				zap.Int("rows", df.Nrow()),
				zap.Int("cols", df.Ncol()),
			)

			// Graceful shutdown on Ctrl-C (SIGINT) / SIGTERM.
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigch := make(chan os.Signal, 1)
			signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigch)
			go func() {
				<-sigch
				fmt.Println("\nExiting...")
				cancel()
			}()

			client := provider.NewAnthropicClient()
			sess := session.New(client, cfg, log, request, df)
			log.Info("session started", zap.String("session_id", sess.ID()))

			var runErr error
			for i := 0; cfg.MaxSteps <= 0 || i < cfg.MaxSteps; i++ {
				if ctx.Err() != nil {
					break
				}
				done, err := sess.Step(ctx)
				if err != nil {
					runErr = err
					break
				}
				if done {
					break
				}
			}
			if !sess.Done() && runErr == nil && ctx.Err() == nil {
				log.Warn("session stopped at step limit", zap.Int("max_steps", cfg.MaxSteps))
			}

			if stepsOut != "" {
				if err := replay.Save(stepsOut, sess.Steps()); err != nil {
					log.Warn("failed to save step records", zap.Error(err))
				} else {
					log.Info("step records saved",
						zap.String("path", stepsOut),
						zap.Int("steps", len(sess.Steps())),
					)
				}
			}
			return runErr
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "CSV file to analyze, relative to FA_DATA_ROOT (or the working directory)")
	cmd.Flags().StringVar(&request, "request", "", "the analysis request to fulfill")
	cmd.Flags().StringVar(&model, "model", "", "model override")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "step limit override")
	cmd.Flags().StringVar(&stepsOut, "steps-out", "", "write step records (JSON) to this path")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	_ = cmd.MarkFlagRequired("csv")
	_ = cmd.MarkFlagRequired("request")
	return cmd
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.DisableCaller = true
	return cfg.Build()
}
