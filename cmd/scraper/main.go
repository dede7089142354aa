package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"go-jobfilter-automation/internal/app"
	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/status"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		htmlPages  []string
		headless   bool
	)

	cmd := &cobra.Command{
		Use:          "scraper",
		Short:        "Scrape LinkedIn job results, classify them and write the matches",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.Headless = headless
			}
			return run(cmd.Context(), cfg, app.Options{HTMLPages: htmlPages})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to config.yaml")
	cmd.Flags().StringSliceVar(&htmlPages, "html", nil, "saved result pages to replay instead of opening a browser")
	cmd.Flags().BoolVar(&headless, "headless", true, "run chromium headless")
	return cmd
}

func run(parent context.Context, cfg *config.Config, opts app.Options) error {
	if parent == nil {
		parent = context.Background()
	}
	//ctrl-c stops the run gracefully
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Println("🚀 Starting LinkedIn job filter...")
	a, err := app.New(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	report, err := a.Orchestrator.Run(ctx)
	if err != nil {
		log.Printf("❌ Run failed: %v", err)
		return err
	}

	s := report.Stats
	log.Printf("📦 Run %s %s: %d processed, %d matched, %d duplicates, %d skipped",
		report.RunID, report.State, s.Processed, s.Matched, s.Duplicates, s.Skipped)
	if report.Destination != "" {
		log.Printf("💾 Results written to %s", report.Destination)
	}
	if report.State != status.StateCompleted && report.State != status.StateCancelled {
		return fmt.Errorf("run ended in state %s", report.State)
	}
	return nil
}
