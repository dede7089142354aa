package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"go-jobfilter-automation/internal/api"
	"go-jobfilter-automation/internal/app"
	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/scheduler"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		log.Fatalf("❌ Failed to initialize: %v", err)
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(ctx, a.Orchestrator, a.Settings),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server listening on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if cfg.Server.Schedule != "" {
		sched := scheduler.New(a.Orchestrator, cfg.Server.Schedule)
		if err := sched.Start(gctx); err != nil {
			log.Fatalf("❌ Failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Println("🛑 Shutting down...")
		a.Orchestrator.Stop()

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancelShutdown()
		select {
		case <-a.Orchestrator.Done():
		case <-shutdownCtx.Done():
			log.Println("⚠️ Run did not finish before shutdown timeout")
		}
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("❌ Server error: %v", err)
	}
}
