// Package app wires configuration into a ready orchestrator. Both binaries
// share it.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"go-jobfilter-automation/internal/ai"
	"go-jobfilter-automation/internal/browser"
	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/dedup"
	"go-jobfilter-automation/internal/orchestrator"
	"go-jobfilter-automation/internal/ratelimit"
	"go-jobfilter-automation/internal/scraper"
	"go-jobfilter-automation/internal/scraper/htmlpage"
	"go-jobfilter-automation/internal/scraper/linkedin"
	"go-jobfilter-automation/internal/session"
	"go-jobfilter-automation/internal/settings"
	"go-jobfilter-automation/internal/sink"
	"go-jobfilter-automation/internal/status"
)

// App holds the wired orchestrator and everything that must be closed.
type App struct {
	Orchestrator *orchestrator.Orchestrator
	Settings     *settings.FileStore
	closers      []func()
}

// Options choose where listings come from.
type Options struct {
	// HTMLPages replays saved result pages instead of driving a browser.
	HTMLPages []string
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	var rdb *redis.Client
	if cfg.RedisURL != "" {
		client, err := dedup.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rdb = client
		a.closers = append(a.closers, func() { _ = client.Close() })
		log.Println("🧰 Redis connected.")
	}

	out, err := a.buildSink(ctx, cfg, rdb)
	if err != nil {
		return nil, err
	}

	var (
		openBoard orchestrator.BoardOpener
		sessions  session.Provider
	)
	if len(opts.HTMLPages) > 0 {
		openBoard = func(context.Context) (scraper.Board, error) {
			return htmlpage.Open(opts.HTMLPages, cfg.Selectors)
		}
		sessions = session.NewFileProvider(cfg.CookiesPath)
		log.Printf("📂 Replaying %d saved page(s)", len(opts.HTMLPages))
	} else {
		openBoard, sessions, err = a.liveBoard(cfg)
		if err != nil {
			return nil, err
		}
	}

	clock := ratelimit.RealClock{}
	a.Settings = settings.NewFileStore(cfg.SettingsPath)
	a.Orchestrator = orchestrator.New(orchestrator.Deps{
		Settings:    a.Settings,
		Limits:      cfg.Limits,
		Affirmative: cfg.Classifier.AffirmativeToken,
		OpenBoard:   openBoard,
		Details:     linkedin.NewDetailFetcher(cfg.Detail.BaseURL, cfg.Limits.RequestTimeout),
		Sessions:    sessions,
		Classifiers: orchestrator.AIClassifiers(ai.NewFactory(cfg.Classifier), clock),
		Sink:        out,
		Status:      buildStatus(cfg, rdb),
		Clock:       clock,
	})
	ok = true
	return a, nil
}

// Close releases resources in reverse order of creation.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) buildSink(ctx context.Context, cfg *config.Config, rdb *redis.Client) (sink.Sink, error) {
	var out sink.Sink
	switch cfg.Sink.Kind {
	case "csv":
		out = sink.NewCSV(cfg.OutputDir)
	case "sheets":
		s, err := sink.NewSheets(ctx, cfg.Sink.SheetsAccessToken)
		if err != nil {
			return nil, err
		}
		out = s
	case "postgres":
		p, err := sink.ConnectPostgres(ctx, cfg.Sink.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, p.Close)
		out = p
	case "notion":
		out = sink.NewNotion(cfg.Sink.NotionToken, nil)
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}
	log.Printf("💾 Sink: %s", cfg.Sink.Kind)

	if !cfg.Sink.SkipSeen {
		return out, nil
	}
	var history dedup.History
	switch {
	case cfg.Sink.History == "redis" && rdb != nil:
		history = dedup.NewRedisHistory(rdb, "")
	case cfg.Sink.History == "redis":
		return nil, fmt.Errorf("redis history needs redis_url")
	default:
		history = dedup.NewFileHistory(cfg.CachePath)
	}
	return sink.NewSkipSeen(out, history), nil
}

func buildStatus(cfg *config.Config, rdb *redis.Client) status.Channel {
	channels := status.Fanout{status.Log{}}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := status.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID)
		if err != nil {
			log.Printf("⚠️ Telegram disabled: %v", err)
		} else {
			channels = append(channels, tg)
			log.Println("🤖 Telegram Bot initialized.")
		}
	}
	if rdb != nil {
		channels = append(channels, status.NewRedis(rdb, cfg.StatusChannel))
	}
	return channels
}

// liveBoard starts chromium with the exported cookies. Every run reopens the
// configured search URL in the same tab.
func (a *App) liveBoard(cfg *config.Config) (orchestrator.BoardOpener, session.Provider, error) {
	pm, err := browser.NewPlaywright(cfg.Headless)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, func() { _ = pm.Close() })

	cookies, err := browser.LoadCookies(cfg.CookiesPath)
	if err != nil {
		log.Printf("⚠️ Could not load linkedin cookies: %v. Continuing.", err)
	} else {
		log.Printf("🍪 Loaded linkedin cookies (%d)", len(cookies))
	}

	bctx, err := pm.NewContext(cookies)
	if err != nil {
		return nil, nil, err
	}
	page, err := bctx.NewPage()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create new page: %w", err)
	}
	log.Println("✅ Browser initialized successfully!")

	debugger := browser.NewScreenshotDebugger(cfg.OutputDir)
	open := func(ctx context.Context) (scraper.Board, error) {
		lp := linkedin.NewPage(page, cfg.Selectors, debugger)
		if err := lp.Open(ctx, cfg.SearchURL); err != nil {
			return nil, err
		}
		return lp, nil
	}
	return open, session.NewBrowserProvider(bctx), nil
}
