package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/yagago/host/internal/asset"
	"github.com/yagago/host/internal/config"
	"github.com/yagago/host/internal/dispatch"
	"github.com/yagago/host/internal/host"
	"github.com/yagago/host/internal/scripting"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(title string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              yagahost  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mgame:\033[0m %s\n\n", title)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// logTitleSink stands in for the native window: title changes are logged.
type logTitleSink struct {
	log *zap.Logger
}

func (s logTitleSink) SetScreenTitle(title string) {
	s.log.Info("window title", zap.String("title", title))
}

func run() error {
	cfgPath := "config/yaga.toml"
	if p := os.Getenv("YAGA_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Window.Title)

	printSection("assets")
	store, err := asset.Open(cfg.Assets, log)
	if err != nil {
		return fmt.Errorf("asset store: %w", err)
	}
	defer store.Close()
	printOK("asset store ready: " + cfg.Assets.DataPath)
	fmt.Println()

	printSection("input")
	clock := dispatch.NewWallClock()
	var poller host.Poller = host.NewQueue()
	if cfg.Input.Feed != "" {
		feed, err := host.LoadFeed(cfg.Input.Feed, clock.NowMs)
		if err != nil {
			return fmt.Errorf("input feed: %w", err)
		}
		poller = feed
		printStat("feed events", feed.Pending())
	} else {
		printOK("no input feed")
	}
	fmt.Println()

	manager := dispatch.NewManager(poller, clock, cfg.Loop.PollInterval, log)
	window := host.NewWindow(logTitleSink{log: log})
	window.SetTitle(cfg.Window.Title)

	printSection("scripts")
	engine, err := scripting.NewEngine(cfg.Scripting.ScriptsDir, manager, store, window, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	if err := engine.Start(); err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	printStat("handlers", engine.Receivers())
	printStat("timers", engine.Timers())
	fmt.Println()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)
	go func() {
		select {
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			manager.Stop()
		case <-ctx.Done():
		}
	}()

	printReady(fmt.Sprintf("event loop running, polling every %s", cfg.Loop.PollInterval))
	fmt.Println()
	return manager.Run(ctx)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
