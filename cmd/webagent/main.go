// Command webagent runs a vision-model browsing session for one task and
// prints the final answer.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/visionagent/agent"
	"github.com/BaSui01/visionagent/artifacts"
	"github.com/BaSui01/visionagent/browser"
	"github.com/BaSui01/visionagent/config"
	"github.com/BaSui01/visionagent/fileops"
	"github.com/BaSui01/visionagent/internal/metrics"
	"github.com/BaSui01/visionagent/llm/openaicompat"
	"github.com/BaSui01/visionagent/tools"
)

func main() {
	var (
		configPath  = flag.String("config", "config.yaml", "path to the YAML configuration")
		task        = flag.String("task", "", "natural-language task to complete")
		startURL    = flag.String("url", "", "start URL, overrides the configured one")
		maxRounds   = flag.Int("max-rounds", 0, "round budget, overrides the configured one")
		metricsAddr = flag.String("metrics-addr", "", "prometheus listen address, e.g. :9090, overrides the configured one")
	)
	flag.Parse()

	if *task == "" {
		fmt.Fprintln(os.Stderr, "usage: webagent -task \"...\" [-url https://...] [-config config.yaml]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *startURL != "" {
		cfg.Agent.StartURL = *startURL
	}
	if *maxRounds > 0 {
		cfg.Agent.MaxRounds = *maxRounds
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *task, logger); err != nil {
		if errors.Is(err, agent.ErrBudgetExhausted) {
			logger.Warn("session ended without a final answer", zap.Error(err))
			os.Exit(3)
		}
		logger.Error("session failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, task string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionID := uuid.NewString()
	store, err := artifacts.NewStore(filepath.Join(cfg.Artifacts.Dir, sessionID), logger)
	if err != nil {
		return err
	}
	logger.Info("artifacts directory ready", zap.String("dir", store.Root()))

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metrics.Handler()}
		go func() {
			logger.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Warn("metrics server stopped", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	provider := openaicompat.New(openaicompat.Config{
		APIKey:       cfg.LLM.APIKey,
		BaseURL:      cfg.LLM.BaseURL,
		DefaultModel: cfg.LLM.Model,
		Timeout:      cfg.LLM.Timeout(),
	}, logger)

	driver, err := browser.NewChromeDriver(browser.Config{
		Headless:       cfg.Browser.Headless,
		ViewportWidth:  cfg.Browser.ViewportWidth,
		ViewportHeight: cfg.Browser.ViewportHeight,
		UserAgent:      cfg.Browser.UserAgent,
		Timeout:        cfg.Browser.Timeout(),
	}, logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	if cfg.Agent.StartURL != "" {
		if err := driver.Navigate(ctx, cfg.Agent.StartURL); err != nil {
			return fmt.Errorf("open start url: %w", err)
		}
	}

	registry := tools.NewRegistry(logger)
	if err := browser.RegisterTools(registry, driver, store, logger); err != nil {
		return err
	}
	fileTools := fileops.NewToolset(store, provider, cfg.LLM.Model, logger)
	if err := fileTools.RegisterTools(registry); err != nil {
		return err
	}

	planner, err := agent.NewPlanner(provider, agent.PlannerConfig{
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, logger)
	if err != nil {
		return err
	}

	controller := agent.NewController(agent.ControllerConfig{
		MaxRounds:     cfg.Agent.MaxRounds,
		HistoryWindow: cfg.Agent.HistoryWindow,
		SessionID:     sessionID,
	}, planner, tools.NewExecutor(registry, logger), registry,
		browser.NewPageContext(driver, store, logger), store, logger)

	result, err := controller.Run(ctx, task)
	if result != nil {
		logger.Info("session finished",
			zap.String("status", string(result.Status)),
			zap.Int("rounds", result.Rounds),
			zap.Duration("duration", result.Duration))
	}
	if err != nil {
		return err
	}

	fmt.Println(result.FinalAnswer)
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("bad log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}
