// Package main is the entry point for the snippet-lab server.
//
// The main package stays minimal. Its job is to:
// 1. Read configuration (defaults, snippetlab.yaml, .env.local, environment)
// 2. Create the outside-world adapters (logger, AI provider, clipboard)
// 3. Start the application
//
// All actual logic lives in internal/.
package main

import (
	"log/slog"
	"os"

	"github.com/sakif/snippet-lab/internal/clipboard"
	"github.com/sakif/snippet-lab/internal/config"
	"github.com/sakif/snippet-lab/internal/llm"
	"github.com/sakif/snippet-lab/internal/llm/anthropic"
	"github.com/sakif/snippet-lab/internal/llm/openai"
	"github.com/sakif/snippet-lab/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	// A bootstrap logger covers config errors; the real one needs the level.
	cfg, err := config.Load(".")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	level, _ := cfg.SlogLevel() // validated by Load
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	// === 3. AI PROVIDER ===
	// Missing credentials are not fatal: the server starts and AI requests
	// fail with a generation error.
	gen, model := newGenerator(cfg.AI, logger)
	gen = llm.NewRateLimited(gen, cfg.AI.RatePerSecond, cfg.AI.Burst)

	// === 4. CLIPBOARD ===
	var cb clipboard.Writer = clipboard.System{}
	if !clipboard.Available() {
		logger.Warn("system clipboard unavailable, copies stay in process")
		cb = &clipboard.Memory{}
	}

	// === 5. CREATE AND START THE SERVER ===
	srv, err := server.New(cfg, server.Deps{
		Generator: gen,
		Model:     model,
		Clipboard: cb,
	}, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newGenerator builds the configured provider and resolves the model ID.
// It falls back to llm.Disabled when the provider is "none" or can't be
// built.
func newGenerator(cfg config.AIConfig, logger *slog.Logger) (llm.Generator, string) {
	model := cfg.Model

	switch cfg.Provider {
	case config.ProviderOpenAI:
		if model == "" {
			model = openai.DefaultModel
		}
		c, err := openai.New(cfg.APIKey, cfg.BaseURL)
		if err != nil {
			logger.Warn("AI features disabled", slog.String("error", err.Error()))
			return llm.Disabled{}, model
		}
		logger.Info("AI provider ready", slog.String("provider", cfg.Provider), slog.String("model", model))
		return c, model

	case config.ProviderAnthropic:
		if model == "" {
			model = anthropic.DefaultModel
		}
		c, err := anthropic.New(cfg.APIKey, cfg.BaseURL)
		if err != nil {
			logger.Warn("AI features disabled", slog.String("error", err.Error()))
			return llm.Disabled{}, model
		}
		logger.Info("AI provider ready", slog.String("provider", cfg.Provider), slog.String("model", model))
		return c, model
	}

	logger.Info("AI features disabled by configuration")
	return llm.Disabled{}, model
}
