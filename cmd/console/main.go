package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/timeline-engine/internal/config"
	"github.com/jwebster45206/timeline-engine/internal/logger"
	"github.com/jwebster45206/timeline-engine/internal/services"
	"github.com/jwebster45206/timeline-engine/internal/storage"
	"github.com/jwebster45206/timeline-engine/pkg/engine"
	"github.com/jwebster45206/timeline-engine/pkg/timeline"
)

const logFileName = "console.log"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	// Log to a file so slog output does not fight the TUI for the terminal.
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logFile.Close() }()
	log := logger.Setup(cfg, logFile)

	llm, err := newLLMService(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if err := llm.InitModel(context.Background(), cfg.ModelName); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init model: %v\n", err)
		os.Exit(1)
	}

	var store storage.Storage
	if cfg.RedisURL != "" {
		redisStore := storage.NewRedisStorage(cfg.RedisURL, log)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := redisStore.WaitForConnection(ctx)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not connect to Redis at %s: %v\n", cfg.RedisURL, err)
			os.Exit(1)
		}
		store = redisStore
		defer func() { _ = store.Close() }()
	}

	p := tea.NewProgram(NewConsoleUI(cfg, llm, store, log),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func newLLMService(cfg *config.Config, log *slog.Logger) (services.LLMService, error) {
	switch strings.ToLower(cfg.LLMProvider) {
	case "anthropic":
		return services.NewAnthropicService(cfg.AnthropicAPIKey, cfg.ModelName, log), nil
	case "openai":
		return services.NewOpenAIService(cfg.OpenAIAPIKey, cfg.ModelName, log), nil
	case "ollama":
		return services.NewOllamaService(cfg.OllamaURL, cfg.ModelName, log), nil
	case "mock":
		return services.NewMockLLMAPI(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.LLMProvider)
	}
}

// newSession builds the turn pipeline around a game state.
func newSession(cfg *config.Config, llm services.LLMService, store storage.Storage, log *slog.Logger, gs *timeline.GameState) *engine.Session {
	var gameStore *timeline.Store
	if gs != nil {
		gameStore = timeline.NewStore(gs, log)
	} else {
		gameStore = timeline.NewStore(timeline.NewGameState("New Game", defaultPlayers()), log)
	}

	session := engine.NewSession(gameStore, llm, log).
		WithRecentLimit(cfg.HistoryLimit)
	if store != nil {
		session = session.WithSaver(store)
	}
	return session
}

func defaultPlayers() []timeline.Player {
	return []timeline.Player{
		{ID: "human", Name: "You"},
		{ID: "ai", Name: "Muse", IsAI: true},
	}
}
