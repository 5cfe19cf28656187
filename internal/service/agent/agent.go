package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/sandevgo/shopmind/internal/config"
	"github.com/sandevgo/shopmind/internal/core"
	"github.com/sandevgo/shopmind/pkg/log"
)

// Agent drives one conversation turn end to end: memory context in, LLM call,
// delegated tool work, then the finished turn handed to the compression
// engine. The real Shopify tool wrappers are injected as a core.ToolRunner.
type Agent struct {
	cfg    *config.AppConfig
	ai     core.AIProvider
	memory core.ContextMemory
	repo   core.MessagesRepository
	tools  core.ToolRunner

	mu    sync.Mutex
	turns map[string]int
}

func NewAgent(
	cfg *config.AppConfig,
	ai core.AIProvider,
	memory core.ContextMemory,
	repo core.MessagesRepository,
	tools core.ToolRunner,
) *Agent {
	return &Agent{
		cfg:    cfg,
		ai:     ai,
		memory: memory,
		repo:   repo,
		tools:  tools,
		turns:  make(map[string]int),
	}
}

func (a *Agent) Run(ctx context.Context, threadID string, input string) (string, error) {
	logger := log.FromCtx(ctx)

	userMsg := core.Message{Role: core.RoleUser, Content: input}
	if err := a.repo.AddMessage(ctx, threadID, userMsg); err != nil {
		return "", fmt.Errorf("save user message: %w", err)
	}

	// History already includes the user message saved above.
	messages := a.buildPrompt(ctx, threadID)

	responseMsg, err := a.ai.Chat(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("ai chat: %w", err)
	}

	if err := a.repo.AddMessage(ctx, threadID, responseMsg); err != nil {
		logger.Error().Err(err).Msg("failed to save assistant message")
	}

	var results []core.AgentResult
	if a.tools != nil {
		results, err = a.tools.Run(ctx, input)
		if err != nil {
			logger.Error().Err(err).Msg("tool run failed")
		}
	}

	// Hand the finished turn to the compression engine. An extraction
	// failure is absorbed there; only caller cancellation surfaces.
	turn := []core.Message{userMsg, responseMsg}
	if err := a.memory.CompressTurn(ctx, threadID, turn, results); err != nil {
		logger.Warn().Err(err).Str("thread", threadID).Msg("turn compression skipped")
	}

	a.maybePrune(threadID)

	return responseMsg.Content, nil
}

// RenderMemory exposes the compressed context of a thread for inspection.
func (a *Agent) RenderMemory(threadID string) string {
	return a.memory.Render(threadID, a.cfg.MemoryTokenBudget)
}

func (a *Agent) buildPrompt(ctx context.Context, threadID string) []core.Message {
	logger := log.FromCtx(ctx)

	var messages []core.Message
	if mem := a.memory.Render(threadID, a.cfg.MemoryTokenBudget); mem != "" {
		messages = append(messages, core.Message{
			Role:    core.RoleSystem,
			Content: "Conversation memory:\n" + mem,
		})
	}

	history, err := a.repo.GetMessages(ctx, threadID, a.cfg.ContextWindowSize)
	if err != nil {
		logger.Error().Err(err).Msg("failed to fetch history")
		return messages
	}
	return append(messages, history...)
}

// maybePrune clamps the derived memory views every N turns. Raw extraction
// history is kept; products are kept too on this cadence.
func (a *Agent) maybePrune(threadID string) {
	if a.cfg.PruneEveryTurns <= 0 {
		return
	}

	a.mu.Lock()
	a.turns[threadID]++
	due := a.turns[threadID]%a.cfg.PruneEveryTurns == 0
	a.mu.Unlock()

	if due {
		a.memory.Prune(threadID, true)
	}
}
