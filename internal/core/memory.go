package core

import "context"

// ContextMemory is the orchestrator-facing surface of the context-compression
// engine: one call per finished turn, one render before the next prompt, and
// pruning on the orchestrator's own cadence.
type ContextMemory interface {
	CompressTurn(ctx context.Context, threadID string, messages []Message, results []AgentResult) error
	Render(threadID string, maxTokens int) string
	Prune(threadID string, keepProducts bool)
}
