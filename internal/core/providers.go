package core

import "context"

type AIProvider interface {
	Chat(ctx context.Context, history []Message) (Message, error)
}

// ExtractionProvider is the external text-extraction capability. It is
// non-deterministic and allowed to fail; callers must treat every error as
// recoverable.
type ExtractionProvider interface {
	Extract(ctx context.Context, text string) ([]Extraction, error)
}

// ToolRunner executes delegated agent work for a turn. The real Shopify tool
// wrappers live outside this repository; the agent only needs their results.
type ToolRunner interface {
	Run(ctx context.Context, request string) ([]AgentResult, error)
}
