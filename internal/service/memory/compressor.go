package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/shopmind/internal/core"
	"github.com/sandevgo/shopmind/pkg/conv"
	"github.com/sandevgo/shopmind/pkg/log"
)

var (
	tk     *tiktoken.Tiktoken
	tkOnce sync.Once
)

func getTokenizer() *tiktoken.Tiktoken {
	tkOnce.Do(func() {
		var err error
		tk, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			panic("failed to load tiktoken: " + err.Error())
		}
	})
	return tk
}

// clampTokens trims text to at most maxTokens tokens.
func clampTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return text
	}
	enc := getTokenizer()
	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}

// CompressTurn distills one finished turn into the thread's store. The
// extraction call is the turn's single suspension point; its failure is always
// recoverable: agent results are still recorded through the fallback path and
// the orchestrator never sees an extraction error. Caller cancellation before
// an outcome leaves the store byte-for-byte unchanged.
func (s *Service) CompressTurn(ctx context.Context, threadID string, messages []core.Message, results []core.AgentResult) error {
	logger := log.FromCtx(ctx)
	th := s.thread(threadID, true)

	th.writerMu.Lock()
	defer th.writerMu.Unlock()

	text := clampTokens(formatTurn(messages, results), s.maxInputTokens)

	extractions, err := s.provider.Extract(ctx, text)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled before a success/failure determination: the turn is
			// all-or-nothing, so not even the fallback applies.
			return ctx.Err()
		}

		logger.Warn().Err(err).Str("thread", threadID).Msg("extraction failed, recording agent results directly")
		now := s.now()
		th.storeMu.Lock()
		for _, r := range results {
			th.store.appendAgentResult(r.Agent, AgentResultEntry{
				Summary:   truncate(r.Content, fallbackSummaryLimit),
				Success:   r.Success,
				Timestamp: now,
			})
		}
		th.storeMu.Unlock()
		return nil
	}

	now := s.now()
	th.storeMu.Lock()
	defer th.storeMu.Unlock()

	for _, ex := range extractions {
		// The service's output shape drifts; admit nothing unvalidated.
		if ex.Class == "" || ex.Text == "" {
			logger.Debug().Str("thread", threadID).Msg("skipping malformed extraction tuple")
			continue
		}

		rec := Record{
			Class:     ex.Class,
			Text:      ex.Text,
			Attrs:     ex.Attrs,
			Timestamp: now,
			Span:      ex.Span,
		}
		th.store.admit(rec)

		// A projection failure affects only its own record; the rest of the
		// turn still applies.
		if perr := th.store.project(rec); perr != nil {
			logger.Warn().Err(perr).Str("thread", threadID).Str("class", ex.Class).Msg("projection rejected extraction")
		}
	}
	return nil
}

// formatTurn renders the turn delta the way the extraction prompt expects:
// transcript lines, then an agent-results block with each payload flattened
// to prose and clamped.
func formatTurn(messages []core.Message, results []core.AgentResult) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}

	if len(results) > 0 {
		b.WriteString("\nAgent Results:\n")
		for _, r := range results {
			b.WriteString(r.Agent)
			b.WriteString(": ")
			b.WriteString(truncate(conv.HTMLToPlainText(r.Content), agentResultInputLimit))
			b.WriteByte('\n')
		}
	}
	return b.String()
}
