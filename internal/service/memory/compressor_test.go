package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sandevgo/shopmind/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProvider struct {
	mu          sync.Mutex
	extractFunc func(ctx context.Context, text string) ([]core.Extraction, error)
	lastText    string
}

func (m *mockProvider) Extract(ctx context.Context, text string) ([]core.Extraction, error) {
	m.mu.Lock()
	m.lastText = text
	m.mu.Unlock()
	if m.extractFunc != nil {
		return m.extractFunc(ctx, text)
	}
	return nil, nil
}

func (m *mockProvider) text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastText
}

func fixed(extractions ...core.Extraction) func(context.Context, string) ([]core.Extraction, error) {
	return func(context.Context, string) ([]core.Extraction, error) {
		return extractions, nil
	}
}

func ex(class, text string, attrs ...string) core.Extraction {
	e := core.Extraction{Class: class, Text: text}
	for i := 0; i+1 < len(attrs); i += 2 {
		e.Attrs = append(e.Attrs, core.Attr{Key: attrs[i], Value: attrs[i+1]})
	}
	return e
}

func newTestService(provider core.ExtractionProvider) *Service {
	return NewService(provider, 0)
}

func countInvariantHolds(t *testing.T, st *Store) {
	t.Helper()
	total := 0
	for _, recs := range st.Extractions {
		total += len(recs)
	}
	assert.Equal(t, total, st.Count, "extraction count must equal sum of per-class sequence lengths")
}

func TestCompressTurn_FoldsExtractionsInOrder(t *testing.T) {
	provider := &mockProvider{extractFunc: fixed(
		ex("user_intent", "set up the sale"),
		ex("product", "gid://shopify/Product/7923456789", "title", "X"),
		ex("user_intent", "email the supplier"),
	)}
	svc := newTestService(provider)

	err := svc.CompressTurn(context.Background(), "t1", []core.Message{{Role: core.RoleUser, Content: "set up the sale"}}, nil)
	require.NoError(t, err)

	st, ok := svc.Snapshot("t1")
	require.True(t, ok)
	assert.Equal(t, 3, st.Count)
	assert.Equal(t, []string{"user_intent", "product"}, st.KnownClasses)
	countInvariantHolds(t, st)
}

func TestCompressTurn_CountInvariantAcrossTurns(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider)

	for turn := 0; turn < 8; turn++ {
		provider.extractFunc = fixed(
			ex("operation", fmt.Sprintf("turn %d op", turn)),
			ex("search", fmt.Sprintf("turn %d search", turn)),
		)
		require.NoError(t, svc.CompressTurn(context.Background(), "t1", nil, nil))

		st, _ := svc.Snapshot("t1")
		countInvariantHolds(t, st)
	}

	st, _ := svc.Snapshot("t1")
	assert.Equal(t, 16, st.Count)
}

func TestCompressTurn_TurnTextFormat(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider)

	messages := []core.Message{
		{Role: core.RoleUser, Content: "how did we do last week?"},
		{Role: core.RoleAssistant, Content: "checking analytics"},
	}
	results := []core.AgentResult{
		{Agent: "analytics", Content: "Revenue was $500", Success: true},
	}

	require.NoError(t, svc.CompressTurn(context.Background(), "t1", messages, results))

	text := provider.text()
	assert.Contains(t, text, "user: how did we do last week?\n")
	assert.Contains(t, text, "assistant: checking analytics\n")
	assert.Contains(t, text, "Agent Results:\n")
	assert.Contains(t, text, "analytics: Revenue was $500\n")
}

func TestCompressTurn_AgentResultInputClamped(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider)

	big := strings.Repeat("x", 2000)
	require.NoError(t, svc.CompressTurn(context.Background(), "t1", nil, []core.AgentResult{{Agent: "bulk", Content: big, Success: true}}))

	assert.Contains(t, provider.text(), "bulk: "+strings.Repeat("x", agentResultInputLimit)+"\n")
	assert.NotContains(t, provider.text(), strings.Repeat("x", agentResultInputLimit+1))
}

func TestCompressTurn_FallbackOnExtractionFailure(t *testing.T) {
	provider := &mockProvider{extractFunc: func(context.Context, string) ([]core.Extraction, error) {
		return nil, errors.New("provider exploded")
	}}
	svc := newTestService(provider)

	results := []core.AgentResult{{Agent: "analytics", Content: "Revenue was $500", Success: true}}
	err := svc.CompressTurn(context.Background(), "t1", nil, results)
	require.NoError(t, err, "extraction failure must never propagate")

	st, ok := svc.Snapshot("t1")
	require.True(t, ok)
	require.Len(t, st.AgentResults["analytics"], 1)
	assert.Equal(t, "Revenue was $500", st.AgentResults["analytics"][0].Summary)
	assert.Equal(t, 0, st.Count, "fallback path writes no extractions")
}

func TestCompressTurn_FallbackSummaryClamped(t *testing.T) {
	provider := &mockProvider{extractFunc: func(context.Context, string) ([]core.Extraction, error) {
		return nil, errors.New("timeout")
	}}
	svc := newTestService(provider)

	big := strings.Repeat("r", 900)
	require.NoError(t, svc.CompressTurn(context.Background(), "t1", nil, []core.AgentResult{{Agent: "bulk", Content: big, Success: true}}))

	st, _ := svc.Snapshot("t1")
	require.Len(t, st.AgentResults["bulk"], 1)
	assert.LessOrEqual(t, len(st.AgentResults["bulk"][0].Summary), fallbackSummaryLimit)
}

func TestCompressTurn_FailureWithoutResultsWritesNothing(t *testing.T) {
	provider := &mockProvider{extractFunc: func(context.Context, string) ([]core.Extraction, error) {
		return nil, errors.New("boom")
	}}
	svc := newTestService(provider)

	require.NoError(t, svc.CompressTurn(context.Background(), "t1", []core.Message{{Role: core.RoleUser, Content: "hi"}}, nil))

	st, _ := svc.Snapshot("t1")
	assert.Equal(t, 0, st.Count)
	assert.Empty(t, st.AgentResults)
}

func TestCompressTurn_CancellationLeavesStoreUntouched(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	provider := &mockProvider{extractFunc: func(ctx context.Context, _ string) ([]core.Extraction, error) {
		cancel()
		return nil, ctx.Err()
	}}
	svc := newTestService(provider)

	results := []core.AgentResult{{Agent: "analytics", Content: "should not be written", Success: true}}
	err := svc.CompressTurn(ctx, "t1", nil, results)
	assert.ErrorIs(t, err, context.Canceled)

	st, _ := svc.Snapshot("t1")
	assert.Equal(t, 0, st.Count)
	assert.Empty(t, st.AgentResults, "cancellation must not take the fallback path")
}

func TestCompressTurn_MalformedTuplesSkipped(t *testing.T) {
	provider := &mockProvider{extractFunc: fixed(
		ex("", "classless"),
		ex("decision", ""),
		ex("decision", "keep the legacy skus"),
	)}
	svc := newTestService(provider)

	require.NoError(t, svc.CompressTurn(context.Background(), "t1", nil, nil))

	st, _ := svc.Snapshot("t1")
	assert.Equal(t, 1, st.Count)
	assert.Equal(t, []string{"decision"}, st.KnownClasses)
	countInvariantHolds(t, st)
}

func TestCompressTurn_InvalidProductIDDoesNotAbortTurn(t *testing.T) {
	provider := &mockProvider{extractFunc: fixed(
		ex("product", "hallucinated gid://shopify/Product/12", "title", "Ghost"),
		ex("product", "real gid://shopify/Product/7923456789", "title", "X"),
		ex("user_intent", "audit the catalog"),
	)}
	svc := newTestService(provider)

	require.NoError(t, svc.CompressTurn(context.Background(), "t1", nil, nil))

	st, _ := svc.Snapshot("t1")
	assert.NotContains(t, st.Products, "gid://shopify/Product/12")
	assert.Contains(t, st.Products, "gid://shopify/Product/7923456789")
	assert.Equal(t, []string{"audit the catalog"}, st.Goals)
	// The rejected record still sits in the raw audit log.
	assert.Equal(t, 3, st.Count)
}

func TestCompressTurn_RetentionAcrossTurns(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider)

	// 25 operation-class extractions over 5 turns.
	for turn := 0; turn < 5; turn++ {
		var batch []core.Extraction
		for i := 0; i < 5; i++ {
			batch = append(batch, ex("operation", fmt.Sprintf("op-%d", turn*5+i)))
		}
		provider.extractFunc = fixed(batch...)
		require.NoError(t, svc.CompressTurn(context.Background(), "t1", nil, nil))
	}

	st, _ := svc.Snapshot("t1")
	require.Len(t, st.Operations, maxOperations)
	// The 20 most recent survive in original relative order: first is the 6th appended.
	assert.Equal(t, "op-5", st.Operations[0].Details)
	assert.Equal(t, "op-24", st.Operations[maxOperations-1].Details)
	// Raw extraction history is never pruned.
	assert.Equal(t, 25, st.Count)
}

func TestCompressTurn_EndToEndProductMerge(t *testing.T) {
	provider := &mockProvider{}
	svc := newTestService(provider)

	provider.extractFunc = fixed(
		ex("product", "Found product gid://shopify/Product/7923456789 - X (SKU: ABC)", "title", "X", "sku", "ABC"),
	)
	require.NoError(t, svc.CompressTurn(context.Background(), "t1",
		nil, []core.AgentResult{{Agent: "catalog", Content: "Found product gid://shopify/Product/7923456789 - X (SKU: ABC)", Success: true}}))

	provider.extractFunc = fixed(
		ex("product_details", "X is priced at $9,500.00 with 6 in stock", "title", "X", "price", "$9,500.00", "inventory", "6"),
	)
	require.NoError(t, svc.CompressTurn(context.Background(), "t1", nil, nil))

	st, _ := svc.Snapshot("t1")
	require.Len(t, st.Products, 1)
	p := st.Products["gid://shopify/Product/7923456789"]
	require.NotNil(t, p)
	assert.Equal(t, "X", p.Title)
	assert.Equal(t, "ABC", p.SKU)
	assert.Equal(t, "$9,500.00", p.Price)
	assert.Equal(t, "6", p.Inventory)
}

func TestCompressTurn_RenderSeesWholeTurnsOnly(t *testing.T) {
	release := make(chan struct{})
	provider := &mockProvider{extractFunc: func(context.Context, string) ([]core.Extraction, error) {
		<-release
		return []core.Extraction{ex("decision", "slow decision")}, nil
	}}
	svc := newTestService(provider)

	done := make(chan error, 1)
	go func() {
		done <- svc.CompressTurn(context.Background(), "t1", nil, nil)
	}()

	// While the extraction call is in flight the render must see the pre-turn
	// (empty) store, not a partial one.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, "", svc.Render("t1", 100))

	close(release)
	require.NoError(t, <-done)

	assert.Contains(t, svc.Render("t1", 100), "slow decision")
}

func TestFormatTurn_EmptyInputs(t *testing.T) {
	assert.Equal(t, "", formatTurn(nil, nil))
}

func TestClampTokens(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 100)
	clamped := clampTokens(text, 50)
	assert.Less(t, len(clamped), len(text))
	assert.Equal(t, text, clampTokens(text, 0), "zero cap disables clamping")
}
