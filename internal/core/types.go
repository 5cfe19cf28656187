package core

const (
	ShopMindName          = "ShopMind"
	ShopMindUserAgent     = "ShopMind-Agent/0.1"
	ShopMindRepositoryURL = "https://github.com/sandevgo/shopmind"
	ShopMindVersion       = "0.1.0"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AgentResult is the outcome of one delegated agent or tool invocation within
// a turn, as reported back by the orchestrator.
type AgentResult struct {
	Agent   string `json:"agent"`
	Content string `json:"content"`
	Success bool   `json:"success"`
}

// Attr is a single extraction attribute. Attributes keep the order the
// extraction service emitted them in, which a Go map would destroy.
type Attr struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Attrs []Attr

func (a Attrs) Get(key string) string {
	for _, kv := range a {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

func (a Attrs) Has(key string) bool {
	for _, kv := range a {
		if kv.Key == key {
			return true
		}
	}
	return false
}

// SourceSpan is the character range in the turn text an extraction was
// derived from.
type SourceSpan struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Extraction is one raw tuple returned by the extraction service. Nothing is
// trusted about it until the store has validated it.
type Extraction struct {
	Class string      `json:"class"`
	Text  string      `json:"text"`
	Attrs Attrs       `json:"attributes,omitempty"`
	Span  *SourceSpan `json:"span,omitempty"`
}
