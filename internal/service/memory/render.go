package memory

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	truncationMarker   = "... [truncated]"
	charsPerToken      = 4
	maxRecordsPerClass = 5
	maxRenderedText    = 100
	maxInlineAttrs     = 3
)

// Render projects a thread's store into a token-budgeted string for the next
// prompt. A pure read: never mutates the store, idempotent between writes. An
// unknown thread id is a brand-new conversation and renders empty.
func (s *Service) Render(threadID string, maxTokens int) string {
	th := s.thread(threadID, false)
	if th == nil {
		return ""
	}
	th.storeMu.RLock()
	defer th.storeMu.RUnlock()
	return renderStore(th.store, maxTokens)
}

func renderStore(st *Store, maxTokens int) string {
	if st.Count == 0 {
		return ""
	}

	sections := make([]string, 0, len(st.KnownClasses)+1)
	sections = append(sections, fmt.Sprintf("Context extracted: %d items in %d categories", st.Count, len(st.KnownClasses)))

	for _, class := range st.KnownClasses {
		recs := st.Extractions[class]
		start := len(recs) - maxRecordsPerClass
		if start < 0 {
			start = 0
		}

		var b strings.Builder
		b.WriteString(titleCase(class))
		b.WriteByte(':')
		for _, rec := range recs[start:] {
			b.WriteString("\n- ")
			b.WriteString(truncate(rec.Text, maxRenderedText))

			shown := 0
			for _, kv := range rec.Attrs {
				if kv.Value == "" {
					continue
				}
				if shown == maxInlineAttrs {
					break
				}
				b.WriteByte(' ')
				b.WriteString(kv.Key)
				b.WriteByte('=')
				b.WriteString(kv.Value)
				shown++
			}
		}
		sections = append(sections, b.String())
	}

	out := strings.Join(sections, "\n\n")

	budget := maxTokens * charsPerToken
	if budget > 0 && len(out) > budget {
		out = out[:budget] + truncationMarker
	}
	return out
}

// titleCase turns a class name like "user_intent" into "User Intent".
func titleCase(class string) string {
	words := strings.FieldsFunc(class, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
