package extraction

import (
	"fmt"
	"strings"

	"github.com/buger/jsonparser"
	"github.com/sandevgo/shopmind/internal/core"
)

// parseExtractions pulls the JSON array out of the model response and decodes
// it defensively: tuples without a class or text are dropped, attribute values
// are coerced to strings, and attribute order is preserved (encoding/json maps
// would shuffle it).
func parseExtractions(content string) ([]core.Extraction, error) {
	jsonStr := extractJSONArray(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var out []core.Extraction
	_, err := jsonparser.ArrayEach([]byte(jsonStr), func(value []byte, dataType jsonparser.ValueType, offset int, _ error) {
		if dataType != jsonparser.Object {
			return
		}
		if ex, ok := parseTuple(value); ok {
			out = append(out, ex)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("parse extractions: %w", err)
	}
	return out, nil
}

func parseTuple(value []byte) (core.Extraction, bool) {
	class, _ := jsonparser.GetString(value, "class")
	if class == "" {
		// Some models answer with the python-style field name.
		class, _ = jsonparser.GetString(value, "class_name")
	}
	text, _ := jsonparser.GetString(value, "text")
	if class == "" || text == "" {
		return core.Extraction{}, false
	}

	ex := core.Extraction{Class: class, Text: text}

	if attrsRaw, _, _, err := jsonparser.Get(value, "attributes"); err == nil {
		ex.Attrs = parseAttrs(attrsRaw)
	}

	if start, err := jsonparser.GetInt(value, "span", "[0]"); err == nil {
		if end, err := jsonparser.GetInt(value, "span", "[1]"); err == nil && end >= start {
			ex.Span = &core.SourceSpan{Start: int(start), End: int(end)}
		}
	}

	return ex, true
}

func parseAttrs(raw []byte) core.Attrs {
	var attrs core.Attrs
	_ = jsonparser.ObjectEach(raw, func(key, value []byte, dataType jsonparser.ValueType, _ int) error {
		v := string(value)
		switch dataType {
		case jsonparser.String:
			if s, err := jsonparser.ParseString(value); err == nil {
				v = s
			}
		case jsonparser.Null:
			v = ""
		}
		attrs = append(attrs, core.Attr{Key: string(key), Value: v})
		return nil
	})
	return attrs
}

func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content[start:], "]")
	if end == -1 {
		return ""
	}

	return content[start : start+end+1]
}
