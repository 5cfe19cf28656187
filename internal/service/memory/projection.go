package memory

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sandevgo/shopmind/internal/core"
)

// The extraction taxonomy is open: the service may invent class names beyond
// the ones listed here. Known classes get richer views; everything else falls
// through to the operations log so no extraction is ever lost.

var productGIDPattern = regexp.MustCompile(`gid://shopify/Product/(\d+)`)

// Canonical ids with a numeric suffix of 3 digits or fewer are treated as
// hallucinated and rejected.
const minProductIDDigits = 4

var ErrInvalidProductID = errors.New("product id failed digit-length guard")

type projector func(s *Store, rec Record) error

type projectorRule struct {
	match func(class string) bool
	fn    projector
}

var projectorTable = []projectorRule{
	{classPrefix("product"), projectProduct},
	{classOneOf("pricing", "inventory"), projectPricing},
	{classIs("operation"), projectOperation},
	{classIs("user_intent"), projectGoal},
	{classIs("agent_result"), projectAgentResult},
	{classIs("decision"), projectDecision},
	{classIs("search"), projectSearch},
	{classIs("email"), projectEmail},
	{classIs("reference"), projectReference},
}

func classIs(name string) func(string) bool {
	return func(class string) bool { return class == name }
}

func classPrefix(prefix string) func(string) bool {
	return func(class string) bool { return strings.HasPrefix(class, prefix) }
}

func classOneOf(names ...string) func(string) bool {
	return func(class string) bool {
		for _, n := range names {
			if class == n {
				return true
			}
		}
		return false
	}
}

// project folds one admitted record into the derived views. The first matching
// rule wins; unknown classes land in the operations log verbatim.
func (s *Store) project(rec Record) error {
	for _, rule := range projectorTable {
		if rule.match(rec.Class) {
			return rule.fn(s, rec)
		}
	}
	s.appendOperation(OperationEntry{
		Type:      rec.Class,
		Details:   rec.Text,
		Attrs:     rec.Attrs,
		Timestamp: rec.Timestamp,
	})
	return nil
}

func projectProduct(s *Store, rec Record) error {
	id, err := s.productKey(rec)
	if err != nil {
		return err
	}
	s.mergeProduct(id, rec)
	return nil
}

// productKey resolves the merge key for a product-class record: the canonical
// GID when the text carries one, a synthetic variant key, an existing product
// matched by title, or a slug of the title as a last resort.
func (s *Store) productKey(rec Record) (string, error) {
	if m := productGIDPattern.FindStringSubmatch(rec.Text); m != nil {
		if len(m[1]) < minProductIDDigits {
			return "", fmt.Errorf("%w: %s", ErrInvalidProductID, m[0])
		}
		return m[0], nil
	}

	if vid := rec.Attrs.Get("variant_id"); vid != "" {
		return "variant:" + vid, nil
	}

	title := rec.Attrs.Get("title")
	if title == "" {
		title = rec.Text
	}
	if existing := s.findProductByTitle(title); existing != "" {
		return existing, nil
	}
	return "title:" + slugify(truncate(title, 40)), nil
}

func (s *Store) findProductByTitle(title string) string {
	for id, p := range s.Products {
		if p.Title != "" && p.Title == title {
			return id
		}
	}
	return ""
}

// mergeProduct folds record attributes into the product entry. Only non-empty
// incoming values may overwrite; an absent field never erases what a previous
// turn established.
func (s *Store) mergeProduct(id string, rec Record) {
	p := s.Products[id]
	if p == nil {
		p = &ProductRecord{ID: id, FirstSeen: rec.Timestamp}
		s.Products[id] = p
	}

	setNonEmpty(&p.Title, rec.Attrs.Get("title"))
	setNonEmpty(&p.SKU, rec.Attrs.Get("sku"))
	setNonEmpty(&p.Price, rec.Attrs.Get("price"))
	setNonEmpty(&p.CompareAtPrice, rec.Attrs.Get("compare_at_price"))
	setNonEmpty(&p.Inventory, rec.Attrs.Get("inventory"))
	setNonEmpty(&p.VariantID, rec.Attrs.Get("variant_id"))
	setNonEmpty(&p.Status, rec.Attrs.Get("status"))
	setNonEmpty(&p.Handle, rec.Attrs.Get("handle"))
	p.UpdatedAt = rec.Timestamp
}

// projectPricing updates price/inventory fields of a product matched by title.
// It must never create a product record on its own.
func projectPricing(s *Store, rec Record) error {
	title := rec.Attrs.Get("product")
	if title == "" {
		return nil
	}

	id := s.findProductByTitle(title)
	if id == "" {
		return nil
	}

	p := s.Products[id]
	setNonEmpty(&p.Price, rec.Attrs.Get("price"))
	setNonEmpty(&p.CompareAtPrice, rec.Attrs.Get("compare_at_price"))
	setNonEmpty(&p.Inventory, rec.Attrs.Get("inventory"))
	p.UpdatedAt = rec.Timestamp
	return nil
}

func projectOperation(s *Store, rec Record) error {
	opType := rec.Attrs.Get("type")
	if opType == "" {
		opType = "operation"
	}
	s.appendOperation(OperationEntry{
		Type:      opType,
		Details:   rec.Text,
		Attrs:     rec.Attrs,
		Timestamp: rec.Timestamp,
	})
	return nil
}

func projectGoal(s *Store, rec Record) error {
	s.appendGoal(rec.Text)
	return nil
}

func projectAgentResult(s *Store, rec Record) error {
	s.appendAgentResult(rec.Attrs.Get("agent"), AgentResultEntry{
		Summary:   truncate(rec.Text, fallbackSummaryLimit),
		Success:   attrBool(rec.Attrs, "success"),
		Timestamp: rec.Timestamp,
	})
	return nil
}

func projectDecision(s *Store, rec Record) error {
	s.appendDecision(NoteEntry{Text: rec.Text, Attrs: rec.Attrs, Timestamp: rec.Timestamp})
	return nil
}

func projectSearch(s *Store, rec Record) error {
	s.appendSearch(NoteEntry{Text: rec.Text, Attrs: rec.Attrs, Timestamp: rec.Timestamp})
	return nil
}

func projectEmail(s *Store, rec Record) error {
	s.appendOperation(OperationEntry{
		Type:      "email",
		Details:   rec.Text,
		Attrs:     rec.Attrs,
		Timestamp: rec.Timestamp,
	})
	return nil
}

func projectReference(s *Store, rec Record) error {
	s.appendDecision(NoteEntry{Text: rec.Text, Attrs: rec.Attrs, Timestamp: rec.Timestamp})
	return nil
}

func attrBool(attrs core.Attrs, key string) bool {
	switch strings.ToLower(attrs.Get(key)) {
	case "false", "0", "no":
		return false
	}
	return true
}

func setNonEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(text string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(text), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "unknown"
	}
	return slug
}
