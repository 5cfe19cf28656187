package extraction

import "fmt"

const systemPrompt = "You are an information extraction system for an e-commerce operations assistant. Output only valid JSON."

// The taxonomy is open on purpose: the examples anchor the known classes, but
// the model may introduce new class names when none of them fit.
const fewShotExamples = `Examples:

Input:
user: create a product called Leather Wallet for $49
assistant: Created gid://shopify/Product/8841290131 - Leather Wallet

Output:
[
  {"class": "product", "text": "Created gid://shopify/Product/8841290131 - Leather Wallet", "attributes": {"title": "Leather Wallet", "price": "49"}, "span": [35, 88]},
  {"class": "user_intent", "text": "create a product called Leather Wallet for $49", "attributes": {}}
]

Input:
user: put everything from the summer collection on sale, 20% off
assistant: Done, 14 products discounted.

Output:
[
  {"class": "pricing", "text": "summer collection discounted 20%", "attributes": {"discount": "20%", "scope": "summer collection"}},
  {"class": "operation", "text": "14 products discounted", "attributes": {"type": "bulk_discount", "count": "14"}}
]

Input:
Agent Results:
analytics: Revenue last week was $12,400 across 87 orders

Output:
[
  {"class": "agent_result", "text": "Revenue last week was $12,400 across 87 orders", "attributes": {"agent": "analytics", "success": "true"}}
]`

func buildExtractionPrompt(text string) string {
	return fmt.Sprintf(
		`Extract every durable fact from the conversation delta below: products and their identifiers, pricing and inventory changes, operations performed, user goals, agent results, decisions, searches, emails and references. Assign each fact a class name; invent a new class when none of the known ones fit. Output format: JSON array of objects {class, text, attributes, span?} where attributes is a flat object of strings and span is the [start, end] character range in the input the fact was taken from. Return [] when there is nothing durable.

%s

Conversation delta:
%s`,
		fewShotExamples,
		text,
	)
}
