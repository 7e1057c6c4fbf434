package ai

import (
	"fmt"
	"sort"
	"strings"

	"lead-scoring/backend/internal/model"
	"lead-scoring/backend/internal/scoring"
)

func buildPrompt(offer model.Offer, lead model.Lead, ruleScore int) string {
	builder := &strings.Builder{}
	builder.WriteString("You are a B2B sales analyst judging how likely a prospect is to buy.\n\n")

	builder.WriteString("Product/offer:\n")
	fmt.Fprintf(builder, "- Name: %s\n", strings.TrimSpace(offer.Name))
	fmt.Fprintf(builder, "- Value propositions: %s\n", joinOrNone(offer.ValueProps))
	fmt.Fprintf(builder, "- Ideal use cases / customer profiles: %s\n\n", joinOrNone(offer.IdealUseCases))

	builder.WriteString("Prospect:\n")
	for _, field := range leadFieldOrder(lead) {
		value := strings.TrimSpace(lead[field])
		if value == "" {
			value = "(not provided)"
		}
		fmt.Fprintf(builder, "- %s: %s\n", field, value)
	}
	builder.WriteString("\n")

	fmt.Fprintf(builder, "Rule-based score: %d out of %d (role seniority, industry fit and profile completeness).\n\n", ruleScore, scoring.MaxRuleScore)

	builder.WriteString("Classify the prospect's buying intent for this offer as High, Medium, or Low.\n")
	builder.WriteString("Respond with only a JSON object with exactly two fields:\n")
	builder.WriteString(`{"intent_label": "High" | "Medium" | "Low", "reasoning": "one or two short sentences"}`)
	builder.WriteString("\n")
	return builder.String()
}

// leadFieldOrder lists the conventional columns first, then any extra CSV
// columns alphabetically so prompts are stable across runs.
func leadFieldOrder(lead model.Lead) []string {
	fields := append([]string(nil), model.RequiredFields...)
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}
	var extra []string
	for key := range lead {
		if _, ok := known[key]; ok || strings.TrimSpace(key) == "" {
			continue
		}
		extra = append(extra, key)
	}
	sort.Strings(extra)
	return append(fields, extra...)
}

func joinOrNone(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return "none"
	}
	return strings.Join(cleaned, "; ")
}
