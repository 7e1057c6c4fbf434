package ai

import (
	"context"
	"fmt"

	"lead-scoring/backend/internal/model"
)

type classifierChain struct {
	primary  Classifier
	fallback Classifier
}

// WithFallback returns a classifier that uses the primary implementation
// while it is enabled and the fallback otherwise. Results from an enabled
// primary are returned as is, degraded or not.
func WithFallback(primary, fallback Classifier) Classifier {
	if primary == nil || isNilClient(primary) {
		return fallback
	}
	if fallback == nil {
		return primary
	}
	return &classifierChain{primary: primary, fallback: fallback}
}

func isNilClient(c Classifier) bool {
	client, ok := c.(*Client)
	return ok && client == nil
}

func (c *classifierChain) Enabled() bool {
	if c == nil {
		return false
	}
	return (c.primary != nil && c.primary.Enabled()) || (c.fallback != nil && c.fallback.Enabled())
}

func (c *classifierChain) Classify(ctx context.Context, offer model.Offer, lead model.Lead, ruleScore int) Result {
	if c.primary != nil && c.primary.Enabled() {
		return c.primary.Classify(ctx, offer, lead, ruleScore)
	}
	return c.fallback.Classify(ctx, offer, lead, ruleScore)
}

// RuleClassifier derives intent from the rule score alone. It stands in for
// the model when AI classification is switched off.
type RuleClassifier struct{}

func (RuleClassifier) Enabled() bool { return true }

func (RuleClassifier) Classify(_ context.Context, _ model.Offer, _ model.Lead, ruleScore int) Result {
	intent := model.IntentLow
	switch {
	case ruleScore >= 40:
		intent = model.IntentHigh
	case ruleScore >= 20:
		intent = model.IntentMedium
	}
	return Result{
		Intent:    intent,
		Reasoning: fmt.Sprintf("AI classification disabled; intent derived from rule score %d", ruleScore),
		Outcome:   OutcomeRuleBased,
	}
}
