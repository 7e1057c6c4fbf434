package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"lead-scoring/backend/internal/model"
)

type stubClassifier struct {
	enabled bool
	result  Result
	calls   int
}

func (s *stubClassifier) Enabled() bool { return s.enabled }

func (s *stubClassifier) Classify(context.Context, model.Offer, model.Lead, int) Result {
	s.calls++
	return s.result
}

func TestWithFallback(t *testing.T) {
	primary := &stubClassifier{enabled: true, result: Result{Intent: model.IntentLow, Outcome: OutcomeTransportError}}
	fallback := &stubClassifier{enabled: true, result: Result{Intent: model.IntentHigh}}

	chain := WithFallback(primary, fallback)
	result := chain.Classify(context.Background(), model.Offer{}, model.Lead{}, 50)
	assert.Equal(t, model.IntentLow, result.Intent, "degraded primary results are not replaced")
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)

	primary.enabled = false
	result = chain.Classify(context.Background(), model.Offer{}, model.Lead{}, 50)
	assert.Equal(t, model.IntentHigh, result.Intent)
	assert.Equal(t, 1, fallback.calls)

	var nilClient *Client
	assert.Equal(t, Classifier(fallback), WithFallback(nilClient, fallback))
	assert.Equal(t, Classifier(primary), WithFallback(primary, nil))
}

func TestRuleClassifier(t *testing.T) {
	tests := []struct {
		score  int
		intent model.Intent
	}{
		{50, model.IntentHigh},
		{40, model.IntentHigh},
		{30, model.IntentMedium},
		{20, model.IntentMedium},
		{10, model.IntentLow},
		{0, model.IntentLow},
	}
	for _, tc := range tests {
		result := RuleClassifier{}.Classify(context.Background(), model.Offer{}, model.Lead{}, tc.score)
		assert.Equal(t, tc.intent, result.Intent, "score %d", tc.score)
		assert.Equal(t, OutcomeRuleBased, result.Outcome)
		assert.Contains(t, result.Reasoning, "disabled")
	}
}
