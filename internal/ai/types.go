package ai

import (
	"context"
	"errors"

	"lead-scoring/backend/internal/model"
)

// Classifier labels a lead's buying intent. Implementations never fail: every
// problem is folded into the returned Result.
type Classifier interface {
	Enabled() bool
	Classify(ctx context.Context, offer model.Offer, lead model.Lead, ruleScore int) Result
}

// Outcome tags how a Result was produced.
type Outcome string

const (
	OutcomeParsed         Outcome = "parsed"
	OutcomeMalformed      Outcome = "malformed"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeRuleBased      Outcome = "rule_based"
)

// Result is the classifier's verdict for one lead.
type Result struct {
	Intent    model.Intent `json:"intent_label"`
	Reasoning string       `json:"reasoning"`
	Outcome   Outcome      `json:"-"`
}

// Fallback reports whether the result is a degraded answer rather than a
// parsed model reply.
func (r Result) Fallback() bool {
	return r.Outcome == OutcomeMalformed || r.Outcome == OutcomeTransportError
}

var ErrDisabled = errors.New("ai classifier disabled")
