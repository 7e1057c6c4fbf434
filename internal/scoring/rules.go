package scoring

import "lead-scoring/backend/internal/model"

// MaxRuleScore is the highest rule score a lead can reach.
const MaxRuleScore = roleDecisionMakerScore + industryExactScore + completenessScore

// Evaluate runs all rule evaluators for a lead against the active offer.
func Evaluate(lead model.Lead, offer model.Offer) model.RuleBreakdown {
	return model.RuleBreakdown{
		Role:         RoleRelevance(lead.Get(model.FieldRole)),
		Industry:     IndustryMatch(lead.Get(model.FieldIndustry), offer.IdealUseCases),
		Completeness: Completeness(lead),
	}
}
