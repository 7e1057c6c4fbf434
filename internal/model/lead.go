package model

import "strings"

// Offer describes the product being pitched. IdealUseCases doubles as the
// list of ideal customer profiles matched against a lead's industry.
type Offer struct {
	Name          string   `json:"name" binding:"required"`
	ValueProps    []string `json:"value_props" binding:"required"`
	IdealUseCases []string `json:"ideal_use_cases" binding:"required"`
}

// Clone returns a deep copy of the offer.
func (o Offer) Clone() Offer {
	return Offer{
		Name:          o.Name,
		ValueProps:    append([]string(nil), o.ValueProps...),
		IdealUseCases: append([]string(nil), o.IdealUseCases...),
	}
}

// Conventional lead columns. None of them is enforced at upload time.
const (
	FieldName        = "name"
	FieldRole        = "role"
	FieldCompany     = "company"
	FieldIndustry    = "industry"
	FieldLocation    = "location"
	FieldLinkedInBio = "linkedin_bio"
)

// RequiredFields lists the columns a lead must fill to earn completeness credit.
var RequiredFields = []string{
	FieldName,
	FieldRole,
	FieldCompany,
	FieldIndustry,
	FieldLocation,
	FieldLinkedInBio,
}

// Lead is one uploaded CSV row keyed by header.
type Lead map[string]string

// Get returns the value stored under key, or "" when absent.
func (l Lead) Get(key string) string {
	if l == nil {
		return ""
	}
	return l[key]
}

// Has reports whether key is present with a non-blank value.
func (l Lead) Has(key string) bool {
	return strings.TrimSpace(l.Get(key)) != ""
}

// Clone returns a copy of the lead map.
func (l Lead) Clone() Lead {
	if l == nil {
		return nil
	}
	out := make(Lead, len(l))
	for k, v := range l {
		out[k] = v
	}
	return out
}

// Intent is the classifier's buying-intent label.
type Intent string

const (
	IntentHigh   Intent = "High"
	IntentMedium Intent = "Medium"
	IntentLow    Intent = "Low"
)

// ParseIntent maps a label onto a known intent ignoring case and surrounding
// whitespace. The boolean is false for anything else.
func ParseIntent(label string) (Intent, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "high":
		return IntentHigh, true
	case "medium":
		return IntentMedium, true
	case "low":
		return IntentLow, true
	default:
		return "", false
	}
}

// RuleBreakdown holds the three deterministic sub-scores.
type RuleBreakdown struct {
	Role         int `json:"role"`
	Industry     int `json:"industry"`
	Completeness int `json:"completeness"`
}

// Total is the rule score, the plain sum of the sub-scores.
func (b RuleBreakdown) Total() int {
	return b.Role + b.Industry + b.Completeness
}

// LeadScoreResult is the per-lead output of a scoring run.
type LeadScoreResult struct {
	Name          string        `json:"name"`
	Role          string        `json:"role"`
	Company       string        `json:"company"`
	Industry      string        `json:"industry"`
	Score         int           `json:"score"`
	RuleBreakdown RuleBreakdown `json:"rule_breakdown"`
	AIIntent      Intent        `json:"ai_intent"`
	AIReasoning   string        `json:"ai_reasoning"`
}
