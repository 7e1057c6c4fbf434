package scoring

import "strings"

const (
	roleDecisionMakerScore = 20
	roleInfluencerScore    = 10
)

// Keywords are matched as substrings of the lower-cased title, so "lead"
// also fires on "leadership". Order matters only for which term is reported.
var (
	decisionMakerTerms = []string{"head", "vp", "director", "chief", "cto", "ceo", "founder", "owner", "manager"}
	influencerTerms    = []string{"lead", "senior", "principal", "engineer", "architect", "analyst", "specialist", "advisor"}
)

// RoleRelevance scores a job title: 20 for decision makers, 10 for
// influencers and 0 otherwise.
func RoleRelevance(role string) int {
	score, _ := matchRole(role)
	return score
}

// matchRole returns the score along with the keyword that produced it.
func matchRole(role string) (int, string) {
	normalized := strings.ToLower(strings.TrimSpace(role))
	if normalized == "" {
		return 0, ""
	}
	for _, term := range decisionMakerTerms {
		if strings.Contains(normalized, term) {
			return roleDecisionMakerScore, term
		}
	}
	for _, term := range influencerTerms {
		if strings.Contains(normalized, term) {
			return roleInfluencerScore, term
		}
	}
	return 0, ""
}
