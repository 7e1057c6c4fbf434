package scoring

import "strings"

const (
	industryExactScore   = 20
	industryPartialScore = 10
)

// IndustryMatch compares a lead's industry with the offer's ideal customer
// profiles. An exact match anywhere in the list beats a containment match,
// regardless of list order.
func IndustryMatch(industry string, icps []string) int {
	target := normalizeTerm(industry)
	if target == "" {
		return 0
	}

	normalized := make([]string, 0, len(icps))
	for _, icp := range icps {
		if icp = normalizeTerm(icp); icp != "" {
			normalized = append(normalized, icp)
		}
	}

	for _, icp := range normalized {
		if icp == target {
			return industryExactScore
		}
	}
	for _, icp := range normalized {
		if strings.Contains(icp, target) || strings.Contains(target, icp) {
			return industryPartialScore
		}
	}
	return 0
}

func normalizeTerm(term string) string {
	return strings.ToLower(strings.TrimSpace(term))
}
