package scoring

import "lead-scoring/backend/internal/model"

const completenessScore = 10

// Completeness awards 10 points only when every required field is filled.
func Completeness(lead model.Lead) int {
	for _, field := range model.RequiredFields {
		if !lead.Has(field) {
			return 0
		}
	}
	return completenessScore
}
