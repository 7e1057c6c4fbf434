package store

import (
	"encoding/json"
	"strings"
	"time"

	"lead-scoring/backend/internal/model"
)

// activeOfferID is the primary key of the single offer row.
const activeOfferID = 1

// OfferRow persists the active offer. Only one row ever exists.
type OfferRow struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"size:512"`
	ValuePropsJSON    string `gorm:"type:text"`
	IdealUseCasesJSON string `gorm:"type:text"`
	UpdatedAt         time.Time
}

// TableName keeps the table name stable.
func (OfferRow) TableName() string { return "offers" }

func offerRowFromModel(offer model.Offer) OfferRow {
	return OfferRow{
		ID:                activeOfferID,
		Name:              offer.Name,
		ValuePropsJSON:    encodeStrings(offer.ValueProps),
		IdealUseCasesJSON: encodeStrings(offer.IdealUseCases),
	}
}

// Model converts the row back into an offer.
func (r OfferRow) Model() model.Offer {
	return model.Offer{
		Name:          r.Name,
		ValueProps:    decodeStrings(r.ValuePropsJSON),
		IdealUseCases: decodeStrings(r.IdealUseCasesJSON),
	}
}

// LeadRow stores one uploaded lead. ID order is upload order.
type LeadRow struct {
	ID         uint   `gorm:"primaryKey"`
	FieldsJSON string `gorm:"type:text"`
	CreatedAt  time.Time
}

func (LeadRow) TableName() string { return "leads" }

// SetFields persists the lead columns as JSON.
func (r *LeadRow) SetFields(lead model.Lead) {
	if lead == nil {
		lead = model.Lead{}
	}
	payload, _ := json.Marshal(lead)
	r.FieldsJSON = string(payload)
}

// Fields returns the stored lead columns.
func (r LeadRow) Fields() model.Lead {
	out := model.Lead{}
	if strings.TrimSpace(r.FieldsJSON) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(r.FieldsJSON), &out); err != nil {
		return model.Lead{}
	}
	return out
}

// ScoreRow is one LeadScoreResult of the latest run. Position preserves lead order.
type ScoreRow struct {
	ID                uint `gorm:"primaryKey"`
	Position          int  `gorm:"index"`
	Name              string
	Role              string
	Company           string
	Industry          string
	Score             int
	RoleScore         int
	IndustryScore     int
	CompletenessScore int
	Intent            string `gorm:"size:16"`
	Reasoning         string `gorm:"type:text"`
	CreatedAt         time.Time
}

func (ScoreRow) TableName() string { return "lead_scores" }

func scoreRowFromModel(position int, r model.LeadScoreResult) ScoreRow {
	return ScoreRow{
		Position:          position,
		Name:              r.Name,
		Role:              r.Role,
		Company:           r.Company,
		Industry:          r.Industry,
		Score:             r.Score,
		RoleScore:         r.RuleBreakdown.Role,
		IndustryScore:     r.RuleBreakdown.Industry,
		CompletenessScore: r.RuleBreakdown.Completeness,
		Intent:            string(r.AIIntent),
		Reasoning:         r.AIReasoning,
	}
}

// Model converts the row back into a result.
func (r ScoreRow) Model() model.LeadScoreResult {
	return model.LeadScoreResult{
		Name:     r.Name,
		Role:     r.Role,
		Company:  r.Company,
		Industry: r.Industry,
		Score:    r.Score,
		RuleBreakdown: model.RuleBreakdown{
			Role:         r.RoleScore,
			Industry:     r.IndustryScore,
			Completeness: r.CompletenessScore,
		},
		AIIntent:    model.Intent(r.Intent),
		AIReasoning: r.Reasoning,
	}
}

func encodeStrings(items []string) string {
	if items == nil {
		return "[]"
	}
	payload, _ := json.Marshal(items)
	return string(payload)
}

func decodeStrings(raw string) []string {
	out := []string{}
	if strings.TrimSpace(raw) == "" {
		return out
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []string{}
	}
	return out
}
