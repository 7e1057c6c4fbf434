package store

import (
	"sync"

	"lead-scoring/backend/internal/model"
)

// Memory keeps offer, leads and results in process memory. Reads return copies.
type Memory struct {
	mu      sync.RWMutex
	offer   *model.Offer
	leads   []model.Lead
	results []model.LeadScoreResult
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Offer() (*model.Offer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.offer == nil {
		return nil, nil
	}
	offer := m.offer.Clone()
	return &offer, nil
}

func (m *Memory) SetOffer(offer model.Offer) error {
	offer = offer.Clone()
	m.mu.Lock()
	m.offer = &offer
	m.mu.Unlock()
	return nil
}

func (m *Memory) AppendLeads(leads []model.Lead) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, lead := range leads {
		if lead == nil {
			lead = model.Lead{}
		}
		m.leads = append(m.leads, lead.Clone())
	}
	return len(m.leads), nil
}

func (m *Memory) Leads() ([]model.Lead, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.Lead, len(m.leads))
	for i, lead := range m.leads {
		out[i] = lead.Clone()
	}
	return out, nil
}

func (m *Memory) ReplaceResults(results []model.LeadScoreResult) error {
	replacement := append([]model.LeadScoreResult(nil), results...)
	m.mu.Lock()
	m.results = replacement
	m.mu.Unlock()
	return nil
}

func (m *Memory) Results() ([]model.LeadScoreResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.LeadScoreResult{}, m.results...), nil
}
