package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"lead-scoring/backend/internal/ai"
	"lead-scoring/backend/internal/model"
	"lead-scoring/backend/internal/scoring"
	"lead-scoring/backend/internal/util"
)

var (
	ErrMissingOffer  = errors.New("no offer submitted; post an offer before scoring")
	ErrNoLeads       = errors.New("no leads uploaded; upload a leads CSV before scoring")
	ErrRunInProgress = errors.New("a scoring run is already in progress")
)

// Store is the state the scorer reads from and writes to.
type Store interface {
	Offer() (*model.Offer, error)
	SetOffer(offer model.Offer) error
	AppendLeads(leads []model.Lead) (int, error)
	Leads() ([]model.Lead, error)
	ReplaceResults(results []model.LeadScoreResult) error
	Results() ([]model.LeadScoreResult, error)
}

// Progress is reported after each lead is scored.
type Progress struct {
	RunID     string
	Index     int
	Processed int
	Total     int
	Result    model.LeadScoreResult
}

// Observer receives run lifecycle notifications. All methods may be called
// from multiple goroutines when concurrency is above one.
type Observer interface {
	RunStarted(runID string, total int)
	LeadScored(p Progress)
	RunCompleted(summary Summary)
}

// Summary describes a finished run.
type Summary struct {
	RunID       string        `json:"run_id"`
	Count       int           `json:"count"`
	Fallbacks   int           `json:"fallbacks"`
	Duration    time.Duration `json:"-"`
	CompletedAt time.Time     `json:"completed_at"`
}

// Scorer runs rule evaluation and intent classification over the stored leads.
type Scorer struct {
	store       Store
	classifier  ai.Classifier
	concurrency int
	observer    Observer
	running     sync.Mutex
}

// Option customises a Scorer.
type Option func(*Scorer)

// WithConcurrency bounds how many classifier calls run at once.
func WithConcurrency(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(s *Scorer) { s.observer = o }
}

// NewScorer constructs a Scorer.
func NewScorer(store Store, classifier ai.Classifier, opts ...Option) *Scorer {
	s := &Scorer{store: store, classifier: classifier, concurrency: 1}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scores every stored lead against the active offer and replaces the
// stored results. Only the precondition errors and store failures are
// returned; classifier problems are folded into the per-lead results.
// Runs are not interrupted by ctx cancellation.
func (s *Scorer) Run(ctx context.Context) (Summary, error) {
	if !s.running.TryLock() {
		return Summary{}, ErrRunInProgress
	}
	defer s.running.Unlock()

	offer, err := s.store.Offer()
	if err != nil {
		return Summary{}, fmt.Errorf("load offer: %w", err)
	}
	if offer == nil {
		return Summary{}, ErrMissingOffer
	}
	leads, err := s.store.Leads()
	if err != nil {
		return Summary{}, fmt.Errorf("load leads: %w", err)
	}
	if len(leads) == 0 {
		return Summary{}, ErrNoLeads
	}

	ctx = context.WithoutCancel(ctx)
	runID := uuid.NewString()
	timer := util.StartTimer()
	log := logrus.WithFields(logrus.Fields{
		"run_id":      runID,
		"leads":       len(leads),
		"concurrency": s.concurrency,
	})
	log.Info("scoring run started")
	if s.observer != nil {
		s.observer.RunStarted(runID, len(leads))
	}

	results := make([]model.LeadScoreResult, len(leads))
	var (
		mu        sync.Mutex
		processed int
		fallbacks int
	)

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)
	for i, lead := range leads {
		g.Go(func() error {
			result, classified := s.scoreLead(ctx, *offer, lead)
			results[i] = result

			mu.Lock()
			processed++
			if classified.Fallback() {
				fallbacks++
			}
			progress := Progress{RunID: runID, Index: i, Processed: processed, Total: len(leads), Result: result}
			mu.Unlock()

			if s.observer != nil {
				s.observer.LeadScored(progress)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := s.store.ReplaceResults(results); err != nil {
		return Summary{}, fmt.Errorf("store results: %w", err)
	}

	summary := Summary{
		RunID:       runID,
		Count:       len(results),
		Fallbacks:   fallbacks,
		Duration:    timer.Elapsed(),
		CompletedAt: time.Now().UTC(),
	}
	log.WithFields(logrus.Fields{
		"scored":    summary.Count,
		"fallbacks": summary.Fallbacks,
		"duration":  summary.Duration,
	}).Info("scoring run completed")
	if s.observer != nil {
		s.observer.RunCompleted(summary)
	}
	return summary, nil
}

func (s *Scorer) scoreLead(ctx context.Context, offer model.Offer, lead model.Lead) (model.LeadScoreResult, ai.Result) {
	breakdown := scoring.Evaluate(lead, offer)
	ruleScore := breakdown.Total()
	classified := s.classifier.Classify(ctx, offer, lead, ruleScore)

	return model.LeadScoreResult{
		Name:          lead.Get(model.FieldName),
		Role:          lead.Get(model.FieldRole),
		Company:       lead.Get(model.FieldCompany),
		Industry:      lead.Get(model.FieldIndustry),
		Score:         ruleScore,
		RuleBreakdown: breakdown,
		AIIntent:      classified.Intent,
		AIReasoning:   classified.Reasoning,
	}, classified
}
