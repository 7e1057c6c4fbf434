package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"lead-scoring/backend/internal/ai"
	"lead-scoring/backend/internal/config"
	"lead-scoring/backend/internal/ingest"
	"lead-scoring/backend/internal/pipeline"
	"lead-scoring/backend/internal/store"
)

// score runs a single scoring pass over local files without starting the HTTP server.
func main() {
	var (
		offerPath   = flag.String("offer", "offer.json", "Path to offer JSON")
		leadPaths   multiFlag
		outputPath  = flag.String("output", "", "Optional path to write JSON results (stdout when empty)")
		model       = flag.String("model", "", "Override classifier model")
		concurrency = flag.Int("concurrency", 0, "Override classifier concurrency")
		disableAI   = flag.Bool("disable-ai", false, "Derive intent from rule score instead of calling the model")
	)
	flag.Var(&leadPaths, "leads", "Leads CSV file (repeatable)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		logrus.Fatalf("init logger: %v", err)
	}
	if *model != "" {
		cfg.Classifier.Model = *model
	}
	if *concurrency > 0 {
		cfg.Scoring.Concurrency = *concurrency
	}
	if *disableAI {
		cfg.Classifier.Disabled = true
	}
	if len(leadPaths) == 0 {
		logrus.Fatal("at least one -leads file is required")
	}

	st := store.NewMemory()
	if err := loadOffer(st, *offerPath); err != nil {
		logrus.Fatalf("load offer: %v", err)
	}
	for _, path := range leadPaths {
		count, err := loadLeads(st, path)
		if err != nil {
			logrus.Fatalf("load leads %s: %v", path, err)
		}
		logrus.WithFields(logrus.Fields{"file": path, "total": count}).Info("leads loaded")
	}

	classifier, err := buildClassifier(cfg.API().AIConfig)
	if err != nil {
		logrus.Fatalf("classifier: %v", err)
	}

	scorer := pipeline.NewScorer(st, classifier, pipeline.WithConcurrency(cfg.Scoring.Concurrency))
	summary, err := scorer.Run(context.Background())
	if err != nil {
		logrus.Fatalf("score leads: %v", err)
	}
	results, err := st.Results()
	if err != nil {
		logrus.Fatalf("read results: %v", err)
	}

	var out io.Writer = os.Stdout
	if *outputPath != "" {
		f, err := os.Create(filepath.Clean(*outputPath))
		if err != nil {
			logrus.Fatalf("create output: %v", err)
		}
		defer f.Close()
		out = f
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(results); err != nil {
		logrus.Fatalf("write results: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"run_id":    summary.RunID,
		"scored":    summary.Count,
		"fallbacks": summary.Fallbacks,
		"duration":  summary.Duration,
	}).Info("scoring complete")
}

func loadOffer(st *store.Memory, path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()
	offer, err := ingest.DecodeOffer(f)
	if err != nil {
		return err
	}
	return st.SetOffer(offer)
}

func loadLeads(st *store.Memory, path string) (int, error) {
	if !strings.HasSuffix(path, ".csv") {
		return 0, errors.New("file must be a CSV")
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	leads, err := ingest.ParseLeadCSV(f)
	if err != nil {
		return 0, err
	}
	return st.AppendLeads(leads)
}

func buildClassifier(cfg ai.Config) (ai.Classifier, error) {
	client, err := ai.NewClient(cfg)
	if errors.Is(err, ai.ErrDisabled) {
		logrus.Info("AI classifier disabled; using rule-based intent")
		return ai.RuleClassifier{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ai client: %w", err)
	}
	return ai.WithFallback(client, ai.RuleClassifier{}), nil
}

type multiFlag []string

func (m *multiFlag) String() string {
	return strings.Join(*m, ",")
}

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}
