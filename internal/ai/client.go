package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ollama/ollama/api"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"lead-scoring/backend/internal/model"
)

// Config holds settings for the text-generation endpoint.
type Config struct {
	BaseURL           string
	Model             string
	Timeout           time.Duration
	Temperature       float64
	RequestsPerSecond float64
	PreviewLength     int
	Disabled          bool
}

// Client classifies leads through an Ollama-compatible /api/generate endpoint.
type Client struct {
	gen         *api.Client
	model       string
	timeout     time.Duration
	temperature float64
	limiter     *rate.Limiter
	previewLen  int
}

const (
	defaultBaseURL     = "http://localhost:11434"
	defaultModel       = "llama3"
	defaultTimeout     = 5 * time.Minute
	defaultTemperature = 0.2
)

// NewClient constructs a Client. It returns ErrDisabled when classification
// is switched off in configuration.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Disabled {
		return nil, ErrDisabled
	}
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must include scheme and host", cfg.BaseURL)
	}
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = defaultTemperature
	}
	if cfg.PreviewLength <= 0 {
		cfg.PreviewLength = defaultPreviewLength
	}

	client := &Client{
		gen:         api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:       cfg.Model,
		timeout:     cfg.Timeout,
		temperature: temp,
		previewLen:  cfg.PreviewLength,
	}
	if cfg.RequestsPerSecond > 0 {
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return client, nil
}

// Enabled reports whether the client can make outbound calls.
func (c *Client) Enabled() bool {
	return c != nil && c.gen != nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Classify asks the model for an intent label. Transport problems resolve to
// a Low intent and unparseable replies to Medium; neither is retried.
func (c *Client) Classify(ctx context.Context, offer model.Offer, lead model.Lead, ruleScore int) Result {
	if !c.Enabled() {
		return Result{Intent: model.IntentLow, Reasoning: "AI classification error: " + ErrDisabled.Error(), Outcome: OutcomeTransportError}
	}

	log := logrus.WithFields(logrus.Fields{
		"lead":       lead.Get(model.FieldName),
		"company":    lead.Get(model.FieldCompany),
		"rule_score": ruleScore,
	})

	prompt := buildPrompt(offer, lead, ruleScore)
	log.WithFields(logrus.Fields{
		"prompt_length":  utf8.RuneCountInString(prompt),
		"prompt_preview": truncate(prompt, c.previewLen),
	}).Debug("classifier request")

	start := time.Now()
	raw, err := c.generate(ctx, prompt)
	duration := time.Since(start)
	if err != nil {
		log.WithError(err).WithField("duration", duration).Warn("classifier request failed")
		return Result{
			Intent:    model.IntentLow,
			Reasoning: fmt.Sprintf("AI classification error: %v", err),
			Outcome:   OutcomeTransportError,
		}
	}

	result := Decode(raw, c.previewLen)
	entry := log.WithFields(logrus.Fields{
		"duration":         duration,
		"intent":           result.Intent,
		"outcome":          result.Outcome,
		"response_length":  utf8.RuneCountInString(raw),
		"response_preview": truncate(raw, c.previewLen),
	})
	if result.Outcome == OutcomeMalformed {
		entry.Warn("classifier returned malformed output")
	} else {
		entry.Debug("classifier response")
	}
	return result
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	stream := false
	req := &api.GenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  &stream,
		Options: map[string]interface{}{"temperature": c.temperature},
	}

	var (
		builder  strings.Builder
		received bool
	)
	err := c.gen.Generate(ctx, req, func(resp api.GenerateResponse) error {
		received = true
		builder.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		var statusErr api.StatusError
		if errors.As(err, &statusErr) {
			return "", fmt.Errorf("generate status %d: %s", statusErr.StatusCode, statusErr.ErrorMessage)
		}
		return "", fmt.Errorf("generate request: %w", err)
	}
	if !received {
		return "", errors.New("generate request: empty response")
	}
	return builder.String(), nil
}
