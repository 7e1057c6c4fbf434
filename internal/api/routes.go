package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"lead-scoring/backend/internal/ai"
	"lead-scoring/backend/internal/ingest"
	"lead-scoring/backend/internal/model"
	"lead-scoring/backend/internal/pipeline"
	"lead-scoring/backend/internal/store"
	"lead-scoring/backend/internal/util"
)

// Config defines server dependencies.
type Config struct {
	DBPath         string
	SilentDB       bool
	AllowedOrigins []string
	AIConfig       ai.Config
	Concurrency    int
}

// Server wires HTTP handlers with the state store and the scorer.
type Server struct {
	store          pipeline.Store
	storeName      string
	classifier     ai.Classifier
	modelName      string
	scorer         *pipeline.Scorer
	notifier       *ScoringNotifier
	allowedOrigins []string
	concurrency    int
}

// NewServer builds the store and classifier described by cfg and constructs the API server.
func NewServer(cfg Config) (*Server, error) {
	var (
		st        pipeline.Store
		storeName = "memory"
	)
	if path := strings.TrimSpace(cfg.DBPath); path != "" {
		db, err := store.Open(path, cfg.SilentDB)
		if err != nil {
			return nil, err
		}
		st = db
		storeName = "sqlite"
	} else {
		st = store.NewMemory()
	}

	var primary ai.Classifier
	client, err := ai.NewClient(cfg.AIConfig)
	switch {
	case err == nil:
		primary = client
		logrus.WithFields(logrus.Fields{
			"base_url": cfg.AIConfig.BaseURL,
			"model":    client.Model(),
			"timeout":  cfg.AIConfig.Timeout,
		}).Info("AI classifier enabled")
	case errors.Is(err, ai.ErrDisabled):
		logrus.Info("AI classifier disabled via configuration; using rule-based intent")
	default:
		return nil, fmt.Errorf("ai client: %w", err)
	}

	server := New(cfg, st, ai.WithFallback(primary, ai.RuleClassifier{}))
	server.storeName = storeName
	server.modelName = client.Model()
	return server, nil
}

// New constructs a server around an existing store and classifier.
func New(cfg Config, st pipeline.Store, classifier ai.Classifier) *Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	notifier := NewScoringNotifier()
	return &Server{
		store:          st,
		storeName:      "custom",
		classifier:     classifier,
		scorer:         pipeline.NewScorer(st, classifier, pipeline.WithConcurrency(concurrency), pipeline.WithObserver(notifier)),
		notifier:       notifier,
		allowedOrigins: cfg.AllowedOrigins,
		concurrency:    concurrency,
	}
}

// Router configures gin routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	corsCfg := cors.DefaultConfig()
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowCredentials = true
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", s.handleHealth)
	r.GET("/config", s.handleConfig)

	r.POST("/offer", s.handleSubmitOffer)
	r.GET("/offer", s.handleGetOffer)
	r.POST("/leads/upload", s.handleUploadLeads)
	r.GET("/leads", s.handleListLeads)
	r.POST("/score", s.handleScore)
	r.GET("/score/stream", s.handleScoreStream)
	r.GET("/results", s.handleResults)
	r.GET("/results/export.csv", s.handleExportCSV)
	r.GET("/results/export.json", s.handleExportJSON)

	return r
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		timer := util.StartTimer()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": timer.Elapsed(),
		}).Debug("request handled")
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	_, ruleOnly := s.classifier.(ai.RuleClassifier)
	c.JSON(http.StatusOK, ConfigResponse{
		Store:       s.storeName,
		Model:       s.modelName,
		AIEnabled:   s.classifier != nil && s.classifier.Enabled() && !ruleOnly,
		Concurrency: s.concurrency,
	})
}

func (s *Server) handleSubmitOffer(c *gin.Context) {
	var offer model.Offer
	if err := c.ShouldBindJSON(&offer); err != nil {
		s.renderError(c, http.StatusBadRequest, fmt.Errorf("invalid offer: %w", err))
		return
	}
	if err := s.store.SetOffer(offer); err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	logrus.WithFields(logrus.Fields{
		"offer":     offer.Name,
		"use_cases": len(offer.IdealUseCases),
	}).Info("offer stored")
	c.JSON(http.StatusOK, OfferResponse{Status: "ok", Offer: offer})
}

func (s *Server) handleGetOffer(c *gin.Context) {
	offer, err := s.store.Offer()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	if offer == nil {
		s.renderError(c, http.StatusNotFound, errors.New("no offer submitted"))
		return
	}
	c.JSON(http.StatusOK, OfferResponse{Status: "ok", Offer: *offer})
}

func (s *Server) handleUploadLeads(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			s.renderError(c, http.StatusBadRequest, errors.New("file is required"))
		} else {
			s.renderError(c, http.StatusBadRequest, err)
		}
		return
	}
	if !strings.HasSuffix(fileHeader.Filename, ".csv") {
		s.renderError(c, http.StatusBadRequest, errors.New("File must be a CSV"))
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	defer src.Close()

	leads, err := ingest.ParseLeadCSV(src)
	if err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}

	total, err := s.store.AppendLeads(leads)
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	all, err := s.store.Leads()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"file":     fileHeader.Filename,
		"uploaded": len(leads),
		"total":    total,
	}).Info("leads uploaded")
	c.JSON(http.StatusOK, UploadResponse{Status: "ok", Count: total, Leads: all})
}

func (s *Server) handleListLeads(c *gin.Context) {
	leads, err := s.store.Leads()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, LeadsResponse{Count: len(leads), Leads: leads})
}

func (s *Server) handleScore(c *gin.Context) {
	summary, err := s.scorer.Run(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrMissingOffer), errors.Is(err, pipeline.ErrNoLeads):
			s.renderError(c, http.StatusBadRequest, err)
		case errors.Is(err, pipeline.ErrRunInProgress):
			s.renderError(c, http.StatusConflict, err)
		default:
			logrus.WithError(err).Error("scoring run failed")
			s.renderError(c, http.StatusInternalServerError, err)
		}
		return
	}
	c.JSON(http.StatusOK, ScoreResponse{
		Status:     "ok",
		Count:      summary.Count,
		RunID:      summary.RunID,
		Fallbacks:  summary.Fallbacks,
		DurationMs: summary.Duration.Milliseconds(),
	})
}

func (s *Server) handleScoreStream(c *gin.Context) {
	upgrader := websocket.Upgrader{
		HandshakeTimeout:  5 * time.Second,
		EnableCompression: true,
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			for _, allowed := range s.allowedOrigins {
				if strings.EqualFold(origin, allowed) {
					return true
				}
			}
			return false
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("upgrade websocket")
		return
	}

	client := s.notifier.Register(conn)
	logrus.WithField("remote", conn.RemoteAddr().String()).Info("scoring websocket connected")
	defer s.notifier.Unregister(client)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.WithField("remote", conn.RemoteAddr().String()).Info("scoring websocket closed")
			} else {
				logrus.WithError(err).Warn("scoring websocket unexpected close")
			}
			break
		}
	}
}

func (s *Server) handleResults(c *gin.Context) {
	results, err := s.store.Results()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (s *Server) handleExportCSV(c *gin.Context) {
	results, err := s.store.Results()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=lead-scores.csv")
	c.Header("Content-Type", "text/csv")

	writer := csv.NewWriter(c.Writer)
	headers := []string{"name", "role", "company", "industry", "score", "role_score", "industry_score", "completeness_score", "ai_intent", "ai_reasoning"}
	if err := writer.Write(headers); err != nil {
		return
	}
	for _, r := range results {
		line := []string{
			r.Name,
			r.Role,
			r.Company,
			r.Industry,
			strconv.Itoa(r.Score),
			strconv.Itoa(r.RuleBreakdown.Role),
			strconv.Itoa(r.RuleBreakdown.Industry),
			strconv.Itoa(r.RuleBreakdown.Completeness),
			string(r.AIIntent),
			r.AIReasoning,
		}
		if err := writer.Write(line); err != nil {
			return
		}
	}
	writer.Flush()
}

func (s *Server) handleExportJSON(c *gin.Context) {
	results, err := s.store.Results()
	if err != nil {
		s.renderError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=lead-scores.json")
	c.JSON(http.StatusOK, results)
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
