package main

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"lead-scoring/backend/internal/api"
	"lead-scoring/backend/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		logrus.Fatalf("init logger: %v", err)
	}
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	server, err := api.NewServer(cfg.API())
	if err != nil {
		logrus.Fatalf("create server: %v", err)
	}

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	logrus.WithFields(logrus.Fields{
		"addr":        addr,
		"store":       cfg.Store.DBPath,
		"model":       cfg.Classifier.Model,
		"concurrency": cfg.Scoring.Concurrency,
	}).Info("starting lead scoring backend")
	if err := server.Router().Run(addr); err != nil {
		logrus.Fatalf("server exited: %v", err)
	}
}
