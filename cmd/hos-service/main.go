package main

import (
	"fmt"
	"os"

	"hos-service/internal/auth"
	"hos-service/internal/config"
	"hos-service/internal/db"
	"hos-service/internal/excel"
	httphandler "hos-service/internal/http"
	"hos-service/internal/http/middleware"
	"hos-service/internal/logger"
	"hos-service/internal/pdf"
	"hos-service/internal/repository"
	"hos-service/internal/rmq"
	"hos-service/internal/rules"
	"hos-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	logRepo := repository.NewLogRepository(database)
	violationRepo := repository.NewViolationRepository(database)

	var publisher service.AlertPublisher
	if cfg.RMQ.URL != "" {
		rmqPublisher, err := rmq.NewPublisher(cfg.RMQ.URL, cfg.RMQ.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer rmqPublisher.Close()
		publisher = rmqPublisher
	}

	engine := rules.NewEngine(rules.CycleByName(cfg.HOS.Cycle))

	violationService := service.NewViolationService(logRepo, violationRepo, engine, publisher, log)
	logService := service.NewLogService(logRepo, violationService, engine, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(logService, violationService, excel.NewGenerator(), pdf.NewGenerator(), log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().
		Str("addr", addr).
		Str("cycle", engine.Cycle().Name).
		Msg("starting hos compliance service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
