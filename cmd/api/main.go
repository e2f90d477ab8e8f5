// @title NeuraBuddy API
// @version 1.0
// @description Retrieval-augmented neuroanatomy tutor: question answering, quizzes, study aids and clinical simulations.
// @host localhost:8090
// @BasePath /api
// @schemes http https
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	_ "neurabuddy/cmd/api/docs"
	"neurabuddy/internal/adapter/llm"
	"neurabuddy/internal/app"
	"neurabuddy/internal/config"
	"neurabuddy/internal/domain"
	"neurabuddy/internal/handler"
	"neurabuddy/internal/logger"
	"neurabuddy/internal/middleware"
	"neurabuddy/internal/retrieval"
	"neurabuddy/internal/service"
	"neurabuddy/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Initialize(cfg.Logger); err != nil {
		panic(err)
	}
	appLogger := logger.Get()
	defer logger.Sync()

	infra, err := app.NewInfrastructure(cfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize infrastructure", zap.Error(err))
	}
	defer infra.Close()

	model, err := llm.NewModel(cfg.LLM)
	if err != nil {
		appLogger.Fatal("Failed to create LLM client", zap.Error(err))
	}
	generator := llm.NewGenerator(model, cfg.LLM.Timeout)
	appLogger.Info("LLM initialized", zap.String("provider", cfg.LLM.Provider), zap.String("model", cfg.LLM.Model))

	quizStore := session.NewMemoryStore[*domain.Quiz](cfg.Session.TTL)
	clinicalStore := session.NewMemoryStore[*domain.ClinicalSession](cfg.Session.TTL)

	pipeline := retrieval.NewPipeline(infra.Index, generator, cfg.Index)
	queryService := service.NewQueryService(pipeline, infra.Index, service.NewAnswerCacheService(infra.Cache, cfg.Query.CacheTTL))
	feedbackCache := service.NewFeedbackCacheService(infra.Cache, cfg.Quiz.FeedbackSimilarityThreshold, cfg.Quiz.FeedbackCacheTTL)
	quizService := service.NewQuizService(infra.Index, generator, quizStore, infra.Embedder, feedbackCache, cfg)
	tutorService := service.NewTutorService(infra.Index, generator, cfg)
	studyService := service.NewStudyService(infra.Index, generator, cfg)
	clinicalService := service.NewClinicalService(infra.Index, generator, clinicalStore, cfg)
	ingestService := service.NewIngestService(infra.Chunker, infra.Index)
	healthService := service.NewHealthService(infra.Index, infra.Cache)

	fiberApp := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: middleware.ErrorHandler(),
	})

	fiberApp.Use(middleware.RequestLogger())
	fiberApp.Use(cors.New(cors.Config{AllowOrigins: "*", AllowMethods: "GET,POST,DELETE,OPTIONS", AllowHeaders: "Origin,Content-Type,Accept", MaxAge: 300}))
	fiberApp.Use(recover.New())

	fiberApp.Get("/swagger/*", swagger.HandlerDefault)

	handler.RegisterRoutes(fiberApp.Group("/api"), handler.Handlers{
		Ingest:   handler.NewIngestHandler(ingestService),
		Query:    handler.NewQueryHandler(queryService, tutorService),
		Quiz:     handler.NewQuizHandler(quizService, cfg.Quiz.MaxQuestions),
		Study:    handler.NewStudyHandler(studyService),
		Clinical: handler.NewClinicalHandler(clinicalService),
		Health:   handler.NewHealthHandler(healthService),
	})

	go func() {
		appLogger.Info("Starting server", zap.Int("port", cfg.Server.Port), zap.String("env", cfg.Logger.Env))
		if err := fiberApp.Listen(":" + strconv.Itoa(cfg.Server.Port)); err != nil {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := fiberApp.ShutdownWithContext(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	appLogger.Info("Server exited gracefully")
}
