package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stylequiz/internal/cache"
	"stylequiz/internal/catalog"
	"stylequiz/internal/config"
	"stylequiz/internal/model"
	"stylequiz/internal/quiz"
	"stylequiz/internal/repository"
	"stylequiz/internal/service"
	"stylequiz/internal/transport/rest"
	"stylequiz/internal/transport/ws"
)

func main() {
	log.Println("started")
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}
	log.Printf("Polling: max %d attempts, queue %s, progress %s, job timeout %s",
		cfg.Polling.MaxAttempts, cfg.Polling.QueueInterval, cfg.Polling.ProgressInterval, cfg.Polling.JobTimeout)

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(ctx)

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDB)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize repositories
	sessionRepo := repository.NewSessionRepo(db)
	reportRepo := repository.NewReportRepo(db)
	catalogRepo := repository.NewCatalogRepo(db)

	// Questionnaire content
	cat, err := loadCatalog(ctx, cfg, catalogRepo)
	if err != nil {
		log.Fatal("Failed to load catalog:", err)
	}
	engine := quiz.NewEngine(cat.Questions, cat.Styles)
	log.Printf("Catalog %s: %d questions, %d styles", cat.Version, len(cat.Questions), len(cat.Styles))

	// Initialize caches
	sessionCache := cache.NewSessionCache(rdb)
	jobCache := cache.NewJobCache(rdb)
	styleStats := cache.NewStyleStatsCache(rdb)

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize services
	authSvc := service.NewAuthService(cfg)
	jobSvc := service.NewJobService(jobCache)
	reportSvc := service.NewReportService(engine, reportRepo, styleStats)
	styleSvc := service.NewStyleAnalysisService(cfg, nil)
	sessionSvc := service.NewSessionService(engine, sessionRepo, sessionCache, reportSvc, authSvc, styleSvc)
	bgSvc := service.NewBackgroundRemovalService(cfg, jobSvc)
	colorSvc := service.NewColorAnalysisService(cfg, jobSvc, sessionSvc)

	// Inject broadcaster (wsHub implements service.Broadcaster)
	jobSvc.SetBroadcaster(wsHub)

	// Create router with container
	container := &rest.Container{
		Engine:            engine,
		AuthService:       authSvc,
		SessionService:    sessionSvc,
		ReportService:     reportSvc,
		JobService:        jobSvc,
		BackgroundRemoval: bgSvc,
		ColorAnalysis:     colorSvc,
		WSHub:             wsHub,
		CORSOrigins:       cfg.CORSOrigins,
	}

	router := rest.NewRouter(container)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  GET  /v1/catalog")
		log.Println("  POST /v1/sessions")
		log.Println("  GET  /v1/sessions/{id}")
		log.Println("  POST /v1/sessions/{id}/{start,next,prev,restart,photos}")
		log.Println("  PUT  /v1/sessions/{id}/answers")
		log.Println("  POST /v1/sessions/{id}/color/{step|final}")
		log.Println("  POST /v1/background-removal")
		log.Println("  GET  /v1/jobs/{jobId}[/result]")
		log.Println("  WS   /v1/ws/sessions/{id}")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("ListenAndServe:", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}
	if err := jobSvc.Shutdown(shutdownCtx); err != nil {
		log.Printf("Jobs still running at shutdown: %v", err)
	}

	log.Println("Server exited")
}

// loadCatalog prefers CATALOG_FILE, then the latest seeded catalog in MongoDB,
// then the embedded default
func loadCatalog(ctx context.Context, cfg *config.Config, repo repository.CatalogRepo) (*model.Catalog, error) {
	if cfg.CatalogFile != "" {
		return catalog.LoadFile(cfg.CatalogFile)
	}

	stored, err := repo.GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("read stored catalog: %w", err)
	}
	if stored != nil {
		if err := catalog.Validate(stored); err != nil {
			return nil, fmt.Errorf("stored catalog %s: %w", stored.Version, err)
		}
		return stored, nil
	}

	log.Println("No stored catalog, using embedded default")
	return catalog.Default()
}
