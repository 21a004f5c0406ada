package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/ndemidov/liber/internal/config"
	"github.com/ndemidov/liber/internal/database"
	"github.com/ndemidov/liber/internal/database/annotations"
	"github.com/ndemidov/liber/internal/database/books"
	"github.com/ndemidov/liber/internal/database/collections"
	"github.com/ndemidov/liber/internal/database/users"
	http_controllers "github.com/ndemidov/liber/internal/http"
	"github.com/ndemidov/liber/internal/services"
	"github.com/ndemidov/liber/internal/storage"
	"github.com/ndemidov/liber/internal/tasks"
	"github.com/ndemidov/liber/internal/urlcache"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT/SIGTERM, then drains it within
// the configured shutdown timeout. onShutdown runs before the server stops
// accepting, so background workers quiesce first.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// Run wires the whole service together and serves it.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Liber v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	collectionRepo := collections.NewRepository(db.DB)
	annotationRepo := annotations.NewRepository(db.DB)
	userRepo := users.NewRepository(db.DB)

	store, err := storage.NewS3Client(context.Background(), storage.S3Config{
		Region:       cfg.Storage.Region,
		Bucket:       cfg.Storage.Bucket,
		BaseEndpoint: cfg.Storage.Endpoint,
		AccessKey:    cfg.Storage.AccessKey,
		SecretKey:    cfg.Storage.SecretKey,
	})
	if err != nil {
		log.Fatalf("Failed to initialize object store client: %v", err)
	}

	cache := urlcache.NewCache(cfg.URLCache.MaxEntries)

	library := services.NewLibraryService(bookRepo, collectionRepo, store, cache)
	library.SetDefaultAccessTTL(cfg.URLCache.DefaultTTL)

	// Task queue for post-commit asset cleanup. When disabled, the service
	// falls back to inline goroutines.
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(tasks.NewCleanupAssetsQueue(store))

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		library.SetCleanupDispatcher(tasks.NewDispatcher(taskClient))
	}

	// Periodic sweep keeps the URL cache from sitting on expired entries
	// for keys nobody reads anymore.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.URLCache.SweepSchedule, func() {
		if removed := cache.PurgeExpired(); removed > 0 {
			log.Printf("URL cache sweep removed %d expired entrie(s)", removed)
		}
	}); err != nil {
		log.Fatalf("Invalid URL cache sweep schedule %q: %v", cfg.URLCache.SweepSchedule, err)
	}
	scheduler.Start()

	routerCfg := http_controllers.RouterConfig{
		Database:        db,
		Version:         version,
		Users:           userRepo,
		BookReader:      bookRepo,
		Library:         library,
		Collections:     collectionRepo,
		Annotations:     annotationRepo,
		BulkConcurrency: cfg.Bulk.Concurrency,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		scheduler.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}
