package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	config "github.com/Eman-gul457/Content-Repurposing-Agent/configs"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/api/handlers"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/api/middleware"
	job "github.com/Eman-gul457/Content-Repurposing-Agent/internal/jobs"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/repository"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/scheduler"
	"github.com/Eman-gul457/Content-Repurposing-Agent/internal/service"
	"github.com/Eman-gul457/Content-Repurposing-Agent/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	cipher, err := utils.NewTokenCipher(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("Invalid ENCRYPTION_KEY: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		BodyLimit:    16 * 1024 * 1024, // 16 MB, media arrives base64-encoded
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	oauthStateRepo := repository.NewOAuthStateRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)
	publishJobRepo := repository.NewPublishJobRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)

	r2Service, err := service.NewR2Service(*cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}
	if err := r2Service.EnsureBucket(context.Background()); err != nil {
		log.Printf("Warning: could not ensure storage bucket: %v", err)
	}

	linkedinService := service.NewLinkedinService(*cfg, socialAccountRepo, oauthStateRepo, mediaAssetRepo, r2Service, cipher)
	twitterService := service.NewTwitterService(*cfg, socialAccountRepo, oauthStateRepo, mediaAssetRepo, r2Service, cipher)
	platformService := service.NewPlatformService(socialAccountRepo, linkedinService, twitterService)

	postService := service.NewPostService(*cfg, repository.NewTxRunner(db), postRepo, mediaAssetRepo, publishJobRepo, approvalRepo, platformService)
	mediaService := service.NewMediaService(postRepo, mediaAssetRepo, r2Service)
	whatsappService := service.NewWhatsAppService(*cfg)
	generationService := service.NewGenerationService(postRepo, publishJobRepo, approvalRepo,
		service.NewGroqGenerator(*cfg), nil, whatsappService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded"})
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	platform := handlers.NewPlatformHandler(platformService, *cfg)
	app.Get("/auth/:platform/callback", platform.Callback)

	approval := handlers.NewApprovalHandler(postService)
	app.Get("/approvals/:action", approval.Resolve)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/auth/:platform", platform.Connect)
	api.Get("/accounts", platform.ListAccounts)

	post := handlers.NewPostHandler(postService, generationService)
	api.Post("/posts/generate", post.Generate)
	api.Get("/posts", post.List)
	api.Get("/posts/:id", post.Get)
	api.Patch("/posts/:id", post.UpdateText)
	api.Post("/posts/:id/status", post.UpdateStatus)
	api.Post("/posts/:id/schedule", post.Schedule)
	api.Post("/posts/:id/publish", post.Publish)
	api.Post("/posts/:id/publish/manual", post.ManualPublish)
	api.Get("/posts/:id/job", post.GetPublishJob)

	upload := handlers.NewUploadHandler(mediaService)
	api.Post("/media", upload.UploadMedia)
	api.Get("/posts/:id/media", upload.ListPostMedia)

	publishScheduler := scheduler.New(postRepo, postService)
	publishScheduler.Start()

	refreshJob := job.NewTokenRefreshJob(socialAccountRepo, platformService)
	if err := refreshJob.Start(); err != nil {
		log.Fatalf("Failed to start token refresh job: %v", err)
	}

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db, publishScheduler, refreshJob)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, s *scheduler.Scheduler, j *job.TokenRefreshJob) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	s.Stop()
	j.Stop()

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
