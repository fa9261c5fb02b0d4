package main

import (
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
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	config "github.com/cirotrigo/studio-lagosta/configs"
	"github.com/cirotrigo/studio-lagosta/internal/api/handlers"
	"github.com/cirotrigo/studio-lagosta/internal/api/middleware"
	"github.com/cirotrigo/studio-lagosta/internal/jobs"
	"github.com/cirotrigo/studio-lagosta/internal/queue"
	"github.com/cirotrigo/studio-lagosta/internal/repository"
	"github.com/cirotrigo/studio-lagosta/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	client := asynq.NewClient(redisConn)
	defer client.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Webhook-Secret",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	postLogRepo := repository.NewPostLogRepository(db)
	postRetryRepo := repository.NewPostRetryRepository(db)
	storyEventRepo := repository.NewStoryEventRepository(db)

	enqueuer := queue.NewEnqueuer(client)

	laterService := service.NewLaterService(*cfg)
	zapierService := service.NewZapierService()
	publishService := service.NewPublishService(postRepo, projectRepo, postLogRepo, laterService, zapierService, enqueuer)
	retryService := service.NewRetryService(postRetryRepo, postRepo, postLogRepo, publishService, enqueuer)
	schedulerService := service.NewSchedulerService(postRepo)
	reminderService := service.NewReminderService(schedulerService, postRepo, projectRepo, postLogRepo)
	archiveService := service.NewArchiveService(*cfg, postRepo, postLogRepo)
	verificationService := service.NewVerificationService(postRepo, projectRepo, storyEventRepo, postLogRepo, archiveService)
	analyticsService := service.NewAnalyticsService(postRepo, projectRepo, laterService)
	webhookService := service.NewWebhookService(storyEventRepo, postRepo, postLogRepo, verificationService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	cronHandler := handlers.NewCronHandler(publishService, reminderService, verificationService, retryService, analyticsService)
	cronGroup := app.Group("/cron")
	cronGroup.Use(authMiddleware.CronAuth())
	cronGroup.Post("/publish", cronHandler.RunPublish)
	cronGroup.Post("/reminders", cronHandler.RunReminders)
	cronGroup.Post("/verification", cronHandler.RunVerification)
	cronGroup.Post("/retries", cronHandler.RunRetries)
	cronGroup.Post("/analytics", cronHandler.RunAnalytics)

	webhookHandler := handlers.NewWebhookHandler(webhookService)
	app.Post("/webhooks/platform", authMiddleware.WebhookAuth(), webhookHandler.PlatformWebhook)

	api := app.Group("/api")
	api.Use(authMiddleware.OperatorAuth())

	postHandler := handlers.NewPostHandler(analyticsService, verificationService, schedulerService)
	api.Get("/posts/upcoming", postHandler.UpcomingCount)
	api.Post("/posts/:id/analytics/refresh", postHandler.RefreshAnalytics)
	api.Get("/posts/:id/verification/candidates", postHandler.VerificationCandidates)
	api.Post("/posts/:id/verification/resolve", postHandler.ResolveVerification)
	api.Post("/webhook-test", webhookHandler.TestWebhook)

	// in-process periodic fallback
	var runner *jobs.Runner
	if cfg.EnableCronRunner {
		runner = jobs.NewRunner(publishService, reminderService, verificationService, retryService, analyticsService)
		runner.Start()
	}

	//queue
	queueW := queue.NewQueue(publishService, retryService)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(queue.TaskTypePublishPost, queueW.HandlePublishPostTask)
		mux.HandleFunc(queue.TaskTypeRetryPost, queueW.HandleRetryPostTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db, runner)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB, runner *jobs.Runner) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if runner != nil {
		runner.Stop()
	}

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
