package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"reviewhub/internal/handlers"
	"reviewhub/internal/importer"
	"reviewhub/internal/middleware"
	"reviewhub/internal/models"
	"reviewhub/internal/repositories"
	"reviewhub/internal/services"
	"reviewhub/pkg/mailer"
	"reviewhub/pkg/rabbitmq"
)

func main() {
	importDir := flag.String("import", "", "load CSV fixtures from this directory and exit")
	flag.Parse()

	// --- Configuration ---
	// Set up Viper to read configuration from environment variables
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("SQLITE_PATH", "reviewhub.db")
	viper.SetDefault("JWT_SECRET", "change-me")
	viper.SetDefault("SMTP_HOST", "localhost")
	viper.SetDefault("SMTP_PORT", 1025)
	viper.SetDefault("SMTP_SENDER", "ReviewHub <no-reply@reviewhub.local>")
	viper.AutomaticEnv() // Load environment variables

	appPort := viper.GetString("APP_PORT")
	jwtSecret := viper.GetString("JWT_SECRET")
	rabbitMQURL := viper.GetString("RABBITMQ_URL")

	// --- Database ---
	// A postgres DSN selects the production driver; without one the
	// service runs on a local sqlite file.
	db, err := openDatabase()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Genre{},
		&models.Title{},
		&models.Review{},
		&models.Comment{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	if *importDir != "" {
		if err := importer.New(db).Load(*importDir); err != nil {
			log.Fatalf("Fixture import failed: %v", err)
		}
		log.Printf("Fixtures from %s imported.", *importDir)
		return
	}

	// --- Outbound mail ---
	smtpMailer := mailer.New(
		viper.GetString("SMTP_HOST"),
		viper.GetInt("SMTP_PORT"),
		viper.GetString("SMTP_USERNAME"),
		viper.GetString("SMTP_PASSWORD"),
		viper.GetString("SMTP_SENDER"),
	)

	// --- RabbitMQ (optional) ---
	// With a broker, signup queues the confirmation email and the consumer
	// below delivers it. Without one, the auth service sends directly.
	var codeSender services.CodeSender = smtpMailer
	var mqClient *rabbitmq.Client
	if rabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: rabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close() // Ensure the connection is closed on exit
		codeSender = mqClient
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	categoryRepo := repositories.NewGORMCategoryRepository(db)
	genreRepo := repositories.NewGORMGenreRepository(db)
	titleRepo := repositories.NewGORMTitleRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)
	commentRepo := repositories.NewGORMCommentRepository(db)

	// --- Initialize Services ---
	authService := services.NewAuthService(userRepo, codeSender, jwtSecret)
	userService := services.NewUserService(userRepo)
	catalogService := services.NewCatalogService(categoryRepo, genreRepo, titleRepo)
	feedbackService := services.NewFeedbackService(titleRepo, reviewRepo, commentRepo)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	feedbackHandler := handlers.NewFeedbackHandler(feedbackService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger
	authRequired := middleware.AuthRequired(authService)
	authOptional := middleware.AuthOptional(authService)

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)
	userHandler.RegisterRoutes(apiV1, authRequired)
	catalogHandler.RegisterRoutes(apiV1, authOptional)
	feedbackHandler.RegisterRoutes(apiV1, authOptional)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start RabbitMQ Consumer in a Goroutine ---
	// The consumer turns queued signup events into SMTP deliveries.
	if mqClient != nil {
		go func() {
			log.Println("Starting RabbitMQ consumer for confirmation emails...")
			messageHandler := func(msg amqp.Delivery) error {
				var email rabbitmq.EmailMessage
				if err := json.Unmarshal(msg.Body, &email); err != nil {
					log.Printf("Dropping malformed email event (Tag: %d): %v", msg.DeliveryTag, err)
					return nil // Ack: a malformed message never becomes deliverable
				}
				return smtpMailer.SendConfirmationCode(email.Email, email.Username, email.Code)
			}
			if consumerErr := mqClient.ConsumeEmailEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// openDatabase opens postgres when DATABASE_URL is set, sqlite otherwise.
// TranslateError turns driver unique-violations into gorm.ErrDuplicatedKey
// so the repositories can map them onto the shared error taxonomy.
func openDatabase() (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}
	if dsn := viper.GetString("DATABASE_URL"); dsn != "" {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	return gorm.Open(sqlite.Open(viper.GetString("SQLITE_PATH")), cfg)
}
