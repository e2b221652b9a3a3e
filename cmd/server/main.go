package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"acroyoga_club_backend/internal/database"
	"acroyoga_club_backend/internal/mailer"
	"acroyoga_club_backend/internal/messaging"
	"acroyoga_club_backend/internal/router"
	"acroyoga_club_backend/internal/session"
	"acroyoga_club_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	appmiddleware "acroyoga_club_backend/internal/middleware"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	utils.InitLogger()

	db, err := database.InitDB(database.Config{
		Host:       utils.Getenv("DB_HOST", "localhost"),
		Port:       utils.Getenv("DB_PORT", "5432"),
		User:       utils.Getenv("DB_USER", "acroyoga"),
		Password:   utils.Getenv("DB_PASSWORD", "acroyoga"),
		Name:       utils.Getenv("DB_NAME", "acroyoga_club"),
		SSLMode:    utils.Getenv("DB_SSLMODE", "disable"),
		SchemaPath: utils.Getenv("DB_SCHEMA_PATH", ""),
	})
	if err != nil {
		utils.LogError(err, "Failed to initialize database")
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisDB, _ := strconv.Atoi(utils.Getenv("REDIS_DB", "0"))
	rdb, err := database.InitRedis(
		utils.Getenv("REDIS_ADDR", "localhost:6379"),
		utils.Getenv("REDIS_PASSWORD", ""),
		redisDB,
	)
	if err != nil {
		utils.LogError(err, "Failed to initialize Redis")
		log.Fatalf("Failed to initialize Redis: %v", err)
	}
	defer rdb.Close()

	if utils.Getenv("SEED_DEV_DATA", "false") == "true" {
		if err := database.SeedDevData(db); err != nil {
			utils.LogError(err, "Failed to seed development data")
			log.Fatalf("Failed to seed development data: %v", err)
		}
	}

	// Events are optional: without an AMQP URL the publisher is a no-op.
	var publisher messaging.Publisher = messaging.NopPublisher{}
	if amqpURL := os.Getenv("AMQP_URL"); amqpURL != "" {
		amqpPublisher, err := messaging.NewAMQPPublisher(amqpURL, utils.Getenv("AMQP_QUEUE", "acroyoga.events"))
		if err != nil {
			utils.LogError(err, "Failed to connect to AMQP, events disabled")
		} else {
			publisher = amqpPublisher
			defer amqpPublisher.Close()
		}
	}

	mail := mailer.NewResendMailer(utils.Getenv("RESEND_API_KEY", ""))

	sessionTTLHours, _ := strconv.Atoi(utils.Getenv("SESSION_TTL_HOURS", "168"))
	sessions := session.NewStore(rdb, time.Duration(sessionTTLHours)*time.Hour)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())
	engine.Use(appmiddleware.Metrics())

	corsAllowedOriginsEnv := os.Getenv("CORS_ALLOWED_ORIGINS")
	var allowedOrigins []string
	if corsAllowedOriginsEnv != "" {
		allowedOrigins = strings.Split(corsAllowedOriginsEnv, ",")
	} else {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	// Credentials must stay on or the session cookie never reaches the API.
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	router.Setup(engine, router.Dependencies{
		DB:        db,
		Redis:     rdb,
		Sessions:  sessions,
		Mailer:    mail,
		Publisher: publisher,

		TokenSecret:  []byte(utils.Getenv("TOKEN_SECRET", "change-me-in-production")),
		FromAddress:  utils.Getenv("MAIL_FROM", "Acroyoga Valencia <hola@acroyogavalencia.com>"),
		ClubInbox:    utils.Getenv("CONTACT_INBOX", "hola@acroyogavalencia.com"),
		PublicURL:    utils.Getenv("PUBLIC_URL", "http://localhost:8080"),
		SecureCookie: utils.Getenv("COOKIE_SECURE", "false") == "true",
		CookieMaxAge: sessionTTLHours * 3600,
	})

	port := utils.Getenv("PORT", "8080")
	utils.LogInfo("Server starting", map[string]interface{}{"port": port})

	if err := engine.Run(":" + port); err != nil {
		utils.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}
