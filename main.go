package main

import (
	"log"
	"net/http"

	"civicpulse-be/config"
	"civicpulse-be/controllers"
	"civicpulse-be/routes"
	"civicpulse-be/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	settings := config.Load()

	logger, err := config.NewLogger()
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db := config.ConnectDB()
	if db == nil {
		logger.Fatal("Failed to connect to MongoDB")
	}
	logger.Info("MongoDB connection established")

	if settings.RedisAddr != "" {
		config.ConnectRedis()
	} else {
		logger.Warn("REDIS_ADDRESS not set, report rate limiting is disabled")
	}

	objectStore, err := services.NewGridFSStore(db)
	if err != nil {
		logger.Fatal("Failed to initialize upload storage", zap.Error(err))
	}

	reportStore := services.NewMongoReportStore(db.Collection("reports"))
	userStore := services.NewMongoUserStore(db.Collection("users"))

	classifier := services.NewGeminiClassifier(settings, logger)
	geocoder := services.NewGeoapifyGeocoder(settings, logger)
	mailer := services.NewMailer(settings.SMTP, logger)
	defer mailer.Close()

	intake := services.NewIntake(classifier, geocoder, objectStore, reportStore, userStore, mailer, logger)
	controllers.Init(intake, objectStore)

	weeklyReset := services.NewWeeklyReset(userStore, logger)
	if err := weeklyReset.Start(); err != nil {
		logger.Fatal("Failed to start weekly reset scheduler", zap.Error(err))
	}
	defer weeklyReset.Stop()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     settings.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	routes.AuthRoutes(r)
	routes.ReportRoutes(r, settings.ReportDailyLimit)
	routes.AnalyticsRoutes(r)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	if err := r.Run(":" + settings.Port); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
