package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"paper-vault/classifier"
	"paper-vault/classifier/inference"
	"paper-vault/classifier/keyword"
	"paper-vault/config"
	"paper-vault/models"
	"paper-vault/services"
	"paper-vault/storage"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	papersSubmittedCounter    prometheus.Counter
	papersAutoApprovedCounter prometheus.Counter
	papersPurgedCounter       prometheus.Counter
)

func init() {
	papersSubmittedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_submitted_total",
			Help: "Total number of papers submitted for moderation.",
		},
	)
	papersAutoApprovedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_auto_approved_total",
			Help: "Total number of papers approved automatically by the classifier.",
		},
	)
	papersPurgedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "papers_purged_total",
			Help: "Total number of rejected papers removed by the retention purge.",
		},
	)
	prometheus.MustRegister(papersSubmittedCounter, papersAutoApprovedCounter, papersPurgedCounter)
}

// adminAuthMiddleware schützt die Moderations-Endpunkte über den Header x-admin-key.
func adminAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminKey := c.GetHeader("x-admin-key")
		if adminKey == "" || adminKey != cfg.AdminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Config load error", zap.Error(err))
	}

	// Setup Database Connection
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		logging.Fatal("Failed to connect to papers database", zap.Error(err))
	}
	logging.Info("Successfully connected to papers database.")

	logging.Info("Running database auto-migration...")
	db.AutoMigrate(&models.Paper{})

	// Setup Classifier
	var cls classifier.Classifier
	switch cfg.Classifier {
	case "keyword":
		cls = keyword.NewHeuristic(logging)
	case "inference":
		cls = inference.NewRemote(cfg, logging)
	default:
		logging.Fatal("Unknown classifier in config", zap.String("classifier", cfg.Classifier))
	}
	logging.Info("Active classifier loaded", zap.String("classifier", cls.Name()))

	// Setup Services
	s3Client, err := storage.NewS3Client(cfg)
	if err != nil {
		logging.Fatal("S3 client creation failed", zap.Error(err))
	}
	blobs := storage.NewS3Store(s3Client, cfg)
	moderation := services.NewModerationService(cfg, db, blobs, cls, logging)

	// Setup Router
	router := gin.Default()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "paper-vault"})
	})

	// Setup Routes
	setupUploadRoutes(router, moderation, cfg, logging)

	// Setup Cron
	cronScheduler := cron.New()
	cronScheduler.AddFunc(cfg.PurgeSchedule, func() {
		logging.Info("Running scheduled purge job...")
		count, err := moderation.PurgeRejected(context.Background())
		if err != nil {
			logging.Error("Purge job failed", zap.Error(err))
		} else {
			logging.Info("Purge job completed", zap.Int("purged_papers", count))
			papersPurgedCounter.Add(float64(count))
		}
	})
	cronScheduler.Start()

	logging.Info("Starting server", zap.String("port", cfg.HTTPPort))
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		logging.Fatal("Failed to run server", zap.Error(err))
	}
}

func setupUploadRoutes(router *gin.Engine, moderation *services.ModerationService, cfg *config.Config, log *zap.Logger) {
	rg := router.Group("/api/upload")

	// Öffentlicher Upload-Endpunkt
	rg.POST("", func(c *gin.Context) {
		// Größenlimit greift bereits beim Einlesen des Multipart-Bodys.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, cfg.MaxUploadBytes())

		in := services.SubmitInput{
			Category: strings.TrimSpace(c.PostForm("category")),
			Subject:  strings.TrimSpace(c.PostForm("subject")),
			Semester: strings.TrimSpace(c.PostForm("semester")),
			Year:     strings.TrimSpace(c.PostForm("year")),
		}
		if in.Category == "" || in.Subject == "" || in.Semester == "" || in.Year == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "category, subject, semester and year are required"})
			return
		}

		fileHeader, err := c.FormFile("paper")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
			return
		}
		if fileHeader.Size > cfg.MaxUploadBytes() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the upload limit"})
			return
		}
		if ct := fileHeader.Header.Get("Content-Type"); ct != "application/pdf" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Only PDF files allowed"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			log.Error("Failed to open uploaded file", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload"})
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil || len(data) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload"})
			return
		}

		paper, err := moderation.Submit(c.Request.Context(), in, data)
		if errors.Is(err, services.ErrDuplicate) {
			c.JSON(http.StatusConflict, gin.H{"error": "This paper already exists."})
			return
		}
		if err != nil {
			log.Error("Paper submission failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store paper"})
			return
		}

		papersSubmittedCounter.Inc()
		if paper.Approved {
			papersAutoApprovedCounter.Inc()
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"autoApproved": paper.Approved,
			"id":           paper.ID,
		})
	})

	// Öffentliche Liste der freigegebenen Paper, neueste zuerst
	rg.GET("/approved", func(c *gin.Context) {
		papers, err := moderation.ListApproved(c.Request.Context())
		if err != nil {
			log.Error("Database query for approved papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, papers)
	})

	// Admin-Endpunkte
	admin := rg.Group("", adminAuthMiddleware(cfg))

	admin.GET("/pending", func(c *gin.Context) {
		papers, err := moderation.ListPending(c.Request.Context())
		if err != nil {
			log.Error("Database query for pending papers failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, papers)
	})

	admin.POST("/approve/:id", func(c *gin.Context) {
		moderationAction(c, log, "approve", func() error {
			return moderation.Approve(c.Request.Context(), c.Param("id"))
		})
	})

	admin.POST("/reject/:id", func(c *gin.Context) {
		moderationAction(c, log, "reject", func() error {
			return moderation.Reject(c.Request.Context(), c.Param("id"))
		})
	})

	admin.DELETE("/delete/:id", func(c *gin.Context) {
		moderationAction(c, log, "delete", func() error {
			return moderation.Delete(c.Request.Context(), c.Param("id"))
		})
	})
}

// moderationAction führt eine Statusaktion aus und mappt die Service-Fehler
// auf HTTP-Statuscodes.
func moderationAction(c *gin.Context, log *zap.Logger, action string, fn func() error) {
	err := fn()
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "Paper has already been processed"})
	default:
		log.Error("Moderation action failed",
			zap.String("action", action), zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
	}
}
