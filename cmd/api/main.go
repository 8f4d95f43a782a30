package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrattendance/internal/attendance"
	"qrattendance/internal/auth"
	"qrattendance/internal/config"
	"qrattendance/internal/export"
	"qrattendance/internal/httpmiddleware"
	"qrattendance/internal/instructor"
	"qrattendance/internal/qrlink"
	"qrattendance/internal/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	var (
		db          *store.DB
		sessions    attendance.SessionStore
		checkins    attendance.AttendanceStore
		instructors instructor.Store
	)
	if cfg.StoreBackend == "memory" {
		mem := attendance.NewMemStore()
		sessions, checkins = mem, mem
		instructors = instructor.NewMemStore()
		log.Println("using in-memory stores (STORE_BACKEND=memory)")
	} else {
		var err error
		db, err = store.NewDB(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		repo := attendance.NewRepository(db.Client)
		sessions, checkins = repo, repo
		instructors = instructor.NewRepository(db.Client)
	}
	defer func() {
		if db != nil {
			_ = db.Close()
		}
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	var dedup *attendance.DedupCache
	if cfg.RedisDedup {
		dedup = attendance.NewDedupCache(redisClient.Client)
	}

	pipeline := attendance.NewService(sessions, checkins, dedup, cfg.StoreTimeout)
	accounts := instructor.NewService(instructors)
	renderer := qrlink.NewRenderer(cfg.PublicBaseURL)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewRateLimiter(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Handler())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Healthy(c.Request.Context()) || cfg.StoreBackend == "memory"
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	api := r.Group("/api")

	api.POST("/instructors/register", func(c *gin.Context) {
		var req struct {
			Name     string `json:"name" binding:"required"`
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ins, err := accounts.Register(c.Request.Context(), req.Name, req.Email, req.Password)
		if err != nil {
			c.JSON(instructorStatus(err), gin.H{"error": err.Error()})
			return
		}
		token, err := auth.Issue(ins.ID, ins.Name, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message":    "instructor registered successfully",
			"token":      token.Value,
			"expires_at": token.ExpiresAt.Unix(),
		})
	})

	api.POST("/instructors/login", func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ins, err := accounts.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			c.JSON(instructorStatus(err), gin.H{"error": err.Error()})
			return
		}
		token, err := auth.Issue(ins.ID, ins.Name, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.TokenTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token.Value, "expires_at": token.ExpiresAt.Unix()})
	})

	authed := api.Group("/instructors", auth.InstructorAuth(cfg.JWTSigningKey, cfg.JWTIssuer))

	authed.POST("/lectures", func(c *gin.Context) {
		var req attendance.CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		session, err := pipeline.CreateSession(c.Request.Context(), auth.InstructorID(c), req)
		if err != nil {
			c.JSON(attendance.RejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		qr, err := renderer.DataURL(session.ID, session.ExpiresAt)
		if err != nil {
			log.Printf("qr render failed for %s: %v", session.ID, err)
		}
		c.JSON(http.StatusCreated, gin.H{
			"message": "lecture created successfully",
			"lecture": session,
			"qr_code": qr,
		})
	})

	authed.GET("/lectures", func(c *gin.Context) {
		list, err := pipeline.ListSessions(c.Request.Context(), auth.InstructorID(c))
		if err != nil {
			c.JSON(attendance.RejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"lectures": list})
	})

	authed.GET("/lectures/:id/qr.png", func(c *gin.Context) {
		session, err := pipeline.GetOwnedSession(c.Request.Context(), c.Param("id"), auth.InstructorID(c))
		if err != nil {
			c.JSON(attendance.RejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		png, err := renderer.PNG(session.ID, session.ExpiresAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr render failed"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	authed.GET("/lectures/:id/attendance", func(c *gin.Context) {
		recs, err := pipeline.ListAttendance(c.Request.Context(), c.Param("id"), auth.InstructorID(c))
		if err != nil {
			c.JSON(attendance.RejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"students": recs})
	})

	authed.GET("/lectures/:id/attendance.csv", func(c *gin.Context) {
		owner := auth.InstructorID(c)
		session, err := pipeline.GetOwnedSession(c.Request.Context(), c.Param("id"), owner)
		if err != nil {
			c.JSON(attendance.RejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		recs, err := pipeline.ListAttendance(c.Request.Context(), session.ID, owner)
		if err != nil {
			c.JSON(attendance.RejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="`+export.Filename(session.Course, session.Section)+`"`)
		c.Header("Content-Type", "text/csv")
		if err := export.WriteCSV(c.Writer, recs); err != nil {
			log.Printf("csv export failed for %s: %v", session.ID, err)
		}
	})

	authed.GET("/attendance", func(c *gin.Context) {
		report, err := pipeline.AttendanceReport(c.Request.Context(), auth.InstructorID(c))
		if err != nil {
			c.JSON(attendance.RejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, report)
	})

	api.POST("/students/attendance", func(c *gin.Context) {
		var req attendance.CheckInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rec, err := pipeline.SubmitCheckIn(c.Request.Context(), req)
		if err != nil {
			c.JSON(attendance.RejectionStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"message":     "attendance recorded successfully",
			"id":          rec.ID,
			"recorded_at": rec.Timestamp,
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced shutdown: %v", err)
	}

	log.Println("server exited")
	return nil
}

func instructorStatus(err error) int {
	switch {
	case errors.Is(err, instructor.ErrInvalidInput),
		errors.Is(err, instructor.ErrEmailTaken),
		errors.Is(err, instructor.ErrBadCredentials):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// CORS middleware for browser requests; students check in from arbitrary
// origins after scanning the code.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
