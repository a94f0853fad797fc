package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/inkpact/inkpact/backend/go-services/handlers"
	agreementhandler "github.com/inkpact/inkpact/backend/go-services/internal/agreement/handler"
	"github.com/inkpact/inkpact/backend/go-services/internal/agreement/repository"
	agreementservice "github.com/inkpact/inkpact/backend/go-services/internal/agreement/service"
	"github.com/inkpact/inkpact/backend/go-services/internal/config"
	"github.com/inkpact/inkpact/backend/go-services/internal/database"
	"github.com/inkpact/inkpact/backend/go-services/internal/notify"
	"github.com/inkpact/inkpact/backend/go-services/internal/oidc"
	"github.com/inkpact/inkpact/backend/go-services/internal/sessions"
	"github.com/inkpact/inkpact/backend/go-services/internal/storage"
	"github.com/inkpact/inkpact/backend/go-services/internal/tokens"
	"github.com/inkpact/inkpact/backend/go-services/internal/users"
	"github.com/inkpact/inkpact/backend/go-services/pkg/logger"
	"github.com/inkpact/inkpact/backend/go-services/pkg/metrics"
	"github.com/inkpact/inkpact/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v oidc=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.OIDC.Issuer != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsCfg.ExposeHeaders = []string{"Content-Length", "Content-Disposition"}
	r.Use(cors.New(corsCfg))

	// shared runtime vars used by handlers/readiness
	var verifier middleware.Verifier
	var userSvc *users.Service
	var sessionsSvc *sessions.Service

	// Connect to Redis early so the rate-limiter and blacklist can use it
	var importedRedis *redis.Client
	if cfg.Redis.Host != "" {
		importedRedis = redis.NewClient(&redis.Options{Addr: cfg.Redis.Host + ":" + cfg.Redis.Port, Password: cfg.Redis.Password})
		if err := importedRedis.Ping(context.Background()).Err(); err == nil {
			sessions.SetBlacklistClient(importedRedis)
			logger.Infof("Connected to Redis: %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		} else {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			importedRedis = nil
		}
	}

	// Optional global rate limiter (per-user when authenticated, otherwise per-IP)
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && importedRedis != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(importedRedis, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness endpoint — return 200 only when critical dependencies are available
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}

		deps["storage"] = sessionsSvc != nil
		if sessionsSvc == nil {
			ready = false
		} else {
			deps["users"] = userSvc != nil
		}

		if cfg.OIDC.Issuer != "" {
			deps["oidc"] = verifier != nil
			if verifier == nil {
				ready = false
			}
		} else {
			deps["oidc"] = true
		}

		if cfg.Redis.Host != "" && cfg.RateLimit.UseRedis {
			deps["redis"] = importedRedis != nil
			if !deps["redis"] {
				ready = false
			}
		} else {
			deps["redis"] = true
		}

		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	ctx := context.Background()

	// Identity verification: external OIDC issuer when configured, otherwise
	// locally issued JWTs. ALLOW_INSECURE_TOKEN is for integration tests only.
	if cfg.OIDC.Issuer != "" && cfg.OIDC.ClientID != "" {
		ver, err := oidc.NewVerifier(ctx, cfg.OIDC.Issuer, cfg.OIDC.ClientID)
		if err != nil {
			logger.Warnf("failed to initialize OIDC verifier: %v", err)
		} else {
			verifier = ver
		}
	}
	if verifier == nil {
		if strings.EqualFold(strings.TrimSpace(os.Getenv("ALLOW_INSECURE_TOKEN")), "true") {
			logger.Warn("enabling insecure token verifier (integration mode)")
			verifier = oidc.NewInsecureVerifier()
		} else {
			verifier = tokens.NewJWTVerifier(cfg.JWT.Secret)
		}
	}

	// Prefer Redis-based sessions when available
	if importedRedis != nil {
		sessionsSvc = sessions.NewService(sessions.NewRedisRepository(importedRedis, "session:"))
		logger.Infof("Using Redis for session storage")
	}

	// MongoDB-backed repositories: users, sessions fallback and agreements
	var agreementRepo repository.Repository
	if cfg.MongoDB.URI != "" {
		const maxAttempts = 5
		backoff := time.Second
		var client *mongo.Client
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			client, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Warnf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		} else {
			defer func() { _ = client.Disconnect(ctx) }()
			db := client.Database(cfg.MongoDB.Database)
			userSvc = users.NewService(users.NewMongoUserRepository(db.Collection("users")))
			agreementRepo = repository.NewMongoRepo(db.Collection("agreements"))
			if sessionsSvc == nil {
				sessionsSvc = sessions.NewService(sessions.NewMongoRepository(db.Collection("sessions")))
			}
		}
	}
	if agreementRepo == nil {
		logger.Warnf("MongoDB unavailable, using in-memory agreement store (data is not persisted)")
		agreementRepo = repository.NewMemoryRepo()
	}

	// Optional PDF archive in object storage
	var archiver agreementservice.Archiver
	if minioCfg := storage.LoadMinIOConfig(); minioCfg.Endpoint != "" {
		arc, err := storage.NewMinIOArchive(minioCfg)
		if err != nil {
			logger.Warnf("PDF archive disabled: %v", err)
		} else {
			archiver = arc
			logger.Infof("Archiving signed PDFs to bucket %s", minioCfg.Bucket)
		}
	}

	dispatcher := notify.NewDispatcher(cfg.Email.APIKey, cfg.Email.FromAddress, cfg.Email.FrontendURL)
	agreementSvc := agreementservice.NewService(agreementRepo, dispatcher, archiver)

	if userSvc != nil && sessionsSvc != nil {
		h := handlers.NewAuthHandler(cfg, userSvc, sessionsSvc)
		h.Register(r.Group("/api"))
	} else {
		logger.Warnf("auth handlers not registered because user/sessions services are unavailable")
	}
	handlers.RegisterSwagger(r)
	agreementhandler.RegisterAgreementRoutes(r, agreementSvc, middleware.AuthMiddleware(verifier))

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("services: user=%v sessions=%v archive=%v", userSvc != nil, sessionsSvc != nil, archiver != nil)
	logger.Infof("Starting agreement service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
