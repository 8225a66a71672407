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

	"cityfix-be/config"
	"cityfix-be/controllers"
	"cityfix-be/identity"
	"cityfix-be/middlewares"
	"cityfix-be/models"
	"cityfix-be/notify"
	"cityfix-be/payments"
	"cityfix-be/routes"
	"cityfix-be/services"
	"cityfix-be/store"
	"cityfix-be/uploads"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := config.NewLogger(cfg.Production())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.ConnectDB(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	logger.Info("MongoDB connection established", zap.String("database", cfg.MongoDB))

	st := store.NewMongo(db)
	if err := st.EnsureIndexes(ctx); err != nil {
		logger.Fatal("Failed to create indexes", zap.Error(err))
	}

	idp := identity.NewLocal(st, cfg.JWTSecret, cfg.TokenTTL)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.NotifierEnabled() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.SESRegion))
		if err != nil {
			logger.Fatal("Failed to load AWS config", zap.Error(err))
		}
		notifier = notify.NewSES(ses.NewFromConfig(awsCfg), cfg.SESSender)
	} else {
		logger.Info("SES_SENDER not set, staff notifications disabled")
	}

	users := services.NewUsers(st, idp, logger)
	issues := services.NewIssues(st, st, users, notifier, logger)

	h := &controllers.Handler{
		Identity: idp,
		Users:    users,
		Issues:   issues,
		Stats:    services.NewStats(st, st, st),
		Log:      logger,
	}
	if cfg.StripeEnabled() {
		h.Payments = services.NewPayments(payments.NewStripe(cfg.StripeSecretKey), st, st, issues,
			services.PaymentsConfig{SiteDomain: cfg.SiteDomain, WebhookSecret: cfg.StripeWebhookSecret}, logger)
	} else {
		logger.Info("STRIPE_SECRET_KEY not set, payment routes disabled")
	}
	if cfg.UploadsEnabled() {
		h.Uploads = uploads.NewPresigner(uploads.Options{
			Bucket:        cfg.S3Bucket,
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	} else {
		logger.Info("S3_BUCKET not set, image uploads disabled")
	}

	guards := routes.Guards{
		Auth:         middlewares.IdentityGate(idp, logger),
		Active:       middlewares.RequireActive(users, logger),
		Admin:        middlewares.RequireAdmin(users, logger),
		Staff:        middlewares.RequireStaff(users, logger),
		StaffOrAdmin: middlewares.RequireRole(users, logger, models.Staff, models.Admin),
	}
	if cfg.RedisEnabled() {
		rdb, err := config.ConnectRedis(cfg.RedisAddress, cfg.RedisPassword)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		guards.IssueLimit = middlewares.IssueRateLimiter(rdb, cfg.IssueLimitQueue, cfg.IssueDailyLimit, logger)
	} else {
		logger.Info("REDIS_ADDRESS not set, issue rate limiting disabled")
	}

	if err := controllers.RegisterValidators(); err != nil {
		logger.Fatal("Failed to register validators", zap.Error(err))
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.Register(r, h, guards)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := config.DisconnectDB(shutdownCtx); err != nil {
		logger.Error("MongoDB disconnect failed", zap.Error(err))
	}
}
