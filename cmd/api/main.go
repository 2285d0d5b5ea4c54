package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"reviewhub/internal/auth"
	"reviewhub/internal/db"
	"reviewhub/internal/domain/storage"
	"reviewhub/internal/helpers"
	"reviewhub/internal/mailer"
	"reviewhub/internal/metrics"
	"reviewhub/internal/notifications"
	"reviewhub/internal/ratelimiter"
	"reviewhub/internal/service/review"
	"reviewhub/internal/service/steward"

	"github.com/9ssi7/exponent"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with color.
func NewLogger(env string) (*zap.SugaredLogger, error) {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if env == "production" {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	} else {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zapcore.InfoLevel)
	return zap.New(core).Sugar(), nil
}

var version = "0.3.0"

//	@title			Reviewhub API
//	@description	Venue reviews, moderation and stewardship.

//	@BasePath					/v1
//	@securityDefinitions.apikey	ApiKeyAuth
//	@in							header
//	@name						Authorization

func main() {
	// .env is optional outside development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := NewLogger(cfg.Env)
	if err != nil {
		fmt.Println("Error creating logger:", err)
		return
	}
	defer logger.Sync()

	// Database
	pool, err := db.New(cfg.DB.Addr, cfg.DB.MaxOpenConns, cfg.DB.MaxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()
	logger.Info("database connection pool established")

	if cfg.DB.Migrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := db.Migrate(ctx, pool)
		cancel()
		if err != nil {
			logger.Fatal(err)
		}
	}

	container := storage.NewContainer(pool)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	// Notifications
	dispatcher := notifications.NewDispatcher(logger)
	dispatcher.Tokens = container.Read().PushTokens

	if cfg.Mail.Host != "" {
		smtp, err := mailer.NewSMTPMailer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.FromEmail)
		if err != nil {
			logger.Fatal(err)
		}
		dispatcher.Mailer = smtp
	} else {
		logger.Warn("SMTP_HOST not set, steward emails disabled")
	}

	if cfg.Push.Enabled {
		expo := exponent.NewClient(exponent.WithAccessToken(cfg.Push.AccessToken))
		dispatcher.Push = notifications.NewExpoAdapter(expo)
	}

	if cfg.Events.URL != "" {
		publisher, err := notifications.NewNatsPublisher(cfg.Events.URL)
		if err != nil {
			logger.Fatal(err)
		}
		defer publisher.Close()
		dispatcher.Events = publisher
	}

	refs, err := helpers.NewRefCodec(cfg.Refs.Salt, cfg.Refs.MinLength)
	if err != nil {
		logger.Fatal(err)
	}

	rateLimiter := ratelimiter.NewFixedWindowLimiter(
		cfg.RateLimiter.RequestsPerTimeFrame,
		cfg.RateLimiter.TimeFrame,
	)
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go rateLimiter.Run(sweepCtx)

	app := &application{
		config:        cfg,
		logger:        logger,
		store:         container,
		reviews:       review.NewLifecycle(container, dispatcher, m, logger),
		stewards:      steward.NewService(container, dispatcher, m, logger),
		authenticator: auth.NewJWTAuthenticator(cfg.Auth.Token.Secret, cfg.Auth.Token.Aud, cfg.Auth.Token.Iss, cfg.Auth.Token.Exp),
		refs:          refs,
		rateLimiter:   rateLimiter,
		metrics:       promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		background:    dispatcher,
		now:           time.Now,
	}

	//Metrics collected http://localhost:8080/v1/debug/vars
	expvar.NewString("version").Set(version)
	expvar.Publish("database", expvar.Func(func() any {
		s := pool.Stat()
		return map[string]int32{
			"total_conns":    s.TotalConns(),
			"idle_conns":     s.IdleConns(),
			"acquired_conns": s.AcquiredConns(),
		}
	}))
	expvar.Publish("goroutines", expvar.Func(func() any {
		return runtime.NumGoroutine()
	}))

	mux := app.mount()

	logger.Fatal(app.run(mux))
}
