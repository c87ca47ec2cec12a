package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/brudebord/rsvp/internal/rsvp/captcha"
	httpapi "github.com/brudebord/rsvp/internal/rsvp/http"
	"github.com/brudebord/rsvp/internal/rsvp/mail"
	"github.com/brudebord/rsvp/internal/rsvp/ratelimit"
	"github.com/brudebord/rsvp/internal/rsvp/service"
	"github.com/brudebord/rsvp/internal/rsvp/store"
	"github.com/brudebord/rsvp/internal/rsvp/store/drivers/sqlite"
	"github.com/brudebord/rsvp/pkg/cryptox"
	"github.com/brudebord/rsvp/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application wires the RSVP service together with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	redisClient *redis.Client
	limiter     *ratelimit.Limiter

	mailWorker   *mail.Worker
	mailCancel   context.CancelFunc
	rsvpService  *service.RSVPService
	linkService  *service.LinkService
	adminService *service.AdminService
	authService  *service.AuthService
	bootService  *service.BootstrapService
	housekeeping *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "rsvp",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initRateLimiter()
	app.initMail()
	app.initServices()

	if err := app.bootstrapAdmin(); err != nil {
		return nil, err
	}

	app.initHTTP()
	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeeping.Start()

	app.logger.Info("rsvp service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down rsvp service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeeping.Stop()

	// Let the mail worker drain queued confirmations before exit.
	app.mailWorker.Close()
	app.mailCancel()

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("rsvp service stopped")
	return nil
}

func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initRateLimiter connects to Redis when configured, with an in-memory
// fallback so a single-node deploy needs no extra infrastructure.
func (app *Application) initRateLimiter() {
	if app.cfg.RateLimitOff {
		app.limiter = ratelimit.NewDisabled()
		app.logger.Warn("rate limiting disabled by config")
		return
	}

	if app.cfg.RedisAddr == "" {
		app.limiter = ratelimit.New(ratelimit.NewMemoryStore())
		app.logger.Info("rate limiting using in-memory store")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.cfg.RedisAddr,
		Password: app.cfg.RedisPassword,
		DB:       app.cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		app.logger.Warn("redis unavailable, falling back to in-memory rate limiting",
			"addr", app.cfg.RedisAddr, "error", err)
		_ = client.Close()
		app.limiter = ratelimit.New(ratelimit.NewMemoryStore())
		return
	}

	app.redisClient = client
	app.limiter = ratelimit.New(ratelimit.NewRedisStore(client))
	app.logger.Info("rate limiting using redis store", "addr", app.cfg.RedisAddr)
}

func (app *Application) initMail() {
	var sender mail.Sender
	if app.cfg.MailEndpoint != "" && app.cfg.MailAPIKey != "" {
		sender = mail.NewClient(app.cfg.MailEndpoint, app.cfg.MailAPIKey, app.cfg.MailFrom)
	} else {
		sender = logSender{logger: app.logger}
		app.logger.Warn("mail provider not configured, logging messages instead")
	}

	app.mailWorker = mail.NewWorker(sender)

	ctx, cancel := context.WithCancel(context.Background())
	app.mailCancel = cancel
	go app.mailWorker.Run(ctx)
}

func (app *Application) initServices() {
	var verifier captcha.Verifier = captcha.NoopVerifier{}
	if app.cfg.CaptchaSecret != "" {
		opts := []captcha.Option{}
		if app.cfg.CaptchaMinScore > 0 {
			opts = append(opts, captcha.WithMinScore(app.cfg.CaptchaMinScore))
		}
		verifier = captcha.NewClient(app.cfg.CaptchaEndpoint, app.cfg.CaptchaSecret, opts...)
	} else {
		app.logger.Warn("captcha secret not configured, challenges are accepted unchecked")
	}

	app.linkService = &service.LinkService{
		Store:         app.db,
		Limiter:       app.limiter,
		Mail:          app.mailWorker,
		BaseURL:       app.cfg.BaseURL,
		TokenTTL:      app.cfg.LinkTokenTTL,
		RequestLimit:  app.cfg.LinkRequestLimit,
		RequestWindow: app.cfg.LinkRequestWindow,
	}

	app.rsvpService = &service.RSVPService{
		Store:   app.db,
		Limiter: app.limiter,
		Captcha: verifier,
		Mail:    app.mailWorker,
		Links:   app.linkService,
		Limits: service.RateLimits{
			DeviceLimit:  app.cfg.DeviceLimit,
			DeviceWindow: app.cfg.DeviceWindow,
			IPLimit:      app.cfg.IPLimit,
			IPWindow:     app.cfg.IPWindow,
			EmailLimit:   app.cfg.EmailLimit,
			EmailWindow:  app.cfg.EmailWindow,
		},
	}

	app.adminService = &service.AdminService{Store: app.db}

	sessionSecret := app.cfg.SessionSecret
	if sessionSecret == "" {
		app.logger.Warn("RSVP_SESSION_SECRET not set, admin sessions reset on restart")
		sessionSecret = randomSecret()
	}
	app.authService = &service.AuthService{
		Store:      app.db,
		Limiter:    app.limiter,
		Secret:     []byte(sessionSecret),
		Issuer:     app.cfg.SessionIssuer,
		SessionTTL: app.cfg.SessionTTL,
	}

	app.bootService = &service.BootstrapService{
		Store:    app.db,
		Username: app.cfg.AdminUsername,
		Password: app.cfg.AdminPassword,
	}

	app.housekeeping = service.NewHousekeepingService(app.db, app.logger, app.cfg.HousekeepingInterval)
}

func (app *Application) bootstrapAdmin() error {
	_, err := app.bootService.Bootstrap(context.Background())
	if err != nil && !errors.Is(err, service.ErrBootstrapAlready) {
		return fmt.Errorf("failed to bootstrap admin account: %w", err)
	}
	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.RSVPService = app.rsvpService
	router.LinkService = app.linkService
	router.AdminService = app.adminService
	router.AuthService = app.authService
	router.BootstrapService = app.bootService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

func randomSecret() string {
	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		// crypto/rand failing is unrecoverable
		panic(fmt.Sprintf("failed to generate session secret: %v", err))
	}
	return secret
}

// logSender stands in for a real provider in development.
type logSender struct {
	logger *slog.Logger
}

func (s logSender) Send(ctx context.Context, msg mail.Message) error {
	s.logger.Info("mail (not sent)", "to", msg.To, "subject", msg.Subject, "text", msg.Text)
	return nil
}
