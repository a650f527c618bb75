package main

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

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	sellcourse "gitlab.com/sellcourse/sellcourse-backend"
	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/repos/postgres"
	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/services/mailer"
	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/services/revocation"
	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/services/s3"
	"gitlab.com/sellcourse/sellcourse-backend/internal/adapters/services/tokens"
	authapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/auth"
	courseapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/course"
	"gitlab.com/sellcourse/sellcourse-backend/internal/application/mail"
	mailevent "gitlab.com/sellcourse/sellcourse-backend/internal/application/mail/event"
	userapp "gitlab.com/sellcourse/sellcourse-backend/internal/application/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/application/verification"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/user"
	"gitlab.com/sellcourse/sellcourse-backend/internal/domain/valueobject/role"
	httpport "gitlab.com/sellcourse/sellcourse-backend/internal/ports/http"
	"gitlab.com/sellcourse/sellcourse-backend/internal/ports/http/middlewares"
	watermillport "gitlab.com/sellcourse/sellcourse-backend/internal/ports/watermill"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/env"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/httpx"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/logging"
	pgpkg "gitlab.com/sellcourse/sellcourse-backend/pkg/postgres"
	"gitlab.com/sellcourse/sellcourse-backend/pkg/watermillx"
)

type Repositories struct {
	User         *postgres.UserRepo
	Verification *postgres.EmailVerificationRepo
	Course       *postgres.CourseRepo
}

type Services struct {
	Tokens  *tokens.Service
	Revoker authapp.Revoker
	Images  courseapp.ImageStorage
	Mail    mailevent.MailSender
}

type Application struct {
	Auth         *authapp.App
	Verification *verification.App
	User         *userapp.App
	Course       *courseapp.App
	Mail         *mail.App
}

func main() {
	if err := run(); err != nil {
		slog.Error("sellcourse api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	env.SetMode(cfg.Mode)

	logOpts := logging.Options{Mode: cfg.Mode, Path: cfg.LogPath}
	if cfg.OTLPEndpoint != "" {
		logOpts.ServiceName = cfg.ServiceName
	}
	_, closeLog := logging.Setup(logOpts)
	defer closeLog()

	shutdownOTel, err := setupOTelSDK(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to set up OpenTelemetry SDK: %w", err)
	}
	defer func() {
		if err := shutdownOTel(context.Background()); err != nil {
			slog.Error("failed to shutdown OpenTelemetry SDK", "error", err)
		}
	}()

	slog.InfoContext(ctx, "starting sellcourse api", "mode", cfg.Mode, "port", cfg.Port)

	pool, err := setupDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	repos := &Repositories{
		User:         postgres.NewUserRepo(pool, nil, nil),
		Verification: postgres.NewEmailVerificationRepo(pool, nil, nil),
		Course:       postgres.NewCourseRepo(pool, nil, nil),
	}

	services, closeServices, err := setupServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeServices()

	apps := setupApplications(cfg, repos, services)

	if err := seedInitialAdmin(ctx, cfg, repos.User); err != nil {
		return err
	}

	eventRouter, err := setupEventProcessing(ctx, pool, apps)
	if err != nil {
		return err
	}
	routerDone := make(chan error, 1)
	go func() {
		routerDone <- eventRouter.Run(ctx)
	}()

	httpServer := setupHTTPServer(cfg, apps, services, repos)
	serverDone := make(chan error, 1)
	go func() {
		slog.InfoContext(ctx, "starting http server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
		close(serverDone)
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-serverDone:
		if err != nil {
			slog.Error("http server error", "error", err)
		}
	case err := <-routerDone:
		if err != nil {
			slog.Error("event router error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "server forced to shutdown", "error", err)
	}
	if err := eventRouter.Close(); err != nil {
		slog.ErrorContext(shutdownCtx, "failed to close event router", "error", err)
	}

	slog.Info("server exited")
	return nil
}

func setupDatabase(ctx context.Context, cfg *Config) (*pgxpool.Pool, error) {
	pool, err := pgpkg.NewPgxPool(ctx, cfg.PgDSN, cfg.Mode)
	if err != nil {
		return nil, fmt.Errorf("failed to create database pool: %w", err)
	}

	if err := pgpkg.Migrate(cfg.PgDSN, sellcourse.Migrations); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return pool, nil
}

func setupServices(ctx context.Context, cfg *Config) (*Services, func(), error) {
	closeFn := func() {}

	key, err := signingKey(cfg)
	if err != nil {
		return nil, closeFn, err
	}

	s := &Services{
		Tokens: tokens.NewService(tokens.Args{
			Keys:       tokens.NewStaticKeySet(key),
			AccessTTL:  cfg.AccessTTL,
			RefreshTTL: cfg.RefreshTTL,
		}),
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := revocation.Ping(ctx, client); err != nil {
			_ = client.Close()
			return nil, closeFn, fmt.Errorf("failed to connect to redis: %w", err)
		}
		closeFn = func() { _ = client.Close() }
		s.Revoker = revocation.NewRedis(revocation.Args{Client: client})
	} else {
		slog.WarnContext(ctx, "REDIS_ADDR not set, token revocation is kept in process")
		s.Revoker = revocation.NewMemory()
	}

	if cfg.S3 != nil {
		client, err := s3.NewClient(ctx, *cfg.S3)
		if err != nil {
			return nil, closeFn, fmt.Errorf("failed to create s3 client: %w", err)
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, closeFn, fmt.Errorf("failed to ensure s3 bucket: %w", err)
		}
		s.Images = client
	} else {
		slog.WarnContext(ctx, "S3_BUCKET not set, course images are kept in memory")
		s.Images = s3.NewMemory()
	}

	if cfg.SMTP != nil {
		smtpSender, err := mailer.NewSMTP(*cfg.SMTP)
		if err != nil {
			return nil, closeFn, fmt.Errorf("failed to create smtp client: %w", err)
		}
		s.Mail = smtpSender
	} else {
		slog.WarnContext(ctx, "SMTP_HOST not set, mails are only logged")
		s.Mail = mailer.NewLog(nil)
	}

	return s, closeFn, nil
}

func signingKey(cfg *Config) (tokens.Key, error) {
	if cfg.JWTSecret == "" {
		slog.Warn("JWT_SECRET not set, using a random key; tokens will not survive a restart")
		return tokens.GenerateKey()
	}
	return tokens.NewKey(cfg.JWTKeyID, []byte(cfg.JWTSecret))
}

func setupApplications(cfg *Config, repos *Repositories, services *Services) *Application {
	verificationApp := verification.NewApp(verification.Args{
		Repo:    repos.Verification,
		BaseURL: cfg.VerificationBaseURL,
		Mode:    cfg.Mode,
	})

	return &Application{
		Verification: verificationApp,
		Auth: authapp.NewApp(authapp.Args{
			Users:    repos.User,
			Verifier: verificationApp,
			Tokens:   services.Tokens,
			Revoker:  services.Revoker,
		}),
		User:   userapp.NewApp(userapp.Args{Repo: repos.User}),
		Course: courseapp.NewApp(courseapp.Args{Repo: repos.Course, Storage: services.Images}),
		Mail: mail.NewApp(mail.Args{
			Mailsender:          services.Mail,
			VerificationBaseURL: cfg.VerificationBaseURL,
			LoginURL:            cfg.LoginURL,
		}),
	}
}

// seedInitialAdmin creates the first ADMIN account. It is a no-op once the
// email is taken.
func seedInitialAdmin(ctx context.Context, cfg *Config, users *postgres.UserRepo) error {
	if cfg.InitialAdminEmail == "" {
		slog.InfoContext(ctx, "skipping initial admin creation, INITIAL_ADMIN_EMAIL not set")
		return nil
	}

	exists, err := users.ExistsByEmail(ctx, cfg.InitialAdminEmail)
	if err != nil {
		return fmt.Errorf("failed to check initial admin: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := user.NewPasswordHash(cfg.InitialAdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash initial admin password: %w", err)
	}
	admin, err := user.Create(user.CreateArgs{
		ID:       user.NewID(),
		Email:    cfg.InitialAdminEmail,
		PassHash: hash,
		Username: "admin",
		Role:     role.Admin,
	})
	if err != nil {
		return fmt.Errorf("failed to create initial admin: %w", err)
	}
	if err := users.SaveUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to save initial admin: %w", err)
	}

	slog.InfoContext(ctx, "initial admin created", logging.Email(cfg.InitialAdminEmail))
	return nil
}

func setupEventProcessing(ctx context.Context, pool *pgxpool.Pool, apps *Application) (*message.Router, error) {
	wlogger := watermillx.NewSlogAdapter(slog.Default(), slog.LevelInfo)

	router, err := message.NewRouter(message.RouterConfig{}, wlogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill router: %w", err)
	}

	if err := watermillx.InitializeEventSchema(ctx, pool, wlogger); err != nil {
		return nil, fmt.Errorf("failed to initialize event schema: %w", err)
	}

	wmport, err := watermillport.NewPort(router, pool, wlogger, watermillx.ProcessorOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create watermill port: %w", err)
	}
	if err := wmport.Run(ctx, watermillport.AppEventHandlers{Mail: apps.Mail}); err != nil {
		return nil, fmt.Errorf("failed to run watermill port: %w", err)
	}

	return router, nil
}

func setupHTTPServer(cfg *Config, apps *Application, services *Services, repos *Repositories) *http.Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewares.OTel)
	router.Use(middlewares.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Accept-Language"},
		AllowCredentials: true,
	}).Handler)

	errhandler := httpx.NewErrorHandler()
	mw := middlewares.NewMiddleware(middlewares.Args{
		Tokens:     services.Tokens,
		Revoked:    services.Revoker,
		Users:      repos.User,
		Errhandler: errhandler,
	})

	httpport.NewPort(httpport.Args{
		AuthApp:      apps.Auth,
		Verification: apps.Verification,
		UserApp:      apps.User,
		CourseApp:    apps.Course,
		Middleware:   mw,
		Errhandler:   errhandler,
		Mode:         cfg.Mode,
		ImageBaseURL: cfg.ImageBaseURL,
	}).Route(router)

	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
