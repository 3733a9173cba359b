package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/condorlabs/comprobantes/internal"
	"github.com/condorlabs/comprobantes/internal/auth"
	"github.com/condorlabs/comprobantes/internal/category"
	categorypg "github.com/condorlabs/comprobantes/internal/category/postgres"
	"github.com/condorlabs/comprobantes/internal/client"
	clientpg "github.com/condorlabs/comprobantes/internal/client/postgres"
	"github.com/condorlabs/comprobantes/internal/core/events"
	"github.com/condorlabs/comprobantes/internal/credential"
	credentialpg "github.com/condorlabs/comprobantes/internal/credential/postgres"
	"github.com/condorlabs/comprobantes/internal/expense"
	expensepg "github.com/condorlabs/comprobantes/internal/expense/postgres"
	"github.com/condorlabs/comprobantes/internal/extractor"
	"github.com/condorlabs/comprobantes/internal/notification"
	"github.com/condorlabs/comprobantes/internal/project"
	projectpg "github.com/condorlabs/comprobantes/internal/project/postgres"
	"github.com/condorlabs/comprobantes/internal/sunat"
	"github.com/condorlabs/comprobantes/internal/transport"
	"github.com/condorlabs/comprobantes/internal/transport/rest"
	"github.com/condorlabs/comprobantes/internal/user"
	userpg "github.com/condorlabs/comprobantes/internal/user/postgres"
	"github.com/condorlabs/comprobantes/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type dependencies struct {
	Config    *internal.Config
	DB        *sqlx.DB
	Router    *chi.Mux
	MailQueue *notification.DeliveryQueue
	Logger    *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.MailQueue.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(os.Getenv("APP_ENV"), config.Observability.Logging.Level)
	lg := logger.L()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm connection: %w", err)
	}

	eventBus := events.NewEventBus(lg)

	credentialService := credential.NewService(credentialpg.NewCredentialRepository(gormDB), lg)
	sunatClient := sunat.NewClient(config.Sunat, credentialService, lg)

	ext, err := buildExtractor(config.Extraction, lg)
	if err != nil {
		return nil, err
	}

	userService := user.NewService(userpg.NewUserRepository(gormDB), config.Security.BCryptCost, lg)
	expenseService := expense.NewService(
		expensepg.NewExpenseRepository(gormDB),
		ext,
		sunatClient,
		credentialService,
		eventBus,
		lg,
	)
	clientService := client.NewService(clientpg.NewClientRepository(gormDB), lg)
	projectService := project.NewService(projectpg.NewProjectRepository(gormDB), lg)
	categoryService := category.NewService(categorypg.NewCategoryRepository(gormDB), lg)

	tokenGen := auth.NewJWTTokenGenerator(config.Security.JWTSecret, config.Security.AccessTokenDuration)
	authService := auth.NewService(userService, tokenGen, lg)

	mailer := notification.NewSMTPMailer(config.SMTP)
	mailQueue := notification.NewDeliveryQueue(mailer, notification.QueueConfig{}, lg)
	dispatcher := notification.NewDispatcher(mailQueue, userService, lg)
	dispatcher.RegisterEventHandlers(eventBus)

	router := chi.NewRouter()
	baseHandler := transport.NewBaseHandler(lg)
	rest.RegisterAllRoutes(router, db.DB, rest.Handlers{
		Auth:       auth.NewHandler(authService),
		User:       user.NewHandler(userService),
		Expense:    expense.NewHandler(expenseService),
		Credential: credential.NewHandler(credentialService, sunatClient),
		Client:     client.NewHandler(baseHandler, clientService),
		Project:    project.NewHandler(baseHandler, projectService),
		Category:   category.NewHandler(baseHandler, categoryService),
	}, lg)

	return &dependencies{
		Config:    config,
		Logger:    lg,
		DB:        db,
		Router:    router,
		MailQueue: mailQueue,
	}, nil
}

// buildExtractor picks the configured extraction strategy.
func buildExtractor(cfg internal.ExtractionConfig, lg *slog.Logger) (extractor.Extractor, error) {
	switch cfg.Strategy {
	case "vision":
		return extractor.NewOpenAIVisionExtractor(cfg.OpenAIAPIKey, cfg.VisionModel, lg), nil
	case "ocr":
		return extractor.NewOCRTextExtractor(
			extractor.NewTesseractRecognizer(cfg.OCRLanguage),
			extractor.NewPDFReader(),
			lg,
		), nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy: %q", cfg.Strategy)
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
