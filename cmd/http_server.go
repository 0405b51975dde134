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

	"github.com/dimasprabowo/procurement-management/internal"
	"github.com/dimasprabowo/procurement-management/internal/auth"
	authpostgres "github.com/dimasprabowo/procurement-management/internal/auth/postgres"
	"github.com/dimasprabowo/procurement-management/internal/budget"
	budgetpostgres "github.com/dimasprabowo/procurement-management/internal/budget/postgres"
	"github.com/dimasprabowo/procurement-management/internal/core/events"
	"github.com/dimasprabowo/procurement-management/internal/indent"
	indentpostgres "github.com/dimasprabowo/procurement-management/internal/indent/postgres"
	"github.com/dimasprabowo/procurement-management/internal/notification"
	"github.com/dimasprabowo/procurement-management/internal/rfp"
	"github.com/dimasprabowo/procurement-management/internal/supplier"
	supplierpostgres "github.com/dimasprabowo/procurement-management/internal/supplier/postgres"
	"github.com/dimasprabowo/procurement-management/internal/transport/rest"
	"github.com/dimasprabowo/procurement-management/internal/workflow"
	workflowpostgres "github.com/dimasprabowo/procurement-management/internal/workflow/postgres"
	"github.com/dimasprabowo/procurement-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	GormDB *gorm.DB
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) {
	cfg := deps.Config
	lg := deps.Logger
	db := deps.GormDB

	eventBus := events.NewEventBus(lg)

	var mailer auth.Mailer
	if cfg.Mailer.SMTPHost != "" {
		mailer = notification.NewSMTPMailer(cfg.Mailer)
	} else {
		mailer = notification.NoopMailer{}
	}
	notifier := notification.NewNotifier(mailer, cfg.Mailer.ProcurementInbox, lg)
	notifier.Register(eventBus)

	// Auth
	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authRepo := authpostgres.NewAuthRepository(db)
	authService := auth.NewService(authRepo, tokenGen, mailer, cfg.Security.OTPTTL, lg)
	authHandler := auth.NewHandler(authService)

	authorizer := workflow.NewAuthorizer(lg)

	// Workflow configuration
	workflowRepo := workflowpostgres.NewWorkflowRepository(db)
	workflowService := workflow.NewService(workflowRepo, lg)
	workflowHandler := workflow.NewHandler(workflowService)

	// Indents
	renderer := rfp.NewRenderer(cfg.RFP)
	indentRepo := indentpostgres.NewIndentRepository(db)
	indentTxm := indentpostgres.NewTxManager(db)
	indentService := indent.NewService(indentTxm, indentRepo, authorizer, renderer, eventBus, lg)
	indentHandler := indent.NewHandler(indentService)

	// Suppliers
	supplierRepo := supplierpostgres.NewSupplierRepository(db)
	supplierTxm := supplierpostgres.NewTxManager(db)
	supplierService := supplier.NewService(supplierTxm, supplierRepo, authorizer, eventBus, lg)
	supplierHandler := supplier.NewHandler(supplierService)

	// Budgets and departments
	budgetRepo := budgetpostgres.NewBudgetRepository(db)
	budgetService := budget.NewService(budgetRepo, lg)
	budgetHandler := budget.NewHandler(budgetService)

	rest.RegisterAllRoutes(deps.Router, deps.DB.DB, authHandler, indentHandler, supplierHandler, workflowHandler, budgetHandler, lg)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Logging.Level, config.Logging.Format)

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	return &Dependencies{
		Config: config,
		Logger: logger.LoggerWrapper(),
		DB:     db,
		GormDB: gormDB,
		Router: chi.NewRouter(),
	}, nil
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
