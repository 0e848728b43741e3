package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pranshh/library-management-mad2/internal/audit"
	"github.com/pranshh/library-management-mad2/internal/auth"
	"github.com/pranshh/library-management-mad2/internal/config"
	"github.com/pranshh/library-management-mad2/internal/database"
	dbaudit "github.com/pranshh/library-management-mad2/internal/database/audit"
	"github.com/pranshh/library-management-mad2/internal/database/catalog"
	"github.com/pranshh/library-management-mad2/internal/database/stats"
	http_controllers "github.com/pranshh/library-management-mad2/internal/http"
	"github.com/pranshh/library-management-mad2/internal/joblock"
	"github.com/pranshh/library-management-mad2/internal/lending"
	"github.com/pranshh/library-management-mad2/internal/mailer"
	"github.com/pranshh/library-management-mad2/internal/scheduler"
	"github.com/pranshh/library-management-mad2/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// App holds the services shared by the HTTP server and the CLI commands.
type App struct {
	Config   *config.Config
	DB       *database.Database
	Auditor  *audit.Service
	Accounts *auth.Service
	Lending  *lending.Service
	Catalog  *catalog.Repository
	Stats    *stats.Repository
	Mailer   mailer.Sender
}

// NewApp opens the database and builds the domain services. A missing JWT
// secret is replaced with a random one, so issued tokens die with the process.
func NewApp(cfg *config.Config) (*App, error) {
	db, err := database.NewDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if cfg.Auth.JWTSecret == "" {
		secret, err := auth.GenerateSecret()
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		cfg.Auth.JWTSecret = secret
		log.Printf("Generated JWT secret (set JWT_SECRET to keep tokens valid across restarts)")
	}

	auditor := audit.NewService(dbaudit.NewRepository(db.DB))
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)

	return &App{
		Config:   cfg,
		DB:       db,
		Auditor:  auditor,
		Accounts: auth.NewService(db.DB, cfg.Auth, tokens, auditor),
		Lending:  lending.NewService(db.DB, auditor),
		Catalog:  catalog.NewRepository(db.DB),
		Stats:    stats.NewRepository(db.DB),
		Mailer:   mailer.New(cfg.Mail),
	}, nil
}

// TaskDeps returns what the background task processors need.
func (a *App) TaskDeps() tasks.Deps {
	return tasks.Deps{
		Loans:              a.Lending,
		Borrowers:          a.Lending,
		Reports:            a.Stats,
		AuditCleaner:       a.Auditor,
		Mailer:             a.Mailer,
		Auditor:            a.Auditor,
		LibrarianAddress:   a.Config.Mail.LibrarianAddress,
		AuditRetentionDays: a.Config.Audit.RetentionDays,
	}
}

// Close flushes pending audit writes and closes the database.
func (a *App) Close() error {
	a.Auditor.Wait()
	return a.DB.Close()
}

// newTaskQueue returns the persistent backlite queue when tasks are enabled,
// with its queues registered but not started. Otherwise jobs run inline and
// the returned client is nil.
func newTaskQueue(cfg *config.Config, deps tasks.Deps) (tasks.Queue, *tasks.Client, error) {
	if !cfg.Tasks.Enabled {
		log.Printf("Task queue disabled: jobs will run inline")
		return tasks.NewRunner(deps), nil, nil
	}

	client, err := tasks.NewClient(tasks.ConfigFrom(cfg.Tasks, cfg.Database.Path))
	if err != nil {
		return nil, nil, err
	}
	tasks.RegisterQueues(client, deps)
	return client, client, nil
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 sends SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Background work stops after the listener so in-flight requests can
	// still enqueue.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Library Management v%s", version)

	app, err := NewApp(cfg)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	created, err := app.Accounts.EnsureLibrarian(context.Background(), cfg.Librarian)
	if err != nil {
		log.Fatalf("Failed to seed librarian account: %v", err)
	}
	if created {
		log.Printf("Created librarian account %s", cfg.Librarian.Email)
		if cfg.Librarian.UsesDefaultPassword() {
			log.Printf("WARNING: librarian account uses the default password. Set LIBRARIAN_PASSWORD or change it after first login.")
		}
	}

	if !cfg.Mail.Enabled {
		log.Printf("Mail delivery disabled: outgoing messages will be logged")
	}

	deps := app.TaskDeps()

	queue, taskClient, err := newTaskQueue(cfg, deps)
	if err != nil {
		log.Fatalf("Failed to initialize task queue: %v", err)
	}
	var taskCtxCancel context.CancelFunc
	if taskClient != nil {
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Redis is optional; without it every replica fires every job.
	var locker scheduler.Locker
	jobLock, err := joblock.Connect(context.Background(), cfg.Redis.URL)
	if err != nil {
		log.Printf("WARNING: %v. Scheduled jobs will run without a replica lock.", err)
	} else {
		locker = jobLock
		defer jobLock.Close()
	}

	sched := scheduler.New(scheduler.DefaultJobs(cfg.Scheduler), queue, locker, cfg.Scheduler.LockTTL, app.Auditor)
	if cfg.Scheduler.Enabled {
		if err := sched.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
	} else {
		log.Printf("Scheduler disabled: periodic jobs run only on demand")
	}

	rateLimiter := auth.NewRateLimiter(cfg.Auth)

	routerCfg := http_controllers.RouterConfig{
		Catalog:        app.Catalog,
		Loans:          app.Lending,
		Feedback:       app.Lending,
		Stats:          app.Stats,
		Database:       app.DB,
		Auditor:        app.Auditor,
		Accounts:       app.Accounts,
		Profiles:       app.Accounts,
		AuthMiddleware: auth.NewMiddleware(app.Accounts),
		RateLimiter:    rateLimiter,
		AuditLog:       app.Auditor,
		TaskQueue:      queue,
		Scheduler:      sched,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableHSTS:     cfg.HTTP.HSTS,
		Version:        version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		sched.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		rateLimiter.Stop()
	}

	Serve(router, cfg, onShutdown)
}
