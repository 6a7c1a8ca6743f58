package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"contrib.go.opencensus.io/integrations/ocsql"

	"github.com/dealflow/crm/config"
	"github.com/dealflow/crm/internal/database"
	"github.com/dealflow/crm/internal/domain"
	httpHandler "github.com/dealflow/crm/internal/http"
	"github.com/dealflow/crm/internal/http/middleware"
	"github.com/dealflow/crm/internal/repository"
	"github.com/dealflow/crm/internal/service"
	"github.com/dealflow/crm/pkg/cache"
	"github.com/dealflow/crm/pkg/crypto"
	"github.com/dealflow/crm/pkg/logger"
	"github.com/dealflow/crm/pkg/ratelimiter"
	"github.com/dealflow/crm/pkg/tracing"
)

type shutdownContextKey struct{}

// AppInterface defines the interface for the App
type AppInterface interface {
	Initialize() error
	Start() error
	Shutdown(ctx context.Context) error

	// Getters for app components accessed in tests
	GetConfig() *config.Config
	GetLogger() logger.Logger
	GetMux() *http.ServeMux
	GetDB() *sql.DB
	Handler() http.Handler

	// Repository getters for testing
	GetUserRepository() domain.UserRepository
	GetContactRepository() domain.ContactRepository
	GetDealRepository() domain.DealRepository
	GetTaskRepository() domain.TaskRepository

	// Server status methods
	IsServerCreated() bool
	WaitForServerStart(ctx context.Context) bool

	// Methods for initialization steps
	InitDB() error
	InitTracing() error
	InitRepositories() error
	InitServices() error
	InitHandlers() error

	// Graceful shutdown methods
	SetShutdownTimeout(timeout time.Duration)
	GetActiveRequestCount() int64
	GetShutdownContext() context.Context
}

// App encapsulates the application dependencies and configuration
type App struct {
	config *config.Config
	logger logger.Logger
	db     *sql.DB

	// Repositories
	userRepo      domain.UserRepository
	contactRepo   domain.ContactRepository
	dealRepo      domain.DealRepository
	taskRepo      domain.TaskRepository
	analyticsRepo domain.AnalyticsRepository
	seedRepo      domain.SeedRepository

	// Services
	authService      *service.AuthService
	oauthService     *service.OAuthService
	userService      *service.UserService
	contactService   *service.ContactService
	dealService      *service.DealService
	taskService      *service.TaskService
	demoService      *service.DemoService
	analyticsService *service.AnalyticsService

	// stopDBStats ends ocsql pool stats recording
	stopDBStats func()

	oauthStates *cache.TTLCache[time.Time]
	limiter     *ratelimiter.Limiter
	httpClient  *http.Client

	// HTTP server
	mux    *http.ServeMux
	server *http.Server

	// Server synchronization
	serverMu      sync.RWMutex
	serverStarted chan struct{}

	// Graceful shutdown
	shutdownCtx     context.Context
	shutdownCancel  context.CancelFunc
	activeRequests  int64
	requestWg       sync.WaitGroup
	shutdownTimeout time.Duration
}

// AppOption defines a functional option for configuring the App
type AppOption func(*App)

// WithMockDB configures the app to use a mock database
func WithMockDB(db *sql.DB) AppOption {
	return func(a *App) {
		a.db = db
	}
}

// WithLogger sets a custom logger
func WithLogger(logger logger.Logger) AppOption {
	return func(a *App) {
		a.logger = logger
	}
}

// WithHTTPClient sets the client used for calls to the identity provider
func WithHTTPClient(client *http.Client) AppOption {
	return func(a *App) {
		a.httpClient = client
	}
}

// NewApp creates a new application instance
func NewApp(cfg *config.Config, opts ...AppOption) AppInterface {
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	app := &App{
		config:          cfg,
		logger:          logger.NewLoggerWithLevel(cfg.LogLevel),
		mux:             http.NewServeMux(),
		serverStarted:   make(chan struct{}),
		shutdownCtx:     shutdownCtx,
		shutdownCancel:  shutdownCancel,
		shutdownTimeout: 30 * time.Second,
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// InitTracing initializes OpenCensus tracing
func (a *App) InitTracing() error {
	if err := tracing.InitTracing(&a.config.Tracing, a.logger); err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	return nil
}

// InitDB connects to PostgreSQL and creates the schema. A database injected
// with WithMockDB is kept as is. With tracing enabled, connection pool stats
// are recorded until shutdown.
func (a *App) InitDB() error {
	if a.db == nil {
		if err := a.openDB(); err != nil {
			return err
		}
	}

	if a.config.Tracing.Enabled {
		a.stopDBStats = ocsql.RecordStats(a.db, 5*time.Second)
	}
	return nil
}

func (a *App) openDB() error {
	a.logger.WithFields(map[string]interface{}{
		"host":    a.config.Database.Host,
		"port":    a.config.Database.Port,
		"user":    a.config.Database.User,
		"dbname":  a.config.Database.DBName,
		"sslmode": a.config.Database.SSLMode,
	}).Info("Connecting to database")

	if err := database.EnsureSystemDatabaseExists(database.GetPostgresDSN(&a.config.Database), a.config.Database.DBName); err != nil {
		return fmt.Errorf("failed to ensure database exists: %w", err)
	}

	driverName := "postgres"
	if a.config.Tracing.Enabled {
		var err error
		driverName, err = ocsql.Register(driverName, ocsql.WithAllTraceOptions())
		if err != nil {
			return fmt.Errorf("failed to register opencensus sql driver: %w", err)
		}
		a.logger.Info("Database driver wrapped with OpenCensus tracing")
	}

	db, err := sql.Open(driverName, database.GetSystemDSN(&a.config.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err := database.InitializeDatabase(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	database.ConfigurePool(db)

	a.db = db
	return nil
}

// InitRepositories initializes all repositories
func (a *App) InitRepositories() error {
	if a.db == nil {
		return fmt.Errorf("database must be initialized before repositories")
	}

	a.userRepo = repository.NewUserRepository(a.db)
	a.contactRepo = repository.NewContactRepository(a.db)
	a.dealRepo = repository.NewDealRepository(a.db)
	a.taskRepo = repository.NewTaskRepository(a.db)
	a.analyticsRepo = repository.NewAnalyticsRepository(a.db, a.logger)
	a.seedRepo = repository.NewSeedRepository(a.db)

	return nil
}

// InitServices initializes all application services
func (a *App) InitServices() error {
	var err error
	a.authService, err = service.NewAuthService(service.AuthServiceConfig{
		Repository: a.userRepo,
		PrivateKey: a.config.Security.PasetoPrivateKeyBytes,
		PublicKey:  a.config.Security.PasetoPublicKeyBytes,
		SessionTTL: a.config.Session.MaxAge,
		Logger:     a.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create auth service: %w", err)
	}

	sealer, err := crypto.NewSealer(a.config.Security.SecretKey, "google-refresh-token")
	if err != nil {
		return fmt.Errorf("failed to create token sealer: %w", err)
	}

	client := a.httpClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	a.oauthStates = cache.New[time.Time](time.Minute)
	a.oauthService = service.NewOAuthService(
		service.NewGoogleProvider(a.config.OAuth, client),
		a.userRepo,
		a.oauthStates,
		sealer,
		a.logger,
	)

	a.limiter = ratelimiter.New()
	a.limiter.SetPolicy(httpHandler.LoginRateLimitNamespace, a.config.RateLimit.AuthMaxAttempts, a.config.RateLimit.AuthWindow)
	a.limiter.SetPolicy(httpHandler.CallbackRateLimitNamespace, a.config.RateLimit.AuthMaxAttempts, a.config.RateLimit.AuthWindow)

	a.userService = service.NewUserService(a.userRepo, a.logger)
	a.contactService = service.NewContactService(a.contactRepo, a.logger)
	a.dealService = service.NewDealService(a.dealRepo, a.contactRepo, a.logger)
	a.taskService = service.NewTaskService(a.taskRepo, a.contactRepo, a.logger)
	a.demoService = service.NewDemoService(a.seedRepo, a.logger)
	a.analyticsService = service.NewAnalyticsService(a.analyticsRepo, a.logger)

	return nil
}

// InitHandlers initializes all HTTP handlers and routes
func (a *App) InitHandlers() error {
	// Create a new ServeMux to avoid route conflicts on restart
	a.mux = http.NewServeMux()

	cookie := httpHandler.SessionCookie{
		Name:   a.config.Session.CookieName,
		Domain: a.config.Session.CookieDomain,
		MaxAge: a.config.Session.MaxAge,
		Secure: !a.config.IsDevelopment(),
	}
	auth := middleware.NewAuthMiddleware(a.authService, cookie.Name, a.logger)

	proxies, err := httpHandler.ParseTrustedProxies(a.config.Server.TrustedProxies)
	if err != nil {
		return fmt.Errorf("failed to parse trusted proxies: %w", err)
	}

	httpHandler.NewRootHandler(a.config.Version).RegisterRoutes(a.mux)
	httpHandler.NewAuthHandler(a.oauthService, a.authService, a.limiter, proxies, cookie, a.config.FrontendURL, a.logger).
		RegisterRoutes(a.mux, auth.RequireAuth, auth.OptionalAuth)
	httpHandler.NewUserHandler(a.userService, cookie, a.logger).RegisterRoutes(a.mux, auth.RequireAuth)
	httpHandler.NewContactHandler(a.contactService, a.logger).RegisterRoutes(a.mux, auth.RequireAuth)
	httpHandler.NewDealHandler(a.dealService, a.logger).RegisterRoutes(a.mux, auth.RequireAuth)
	httpHandler.NewTaskHandler(a.taskService, a.logger).RegisterRoutes(a.mux, auth.RequireAuth)
	httpHandler.NewAnalyticsHandler(a.analyticsService, a.logger).RegisterRoutes(a.mux, auth.RequireAuth)
	httpHandler.NewDemoHandler(a.demoService, a.logger).RegisterRoutes(a.mux, auth.RequireAuth)

	return nil
}

// Handler returns the mux wrapped in the middleware chain. CORS is
// outermost so preflights are answered even during shutdown.
func (a *App) Handler() http.Handler {
	var handler http.Handler = a.mux

	handler = a.gracefulShutdownMiddleware(handler)

	if a.config.Tracing.Enabled {
		handler = middleware.TracingMiddleware(handler)
	}

	return middleware.CORSMiddleware(a.config.CORSOrigin)(handler)
}

// Start starts the HTTP server
func (a *App) Start() error {
	addr := fmt.Sprintf("%s:%d", a.config.Server.Host, a.config.Server.Port)
	a.logger.WithField("address", addr).
		WithField("api_endpoint", a.config.APIEndpoint).
		Info("Server starting")

	a.serverMu.Lock()
	if a.serverStarted != nil {
		select {
		case <-a.serverStarted:
		default:
			close(a.serverStarted)
		}
	}
	a.serverStarted = make(chan struct{})

	a.server = &http.Server{
		Addr:              addr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverStarted := a.serverStarted
	a.serverMu.Unlock()

	close(serverStarted)

	if a.config.Server.SSL.Enabled {
		a.logger.WithField("cert_file", a.config.Server.SSL.CertFile).Info("SSL enabled")
		return a.server.ListenAndServeTLS(a.config.Server.SSL.CertFile, a.config.Server.SSL.KeyFile)
	}

	return a.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Starting graceful shutdown...")

	a.shutdownCancel()

	a.serverMu.RLock()
	server := a.server
	a.serverMu.RUnlock()

	if server == nil {
		a.logger.Info("No server to shutdown")
		return a.cleanupResources(ctx)
	}

	a.logger.WithField("active_requests", a.getActiveRequestCount()).Info("Active requests at shutdown start")

	shutdownTimeout := a.shutdownTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < shutdownTimeout {
			shutdownTimeout = remaining - time.Second
			if shutdownTimeout < 0 {
				shutdownTimeout = 0
			}
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	serverShutdownDone := make(chan error, 1)
	go func() {
		a.logger.WithField("timeout", shutdownTimeout).Info("Starting HTTP server shutdown")
		serverShutdownDone <- server.Shutdown(shutdownCtx)
	}()

	requestsDone := make(chan struct{})
	go func() {
		a.requestWg.Wait()
		close(requestsDone)
	}()

	var shutdownErr error
	select {
	case err := <-serverShutdownDone:
		shutdownErr = err
		a.logger.Info("HTTP server shutdown completed")
	case <-shutdownCtx.Done():
		a.logger.Warn("Shutdown timeout reached")
		shutdownErr = fmt.Errorf("shutdown timeout exceeded")
	}

	if shutdownErr == nil {
		select {
		case <-requestsDone:
		case <-time.After(2 * time.Second):
			if activeCount := a.getActiveRequestCount(); activeCount > 0 {
				a.logger.WithField("active_requests", activeCount).Warn("Some requests still active, proceeding with shutdown")
			}
		}
	}

	if cleanupErr := a.cleanupResources(ctx); cleanupErr != nil && shutdownErr == nil {
		shutdownErr = cleanupErr
	}

	if shutdownErr != nil {
		a.logger.WithField("error", shutdownErr.Error()).Error("Graceful shutdown completed with errors")
	} else {
		a.logger.Info("Graceful shutdown completed successfully")
	}

	return shutdownErr
}

// cleanupResources stops background janitors and closes the database
func (a *App) cleanupResources(ctx context.Context) error {
	a.logger.Info("Cleaning up resources...")

	if a.oauthStates != nil {
		a.oauthStates.Stop()
	}
	if a.limiter != nil {
		a.limiter.Stop()
	}

	if a.stopDBStats != nil {
		a.stopDBStats()
		a.stopDBStats = nil
	}

	if a.db != nil {
		a.logger.Info("Closing database connection")
		if err := a.db.Close(); err != nil {
			a.logger.WithField("error", err.Error()).Error("Error closing database connection")
			return err
		}
	}

	a.logger.Info("Resource cleanup completed")
	return nil
}

// IsServerCreated safely checks if the server has been created
func (a *App) IsServerCreated() bool {
	a.serverMu.RLock()
	defer a.serverMu.RUnlock()
	return a.server != nil
}

// WaitForServerStart waits for the server to be created.
// Returns false if ctx expires first.
func (a *App) WaitForServerStart(ctx context.Context) bool {
	a.serverMu.RLock()
	started := a.serverStarted
	a.serverMu.RUnlock()

	if started == nil {
		<-ctx.Done()
		return false
	}

	select {
	case <-started:
		return a.IsServerCreated()
	case <-ctx.Done():
		return false
	}
}

// Initialize sets up all components of the application
func (a *App) Initialize() error {
	a.logger.WithField("version", a.config.Version).Info("Starting CRM API")

	if err := a.InitTracing(); err != nil {
		return err
	}

	if err := a.InitDB(); err != nil {
		return err
	}

	if err := a.InitRepositories(); err != nil {
		return err
	}

	if err := a.InitServices(); err != nil {
		return err
	}

	if err := a.InitHandlers(); err != nil {
		return err
	}

	a.logger.Info("Application successfully initialized")
	return nil
}

func (a *App) GetConfig() *config.Config {
	return a.config
}

func (a *App) GetLogger() logger.Logger {
	return a.logger
}

func (a *App) GetMux() *http.ServeMux {
	return a.mux
}

func (a *App) GetDB() *sql.DB {
	return a.db
}

func (a *App) GetUserRepository() domain.UserRepository {
	return a.userRepo
}

func (a *App) GetContactRepository() domain.ContactRepository {
	return a.contactRepo
}

func (a *App) GetDealRepository() domain.DealRepository {
	return a.dealRepo
}

func (a *App) GetTaskRepository() domain.TaskRepository {
	return a.taskRepo
}

func (a *App) incrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, 1)
	a.requestWg.Add(1)
}

func (a *App) decrementActiveRequests() {
	atomic.AddInt64(&a.activeRequests, -1)
	a.requestWg.Done()
}

func (a *App) getActiveRequestCount() int64 {
	return atomic.LoadInt64(&a.activeRequests)
}

// GetActiveRequestCount returns the current number of in-flight requests
func (a *App) GetActiveRequestCount() int64 {
	return a.getActiveRequestCount()
}

// SetShutdownTimeout sets the timeout for graceful shutdown
func (a *App) SetShutdownTimeout(timeout time.Duration) {
	a.shutdownTimeout = timeout
	a.logger.WithField("shutdown_timeout", timeout.String()).Info("Shutdown timeout configured")
}

// GetShutdownContext returns a context cancelled when shutdown begins
func (a *App) GetShutdownContext() context.Context {
	return a.shutdownCtx
}

func (a *App) isShuttingDown() bool {
	select {
	case <-a.shutdownCtx.Done():
		return true
	default:
		return false
	}
}

// gracefulShutdownMiddleware tracks in-flight requests and turns new ones
// away with 503 once shutdown has begun
func (a *App) gracefulShutdownMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.isShuttingDown() {
			httpHandler.WriteJSONError(w, "Server is shutting down", http.StatusServiceUnavailable)
			return
		}

		a.incrementActiveRequests()
		defer a.decrementActiveRequests()

		ctx := context.WithValue(r.Context(), shutdownContextKey{}, a.shutdownCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Ensure App implements AppInterface
var _ AppInterface = (*App)(nil)
