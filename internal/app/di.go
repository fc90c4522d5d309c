// Package app provides the dependency injection container for assembling
// application components.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditRepository "github.com/allisson/authcore/internal/audit/repository"
	auditUsecase "github.com/allisson/authcore/internal/audit/usecase"
	"github.com/allisson/authcore/internal/config"
	"github.com/allisson/authcore/internal/database"
	maintenanceUsecase "github.com/allisson/authcore/internal/maintenance/usecase"
	"github.com/allisson/authcore/internal/metrics"
	principalRepository "github.com/allisson/authcore/internal/principal/repository"
	principalUsecase "github.com/allisson/authcore/internal/principal/usecase"
	ratelimitRepository "github.com/allisson/authcore/internal/ratelimit/repository"
	ratelimitUsecase "github.com/allisson/authcore/internal/ratelimit/usecase"
	tokenRepository "github.com/allisson/authcore/internal/token/repository"
	tokenService "github.com/allisson/authcore/internal/token/service"
	tokenUsecase "github.com/allisson/authcore/internal/token/usecase"
)

// Composite repository views. The concrete repositories satisfy both the
// business interface and the maintenance store, so the container holds one
// instance per table and hands out the narrow view each consumer needs.
type refreshTokenRepository interface {
	tokenUsecase.RefreshTokenRepository
	maintenanceUsecase.RefreshTokenStore
}

type blacklistRepository interface {
	tokenUsecase.BlacklistRepository
	maintenanceUsecase.BlacklistStore
}

type rateLimitRepository interface {
	ratelimitUsecase.RateLimitRepository
	maintenanceUsecase.RateLimitStore
}

type auditEventRepository interface {
	auditUsecase.AuditEventRepository
	maintenanceUsecase.AuditEventStore
}

type principalRepositoryView interface {
	principalUsecase.PrincipalRepository
	maintenanceUsecase.PrincipalStore
}

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	db              *sql.DB
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics

	// Managers
	txManager database.TxManager

	// Repositories
	refreshTokenRepo refreshTokenRepository
	blacklistRepo    blacklistRepository
	rateLimitRepo    rateLimitRepository
	auditRepo        auditEventRepository
	principalRepo    principalRepositoryView

	// Services
	accessTokenService   tokenService.AccessTokenService
	refreshSecretService tokenService.RefreshSecretService

	// Use Cases
	issuerUseCase    tokenUsecase.IssuerUseCase
	verifierUseCase  tokenUsecase.VerifierUseCase
	rateLimitUseCase ratelimitUsecase.RateLimitUseCase
	auditUseCase     auditUsecase.AuditUseCase
	lockoutUseCase   principalUsecase.LockoutUseCase
	sweeperUseCase   maintenanceUsecase.SweeperUseCase

	// Workers
	scheduler *maintenanceUsecase.Scheduler

	// Initialization flags and mutex for thread-safety
	mu                   sync.Mutex
	loggerInit           sync.Once
	dbInit               sync.Once
	metricsProviderInit  sync.Once
	businessMetricsInit  sync.Once
	txManagerInit        sync.Once
	refreshTokenRepoInit sync.Once
	blacklistRepoInit    sync.Once
	rateLimitRepoInit    sync.Once
	auditRepoInit        sync.Once
	principalRepoInit    sync.Once
	accessServiceInit    sync.Once
	secretServiceInit    sync.Once
	issuerInit           sync.Once
	verifierInit         sync.Once
	rateLimitInit        sync.Once
	auditInit            sync.Once
	lockoutInit          sync.Once
	sweeperInit          sync.Once
	schedulerInit        sync.Once
	initErrors           map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// DB returns the database connection.
// It creates and configures the database connection on first access.
func (c *Container) DB() (*sql.DB, error) {
	c.dbInit.Do(func() {
		db, err := database.Connect(database.Config{
			Driver:             c.config.DBDriver,
			ConnectionString:   c.config.DBConnectionString,
			MaxOpenConnections: c.config.DBMaxOpenConnections,
			MaxIdleConnections: c.config.DBMaxIdleConnections,
			ConnMaxLifetime:    c.config.DBConnMaxLifetime,
		})
		if err != nil {
			c.initErrors["db"] = fmt.Errorf("failed to connect to database: %w", err)
			return
		}
		c.db = db
	})
	if err, exists := c.initErrors["db"]; exists {
		return nil, err
	}
	return c.db, nil
}

// MetricsProvider returns the Prometheus-backed metrics provider. It is only
// created when metrics are enabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = fmt.Errorf("failed to create metrics provider: %w", err)
			return
		}
		c.metricsProvider = provider
	})
	if err, exists := c.initErrors["metricsProvider"]; exists {
		return nil, err
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. When metrics are
// disabled, a no-op implementation is returned so use cases never branch on
// the setting.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		if !c.config.MetricsEnabled {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = fmt.Errorf("failed to create business metrics: %w", err)
			return
		}
		c.businessMetrics = bm
	})
	if err, exists := c.initErrors["businessMetrics"]; exists {
		return nil, err
	}
	return c.businessMetrics, nil
}

// TxManager returns the transaction manager.
func (c *Container) TxManager() (database.TxManager, error) {
	c.txManagerInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["txManager"] = fmt.Errorf("failed to get database for tx manager: %w", err)
			return
		}
		c.txManager = database.NewTxManager(db)
	})
	if err, exists := c.initErrors["txManager"]; exists {
		return nil, err
	}
	return c.txManager, nil
}

// RefreshTokenRepository returns the refresh token repository instance.
func (c *Container) RefreshTokenRepository() (tokenUsecase.RefreshTokenRepository, error) {
	if err := c.initRefreshTokenRepo(); err != nil {
		return nil, err
	}
	return c.refreshTokenRepo, nil
}

// BlacklistRepository returns the blacklist repository instance.
func (c *Container) BlacklistRepository() (tokenUsecase.BlacklistRepository, error) {
	if err := c.initBlacklistRepo(); err != nil {
		return nil, err
	}
	return c.blacklistRepo, nil
}

// RateLimitRepository returns the rate limit repository instance.
func (c *Container) RateLimitRepository() (ratelimitUsecase.RateLimitRepository, error) {
	if err := c.initRateLimitRepo(); err != nil {
		return nil, err
	}
	return c.rateLimitRepo, nil
}

// AuditEventRepository returns the audit event repository instance.
func (c *Container) AuditEventRepository() (auditUsecase.AuditEventRepository, error) {
	if err := c.initAuditRepo(); err != nil {
		return nil, err
	}
	return c.auditRepo, nil
}

// PrincipalRepository returns the principal repository instance.
func (c *Container) PrincipalRepository() (principalUsecase.PrincipalRepository, error) {
	if err := c.initPrincipalRepo(); err != nil {
		return nil, err
	}
	return c.principalRepo, nil
}

// AccessTokenService returns the access token signing service.
func (c *Container) AccessTokenService() (tokenService.AccessTokenService, error) {
	c.accessServiceInit.Do(func() {
		service, err := tokenService.NewAccessTokenService(c.config.JWTSecret)
		if err != nil {
			c.initErrors["accessTokenService"] = fmt.Errorf("failed to create access token service: %w", err)
			return
		}
		c.accessTokenService = service
	})
	if err, exists := c.initErrors["accessTokenService"]; exists {
		return nil, err
	}
	return c.accessTokenService, nil
}

// RefreshSecretService returns the refresh secret service.
func (c *Container) RefreshSecretService() tokenService.RefreshSecretService {
	c.secretServiceInit.Do(func() {
		c.refreshSecretService = tokenService.NewRefreshSecretService()
	})
	return c.refreshSecretService
}

// IssuerUseCase returns the credential issuance use case.
func (c *Container) IssuerUseCase() (tokenUsecase.IssuerUseCase, error) {
	c.issuerInit.Do(func() {
		refreshRepo, err := c.RefreshTokenRepository()
		if err != nil {
			c.initErrors["issuerUseCase"] = err
			return
		}
		accessService, err := c.AccessTokenService()
		if err != nil {
			c.initErrors["issuerUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["issuerUseCase"] = err
			return
		}

		useCase := tokenUsecase.NewIssuerUseCase(c.config, refreshRepo, accessService, c.RefreshSecretService())
		c.issuerUseCase = tokenUsecase.NewIssuerUseCaseWithMetrics(useCase, bm)
	})
	if err, exists := c.initErrors["issuerUseCase"]; exists {
		return nil, err
	}
	return c.issuerUseCase, nil
}

// VerifierUseCase returns the credential verification use case.
func (c *Container) VerifierUseCase() (tokenUsecase.VerifierUseCase, error) {
	c.verifierInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["verifierUseCase"] = err
			return
		}
		refreshRepo, err := c.RefreshTokenRepository()
		if err != nil {
			c.initErrors["verifierUseCase"] = err
			return
		}
		blacklistRepo, err := c.BlacklistRepository()
		if err != nil {
			c.initErrors["verifierUseCase"] = err
			return
		}
		accessService, err := c.AccessTokenService()
		if err != nil {
			c.initErrors["verifierUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["verifierUseCase"] = err
			return
		}

		useCase := tokenUsecase.NewVerifierUseCase(
			c.config,
			txManager,
			refreshRepo,
			blacklistRepo,
			accessService,
			c.RefreshSecretService(),
		)
		c.verifierUseCase = tokenUsecase.NewVerifierUseCaseWithMetrics(useCase, bm)
	})
	if err, exists := c.initErrors["verifierUseCase"]; exists {
		return nil, err
	}
	return c.verifierUseCase, nil
}

// RateLimitUseCase returns the rate limiting use case.
func (c *Container) RateLimitUseCase() (ratelimitUsecase.RateLimitUseCase, error) {
	c.rateLimitInit.Do(func() {
		repo, err := c.RateLimitRepository()
		if err != nil {
			c.initErrors["rateLimitUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["rateLimitUseCase"] = err
			return
		}

		useCase := ratelimitUsecase.NewRateLimitUseCase(c.config, repo)
		c.rateLimitUseCase = ratelimitUsecase.NewRateLimitUseCaseWithMetrics(useCase, bm)
	})
	if err, exists := c.initErrors["rateLimitUseCase"]; exists {
		return nil, err
	}
	return c.rateLimitUseCase, nil
}

// AuditUseCase returns the audit trail use case.
func (c *Container) AuditUseCase() (auditUsecase.AuditUseCase, error) {
	c.auditInit.Do(func() {
		repo, err := c.AuditEventRepository()
		if err != nil {
			c.initErrors["auditUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["auditUseCase"] = err
			return
		}

		useCase := auditUsecase.NewAuditUseCase(c.config, repo)
		c.auditUseCase = auditUsecase.NewAuditUseCaseWithMetrics(useCase, bm)
	})
	if err, exists := c.initErrors["auditUseCase"]; exists {
		return nil, err
	}
	return c.auditUseCase, nil
}

// LockoutUseCase returns the principal lockout use case.
func (c *Container) LockoutUseCase() (principalUsecase.LockoutUseCase, error) {
	c.lockoutInit.Do(func() {
		txManager, err := c.TxManager()
		if err != nil {
			c.initErrors["lockoutUseCase"] = err
			return
		}
		repo, err := c.PrincipalRepository()
		if err != nil {
			c.initErrors["lockoutUseCase"] = err
			return
		}
		bm, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["lockoutUseCase"] = err
			return
		}

		useCase := principalUsecase.NewLockoutUseCase(c.config, txManager, repo)
		c.lockoutUseCase = principalUsecase.NewLockoutUseCaseWithMetrics(useCase, bm)
	})
	if err, exists := c.initErrors["lockoutUseCase"]; exists {
		return nil, err
	}
	return c.lockoutUseCase, nil
}

// SweeperUseCase returns the maintenance sweeper.
func (c *Container) SweeperUseCase() (maintenanceUsecase.SweeperUseCase, error) {
	c.sweeperInit.Do(func() {
		if err := c.initRefreshTokenRepo(); err != nil {
			c.initErrors["sweeperUseCase"] = err
			return
		}
		if err := c.initBlacklistRepo(); err != nil {
			c.initErrors["sweeperUseCase"] = err
			return
		}
		if err := c.initRateLimitRepo(); err != nil {
			c.initErrors["sweeperUseCase"] = err
			return
		}
		if err := c.initAuditRepo(); err != nil {
			c.initErrors["sweeperUseCase"] = err
			return
		}
		if err := c.initPrincipalRepo(); err != nil {
			c.initErrors["sweeperUseCase"] = err
			return
		}

		c.sweeperUseCase = maintenanceUsecase.NewSweeperUseCase(
			c.config,
			c.refreshTokenRepo,
			c.blacklistRepo,
			c.rateLimitRepo,
			c.auditRepo,
			c.principalRepo,
			c.Logger(),
		)
	})
	if err, exists := c.initErrors["sweeperUseCase"]; exists {
		return nil, err
	}
	return c.sweeperUseCase, nil
}

// Scheduler returns the maintenance scheduler.
func (c *Container) Scheduler() (*maintenanceUsecase.Scheduler, error) {
	c.schedulerInit.Do(func() {
		sweeper, err := c.SweeperUseCase()
		if err != nil {
			c.initErrors["scheduler"] = err
			return
		}
		c.scheduler = maintenanceUsecase.NewScheduler(c.config, sweeper, c.Logger())
	})
	if err, exists := c.initErrors["scheduler"]; exists {
		return nil, err
	}
	return c.scheduler, nil
}

// Shutdown performs cleanup of all initialized resources.
// It should be called when the application is shutting down.
func (c *Container) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var shutdownErrors []error

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}

	if c.db != nil {
		if err := c.db.Close(); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("database close: %w", err))
		}
	}

	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}

	return nil
}

// initLogger creates and configures a structured logger based on the log level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}

func (c *Container) initRefreshTokenRepo() error {
	c.refreshTokenRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["refreshTokenRepo"] = err
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.refreshTokenRepo = tokenRepository.NewMySQLRefreshTokenRepository(db)
		case "postgres":
			c.refreshTokenRepo = tokenRepository.NewPostgreSQLRefreshTokenRepository(db)
		default:
			c.initErrors["refreshTokenRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	return c.initErrors["refreshTokenRepo"]
}

func (c *Container) initBlacklistRepo() error {
	c.blacklistRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["blacklistRepo"] = err
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.blacklistRepo = tokenRepository.NewMySQLBlacklistRepository(db)
		case "postgres":
			c.blacklistRepo = tokenRepository.NewPostgreSQLBlacklistRepository(db)
		default:
			c.initErrors["blacklistRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	return c.initErrors["blacklistRepo"]
}

func (c *Container) initRateLimitRepo() error {
	c.rateLimitRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["rateLimitRepo"] = err
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.rateLimitRepo = ratelimitRepository.NewMySQLRateLimitRepository(db)
		case "postgres":
			c.rateLimitRepo = ratelimitRepository.NewPostgreSQLRateLimitRepository(db)
		default:
			c.initErrors["rateLimitRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	return c.initErrors["rateLimitRepo"]
}

func (c *Container) initAuditRepo() error {
	c.auditRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["auditRepo"] = err
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.auditRepo = auditRepository.NewMySQLAuditEventRepository(db)
		case "postgres":
			c.auditRepo = auditRepository.NewPostgreSQLAuditEventRepository(db)
		default:
			c.initErrors["auditRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	return c.initErrors["auditRepo"]
}

func (c *Container) initPrincipalRepo() error {
	c.principalRepoInit.Do(func() {
		db, err := c.DB()
		if err != nil {
			c.initErrors["principalRepo"] = err
			return
		}
		switch c.config.DBDriver {
		case "mysql":
			c.principalRepo = principalRepository.NewMySQLPrincipalRepository(db)
		case "postgres":
			c.principalRepo = principalRepository.NewPostgreSQLPrincipalRepository(db)
		default:
			c.initErrors["principalRepo"] = fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
		}
	})
	return c.initErrors["principalRepo"]
}
