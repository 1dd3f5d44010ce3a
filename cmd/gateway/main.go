package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"nexusglobal/internal/apiclient"
	"nexusglobal/internal/gateway/adapters/sessionstore"
	httpServer "nexusglobal/internal/gateway/app/http"
	"nexusglobal/internal/gateway/app/http/respond"
	"nexusglobal/internal/gateway/app/services"
	"nexusglobal/internal/gateway/config"
	"nexusglobal/internal/gateway/resilience"
	"nexusglobal/internal/nexus"
	"nexusglobal/internal/session"
	"nexusglobal/pkg/logger"
	"nexusglobal/pkg/shutdown"
)

// Константы для переменных окружения.
const (
	EnvLoggerMode  = "GATEWAY_LOGGER_MODE"
	EnvLoggerLevel = "GATEWAY_LOGGER_LEVEL"
)

// Константы для сообщений об ошибках.
const (
	ErrInitLogger           = "failed to initialize logger"
	ErrSyncLogger           = "failed to sync logger"
	ErrLoadConfig           = "failed to load configuration"
	ErrInitLoggerWithConfig = "failed to initialize logger with configuration settings"
	ErrCreateAPIClient      = "failed to create NEXUS API client"
	ErrCreateCulqiClient    = "failed to create Culqi client"
	ErrCreateSessionStore   = "failed to create Redis session store"
	ErrStartHTTPServer      = "failed to start HTTP server"
	ErrShutdown             = "graceful shutdown finished with errors"
)

// Константы для игнорируемых ошибок.
const (
	ErrSyncStderr = "sync /dev/stderr: invalid argument"
	ErrSyncStdout = "sync /dev/stdout: invalid argument"
)

// Константы для сообщений сервиса.
const (
	LogServiceStarted      = "gateway service started"
	LogServiceShutdownDone = "gateway service shutdown complete"
	LogStoppingHTTP        = "stopping HTTP server"
	LogClosingRedis        = "closing Redis session store"
	LogInitClients         = "initializing NEXUS API clients"
	LogCulqiDisabled       = "Culqi public key is not set, card tokenization disabled"
	LogInitSessionStore    = "initializing session store"
	LogInitServices        = "initializing services"
	LogInitHTTPServer      = "initializing HTTP server"
	LogStartingHTTP        = "starting HTTP server"
)

// Имена бэкендов для Circuit Breaker.
const (
	backendAuth  = "nexus-auth"
	backendAPI   = "nexus-api"
	backendCulqi = "culqi"
)

func main() {
	env := logger.Development
	if strings.ToLower(os.Getenv(EnvLoggerMode)) == "production" {
		env = logger.Production
	}

	if err := logger.InitGlobalLoggerWithLevel(env, os.Getenv(EnvLoggerLevel)); err != nil {
		panic(ErrInitLogger + ": " + err.Error())
	}

	ctx := logger.NewRequestIDContext(context.Background(), "")
	log := logger.Log(ctx)

	var exitCode int

	func() {
		defer func() {
			if err := log.Sync(); err != nil {
				errMsg := err.Error()
				if strings.Contains(errMsg, ErrSyncStderr) || strings.Contains(errMsg, ErrSyncStdout) {
					return
				}
				if _, writeErr := fmt.Fprintf(os.Stderr, "%s: %v\n", ErrSyncLogger, err); writeErr != nil {
					panic(writeErr)
				}
			}
		}()

		cfg, err := config.Load(ctx)
		if err != nil {
			log.Error(ctx, ErrLoadConfig, zap.Error(err))
			exitCode = 1
			return
		}

		finalLogger, err := logger.NewLogger(cfg.Logging.GetEnvironment(), cfg.Logging.Level)
		if err != nil {
			log.Error(ctx, ErrInitLoggerWithConfig, zap.Error(err))
			exitCode = 1
			return
		}
		logger.SetGlobalLogger(finalLogger)
		log = finalLogger

		log.Info(ctx, LogServiceStarted,
			zap.String("environment", string(cfg.Logging.GetEnvironment())),
			zap.String("log_level", cfg.Logging.Level),
			zap.String("startup_time", time.Now().Format(time.RFC3339)))

		log.Info(ctx, LogInitClients)
		base, err := apiclient.New(apiclient.Config{
			Context: apiclient.Server,
			BaseURL: cfg.API.ServerURL,
			Timeout: cfg.API.Timeout,
		})
		if err != nil {
			log.Error(ctx, ErrCreateAPIClient, zap.Error(err))
			exitCode = 1
			return
		}

		var culqi *nexus.CulqiService
		if cfg.Culqi.Enabled() {
			culqi, err = nexus.NewCulqiService(cfg.Culqi.BaseURL, cfg.Culqi.PublicKey, cfg.Culqi.Timeout)
			if err != nil {
				log.Error(ctx, ErrCreateCulqiClient, zap.Error(err))
				exitCode = 1
				return
			}
		} else {
			log.Warn(ctx, LogCulqiDisabled)
		}

		log.Info(ctx, LogInitSessionStore)
		store, err := sessionstore.NewRedisStore(ctx, &cfg.Redis, &cfg.Session)
		if err != nil {
			log.Error(ctx, ErrCreateSessionStore, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogInitServices)
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.API.ReadRetries + 1
		policy := session.NewPolicy(session.NewAPIRefresher(base), session.WithSkew(cfg.API.RefreshSkew))

		authService := services.NewAuthService(base, policy, store,
			resilience.NewServiceResilienceWithConfig(backendAuth, resilience.DefaultCircuitBreakerConfig(), retry))
		portalService := services.NewPortalService(base,
			resilience.NewServiceResilienceWithConfig(backendAPI, resilience.DefaultCircuitBreakerConfig(), retry),
			culqi,
			resilience.NewServiceResilienceWithConfig(backendCulqi, resilience.DefaultCircuitBreakerConfig(), retry))

		log.Info(ctx, LogInitHTTPServer)
		app := fiber.New(fiber.Config{
			ErrorHandler: respond.ErrorHandler,
			BodyLimit:    cfg.HTTP.BodyLimit,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
		})

		httpServer.SetupRouter(app, authService, portalService, cfg.Session)

		log.Info(ctx, LogStartingHTTP, zap.String("address", cfg.HTTP.GetAddress()))
		go func() {
			if err := app.Listen(cfg.HTTP.GetAddress()); err != nil {
				log.Error(ctx, ErrStartHTTPServer, zap.Error(err))
			}
		}()

		// Redis закрывается только после того, как HTTP сервер дождался текущих запросов.
		err = shutdown.Wait(ctx, cfg.Shutdown.GetTimeout(), shutdown.Sequence(
			func(ctx context.Context) error {
				log.Info(ctx, LogStoppingHTTP)
				return app.ShutdownWithContext(ctx)
			},
			func(ctx context.Context) error {
				log.Info(ctx, LogClosingRedis)
				return store.Close()
			},
		))
		if err != nil {
			log.Error(ctx, ErrShutdown, zap.Error(err))
			exitCode = 1
			return
		}

		log.Info(ctx, LogServiceShutdownDone)
	}()

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
