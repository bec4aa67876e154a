package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"storefront-service/internal/api"
	"storefront-service/internal/catalog"
	"storefront-service/internal/config"
	"storefront-service/internal/contact"
	"storefront-service/internal/financing"
	"storefront-service/internal/logging"
	"storefront-service/internal/store"
	"storefront-service/internal/storefront"
)

const (
	defaultAppName  = "StorefrontService"
	shutdownTimeout = 30 * time.Second
)

func main() {
	// A missing .env is fine, the environment may be set some other way.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Error loading configuration: %v", err)
	}

	syncLogger, err := logging.Setup(cfg.Logger)
	if err != nil {
		log.Fatalf("FATAL: Error building logger: %v", err)
	}
	defer syncLogger()

	logger := zap.L().With(zap.String("service", defaultAppName))
	if envErr != nil {
		logger.Info("No .env file loaded, relying on system environment")
	}
	logger.Info("Configuration loaded",
		zap.String("app_env", cfg.AppEnv),
		zap.String("log_level", cfg.Logger.Level),
		zap.String("fallback_policy", cfg.Financing.FallbackPolicy))

	// --- Database Connection ---
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	db, err := store.Connect(startupCtx, cfg.Postgres.DSN(), cfg.Postgres.ConnectTries, cfg.Postgres.ConnectBackoff)
	if err != nil {
		cancelStartup()
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	logger.Info("Database connection established")

	if cfg.Postgres.AutoMigrate {
		if err := store.Migrate(startupCtx, db); err != nil {
			cancelStartup()
			logger.Fatal("Failed to apply database migrations", zap.Error(err))
		}
		logger.Info("Database migrations applied")
	}
	cancelStartup()

	dbStore := store.NewPostgresStore(db)

	// --- Services ---
	policy, err := financing.ParseFallbackPolicy(cfg.Financing.FallbackPolicy)
	if err != nil {
		logger.Fatal("Invalid financing fallback policy", zap.Error(err))
	}
	resolver := financing.NewResolver(dbStore, policy)
	quoter := financing.NewQuoter(dbStore, dbStore, resolver)
	catalogSvc := catalog.NewService(dbStore, cfg.Storefront.FeaturedLimit, cfg.Storefront.RelatedLimit)
	linker := contact.NewLinker(dbStore, cfg.Storefront.ContactDefaultPhone)
	pages := storefront.NewPages(catalogSvc, quoter, linker)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter)
	registerHealthCheck(httpRouter, dbStore)

	api.NewHTTPHandler(api.Services{
		Catalog: catalogSvc,
		Quoter:  quoter,
		Pages:   pages,
		Linker:  linker,
		Plans:   dbStore,
	}).RegisterRoutes(httpRouter)

	if cfg.Admin.Enabled() {
		gormDB, err := store.OpenGorm(db)
		if err != nil {
			logger.Fatal("Failed to initialize admin store", zap.Error(err))
		}
		api.NewAdminHandler(store.NewGormAdminStore(gormDB), dbStore, cfg.Admin.APIToken).RegisterRoutes(httpRouter)
		logger.Info("Admin API enabled at /api/v1/admin")
	} else {
		logger.Info("Admin API disabled, ADMIN_API_TOKEN is not set")
	}

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", cfg.HttpServer.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server ListenAndServe error", zap.Error(err))
		}
		logger.Info("HTTP server has stopped")
	}()

	// --- Setup & Start gRPC Server ---
	grpcServer := setupGRPCServer(api.NewGRPCHandler(dbStore, resolver, quoter))
	grpcListener, err := net.Listen("tcp", ":"+cfg.GrpcServer.Port)
	if err != nil {
		logger.Fatal("Failed to listen for gRPC", zap.String("port", cfg.GrpcServer.Port), zap.Error(err))
	}

	go func() {
		logger.Info("gRPC server listening", zap.String("port", cfg.GrpcServer.Port))
		if err := grpcServer.Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Fatal("gRPC server Serve error", zap.Error(err))
		}
		logger.Info("gRPC server has stopped")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(httpServer, grpcServer, dbStore, shutdownComplete)

	<-shutdownComplete
	logger.Info("Service shutdown sequence finished")
}

func setupBaseMiddleware(router *chi.Mux) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	zap.L().Debug("Base HTTP middleware registered")
}

func registerHealthCheck(router *chi.Mux, db *store.PostgresStore) {
	healthPath := "/api/v1/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		dbStatus := "healthy"
		if err := db.Ping(ctx); err != nil {
			dbStatus = "unhealthy"
			zap.L().Warn("Health check DB ping failed", zap.Error(err))
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK) // Always 200, the payload carries the detail
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"database":    dbStatus,
		})
	})
	zap.L().Debug("HTTP health check registered", zap.String("path", healthPath))
}

// loggingUnaryInterceptor logs every RPC with its status code and latency.
func loggingUnaryInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	fields := []zap.Field{
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		zap.L().Warn("gRPC request failed", append(fields, zap.Error(err))...)
	} else {
		zap.L().Info("gRPC request", fields...)
	}
	return resp, err
}

func setupGRPCServer(grpcAPIHandler *api.GRPCHandler) *grpc.Server {
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingUnaryInterceptor))

	api.RegisterFinancingServer(s, grpcAPIHandler)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(api.FinancingServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	grpc_health_v1.RegisterHealthServer(s, healthServer)

	// Enable gRPC server reflection (useful for tools like grpcurl). The financing
	// service descriptor is registered by the api package, so it can be described too.
	reflection.Register(s)
	zap.L().Debug("gRPC services registered", zap.String("service", api.FinancingServiceName))

	return s
}

func waitForShutdown(
	httpServer *http.Server,
	grpcServer *grpc.Server,
	dbStore *store.PostgresStore,
	shutdownComplete chan struct{},
) {
	defer close(shutdownComplete)
	logger := zap.L()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Info("Received signal, starting graceful shutdown", zap.String("signal", receivedSignal.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	stoppedGrpc := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stoppedGrpc)
	}()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("HTTP server gracefully shut down")
	}

	select {
	case <-stoppedGrpc:
		logger.Info("gRPC server gracefully shut down")
	case <-shutdownCtx.Done():
		logger.Warn("gRPC server graceful shutdown timed out, forcing stop", zap.Error(shutdownCtx.Err()))
		grpcServer.Stop()
	}

	// Also closes the pool shared with the admin store.
	if err := dbStore.Close(); err != nil {
		logger.Warn("Error closing database connection", zap.Error(err))
	}

	logger.Info("Graceful shutdown sequence completed")
}
