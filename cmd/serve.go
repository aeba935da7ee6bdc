// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/canonical/organization-service/internal/config"
	"github.com/canonical/organization-service/internal/db"
	"github.com/canonical/organization-service/internal/identity"
	"github.com/canonical/organization-service/internal/kratos"
	"github.com/canonical/organization-service/internal/logging"
	"github.com/canonical/organization-service/internal/monitoring"
	"github.com/canonical/organization-service/internal/monitoring/prometheus"
	"github.com/canonical/organization-service/internal/storage"
	"github.com/canonical/organization-service/internal/tracing"
	"github.com/canonical/organization-service/pkg/authentication"
	"github.com/canonical/organization-service/pkg/invitation"
	"github.com/canonical/organization-service/pkg/web"
)

const (
	serviceName        = "organization-service"
	healthPollInterval = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		return fmt.Errorf("issues with environment sourcing: %w", err)
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	var monitor monitoring.MonitorInterface
	if specs.MonitoringEnabled {
		monitor = prometheus.NewMonitor(serviceName, logger)
	} else {
		monitor = monitoring.NewNoopMonitor(serviceName, logger)
	}
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, specs.TracingSampleRatio, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		ApplicationName: "organization-service",
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	var kratosClient kratos.ClientInterface
	if specs.KratosAdminURL != "" {
		kratosClient = kratos.NewClient(specs.KratosAdminURL, tracer, monitor, logger)
	} else {
		logger.Info("Kratos admin URL not set, lazy user provisioning is disabled")
		kratosClient = kratos.NewNoopClient()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		httpAuthn   func(http.Handler) http.Handler
		grpcOptions []grpc.ServerOption
	)

	if specs.AuthenticationEnabled {
		verifier, err := authentication.NewJWTAuthenticator(
			ctx,
			specs.AuthenticationIssuer,
			specs.AuthenticationJwksURL,
			authentication.AccessPolicy{
				AllowedSubjects: specs.AuthenticationAllowedSubjects,
				RequiredScope:   specs.AuthenticationRequiredScope,
			},
			tracer,
			monitor,
			logger,
		)
		if err != nil {
			return fmt.Errorf("failed to set up authentication: %w", err)
		}
		authn := authentication.NewMiddleware(verifier, tracer, monitor, logger)
		httpAuthn = authn.Authenticate()
		grpcOptions = append(grpcOptions, grpc.ChainUnaryInterceptor(authn.GRPCInterceptor))
	} else {
		logger.Warn("Authentication is disabled, trusting the identity header")
		idMiddleware := identity.NewMiddleware(tracer, monitor, logger)
		authn := authentication.NewMiddleware(authentication.NewNoopVerifier(), tracer, monitor, logger)
		httpAuthn = func(next http.Handler) http.Handler {
			return idMiddleware.HTTPMiddleware(authn.Authenticate()(next))
		}
		grpcOptions = append(grpcOptions, grpc.ChainUnaryInterceptor(idMiddleware.GRPCInterceptor, authn.GRPCInterceptor))
	}

	services := web.NewServices(s, kratosClient, specs.InvitationLifetime, tracer, monitor, logger)

	// gRPC port only carries the health service
	lis, err := net.Listen("tcp", fmt.Sprintf("0.0.0.0:%v", specs.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}

	grpcOptions = append(grpcOptions, grpc.StatsHandler(otelgrpc.NewServerHandler()))
	grpcServer := grpc.NewServer(grpcOptions...)
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)

	go watchDatabase(ctx, dbClient, healthServer, logger)

	go func() {
		logger.Infof("Starting gRPC server on port %v", specs.GRPCPort)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Errorf("failed to serve gRPC: %v", err)
		}
	}()

	go invitation.Sweep(ctx, services.Invitations, specs.InvitationSweepInterval, logger)

	router := web.NewRouter(
		web.RouterConfig{
			CORSAllowedOrigins: specs.CORSAllowedOrigins,
			RateLimitRequests:  specs.RateLimitRequests,
			RateLimitWindow:    specs.RateLimitWindow,
		},
		services,
		dbClient,
		httpAuthn,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			stop()
		}
	}()

	<-ctx.Done()

	// Create a deadline to wait for.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	healthServer.Shutdown()
	grpcServer.GracefulStop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("failed to flush spans: %v", err)
	}

	return serverError
}

// watchDatabase keeps the gRPC health status in line with database reachability.
func watchDatabase(ctx context.Context, dbClient db.DBClientInterface, hs *health.Server, logger logging.LoggerInterface) {
	ticker := time.NewTicker(healthPollInterval)
	defer ticker.Stop()

	serving := false
	for {
		pingCtx, cancel := context.WithTimeout(ctx, healthPollInterval/2)
		err := dbClient.Ping(pingCtx)
		cancel()

		switch {
		case err == nil && !serving:
			hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
			serving = true
		case err != nil && serving:
			logger.Errorf("database not reachable: %v", err)
			hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
			serving = false
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
