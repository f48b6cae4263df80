// In file: cmd/gateway/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dileep-u-k/agent-gateway/internal/agent"
	"github.com/dileep-u-k/agent-gateway/internal/audit"
	"github.com/dileep-u-k/agent-gateway/internal/auth"
	"github.com/dileep-u-k/agent-gateway/internal/llm"
	"github.com/dileep-u-k/agent-gateway/internal/metrics"
	"github.com/dileep-u-k/agent-gateway/internal/store"
	"github.com/dileep-u-k/agent-gateway/internal/tools"
)

const demoUserID = "demo-user"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if err := cfg.validate(); err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		logger := newLogger(cfg)
		info := GetBuildInfo()
		logger.Info("🚀 starting agent gateway", "version", info.Version, "commit", info.GitCommit)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		gw, err := buildApp(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer gw.close()
		logger.Info("✅ all services initialized", "store", gw.storeKind, "audit", gw.auditEnabled)

		srv := &http.Server{Addr: ":" + cfg.Server.Port, Handler: gw.engine}
		return runServerWithGracefulShutdown(srv, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// app is the composition root: every service the gateway runs with.
type app struct {
	engine       *gin.Engine
	storeKind    string
	auditEnabled bool
	closers      []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func buildApp(ctx context.Context, cfg *AppConfig, logger hclog.Logger) (*app, error) {
	a := &app{}
	m := metrics.New()

	defaultStore, kind, err := openDefaultStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	a.storeKind = kind
	a.closers = append(a.closers, defaultStore.Close)

	var recorder audit.Recorder = audit.Nop{}
	var reader AuditReader
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			a.close()
			return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, rdb.Close)
		log := audit.New(rdb, cfg.Audit.Stream, cfg.Audit.MaxLen, logger.Named("audit"))
		recorder, reader = log, log
		a.auditEnabled = true
	}

	registry := tools.NewRegistry()
	opts := []tools.Option{
		tools.WithAudit(recorder),
		tools.WithMetrics(m),
		tools.WithLogger(logger.Named("tools")),
	}
	if cfg.Store.OwnerField != "" && !cfg.Store.Demo {
		opts = append(opts, tools.WithOwnerField(cfg.Store.OwnerField))
	}
	executor := tools.NewExecutor(registry, defaultStore, opts...)

	orchestrator := agent.New(registry, executor, llm.NewRegistry(cfg.Keys),
		agent.WithDefaults(cfg.LLM),
		agent.WithMetrics(m),
		agent.WithLogger(logger.Named("orchestrator")),
	)

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	handler := NewAgentHandler(orchestrator, reader, logger.Named("http"), cfg.Server.RequestTimeout)
	a.engine = newRouter(handler, verifier, m, logger.Named("http"))
	return a, nil
}

// openDefaultStore returns the platform store. Demo mode serves generated
// rows from memory.
func openDefaultStore(ctx context.Context, cfg StoreConfig) (store.RowStore, string, error) {
	if cfg.Demo || cfg.Type == "memory" {
		return store.NewMemory(store.DemoData(time.Now())), "memory", nil
	}
	if cfg.Type == "firestore" {
		fs, err := store.NewFirestore(ctx, cfg.ProjectID)
		if err != nil {
			return nil, "", err
		}
		return fs, "firestore", nil
	}
	s, err := store.Open(ctx, store.Connection{Type: store.ConnectionType(cfg.Type), ConnectionString: cfg.DSN})
	if err != nil {
		return nil, "", fmt.Errorf("failed to open default store: %w", err)
	}
	return s, cfg.Type, nil
}

func newVerifier(ctx context.Context, cfg *AppConfig) (auth.Verifier, error) {
	switch {
	case cfg.Store.Demo:
		return auth.StaticVerifier{Token: cfg.Auth.DemoToken, UserID: demoUserID}, nil
	case cfg.Auth.JWKSURL != "":
		return auth.NewJWKSVerifier(ctx, cfg.Auth.JWKSURL, cfg.Auth.Issuer, cfg.Auth.Audience)
	default:
		return auth.NewFirebaseVerifier(ctx, cfg.Store.ProjectID)
	}
}

// runServerWithGracefulShutdown serves until SIGINT or SIGTERM, then drains
// in-flight requests.
func runServerWithGracefulShutdown(srv *http.Server, logger hclog.Logger) error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("👂 gateway is listening", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen error: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("🛑 shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("👋 server exited gracefully")
	return nil
}
