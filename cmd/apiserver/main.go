package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amoylab/familia/internal/apiserver/database"
	"github.com/amoylab/familia/internal/apiserver/handler"
	"github.com/amoylab/familia/internal/apiserver/middleware"
	"github.com/amoylab/familia/internal/auth/jwt"
	"github.com/amoylab/familia/internal/common/config"
	"github.com/amoylab/familia/internal/i18n"
	"github.com/amoylab/familia/internal/realtime"
	"github.com/amoylab/familia/pkg/logger"
	"github.com/amoylab/familia/pkg/metrics"
	"github.com/amoylab/familia/pkg/trace"
	"github.com/amoylab/familia/pkg/version"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

var (
	configPath string

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of apiserver",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("apiserver version %s\n", version.Get())
		},
	}

	rootCmd = &cobra.Command{
		Use:   "apiserver",
		Short: "Familia API server",
		Long:  `Familia API server provides the REST API and the realtime websocket gateway`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "configs/apiserver.yaml", "path to configuration file")
	rootCmd.AddCommand(versionCmd)
}

func initLogger(cfg *config.APIServerConfig) *zap.Logger {
	lg, err := logger.NewLogger(&cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	return lg
}

func initI18n(lg *zap.Logger, cfg *config.I18nConfig) {
	if err := i18n.InitTranslator(cfg.Path); err != nil {
		// responses fall back to raw message ids
		lg.Warn("failed to load translations", zap.String("path", cfg.Path), zap.Error(err))
	}
}

func initDatabase(lg *zap.Logger, cfg *config.DatabaseConfig) database.Database {
	db, err := database.NewDatabase(cfg)
	if err != nil {
		lg.Fatal("Failed to initialize database", zap.String("type", cfg.Type), zap.Error(err))
	}
	return db
}

func initTracing(ctx context.Context, lg *zap.Logger, cfg *config.TracingConfig) func(context.Context) error {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }
	}
	shutdown, err := trace.InitTracing(ctx, cfg, lg)
	if err != nil {
		lg.Error("failed to initialize tracing, continuing without it", zap.Error(err))
		return func(context.Context) error { return nil }
	}
	return shutdown
}

// initHub builds the realtime gateway. The socket relay is limited to friends
// and going offline stamps the user's last-seen time.
func initHub(lg *zap.Logger, cfg *config.APIServerConfig, verifier realtime.Verifier, db database.Database, rec realtime.Recorder) *realtime.Hub {
	bus, err := realtime.NewBus(cfg.Bus, lg)
	if err != nil {
		lg.Fatal("Failed to initialize realtime bus", zap.String("type", cfg.Bus.Type), zap.Error(err))
	}

	hub, err := realtime.NewHub(cfg.Realtime, verifier, bus, lg,
		realtime.WithRecorder(rec),
		realtime.WithFriendships(db),
		realtime.WithPresenceHook(func(userID string, online bool) {
			if online {
				return
			}
			if err := db.TouchLastSeen(context.Background(), userID, time.Now().UTC()); err != nil {
				lg.Warn("failed to record last seen", zap.String("user_id", userID), zap.Error(err))
			}
		}),
	)
	if err != nil {
		lg.Fatal("Failed to initialize realtime hub", zap.Error(err))
	}
	return hub
}

func initRouter(cfg *config.APIServerConfig, db database.Database, jwtSvc *jwt.Service, hub *realtime.Hub, m *metrics.Metrics, lg *zap.Logger) *gin.Engine {
	r := gin.New()
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.Recovery(lg), middleware.RequestLogger(lg), middleware.CORS(cfg.Server.CORS), i18n.LanguageMiddleware())

	if cfg.Metrics.Enabled {
		r.Use(m.Middleware())
		r.GET(cfg.Metrics.Path, gin.WrapH(m.Handler()))
	}

	handler.NewHandlers(handler.Deps{
		DB:       db,
		JWT:      jwtSvc,
		Hub:      hub,
		Fanout:   realtime.NewFanout(db, hub, lg),
		Realtime: cfg.Realtime,
		Logger:   lg,
	}).Register(r)
	return r
}

func run(ctx context.Context) error {
	cfg, cfgPath, err := config.LoadConfig[config.APIServerConfig](configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration %s: %w", cfgPath, err)
	}

	lg := initLogger(cfg)
	defer lg.Sync()
	lg.Info("Starting apiserver", zap.String("version", version.Get()), zap.String("config", cfgPath))

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	initI18n(lg, &cfg.I18n)
	shutdownTracing := initTracing(ctx, lg, &cfg.Tracing)

	db := initDatabase(lg, &cfg.Database)
	defer db.Close()

	jwtSvc, err := jwt.NewService(cfg.JWT)
	if err != nil {
		return fmt.Errorf("failed to initialize jwt service: %w", err)
	}

	m := metrics.New(cfg.Metrics)
	hub := initHub(lg, cfg, jwtSvc, db, m)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           initRouter(cfg, db, jwtSvc, hub, m, lg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("Server listening", zap.String("addr", srv.Addr), zap.String("ws_path", cfg.Realtime.Path))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		lg.Info("Shutting down server", zap.String("signal", sig.String()))
	case err := <-errCh:
		lg.Error("Server stopped", zap.Error(err))
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// hijacked websocket connections are not closed by srv.Shutdown
	hub.Shutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("failed to shutdown server", zap.Error(err))
	}
	if err := hub.Close(shutdownCtx); err != nil {
		lg.Warn("failed to close realtime bus", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		lg.Warn("failed to flush traces", zap.Error(err))
	}
	lg.Info("Server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
