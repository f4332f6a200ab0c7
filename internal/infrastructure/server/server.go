// Package server assembles the lifecycle core: launchers, coordinator,
// switcher, hotkeys, poller, and the HTTP/WebSocket surface.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/SerVas333/WindowsLauncher-sub003/internal/api/http"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/api/middleware"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/api/ws"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/catalog"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/coordinator"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/hotkey"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/launcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/poller"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/domain/switcher"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/config"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/logging"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/infrastructure/monitoring"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/android"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/editor"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/folder"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/process"
	"github.com/SerVas333/WindowsLauncher-sub003/internal/launchers/web"
)

// Server owns the assembled components and the HTTP listener.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics

	coord   *coordinator.Coordinator
	sw      *switcher.Switcher
	gateway *hotkey.Gateway
	poll    *poller.Poller

	httpSrv *http.Server

	cancel context.CancelFunc
}

// Options overrides pieces of the default assembly. Zero values mean "use
// the production default".
type Options struct {
	// Registrar is the platform hotkey hook; defaults to NopRegistrar.
	Registrar hotkey.Registrar
	// Overlay presents the switcher; defaults to headless.
	Overlay switcher.Overlay
	// Extra launchers registered after the built-in five.
	Launchers []launcher.Launcher
}

// New assembles a server from configuration.
func New(cfg *config.Config, logger *logging.Logger, opts Options) (*Server, error) {
	metrics := monitoring.NewMetrics()

	cat, err := catalog.Load(cfg.Catalog.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	reg := launcher.NewRegistry()
	reg.Register(process.New(logger))
	reg.Register(editor.New(cfg.Launchers.EditorCommand, logger))
	reg.Register(web.New(cfg.Launchers.BrowserCommand, logger))
	reg.Register(folder.New(cfg.Launchers.FileManagerCommand, logger))
	reg.Register(android.New(&android.ExecBridge{Cmd: cfg.Launchers.AndroidBridge}, logger))
	for _, l := range opts.Launchers {
		reg.Register(l)
	}

	coord := coordinator.New(reg, logger).WithMetrics(metrics)
	sw := switcher.New(coord, opts.Overlay, logger)

	registrar := opts.Registrar
	if registrar == nil {
		registrar = hotkey.NopRegistrar{}
	}
	gateway := hotkey.New(registrar, logger).WithMetrics(metrics)
	gateway.Subscribe(func(cmd hotkey.Command) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		switch cmd {
		case hotkey.CommandAdvance:
			sw.SelectNext(ctx)
		case hotkey.CommandAdvanceReverse:
			sw.SelectPrevious(ctx)
		}
	})

	poll := poller.New(coord.Reconcile, poller.Config{
		Interval:         cfg.Poll.Interval,
		SlowInterval:     cfg.Poll.SlowInterval,
		FailureThreshold: cfg.Poll.FailureThreshold,
	}, logger).WithMetrics(metrics)

	router := buildRouter(cfg, logger, metrics, coord, cat, sw)

	return &Server{
		cfg:     cfg,
		logger:  logger.Named("server"),
		metrics: metrics,
		coord:   coord,
		sw:      sw,
		gateway: gateway,
		poll:    poll,
		httpSrv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

func buildRouter(
	cfg *config.Config,
	logger *logging.Logger,
	metrics *monitoring.Metrics,
	coord *coordinator.Coordinator,
	cat *catalog.Catalog,
	sw *switcher.Switcher,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(metrics))

	apihttp.New(coord, cat, logger).Register(router)
	apihttp.NewSwitcherHandlers(sw).Register(router)

	router.GET("/stream", ws.NewHandler(coord, logger).WithMetrics(metrics).Stream)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// Run starts the background loops and the HTTP listener, blocking until the
// listener stops.
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if err := s.gateway.Init(hotkey.Mode(s.cfg.Hotkey.Mode)); err != nil {
		// Switching stays reachable through the API surface.
		s.logger.Warn("no hotkey chords available", zap.Error(err))
	}

	sub := s.coord.Subscribe(64)
	go func() {
		defer sub.Close()
		s.sw.Watch(ctx, sub.C)
	}()
	go func() {
		_ = s.poll.Run(ctx)
	}()

	s.logger.Info("listening", zap.String("addr", s.httpSrv.Addr))
	err := s.httpSrv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown stops the listener, the background loops, the hotkey grabs, and
// every live instance.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	s.gateway.Teardown()

	err := s.httpSrv.Shutdown(ctx)
	s.coord.Shutdown(ctx)
	s.logger.Info("shutdown complete")
	return err
}
