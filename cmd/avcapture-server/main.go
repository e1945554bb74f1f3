package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edirooss/avcapture-server/internal/config"
	"github.com/edirooss/avcapture-server/internal/env"
	"github.com/edirooss/avcapture-server/internal/events"
	"github.com/edirooss/avcapture-server/internal/http/handler"
	mw "github.com/edirooss/avcapture-server/internal/http/middleware"
	"github.com/edirooss/avcapture-server/internal/infrastructure/avfoundation"
	"github.com/edirooss/avcapture-server/internal/infrastructure/processmgr"
	"github.com/edirooss/avcapture-server/internal/metrics"
	"github.com/edirooss/avcapture-server/internal/repo"
	"github.com/edirooss/avcapture-server/internal/service"
	"github.com/edirooss/avcapture-server/pkg/fmtt"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	"github.com/godbus/dbus/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func init() {
	// Handle version display
	handleVersion()
}

func main() {
	// Read env
	isDev := env.Dev()

	// Load config
	cfg, err := config.Load(env.ConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		if isDev {
			fmtt.DumpErrChain(os.Stderr, err)
		}
		os.Exit(1)
	}

	// Create Zap logger
	log := buildLogger()
	defer log.Sync()
	log = log.Named("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	store := repo.NewRepository(ctx, log, cfg.RedisAddr, cfg.RedisDB)
	defer store.Close()

	// Core services
	hub := events.NewHub(log)
	bins := service.ResolveBinaries(log, cfg.BundleDir)
	registry := service.NewDeviceRegistry(log, avfoundation.NewLister(bins.FFmpeg), hub)
	presets, err := service.NewPresetService(ctx, log, store.Presets)
	if err != nil {
		fatal(log, isDev, "preset service creation failed", err)
	}
	feeds, err := service.NewFeedService(ctx, log, store.Feeds)
	if err != nil {
		fatal(log, isDev, "feed service creation failed", err)
	}

	procs := processmgr.NewManager(log, processmgr.NewLogManager(service.IsFailureLine), cfg.MaxSessions, cfg.InterruptGrace)
	m := metrics.New(prometheus.DefaultRegisterer, func() float64 { return float64(procs.Running()) })

	orch := service.NewOrchestrator(log, service.OrchestratorConfig{
		RecordingsDir:   cfg.RecordingsDir,
		PreviewDebounce: cfg.PreviewDebounce,
	}, bins, registry, presets, feeds, procs, hub, m)
	prober := service.NewProber(log, bins, feeds, procs)

	// Lifecycle (sleep/wake over logind, termination on signal)
	var sleep service.SleepSource
	if cfg.WatchSleep {
		conn, err := dbus.ConnectSystemBus()
		if err != nil {
			log.Warn("system bus unavailable; sleep/wake not observed", zap.Error(err))
		} else {
			defer conn.Close()
			sleep = service.NewLogindManager(log, conn)
		}
	}
	lifecycle := service.NewLifecycle(log, sleep)

	// The session loop outlives ctx so termination callbacks can still stop
	// sessions through it.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()

	lifecycle.OnWillSleep(func(ctx context.Context) {
		if _, err := orch.StopAll(ctx, "sleep"); err != nil {
			log.Warn("stop on sleep failed", zap.Error(err))
		}
	})
	lifecycle.OnDidWake(func(ctx context.Context) {
		if _, err := registry.Refresh(ctx); err != nil {
			log.Warn("device refresh on wake failed", zap.Error(err))
		}
		if err := orch.RestartLocalPreview(ctx); err != nil {
			log.Warn("preview restart on wake failed", zap.Error(err))
		}
	})
	lifecycle.OnAppTerminate(func(ctx context.Context) {
		if _, err := orch.StopAll(ctx, "terminate"); err != nil {
			log.Warn("stop on terminate failed", zap.Error(err))
		}
		stopLoop()
	})

	// Create Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = zap.NewStdLog(log.Named("gin")).Writer() // Configure Gin's logger to use Zap
	r := gin.New()

	// Apply Gin middlewares
	{
		r.Use(gin.Recovery()) // Recovery first (outermost)
		r.Use(mw.RequestID()) // Attach request ID for tracing; early in the chain so it's available everywhere

		if isDev { // Enable CORS for local Vite dev
			r.Use(cors.New(cors.Config{
				AllowOrigins:     []string{"http://localhost:5173", "http://localhost:4173", "http://localhost:3000", "http://127.0.0.1:3000"},
				AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
				AllowHeaders:     []string{"X-Request-ID", "Content-Type"},
				ExposeHeaders:    []string{"X-Request-ID", "X-Total-Count", "Location"},
				AllowCredentials: true,
				MaxAge:           12 * time.Hour,
			}))
		} else { // Behind a local reverse proxy
			r.SetTrustedProxies([]string{"127.0.0.1"})
			r.Use(secure.New(secure.Config{
				SSLProxyHeaders: map[string]string{
					"X-Forwarded-Proto": "https",
				},
			}))
		}

		r.Use(accessLog(log.Named("http"))) // Observability (logger, tracing)
		r.Use(mw.Metrics(m))

		r.Use(func(c *gin.Context) {
			// Enforce a hard 10MB max request body.
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 10<<20)
			c.Next()
		})
	}

	// Register route handlers
	handler.Mount(r.Group("/api"), log, handler.Services{
		Devices: registry,
		Presets: presets,
		Feeds:   feeds,
		Prober:  prober,
		Orch:    orch,
		Hub:     hub,
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpsrv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 2 * time.Second,  // kills header-drip Slowloris
		ReadTimeout:       10 * time.Second, // full request read (incl. body)
		WriteTimeout:      15 * time.Second, // avoid forever-hangs on writes
		IdleTimeout:       60 * time.Second, // keep-alive cap
		MaxHeaderBytes:    1 << 20,          // 1MB cap
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return orch.Run(loopCtx) })
	g.Go(func() error { return lifecycle.Run(gctx) })
	g.Go(func() error { return registry.Watch(gctx, cfg.DevicePollInterval) })
	g.Go(func() error {
		log.Info("running HTTP server",
			zap.String("addr", httpsrv.Addr),
			zap.Bool("dev", isDev),
			zap.Int64("max_sessions", procs.Capacity()),
		)
		if err := httpsrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpsrv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		fatal(log, isDev, "server failed", err)
	}
	log.Info("server closed")
}

// handleVersion prints build metadata and exits when -v/--version is provided.
func handleVersion() {
	v := flag.Bool("v", false, "print version and exit")
	flag.BoolVar(v, "version", false, "print version and exit")
	flag.Parse()

	if *v {
		fmt.Printf("avcapture-server %s (commit %s, built %s)\n", config.Version, config.GitCommit, config.BuildDate)
		os.Exit(0)
	}
}

// accessLog is a Gin middleware that records HTTP request/response details with Zap after handling.
func accessLog(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		// collect all errors from Gin context
		var errs []error
		for _, ge := range c.Errors {
			if ge.Err != nil {
				errs = append(errs, ge.Err)
			}
		}
		// errors.Join returns nil if errs is empty
		joinedErr := errors.Join(errs...)

		fields := []zap.Field{
			zap.String("request_id", mw.GetRequestID(c)),
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
			zap.Duration("latency", latency),
		}
		if joinedErr != nil {
			fields = append(fields, zap.Error(joinedErr))
		}

		switch {
		case status >= 500:
			log.Error("request", fields...)
		case status >= 400:
			log.Warn("request", fields...)
		default:
			log.Debug("request", fields...)
		}
	}
}

// helpers

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.DebugLevel)
	return zap.Must(logConfig.Build())
}

// fatal logs err and exits; in dev mode the full error chain is dumped first.
func fatal(log *zap.Logger, isDev bool, msg string, err error) {
	if isDev {
		fmtt.DumpErrChain(os.Stderr, err)
	}
	log.Fatal(msg, zap.Error(err))
}
