package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ard/internal/controllers"
	"ard/internal/providers"
	"ard/internal/reply"
	"ard/internal/reply/interfaces"
	"ard/internal/services"
	"ard/internal/structures"
)

const startupTimeout = 30 * time.Second

type App struct {
	WebServer *http.Server
}

func NewApp(apiController *controllers.ApiController, healthController *controllers.HealthController, dispatcher *reply.Dispatcher, scheduler interfaces.SchedulerInterface, transport interfaces.TransportInterface, store interfaces.AccountStoreInterface, service services.RuleServiceInterface, persister interfaces.PersisterInterface, journal interfaces.JournalInterface, conf *structures.Config, logger providers.Logger, router providers.RouterProviderInterface, metrics providers.MetricsProviderInterface) (*App, error) {
	// Inner mux: API routes. Method-qualified patterns let one path carry
	// both the read and the update handler.
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Method+" "+route.Url, route.Handler)
	}

	// Wrap API routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, apiMux)

	// Outer mux: infrastructure + instrumented API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	logger.Infof(providers.TypeApp, "Starting %s", conf.AppName)

	startCtx, cancelStart := context.WithTimeout(context.Background(), startupTimeout)
	defer cancelStart()

	if err := transport.Connect(startCtx); err != nil {
		return nil, fmt.Errorf("transport connect: %w", err)
	}

	uin, err := transport.CurrentIdentity(startCtx)
	if err != nil {
		return nil, fmt.Errorf("resolve account identity: %w", err)
	}
	service.SetUin(uin)
	logger.Infof(providers.TypeApp, "Active account: %s", uin)

	cfg, err := store.Load(uin)
	if err != nil {
		return nil, fmt.Errorf("load account record: %w", err)
	}
	dispatcher.ApplyConfig(cfg)

	app := &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}

	scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", conf.WebServer.Host, conf.WebServer.Port)
		if err := app.WebServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Infof(providers.TypeApp, "Shutdown signal received")
	case err := <-serverErr:
		return nil, fmt.Errorf("server error: %w", err)
	}

	dispatcher.Unsubscribe()
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err = app.WebServer.Shutdown(ctx); err != nil {
		return nil, err
	}

	if err = persister.Flush(); err != nil {
		logger.Errorf(providers.TypeApp, "Final persist failed: %s", err)
	}
	if err = journal.Close(); err != nil {
		logger.Errorf(providers.TypeApp, "Journal close failed: %s", err)
	}
	if err = transport.Close(); err != nil {
		logger.Errorf(providers.TypeApp, "Transport close failed: %s", err)
	}

	logger.Infof(providers.TypeApp, "gracefully stopped")
	return app, nil
}
