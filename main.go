package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"mindhaven/config"
	"mindhaven/handlers"
	"mindhaven/middleware"
	"mindhaven/routes"
	"mindhaven/services/availability"
	"mindhaven/services/booking"
	"mindhaven/services/identity"
	"mindhaven/services/lifecycle"
	"mindhaven/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, pingers, closeStores := openStores(cfg, logger)
	defer closeStores()

	dispatcher, closeDispatcher := newDispatcher(cfg, stores.Principals, logger)
	defer closeDispatcher()

	provisioner := newProvisioner(cfg)
	leaser, leasePingers := newLeaser(cfg)
	pingers = append(pingers, leasePingers...)
	loc := cfg.Location()

	// services.
	catalog := availability.NewCatalog(stores.Availability)
	resolver := availability.NewResolver(stores.Availability, stores.Bookings, loc)
	registry := identity.NewRegistry(stores.Principals, logger)
	bookingService := booking.NewService(
		stores.Bookings,
		stores.Principals,
		resolver,
		provisioner,
		dispatcher,
		logger,
		loc,
		cfg.MeetingTimeout,
	)

	scheduler := lifecycle.NewScheduler(stores.Bookings, bookingService, leaser, logger, cfg.ReminderLookahead, cfg.CompletionGrace)
	if _, err := lifecycle.Start(ctx, scheduler, cfg.SweepInterval); err != nil {
		logger.Fatal("main: failed to start lifecycle scheduler", zap.Error(err))
	}

	utils.StartHealthMonitor(ctx, pingers, 30*time.Second)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware(cfg.MaxRequestsPerMin))

	handlerBundle := &handlers.HandlerBundle{
		Principals:   stores.Principals,
		AdminToken:   cfg.AdminToken,
		Booking:      handlers.NewBookingHandler(bookingService, logger),
		Availability: handlers.NewAvailabilityHandler(catalog, resolver, logger),
		Admin:        handlers.NewAdminHandler(registry, logger),
		Device:       handlers.NewDeviceHandler(registry),
	}
	routes.RegisterRoutes(router, handlerBundle)

	port := cfg.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Sugar().Errorf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
