package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flaretrack/internal/application/command"
	"flaretrack/internal/application/query"
	"flaretrack/internal/application/services"
	"flaretrack/internal/domain/event"
	"flaretrack/internal/infrastructure/auth"
	"flaretrack/internal/infrastructure/bus"
	httpHandler "flaretrack/internal/infrastructure/http"
	"flaretrack/internal/infrastructure/mongo"
	"flaretrack/internal/infrastructure/projection"
	"flaretrack/pkg/jwt"
	"flaretrack/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found or could not be loaded")
	}

	log.Println("Starting FlareTrack API (Event Sourcing)...")

	mongoConfig := &mongo.MongoConfig{
		URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		Database: getEnv("MONGO_DATABASE", "flaretrack"),
		Timeout:  30 * time.Second,
	}

	mongoClient, err := mongo.NewMongoClient(mongoConfig)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Close(); err != nil {
			log.Printf("Error closing MongoDB connection: %v", err)
		}
	}()

	if err := mongoClient.Ping(); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")

	database := mongoClient.GetDatabase()
	eventBus := newEventBus(getEnv("EVENT_BUS_MODE", "sync"))
	flareProjection := projection.NewMongoFlareProjection(database)

	uowFactory := mongo.NewMongoUnitOfWorkFactory(mongoClient.GetClient(), database)

	// Read-side repository, outside any unit of work.
	flareRepo := mongo.NewMongoFlareRepository(database)

	subscribeProjection(eventBus, flareProjection)

	// Command handlers
	createFlareHandler := command.NewCreateFlareWithUoWHandler(uowFactory, eventBus)
	recordSeverityHandler := command.NewRecordSeverityWithUoWHandler(uowFactory, eventBus)
	recordTrendHandler := command.NewRecordTrendWithUoWHandler(uowFactory, eventBus)
	logInterventionHandler := command.NewLogInterventionWithUoWHandler(uowFactory, eventBus)
	changeStageHandler := command.NewChangeStageWithUoWHandler(uowFactory, eventBus)
	updateStatusHandler := command.NewUpdateFlareStatusWithUoWHandler(uowFactory, eventBus)
	resolveFlareHandler := command.NewResolveFlareWithUoWHandler(uowFactory, eventBus)

	// Query handlers
	getFlareHandler := query.NewGetFlareHandler(flareProjection)
	listUserFlaresHandler := query.NewListUserFlaresHandler(flareProjection)
	getFlareEventsHandler := query.NewGetFlareEventsHandler(flareRepo)
	problemAreasHandler := query.NewGetProblemAreasHandler(flareRepo)
	flaresByRegionHandler := query.NewGetFlaresByRegionHandler(flareRepo)
	regionStatisticsHandler := query.NewGetRegionStatisticsHandler(flareRepo)

	flareService := services.NewFlareService(
		createFlareHandler,
		recordSeverityHandler,
		recordTrendHandler,
		logInterventionHandler,
		changeStageHandler,
		updateStatusHandler,
		resolveFlareHandler,
		getFlareHandler,
		listUserFlaresHandler,
		getFlareEventsHandler,
	)

	analyticsService := services.NewAnalyticsService(
		problemAreasHandler,
		flaresByRegionHandler,
		regionStatisticsHandler,
	)

	jwtManager := jwt.NewJWTManager(getEnv("JWT_SECRET", "dev-secret-change-me"), 24*time.Hour)
	authService := auth.NewService(auth.NewMongoAccountStore(database), jwtManager)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus:", err)
	}

	flareController := httpHandler.NewHTTPFlareController(flareService)
	analyticsController := httpHandler.NewHTTPAnalyticsController(analyticsService)
	authController := httpHandler.NewHTTPAuthController(authService)

	r := chi.NewRouter()
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.RecoveryMiddleware)
	r.Use(middleware.TimeoutMiddleware(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","service":"flaretrack"}`))
	})

	r.Post("/auth/register", authController.Register)
	r.Post("/auth/login", authController.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTAuthMiddleware(jwtManager))

		r.Post("/flares", flareController.CreateFlare)
		r.Get("/flares", flareController.ListFlares)
		r.Get("/flares/{flareID}", flareController.GetFlare)
		r.Get("/flares/{flareID}/events", flareController.GetFlareEvents)
		r.Post("/flares/{flareID}/severity", flareController.RecordSeverity)
		r.Post("/flares/{flareID}/trend", flareController.RecordTrend)
		r.Post("/flares/{flareID}/interventions", flareController.LogIntervention)
		r.Post("/flares/{flareID}/stage", flareController.ChangeStage)
		r.Put("/flares/{flareID}/status", flareController.UpdateStatus)
		r.Post("/flares/{flareID}/resolve", flareController.ResolveFlare)

		r.Get("/analytics/problem-areas", analyticsController.GetProblemAreas)
		r.Get("/analytics/regions/{regionID}/flares", analyticsController.GetFlaresByRegion)
		r.Get("/analytics/regions/{regionID}/statistics", analyticsController.GetRegionStatistics)
	})

	port := getEnv("PORT", "8080")
	server := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Server starting on port %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server:", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during server shutdown: %v", err)
	}

	eventBus.Stop()
	log.Println("Server stopped")
}

// subscribeProjection wires every flare event type to its read-model handler.
func subscribeProjection(eventBus bus.EventBus, p projection.FlareProjection) {
	eventBus.Subscribe("FlareCreated", bus.EventHandlerFunc(
		func(ctx context.Context, e event.DomainEvent) error {
			return p.HandleFlareCreated(ctx, e.(*event.FlareCreated))
		}))

	eventBus.Subscribe("FlareSeverityUpdated", bus.EventHandlerFunc(
		func(ctx context.Context, e event.DomainEvent) error {
			return p.HandleSeverityUpdated(ctx, e.(*event.FlareSeverityUpdated))
		}))

	eventBus.Subscribe("FlareTrendChanged", bus.EventHandlerFunc(
		func(ctx context.Context, e event.DomainEvent) error {
			return p.HandleTrendChanged(ctx, e.(*event.FlareTrendChanged))
		}))

	eventBus.Subscribe("FlareInterventionLogged", bus.EventHandlerFunc(
		func(ctx context.Context, e event.DomainEvent) error {
			return p.HandleInterventionLogged(ctx, e.(*event.FlareInterventionLogged))
		}))

	eventBus.Subscribe("FlareStageChanged", bus.EventHandlerFunc(
		func(ctx context.Context, e event.DomainEvent) error {
			return p.HandleStageChanged(ctx, e.(*event.FlareStageChanged))
		}))

	eventBus.Subscribe("FlareStatusChanged", bus.EventHandlerFunc(
		func(ctx context.Context, e event.DomainEvent) error {
			return p.HandleStatusChanged(ctx, e.(*event.FlareStatusChanged))
		}))

	eventBus.Subscribe("FlareResolved", bus.EventHandlerFunc(
		func(ctx context.Context, e event.DomainEvent) error {
			return p.HandleFlareResolved(ctx, e.(*event.FlareResolved))
		}))
}

// newEventBus selects the projection dispatch mode. Async trades read-model
// freshness for command latency; the event log stays the source of truth
// either way.
func newEventBus(mode string) bus.EventBus {
	if mode == "async" {
		log.Println("Using async event bus for projection updates")
		return bus.NewAsyncEventBus()
	}
	return bus.NewInMemoryEventBus()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
