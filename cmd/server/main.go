// Command server runs the recommendation engine's HTTP API and background
// cache populator side by side, wiring every collaborator from config.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"

	"reelsense/config"
	"reelsense/handlers"
	"reelsense/internal/store/sqlite"
	"reelsense/services/discovery"
	"reelsense/services/dna"
	"reelsense/services/enrichment"
	"reelsense/services/metadata"
	"reelsense/services/preferences"
	"reelsense/services/recommend"
	"reelsense/services/scheduler"
	"reelsense/services/scoring"
	"reelsense/services/semantic"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log.SetOutput(&lumberjack.Logger{
		Filename:   "logs/reelsense.log",
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	})

	settings := config.NewManager(config.DefaultSettings()).Load()

	db, err := sqlite.Open(sqlite.Config{DSN: settings.SQLiteDSN})
	if err != nil {
		log.Fatalf("[server] open sqlite: %v", err)
	}
	defer db.Close()

	prefStore := sqlite.NewPreferenceRepository(db.Connection())
	cacheStore := sqlite.NewCacheRepository(db.Connection())

	requestLimiter := metadata.NewLimiter(settings.RequestConcurrency, 0)
	requestClient := metadata.NewClient(settings.MetadataBaseURL, settings.MetadataAPIKey, settings.MetadataLanguage,
		settings.RequestCacheTTL, settings.RequestCacheCapacity, requestLimiter)

	populatorLimiter := metadata.NewLimiter(settings.PopulatorConcurrency, settings.PopulatorMinGap)
	populatorClient := metadata.NewClient(settings.MetadataBaseURL, settings.MetadataAPIKey, settings.MetadataLanguage,
		settings.RequestCacheTTL, settings.RequestCacheCapacity, populatorLimiter)

	orchestrator := recommend.NewOrchestrator(
		preferences.NewAdapter(prefStore),
		dna.NewAnalyzer(requestClient),
		discovery.NewDiscoverer(requestClient),
		enrichment.NewEnricher(requestClient),
		scoring.NewEngine(semantic.NewTokenOverlapScorer()),
	)

	topGenres := []int{28, 35, 18, 12, 27}
	populator := scheduler.NewService(populatorClient, cacheStore,
		settings.PopulatorDailyInterval, settings.PopulatorWeeklyInterval, topGenres)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := populator.Start(ctx); err != nil {
		log.Fatalf("[server] start populator: %v", err)
	}

	router := mux.NewRouter()
	recHandler := handlers.NewRecommendationHandler(orchestrator)
	router.HandleFunc("/recommendations", recHandler.Recommend).Methods(http.MethodGet, http.MethodPost)

	srv := &http.Server{
		Addr:         addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.Printf("[server] listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[server] shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] WARNING: http shutdown: %v", err)
	}
	if err := populator.Stop(shutdownCtx); err != nil {
		log.Printf("[server] WARNING: populator shutdown: %v", err)
	}
	log.Println("[server] stopped")
}

func addr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}
