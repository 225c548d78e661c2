// File: storefront-service/cmd/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront-service/internal/api"
	"storefront-service/internal/assistant"
	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/config"
	"storefront-service/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

const (
	defaultAppName = "StorefrontService" // App name for logger
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found or failed to load, relying on system environment")
	}
	logger := log.New(os.Stdout, fmt.Sprintf("[%s] ", defaultAppName), log.LstdFlags|log.Lshortfile|log.Lmicroseconds)
	logger.Println("INFO: Starting service...")

	// --- Configuration Loading ---
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("FATAL: Error loading configuration: %v", err)
	}
	logger.Printf("INFO: Configuration loaded for APP_ENV: %s, LogLevel: %s", cfg.AppEnv, cfg.LogLevel)

	// --- Object Store ---
	objects, err := buildObjectStore(cfg)
	if err != nil {
		logger.Fatalf("FATAL: Failed to initialize object store: %v", err)
	}
	logger.Printf("INFO: Object store backend %q ready.", cfg.Store.Backend)

	// --- Catalog Services ---
	resolver := catalog.NewResolver(objects)
	products := catalog.NewProducts(objects, resolver)
	categories := catalog.NewCategories(objects, resolver, cfg.Catalog.PageSize)
	searcher := catalog.NewSearcher(resolver, cfg.Catalog.SearchLimit)

	// --- Cart, Checkout and Assistant ---
	carts := cart.NewService(cart.NewCookieStore(cfg.Session.Key, cfg.Session.MaxAge))
	checkoutClient := cart.NewCheckoutClient(cfg.Checkout.URL, nil)
	assistantClient := assistant.NewClient(cfg.Assistant.UpstreamURL, cfg.Assistant.APIKey, cfg.Assistant.Model, nil)

	// --- Initialize API Handlers ---
	httpAPIHandler := api.NewHTTPHandler(products, categories, searcher, objects, carts, checkoutClient, assistantClient)

	// --- Setup & Start HTTP Server ---
	httpRouter := chi.NewRouter()
	setupBaseMiddleware(httpRouter, logger)
	registerHealthCheck(httpRouter, logger, resolver)
	httpAPIHandler.RegisterRoutes(httpRouter)

	httpServer := &http.Server{
		Addr:         ":" + cfg.HttpServer.Port,
		Handler:      httpRouter,
		ReadTimeout:  cfg.HttpServer.TimeoutRead,
		WriteTimeout: cfg.HttpServer.TimeoutWrite,
		IdleTimeout:  cfg.HttpServer.TimeoutIdle,
	}

	go func() {
		logger.Printf("INFO: HTTP server listening on port %s", cfg.HttpServer.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("FATAL: HTTP server ListenAndServe error: %v", err)
		}
		logger.Println("INFO: HTTP server has stopped.")
	}()

	// --- Graceful Shutdown ---
	shutdownComplete := make(chan struct{})
	go waitForShutdown(logger, httpServer, shutdownComplete)

	<-shutdownComplete
	logger.Println("INFO: Service shutdown sequence finished.")
}

func buildObjectStore(cfg *config.Config) (store.ObjectStore, error) {
	switch cfg.Store.Backend {
	case "http":
		return store.NewHTTPStore(cfg.Store.BaseURL, nil), nil
	case "fs":
		return store.NewFSStore(cfg.Store.Root), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func setupBaseMiddleware(router *chi.Mux, logger *log.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))
	logger.Println("INFO: Base HTTP middleware registered.")
}

func registerHealthCheck(router *chi.Mux, logger *log.Logger, resolver *catalog.Resolver) {
	healthPath := "/api/healthz"
	router.Get(healthPath, func(w http.ResponseWriter, r *http.Request) {
		// The product index is the one dependency the storefront cannot
		// serve without, so its reachability doubles as the store check.
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		indexStatus := "healthy"
		if _, err := resolver.ProductIndex(ctx); err != nil {
			indexStatus = "unhealthy"
			logger.Printf("WARN: Health check index fetch failed: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":      "healthy",
			"serviceName": defaultAppName,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"index":       indexStatus,
		})
	})
	logger.Printf("INFO: HTTP health check registered at %s", healthPath)
}

func waitForShutdown(logger *log.Logger, httpServer *http.Server, shutdownComplete chan struct{}) {
	defer close(shutdownComplete)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	receivedSignal := <-sigChan
	logger.Printf("INFO: Received signal: %s. Starting graceful shutdown...", receivedSignal)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	logger.Println("INFO: Attempting to gracefully shut down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("WARN: HTTP server graceful shutdown failed: %v", err)
	} else {
		logger.Println("INFO: HTTP server gracefully shut down.")
	}

	logger.Println("INFO: Graceful shutdown sequence completed.")
}
