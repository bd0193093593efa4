package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/forteleaf/bill-and-pay-sub001/internal/auth"
	"github.com/forteleaf/bill-and-pay-sub001/internal/middleware"
	"github.com/forteleaf/bill-and-pay-sub001/internal/service"
	"github.com/forteleaf/bill-and-pay-sub001/internal/storage/sqlite"
	"github.com/forteleaf/bill-and-pay-sub001/internal/webhook"
	"github.com/forteleaf/bill-and-pay-sub001/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/settlements.db")
	port := getEnv("PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "")
	webhookSecret := getEnv("WEBHOOK_SECRET", "")

	if jwtSecret == "" || webhookSecret == "" {
		slog.Error("JWT_SECRET and WEBHOOK_SECRET must be set")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	jwtManager := auth.NewJWTManager(jwtSecret, 24*time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)
	authService := service.NewAuthService(authenticator, jwtManager, slog.Default())

	settlements := service.NewSettlementService(store)
	webhookHandler := service.NewWebhookHandler(webhook.NewVerifier(webhookSecret), store, settlements)
	review := service.NewReviewHandler(store)

	mux := http.NewServeMux()
	mux.Handle("POST /webhook", webhookHandler)
	mux.HandleFunc("POST /auth/register", authService.Register)
	mux.HandleFunc("POST /auth/login", authService.Login)
	mux.Handle("GET /auth/me", middleware.RequireAuth(jwtManager, http.HandlerFunc(authService.CurrentOperator)))
	mux.Handle("GET /review/settlements", middleware.RequireAuth(jwtManager, http.HandlerFunc(review.List)))
	mux.Handle("POST /review/settlements/resolve", middleware.RequireAuth(jwtManager, http.HandlerFunc(review.Resolve)))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.Logging(middleware.Metrics(mux))
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           h2cHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Settlement server starting", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
