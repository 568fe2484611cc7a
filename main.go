package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sherpa/auth"
	"sherpa/blobstore"
	"sherpa/hub"
	"sherpa/menu"
	"sherpa/ratelim"
	"sherpa/routes"
	"sherpa/settings"

	"github.com/joho/godotenv"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		log.Printf("%s %s from %s – %v", r.Method, r.RequestURI, r.RemoteAddr, duration)
	})
}

func main() {
	// load .env if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = ":4000"
	} else if port[0] != ':' {
		port = ":" + port
	}

	ctx := context.Background()

	rateLimiter := ratelim.NewRateLimiter()

	broadcastHub := hub.NewHub()
	go broadcastHub.Run()

	blobs, err := blobstore.NewFromEnv(ctx)
	if err != nil {
		log.Fatalf("❌ Blob store init failed: %v", err)
	}

	settingsSvc := settings.NewService(settings.NewMongoStore(), broadcastHub)
	menuSvc := menu.NewService(menu.NewMongoStore(), blobs, broadcastHub)

	auth.EnsureDefaultAdmin(ctx)

	router := httprouter.New()
	routes.AddAuthRoutes(router, rateLimiter)
	routes.AddSettingsRoutes(router, rateLimiter, settingsSvc)
	routes.AddMenuRoutes(router, rateLimiter, menuSvc, settingsSvc)
	routes.AddSyncRoutes(router, broadcastHub)

	// serve filesystem blobs when that backend is active
	if dir := os.Getenv("BLOB_DIR"); dir != "" {
		router.ServeFiles("/uploads/*filepath", http.Dir(dir))
	} else if os.Getenv("BLOB_STORE") == "" || os.Getenv("BLOB_STORE") == "filesystem" {
		router.ServeFiles("/uploads/*filepath", http.Dir("static/menupics"))
	}

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	server.RegisterOnShutdown(func() {
		log.Println("🛑 Shutting down sync hub...")
		broadcastHub.Stop()
	})

	go func() {
		log.Printf("🚀 Server listening on %s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("❌ Graceful shutdown failed: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
