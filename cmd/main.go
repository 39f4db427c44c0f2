package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lh3/db"
	"lh3/internal/auth"
	"lh3/internal/config"
	"lh3/internal/events"
	"lh3/internal/forum"
	"lh3/internal/users"
	"lh3/internal/web"
	"lh3/middleware"
)

// Global loggers for different output streams
var (
	infoLogger  = log.New(os.Stdout, "", log.LstdFlags)
	errorLogger = log.New(os.Stderr, "", log.LstdFlags)
)

func main() {
	infoLogger.Printf("Starting LH3 - Process ID: %d", os.Getpid())

	// Missing configuration is the only process-fatal condition
	cfg, err := config.LoadConfig()
	if err != nil {
		errorLogger.Fatalf("Failed to load configuration: %v", err)
	}

	var sqliteDB *sql.DB
	var client *db.PostgRESTClient

	switch cfg.DatabaseType {
	case config.SQLite:
		infoLogger.Println("Using SQLite database")
		sqliteDB, err = db.ConnectToSQLite(cfg.SQLitePath)
		if err != nil {
			errorLogger.Fatalf("Failed to connect to SQLite: %v", err)
		}
		if err := db.InitializeSchema(sqliteDB); err != nil {
			errorLogger.Fatalf("Failed to initialize database schema: %v", err)
		}
	default:
		infoLogger.Println("Using hosted table store")
		client = db.NewPostgRESTClient(cfg.SupabaseURL, cfg.SupabaseKey)
	}

	repoFactory := db.NewRepositoryFactory(sqliteDB, client)

	// Create repositories
	userRepo := repoFactory.NewUserRepository()
	eventRepo := repoFactory.NewEventRepository()
	rsvpRepo := repoFactory.NewRSVPRepository()
	forumRepo := repoFactory.NewForumPostRepository()

	// Create services
	authService := auth.NewService(userRepo)
	userService := users.NewUserService(userRepo)
	eventService := events.NewEventService(eventRepo, rsvpRepo)
	forumService := forum.NewForumService(forumRepo)

	sessions := auth.NewSessionManager(cfg.SessionSecret, userRepo)
	mw := middleware.NewMiddleware(sessions, cfg.JwtKey)
	apiHandlers := auth.NewAPIHandlers(authService, cfg.JwtKey)
	eventHandlers := events.NewEventHandlers(eventService)

	webHandler, err := web.NewWebHandler(authService, userService, eventService, forumService, sessions, "templates")
	if err != nil {
		errorLogger.Fatalf("Failed to load templates: %v", err)
	}

	router := webHandler.SetupRoutes(mw, apiHandlers, eventHandlers)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: router,
	}

	go func() {
		infoLogger.Printf("Listening on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errorLogger.Fatalf("HTTP server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	infoLogger.Println("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		errorLogger.Printf("Shutdown error: %v", err)
	}
	if sqliteDB != nil {
		sqliteDB.Close()
	}
}
