// Package bootstrap wires config, persistence, the Runtime Controller,
// the Connection Adapter, and the HTTP router into a runnable application.
package bootstrap

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-redis/redis/v8"

	"github.com/lumenquiz/session-runtime/internal/config"
	"github.com/lumenquiz/session-runtime/internal/logging"
	"github.com/lumenquiz/session-runtime/internal/repository"
	"github.com/lumenquiz/session-runtime/internal/ws"
)

// App represents the application
type App struct {
	config      *config.Config
	server      *Server
	db          *repository.DB
	redisClient *redis.Client
	cancelHub   context.CancelFunc
}

// NewApp creates a new application instance
func NewApp() (*App, error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Setup database
	db, err := repository.NewPostgresDB(cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Connected to PostgreSQL database")

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Test Redis connection
	ctx := context.Background()
	_, err = redisClient.Ping(ctx).Result()
	if err != nil {
		db.Close() // Close DB if Redis fails
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	log.Println("Connected to Redis")

	runtimeLog := logging.NewRuntimeLogger(os.Getenv("DEBUG") != "")

	// Setup the observer hub
	hubCtx, cancelHub := context.WithCancel(ctx)
	hostname, _ := os.Hostname()
	hub := ws.NewRedisHub(redisClient, hostname, runtimeLog)
	go hub.Run(hubCtx)
	log.Println("Started observer hub")

	// Initialize repositories, the Session Runtime, and handlers
	repos := NewRepositories(db)
	controller := NewController(repos, cfg.Grader, hub, runtimeLog)
	handlers := NewHandlers(controller, repos, hub.Hub, cfg, runtimeLog)

	// Setup router
	router := SetupRouter(handlers, cfg)

	// Setup server
	server := NewServer(cfg, router)

	return &App{
		config:      cfg,
		server:      server,
		db:          db,
		redisClient: redisClient,
		cancelHub:   cancelHub,
	}, nil
}

// Start starts the application
func (a *App) Start() {
	a.server.Start()
}

// Stop gracefully stops the application
func (a *App) Stop() {
	if a.cancelHub != nil {
		a.cancelHub()
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			log.Printf("Error closing Redis client: %v", err)
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Printf("Error closing database connection: %v", err)
		}
	}
}
