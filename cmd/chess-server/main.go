// Package main implements the chess server: a REST API over the rules
// engine with optional persistence, user accounts and UCI computer players.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chessgame/cmd/chess-server/cli"
	"chessgame/internal/engine"
	"chessgame/internal/http"
	"chessgame/internal/processor"
	"chessgame/internal/service"
	"chessgame/internal/storage"

	"github.com/go-playground/validator/v10"
)

const (
	gracefulShutdownTimeout = time.Second * 5
)

// Config holds the validated command-line settings.
type Config struct {
	APIHost       string `validate:"required,hostname|ip"`
	APIPort       int    `validate:"min=1,max=65535"`
	Dev           bool
	StoragePath   string
	EnginePath    string `validate:"required"`
	EngineWorkers int    `validate:"min=1,max=32"`
	PIDFile       string `validate:"required_if=PIDLock true"`
	PIDLock       bool
}

func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

func parseFlags(args []string) (Config, error) {
	var cfg Config
	fs := flag.NewFlagSet("chess-server", flag.ContinueOnError)
	fs.StringVar(&cfg.APIHost, "api-host", "localhost", "API server host")
	fs.IntVar(&cfg.APIPort, "api-port", 8080, "API server port")
	fs.BoolVar(&cfg.Dev, "dev", false, "Development mode (relaxed rate limits, fixed token secret)")
	fs.StringVar(&cfg.StoragePath, "storage-path", "", "Path to SQLite database file (disables persistence if empty)")
	fs.StringVar(&cfg.EnginePath, "engine", engine.DefaultPath, "Path to the UCI engine binary")
	fs.IntVar(&cfg.EngineWorkers, "engine-workers", 2, "Number of engine processes")
	fs.StringVar(&cfg.PIDFile, "pid", "", "Write the server pid to this file")
	fs.BoolVar(&cfg.PIDLock, "pid-lock", false, "Hold an exclusive lock on the pid file (requires -pid)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func main() {
	// admin subcommands
	if len(os.Args) > 1 && (os.Args[1] == "db" || os.Args[1] == "user") {
		if err := cli.Run(os.Args[1:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if cfg.PIDFile != "" {
		release, err := writePIDFile(cfg.PIDFile, cfg.PIDLock)
		if err != nil {
			log.Fatalf("Failed to manage PID file: %v", err)
		}
		defer release()
		log.Printf("PID file: %s", cfg.PIDFile)
	}

	// 1. Storage (optional)
	var store *storage.Store
	if cfg.StoragePath != "" {
		log.Printf("Initializing persistent storage at: %s", cfg.StoragePath)
		store, err = storage.NewStore(cfg.StoragePath, cfg.Dev)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		if err := store.InitDB(); err != nil {
			log.Fatalf("Failed to initialize schema: %v", err)
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Printf("Warning: failed to close storage cleanly: %v", err)
			}
		}()
	} else {
		log.Printf("Persistent storage disabled (use -storage-path to enable)")
	}

	var jwtSecret []byte
	if cfg.Dev {
		jwtSecret = []byte("dev-secret-minimum-32-characters-long")
		log.Printf("Using fixed JWT secret (dev mode)")
	} else {
		jwtSecret = make([]byte, 32)
		if _, err := rand.Read(jwtSecret); err != nil {
			log.Fatalf("Failed to generate JWT secret: %v", err)
		}
		log.Printf("JWT secret generated (tokens valid until restart)")
	}

	// 2. Service
	svc := service.New(store, jwtSecret)

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go svc.RunCleanupJob(cleanupCtx, service.CleanupJobInterval)

	// 3. Processor with its engine pool
	proc := processor.New(svc, processor.Config{
		EnginePath: cfg.EnginePath,
		Workers:    cfg.EngineWorkers,
	})

	// 4. HTTP
	app := http.NewFiberApp(proc, svc, cfg.Dev)

	go func() {
		addr := cfg.Addr()
		log.Printf("Chess API Server starting...")
		log.Printf("API Listening on: http://%s", addr)
		if cfg.Dev {
			log.Printf("Rate Limit: 20 requests/second per IP (DEV MODE)")
		} else {
			log.Printf("Rate Limit: 10 requests/second per IP")
		}
		if proc.EngineAvailable() {
			log.Printf("Engine: %s (%d workers)", cfg.EnginePath, cfg.EngineWorkers)
		} else {
			log.Printf("Engine: unavailable (computer moves disabled)")
		}
		log.Printf("API Endpoints: http://%s/api/v1/games", addr)
		log.Printf("Auth Endpoints: http://%s/api/v1/auth/[register|login|me]", addr)
		log.Printf("Health: http://%s/health", addr)

		if err := app.Listen(addr); err != nil {
			log.Printf("API server listen error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := proc.Close(); err != nil {
		log.Printf("Processor close error: %v", err)
	}

	cleanupCancel()

	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Printf("Service shutdown error: %v", err)
	}

	log.Println("Server exited")
}
