package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/drey/internal/await"
	"github.com/dyluth/drey/internal/config"
	"github.com/dyluth/drey/internal/gateway"
	"github.com/dyluth/drey/internal/toolhost"
	"github.com/dyluth/drey/pkg/rendezvous"
)

func main() {
	// Exit with appropriate code
	os.Exit(run())
}

// run contains the main logic and returns an exit code.
// This separation makes the logic testable and ensures deferred functions run.
func run() int {
	// Replies go to stdout; logs must stay off it
	log.SetOutput(os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		log.Printf("[ERROR] Configuration error: %v", err)
		return 1
	}
	log.Printf("[INFO] dreyd starting for instance='%s'", cfg.InstanceName)

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		log.Printf("[ERROR] Invalid REDIS_URL: %v", err)
		return 1
	}

	store, err := rendezvous.NewClient(redisOpts, cfg.InstanceName)
	if err != nil {
		log.Printf("[ERROR] Failed to create store client: %v", err)
		return 1
	}
	defer func() {
		log.Printf("[DEBUG] Closing store client...")
		if err := store.Close(); err != nil {
			log.Printf("[ERROR] Error closing store client: %v", err)
		}
	}()

	// Verify Redis connection
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := store.Ping(pingCtx); err != nil {
		cancel()
		log.Printf("[ERROR] Failed to connect to Redis: %v", err)
		return 1
	}
	cancel()
	log.Printf("[INFO] Connected to Redis")

	coord := await.New(store, cfg.PollInterval())
	gw := gateway.New(store, coord, cfg.Timeout())
	host := toolhost.New(gw, os.Stdin, os.Stdout)

	// Set up context for graceful shutdown
	hostCtx, hostCancel := context.WithCancel(context.Background())
	defer hostCancel()

	// Set up signal handling for SIGINT and SIGTERM
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Serve tool calls in background goroutine
	hostDone := make(chan error, 1)
	go func() {
		hostDone <- host.Run(hostCtx)
	}()

	// Wait for shutdown signal or input exhaustion
	select {
	case sig := <-sigChan:
		log.Printf("[INFO] Received signal: %v", sig)
		hostCancel()
		// Give in-flight waits a moment to resolve as cancelled. Run itself
		// may stay blocked on stdin, so don't wait on it forever.
		select {
		case <-hostDone:
		case <-time.After(10 * time.Second):
			log.Printf("[WARN] Shutdown timed out waiting for in-flight calls")
		}
		log.Printf("[INFO] Shutdown complete")
		return 0
	case err := <-hostDone:
		if err != nil && err != context.Canceled {
			log.Printf("[ERROR] Tool host error: %v", err)
			return 1
		}
		// Agent runtime closed stdin; normal end of session
		log.Printf("[INFO] Input closed, exiting")
		return 0
	}
}
