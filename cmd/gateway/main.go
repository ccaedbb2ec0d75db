package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openalpha/crowdchain/api"
)

func main() {
	// Command line flags
	host := flag.String("host", "0.0.0.0", "Server host")
	port := flag.Int("port", 8080, "Server port")
	node := flag.String("node", "ws://localhost:26657/websocket", "CometBFT websocket endpoint")
	benchMode := flag.Bool("bench", false, "Enable benchmark mode (no rate limiting)")
	flag.Parse()

	if *benchMode {
		log.Println("Benchmark mode: Rate limiting disabled")
	}

	config := &api.Config{
		Host:             *host,
		Port:             *port,
		NodeURL:          *node,
		ReadTimeout:      30 * time.Second,
		WriteTimeout:     30 * time.Second,
		DisableRateLimit: *benchMode,
	}

	server := api.NewServer(config)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Crowdchain gateway started on %s:%d", *host, *port)
	log.Printf("Chain node: %s", *node)
	log.Printf("WebSocket endpoint: ws://%s:%d/ws", *host, *port)
	log.Printf("Health check: http://%s:%d/health", *host, *port)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down gateway...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		log.Printf("Gateway shutdown error: %v", err)
	}

	log.Println("Gateway exited")
}
