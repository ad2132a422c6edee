package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mpetrow/roomcast/internal/server"
)

func main() {
	fmt.Println("Starting Roomcast server...")

	// Load configuration from the environment
	config := server.NewConfigFromEnv()
	server.SetConfig(config)

	// Start the hub before accepting connections
	server.StartHub()

	// Setup routes
	mux := server.SetupRoutes()

	// Create and start server
	httpServer := server.CreateServer(config.Port, mux)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.StartServer(httpServer)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	case sig := <-stop:
		log.Printf("Received signal %v, shutting down...", sig)
		if err := server.ShutdownServer(httpServer, 10*time.Second); err != nil {
			log.Printf("HTTP shutdown error: %v", err)
		}
		if err := server.GetHub().Shutdown(10 * time.Second); err != nil {
			log.Printf("Hub shutdown error: %v", err)
		}
	}
}
