// Package main is the entry point for the media upload gateway
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/mediauploader/internal/config"
	"github.com/example/mediauploader/internal/handlers"
	"github.com/example/mediauploader/internal/middleware"
	"github.com/example/mediauploader/internal/uploader"
)

var (
	configFile = flag.String("config", "mediauploader.json", "Configuration file path")
	testConfig = flag.Bool("test-config", false, "Test configuration and exit")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = "1.0.0" // Version number for the application
)

const serviceName = "media-upload-gateway"

// isPortInUse checks if the given port is already in use
func isPortInUse(port int) bool {
	addr := fmt.Sprintf(":%d", port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return true
	}
	listener.Close()
	return false
}

// findFreePort tries to find a free port starting from the given port and incrementing
// by 1 if the port is in use. Stops searching after trying 100 ports or reaching port
// 65535.
func findFreePort(startPort int) int {
	port := startPort
	maxPortToTry := startPort + 100
	if maxPortToTry > 65535 {
		maxPortToTry = 65535
	}

	for port <= maxPortToTry {
		if !isPortInUse(port) {
			return port
		}
		port++
	}

	// If no free port found in the range, return the original port
	// (will still fail when the server tries to start)
	return startPort
}

// newUploader builds the configured upload provider, falling back to local storage
// when the configured provider cannot be initialized
func newUploader() uploader.Uploader {
	cfg := config.AppConfig.Uploader

	u, err := uploader.Create(cfg.Provider, cfg.Options())
	if err == nil {
		log.Printf("Using '%s' upload provider", cfg.Provider)
		return u
	}

	log.Printf("Upload provider '%s' unavailable: %v", cfg.Provider, err)
	log.Println("Falling back to local storage")

	u, err = uploader.Create("local", map[string]string{"basePath": cfg.LocalDir})
	if err != nil {
		log.Fatalf("Failed to initialize local upload provider: %v", err)
	}
	return u
}

func main() {
	// Parse command line flags
	flag.Parse()

	// Load application configuration
	if err := config.LoadConfig(*configFile); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *verbose {
		log.Printf("Configuration loaded from %s", *configFile)
		log.Printf("Allowed types: %v", config.AppConfig.Limits.AllowedTypes)
	}

	// Test configuration if requested
	if *testConfig {
		fmt.Println("Configuration test successful")
		return
	}

	// Print banner and version
	fmt.Printf("\n=================================\n")
	fmt.Printf("Media Upload Gateway v%s\n", version)
	fmt.Printf("=================================\n\n")
	fmt.Printf("Upload provider: %s\n", config.AppConfig.Uploader.Provider)
	fmt.Printf("Limits: %d files per request, %d bytes per file\n",
		config.AppConfig.Limits.MaxFiles,
		config.AppConfig.Limits.MaxFileSizeBytes)

	// Build the shared upload provider
	up := newUploader()

	// Start the progress hub if enabled
	var hub *handlers.ProgressHub
	if config.AppConfig.Features.EnableProgressUpdates {
		hub = handlers.NewProgressHub(config.AppConfig.Server.AllowedOrigins)
		go hub.Run()
	}

	uploadHandler := handlers.NewUploadHandler(up, config.AppConfig.Limits, hub, serviceName, version)

	// Create router with middleware
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	router.HandleFunc("/upload", uploadHandler.UploadBatch).Methods(http.MethodPost)
	router.HandleFunc("/health", uploadHandler.Health).Methods(http.MethodGet)

	// WebSocket endpoint for upload progress events
	if hub != nil {
		router.HandleFunc("/ws", hub.ServeWs)
	}

	// Serve locally stored files when the local provider is active
	if local, ok := up.(*uploader.LocalUploader); ok {
		router.PathPrefix("/files/").Handler(
			http.StripPrefix("/files/", http.FileServer(http.Dir(local.BasePath()))))
	}

	// Serve static UI files
	router.PathPrefix("/").Handler(handlers.StaticHandler{Dir: config.AppConfig.Server.UIDir})

	// Add middleware
	handler := middleware.Chain(
		router,
		middleware.Logger(),
		middleware.Recover(),
		middleware.CORS(config.AppConfig.Server.AllowedOrigins),
	)

	// Check if the configured port is available, if not find a free port
	originalPort := config.AppConfig.Server.Port
	if isPortInUse(originalPort) {
		newPort := findFreePort(originalPort)
		if newPort != originalPort {
			log.Printf("Port %d is already in use. Switching to alternative port %d", originalPort, newPort)
			config.AppConfig.Server.Port = newPort
		} else {
			log.Printf("Warning: Port %d is in use, but no alternative port was found. The server may fail to start.", originalPort)
		}
	}

	addr := config.GetAddressString()
	server := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Channel to listen for interrupt signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start the server in a goroutine
	go func() {
		log.Printf("Starting server on %s", addr)

		var err error
		if config.AppConfig.Server.CertFile != "" && config.AppConfig.Server.KeyFile != "" {
			log.Printf("Using TLS with cert file %s and key file %s",
				config.AppConfig.Server.CertFile,
				config.AppConfig.Server.KeyFile)
			err = server.ListenAndServeTLS(
				config.AppConfig.Server.CertFile,
				config.AppConfig.Server.KeyFile)
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Println("Shutting down server...")

	// Create context with timeout for graceful shutdown
	ctx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(config.AppConfig.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	// Shutdown the server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Disconnect progress clients
	hub.Shutdown()

	log.Println("Server shutdown complete")
}
