package main

import (
	"fmt"
	"log"
	"os"

	"github.com/democratize-technology/open-food-facts/config"
	httpDelivery "github.com/democratize-technology/open-food-facts/internal/delivery/http"
	"github.com/democratize-technology/open-food-facts/internal/infrastructure/off"
	"github.com/democratize-technology/open-food-facts/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting Open Food Facts Gateway v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("API endpoint: %s", cfg.API.BaseURL)
	log.Printf("Insight endpoint: %s", cfg.API.InsightURL)

	// One client per gateway process: the gateway is a single principal
	// writing with one credential pair. Never hand this instance to a
	// second principal.
	client, err := off.NewClient(cfg.API.BaseURL, cfg.API.InsightURL)
	if err != nil {
		log.Fatalf("Failed to create API client: %v", err)
	}

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
		log.Printf("API client debug mode enabled")
	}

	if cfg.Auth.UserID != "" {
		if err := client.SetCredentials(cfg.Auth.UserID, cfg.Auth.Password); err != nil {
			log.Fatalf("Failed to set credentials: %v", err)
		}
		log.Printf("Write credentials configured for user: %s", cfg.Auth.UserID)
	} else {
		log.Printf("No write credentials configured - write endpoints will be rejected")
	}

	// Initialize usecase layer
	service := usecase.NewProductService(client, usecase.ProductServiceConfig{
		MaxAttempts:        cfg.Retry.MaxAttempts,
		EnableDebugLogging: cfg.Server.Environment == "development",
	})

	log.Printf("Retry: max_attempts=%d", cfg.Retry.MaxAttempts)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(service)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
