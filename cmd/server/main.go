// Command server is the entry point for the Paceon feed API.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/fullmoon-jpg/paceon-sub000/internal/config"
	"github.com/fullmoon-jpg/paceon-sub000/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Server starting on port %s...", cfg.Port)
	if err := srv.Run(ctx); err != nil {
		log.Fatalf("Server exited with error: %v", err)
	}
}
