package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vigilcam/vigil/internal/app"
	"github.com/vigilcam/vigil/internal/config"
)

func main() {
	fmt.Println("Vigil - Video Surveillance Pipeline")

	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	system, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize pipeline: %v", err)
	}

	// Stop the main loop on SIGINT/SIGTERM; Run releases resources on
	// the way out.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Printf("Received %v, shutting down", sig)
		system.Stop()
	}()

	if err := system.Run(ctx); err != nil {
		log.Fatalf("Pipeline stopped: %v", err)
	}
}
