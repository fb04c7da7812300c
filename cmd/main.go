package main

import (
	"log"

	"github.com/lumenquiz/session-runtime/internal/bootstrap"
)

func main() {
	app, err := bootstrap.NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.Stop()

	// Blocks until SIGINT/SIGTERM, then shuts down gracefully
	app.Start()
}
