package main

import (
	"log"

	"seekmark/internal/app"
)

func main() {
	if err := app.New().Run(); err != nil {
		log.Fatalf("❌ seekmark failed to start: %v", err)
	}
}
