package main

import (
	"flag"
	"log"

	"tessera/internal/validation"
)

func main() {
	var baseURL, username, password string
	flag.StringVar(&baseURL, "url", "http://localhost:8081", "Base URL for API validation")
	flag.StringVar(&username, "user", "admin@tessera.local", "Admin account email")
	flag.StringVar(&password, "password", "admin123", "Admin account password")
	flag.Parse()

	log.Printf("Starting API validation against: %s", baseURL)

	validator := validation.NewSmokeValidator(baseURL, username, password)
	if err := validator.ValidateAll(); err != nil {
		log.Fatalf("Validation failed: %v", err)
	}

	log.Println("Validation passed")
}
