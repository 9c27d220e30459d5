package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"hub-search/internal/api"
	"hub-search/internal/db"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to listen on")
	dbPath := flag.String("db", "", "Path to SQLite database")
	flag.Parse()

	// Default database path
	if *dbPath == "" {
		cwd, _ := os.Getwd()
		*dbPath = filepath.Join(cwd, "data", "hub-search.db")
	}

	log.Printf("Database path: %s", *dbPath)

	// Initialize database
	database, err := db.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Create router
	router := api.NewRouter(database)

	// Start server
	addr := fmt.Sprintf(":%d", *port)
	log.Printf("Starting server on http://localhost%s", addr)

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
