// Package server provides HTTP server setup and initialization for DevLens.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (CORS, rate limiting, recovery, metrics)
//   - Provider client behind the sliding-window budget
//   - Session store with TTL sweeping
//   - Ingestion service and event bus
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger (production or development)
//  3. Build the provider client, store, bus, and ingestion service
//  4. Setup HTTP routes and middleware
//  5. Start the sweep loop and analysis worker
//  6. Start HTTP server
//  7. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
