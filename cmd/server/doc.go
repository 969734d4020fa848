// Package main is the entry point for the DevLens telemetry server.
//
// This application ingests front-end telemetry (console logs, errors,
// state snapshots) per client session and answers diagnostic questions
// through a rate-limited language-model backend.
//
// Architecture:
//
//	Frontend (browser SDK) → DevLens Server → LLM Backend (HTTP)
//
// The server provides:
//   - REST API for ingestion and session inspection
//   - WebSocket streaming for live telemetry and analysis events
//   - Automatic error analysis with a bounded background worker
//   - Rate limiting on both the inbound and provider sides
//
// Configuration:
//   - Environment variables (12-factor)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	PROVIDER_URL=https://api.example.com PROVIDER_API_KEY=... ./server
//
//	# Development mode (colored logs, debug level)
//	LOG_DEV=true ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
